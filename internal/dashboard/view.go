package dashboard

import (
	"errors"
	"fmt"
	"time"

	"github.com/mesikahq/patient-dashboard/internal/patient"
)

var (
	ErrIndexOutOfRange = errors.New("patient index out of range")
	ErrEmptyHistory    = errors.New("patient has no diagnosis history")
)

// DefaultImage is used when neither the record nor the caller supplies one.
const DefaultImage = "/static/default-avatar.svg"

const longDate = "January 2, 2006"

// Dates are accepted in the ISO form, the upstream US form and RFC 3339.
var dateLayouts = []string{
	"2006-01-02",
	"01/02/2006",
	time.RFC3339,
}

// FormatDate renders a date of birth as a long-form English date, e.g.
// "1990-04-03" becomes "April 3, 1990". Unparseable input is returned as is.
func FormatDate(s string) string {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format(longDate)
		}
	}
	return s
}

type Vital struct {
	Value string `json:"value"`
	Level string `json:"level"`
}

type DiagnosticRow struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Status      string `json:"status"`
}

// TrendPoint is one blood-pressure reading on the trend chart.
type TrendPoint struct {
	Label     string  `json:"label"`
	Systolic  float64 `json:"systolic"`
	Diastolic float64 `json:"diastolic"`
}

// ProfileView is everything the dashboard shows for one selected patient.
type ProfileView struct {
	Index           int             `json:"index"`
	Name            string          `json:"name"`
	Image           string          `json:"image"`
	DateOfBirth     string          `json:"date_of_birth"`
	Gender          string          `json:"gender"`
	Contact         string          `json:"contact"`
	Insurance       string          `json:"insurance"`
	RespiratoryRate Vital           `json:"respiratory_rate"`
	Temperature     Vital           `json:"temperature"`
	HeartRate       Vital           `json:"heart_rate"`
	Diagnostics     []DiagnosticRow `json:"diagnostics"`
	LabResults      []string        `json:"lab_results"`
	Trend           []TrendPoint    `json:"trend"`
}

// Rows returns the diagnostic table as name, description, status cells.
func (v *ProfileView) Rows() [][]string {
	rows := make([][]string, len(v.Diagnostics))
	for i, d := range v.Diagnostics {
		rows[i] = []string{d.Name, d.Description, d.Status}
	}
	return rows
}

// BuildView projects records[index] into a ProfileView. The records are not
// modified.
func BuildView(records []patient.Record, index int, defaultImage string) (*ProfileView, error) {
	if index < 0 || index >= len(records) {
		return nil, fmt.Errorf("%w: %d of %d", ErrIndexOutOfRange, index, len(records))
	}
	rec := &records[index]

	latest, ok := rec.Latest()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrEmptyHistory, rec.Name)
	}

	view := &ProfileView{
		Index:       index,
		Name:        rec.Name,
		Image:       imageOrDefault(rec.ProfilePicture, defaultImage),
		DateOfBirth: FormatDate(rec.DateOfBirth),
		Gender:      rec.Gender,
		Contact:     rec.PhoneNumber,
		Insurance:   rec.InsuranceType,
		RespiratoryRate: Vital{
			Value: latest.RespiratoryRate.String() + " bpm",
			Level: latest.RespiratoryRate.Levels,
		},
		Temperature: Vital{
			Value: latest.Temperature.String() + "°F",
			Level: latest.Temperature.Levels,
		},
		HeartRate: Vital{
			Value: latest.HeartRate.String() + " bpm",
			Level: latest.HeartRate.Levels,
		},
		Diagnostics: make([]DiagnosticRow, len(rec.DiagnosticList)),
		LabResults:  make([]string, len(rec.LabResults)),
		Trend:       make([]TrendPoint, len(rec.DiagnosisHistory)),
	}

	for i, d := range rec.DiagnosticList {
		view.Diagnostics[i] = DiagnosticRow{Name: d.Name, Description: d.Description, Status: d.Status}
	}

	copy(view.LabResults, rec.LabResults)

	for i, entry := range rec.DiagnosisHistory {
		view.Trend[i] = TrendPoint{
			Label:     entry.Label(),
			Systolic:  entry.BloodPressure.Systolic.Value,
			Diastolic: entry.BloodPressure.Diastolic.Value,
		}
	}

	return view, nil
}

func imageOrDefault(src, fallback string) string {
	if src != "" {
		return src
	}
	if fallback != "" {
		return fallback
	}
	return DefaultImage
}
