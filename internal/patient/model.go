package patient

import (
	"errors"
	"strconv"
	"strings"
	"time"
)

var (
	ErrUnknownMonth       = errors.New("unknown diagnosis month")
	ErrHistoryOrder       = errors.New("diagnosis history is not newest-first")
	ErrUnexpectedPayload  = errors.New("unexpected upstream payload")
	ErrInvalidOrderPolicy = errors.New("invalid order policy")
)

// Measurement is a numeric vital paired with its qualitative level label
// (e.g. "Normal", "Higher than Average").
type Measurement struct {
	Value  float64 `json:"value"`
	Levels string  `json:"levels"`
}

// String formats the value the way the upstream service emits it: integers
// without a fractional part, everything else in shortest form.
func (m Measurement) String() string {
	return strconv.FormatFloat(m.Value, 'f', -1, 64)
}

type BloodPressure struct {
	Systolic  Measurement `json:"systolic"`
	Diastolic Measurement `json:"diastolic"`
}

// DiagnosisEntry is one dated clinical snapshot.
type DiagnosisEntry struct {
	Month           string        `json:"month"`
	Year            int           `json:"year"`
	BloodPressure   BloodPressure `json:"blood_pressure"`
	HeartRate       Measurement   `json:"heart_rate"`
	RespiratoryRate Measurement   `json:"respiratory_rate"`
	Temperature     Measurement   `json:"temperature"`
}

// Label is the "<month> <year>" caption used by the trend chart.
func (d DiagnosisEntry) Label() string {
	return d.Month + " " + strconv.Itoa(d.Year)
}

// Period resolves the entry's month name into a comparable (year, month).
func (d DiagnosisEntry) Period() (int, time.Month, error) {
	m, ok := ParseMonth(d.Month)
	if !ok {
		return 0, 0, ErrUnknownMonth
	}
	return d.Year, m, nil
}

type DiagnosticItem struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Status      string `json:"status"`
}

// Record is one patient as returned by the upstream service.
//
// DiagnosisHistory is ordered newest-first: index 0 is the latest snapshot.
// The fetch client enforces this before a Record reaches a renderer.
type Record struct {
	Name             string           `json:"name"`
	Gender           string           `json:"gender"`
	Age              int              `json:"age,omitempty"`
	ProfilePicture   string           `json:"profile_picture,omitempty"`
	DateOfBirth      string           `json:"date_of_birth"`
	PhoneNumber      string           `json:"phone_number"`
	EmergencyContact string           `json:"emergency_contact,omitempty"`
	InsuranceType    string           `json:"insurance_type"`
	DiagnosisHistory []DiagnosisEntry `json:"diagnosis_history"`
	DiagnosticList   []DiagnosticItem `json:"diagnostic_list"`
	LabResults       []string         `json:"lab_results"`
}

// Latest returns the newest diagnosis entry.
func (r *Record) Latest() (DiagnosisEntry, bool) {
	if len(r.DiagnosisHistory) == 0 {
		return DiagnosisEntry{}, false
	}
	return r.DiagnosisHistory[0], true
}

var monthNames = map[string]time.Month{
	"jan": time.January, "feb": time.February, "mar": time.March,
	"apr": time.April, "may": time.May, "jun": time.June,
	"jul": time.July, "aug": time.August, "sep": time.September,
	"sept": time.September, "oct": time.October, "nov": time.November,
	"dec": time.December,
}

func init() {
	for m := time.January; m <= time.December; m++ {
		monthNames[strings.ToLower(m.String())] = m
	}
}

// ParseMonth accepts full English month names and their common
// abbreviations, case-insensitively, with an optional trailing period.
func ParseMonth(name string) (time.Month, bool) {
	key := strings.TrimSuffix(strings.ToLower(strings.TrimSpace(name)), ".")
	m, ok := monthNames[key]
	return m, ok
}
