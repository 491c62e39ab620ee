package dashboard

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesikahq/patient-dashboard/internal/patient"
)

type image struct{ src, alt string }

// recorder captures slot writes the way a page would hold them.
type recorder struct {
	text   map[Slot]string
	images map[Slot]image
	rows   map[Slot][][]string
	lists  map[Slot][]string
	writes []Slot

	live    int
	drawn   []*fakeChart
	failOn  Slot
	failErr error
}

func newRecorder() *recorder {
	return &recorder{
		text:   map[Slot]string{},
		images: map[Slot]image{},
		rows:   map[Slot][][]string{},
		lists:  map[Slot][]string{},
	}
}

func (r *recorder) fail(slot Slot) error {
	r.writes = append(r.writes, slot)
	if slot == r.failOn {
		return r.failErr
	}
	return nil
}

func (r *recorder) WriteText(slot Slot, text string) error {
	if err := r.fail(slot); err != nil {
		return err
	}
	r.text[slot] = text
	return nil
}

func (r *recorder) WriteImage(slot Slot, src, alt string) error {
	if err := r.fail(slot); err != nil {
		return err
	}
	r.images[slot] = image{src, alt}
	return nil
}

func (r *recorder) WriteRows(slot Slot, rows [][]string) error {
	if err := r.fail(slot); err != nil {
		return err
	}
	r.rows[slot] = rows
	return nil
}

func (r *recorder) WriteList(slot Slot, items []string) error {
	if err := r.fail(slot); err != nil {
		return err
	}
	r.lists[slot] = items
	return nil
}

func (r *recorder) DrawChart(slot Slot, series []TrendPoint) (Chart, error) {
	if err := r.fail(slot); err != nil {
		return nil, err
	}
	c := &fakeChart{owner: r, series: series}
	r.live++
	r.drawn = append(r.drawn, c)
	return c, nil
}

type fakeChart struct {
	owner    *recorder
	series   []TrendPoint
	released bool
}

func (c *fakeChart) Release() error {
	if c.released {
		return errors.New("chart released twice")
	}
	c.released = true
	c.owner.live--
	return nil
}

func measurement(v float64, level string) patient.Measurement {
	return patient.Measurement{Value: v, Levels: level}
}

func sampleRecords() []patient.Record {
	return []patient.Record{
		{
			Name:           "Jessica Taylor",
			Gender:         "Female",
			DateOfBirth:    "1990-04-03",
			PhoneNumber:    "(415) 555-1234",
			InsuranceType:  "Sunrise Health Assurance",
			ProfilePicture: "https://example.test/jessica.png",
			DiagnosisHistory: []patient.DiagnosisEntry{
				{
					Month: "March", Year: 2024,
					BloodPressure: patient.BloodPressure{
						Systolic:  measurement(120, "Normal"),
						Diastolic: measurement(80, "Normal"),
					},
					RespiratoryRate: measurement(20, "Normal"),
					Temperature:     measurement(98.6, "Normal"),
					HeartRate:       measurement(78, "Lower than Average"),
				},
				{
					Month: "Feb", Year: 2024,
					BloodPressure: patient.BloodPressure{
						Systolic:  measurement(118, "Normal"),
						Diastolic: measurement(76, "Normal"),
					},
					RespiratoryRate: measurement(99, "Stale"),
					Temperature:     measurement(101, "Stale"),
					HeartRate:       measurement(140, "Stale"),
				},
			},
			DiagnosticList: []patient.DiagnosticItem{
				{Name: "Hypertension", Description: "Chronic high blood pressure", Status: "Under Observation"},
				{Name: "Type 2 Diabetes", Description: "Insulin resistance", Status: "Cured"},
				{Name: "Asthma", Description: "Recurrent bronchial constriction", Status: "Inactive"},
			},
			LabResults: []string{"Blood Tests", "CT Scans", "Radiology Reports", "X-Rays"},
		},
		{
			Name:        "Ryan Johnson",
			DateOfBirth: "07/12/1979",
			DiagnosisHistory: []patient.DiagnosisEntry{
				{
					Month: "Jan", Year: 2024,
					BloodPressure: patient.BloodPressure{
						Systolic:  measurement(145, "Higher than Average"),
						Diastolic: measurement(92, "Higher than Average"),
					},
				},
			},
			LabResults: []string{"Urine Tests"},
		},
		{Name: "No History"},
	}
}

func TestRenderWritesEverySlot(t *testing.T) {
	rec := newRecorder()
	r := NewRenderer(rec, rec)

	view, err := r.Render(sampleRecords(), 0)
	require.NoError(t, err)
	require.NotNil(t, view)

	assert.Equal(t, image{"https://example.test/jessica.png", "Jessica Taylor"}, rec.images[SlotProfileImage])
	assert.Equal(t, "Jessica Taylor", rec.text[SlotProfileName])
	assert.Equal(t, "April 3, 1990", rec.text[SlotDateOfBirth])
	assert.Equal(t, "Female", rec.text[SlotGender])
	assert.Equal(t, "(415) 555-1234", rec.text[SlotContact])
	assert.Equal(t, "Sunrise Health Assurance", rec.text[SlotInsurance])

	assert.Equal(t, "20 bpm", rec.text[SlotRespiratoryRate])
	assert.Equal(t, "Normal", rec.text[SlotRespiratoryLevel])
	assert.Equal(t, "98.6°F", rec.text[SlotTemperature])
	assert.Equal(t, "Normal", rec.text[SlotTemperatureLevel])
	assert.Equal(t, "78 bpm", rec.text[SlotHeartRate])
	assert.Equal(t, "Lower than Average", rec.text[SlotHeartRateLevel])

	assert.Equal(t, [][]string{
		{"Hypertension", "Chronic high blood pressure", "Under Observation"},
		{"Type 2 Diabetes", "Insulin resistance", "Cured"},
		{"Asthma", "Recurrent bronchial constriction", "Inactive"},
	}, rec.rows[SlotDiagnosticList])
	assert.Equal(t, []string{"Blood Tests", "CT Scans", "Radiology Reports", "X-Rays"}, rec.lists[SlotLabResults])

	require.Len(t, rec.drawn, 1)
	assert.Equal(t, []TrendPoint{
		{Label: "March 2024", Systolic: 120, Diastolic: 80},
		{Label: "Feb 2024", Systolic: 118, Diastolic: 76},
	}, rec.drawn[0].series)
}

func TestRenderNameMatchesRecordForEveryIndex(t *testing.T) {
	records := sampleRecords()[:2]
	rec := newRecorder()
	r := NewRenderer(rec, rec)

	for i := range records {
		_, err := r.Render(records, i)
		require.NoError(t, err)
		assert.Equal(t, records[i].Name, rec.text[SlotProfileName])
		assert.Len(t, rec.rows[SlotDiagnosticList], len(records[i].DiagnosticList))
		assert.Len(t, rec.drawn[len(rec.drawn)-1].series, len(records[i].DiagnosisHistory))
	}
}

func TestRenderVitalsUseLatestEntry(t *testing.T) {
	rec := newRecorder()
	r := NewRenderer(rec, rec)

	_, err := r.Render(sampleRecords(), 0)
	require.NoError(t, err)

	for _, slot := range []Slot{SlotRespiratoryLevel, SlotTemperatureLevel, SlotHeartRateLevel} {
		assert.NotEqual(t, "Stale", rec.text[slot], slot)
	}
	assert.NotEqual(t, "140 bpm", rec.text[SlotHeartRate])
}

func TestRenderReplacesChart(t *testing.T) {
	rec := newRecorder()
	r := NewRenderer(rec, rec)
	records := sampleRecords()

	_, err := r.Render(records, 0)
	require.NoError(t, err)
	_, err = r.Render(records, 1)
	require.NoError(t, err)
	_, err = r.Render(records, 1)
	require.NoError(t, err)

	assert.Equal(t, 1, rec.live)
	require.Len(t, rec.drawn, 3)
	assert.True(t, rec.drawn[0].released)
	assert.True(t, rec.drawn[1].released)
	assert.False(t, rec.drawn[2].released)
	assert.Equal(t, []TrendPoint{{Label: "Jan 2024", Systolic: 145, Diastolic: 92}}, rec.drawn[2].series)

	require.NoError(t, r.Close())
	assert.Equal(t, 0, rec.live)
	require.NoError(t, r.Close())
}

func TestRenderFallsBackToDefaultImage(t *testing.T) {
	rec := newRecorder()

	_, err := NewRenderer(rec, rec).Render(sampleRecords(), 1)
	require.NoError(t, err)
	assert.Equal(t, DefaultImage, rec.images[SlotProfileImage].src)

	_, err = NewRenderer(rec, rec, WithDefaultImage("/assets/default.png")).Render(sampleRecords(), 1)
	require.NoError(t, err)
	assert.Equal(t, "/assets/default.png", rec.images[SlotProfileImage].src)
}

func TestRenderPreconditions(t *testing.T) {
	rec := newRecorder()
	r := NewRenderer(rec, rec)
	records := sampleRecords()

	for _, index := range []int{-1, len(records)} {
		_, err := r.Render(records, index)
		assert.True(t, errors.Is(err, ErrIndexOutOfRange), "index %d", index)
	}

	_, err := r.Render(records, 2)
	assert.True(t, errors.Is(err, ErrEmptyHistory))

	assert.Empty(t, rec.writes)
}

func TestRenderAbortsAfterFailedStep(t *testing.T) {
	rec := newRecorder()
	rec.failOn = SlotDiagnosticList
	rec.failErr = errors.New("table detached")
	r := NewRenderer(rec, rec)

	_, err := r.Render(sampleRecords(), 0)
	require.Error(t, err)
	assert.True(t, errors.Is(err, rec.failErr))

	assert.Equal(t, "Jessica Taylor", rec.text[SlotProfileName])
	assert.NotContains(t, rec.writes, SlotLabResults)
	assert.Empty(t, rec.drawn)
}

func TestRenderDoesNotMutateRecords(t *testing.T) {
	records := sampleRecords()
	before := sampleRecords()
	rec := newRecorder()

	view, err := NewRenderer(rec, rec).Render(records, 0)
	require.NoError(t, err)

	view.LabResults[0] = "changed"
	view.Trend[0].Systolic = 0
	assert.Equal(t, before, records)
}

func TestBuildRoster(t *testing.T) {
	roster := BuildRoster(sampleRecords(), "/assets/default.png")

	require.Len(t, roster, 3)
	assert.Equal(t, RosterEntry{Index: 0, Name: "Jessica Taylor", Image: "https://example.test/jessica.png"}, roster[0])
	assert.Equal(t, RosterEntry{Index: 1, Name: "Ryan Johnson", Image: "/assets/default.png"}, roster[1])
	assert.Equal(t, 2, roster[2].Index)
}
