package dashboard

import (
	"fmt"

	"github.com/mesikahq/patient-dashboard/internal/patient"
)

// Renderer writes a selected patient into a fixed set of slots. It owns the
// chart it last drew and releases it before drawing the next one.
//
// A Renderer is not safe for concurrent use.
type Renderer struct {
	slots        Slots
	charts       ChartSurface
	defaultImage string
	chart        Chart
}

type Option func(*Renderer)

// WithDefaultImage sets the image shown for records without a profile picture.
func WithDefaultImage(src string) Option {
	return func(r *Renderer) {
		r.defaultImage = src
	}
}

func NewRenderer(slots Slots, charts ChartSurface, opts ...Option) *Renderer {
	r := &Renderer{
		slots:        slots,
		charts:       charts,
		defaultImage: DefaultImage,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Render shows records[index]. A failing step aborts the steps after it;
// slots already written keep their new content.
func (r *Renderer) Render(records []patient.Record, index int) (*ProfileView, error) {
	view, err := BuildView(records, index, r.defaultImage)
	if err != nil {
		return nil, err
	}
	if err := r.RenderView(view); err != nil {
		return nil, err
	}
	return view, nil
}

// RenderView writes an already built view.
func (r *Renderer) RenderView(view *ProfileView) error {
	if err := r.slots.WriteImage(SlotProfileImage, view.Image, view.Name); err != nil {
		return fmt.Errorf("write %s: %w", SlotProfileImage, err)
	}

	texts := map[Slot]string{
		SlotProfileName:      view.Name,
		SlotDateOfBirth:      view.DateOfBirth,
		SlotGender:           view.Gender,
		SlotContact:          view.Contact,
		SlotInsurance:        view.Insurance,
		SlotRespiratoryRate:  view.RespiratoryRate.Value,
		SlotRespiratoryLevel: view.RespiratoryRate.Level,
		SlotTemperature:      view.Temperature.Value,
		SlotTemperatureLevel: view.Temperature.Level,
		SlotHeartRate:        view.HeartRate.Value,
		SlotHeartRateLevel:   view.HeartRate.Level,
	}
	for _, slot := range TextSlots {
		if err := r.slots.WriteText(slot, texts[slot]); err != nil {
			return fmt.Errorf("write %s: %w", slot, err)
		}
	}

	if err := r.slots.WriteRows(SlotDiagnosticList, view.Rows()); err != nil {
		return fmt.Errorf("write %s: %w", SlotDiagnosticList, err)
	}
	if err := r.slots.WriteList(SlotLabResults, view.LabResults); err != nil {
		return fmt.Errorf("write %s: %w", SlotLabResults, err)
	}

	return r.redrawChart(view.Trend)
}

func (r *Renderer) redrawChart(series []TrendPoint) error {
	if err := r.releaseChart(); err != nil {
		return err
	}
	chart, err := r.charts.DrawChart(SlotBloodPressureChart, series)
	if err != nil {
		return fmt.Errorf("draw %s: %w", SlotBloodPressureChart, err)
	}
	r.chart = chart
	return nil
}

func (r *Renderer) releaseChart() error {
	if r.chart == nil {
		return nil
	}
	chart := r.chart
	r.chart = nil
	if err := chart.Release(); err != nil {
		return fmt.Errorf("release %s: %w", SlotBloodPressureChart, err)
	}
	return nil
}

// Close releases the last drawn chart, if any.
func (r *Renderer) Close() error {
	return r.releaseChart()
}
