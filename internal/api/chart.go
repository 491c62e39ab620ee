package api

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/mesikahq/patient-dashboard/internal/dashboard"
)

const (
	chartWidth  = 640
	chartHeight = 260
	padLeft     = 44
	padRight    = 16
	padTop      = 16
	padBottom   = 40
	yTicks      = 4
)

var errChartReleased = errors.New("chart already released")

// ChartPoint is one plotted reading; Title is its hover text.
type ChartPoint struct {
	X     float64
	Y     float64
	Title string
}

type AxisLabel struct {
	X    float64
	Y    float64
	Text string
}

// SVGChart is a server-drawn line chart of systolic and diastolic pressure.
// The y axis begins at zero.
type SVGChart struct {
	page     *Page
	released bool

	Width     int
	Height    int
	PlotLeft  int
	PlotRight int
	PlotTop   int
	PlotBase  int
	Systolic  []ChartPoint
	Diastolic []ChartPoint
	XLabels   []AxisLabel
	YLabels   []AxisLabel
}

func (c *SVGChart) Release() error {
	if c.released {
		return errChartReleased
	}
	c.released = true
	if c.page != nil && c.page.chart == c {
		c.page.chart = nil
	}
	return nil
}

func (c *SVGChart) SystolicPoints() string  { return polyline(c.Systolic) }
func (c *SVGChart) DiastolicPoints() string { return polyline(c.Diastolic) }

func polyline(points []ChartPoint) string {
	parts := make([]string, len(points))
	for i, p := range points {
		parts[i] = fmt.Sprintf("%.1f,%.1f", p.X, p.Y)
	}
	return strings.Join(parts, " ")
}

// axisMax rounds the largest reading up to a multiple of 20.
func axisMax(series []dashboard.TrendPoint) float64 {
	peak := 0.0
	for _, p := range series {
		peak = math.Max(peak, math.Max(p.Systolic, p.Diastolic))
	}
	if peak <= 0 {
		return 20
	}
	return math.Ceil(peak/20) * 20
}

func buildSVGChart(series []dashboard.TrendPoint) *SVGChart {
	c := &SVGChart{
		Width:     chartWidth,
		Height:    chartHeight,
		PlotLeft:  padLeft,
		PlotRight: chartWidth - padRight,
		PlotTop:   padTop,
		PlotBase:  chartHeight - padBottom,
		Systolic:  make([]ChartPoint, len(series)),
		Diastolic: make([]ChartPoint, len(series)),
		XLabels:   make([]AxisLabel, len(series)),
	}

	plotW := float64(c.PlotRight - c.PlotLeft)
	plotH := float64(c.PlotBase - c.PlotTop)
	top := axisMax(series)

	x := func(i int) float64 {
		if len(series) == 1 {
			return float64(c.PlotLeft) + plotW/2
		}
		return float64(c.PlotLeft) + plotW*float64(i)/float64(len(series)-1)
	}
	y := func(v float64) float64 {
		return float64(c.PlotTop) + plotH*(1-v/top)
	}

	for i, p := range series {
		px := x(i)
		c.Systolic[i] = ChartPoint{X: px, Y: y(p.Systolic), Title: p.Label + ": " + formatReading(p.Systolic)}
		c.Diastolic[i] = ChartPoint{X: px, Y: y(p.Diastolic), Title: p.Label + ": " + formatReading(p.Diastolic)}
		c.XLabels[i] = AxisLabel{X: px, Y: float64(c.PlotBase) + 20, Text: p.Label}
	}

	for i := 0; i <= yTicks; i++ {
		v := top * float64(i) / yTicks
		c.YLabels = append(c.YLabels, AxisLabel{X: float64(c.PlotLeft) - 8, Y: y(v), Text: formatReading(v)})
	}

	return c
}

func formatReading(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
