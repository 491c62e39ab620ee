package api

import (
	"github.com/mesikahq/patient-dashboard/internal/dashboard"
)

type pageImage struct {
	Src string
	Alt string
}

// Page is the template model for the dashboard. It receives renderer output
// through the dashboard.Slots and dashboard.ChartSurface interfaces.
type Page struct {
	Title    string
	Loaded   bool
	Roster   []dashboard.RosterEntry
	Selected int
	Message  string

	text   map[dashboard.Slot]string
	images map[dashboard.Slot]pageImage
	rows   map[dashboard.Slot][][]string
	lists  map[dashboard.Slot][]string
	chart  *SVGChart
}

func newPage(roster []dashboard.RosterEntry, loaded bool, selected int) *Page {
	return &Page{
		Title:    "Patient Dashboard",
		Loaded:   loaded,
		Roster:   roster,
		Selected: selected,
		text:     map[dashboard.Slot]string{},
		images:   map[dashboard.Slot]pageImage{},
		rows:     map[dashboard.Slot][][]string{},
		lists:    map[dashboard.Slot][]string{},
	}
}

func (p *Page) WriteText(slot dashboard.Slot, text string) error {
	p.text[slot] = text
	return nil
}

func (p *Page) WriteImage(slot dashboard.Slot, src, alt string) error {
	p.images[slot] = pageImage{Src: src, Alt: alt}
	return nil
}

func (p *Page) WriteRows(slot dashboard.Slot, rows [][]string) error {
	p.rows[slot] = rows
	return nil
}

func (p *Page) WriteList(slot dashboard.Slot, items []string) error {
	p.lists[slot] = items
	return nil
}

func (p *Page) DrawChart(slot dashboard.Slot, series []dashboard.TrendPoint) (dashboard.Chart, error) {
	c := buildSVGChart(series)
	c.page = p
	p.chart = c
	return c, nil
}

// The accessors below are called from templates.

func (p *Page) HasProfile() bool {
	_, ok := p.text[dashboard.SlotProfileName]
	return ok
}

func (p *Page) Text(slot dashboard.Slot) string {
	return p.text[slot]
}

func (p *Page) Image(slot dashboard.Slot) pageImage {
	return p.images[slot]
}

func (p *Page) Rows(slot dashboard.Slot) [][]string {
	return p.rows[slot]
}

func (p *Page) List(slot dashboard.Slot) []string {
	return p.lists[slot]
}

func (p *Page) Chart() *SVGChart {
	return p.chart
}
