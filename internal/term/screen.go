// Package term renders the dashboard as plain text for the command line.
package term

import (
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/mesikahq/patient-dashboard/internal/dashboard"
)

const barWidth = 30

var errChartReleased = errors.New("chart already released")

type image struct {
	src string
	alt string
}

// Screen collects slot writes and prints them with Flush. It implements
// dashboard.Slots and dashboard.ChartSurface.
type Screen struct {
	out    io.Writer
	text   map[dashboard.Slot]string
	images map[dashboard.Slot]image
	rows   map[dashboard.Slot][][]string
	lists  map[dashboard.Slot][]string
	chart  *textChart
}

func NewScreen(out io.Writer) *Screen {
	return &Screen{
		out:    out,
		text:   map[dashboard.Slot]string{},
		images: map[dashboard.Slot]image{},
		rows:   map[dashboard.Slot][][]string{},
		lists:  map[dashboard.Slot][]string{},
	}
}

func (s *Screen) WriteText(slot dashboard.Slot, text string) error {
	s.text[slot] = text
	return nil
}

func (s *Screen) WriteImage(slot dashboard.Slot, src, alt string) error {
	s.images[slot] = image{src: src, alt: alt}
	return nil
}

func (s *Screen) WriteRows(slot dashboard.Slot, rows [][]string) error {
	s.rows[slot] = rows
	return nil
}

func (s *Screen) WriteList(slot dashboard.Slot, items []string) error {
	s.lists[slot] = items
	return nil
}

func (s *Screen) DrawChart(_ dashboard.Slot, series []dashboard.TrendPoint) (dashboard.Chart, error) {
	c := &textChart{screen: s, series: append([]dashboard.TrendPoint(nil), series...)}
	s.chart = c
	return c, nil
}

// Flush prints the current slot contents.
func (s *Screen) Flush() error {
	tw := tabwriter.NewWriter(s.out, 0, 4, 2, ' ', 0)

	fmt.Fprintf(tw, "%s\n", s.text[dashboard.SlotProfileName])
	fmt.Fprintf(tw, "  Date Of Birth\t%s\n", s.text[dashboard.SlotDateOfBirth])
	fmt.Fprintf(tw, "  Gender\t%s\n", s.text[dashboard.SlotGender])
	fmt.Fprintf(tw, "  Contact Info.\t%s\n", s.text[dashboard.SlotContact])
	fmt.Fprintf(tw, "  Insurance Provider\t%s\n", s.text[dashboard.SlotInsurance])
	fmt.Fprintf(tw, "  Picture\t%s\n", s.images[dashboard.SlotProfileImage].src)

	fmt.Fprintf(tw, "\nVitals\n")
	fmt.Fprintf(tw, "  Respiratory Rate\t%s\t%s\n", s.text[dashboard.SlotRespiratoryRate], s.text[dashboard.SlotRespiratoryLevel])
	fmt.Fprintf(tw, "  Temperature\t%s\t%s\n", s.text[dashboard.SlotTemperature], s.text[dashboard.SlotTemperatureLevel])
	fmt.Fprintf(tw, "  Heart Rate\t%s\t%s\n", s.text[dashboard.SlotHeartRate], s.text[dashboard.SlotHeartRateLevel])

	if s.chart != nil {
		fmt.Fprintf(tw, "\nBlood Pressure\n")
		s.chart.write(tw)
	}

	fmt.Fprintf(tw, "\nDiagnostic List\n")
	if rows := s.rows[dashboard.SlotDiagnosticList]; len(rows) == 0 {
		fmt.Fprintf(tw, "  (none)\n")
	} else {
		fmt.Fprintf(tw, "  Problem/Diagnosis\tDescription\tStatus\n")
		for _, row := range rows {
			fmt.Fprintf(tw, "  %s\n", strings.Join(row, "\t"))
		}
	}

	fmt.Fprintf(tw, "\nLab Results\n")
	for _, item := range s.lists[dashboard.SlotLabResults] {
		fmt.Fprintf(tw, "  - %s\n", item)
	}

	return tw.Flush()
}

// PrintRoster writes one line per patient.
func PrintRoster(out io.Writer, roster []dashboard.RosterEntry) error {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "INDEX\tNAME\tPICTURE\n")
	for _, entry := range roster {
		fmt.Fprintf(tw, "%d\t%s\t%s\n", entry.Index, entry.Name, entry.Image)
	}
	return tw.Flush()
}

// textChart draws each reading as a row with a systolic bar scaled from zero.
type textChart struct {
	screen   *Screen
	series   []dashboard.TrendPoint
	released bool
}

func (c *textChart) Release() error {
	if c.released {
		return errChartReleased
	}
	c.released = true
	if c.screen.chart == c {
		c.screen.chart = nil
	}
	return nil
}

func (c *textChart) write(w io.Writer) {
	peak := 0.0
	for _, p := range c.series {
		peak = math.Max(peak, math.Max(p.Systolic, p.Diastolic))
	}

	fmt.Fprintf(w, "  Period\tSystolic\tDiastolic\t\n")
	for _, p := range c.series {
		fmt.Fprintf(w, "  %s\t%s\t%s\t%s\n", p.Label, format(p.Systolic), format(p.Diastolic), strings.Repeat("#", barLength(p.Systolic, peak)))
	}
}

// barLength scales v against peak, clamped to [0, barWidth].
func barLength(v, peak float64) int {
	if peak <= 0 || v <= 0 {
		return 0
	}
	n := int(math.Round(v / peak * barWidth))
	if n > barWidth {
		return barWidth
	}
	return n
}

func format(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
