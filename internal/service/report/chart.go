// internal/service/report/chart.go

package report

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
)

const (
	barWidth = 50
	barGlyph = "█"
	noData   = "No data"
)

var weekdays = []string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"}

// ChartRow is one bar of a distribution chart
type ChartRow struct {
	Key      string   `json:"key"`
	Label    string   `json:"label"`
	Value    int      `json:"value"`
	Marker   Marker   `json:"marker"`
	Severity Severity `json:"severity"`
}

// Chart is a keyed dataset laid out as horizontal bars in key order
type Chart struct {
	Title string     `json:"title"`
	Rows  []ChartRow `json:"rows"`
	Bands Bands      `json:"-"`
	total int
}

// NewChart sorts the dataset by key and bands every row. With weekday set,
// numeric keys are displayed as day names.
func NewChart(title string, data map[string]int, weekday bool) *Chart {
	keys := make([]string, 0, len(data))
	for k := range data {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	bands := ComputeBands(data)
	c := &Chart{Title: title, Bands: bands, Rows: make([]ChartRow, 0, len(keys))}

	for _, k := range keys {
		v := data[k]
		label := k
		if weekday {
			label = WeekdayName(k)
		}
		c.Rows = append(c.Rows, ChartRow{
			Key:      k,
			Label:    label,
			Value:    v,
			Marker:   bands.Marker(v),
			Severity: bands.Severity(v),
		})
		c.total += v
	}

	return c
}

// WeekdayName maps "0".."6" to Monday..Sunday; other keys are returned unchanged
func WeekdayName(key string) string {
	d, err := strconv.Atoi(key)
	if err != nil || d < 0 {
		return key
	}
	return weekdays[d%len(weekdays)]
}

// Empty reports whether the dataset sums to zero
func (c *Chart) Empty() bool {
	return c.total == 0
}

// Lines renders the chart for display
func (c *Chart) Lines(p *Palette) []string {
	lines := []string{c.Title}
	if c.Empty() {
		return append(lines, noData)
	}

	max := 0
	valueWidth := 0
	values := make([]string, len(c.Rows))
	for i, r := range c.Rows {
		if r.Value > max {
			max = r.Value
		}
		values[i] = siValue(r.Value)
		if len(values[i]) > valueWidth {
			valueWidth = len(values[i])
		}
	}

	lines = append(lines, strings.Repeat("#", barWidth+valueWidth+4+longestLabel(c.Rows)))
	for i, r := range c.Rows {
		n := int(math.Round(float64(barWidth) * float64(r.Value) / float64(max)))
		bar := strings.Repeat(barGlyph, n) + strings.Repeat(" ", barWidth-n)
		value := fmt.Sprintf("%*s", valueWidth, values[i])
		lines = append(lines, fmt.Sprintf("%s  %s  %s",
			p.Severity(r.Severity, bar), p.Severity(r.Severity, value), markLabel(p, r)))
	}

	return lines
}

// ExportLines renders the chart as "value - label" pairs for flat-text export
func (c *Chart) ExportLines() []string {
	lines := []string{c.Title}
	for _, r := range c.Rows {
		lines = append(lines, fmt.Sprintf("%d - %s", r.Value, r.Label))
	}
	return lines
}

func markLabel(p *Palette, r ChartRow) string {
	switch r.Marker {
	case MarkerHigh:
		return r.Label + " (" + p.Green("+") + ")"
	case MarkerLow:
		return r.Label + " (" + p.Red("-") + ")"
	default:
		return r.Label
	}
}

func longestLabel(rows []ChartRow) int {
	n := 0
	for _, r := range rows {
		if l := len(r.Label) + 4; l > n {
			n = l
		}
	}
	return n
}

// siValue formats v with an SI suffix once it reaches a thousand
func siValue(v int) string {
	if v < 1000 {
		return strconv.Itoa(v)
	}
	value, prefix := humanize.ComputeSI(float64(v))
	return humanize.FtoaWithDigits(value, 1) + prefix
}
