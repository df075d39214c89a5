// internal/service/report/table.go

package report

import (
	"fmt"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"tweetscope/internal/service/analysis"
)

// Row is one ranked entry of a top-N table
type Row struct {
	Label   string `json:"label"`
	Count   int    `json:"count"`
	Percent int    `json:"percent"`
}

// Table is a ranked, truncated view of a keyed dataset
type Table struct {
	Rows  []Row `json:"rows"`
	Total int   `json:"total"`
	Width int   `json:"-"`
}

// Top ranks data by count descending, ties by key, and keeps the first n rows.
// Percentages are taken over the whole dataset.
func Top(data map[string]int, n int) *Table {
	t := &Table{}
	for _, v := range data {
		t.Total += v
	}
	if t.Total == 0 || n <= 0 {
		return t
	}

	keys := make([]string, 0, len(data))
	for k := range data {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if data[keys[i]] != data[keys[j]] {
			return data[keys[i]] > data[keys[j]]
		}
		return keys[i] < keys[j]
	})
	if len(keys) > n {
		keys = keys[:n]
	}

	for _, k := range keys {
		t.Rows = append(t.Rows, Row{Label: k, Count: data[k], Percent: Percent(data[k], t.Total)})
		t.Width = max(t.Width, utf8.RuneCountInString(k))
	}

	return t
}

// Percent rounds 100*count/total half up
func Percent(count, total int) int {
	if total <= 0 {
		return 0
	}
	return (200*count + total) / (2 * total)
}

// Empty reports whether there is nothing to rank
func (t *Table) Empty() bool {
	return len(t.Rows) == 0
}

// Lines renders the table rows, or "No data"
func (t *Table) Lines(p *Palette) []string {
	if t.Empty() {
		return []string{noData}
	}
	lines := make([]string, 0, len(t.Rows))
	for _, r := range t.Rows {
		lines = append(lines, fmt.Sprintf("- %s %6d %-4s",
			p.Bold(fmt.Sprintf("%-*s", t.Width, r.Label)), r.Count, fmt.Sprintf("(%d%%)", r.Percent)))
	}
	return lines
}

// RecentPlace is one row of the most recent places table
type RecentPlace struct {
	Label    string    `json:"label"`
	LastSeen time.Time `json:"last_seen"`
}

// PlaceTables ranks places by visits and by last visit, sharing one label width
type PlaceTables struct {
	Visits *Table        `json:"visits"`
	Recent []RecentPlace `json:"recent"`
}

// Places builds both place rankings, each truncated to n rows
func Places(places map[string]*analysis.PlaceVisit, n int) *PlaceTables {
	counts := make(map[string]int, len(places))
	for name, v := range places {
		counts[name] = v.Count
	}
	pt := &PlaceTables{Visits: Top(counts, n)}
	if pt.Visits.Empty() {
		return pt
	}

	names := make([]string, 0, len(places))
	for name := range places {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		a, b := places[names[i]].LastSeen, places[names[j]].LastSeen
		if !a.Equal(b) {
			return a.After(b)
		}
		return names[i] < names[j]
	})
	if len(names) > n {
		names = names[:n]
	}
	for _, name := range names {
		pt.Recent = append(pt.Recent, RecentPlace{Label: name, LastSeen: places[name].LastSeen})
	}

	return pt
}

// Lines renders the visits table followed by the most recent places
func (pt *PlaceTables) Lines(p *Palette) []string {
	if pt.Visits.Empty() {
		return []string{noData}
	}

	lines := []string{""}
	lines = append(lines, pt.Visits.Lines(p)...)
	lines = append(lines, "", p.Info("Most recent places"))
	for _, r := range pt.Recent {
		// places only ever tagged on undated tweets have no last-seen date
		date := ""
		if !r.LastSeen.IsZero() {
			date = r.LastSeen.Format("2006-01-02")
		}
		lines = append(lines, strings.TrimRight(fmt.Sprintf("- %s   %s",
			p.Bold(fmt.Sprintf("%-*s", pt.Visits.Width, r.Label)), date), " "))
	}
	return lines
}
