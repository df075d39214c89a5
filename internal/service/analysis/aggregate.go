// internal/service/analysis/aggregate.go

package analysis

import (
	"fmt"
	"net/url"
	"time"

	"tweetscope/internal/domain/tweet"
)

// ExcludedDomain is left out of the referenced domains counter
const ExcludedDomain = "twitter.com"

// PlaceVisit tracks how often a place was tagged and when it was last seen
type PlaceVisit struct {
	Name     string    `json:"name"`
	Count    int       `json:"counter"`
	LastSeen time.Time `json:"last_date"`
}

// Aggregate accumulates every statistic of one run. It is mutated only by Fold and
// read by the report builder once streaming is over.
type Aggregate struct {
	Hourly map[string]int
	Weekly map[string]int

	Languages map[string]int
	Sources   map[string]int
	Hashtags  map[string]int
	Domains   map[string]int
	Places    map[string]*PlaceVisit

	RetweetedUsers map[tweet.UserID]int
	MentionedUsers map[tweet.UserID]int

	Processed int
	GeoTagged int
	Retweets  int

	// Latest is the local timestamp of the first folded tweet (sources deliver newest first),
	// Earliest the one of the last folded tweet.
	Earliest time.Time
	Latest   time.Time

	resolver *Resolver
}

// NewAggregate creates an aggregate with the 24 hour and 7 weekday buckets in place
func NewAggregate(resolver *Resolver) *Aggregate {
	a := &Aggregate{
		Hourly:         make(map[string]int, 24),
		Weekly:         make(map[string]int, 7),
		Languages:      make(map[string]int),
		Sources:        make(map[string]int),
		Hashtags:       make(map[string]int),
		Domains:        make(map[string]int),
		Places:         make(map[string]*PlaceVisit),
		RetweetedUsers: make(map[tweet.UserID]int),
		MentionedUsers: make(map[tweet.UserID]int),
		resolver:       resolver,
	}
	for h := 0; h < 24; h++ {
		a.Hourly[HourBucket(h)] = 0
	}
	for d := 0; d < 7; d++ {
		a.Weekly[WeekdayBucket(d)] = 0
	}
	return a
}

// Resolver returns the identity resolver fed by this aggregate
func (a *Aggregate) Resolver() *Resolver {
	return a.resolver
}

// HourBucket returns the label of an hour bucket, "00:00" to "23:00"
func HourBucket(hour int) string {
	return fmt.Sprintf("%02d:00", hour)
}

// WeekdayBucket returns the label of a weekday bucket, "0" (Monday) to "6" (Sunday)
func WeekdayBucket(day int) string {
	return fmt.Sprintf("%d", day)
}

// MondayFirst converts a time.Weekday to the Monday=0 numbering
func MondayFirst(d time.Weekday) int {
	return (int(d) + 6) % 7
}

// Fold adds one classified tweet to the aggregate. Missing fields skip only the
// sub-step that needs them.
func (a *Aggregate) Fold(t Adjusted) {
	a.Processed++

	if !t.Local.IsZero() {
		if a.Latest.IsZero() {
			a.Latest = t.Local
		}
		a.Earliest = t.Local
	}

	if t.RetweetOf != nil {
		a.Retweets++
		if t.RetweetOf.ID != 0 {
			a.RetweetedUsers[t.RetweetOf.ID]++
			a.resolver.Register(t.RetweetOf.ID, t.RetweetOf.Handle)
		}
	}

	if !t.Local.IsZero() {
		a.Hourly[HourBucket(t.Local.Hour())]++
		a.Weekly[WeekdayBucket(MondayFirst(t.Local.Weekday()))]++
	}

	if t.Lang != "" {
		a.Languages[t.Lang]++
	}

	if t.Source != "" {
		a.Sources[t.Source]++
	}

	if t.Place != nil {
		a.GeoTagged++
		a.visit(t.Place.Name, t.Local)
	}

	for _, tag := range t.Hashtags {
		if tag == "" {
			continue
		}
		a.Hashtags["#"+tag]++
	}

	for _, link := range t.URLs {
		host := hostOf(link)
		if host == "" || host == ExcludedDomain {
			continue
		}
		a.Domains[host]++
	}

	for _, m := range t.Mentions {
		if m.ID == 0 {
			continue
		}
		a.MentionedUsers[m.ID]++
		a.resolver.Register(m.ID, m.Handle)
	}
}

// visit upserts a place entry; the last-seen date only moves forward and a zero
// timestamp never sets it
func (a *Aggregate) visit(name string, seen time.Time) {
	if name == "" {
		return
	}

	p, ok := a.Places[name]
	if !ok {
		a.Places[name] = &PlaceVisit{Name: name, Count: 1, LastSeen: seen}
		return
	}

	p.Count++
	if seen.After(p.LastSeen) {
		p.LastSeen = seen
	}
}

// Span returns the time covered between the earliest and latest folded tweets
func (a *Aggregate) Span() time.Duration {
	if a.Latest.IsZero() || a.Earliest.IsZero() {
		return 0
	}
	return a.Latest.Sub(a.Earliest)
}

// SpanDays returns the number of whole days covered
func (a *Aggregate) SpanDays() int {
	return int(a.Span() / (24 * time.Hour))
}

func hostOf(link string) string {
	if link == "" {
		return ""
	}
	u, err := url.Parse(link)
	if err != nil {
		return ""
	}
	return u.Host
}
