// internal/service/report/result.go

package report

import (
	"fmt"
	"time"

	"tweetscope/internal/domain/tweet"
	"tweetscope/internal/service/analysis"
)

// Report sizes
const (
	TopLanguages       = 5
	TopSources         = 10
	TopPlaces          = 10
	TopHashtags        = 10
	TopRetweeted       = 5
	TopMentioned       = 5
	TopDomains         = 6
	TopFriendLanguages = 6
	TopFriendTimezones = 8
)

// Notes shown as advisories
const (
	NoTimezoneNote   = "Can't get specific timezone for this user"
	ShortHistoryNote = "Looks like we do not have enough tweets from user, you should consider retrying (--limit)"
	FriendRateNote   = "Rate limit exceeded to get friends data, you should retry in 15 minutes"
	dateTimeLayout   = "2006-01-02 15:04:05"
)

// Input is everything the builder needs once streaming is over
type Input struct {
	RunID     string
	Handle    string
	Profile   tweet.Profile
	Options   tweet.Options
	Target    int
	Retrieved int
	Aggregate *analysis.Aggregate

	// Friends is nil when the followed-accounts pass was not requested
	Friends       *analysis.FriendStats
	FriendTarget  int
	FriendsFailed bool
}

// Section is one printed block of the report
type Section struct {
	Lines  []string
	Export []string
}

// Result is the structured report. Its JSON form is the -j output and the stored report.
type Result struct {
	RunID     string    `json:"run_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`

	UserName          string `json:"user_name"`
	UserLang          string `json:"user_lang"`
	UserGeoEnabled    bool   `json:"user_geo_enabled"`
	UserTimeZone      string `json:"user_time_zone"`
	UserUTCOffset     *int   `json:"user_utc_offset"`
	UserUTCOffsetNote string `json:"user_utc_offset_note,omitempty"`
	UserUTCOffsetSet  string `json:"user_utc_offset_set,omitempty"`

	StatusCount         int     `json:"status_count"`
	StatusRetrieving    int     `json:"status_retrieving"`
	StatusDownloaded    int     `json:"status_downloaded"`
	StatusProcessed     int     `json:"status_processed"`
	StatusStartDate     string  `json:"status_start_date"`
	StatusEndDate       string  `json:"status_end_date"`
	StatusDays          int     `json:"status_days"`
	StatusNote          string  `json:"status_note,omitempty"`
	AverageTweetsPerDay float64 `json:"status_average_tweets_per_day,omitempty"`

	ActivityHourly map[string]int `json:"activity_hourly"`
	ActivityWeekly map[string]int `json:"activity_weekly"`

	TopLanguages         map[string]int                  `json:"top_languages"`
	TopSources           map[string]int                  `json:"top_sources"`
	GeoEnabledTweetCount int                             `json:"geo_enabled_tweet_count"`
	TopPlaces            map[string]*analysis.PlaceVisit `json:"top_places,omitempty"`
	TopHashtags          map[string]int                  `json:"top_hashtags"`

	RTCount           *int           `json:"rt_count,omitempty"`
	TopRetweetedUsers map[string]int `json:"top_retweeted_users,omitempty"`
	TopMentionedUsers map[string]int `json:"top_mentioned_users"`
	TopDomains        map[string]int `json:"top_referenced_domains"`

	FriendCount         int            `json:"friend_count,omitempty"`
	FriendRateNote      string         `json:"friend_rate_note,omitempty"`
	TopFriendsLanguages map[string]int `json:"top_friends_languages,omitempty"`
	TopFriendTimezones  map[string]int `json:"top_friend_timezones,omitempty"`

	Sections []Section `json:"-"`
}

// ShortHistory reports whether the pulled tweets cover less than 30 days while
// the account has more tweets than were pulled
func ShortHistory(agg *analysis.Aggregate, retrieved, postCount int) bool {
	return agg.SpanDays() < 30 && retrieved < postCount
}

// Build renders every section in report order and assembles the result
func Build(in Input, p *Palette) (*Result, error) {
	agg := in.Aggregate
	prof := in.Profile

	res := &Result{
		RunID:            in.RunID,
		CreatedAt:        time.Now().UTC(),
		UserName:         in.Handle,
		UserLang:         prof.Lang,
		UserGeoEnabled:   prof.GeoEnabled,
		UserTimeZone:     prof.TimeZone,
		UserUTCOffset:    prof.UTCOffset,
		StatusCount:      prof.PostCount,
		StatusRetrieving: in.Target,
		StatusDownloaded: in.Retrieved,
		StatusProcessed:  agg.Processed,
		StatusDays:       agg.SpanDays(),
	}
	if !agg.Earliest.IsZero() {
		res.StatusStartDate = agg.Earliest.Format(dateTimeLayout)
		res.StatusEndDate = agg.Latest.Format(dateTimeLayout)
	}

	b := &builder{palette: p}

	// profile header
	b.line(p.Info(fmt.Sprintf("Getting @%s account data...", in.Handle)))
	b.line(p.Info("lang           : " + p.Bold(prof.Lang)))
	b.line(p.Info("geo_enabled    : " + p.Bold(fmt.Sprint(prof.GeoEnabled))))
	b.line(p.Info("time_zone      : " + p.Bold(prof.TimeZone)))
	b.line(p.Info("utc_offset     : " + p.Bold(offsetString(prof.UTCOffset))))
	if prof.UTCOffset == nil {
		res.UserUTCOffsetNote = NoTimezoneNote
		b.line(p.Warn(NoTimezoneNote))
	}
	if in.Options.UTCOffset != nil {
		res.UserUTCOffsetSet = fmt.Sprintf("Applying timezone offset %d (--utc-offset)", *in.Options.UTCOffset)
		b.line(p.Warn(res.UserUTCOffsetSet))
	}
	b.line(p.Info("statuses_count : " + p.Bold(fmt.Sprint(prof.PostCount))))
	b.line(p.Info(fmt.Sprintf("Retrieving last %d tweets...", in.Target)))

	b.line(p.Info(fmt.Sprintf("Downloaded %d tweets from %s to %s (%d days)",
		in.Retrieved, res.StatusStartDate, res.StatusEndDate, res.StatusDays)))
	if ShortHistory(agg, in.Retrieved, prof.PostCount) {
		res.StatusNote = ShortHistoryNote
		b.line(p.Warn(ShortHistoryNote))
	}
	if res.StatusDays != 0 {
		res.AverageTweetsPerDay = float64(in.Retrieved) / float64(res.StatusDays)
		b.line(p.Info("Average number of tweets per day: " + p.Bold(fmt.Sprintf("%.1f", res.AverageTweetsPerDay))))
	}
	b.line("")

	// activity
	res.ActivityHourly = agg.Hourly
	res.ActivityWeekly = agg.Weekly
	b.chart(NewChart("Daily activity distribution (per hour)", agg.Hourly, false))
	b.chart(NewChart("Weekly activity distribution (per day)", agg.Weekly, true))

	res.TopLanguages = agg.Languages
	b.table(fmt.Sprintf("Detected languages (top %d)", TopLanguages), Top(agg.Languages, TopLanguages))

	res.TopSources = agg.Sources
	b.table(fmt.Sprintf("Detected sources (top %d)", TopSources), Top(agg.Sources, TopSources))

	res.GeoEnabledTweetCount = agg.GeoTagged
	b.line(p.Info(fmt.Sprintf("There are %s geo enabled tweet(s)", p.Bold(fmt.Sprint(agg.GeoTagged)))))

	if len(agg.Places) != 0 {
		res.TopPlaces = agg.Places
		b.places(fmt.Sprintf("Detected places (top %d)", TopPlaces), Places(agg.Places, TopPlaces))
	}

	res.TopHashtags = agg.Hashtags
	b.table(fmt.Sprintf("Top %d hashtags", TopHashtags), Top(agg.Hashtags, TopHashtags))

	resolver := agg.Resolver()

	if !in.Options.ExcludeRetweets {
		rts := agg.Retweets
		res.RTCount = &rts
		pct := 0.0
		if in.Retrieved > 0 {
			pct = float64(rts) * 100 / float64(in.Retrieved)
		}
		b.line(p.Info(fmt.Sprintf("@%s did %s RTs out of %d tweets (%.1f%%)",
			in.Handle, p.Bold(fmt.Sprint(rts)), in.Retrieved, pct)))

		named, err := resolver.Named(agg.RetweetedUsers)
		if err != nil {
			return nil, fmt.Errorf("resolving retweeted users: %w", err)
		}
		res.TopRetweetedUsers = named
		b.table(fmt.Sprintf("Top %d most retweeted users", TopRetweeted), Top(named, TopRetweeted))
	}

	mentioned, err := resolver.Named(agg.MentionedUsers)
	if err != nil {
		return nil, fmt.Errorf("resolving mentioned users: %w", err)
	}
	res.TopMentionedUsers = mentioned
	b.table(fmt.Sprintf("Top %d most mentioned users", TopMentioned), Top(mentioned, TopMentioned))

	res.TopDomains = agg.Domains
	b.table("Most referenced domains (from URLs)", Top(agg.Domains, TopDomains))

	if in.Friends != nil {
		res.FriendCount = in.Friends.Processed
		b.line(p.Info(fmt.Sprintf("Getting %d @%s's friends data...", in.FriendTarget, in.Handle)))
		if in.FriendsFailed {
			res.FriendRateNote = FriendRateNote
			b.line(p.Warn(FriendRateNote))
		}

		res.TopFriendsLanguages = in.Friends.Languages
		b.table("Friends languages", Top(in.Friends.Languages, TopFriendLanguages))

		res.TopFriendTimezones = in.Friends.Timezones
		b.table("Friends timezones", Top(in.Friends.Timezones, TopFriendTimezones))
	}

	res.Sections = b.sections
	return res, nil
}

func offsetString(v *int) string {
	if v == nil {
		return "None"
	}
	return fmt.Sprint(*v)
}

type builder struct {
	palette  *Palette
	sections []Section
}

func (b *builder) line(s string) {
	b.sections = append(b.sections, Section{Lines: []string{s}})
}

func (b *builder) chart(c *Chart) {
	lines := append(c.Lines(b.palette), "")
	export := append(c.ExportLines(), "")
	b.sections = append(b.sections, Section{Lines: lines, Export: export})
}

func (b *builder) table(title string, t *Table) {
	lines := []string{b.palette.Info(title)}
	lines = append(lines, t.Lines(b.palette)...)
	b.sections = append(b.sections, Section{Lines: append(lines, "")})
}

func (b *builder) places(title string, pt *PlaceTables) {
	lines := []string{b.palette.Info(title)}
	lines = append(lines, pt.Lines(b.palette)...)
	b.sections = append(b.sections, Section{Lines: append(lines, "")})
}
