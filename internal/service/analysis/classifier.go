// internal/service/analysis/classifier.go

package analysis

import (
	"strings"
	"time"

	"tweetscope/internal/domain/tweet"
)

// Exclusion names the rule that dropped a tweet
type Exclusion string

const (
	Included         Exclusion = ""
	ExcludedRetweet  Exclusion = "retweet"
	ExcludedQuote    Exclusion = "quote"
	ExcludedBySource Exclusion = "source"
)

// Adjusted is a tweet whose timestamp has been moved to the effective local time
type Adjusted struct {
	tweet.Tweet

	// Local is the timezone-adjusted timestamp, expressed as a shifted UTC instant
	Local time.Time
}

// Classify decides whether a tweet takes part in the aggregation and, if it does,
// computes its local timestamp. The first matching exclusion rule wins.
func Classify(t tweet.Tweet, opts tweet.Options) (Adjusted, Exclusion) {
	if opts.ExcludeRetweets {
		if t.IsRetweet() {
			return Adjusted{}, ExcludedRetweet
		}
		if t.IsQuote {
			return Adjusted{}, ExcludedQuote
		}
	}

	if opts.SourceFilter != "" {
		if t.Source == "" || !strings.Contains(strings.ToLower(t.Source), strings.ToLower(opts.SourceFilter)) {
			return Adjusted{}, ExcludedBySource
		}
	}

	return Adjusted{Tweet: t, Local: LocalTime(t, opts)}, Included
}

// LocalTime applies the timezone policy: author offset unless disabled, and a manual
// offset recomputed from the raw timestamp when one is set.
func LocalTime(t tweet.Tweet, opts tweet.Options) time.Time {
	if t.CreatedAt.IsZero() {
		return time.Time{}
	}

	raw := t.CreatedAt.UTC()
	local := raw

	if t.Author.UTCOffset != nil && !opts.NoTimezone {
		local = raw.Add(time.Duration(*t.Author.UTCOffset) * time.Second)
	}

	if opts.UTCOffset != nil {
		local = raw.Add(time.Duration(*opts.UTCOffset) * time.Second)
	}

	return local
}
