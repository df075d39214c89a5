// internal/domain/tweet/model.go

package tweet

import (
	"strconv"
	"time"
)

// UserID is the stable numeric identifier of an account. Handles can change, ids cannot.
type UserID int64

// String returns the decimal form used by the Twitter API
func (id UserID) String() string {
	return strconv.FormatInt(int64(id), 10)
}

// ParseUserID parses a decimal account id
func ParseUserID(s string) (UserID, error) {
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, err
	}
	return UserID(v), nil
}

// UserRef points at another account by id and the handle seen alongside it
type UserRef struct {
	ID     UserID `json:"id,string"`
	Handle string `json:"screen_name"`
}

// Author is the account that published a tweet
type Author struct {
	ID     UserID `json:"id,string"`
	Handle string `json:"screen_name"`
	// UTCOffset is the declared profile offset in seconds, nil when the account declares none
	UTCOffset *int `json:"utc_offset"`
}

// Place is the geo place a tweet was tagged with
type Place struct {
	Name        string `json:"name"`
	FullName    string `json:"full_name,omitempty"`
	CountryCode string `json:"country_code,omitempty"`
}

// Tweet is one raw record as delivered by a Source
type Tweet struct {
	ID        string    `json:"id_str"`
	CreatedAt time.Time `json:"created_at"`
	Author    Author    `json:"user"`
	Text      string    `json:"text,omitempty"`
	Source    string    `json:"source"`
	Lang      string    `json:"lang"`
	Place     *Place    `json:"place,omitempty"`

	// RetweetOf is set when the tweet re-publishes another account's tweet
	RetweetOf *UserRef `json:"retweeted_user,omitempty"`
	IsQuote   bool     `json:"is_quote_status"`

	Hashtags []string  `json:"hashtags,omitempty"`
	URLs     []string  `json:"urls,omitempty"`
	Mentions []UserRef `json:"user_mentions,omitempty"`
}

// IsRetweet reports whether the tweet carries a retweet back-reference
func (t Tweet) IsRetweet() bool {
	return t.RetweetOf != nil
}

// Profile holds the account metadata resolved before streaming
type Profile struct {
	ID          UserID `json:"id,string"`
	Handle      string `json:"screen_name"`
	Lang        string `json:"lang"`
	GeoEnabled  bool   `json:"geo_enabled"`
	TimeZone    string `json:"time_zone"`
	UTCOffset   *int   `json:"utc_offset"`
	PostCount   int    `json:"statuses_count"`
	FriendCount int    `json:"friends_count"`
}

// Friend is one account followed by the analyzed account
type Friend struct {
	ID       UserID `json:"id,string"`
	Handle   string `json:"screen_name"`
	Lang     string `json:"lang"`
	TimeZone string `json:"time_zone"`
}

// Options is the run configuration produced by the command line layer
type Options struct {
	// Limit caps the number of tweets pulled from the source
	Limit int
	// SourceFilter keeps only tweets whose client source contains it (case-insensitive)
	SourceFilter string
	// ExcludeRetweets drops retweets and quote tweets before aggregation
	ExcludeRetweets bool
	// NoTimezone disables the per-author offset adjustment
	NoTimezone bool
	// UTCOffset, when set, replaces any author offset (seconds)
	UTCOffset *int
	// Friends enables the followed-accounts pass
	Friends bool
}
