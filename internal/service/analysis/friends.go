// internal/service/analysis/friends.go

package analysis

import "tweetscope/internal/domain/tweet"

// FriendStats counts declared language and timezone over followed accounts.
// It is kept apart from Aggregate so the two passes can be tested on their own.
type FriendStats struct {
	Languages map[string]int
	Timezones map[string]int
	Processed int
}

// NewFriendStats creates empty friend counters
func NewFriendStats() *FriendStats {
	return &FriendStats{
		Languages: make(map[string]int),
		Timezones: make(map[string]int),
	}
}

// Fold counts one followed account
func (s *FriendStats) Fold(f tweet.Friend) {
	s.Processed++
	s.Languages[f.Lang]++
	if f.TimeZone != "" {
		s.Timezones[f.TimeZone]++
	}
}
