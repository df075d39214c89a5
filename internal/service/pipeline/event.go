// internal/service/pipeline/event.go

package pipeline

import "time"

// State is a step of one analysis run
type State string

const (
	StateInit             State = "init"
	StateFetchingProfile  State = "fetching_profile"
	StateStreamingTweets  State = "streaming_tweets"
	StateStreamingFriends State = "streaming_friends"
	StateRendering        State = "rendering"
	StateDone             State = "done"
	StateFailed           State = "failed"
)

// Terminal reports whether no transition can leave s
func (s State) Terminal() bool {
	return s == StateDone || s == StateFailed
}

// Event describes the progress of a run. One is emitted on every state transition,
// every ProgressInterval pulled tweets and for every advisory.
type Event struct {
	RunID     string    `json:"run_id"`
	Handle    string    `json:"handle"`
	State     State     `json:"state"`
	Retrieved int       `json:"retrieved"`
	Processed int       `json:"processed"`
	Target    int       `json:"target"`
	Message   string    `json:"message,omitempty"`
	Time      time.Time `json:"time"`
}
