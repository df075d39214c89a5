// internal/domain/tweet/source.go

package tweet

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var (
	// ErrRateLimited is returned by sources when the upstream API refuses a request for quota reasons
	ErrRateLimited = errors.New("rate limit exceeded")

	// ErrNotFound is returned when the requested account does not exist
	ErrNotFound = errors.New("account not found")
)

// RateLimitError carries the time the quota resets. It matches ErrRateLimited with errors.Is.
type RateLimitError struct {
	Reset time.Time
}

func (e *RateLimitError) Error() string {
	if e.Reset.IsZero() {
		return ErrRateLimited.Error()
	}
	return fmt.Sprintf("%s (resets at %s)", ErrRateLimited, e.Reset.Format(time.RFC3339))
}

// Is makes errors.Is(err, ErrRateLimited) hold
func (e *RateLimitError) Is(target error) bool {
	return target == ErrRateLimited
}

// Cursor is a finite, non-restartable stream. Next returns io.EOF once exhausted.
type Cursor[T any] interface {
	Next(ctx context.Context) (T, error)
	Close() error
}

// Source is the retrieval client the analysis pulls from
type Source interface {
	// FetchProfile resolves the account metadata
	FetchProfile(ctx context.Context, handle string) (*Profile, error)

	// StreamTweets yields up to limit tweets, newest first
	StreamTweets(ctx context.Context, handle string, limit int) (Cursor[Tweet], error)

	// StreamFriends yields up to limit followed accounts
	StreamFriends(ctx context.Context, handle string, limit int) (Cursor[Friend], error)
}

// Recorder persists raw tweets as they are pulled
type Recorder interface {
	Record(ctx context.Context, t Tweet) error
	Close() error
}
