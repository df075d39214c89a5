// internal/adapter/archive/replay.go

package archive

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"tweetscope/internal/domain/tweet"
)

// Replay is a source backed by a saved raw tweet file (a JSON array of tweets).
// It serves any handle from the file and has no followed accounts.
type Replay struct {
	path string
}

// NewReplay checks that path is readable and returns a source over it
func NewReplay(path string) (*Replay, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open replay file: %w", err)
	}
	f.Close()
	return &Replay{path: path}, nil
}

// FetchProfile derives the profile from the file: the post count is the number of
// records, author data comes from the first one.
func (r *Replay) FetchProfile(ctx context.Context, handle string) (*tweet.Profile, error) {
	cur, err := r.open()
	if err != nil {
		return nil, err
	}
	defer cur.Close()

	p := &tweet.Profile{Handle: handle}
	for {
		t, err := cur.Next(ctx)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		if p.PostCount == 0 {
			p.ID = t.Author.ID
			p.UTCOffset = t.Author.UTCOffset
			if t.Author.Handle != "" && !strings.EqualFold(t.Author.Handle, handle) {
				return nil, fmt.Errorf("%w: replay file holds @%s, not @%s", tweet.ErrNotFound, t.Author.Handle, handle)
			}
			if t.Author.Handle != "" {
				p.Handle = t.Author.Handle
			}
		}
		if t.Place != nil {
			p.GeoEnabled = true
		}
		p.PostCount++
	}

	return p, nil
}

// StreamTweets yields the recorded tweets in file order
func (r *Replay) StreamTweets(ctx context.Context, handle string, limit int) (tweet.Cursor[tweet.Tweet], error) {
	cur, err := r.open()
	if err != nil {
		return nil, err
	}
	cur.remaining = limit
	return cur, nil
}

// StreamFriends yields nothing; raw files do not hold followed accounts
func (r *Replay) StreamFriends(ctx context.Context, handle string, limit int) (tweet.Cursor[tweet.Friend], error) {
	return emptyCursor[tweet.Friend]{}, nil
}

func (r *Replay) open() (*fileCursor, error) {
	f, err := os.Open(r.path)
	if err != nil {
		return nil, fmt.Errorf("failed to open replay file: %w", err)
	}

	dec := json.NewDecoder(f)
	tok, err := dec.Token()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to read replay file: %w", err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '[' {
		f.Close()
		return nil, fmt.Errorf("replay file %s is not a JSON array", r.path)
	}

	return &fileCursor{file: f, dec: dec, remaining: -1}, nil
}

// fileCursor decodes one array element per Next call
type fileCursor struct {
	file      *os.File
	dec       *json.Decoder
	remaining int
}

func (c *fileCursor) Next(ctx context.Context) (tweet.Tweet, error) {
	var t tweet.Tweet
	if err := ctx.Err(); err != nil {
		return t, err
	}
	if c.remaining == 0 || !c.dec.More() {
		return t, io.EOF
	}
	if err := c.dec.Decode(&t); err != nil {
		return t, fmt.Errorf("failed to decode replayed tweet: %w", err)
	}
	if c.remaining > 0 {
		c.remaining--
	}
	return t, nil
}

func (c *fileCursor) Close() error {
	return c.file.Close()
}

type emptyCursor[T any] struct{}

func (emptyCursor[T]) Next(context.Context) (T, error) {
	var zero T
	return zero, io.EOF
}

func (emptyCursor[T]) Close() error { return nil }
