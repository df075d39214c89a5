package archive

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"tweetscope/internal/domain/tweet"
)

const sample = `[
 {"id_str":"3","created_at":"2021-06-03T10:00:00Z","user":{"id":"1","screen_name":"alice","utc_offset":3600},"source":"Twitter Web App","lang":"en","place":{"name":"Paris"}},
 {"id_str":"2","created_at":"2021-06-02T10:00:00Z","user":{"id":"1","screen_name":"alice","utc_offset":3600},"source":"Twitter Web App","lang":"en","retweeted_user":{"id":"9","screen_name":"bob"}},
 {"id_str":"1","created_at":"2021-06-01T10:00:00Z","user":{"id":"1","screen_name":"alice","utc_offset":3600},"source":"Twitter for iPhone","lang":"fr","user_mentions":[{"id":"7","screen_name":"carol"}]}
]`

func writeSample(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "run.json")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestReplayProfile(t *testing.T) {
	t.Parallel()

	r, err := NewReplay(writeSample(t, sample))
	if err != nil {
		t.Fatalf("NewReplay() error = %v", err)
	}

	p, err := r.FetchProfile(context.Background(), "Alice")
	if err != nil {
		t.Fatalf("FetchProfile() error = %v", err)
	}
	if p.Handle != "alice" || p.ID != 1 || p.PostCount != 3 || !p.GeoEnabled {
		t.Fatalf("profile = %+v", p)
	}
	if p.UTCOffset == nil || *p.UTCOffset != 3600 {
		t.Fatalf("UTCOffset = %v", p.UTCOffset)
	}

	if _, err := r.FetchProfile(context.Background(), "mallory"); !errors.Is(err, tweet.ErrNotFound) {
		t.Fatalf("FetchProfile(other) error = %v, want ErrNotFound", err)
	}
}

func TestReplayStreamTweets(t *testing.T) {
	t.Parallel()

	r, err := NewReplay(writeSample(t, sample))
	if err != nil {
		t.Fatalf("NewReplay() error = %v", err)
	}

	cur, err := r.StreamTweets(context.Background(), "alice", 2)
	if err != nil {
		t.Fatalf("StreamTweets() error = %v", err)
	}
	defer cur.Close()

	var got []tweet.Tweet
	for {
		tw, err := cur.Next(context.Background())
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			t.Fatalf("Next() error = %v", err)
		}
		got = append(got, tw)
	}

	if len(got) != 2 {
		t.Fatalf("got %d tweets, want 2", len(got))
	}
	if got[0].ID != "3" || got[0].Place == nil || got[0].Place.Name != "Paris" {
		t.Errorf("first = %+v", got[0])
	}
	if got[1].RetweetOf == nil || got[1].RetweetOf.ID != 9 || got[1].RetweetOf.Handle != "bob" {
		t.Errorf("second retweet = %+v", got[1].RetweetOf)
	}
}

func TestReplayFriendsEmpty(t *testing.T) {
	t.Parallel()

	r, err := NewReplay(writeSample(t, sample))
	if err != nil {
		t.Fatalf("NewReplay() error = %v", err)
	}
	cur, err := r.StreamFriends(context.Background(), "alice", 300)
	if err != nil {
		t.Fatalf("StreamFriends() error = %v", err)
	}
	if _, err := cur.Next(context.Background()); !errors.Is(err, io.EOF) {
		t.Fatalf("Next() error = %v, want io.EOF", err)
	}
}

func TestReplayRejectsNonArray(t *testing.T) {
	t.Parallel()

	r, err := NewReplay(writeSample(t, `{"id_str":"1"}`))
	if err != nil {
		t.Fatalf("NewReplay() error = %v", err)
	}
	if _, err := r.StreamTweets(context.Background(), "alice", 10); err == nil {
		t.Fatal("StreamTweets() accepted an object")
	}
}

func TestNewReplayMissingFile(t *testing.T) {
	t.Parallel()

	if _, err := NewReplay(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Fatal("NewReplay() accepted a missing file")
	}
}
