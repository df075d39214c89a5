package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"tweetscope/internal/domain/tweet"
)

func openArchive(t *testing.T) *TweetArchive {
	t.Helper()
	a, err := NewTweetArchive(filepath.Join(t.TempDir(), "data", "archive.db"))
	if err != nil {
		t.Fatalf("NewTweetArchive: %v", err)
	}
	t.Cleanup(func() { a.Close() })
	return a
}

func TestTweetArchiveUpsert(t *testing.T) {
	a := openArchive(t)
	ctx := context.Background()
	base := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

	author := tweet.Author{ID: 42, Handle: "Alice"}
	for i, id := range []string{"10", "11", "12"} {
		tw := tweet.Tweet{ID: id, Author: author, CreatedAt: base.Add(time.Duration(i) * time.Hour), Lang: "en"}
		if err := a.Record(ctx, tw); err != nil {
			t.Fatalf("Record: %v", err)
		}
	}

	// same id again replaces the row
	if err := a.Record(ctx, tweet.Tweet{ID: "11", Author: author, CreatedAt: base.Add(time.Hour), Lang: "fr"}); err != nil {
		t.Fatalf("Record: %v", err)
	}

	n, err := a.Count(ctx, "alice")
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if n != 3 {
		t.Fatalf("count = %d, want 3", n)
	}

	recent, err := a.Recent(ctx, "ALICE", 2)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(recent) != 2 {
		t.Fatalf("recent = %d tweets, want 2", len(recent))
	}
	if recent[0].ID != "12" || recent[1].ID != "11" {
		t.Fatalf("order = %s,%s, want 12,11", recent[0].ID, recent[1].ID)
	}
	if recent[1].Lang != "fr" {
		t.Fatalf("lang = %q, want updated fr", recent[1].Lang)
	}
}

func TestTweetArchiveUnknownHandle(t *testing.T) {
	a := openArchive(t)

	n, err := a.Count(context.Background(), "nobody")
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if n != 0 {
		t.Fatalf("count = %d, want 0", n)
	}
}
