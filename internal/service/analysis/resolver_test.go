package analysis

import (
	"errors"
	"testing"

	"tweetscope/internal/domain/tweet"
)

func TestResolverFirstSeenWins(t *testing.T) {
	t.Parallel()

	r := NewResolver()
	r.Register(1, "first")
	r.Register(1, "second")

	got, err := r.Resolve(1)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if got != "@first" {
		t.Fatalf("Resolve() = %q, want @first", got)
	}
}

func TestResolverMissingIdentity(t *testing.T) {
	t.Parallel()

	r := NewResolver()
	if _, err := r.Resolve(99); !errors.Is(err, ErrMissingIdentity) {
		t.Fatalf("Resolve() error = %v, want ErrMissingIdentity", err)
	}

	if _, err := r.Named(map[tweet.UserID]int{99: 1}); !errors.Is(err, ErrMissingIdentity) {
		t.Fatalf("Named() error = %v, want ErrMissingIdentity", err)
	}
}

func TestResolverNamedMergesSharedHandles(t *testing.T) {
	t.Parallel()

	r := NewResolver()
	r.Register(1, "same")
	r.Register(2, "same")
	r.Register(3, "other")

	got, err := r.Named(map[tweet.UserID]int{1: 2, 2: 3, 3: 1})
	if err != nil {
		t.Fatalf("Named() error = %v", err)
	}
	if got["@same"] != 5 || got["@other"] != 1 || len(got) != 2 {
		t.Fatalf("Named() = %v", got)
	}
}

func TestResolverEmptyHandleDoesNotClaimId(t *testing.T) {
	t.Parallel()

	r := NewResolver()
	r.Register(42, "")
	r.Register(43, "")
	r.Register(42, "alice")

	got, err := r.Resolve(42)
	if err != nil {
		t.Fatalf("Resolve(42) error = %v", err)
	}
	if got != "@alice" {
		t.Fatalf("Resolve(42) = %q, want @alice", got)
	}

	got, err = r.Resolve(43)
	if err != nil {
		t.Fatalf("Resolve(43) error = %v", err)
	}
	if got != "@43" {
		t.Fatalf("Resolve(43) = %q, want @43", got)
	}
	if r.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", r.Len())
	}

	named, err := r.Named(map[tweet.UserID]int{42: 1, 43: 1})
	if err != nil {
		t.Fatalf("Named() error = %v", err)
	}
	if named["@alice"] != 1 || named["@43"] != 1 || len(named) != 2 {
		t.Fatalf("Named() = %v", named)
	}
}
