// internal/service/analysis/resolver.go

package analysis

import (
	"errors"
	"fmt"

	"tweetscope/internal/domain/tweet"
)

// ErrMissingIdentity means an id was counted during a fold without a handle being registered.
// Fold always registers before counting, so this signals a broken invariant.
var ErrMissingIdentity = errors.New("missing identity")

// Resolver maps account ids to the first non-empty handle seen for them during a run
type Resolver struct {
	handles map[tweet.UserID]string
	// unnamed holds ids registered so far only without a handle
	unnamed map[tweet.UserID]struct{}
}

// NewResolver creates an empty resolver
func NewResolver() *Resolver {
	return &Resolver{
		handles: make(map[tweet.UserID]string),
		unnamed: make(map[tweet.UserID]struct{}),
	}
}

// Register records the handle for id unless one is already known.
// An empty handle only marks the id as seen; a later non-empty sighting still wins.
func (r *Resolver) Register(id tweet.UserID, handle string) {
	if _, ok := r.handles[id]; ok {
		return
	}
	if handle == "" {
		r.unnamed[id] = struct{}{}
		return
	}
	delete(r.unnamed, id)
	r.handles[id] = "@" + handle
}

// Resolve returns the display handle (with its @ prefix) for id.
// Ids seen without any handle resolve to "@" followed by the numeric id.
func (r *Resolver) Resolve(id tweet.UserID) (string, error) {
	if h, ok := r.handles[id]; ok {
		return h, nil
	}
	if _, ok := r.unnamed[id]; ok {
		return "@" + id.String(), nil
	}
	return "", fmt.Errorf("%w: id %s", ErrMissingIdentity, id)
}

// Len returns the number of known ids
func (r *Resolver) Len() int {
	return len(r.handles) + len(r.unnamed)
}

// Named converts an id-keyed counter into a handle-keyed one.
// Ids that share a handle are summed.
func (r *Resolver) Named(counts map[tweet.UserID]int) (map[string]int, error) {
	named := make(map[string]int, len(counts))
	for id, n := range counts {
		h, err := r.Resolve(id)
		if err != nil {
			return nil, err
		}
		named[h] += n
	}
	return named, nil
}
