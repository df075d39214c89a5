// internal/service/pipeline/runner.go

package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"tweetscope/internal/domain/tweet"
	"tweetscope/internal/service/analysis"
	"tweetscope/internal/service/report"
)

// ErrInvalidOptions is returned before any retrieval when a request cannot run
var ErrInvalidOptions = errors.New("invalid options")

const (
	// MaxFriends caps the followed-accounts sample
	MaxFriends = 300

	// ProgressInterval is the number of pulled tweets between progress events
	ProgressInterval = 100
)

// Request describes one analysis run
type Request struct {
	RunID   string
	Handle  string
	Options tweet.Options

	// Palette styles the rendered sections; nil renders plain text
	Palette *report.Palette

	// Recorders receive every pulled tweet, excluded ones included
	Recorders []tweet.Recorder
}

// Runner drives analysis runs against one source
type Runner struct {
	source    tweet.Source
	recorders []tweet.Recorder
	logger    *log.Logger
	handlers  []func(Event) error
	mu        sync.RWMutex
}

// NewRunner creates a runner. Recorders given here are fed by every run.
func NewRunner(source tweet.Source, logger *log.Logger, recorders ...tweet.Recorder) *Runner {
	return &Runner{
		source:    source,
		recorders: recorders,
		logger:    logger,
	}
}

// RegisterEventHandler registers a callback invoked for every run event
func (r *Runner) RegisterEventHandler(handler func(Event) error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers = append(r.handlers, handler)
}

// run is the state of one Run call
type run struct {
	*Runner

	id        string
	handle    string
	opts      tweet.Options
	recorders []tweet.Recorder
	extra     []func(Event) error

	state     State
	target    int
	retrieved int
	agg       *analysis.Aggregate
}

// Run executes one analysis and returns the structured report
func (r *Runner) Run(ctx context.Context, req Request) (*report.Result, error) {
	return r.RunWithEvents(ctx, req, nil)
}

// RunWithEvents is Run with an additional event callback scoped to this run
func (r *Runner) RunWithEvents(ctx context.Context, req Request, onEvent func(Event) error) (*report.Result, error) {
	ru := &run{
		Runner:    r,
		id:        req.RunID,
		handle:    strings.TrimPrefix(strings.TrimSpace(req.Handle), "@"),
		opts:      req.Options,
		recorders: append(append([]tweet.Recorder{}, r.recorders...), req.Recorders...),
		state:     StateInit,
		agg:       analysis.NewAggregate(analysis.NewResolver()),
	}
	if ru.id == "" {
		ru.id = uuid.New().String()
	}
	if onEvent != nil {
		ru.extra = append(ru.extra, onEvent)
	}

	palette := req.Palette
	if palette == nil {
		palette = report.PlainPalette()
	}

	res, err := ru.execute(ctx, palette)
	if err != nil {
		ru.fail(err)
		return nil, err
	}
	return res, nil
}

func (ru *run) execute(ctx context.Context, palette *report.Palette) (*report.Result, error) {
	if err := ru.validate(); err != nil {
		return nil, err
	}

	ru.transition(StateFetchingProfile)
	profile, err := ru.source.FetchProfile(ctx, ru.handle)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch profile of @%s: %w", ru.handle, err)
	}

	ru.target = min(ru.opts.Limit, profile.PostCount)
	ru.transition(StateStreamingTweets)
	if err := ru.streamTweets(ctx); err != nil {
		return nil, err
	}
	ru.logger.Info("tweets analyzed", "run", ru.id, "handle", ru.handle,
		"retrieved", ru.retrieved, "processed", ru.agg.Processed)

	if report.ShortHistory(ru.agg, ru.retrieved, profile.PostCount) {
		ru.emit(report.ShortHistoryNote)
	}

	in := report.Input{
		RunID:     ru.id,
		Handle:    ru.handle,
		Profile:   *profile,
		Options:   ru.opts,
		Target:    ru.target,
		Retrieved: ru.retrieved,
		Aggregate: ru.agg,
	}

	if ru.opts.Friends {
		in.FriendTarget = min(profile.FriendCount, MaxFriends)
		ru.transition(StateStreamingFriends)
		friends, err := ru.streamFriends(ctx, in.FriendTarget)
		switch {
		case errors.Is(err, tweet.ErrRateLimited):
			ru.logger.Warn("friends pass rate limited", "run", ru.id, "error", err)
			ru.emit(report.FriendRateNote)
			in.FriendsFailed = true
		case err != nil:
			return nil, err
		}
		in.Friends = friends
	}

	ru.transition(StateRendering)
	res, err := report.Build(in, palette)
	if err != nil {
		return nil, fmt.Errorf("failed to render report: %w", err)
	}

	ru.transition(StateDone)
	return res, nil
}

func (ru *run) validate() error {
	if ru.handle == "" {
		return fmt.Errorf("%w: account handle is required", ErrInvalidOptions)
	}
	if ru.opts.Limit <= 0 {
		return fmt.Errorf("%w: limit must be positive, got %d", ErrInvalidOptions, ru.opts.Limit)
	}
	return nil
}

func (ru *run) streamTweets(ctx context.Context) error {
	if ru.target <= 0 {
		return nil
	}

	cursor, err := ru.source.StreamTweets(ctx, ru.handle, ru.target)
	if err != nil {
		return fmt.Errorf("failed to stream tweets: %w", err)
	}
	defer cursor.Close()

	for ru.retrieved < ru.target {
		t, err := cursor.Next(ctx)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to stream tweets after %d: %w", ru.retrieved, err)
		}
		ru.retrieved++

		ru.record(ctx, t)

		if adj, excl := analysis.Classify(t, ru.opts); excl == analysis.Included {
			ru.agg.Fold(adj)
		} else {
			ru.logger.Debug("tweet excluded", "run", ru.id, "tweet", t.ID, "rule", string(excl))
		}

		if ru.retrieved%ProgressInterval == 0 {
			ru.emit("")
		}
	}

	return nil
}

func (ru *run) streamFriends(ctx context.Context, limit int) (*analysis.FriendStats, error) {
	stats := analysis.NewFriendStats()
	if limit <= 0 {
		return stats, nil
	}

	cursor, err := ru.source.StreamFriends(ctx, ru.handle, limit)
	if err != nil {
		return stats, fmt.Errorf("failed to stream friends: %w", err)
	}
	defer cursor.Close()

	for stats.Processed < limit {
		f, err := cursor.Next(ctx)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return stats, fmt.Errorf("failed to stream friends after %d: %w", stats.Processed, err)
		}
		stats.Fold(f)
	}

	return stats, nil
}

func (ru *run) record(ctx context.Context, t tweet.Tweet) {
	for _, rec := range ru.recorders {
		if err := rec.Record(ctx, t); err != nil {
			ru.logger.Warn("failed to record tweet", "run", ru.id, "tweet", t.ID, "error", err)
		}
	}
}

func (ru *run) transition(s State) {
	ru.logger.Debug("run state", "run", ru.id, "from", string(ru.state), "to", string(s))
	ru.state = s
	ru.emit("")
}

func (ru *run) fail(err error) {
	ru.logger.Error("run failed", "run", ru.id, "handle", ru.handle, "state", string(ru.state), "error", err)
	ru.state = StateFailed
	ru.emit(err.Error())
}

func (ru *run) emit(message string) {
	e := Event{
		RunID:     ru.id,
		Handle:    ru.handle,
		State:     ru.state,
		Retrieved: ru.retrieved,
		Processed: ru.agg.Processed,
		Target:    ru.target,
		Message:   message,
		Time:      time.Now().UTC(),
	}

	ru.mu.RLock()
	handlers := append(append([]func(Event) error{}, ru.handlers...), ru.extra...)
	ru.mu.RUnlock()

	for _, h := range handlers {
		if err := h(e); err != nil {
			ru.logger.Warn("event handler failed", "run", ru.id, "state", string(e.State), "error", err)
		}
	}
}
