package engine

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/dm/pidash/internal/alert"
	"github.com/dm/pidash/internal/apperror"
	"github.com/dm/pidash/internal/channel"
	"github.com/dm/pidash/internal/client"
	"github.com/dm/pidash/internal/config"
	"github.com/dm/pidash/internal/logger"
	"github.com/dm/pidash/internal/model"
)

// Options configures a Syncer. Zero values fall back to the defaults in
// package config.
type Options struct {
	Interval    time.Duration
	PullTimeout time.Duration
	Rules       alert.RuleSet
}

// Syncer keeps the connection state and the current status snapshot up to
// date. It prefers the push channel and falls back to polling the HTTP API.
//
// All state changes happen on the single loop goroutine started by Run.
type Syncer struct {
	client client.DeviceClient
	ch     channel.Channel // nil when push is disabled
	config *ConfigController
	sink   Sink
	log    *logger.Logger
	opts   Options

	// after schedules the next status request; replaced in tests.
	after   func(time.Duration) <-chan time.Time
	refresh chan struct{}

	mu      sync.Mutex
	tracker *Tracker
}

// NewSyncer wires a Syncer. ch and cfg may be nil.
func NewSyncer(c client.DeviceClient, ch channel.Channel, cfg *ConfigController, sink Sink, log *logger.Logger, opts Options) *Syncer {
	if opts.Interval <= 0 {
		opts.Interval = config.DefaultInterval
	}
	if opts.PullTimeout <= 0 {
		opts.PullTimeout = config.DefaultPullTimeout
	}
	if opts.Rules == nil {
		opts.Rules = alert.DefaultRules()
	}
	return &Syncer{
		client:  c,
		ch:      ch,
		config:  cfg,
		sink:    sink,
		log:     log,
		opts:    opts,
		after:   time.After,
		refresh: make(chan struct{}, 1),
		tracker: NewTracker(),
	}
}

// Run starts the push channel, the status loop and the initial config fetch,
// and blocks until ctx is cancelled.
func (s *Syncer) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	if s.ch != nil {
		g.Go(func() error {
			return s.ch.Run(gctx)
		})
	}
	g.Go(func() error {
		return s.loop(gctx)
	})
	if s.config != nil {
		g.Go(func() error {
			// Failure is logged and leaves the display empty; the next
			// config_updated event or a manual refresh retries.
			_, _ = s.config.GetConfig(gctx)
			return nil
		})
	}

	return g.Wait()
}

// Refresh requests status immediately. The pending scheduled request is
// replaced, so there is still exactly one follow-up afterwards.
func (s *Syncer) Refresh() {
	select {
	case s.refresh <- struct{}{}:
	default:
	}
}

// Snapshot returns the current update as the sink last saw it.
func (s *Syncer) Snapshot() Update {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.updateLocked()
}

func (s *Syncer) loop(ctx context.Context) error {
	results := make(chan pullResult, 1)

	var events <-chan channel.Event
	if s.ch != nil {
		events = s.ch.Events()
	} else {
		s.transition(func(t *Tracker) bool { return t.ChannelClosed() })
	}

	next := s.requestStatus(ctx, results)
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-next:
			next = s.requestStatus(ctx, results)
		case <-s.refresh:
			next = s.requestStatus(ctx, results)
		case r := <-results:
			s.resolvePull(r)
		case ev := <-events:
			s.handleEvent(ctx, ev)
		}
	}
}

// requestStatus issues one status request and returns the timer for the next.
// Exactly one follow-up is scheduled per call, whatever happens to the request.
func (s *Syncer) requestStatus(ctx context.Context, results chan<- pullResult) <-chan time.Time {
	s.mu.Lock()
	plan, seq := s.tracker.BeginRequest()
	s.mu.Unlock()

	if plan == PlanPush {
		err := s.ch.Emit(channel.EventGetStatus, nil)
		if err == nil {
			return s.after(s.opts.Interval)
		}
		// The socket dropped before its disconnect event reached us.
		s.log.LogWarning(err, "push status request failed, falling back to pull")
		s.transition(func(t *Tracker) bool { return t.ChannelClosed() })
		s.mu.Lock()
		plan, seq = s.tracker.BeginRequest()
		s.mu.Unlock()
	}

	switch plan {
	case PlanPull:
		startPull(ctx, s.client, s.opts.PullTimeout, seq, results)
	case PlanSkip:
		s.log.LogDebug("status pull still in flight, skipping")
	}
	return s.after(s.opts.Interval)
}

func (s *Syncer) resolvePull(r pullResult) {
	if r.err != nil {
		s.log.LogWarning(r.err, "status pull failed", "seq", r.seq)
		unknown := model.UnknownSnapshot(time.Now())
		s.transition(func(t *Tracker) bool { return t.FailPull(r.seq, unknown) })
		return
	}
	applied := s.transition(func(t *Tracker) bool { return t.ApplyPull(r.seq, r.snap) })
	if !applied {
		s.log.LogDebug("discarding stale status pull", "seq", r.seq)
	}
}

func (s *Syncer) handleEvent(ctx context.Context, ev channel.Event) {
	switch ev.Name {
	case channel.EventConnect:
		s.log.LogInfo("push channel up")
		s.transition(func(t *Tracker) bool { return t.ChannelOpened() })
	case channel.EventDisconnect:
		s.log.LogInfo("push channel down")
		s.transition(func(t *Tracker) bool { return t.ChannelClosed() })
	case channel.EventStatusUpdate:
		snap, err := decodeSnapshot(ev)
		if err != nil {
			s.log.LogWarning(err, "ignoring status update")
			return
		}
		s.transition(func(t *Tracker) bool {
			t.ApplyPush(snap)
			return true
		})
	case channel.EventConfigUpdated:
		if s.config != nil {
			s.config.HandleUpdated(ctx, ev)
		}
	default:
		s.log.LogDebug("ignoring push event", "event", ev.Name)
	}
}

// transition applies fn to the tracker and publishes when it reports a change.
func (s *Syncer) transition(fn func(*Tracker) bool) bool {
	s.mu.Lock()
	changed := fn(s.tracker)
	u := s.updateLocked()
	s.mu.Unlock()

	if changed && s.sink != nil {
		s.sink.StatusChanged(u)
	}
	return changed
}

func (s *Syncer) updateLocked() Update {
	snap, ok := s.tracker.Current()
	u := Update{
		State:       s.tracker.State(),
		Snapshot:    snap,
		HasSnapshot: ok,
		Seq:         s.tracker.LastSeq(),
	}
	if ok {
		u.Flags = s.opts.Rules.Evaluate(snap)
	}
	return u
}

func decodeSnapshot(ev channel.Event) (model.StatusSnapshot, error) {
	var snap model.StatusSnapshot
	if len(ev.Data) == 0 {
		return snap, apperror.InvalidPayload.Wrap(errors.New("status update without payload"))
	}
	if err := json.Unmarshal(ev.Data, &snap); err != nil {
		return snap, apperror.InvalidPayload.Wrap(err)
	}
	snap.Source = model.SourcePush
	snap.FetchedAt = time.Now()
	return snap, nil
}
