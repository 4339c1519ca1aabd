package engine

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dm/pidash/internal/channel"
	"github.com/dm/pidash/internal/logger"
	"github.com/dm/pidash/internal/model"
)

// manualClock replaces time.After in the Syncer so tests decide when the
// next status request fires.
type manualClock struct {
	mu        sync.Mutex
	scheduled []time.Duration
	pending   chan time.Time
}

func (c *manualClock) after(d time.Duration) <-chan time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.scheduled = append(c.scheduled, d)
	c.pending = make(chan time.Time, 1)
	return c.pending
}

func (c *manualClock) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.scheduled)
}

func (c *manualClock) durations() []time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]time.Duration(nil), c.scheduled...)
}

func (c *manualClock) fire() {
	c.mu.Lock()
	p := c.pending
	c.mu.Unlock()
	p <- time.Now()
}

// startSyncer runs s in the background with a manual clock and stops it on cleanup.
func startSyncer(t *testing.T, s *Syncer) *manualClock {
	t.Helper()
	clock := &manualClock{}
	s.after = clock.after

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	t.Cleanup(func() {
		cancel()
		select {
		case err := <-done:
			assert.NoError(t, err)
		case <-time.After(2 * time.Second):
			t.Error("Syncer.Run did not return after cancel")
		}
	})
	return clock
}

func waitScheduled(t *testing.T, clock *manualClock, n int) {
	t.Helper()
	require.Eventually(t, func() bool { return clock.count() >= n },
		time.Second, 5*time.Millisecond, "expected %d scheduled requests", n)
}

func TestSyncer_PullTimeoutShowsUnknownAndDisconnected(t *testing.T) {
	mock := &MockDeviceClient{
		StatusFn: func(ctx context.Context) (*model.StatusSnapshot, error) {
			<-ctx.Done()
			return nil, ctx.Err()
		},
	}
	sink := newRecordingSink()
	s := NewSyncer(mock, nil, nil, sink, logger.Discard(), Options{PullTimeout: 30 * time.Millisecond})
	startSyncer(t, s)

	u, ok := sink.waitUpdate(func(u Update) bool { return u.HasSnapshot })
	require.True(t, ok, "no snapshot published after pull timeout")

	assert.Equal(t, model.StateDisconnected, u.State)
	assert.False(t, u.Snapshot.DeviceActive())
	fields := u.Snapshot.Fields()
	require.Len(t, fields, 7)
	for _, f := range fields {
		assert.Equal(t, model.Unknown, f.Value.String(), f.Name)
		assert.False(t, u.Flags.Flagged(f.Name), "unknown field %s must not be flagged", f.Name)
	}
	assert.Equal(t, Indicator{Text: "Disconnected", Color: ColorRed}, ConnectionIndicator(u.State))
	assert.Equal(t, "Inactive / Disconnected", DeviceIndicator(u).Text)
}

func TestSyncer_SchedulesExactlyOneFollowUp(t *testing.T) {
	mock := &MockDeviceClient{}
	sink := newRecordingSink()
	s := NewSyncer(mock, nil, nil, sink, logger.Discard(), Options{})
	clock := startSyncer(t, s)

	waitScheduled(t, clock, 1)
	_, ok := sink.waitUpdate(func(u Update) bool { return u.HasSnapshot })
	require.True(t, ok)

	clock.fire()
	waitScheduled(t, clock, 2)

	s.Refresh()
	waitScheduled(t, clock, 3)

	// Nothing else fires, so nothing else may be scheduled.
	time.Sleep(50 * time.Millisecond)
	got := clock.durations()
	assert.Len(t, got, 3)
	for _, d := range got {
		assert.Equal(t, 2000*time.Millisecond, d)
	}
}

func TestSyncer_SkipsTickWhilePullInFlight(t *testing.T) {
	release := make(chan struct{})
	mock := &MockDeviceClient{
		StatusFn: func(ctx context.Context) (*model.StatusSnapshot, error) {
			select {
			case <-release:
			case <-ctx.Done():
				return nil, ctx.Err()
			}
			return &model.StatusSnapshot{CPUTemp: model.TextField("50")}, nil
		},
	}
	s := NewSyncer(mock, nil, nil, newRecordingSink(), logger.Discard(), Options{PullTimeout: time.Second})
	clock := startSyncer(t, s)

	waitScheduled(t, clock, 1)
	clock.fire()
	waitScheduled(t, clock, 2)
	close(release)

	assert.Len(t, mock.Calls(), 1, "second tick must not start another pull")
}

func TestSyncer_PushModeEmitsGetStatus(t *testing.T) {
	ch := newFakeChannel()
	ch.onEmit = func(ev channel.Event) {
		if ev.Name != channel.EventGetStatus {
			return
		}
		push, _ := channel.NewEvent(channel.EventStatusUpdate, map[string]any{
			"cpu_temp":        "75F",
			"battery_low":     "OK",
			"humidity":        55,
			"disk_space_used": "0000001000000010",
		})
		ch.events <- push
	}
	sink := newRecordingSink()
	mock := &MockDeviceClient{}
	s := NewSyncer(mock, ch, nil, sink, logger.Discard(), Options{})
	clock := startSyncer(t, s)

	waitScheduled(t, clock, 1)
	ch.setConnected(true)
	ch.events <- channel.Event{Name: channel.EventConnect}
	_, ok := sink.waitUpdate(func(u Update) bool { return u.State == model.StateConnected })
	require.True(t, ok)

	clock.fire()
	u, ok := sink.waitUpdate(func(u Update) bool {
		return u.HasSnapshot && u.Snapshot.Source == model.SourcePush
	})
	require.True(t, ok, "push status update not applied")

	emitted := ch.Emitted()
	require.NotEmpty(t, emitted)
	assert.Equal(t, channel.EventGetStatus, emitted[0].Name)

	assert.Equal(t, "75F", u.Snapshot.CPUTemp.String())
	assert.True(t, u.Flags.Flagged(model.FieldHumidity))
	assert.True(t, u.Flags.Flagged(model.FieldDiskSpaceUsed))
	assert.False(t, u.Flags.Flagged(model.FieldCPUTemp))
	assert.False(t, u.Flags.Flagged(model.FieldBatteryLow))
	assert.Equal(t, "N/A", u.Snapshot.Uptime.String(), "missing keys decode as unknown")
	assert.Equal(t, "Active and connected", DeviceIndicator(u).Text)
}

func TestSyncer_EmitFailureFallsBackToPull(t *testing.T) {
	ch := newFakeChannel()
	sink := newRecordingSink()
	mock := &MockDeviceClient{}
	s := NewSyncer(mock, ch, nil, sink, logger.Discard(), Options{})
	clock := startSyncer(t, s)

	waitScheduled(t, clock, 1)
	_, ok := sink.waitUpdate(func(u Update) bool { return u.HasSnapshot })
	require.True(t, ok, "initial pull not resolved")

	// Connect arrives but the socket is already gone when we emit.
	ch.events <- channel.Event{Name: channel.EventConnect}
	_, ok = sink.waitUpdate(func(u Update) bool { return u.State == model.StateConnected })
	require.True(t, ok)

	clock.fire()
	_, ok = sink.waitUpdate(func(u Update) bool { return u.State == model.StateDisconnected })
	require.True(t, ok, "emit failure should mark the channel down")
	assert.Eventually(t, func() bool { return len(mock.Calls()) == 2 }, time.Second, 5*time.Millisecond)
	waitScheduled(t, clock, 2)
}

func TestSyncer_DisconnectEvent(t *testing.T) {
	ch := newFakeChannel()
	sink := newRecordingSink()
	s := NewSyncer(&MockDeviceClient{}, ch, nil, sink, logger.Discard(), Options{})
	startSyncer(t, s)

	ch.events <- channel.Event{Name: channel.EventConnect}
	_, ok := sink.waitUpdate(func(u Update) bool { return u.State == model.StateConnected })
	require.True(t, ok)

	ch.events <- channel.Event{Name: channel.EventDisconnect}
	_, ok = sink.waitUpdate(func(u Update) bool { return u.State == model.StateDisconnected })
	require.True(t, ok)
}

func TestSyncer_InvalidPushPayloadIgnored(t *testing.T) {
	ch := newFakeChannel()
	sink := newRecordingSink()
	s := NewSyncer(&MockDeviceClient{
		StatusFn: func(ctx context.Context) (*model.StatusSnapshot, error) {
			return &model.StatusSnapshot{CPUTemp: model.TextField("40")}, nil
		},
	}, ch, nil, sink, logger.Discard(), Options{})
	startSyncer(t, s)

	_, ok := sink.waitUpdate(func(u Update) bool { return u.HasSnapshot })
	require.True(t, ok)

	ch.events <- channel.Event{Name: channel.EventStatusUpdate, Data: []byte(`{"cpu_temp":`)}
	ch.events <- channel.Event{Name: channel.EventStatusUpdate}

	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, "40", s.Snapshot().Snapshot.CPUTemp.String())
}

func TestSyncer_NoPushStartsDisconnected(t *testing.T) {
	sink := newRecordingSink()
	s := NewSyncer(&MockDeviceClient{}, nil, nil, sink, logger.Discard(), Options{})
	startSyncer(t, s)

	u, ok := sink.waitUpdate(func(Update) bool { return true })
	require.True(t, ok)
	assert.Equal(t, model.StateDisconnected, u.State)
}

func TestSyncer_InitialConfigFetch(t *testing.T) {
	sink := newRecordingSink()
	mock := &MockDeviceClient{}
	cfg := NewConfigController(mock, nil, sink, logger.Discard(), 0)
	s := NewSyncer(mock, nil, cfg, sink, logger.Discard(), Options{})
	startSyncer(t, s)

	m, ok := sink.waitConfig()
	require.True(t, ok)
	assert.Len(t, m, 3)
}
