package engine

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/dm/pidash/internal/apperror"
	"github.com/dm/pidash/internal/channel"
	"github.com/dm/pidash/internal/model"
)

// MockDeviceClient implements client.DeviceClient for testing.
type MockDeviceClient struct {
	StatusFn func(ctx context.Context) (*model.StatusSnapshot, error)
	ConfigFn func(ctx context.Context) (model.ConfigMap, error)
	ToggleFn func(ctx context.Context, key string) error

	mu    sync.Mutex
	calls []string
}

func (m *MockDeviceClient) record(call string) {
	m.mu.Lock()
	m.calls = append(m.calls, call)
	m.mu.Unlock()
}

// Calls returns the method calls made so far, in order.
func (m *MockDeviceClient) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.calls...)
}

func (m *MockDeviceClient) GetStatus(ctx context.Context) (*model.StatusSnapshot, error) {
	m.record("GetStatus")
	if m.StatusFn != nil {
		return m.StatusFn(ctx)
	}
	return &model.StatusSnapshot{CPUTemp: model.TextField("48.0°C"), Humidity: model.NumberField(30)}, nil
}

func (m *MockDeviceClient) GetConfig(ctx context.Context) (model.ConfigMap, error) {
	m.record("GetConfig")
	if m.ConfigFn != nil {
		return m.ConfigFn(ctx)
	}
	return model.ConfigMap{
		{Key: model.ProtectedConfigKey, Value: false},
		{Key: "CONFIG_POWER_SAVE_MODE", Value: true},
		{Key: "CONFIG_SOCKETIO_PING_TIMEOUT", Value: 5},
	}, nil
}

func (m *MockDeviceClient) ToggleConfig(ctx context.Context, key string) error {
	m.record("ToggleConfig:" + key)
	if m.ToggleFn != nil {
		return m.ToggleFn(ctx, key)
	}
	return nil
}

func (m *MockDeviceClient) Ping(ctx context.Context) error {
	return nil
}

func (m *MockDeviceClient) BaseURL() string {
	return "http://mock:8080"
}

// fakeChannel implements channel.Channel in memory.
type fakeChannel struct {
	events chan channel.Event
	onEmit func(channel.Event)

	mu        sync.Mutex
	connected bool
	emitted   []channel.Event
}

func newFakeChannel() *fakeChannel {
	return &fakeChannel{events: make(chan channel.Event, 16)}
}

func (f *fakeChannel) Run(ctx context.Context) error {
	<-ctx.Done()
	return nil
}

func (f *fakeChannel) Events() <-chan channel.Event {
	return f.events
}

func (f *fakeChannel) Emit(name string, payload any) error {
	ev, err := channel.NewEvent(name, payload)
	if err != nil {
		return err
	}
	f.mu.Lock()
	if !f.connected {
		f.mu.Unlock()
		return apperror.ChannelUnavailable
	}
	f.emitted = append(f.emitted, ev)
	hook := f.onEmit
	f.mu.Unlock()
	if hook != nil {
		hook(ev)
	}
	return nil
}

func (f *fakeChannel) Connected() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.connected
}

func (f *fakeChannel) setConnected(c bool) {
	f.mu.Lock()
	f.connected = c
	f.mu.Unlock()
}

func (f *fakeChannel) Emitted() []channel.Event {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]channel.Event(nil), f.emitted...)
}

// recordingSink implements Sink and lets tests wait for notifications.
type recordingSink struct {
	updates chan Update
	configs chan model.ConfigMap
}

func newRecordingSink() *recordingSink {
	return &recordingSink{
		updates: make(chan Update, 64),
		configs: make(chan model.ConfigMap, 16),
	}
}

func (r *recordingSink) StatusChanged(u Update) { r.updates <- u }

func (r *recordingSink) ConfigChanged(m model.ConfigMap) { r.configs <- m }

// waitUpdate returns the first update matching pred.
func (r *recordingSink) waitUpdate(pred func(Update) bool) (Update, bool) {
	deadline := time.After(2 * time.Second)
	for {
		select {
		case u := <-r.updates:
			if pred(u) {
				return u, true
			}
		case <-deadline:
			return Update{}, false
		}
	}
}

func (r *recordingSink) waitConfig() (model.ConfigMap, bool) {
	select {
	case m := <-r.configs:
		return m, true
	case <-time.After(2 * time.Second):
		return nil, false
	}
}

var errMockFailure = errors.New("mock failure")
