package engine

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/dm/pidash/internal/apperror"
	"github.com/dm/pidash/internal/channel"
	"github.com/dm/pidash/internal/client"
	"github.com/dm/pidash/internal/config"
	"github.com/dm/pidash/internal/logger"
	"github.com/dm/pidash/internal/model"
)

// configAck is the config_updated payload: the toggled key and its new value.
type configAck struct {
	Key   string `json:"key"`
	Value any    `json:"value"`
}

// ConfigController fetches the device configuration and issues toggles.
type ConfigController struct {
	client     client.DeviceClient
	ch         channel.Channel // nil when push is disabled
	sink       Sink
	log        *logger.Logger
	ackTimeout time.Duration

	mu      sync.Mutex
	current model.ConfigMap
	waiters map[string][]ackWaiter
}

// ackWaiter is a push toggle waiting for config_updated to report want.
type ackWaiter struct {
	done chan struct{}
	want bool
}

// NewConfigController wires a ConfigController. ch and sink may be nil.
func NewConfigController(c client.DeviceClient, ch channel.Channel, sink Sink, log *logger.Logger, ackTimeout time.Duration) *ConfigController {
	if ackTimeout <= 0 {
		ackTimeout = config.DefaultAckTimeout
	}
	return &ConfigController{
		client:     c,
		ch:         ch,
		sink:       sink,
		log:        log,
		ackTimeout: ackTimeout,
		waiters:    make(map[string][]ackWaiter),
	}
}

// Current returns the last successfully fetched configuration.
func (c *ConfigController) Current() model.ConfigMap {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append(model.ConfigMap(nil), c.current...)
}

// GetConfig fetches the configuration. On failure the error is logged and the
// last good configuration is kept.
func (c *ConfigController) GetConfig(ctx context.Context) (model.ConfigMap, error) {
	m, err := c.client.GetConfig(ctx)
	if err != nil {
		c.log.LogError(err, "error fetching config")
		return nil, apperror.ConfigFetchFailed.Wrap(err)
	}

	c.mu.Lock()
	c.current = m
	c.mu.Unlock()

	if c.sink != nil {
		c.sink.ConfigChanged(m)
	}
	return m, nil
}

// CheckToggle reports why key cannot be toggled, or nil.
func (c *ConfigController) CheckToggle(key string) error {
	if key == model.ProtectedConfigKey {
		return apperror.ProtectedConfigKey
	}
	c.mu.Lock()
	e, ok := c.current.Get(key)
	c.mu.Unlock()
	if !ok {
		return apperror.UnknownConfigKey.SetMessage("Configuration Key " + key + " Not Reported By Device")
	}
	if !e.Toggleable() {
		return apperror.NotToggleable
	}
	return nil
}

// ToggleConfig flips the boolean configuration value key and, once the device
// has acknowledged, refetches the configuration.
func (c *ConfigController) ToggleConfig(ctx context.Context, key string) error {
	if err := c.CheckToggle(key); err != nil {
		return err
	}

	if err := c.sendToggle(ctx, key); err != nil {
		c.log.LogError(err, "toggle failed", "key", key)
		return err
	}
	c.log.LogInfo("toggled config", "key", key)

	// The toggle itself succeeded; a failed refresh only leaves the view stale.
	_, _ = c.GetConfig(ctx)
	return nil
}

func (c *ConfigController) sendToggle(ctx context.Context, key string) error {
	if c.ch != nil && c.ch.Connected() {
		err := c.togglePush(ctx, key)
		if !errors.Is(err, apperror.ChannelUnavailable) {
			return err
		}
		c.log.LogWarning(err, "push toggle unavailable, using HTTP", "key", key)
	}
	return c.client.ToggleConfig(ctx, key)
}

func (c *ConfigController) togglePush(ctx context.Context, key string) error {
	c.mu.Lock()
	e, _ := c.current.Get(key)
	c.mu.Unlock()
	was, _ := e.Value.(bool)

	acked := c.addWaiter(key, !was)
	defer c.removeWaiter(key, acked)

	if err := c.ch.Emit(channel.EventToggleConfig, client.ToggleRequest{Key: key}); err != nil {
		return err
	}

	t := time.NewTimer(c.ackTimeout)
	defer t.Stop()
	select {
	case <-acked:
		return nil
	case <-t.C:
		return apperror.AckTimeout
	case <-ctx.Done():
		return ctx.Err()
	}
}

// HandleUpdated processes a config_updated event. An update carrying the value
// a toggle issued here is waiting for releases that toggle, which refreshes on
// its own; any other update (e.g. from another dashboard) triggers a refetch.
func (c *ConfigController) HandleUpdated(ctx context.Context, ev channel.Event) {
	var ack configAck
	if len(ev.Data) > 0 {
		if err := ev.Decode(&ack); err != nil {
			c.log.LogWarning(err, "config_updated with unreadable payload")
		}
	}

	if ack.Key != "" && c.release(ack.Key, ack.Value) {
		return
	}
	go func() {
		_, _ = c.GetConfig(ctx)
	}()
}

func (c *ConfigController) addWaiter(key string, want bool) chan struct{} {
	ch := make(chan struct{})
	c.mu.Lock()
	c.waiters[key] = append(c.waiters[key], ackWaiter{done: ch, want: want})
	c.mu.Unlock()
	return ch
}

func (c *ConfigController) removeWaiter(key string, ch chan struct{}) {
	c.mu.Lock()
	defer c.mu.Unlock()
	ws := c.waiters[key]
	for i, w := range ws {
		if w.done == ch {
			c.waiters[key] = append(ws[:i], ws[i+1:]...)
			break
		}
	}
	if len(c.waiters[key]) == 0 {
		delete(c.waiters, key)
	}
}

// release wakes the oldest toggle on key waiting for value. An update without a
// boolean value matches any waiter. Reports whether one was released.
func (c *ConfigController) release(key string, value any) bool {
	got, isBool := value.(bool)

	c.mu.Lock()
	defer c.mu.Unlock()
	ws := c.waiters[key]
	for i, w := range ws {
		if isBool && w.want != got {
			continue
		}
		close(w.done)
		c.waiters[key] = append(ws[:i:i], ws[i+1:]...)
		return true
	}
	return false
}
