// Package devicetest provides an in-process fake of the device's HTTP and push
// API for tests.
package devicetest

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"github.com/dm/pidash/internal/model"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type frame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// Device is a fake device. The zero value is not usable; call New.
type Device struct {
	Server *httptest.Server

	mu          sync.Mutex
	status      map[string]any
	config      model.ConfigMap
	statusDelay time.Duration
	failStatus  bool
	rejectWS    bool
	ackToggles  bool
	clients     map[*websocket.Conn]*sync.Mutex

	pullRequests  int
	pushRequests  int
	configFetches int
	toggles       []string
}

// New starts a fake device with a default status and configuration.
func New() *Device {
	d := &Device{
		status: map[string]any{
			"cpu_temp":        "55.3°C",
			"battery_low":     "OK",
			"uptime":          "1d,1h,1m",
			"disk_space":      []any{"49716 MB"},
			"disk_space_used": "12%",
			"record_status":   false,
			"humidity":        35,
		},
		config: model.ConfigMap{
			{Key: model.ProtectedConfigKey, Value: false},
			{Key: "CONFIG_POWER_SAVE_MODE", Value: true},
			{Key: "CONFIG_SOCKETIO_PING_TIMEOUT", Value: json.Number("5")},
			{Key: "CONFIG_INDUCE_STREAM_MALFUNCTION", Value: false},
		},
		ackToggles: true,
		clients:    make(map[*websocket.Conn]*sync.Mutex),
	}

	r := mux.NewRouter()
	r.HandleFunc("/api/get_pi_data", d.handleStatus).Methods(http.MethodGet)
	r.HandleFunc("/api/get_config", d.handleConfig).Methods(http.MethodGet)
	r.HandleFunc("/api/toggle_config", d.handleToggle).Methods(http.MethodPost)
	r.HandleFunc("/ws", d.handleWebSocket)
	r.HandleFunc("/", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("<html>dashboard</html>"))
	})

	d.Server = httptest.NewServer(r)
	return d
}

// URL is the device's base HTTP URL.
func (d *Device) URL() string {
	return d.Server.URL
}

// WebSocketURL is the push channel URL.
func (d *Device) WebSocketURL() string {
	return "ws" + strings.TrimPrefix(d.Server.URL, "http") + "/ws"
}

// Close drops all push clients and stops the server.
func (d *Device) Close() {
	d.DropClients()
	d.Server.Close()
}

// SetStatus replaces the status payload.
func (d *Device) SetStatus(status map[string]any) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.status = status
}

// SetStatusDelay delays HTTP status responses.
func (d *Device) SetStatusDelay(delay time.Duration) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.statusDelay = delay
}

// SetFailStatus makes HTTP status requests answer 500.
func (d *Device) SetFailStatus(fail bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.failStatus = fail
}

// SetRejectWebSocket makes websocket upgrades fail with 503.
func (d *Device) SetRejectWebSocket(reject bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.rejectWS = reject
}

// SetAckToggles controls whether push toggles are answered with config_updated.
func (d *Device) SetAckToggles(ack bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.ackToggles = ack
}

// Config returns a copy of the current configuration.
func (d *Device) Config() model.ConfigMap {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append(model.ConfigMap(nil), d.config...)
}

// PullRequests is the number of HTTP status requests served.
func (d *Device) PullRequests() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.pullRequests
}

// PushRequests is the number of get_pi_status events received.
func (d *Device) PushRequests() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.pushRequests
}

// ConfigFetches is the number of HTTP config requests served.
func (d *Device) ConfigFetches() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.configFetches
}

// Toggles lists the keys toggled so far, over either path.
func (d *Device) Toggles() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.toggles...)
}

// Clients is the number of connected push clients.
func (d *Device) Clients() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.clients)
}

// DropClients closes every push connection.
func (d *Device) DropClients() {
	d.mu.Lock()
	defer d.mu.Unlock()
	for c := range d.clients {
		_ = c.Close()
		delete(d.clients, c)
	}
}

// Broadcast sends an event to every push client.
func (d *Device) Broadcast(event string, payload any) {
	data, _ := json.Marshal(payload)
	d.mu.Lock()
	clients := make(map[*websocket.Conn]*sync.Mutex, len(d.clients))
	for c, m := range d.clients {
		clients[c] = m
	}
	d.mu.Unlock()

	for c, m := range clients {
		m.Lock()
		_ = c.WriteJSON(frame{Event: event, Data: data})
		m.Unlock()
	}
}

func (d *Device) handleStatus(w http.ResponseWriter, r *http.Request) {
	d.mu.Lock()
	d.pullRequests++
	delay, fail, status := d.statusDelay, d.failStatus, d.status
	d.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-r.Context().Done():
			return
		}
	}
	if fail {
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(status)
}

func (d *Device) handleConfig(w http.ResponseWriter, _ *http.Request) {
	d.mu.Lock()
	d.configFetches++
	data, err := json.Marshal(d.config)
	d.mu.Unlock()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(data)
}

func (d *Device) handleToggle(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Key string `json:"key"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}
	if _, ok := d.toggle(req.Key); !ok {
		http.Error(w, "KeyError", http.StatusInternalServerError)
		return
	}
	http.Redirect(w, r, "/", http.StatusFound)
}

// toggle flips key; ok is false when key is missing or not a boolean.
func (d *Device) toggle(key string) (bool, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	e, found := d.config.Get(key)
	if !found {
		return false, false
	}
	b, isBool := e.Value.(bool)
	if !isBool {
		return false, false
	}
	d.config.Set(key, !b)
	d.toggles = append(d.toggles, key)
	return !b, true
}

func (d *Device) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	d.mu.Lock()
	reject := d.rejectWS
	d.mu.Unlock()
	if reject {
		http.Error(w, "unavailable", http.StatusServiceUnavailable)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	writeMu := &sync.Mutex{}
	d.mu.Lock()
	d.clients[conn] = writeMu
	d.mu.Unlock()

	defer func() {
		d.mu.Lock()
		delete(d.clients, conn)
		d.mu.Unlock()
		_ = conn.Close()
	}()

	for {
		var f frame
		if err := conn.ReadJSON(&f); err != nil {
			return
		}
		switch f.Event {
		case "get_pi_status":
			d.mu.Lock()
			d.pushRequests++
			status := d.status
			d.mu.Unlock()
			data, _ := json.Marshal(status)
			writeMu.Lock()
			_ = conn.WriteJSON(frame{Event: "pi_status_update", Data: data})
			writeMu.Unlock()
		case "toggle_config":
			var req struct {
				Key string `json:"key"`
			}
			if err := json.Unmarshal(f.Data, &req); err != nil {
				continue
			}
			value, ok := d.toggle(req.Key)
			d.mu.Lock()
			ack := d.ackToggles
			d.mu.Unlock()
			if ok && ack {
				d.Broadcast("config_updated", map[string]any{"key": req.Key, "value": value})
			}
		}
	}
}
