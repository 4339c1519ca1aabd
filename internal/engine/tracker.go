package engine

import "github.com/dm/pidash/internal/model"

// Plan says how a status request should be made.
type Plan int

const (
	// PlanPush emits get_pi_status on the push channel; the answer arrives as an event.
	PlanPush Plan = iota
	// PlanPull issues one bounded HTTP request.
	PlanPull
	// PlanSkip means a pull is already in flight; only the next tick is scheduled.
	PlanSkip
)

func (p Plan) String() string {
	switch p {
	case PlanPush:
		return "push"
	case PlanPull:
		return "pull"
	default:
		return "skip"
	}
}

// Tracker holds the connection state and the current snapshot. It has no I/O
// and no locking; the Syncer serialises all calls from its loop.
//
// Every pull request and every push arrival takes the next sequence number.
// A result is applied only when its sequence is newer than the last applied
// one, so a slow pull can never overwrite a fresher update.
type Tracker struct {
	state       model.ConnState
	current     model.StatusSnapshot
	hasSnapshot bool

	nextSeq      uint64
	lastSnapSeq  uint64 // sequence of the current snapshot
	lastStateSeq uint64 // sequence of the last state transition
	pullInFlight bool
}

// NewTracker returns a tracker in the Connecting state with no snapshot.
func NewTracker() *Tracker {
	return &Tracker{state: model.StateConnecting}
}

func (t *Tracker) State() model.ConnState {
	return t.state
}

// Current returns the current snapshot; ok is false before the first one.
func (t *Tracker) Current() (model.StatusSnapshot, bool) {
	return t.current, t.hasSnapshot
}

// LastSeq is the sequence number of the current snapshot.
func (t *Tracker) LastSeq() uint64 {
	return t.lastSnapSeq
}

func (t *Tracker) next() uint64 {
	t.nextSeq++
	return t.nextSeq
}

// ChannelOpened records that the push channel is up. Reports whether the state changed.
func (t *Tracker) ChannelOpened() bool {
	return t.setState(model.StateConnected, t.next())
}

// ChannelClosed records that the push channel is down (or failed to open).
func (t *Tracker) ChannelClosed() bool {
	return t.setState(model.StateDisconnected, t.next())
}

func (t *Tracker) setState(s model.ConnState, seq uint64) bool {
	t.lastStateSeq = seq
	if t.state == s {
		return false
	}
	t.state = s
	return true
}

// BeginRequest decides how to request status now. For PlanPull the returned
// sequence must be passed to ApplyPull or FailPull.
func (t *Tracker) BeginRequest() (Plan, uint64) {
	if t.state == model.StateConnected {
		return PlanPush, 0
	}
	if t.pullInFlight {
		return PlanSkip, 0
	}
	t.pullInFlight = true
	return PlanPull, t.next()
}

// ApplyPush installs a snapshot that arrived on the push channel.
func (t *Tracker) ApplyPush(s model.StatusSnapshot) uint64 {
	seq := t.next()
	t.install(seq, s)
	return seq
}

// ApplyPull installs the result of pull seq. Reports false when the result is stale.
func (t *Tracker) ApplyPull(seq uint64, s model.StatusSnapshot) bool {
	t.pullInFlight = false
	if seq <= t.lastSnapSeq {
		return false
	}
	t.install(seq, s)
	return true
}

// FailPull records that pull seq failed: the snapshot becomes unknown and the
// state Disconnected, unless newer information has already arrived. A failure
// that predates a reconnect leaves both untouched.
// Reports whether anything changed.
func (t *Tracker) FailPull(seq uint64, s model.StatusSnapshot) bool {
	t.pullInFlight = false
	if seq < t.lastStateSeq && t.state == model.StateConnected {
		return false
	}
	changed := false
	if seq > t.lastSnapSeq {
		t.install(seq, s)
		changed = true
	}
	if seq > t.lastStateSeq {
		if t.setState(model.StateDisconnected, seq) {
			changed = true
		}
	}
	return changed
}

func (t *Tracker) install(seq uint64, s model.StatusSnapshot) {
	t.current = s
	t.hasSnapshot = true
	t.lastSnapSeq = seq
}
