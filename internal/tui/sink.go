package tui

import (
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/dm/pidash/internal/engine"
	"github.com/dm/pidash/internal/model"
)

// Sink forwards engine notifications into a running Bubble Tea program.
// Notifications that arrive before Attach are dropped.
type Sink struct {
	mu sync.Mutex
	p  *tea.Program
}

var _ engine.Sink = (*Sink)(nil)

// NewSink returns a Sink with no program attached.
func NewSink() *Sink {
	return &Sink{}
}

// Attach sets the program that receives notifications.
func (s *Sink) Attach(p *tea.Program) {
	s.mu.Lock()
	s.p = p
	s.mu.Unlock()
}

func (s *Sink) send(msg tea.Msg) {
	s.mu.Lock()
	p := s.p
	s.mu.Unlock()
	if p != nil {
		p.Send(msg)
	}
}

// StatusChanged implements engine.Sink.
func (s *Sink) StatusChanged(u engine.Update) {
	s.send(StatusMsg{Update: u})
}

// ConfigChanged implements engine.Sink.
func (s *Sink) ConfigChanged(m model.ConfigMap) {
	s.send(ConfigMsg{Config: m})
}
