package connectivity

import (
	"context"
	"sync"

	"github.com/mansoorceksport/repsync/internal/domain"
)

// Switch is a manually driven ConnectivityObserver.
// The agent uses it when probing is disabled; tests use it to simulate going offline.
type Switch struct {
	mu        sync.RWMutex
	connected bool
	subs      subscribers
}

func NewSwitch(connected bool) *Switch {
	return &Switch{connected: connected}
}

var _ domain.ConnectivityObserver = (*Switch)(nil)

func (s *Switch) IsConnected(ctx context.Context) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.connected
}

func (s *Switch) Subscribe(fn func(bool)) func() {
	return s.subs.add(fn)
}

// Set changes the state and notifies subscribers when it actually changed
func (s *Switch) Set(connected bool) {
	s.mu.Lock()
	changed := s.connected != connected
	s.connected = connected
	s.mu.Unlock()

	if changed {
		s.subs.notify(connected)
	}
}
