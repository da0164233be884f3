package session

import (
	"errors"
	"fmt"
	"sync"

	"codecollab/internal/metrics"
)

var ErrNotBound = errors.New("connection not bound to a session")

// Binding ties a live connection to one participant of one session.
type Binding struct {
	ConnectionID  string
	SessionID     string
	ParticipantID string
	Client        *Client
}

// Registry maps live connections to the participant they speak for.
type Registry struct {
	mu        sync.RWMutex
	bindings  map[string]Binding
	bySession map[string]map[string]struct{}
	exists    func(sessionID string) bool
}

// NewRegistry creates a registry that refuses bindings to sessions exists
// does not know about.
func NewRegistry(exists func(sessionID string) bool) *Registry {
	return &Registry{
		bindings:  make(map[string]Binding),
		bySession: make(map[string]map[string]struct{}),
		exists:    exists,
	}
}

// Bind records that c now speaks for participantID in sessionID. An existing
// binding for the same connection is replaced.
func (reg *Registry) Bind(c *Client, sessionID, participantID string) error {
	if reg.exists != nil && !reg.exists(sessionID) {
		return fmt.Errorf("bind %s to %s: %w", c.ID, sessionID, ErrSessionNotFound)
	}

	reg.mu.Lock()
	defer reg.mu.Unlock()
	if prev, ok := reg.bindings[c.ID]; ok {
		reg.removeLocked(prev)
	}
	b := Binding{ConnectionID: c.ID, SessionID: sessionID, ParticipantID: participantID, Client: c}
	reg.bindings[c.ID] = b
	conns, ok := reg.bySession[sessionID]
	if !ok {
		conns = make(map[string]struct{})
		reg.bySession[sessionID] = conns
	}
	conns[c.ID] = struct{}{}
	metrics.ActiveConnections.Set(float64(len(reg.bindings)))
	return nil
}

func (reg *Registry) Resolve(connectionID string) (Binding, bool) {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	b, ok := reg.bindings[connectionID]
	return b, ok
}

// Unbind drops the binding for connectionID and returns what it was. Calling
// it for an unbound id is a no-op that returns false.
func (reg *Registry) Unbind(connectionID string) (Binding, bool) {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	b, ok := reg.bindings[connectionID]
	if !ok {
		return Binding{}, false
	}
	reg.removeLocked(b)
	metrics.ActiveConnections.Set(float64(len(reg.bindings)))
	return b, true
}

func (reg *Registry) removeLocked(b Binding) {
	delete(reg.bindings, b.ConnectionID)
	if conns, ok := reg.bySession[b.SessionID]; ok {
		delete(conns, b.ConnectionID)
		if len(conns) == 0 {
			delete(reg.bySession, b.SessionID)
		}
	}
}

// SessionBindings returns every binding that belongs to sessionID.
func (reg *Registry) SessionBindings(sessionID string) []Binding {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	conns := reg.bySession[sessionID]
	out := make([]Binding, 0, len(conns))
	for id := range conns {
		out = append(out, reg.bindings[id])
	}
	return out
}

func (reg *Registry) Count() int {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	return len(reg.bindings)
}
