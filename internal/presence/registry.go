package presence

import (
	"sync"

	"github.com/samber/lo"
)

// SessionRegistry tracks which live connections belong to which identity.
// An identity is online iff it has at least one connection. State is
// process-local and rebuilt as clients reconnect after a restart.
type SessionRegistry struct {
	mu       sync.Mutex
	sessions map[string]map[string]struct{} // userID -> connection IDs
}

func NewSessionRegistry() *SessionRegistry {
	return &SessionRegistry{
		sessions: make(map[string]map[string]struct{}),
	}
}

// Register adds a connection and reports whether this was the identity's
// first live connection, i.e. an offline-to-online transition.
func (r *SessionRegistry) Register(userID, connID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	conns, ok := r.sessions[userID]
	if !ok {
		conns = make(map[string]struct{})
		r.sessions[userID] = conns
	}
	conns[connID] = struct{}{}
	return !ok
}

// Unregister removes a connection and reports whether the identity's set
// became empty, i.e. an online-to-offline transition. Unknown connections
// are ignored.
func (r *SessionRegistry) Unregister(userID, connID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	conns, ok := r.sessions[userID]
	if !ok {
		return false
	}
	if _, ok := conns[connID]; !ok {
		return false
	}

	delete(conns, connID)
	if len(conns) == 0 {
		delete(r.sessions, userID)
		return true
	}
	return false
}

func (r *SessionRegistry) IsOnline(userID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions[userID]) > 0
}

func (r *SessionRegistry) Connections(userID string) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return lo.Keys(r.sessions[userID])
}

// OnlineUsers is the process-local view of the online set.
func (r *SessionRegistry) OnlineUsers() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return lo.Keys(r.sessions)
}
