package rooms

import "sync"

// Registry associates caller-chosen room names with platform session ids.
// Bindings live for the process lifetime; a restart forgets everything,
// which is the accepted scope of this service.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]string
}

func NewRegistry() *Registry {
	return &Registry{sessions: make(map[string]string)}
}

// Bind inserts or overwrites the room's session binding. Idempotent
// creation is the coordinator's job, not enforced here.
func (r *Registry) Bind(room, sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[room] = sessionID
}

// SessionID returns the session bound to a room, if any.
func (r *Registry) SessionID(room string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	sessionID, ok := r.sessions[room]
	return sessionID, ok
}

// RoomOf reverse-looks-up the room bound to a session id by scanning the
// forward map. If two rooms ever shared a session id the first match
// wins; fine at this scale.
func (r *Registry) RoomOf(sessionID string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for room, bound := range r.sessions {
		if bound == sessionID {
			return room, true
		}
	}
	return "", false
}

// Len reports the number of bound rooms.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}
