package broadcast

import (
	"sync"

	"github.com/antoniostano/roombridge/internal/platform"
)

// Registry keeps the most recent broadcast descriptor per session id.
// One active broadcast per session is assumed throughout.
type Registry struct {
	mu      sync.RWMutex
	records map[string]*platform.Broadcast
}

func NewRegistry() *Registry {
	return &Registry{records: make(map[string]*platform.Broadcast)}
}

// Put stores the descriptor for a session, overwriting any prior record.
func (r *Registry) Put(sessionID string, b *platform.Broadcast) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *b
	r.records[sessionID] = &cp
}

// Get returns a copy of the stored descriptor for a session, if any.
func (r *Registry) Get(sessionID string) (*platform.Broadcast, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.records[sessionID]
	if !ok {
		return nil, false
	}
	cp := *b
	return &cp, true
}

// Delete removes the record for a session.
func (r *Registry) Delete(sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.records, sessionID)
}

// Len reports the number of tracked broadcasts.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.records)
}
