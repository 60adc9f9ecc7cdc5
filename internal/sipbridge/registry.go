package sipbridge

import "sync"

// Conversation is the per-session SIP conference state. Once created it
// lives for the process lifetime; hanging up ends the call but keeps the
// record.
type Conversation struct {
	SessionID        string `json:"sessionId"`
	PIN              int    `json:"pin"`
	Name             string `json:"conversationName"`
	ConferenceNumber string `json:"conferenceNumber"`
	ConnectionID     string `json:"connectionId,omitempty"`
	StreamID         string `json:"streamId,omitempty"`
}

// Registry holds conversation records keyed by session id.
type Registry struct {
	mu            sync.RWMutex
	conversations map[string]*Conversation
}

func NewRegistry() *Registry {
	return &Registry{conversations: make(map[string]*Conversation)}
}

// Get returns a copy of the conversation for a session, if provisioned.
func (r *Registry) Get(sessionID string) (*Conversation, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	conv, ok := r.conversations[sessionID]
	if !ok {
		return nil, false
	}
	cp := *conv
	return &cp, true
}

// Put stores a conversation keyed by its session id.
func (r *Registry) Put(conv Conversation) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := conv
	r.conversations[conv.SessionID] = &cp
}

// SetCall records the live connection and stream ids after a dial.
func (r *Registry) SetCall(sessionID, connectionID, streamID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if conv, ok := r.conversations[sessionID]; ok {
		conv.ConnectionID = connectionID
		conv.StreamID = streamID
	}
}

// Len reports the number of provisioned conversations.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conversations)
}
