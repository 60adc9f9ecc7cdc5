package platform

import (
	"context"
	"fmt"
	"sync"
)

// Mock is an in-memory stand-in for the platform used by tests. It
// issues deterministic identifiers and lets tests inject failures per
// operation.
type Mock struct {
	mu  sync.Mutex
	seq int

	CreateSessionErr  error
	TokenErr          error
	ListBroadcastsErr error
	StartBroadcastErr error
	StopBroadcastErr  error
	GetBroadcastErr   error
	ArchiveErr        error
	DialErr           error
	DisconnectErr     error

	// StopErrByID fails StopBroadcast for specific broadcast ids only,
	// for exercising the best-effort cleanup path.
	StopErrByID map[string]error

	CreateSessionCalls  int
	TokenCalls          int
	StopBroadcastCalls  int
	DisconnectCalls     int
	DisconnectedConns   []string
	StoppedBroadcastIDs []string
	LastArchiveFilter   *ArchiveFilter
	LastDialOptions     SIPDialOptions
	LastDialToken       string
	LastTokenOptions    TokenOptions

	// Conversations seeds the management API listing for the admin sweep.
	Conversations []Conversation
	DeletedConvs  []string

	broadcasts map[string]*Broadcast
	archives   map[string]*Archive
}

func NewMock() *Mock {
	return &Mock{
		broadcasts: make(map[string]*Broadcast),
		archives:   make(map[string]*Archive),
	}
}

func (m *Mock) next(prefix string) string {
	m.seq++
	return fmt.Sprintf("%s-%d", prefix, m.seq)
}

func (m *Mock) CreateSession(_ context.Context, _ SessionOptions) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CreateSessionCalls++
	if m.CreateSessionErr != nil {
		return "", m.CreateSessionErr
	}
	return m.next("session"), nil
}

func (m *Mock) GenerateClientToken(sessionID string, opts TokenOptions) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.TokenCalls++
	m.LastTokenOptions = opts
	if m.TokenErr != nil {
		return "", m.TokenErr
	}
	return fmt.Sprintf("%s:%s:%s", m.next("token"), sessionID, opts.Role), nil
}

func (m *Mock) ListBroadcasts(_ context.Context, sessionID string) ([]Broadcast, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ListBroadcastsErr != nil {
		return nil, m.ListBroadcastsErr
	}
	var items []Broadcast
	for _, b := range m.broadcasts {
		if b.SessionID == sessionID && b.Status != "stopped" {
			items = append(items, *b)
		}
	}
	return items, nil
}

func (m *Mock) StartBroadcast(_ context.Context, sessionID string, opts BroadcastOptions) (*Broadcast, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.StartBroadcastErr != nil {
		return nil, m.StartBroadcastErr
	}
	resolution := "1280x720"
	if opts.FHD {
		resolution = "1920x1080"
	}
	b := &Broadcast{
		ID:         m.next("broadcast"),
		SessionID:  sessionID,
		Status:     "started",
		StreamMode: opts.StreamMode,
		Resolution: resolution,
	}
	m.broadcasts[b.ID] = b
	cp := *b
	return &cp, nil
}

func (m *Mock) StopBroadcast(_ context.Context, broadcastID string) (*Broadcast, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.StopBroadcastCalls++
	if err := m.StopErrByID[broadcastID]; err != nil {
		return nil, err
	}
	if m.StopBroadcastErr != nil {
		return nil, m.StopBroadcastErr
	}
	b, ok := m.broadcasts[broadcastID]
	if !ok {
		return nil, fmt.Errorf("broadcast %s not found", broadcastID)
	}
	b.Status = "stopped"
	m.StoppedBroadcastIDs = append(m.StoppedBroadcastIDs, broadcastID)
	cp := *b
	return &cp, nil
}

func (m *Mock) GetBroadcast(_ context.Context, broadcastID string) (*Broadcast, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.GetBroadcastErr != nil {
		return nil, m.GetBroadcastErr
	}
	b, ok := m.broadcasts[broadcastID]
	if !ok {
		return nil, fmt.Errorf("broadcast %s not found", broadcastID)
	}
	cp := *b
	return &cp, nil
}

func (m *Mock) StartArchive(_ context.Context, sessionID, name string) (*Archive, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ArchiveErr != nil {
		return nil, m.ArchiveErr
	}
	a := &Archive{
		ID:        m.next("archive"),
		SessionID: sessionID,
		Name:      name,
		Status:    "started",
	}
	m.archives[a.ID] = a
	cp := *a
	return &cp, nil
}

func (m *Mock) StopArchive(_ context.Context, archiveID string) (*Archive, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ArchiveErr != nil {
		return nil, m.ArchiveErr
	}
	a, ok := m.archives[archiveID]
	if !ok {
		return nil, fmt.Errorf("archive %s not found", archiveID)
	}
	a.Status = "stopped"
	cp := *a
	return &cp, nil
}

func (m *Mock) GetArchive(_ context.Context, archiveID string) (*Archive, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ArchiveErr != nil {
		return nil, m.ArchiveErr
	}
	a, ok := m.archives[archiveID]
	if !ok {
		return nil, fmt.Errorf("archive %s not found", archiveID)
	}
	cp := *a
	return &cp, nil
}

// SeedArchive installs an archive descriptor, for view/availability tests.
func (m *Mock) SeedArchive(a Archive) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := a
	m.archives[a.ID] = &cp
}

func (m *Mock) ListArchives(_ context.Context, filter ArchiveFilter) (*ArchiveList, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ArchiveErr != nil {
		return nil, m.ArchiveErr
	}
	f := filter
	m.LastArchiveFilter = &f
	out := &ArchiveList{}
	for _, a := range m.archives {
		if filter.SessionID != "" && a.SessionID != filter.SessionID {
			continue
		}
		out.Items = append(out.Items, *a)
	}
	out.Count = len(out.Items)
	return out, nil
}

func (m *Mock) DialSIP(_ context.Context, sessionID, token string, opts SIPDialOptions) (*SIPCall, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.DialErr != nil {
		return nil, m.DialErr
	}
	m.LastDialToken = token
	m.LastDialOptions = opts
	_ = sessionID
	return &SIPCall{
		ID:           m.next("call"),
		ConnectionID: m.next("connection"),
		StreamID:     m.next("stream"),
	}, nil
}

func (m *Mock) DisconnectClient(_ context.Context, sessionID, connectionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.DisconnectCalls++
	if m.DisconnectErr != nil {
		return m.DisconnectErr
	}
	m.DisconnectedConns = append(m.DisconnectedConns, sessionID+"/"+connectionID)
	return nil
}

func (m *Mock) ListConversations(_ context.Context, cursor string) (ConversationPage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	// Single page; a cursor means the previous page consumed everything.
	if cursor != "" {
		return ConversationPage{}, nil
	}
	page := ConversationPage{Conversations: append([]Conversation(nil), m.Conversations...)}
	return page, nil
}

func (m *Mock) DeleteConversation(_ context.Context, conversationID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.DeletedConvs = append(m.DeletedConvs, conversationID)
	return nil
}
