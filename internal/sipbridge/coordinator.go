package sipbridge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/rs/zerolog/log"

	"github.com/antoniostano/roombridge/internal/identifier"
	"github.com/antoniostano/roombridge/internal/platform"
)

var (
	// ErrRoomNotFound means the room has no session binding at all.
	ErrRoomNotFound = errors.New("room not found")
	// ErrNoConversation means dial/hangup was attempted before the
	// conversation was provisioned.
	ErrNoConversation = errors.New("conversation not provisioned")
	// ErrNotDialed means hangup was attempted with no recorded connection.
	ErrNotDialed = errors.New("no active sip connection")
)

// Provider is the slice of the platform the coordinator needs.
type Provider interface {
	GenerateClientToken(sessionID string, opts platform.TokenOptions) (string, error)
	DialSIP(ctx context.Context, sessionID, token string, opts platform.SIPDialOptions) (*platform.SIPCall, error)
	DisconnectClient(ctx context.Context, sessionID, connectionID string) error
}

// RoomLookup resolves room names to session ids.
type RoomLookup interface {
	SessionID(room string) (string, bool)
}

// Config carries the fixed conference bridge the coordinator dials.
type Config struct {
	ConferenceNumber string
	BridgeURI        string
	BridgeUsername   string
	BridgePassword   string
	Secure           bool
}

// Coordinator owns the per-room SIP workflow: provision a conversation,
// dial the room's session into the conference bridge, hang up, and react
// to telephony events.
type Coordinator struct {
	cfg      Config
	rooms    RoomLookup
	registry *Registry
	provider Provider
}

func NewCoordinator(cfg Config, rooms RoomLookup, registry *Registry, provider Provider) *Coordinator {
	return &Coordinator{cfg: cfg, rooms: rooms, registry: registry, provider: provider}
}

// EnsureConversation provisions the room's conversation on first use and
// returns the existing record unchanged thereafter.
func (c *Coordinator) EnsureConversation(room string) (*Conversation, error) {
	sessionID, ok := c.rooms.SessionID(room)
	if !ok {
		return nil, ErrRoomNotFound
	}
	if conv, ok := c.registry.Get(sessionID); ok {
		return conv, nil
	}
	conv := Conversation{
		SessionID:        sessionID,
		PIN:              identifier.PIN(),
		Name:             identifier.ConversationName(),
		ConferenceNumber: c.cfg.ConferenceNumber,
	}
	c.registry.Put(conv)
	log.Info().Str("room", room).Str("conversation", conv.Name).Msg("sip conversation provisioned")
	return &conv, nil
}

// Dial connects the room's session to the conference bridge. The caller's
// number, when given, rides along as a custom header. Connection and
// stream ids are recorded only after the platform confirms the dial.
func (c *Coordinator) Dial(ctx context.Context, room, callerNumber string) (*platform.SIPCall, error) {
	sessionID, ok := c.rooms.SessionID(room)
	if !ok {
		return nil, ErrRoomNotFound
	}
	conv, ok := c.registry.Get(sessionID)
	if !ok {
		return nil, ErrNoConversation
	}

	data, _ := json.Marshal(map[string]any{
		"sip":              true,
		"role":             "client",
		"conversationName": conv.Name,
	})
	token, err := c.provider.GenerateClientToken(sessionID, platform.TokenOptions{
		Role: platform.RoleModerator,
		Data: string(data),
	})
	if err != nil {
		return nil, fmt.Errorf("generate token: %w", err)
	}

	headers := map[string]string{
		"X-Conference-Pin": strconv.Itoa(conv.PIN),
	}
	if callerNumber != "" {
		headers["X-Caller-Number"] = callerNumber
	}
	call, err := c.provider.DialSIP(ctx, sessionID, token, platform.SIPDialOptions{
		URI:      c.cfg.BridgeURI,
		From:     c.cfg.ConferenceNumber,
		Username: c.cfg.BridgeUsername,
		Password: c.cfg.BridgePassword,
		Secure:   c.cfg.Secure,
		Headers:  headers,
	})
	if err != nil {
		return nil, fmt.Errorf("sip dial: %w", err)
	}

	c.registry.SetCall(sessionID, call.ConnectionID, call.StreamID)
	log.Info().Str("room", room).Str("connectionId", call.ConnectionID).Msg("sip call dialed")
	return call, nil
}

// Hangup disconnects the room's SIP leg. The recorded connection id is
// not cleared on success, so a repeat hangup re-attempts the disconnect
// with the stale id; kept as-is, see DESIGN.md.
func (c *Coordinator) Hangup(ctx context.Context, room string) error {
	sessionID, ok := c.rooms.SessionID(room)
	if !ok {
		return ErrRoomNotFound
	}
	conv, ok := c.registry.Get(sessionID)
	if !ok {
		return ErrNoConversation
	}
	if conv.ConnectionID == "" {
		return ErrNotDialed
	}
	if err := c.provider.DisconnectClient(ctx, sessionID, conv.ConnectionID); err != nil {
		return fmt.Errorf("disconnect client: %w", err)
	}
	log.Info().Str("room", room).Str("connectionId", conv.ConnectionID).Msg("sip call hung up")
	return nil
}

// DescribeInboundRouting provisions the room's conversation if needed and
// produces the call-control script for an inbound leg. The bridge's own
// outbound leg presents the conference number as caller id; anything else
// is treated as a human caller.
func (c *Coordinator) DescribeInboundRouting(room, from, targetNumber string) ([]any, error) {
	conv, err := c.EnsureConversation(room)
	if err != nil {
		return nil, err
	}
	fromConnector := from != "" && from == c.cfg.ConferenceNumber
	return InboundRouting(conv.Name, fromConnector, targetNumber, c.cfg.ConferenceNumber), nil
}

// OnCallEvent reacts to telephony status callbacks. Call completion
// triggers the same disconnect as Hangup; every other status, and any
// precondition miss, is a no-op.
func (c *Coordinator) OnCallEvent(ctx context.Context, status, room string) error {
	if status != "completed" {
		return nil
	}
	err := c.Hangup(ctx, room)
	if errors.Is(err, ErrRoomNotFound) || errors.Is(err, ErrNoConversation) || errors.Is(err, ErrNotDialed) {
		log.Debug().Str("room", room).Err(err).Msg("completion event with nothing to hang up")
		return nil
	}
	return err
}
