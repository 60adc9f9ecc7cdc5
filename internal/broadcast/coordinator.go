package broadcast

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/antoniostano/roombridge/internal/platform"
)

// Provider is the slice of the platform the coordinator needs.
type Provider interface {
	ListBroadcasts(ctx context.Context, sessionID string) ([]platform.Broadcast, error)
	StartBroadcast(ctx context.Context, sessionID string, opts platform.BroadcastOptions) (*platform.Broadcast, error)
	StopBroadcast(ctx context.Context, broadcastID string) (*platform.Broadcast, error)
	GetBroadcast(ctx context.Context, broadcastID string) (*platform.Broadcast, error)
}

// Coordinator drives broadcast start/stop/status against the platform,
// enforcing a clean slate before every start: whatever the platform
// still has running for the session is stopped first, best-effort.
type Coordinator struct {
	registry    *Registry
	provider    Provider
	cleanupErrs chan error
}

func NewCoordinator(registry *Registry, provider Provider) *Coordinator {
	return &Coordinator{
		registry:    registry,
		provider:    provider,
		cleanupErrs: make(chan error, 16),
	}
}

// CleanupErrors exposes failures of the best-effort pre-start stops.
// They never reach the Start caller; a supervisor drains this channel.
func (c *Coordinator) CleanupErrors() <-chan error {
	return c.cleanupErrs
}

func (c *Coordinator) reportCleanup(err error) {
	log.Warn().Err(err).Msg("broadcast cleanup failed")
	select {
	case c.cleanupErrs <- err:
	default:
	}
}

// Start stops anything already broadcasting on the session, then starts
// a new broadcast and records it. Cleanup failures are observable but do
// not fail the start.
func (c *Coordinator) Start(ctx context.Context, sessionID string, opts platform.BroadcastOptions) (*platform.Broadcast, error) {
	existing, err := c.provider.ListBroadcasts(ctx, sessionID)
	if err != nil {
		c.reportCleanup(fmt.Errorf("list broadcasts for %s: %w", sessionID, err))
	}
	for _, b := range existing {
		if _, err := c.provider.StopBroadcast(ctx, b.ID); err != nil {
			c.reportCleanup(fmt.Errorf("stop stale broadcast %s: %w", b.ID, err))
		}
	}

	started, err := c.provider.StartBroadcast(ctx, sessionID, opts)
	if err != nil {
		return nil, fmt.Errorf("start broadcast: %w", err)
	}
	c.registry.Put(sessionID, started)
	log.Info().Str("sessionId", sessionID).Str("broadcastId", started.ID).Msg("broadcast started")
	return started, nil
}

// Stop ends the tracked broadcast for a session. With no tracked record
// this is a silent no-op: no platform call, no error, no descriptor.
// The record is only removed once the platform confirms the stop, so a
// failed stop can be retried.
func (c *Coordinator) Stop(ctx context.Context, sessionID string) (*platform.Broadcast, error) {
	record, ok := c.registry.Get(sessionID)
	if !ok {
		return nil, nil
	}
	stopped, err := c.provider.StopBroadcast(ctx, record.ID)
	if err != nil {
		return nil, fmt.Errorf("stop broadcast: %w", err)
	}
	c.registry.Delete(sessionID)
	log.Info().Str("sessionId", sessionID).Str("broadcastId", record.ID).Msg("broadcast stopped")
	return stopped, nil
}

// Status fetches the live descriptor for the session's tracked broadcast.
// The stored record is not refreshed. Nil without error means nothing is
// tracked.
func (c *Coordinator) Status(ctx context.Context, sessionID string) (*platform.Broadcast, error) {
	record, ok := c.registry.Get(sessionID)
	if !ok {
		return nil, nil
	}
	live, err := c.provider.GetBroadcast(ctx, record.ID)
	if err != nil {
		return nil, fmt.Errorf("get broadcast: %w", err)
	}
	return live, nil
}
