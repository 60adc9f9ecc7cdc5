// Package archive drives session recordings. Archives are never cached
// locally; every operation passes through to the platform and is
// addressed by the vendor-issued archive id.
package archive

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/antoniostano/roombridge/internal/platform"
)

// Provider is the slice of the platform the coordinator needs.
type Provider interface {
	StartArchive(ctx context.Context, sessionID, name string) (*platform.Archive, error)
	StopArchive(ctx context.Context, archiveID string) (*platform.Archive, error)
	GetArchive(ctx context.Context, archiveID string) (*platform.Archive, error)
	ListArchives(ctx context.Context, filter platform.ArchiveFilter) (*platform.ArchiveList, error)
}

// RoomLookup resolves a session id back to its room name for archive
// naming. The lookup can miss (session created before a restart); the
// archive is then started unnamed.
type RoomLookup interface {
	RoomOf(sessionID string) (string, bool)
}

type Coordinator struct {
	rooms    RoomLookup
	provider Provider
}

func NewCoordinator(rooms RoomLookup, provider Provider) *Coordinator {
	return &Coordinator{rooms: rooms, provider: provider}
}

// Start begins recording the session, named after its room when known.
func (c *Coordinator) Start(ctx context.Context, sessionID string) (*platform.Archive, error) {
	name, _ := c.rooms.RoomOf(sessionID)
	a, err := c.provider.StartArchive(ctx, sessionID, name)
	if err != nil {
		return nil, fmt.Errorf("start archive: %w", err)
	}
	log.Info().Str("sessionId", sessionID).Str("archiveId", a.ID).Msg("archive started")
	return a, nil
}

func (c *Coordinator) Stop(ctx context.Context, archiveID string) (*platform.Archive, error) {
	a, err := c.provider.StopArchive(ctx, archiveID)
	if err != nil {
		return nil, fmt.Errorf("stop archive: %w", err)
	}
	return a, nil
}

func (c *Coordinator) Get(ctx context.Context, archiveID string) (*platform.Archive, error) {
	a, err := c.provider.GetArchive(ctx, archiveID)
	if err != nil {
		return nil, fmt.Errorf("get archive: %w", err)
	}
	return a, nil
}

// List forwards the filter verbatim; unset fields stay unset.
func (c *Coordinator) List(ctx context.Context, filter platform.ArchiveFilter) (*platform.ArchiveList, error) {
	archives, err := c.provider.ListArchives(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list archives: %w", err)
	}
	return archives, nil
}
