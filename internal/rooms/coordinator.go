package rooms

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/antoniostano/roombridge/internal/platform"
)

// SessionProvider is the slice of the platform the coordinator needs.
type SessionProvider interface {
	CreateSession(ctx context.Context, opts platform.SessionOptions) (string, error)
	GenerateClientToken(sessionID string, opts platform.TokenOptions) (string, error)
}

// Credentials is what a client needs to join a session.
type Credentials struct {
	ApplicationID string `json:"applicationId"`
	SessionID     string `json:"sessionId"`
	Token         string `json:"token"`
}

// Coordinator owns session creation and token issuance. It is the only
// writer of the room registry.
type Coordinator struct {
	applicationID string
	registry      *Registry
	provider      SessionProvider
}

func NewCoordinator(applicationID string, registry *Registry, provider SessionProvider) *Coordinator {
	return &Coordinator{
		applicationID: applicationID,
		registry:      registry,
		provider:      provider,
	}
}

// GetOrCreate returns join credentials for a room, creating a platform
// session on first use. Session creation is idempotent per room; the
// token is freshly minted on every call. The reported bool is true when
// a new session was created.
//
// The absent-check and the bind straddle the platform call without a
// lock, so two concurrent first requests for one room can both create a
// session; the second bind wins and the first session is orphaned
// remotely. Known demo-scale limitation, kept as-is.
func (c *Coordinator) GetOrCreate(ctx context.Context, room string, opts platform.SessionOptions, role string) (Credentials, bool, error) {
	log.Debug().Str("room", room).Str("role", role).Msg("issuing credentials")

	if sessionID, ok := c.registry.SessionID(room); ok {
		token, err := c.provider.GenerateClientToken(sessionID, platform.TokenOptions{
			Role:                   role,
			InitialLayoutClassList: opts.InitialLayoutClassList,
		})
		if err != nil {
			return Credentials{}, false, fmt.Errorf("generate token: %w", err)
		}
		return Credentials{ApplicationID: c.applicationID, SessionID: sessionID, Token: token}, false, nil
	}

	sessionID, err := c.provider.CreateSession(ctx, opts)
	if err != nil {
		// No partial binding: the registry is untouched on failure.
		return Credentials{}, false, fmt.Errorf("create session: %w", err)
	}
	c.registry.Bind(room, sessionID)
	log.Info().Str("room", room).Str("sessionId", sessionID).Msg("session created")

	token, err := c.provider.GenerateClientToken(sessionID, platform.TokenOptions{
		Role:                   role,
		InitialLayoutClassList: opts.InitialLayoutClassList,
	})
	if err != nil {
		return Credentials{}, true, fmt.Errorf("generate token: %w", err)
	}
	return Credentials{ApplicationID: c.applicationID, SessionID: sessionID, Token: token}, true, nil
}
