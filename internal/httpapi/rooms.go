package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/antoniostano/roombridge/internal/platform"
)

func (s *Server) handleRoom(w http.ResponseWriter, r *http.Request) {
	s.issueCredentials(w, r, chi.URLParam(r, "name"), platform.SessionOptions{
		MediaMode: "routed",
	}, platform.RoleModerator)
}

// handleBroadcastCredentials hands out credentials for the room's
// broadcast companion session, named {room}-broadcast.
func (s *Server) handleBroadcastCredentials(role string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		roomName := chi.URLParam(r, "name") + "-broadcast"
		s.issueCredentials(w, r, roomName, platform.SessionOptions{
			MediaMode:              "routed",
			InitialLayoutClassList: []string{"full", "focus"},
		}, role)
	}
}

func (s *Server) issueCredentials(w http.ResponseWriter, r *http.Request, roomName string, opts platform.SessionOptions, role string) {
	creds, created, err := s.rooms.GetOrCreate(r.Context(), roomName, opts, role)
	if err != nil {
		s.respondOpError(w, "createSession", err)
		return
	}

	event := "reused"
	if created {
		event = "created"
	}
	s.metrics.SessionEvents.WithLabelValues(event).Inc()
	s.metrics.TokensIssued.WithLabelValues(role).Inc()
	s.metrics.ActiveRooms.Set(float64(s.roomRegistry.Len()))

	respondJSON(w, http.StatusOK, creds)
}
