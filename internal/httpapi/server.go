package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/antoniostano/roombridge/internal/archive"
	"github.com/antoniostano/roombridge/internal/broadcast"
	"github.com/antoniostano/roombridge/internal/config"
	"github.com/antoniostano/roombridge/internal/observability"
	"github.com/antoniostano/roombridge/internal/platform"
	"github.com/antoniostano/roombridge/internal/rooms"
	"github.com/antoniostano/roombridge/internal/sipbridge"
)

// ConversationStore is the management-API slice used by the admin sweep.
type ConversationStore interface {
	ListConversations(ctx context.Context, cursor string) (platform.ConversationPage, error)
	DeleteConversation(ctx context.Context, conversationID string) error
}

type Server struct {
	cfg           config.Config
	rooms         *rooms.Coordinator
	roomRegistry  *rooms.Registry
	broadcasts    *broadcast.Coordinator
	archives      *archive.Coordinator
	sip           *sipbridge.Coordinator
	conversations ConversationStore
	metrics       *observability.Metrics
	validate      *validator.Validate
}

func New(cfg config.Config, roomRegistry *rooms.Registry, roomCoordinator *rooms.Coordinator, broadcasts *broadcast.Coordinator, archives *archive.Coordinator, sip *sipbridge.Coordinator, conversations ConversationStore, metrics *observability.Metrics) *Server {
	return &Server{
		cfg:           cfg,
		rooms:         roomCoordinator,
		roomRegistry:  roomRegistry,
		broadcasts:    broadcasts,
		archives:      archives,
		sip:           sip,
		conversations: conversations,
		metrics:       metrics,
		validate:      validator.New(),
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Get("/", s.handleIndex)
	r.Get("/_/health", s.handleHealth)
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		observability.MetricsHandler().ServeHTTP(w, r)
	})

	r.Get("/session", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/room/session", http.StatusFound)
	})
	r.Get("/room/{name}", s.handleRoom)

	r.Get("/broadcast/{name}/host", s.handleBroadcastCredentials(platform.RoleModerator))
	r.Get("/broadcast/{name}/viewer", s.handleBroadcastCredentials(platform.RoleSubscriber))
	r.Get("/broadcast/{name}/guest", s.handleBroadcastCredentials(platform.RoleSubscriber))
	r.Post("/broadcast/{room}/start", s.handleStartBroadcast)
	r.Post("/broadcast/{room}/stop", s.handleStopBroadcast)
	r.Post("/broadcast/{room}/status", s.handleBroadcastStatus)

	r.Post("/archive/start", s.handleStartArchive)
	r.Post("/archive/{archiveId}/stop", s.handleStopArchive)
	r.Get("/archive/{archiveId}/view", s.handleViewArchive)
	r.Get("/archive/{archiveId}", s.handleGetArchive)
	r.Get("/archive", s.handleListArchives)

	r.Get("/sip/vapi/answer", s.handleVapiAnswer)
	r.HandleFunc("/sip/vapi/events", s.handleVapiEvents)
	r.Get("/sip/{room}", s.handleSipRoom)
	r.Post("/sip/{room}/dial", s.handleSipDial)
	r.Post("/sip/{room}/hangup", s.handleSipHangup)

	r.HandleFunc("/admin/clear-conversations", s.handleClearConversations)

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "OK"})
}

var errEmptyBody = errors.New("empty body")

func decodeJSON(r *http.Request, out any) error {
	if r.Body == nil {
		return errEmptyBody
	}
	defer r.Body.Close()
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(out); err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "eof") {
			return errEmptyBody
		}
		return err
	}
	return nil
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// respondOpError renders an upstream failure the way the original server
// did: 500 with the operation name as context.
func (s *Server) respondOpError(w http.ResponseWriter, operation string, err error) {
	s.metrics.PlatformErrors.WithLabelValues(operation).Inc()
	respondError(w, http.StatusInternalServerError, operation+" error:"+err.Error())
}

// respondRoomNotFound is the one 404 shape in the API, used by the SIP
// endpoints only.
func respondRoomNotFound(w http.ResponseWriter, room string) {
	respondJSON(w, http.StatusNotFound, map[string]string{
		"title":   "Room not found",
		"details": "no session exists for room " + room,
	})
}
