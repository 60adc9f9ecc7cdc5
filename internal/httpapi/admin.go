package httpapi

import (
	"net/http"

	"github.com/rs/zerolog/log"
)

// handleClearConversations bulk-deletes every conversation object on the
// platform's management API: paged fetch, delete each. Administrative
// tooling, not part of the room state machine.
func (s *Server) handleClearConversations(w http.ResponseWriter, r *http.Request) {
	deleted := 0
	failed := 0
	cursor := ""
	for {
		page, err := s.conversations.ListConversations(r.Context(), cursor)
		if err != nil {
			s.respondOpError(w, "clearConversations", err)
			return
		}
		for _, conv := range page.Conversations {
			if err := s.conversations.DeleteConversation(r.Context(), conv.ID); err != nil {
				log.Warn().Str("conversationId", conv.ID).Err(err).Msg("conversation delete failed")
				failed++
				continue
			}
			deleted++
		}
		if page.NextCursor == "" {
			break
		}
		cursor = page.NextCursor
	}

	respondJSON(w, http.StatusOK, map[string]int{"deleted": deleted, "failed": failed})
}
