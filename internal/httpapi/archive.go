package httpapi

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/antoniostano/roombridge/internal/platform"
)

func (s *Server) handleStartArchive(w http.ResponseWriter, r *http.Request) {
	var req sessionIDRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if err := s.validate.Struct(req); err != nil {
		respondError(w, http.StatusBadRequest, "sessionId is required: "+err.Error())
		return
	}

	started, err := s.archives.Start(r.Context(), req.SessionID)
	if err != nil {
		s.respondOpError(w, "startArchive", err)
		return
	}
	respondJSON(w, http.StatusOK, started)
}

func (s *Server) handleStopArchive(w http.ResponseWriter, r *http.Request) {
	stopped, err := s.archives.Stop(r.Context(), chi.URLParam(r, "archiveId"))
	if err != nil {
		s.respondOpError(w, "stopArchive", err)
		return
	}
	respondJSON(w, http.StatusOK, stopped)
}

func (s *Server) handleGetArchive(w http.ResponseWriter, r *http.Request) {
	a, err := s.archives.Get(r.Context(), chi.URLParam(r, "archiveId"))
	if err != nil {
		s.respondOpError(w, "getArchive", err)
		return
	}
	respondJSON(w, http.StatusOK, a)
}

// handleViewArchive redirects to the recording when it is ready and
// renders a pending page otherwise.
func (s *Server) handleViewArchive(w http.ResponseWriter, r *http.Request) {
	a, err := s.archives.Get(r.Context(), chi.URLParam(r, "archiveId"))
	if err != nil {
		s.respondOpError(w, "viewArchive", err)
		return
	}
	if a.Status == "available" && a.URL != "" {
		http.Redirect(w, r, a.URL, http.StatusFound)
		return
	}
	s.servePage(w, "archive-pending.html")
}

func (s *Server) handleListArchives(w http.ResponseWriter, r *http.Request) {
	var filter platform.ArchiveFilter
	q := r.URL.Query()
	if raw := q.Get("count"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			respondError(w, http.StatusBadRequest, "count must be a non-negative integer")
			return
		}
		filter.Count = n
	}
	if raw := q.Get("offset"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			respondError(w, http.StatusBadRequest, "offset must be a non-negative integer")
			return
		}
		filter.Offset = n
	}
	filter.SessionID = q.Get("sessionId")

	archives, err := s.archives.List(r.Context(), filter)
	if err != nil {
		s.respondOpError(w, "listArchives", err)
		return
	}
	respondJSON(w, http.StatusOK, archives)
}
