package httpapi

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/antoniostano/roombridge/internal/sipbridge"
)

type dialRequest struct {
	MSISDN string `json:"msisdn" validate:"omitempty,e164"`
}

func (s *Server) handleSipRoom(w http.ResponseWriter, r *http.Request) {
	room := chi.URLParam(r, "room")
	conv, err := s.sip.EnsureConversation(room)
	if err != nil {
		if errors.Is(err, sipbridge.ErrRoomNotFound) {
			respondRoomNotFound(w, room)
			return
		}
		s.respondOpError(w, "sip", err)
		return
	}
	s.metrics.SIPCallEvents.WithLabelValues("provisioned").Inc()
	respondJSON(w, http.StatusOK, conv)
}

func (s *Server) handleSipDial(w http.ResponseWriter, r *http.Request) {
	room := chi.URLParam(r, "room")

	var req dialRequest
	if err := decodeJSON(r, &req); err != nil && !errors.Is(err, errEmptyBody) {
		respondError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if err := s.validate.Struct(req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid msisdn: "+err.Error())
		return
	}

	call, err := s.sip.Dial(r.Context(), room, req.MSISDN)
	if err != nil {
		if errors.Is(err, sipbridge.ErrRoomNotFound) {
			respondRoomNotFound(w, room)
			return
		}
		s.respondOpError(w, "sipDial", err)
		return
	}
	s.metrics.SIPCallEvents.WithLabelValues("dialed").Inc()
	respondJSON(w, http.StatusOK, call)
}

func (s *Server) handleSipHangup(w http.ResponseWriter, r *http.Request) {
	room := chi.URLParam(r, "room")
	if err := s.sip.Hangup(r.Context(), room); err != nil {
		if errors.Is(err, sipbridge.ErrRoomNotFound) {
			respondRoomNotFound(w, room)
			return
		}
		s.respondOpError(w, "sipHangup", err)
		return
	}
	s.metrics.SIPCallEvents.WithLabelValues("hangup").Inc()
	respondJSON(w, http.StatusOK, map[string]string{"status": "OK"})
}

// handleVapiAnswer serves the call-control script for an inbound
// telephony leg. Query-parameter driven: room, from, to.
func (s *Server) handleVapiAnswer(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	room := q.Get("room")
	actions, err := s.sip.DescribeInboundRouting(room, q.Get("from"), q.Get("to"))
	if err != nil {
		if errors.Is(err, sipbridge.ErrRoomNotFound) {
			respondRoomNotFound(w, room)
			return
		}
		s.respondOpError(w, "answer", err)
		return
	}
	respondJSON(w, http.StatusOK, actions)
}

// handleVapiEvents receives telephony status callbacks; completion events
// hang up the room's bridge leg.
func (s *Server) handleVapiEvents(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	status := q.Get("status")
	if err := s.sip.OnCallEvent(r.Context(), status, q.Get("room")); err != nil {
		s.respondOpError(w, "event", err)
		return
	}
	if status == "completed" {
		s.metrics.SIPCallEvents.WithLabelValues("completed").Inc()
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "OK"})
}
