package httpapi

import (
	"net/http"

	"github.com/antoniostano/roombridge/internal/platform"
)

type rtmpTarget struct {
	ID         string `json:"id"`
	ServerURL  string `json:"serverUrl" validate:"required,url"`
	StreamName string `json:"streamName" validate:"required"`
}

type startBroadcastRequest struct {
	SessionID  string       `json:"sessionId" validate:"required"`
	RTMP       []rtmpTarget `json:"rtmp" validate:"omitempty,dive"`
	LowLatency bool         `json:"lowLatency"`
	FHD        bool         `json:"fhd"`
	DVR        bool         `json:"dvr"`
	StreamMode string       `json:"streamMode" validate:"omitempty,oneof=auto manual"`
}

type sessionIDRequest struct {
	SessionID string `json:"sessionId" validate:"required"`
}

func (s *Server) handleStartBroadcast(w http.ResponseWriter, r *http.Request) {
	var req startBroadcastRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if err := s.validate.Struct(req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid broadcast options: "+err.Error())
		return
	}

	opts := platform.BroadcastOptions{
		LowLatency: req.LowLatency,
		FHD:        req.FHD,
		DVR:        req.DVR,
		StreamMode: req.StreamMode,
	}
	for _, target := range req.RTMP {
		opts.RTMP = append(opts.RTMP, platform.RTMPTarget{
			ID:         target.ID,
			ServerURL:  target.ServerURL,
			StreamName: target.StreamName,
		})
	}

	started, err := s.broadcasts.Start(r.Context(), req.SessionID, opts)
	if err != nil {
		s.respondOpError(w, "startBroadcast", err)
		return
	}
	respondJSON(w, http.StatusOK, started)
}

func (s *Server) handleStopBroadcast(w http.ResponseWriter, r *http.Request) {
	var req sessionIDRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if err := s.validate.Struct(req); err != nil {
		respondError(w, http.StatusBadRequest, "sessionId is required: "+err.Error())
		return
	}

	stopped, err := s.broadcasts.Stop(r.Context(), req.SessionID)
	if err != nil {
		s.respondOpError(w, "stopBroadcast", err)
		return
	}
	if stopped == nil {
		// Nothing tracked for the session; the caller gets an empty 200,
		// same as the original behavior.
		respondJSON(w, http.StatusOK, struct{}{})
		return
	}
	respondJSON(w, http.StatusOK, stopped)
}

func (s *Server) handleBroadcastStatus(w http.ResponseWriter, r *http.Request) {
	var req sessionIDRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if err := s.validate.Struct(req); err != nil {
		respondError(w, http.StatusBadRequest, "sessionId is required: "+err.Error())
		return
	}

	live, err := s.broadcasts.Status(r.Context(), req.SessionID)
	if err != nil {
		s.respondOpError(w, "getBroadcast", err)
		return
	}
	if live == nil {
		respondJSON(w, http.StatusOK, struct{}{})
		return
	}
	respondJSON(w, http.StatusOK, live)
}
