package httpapi

import (
	"embed"
	"net/http"
)

//go:embed static/*
var embeddedPages embed.FS

func (s *Server) handleIndex(w http.ResponseWriter, _ *http.Request) {
	s.servePage(w, "index.html")
}

func (s *Server) servePage(w http.ResponseWriter, name string) {
	page, err := embeddedPages.ReadFile("static/" + name)
	if err != nil {
		http.Error(w, "page not found", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(page)
}
