package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/syrja/rendezvous/internal/domain"
)

const maxInviteBodyBytes = 64 * 1024

func (s *Server) router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Get("/v1/ws", s.handleWS)
	r.Post("/v1/invites", s.handleCreateInvite)
	r.Get("/v1/invites/{id}", s.handleResolveInvite)

	return r
}

func (s *Server) handleCreateInvite(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateInviteRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxInviteBodyBytes)).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, domain.ErrorResponse{Error: "invalid json"})
		return
	}
	if strings.TrimSpace(req.FullInviteCode) == "" {
		writeJSON(w, http.StatusBadRequest, domain.ErrorResponse{Error: "missing fullInviteCode"})
		return
	}

	shortID, err := s.dir.Create(r.Context(), req.FullInviteCode)
	if err != nil {
		s.log.Error("invite create failed", "err", err)
		writeJSON(w, http.StatusInternalServerError, domain.ErrorResponse{Error: "internal error"})
		return
	}
	writeJSON(w, http.StatusCreated, domain.CreateInviteResponse{ShortID: shortID})
}

func (s *Server) handleResolveInvite(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(chi.URLParam(r, "id"))
	code, err := s.dir.Resolve(r.Context(), id)
	if errors.Is(err, domain.ErrLinkNotFound) {
		writeJSON(w, http.StatusNotFound, domain.ErrorResponse{Error: "not found"})
		return
	}
	if err != nil {
		s.log.Error("invite resolve failed", "short_id", id, "err", err)
		writeJSON(w, http.StatusInternalServerError, domain.ErrorResponse{Error: "internal error"})
		return
	}
	writeJSON(w, http.StatusOK, domain.ResolveInviteResponse{FullInviteCode: code})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(data)
	_, _ = w.Write([]byte("\n"))
}
