package main

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dmaher/loanscope/internal/clientstore"
)

func (s *server) handleClientRecordsList(w http.ResponseWriter, r *http.Request) {
	scope := chi.URLParam(r, "scope")
	kind := clientstore.Kind(r.URL.Query().Get("kind"))

	records, err := s.clients.List(r.Context(), scope, kind)
	if err != nil {
		s.respondStoreError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, records)
}

// handleClientRecordPut upserts a record. POST /records assigns a fresh
// id; PUT /records/{id} targets an existing one.
func (s *server) handleClientRecordPut(w http.ResponseWriter, r *http.Request) {
	var rec clientstore.Record
	if err := json.NewDecoder(r.Body).Decode(&rec); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid record body")
		return
	}
	rec.Scope = chi.URLParam(r, "scope")
	if id := chi.URLParam(r, "id"); id != "" {
		rec.ID = id
	}

	saved, err := s.clients.Put(r.Context(), rec)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.respondJSON(w, http.StatusCreated, saved)
}

func (s *server) handleClientRecordGet(w http.ResponseWriter, r *http.Request) {
	rec, err := s.clients.Get(r.Context(), chi.URLParam(r, "scope"), chi.URLParam(r, "id"))
	if err != nil {
		s.respondStoreError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, rec)
}

func (s *server) handleClientRecordDelete(w http.ResponseWriter, r *http.Request) {
	if err := s.clients.Delete(r.Context(), chi.URLParam(r, "scope"), chi.URLParam(r, "id")); err != nil {
		s.respondStoreError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type moveRequest struct {
	To string `json:"to"`
}

type moveResponse struct {
	Moved int `json:"moved"`
}

// handleClientMove adopts one scope's records into another, typically an
// anonymous session being claimed by a client.
func (s *server) handleClientMove(w http.ResponseWriter, r *http.Request) {
	var req moveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid move body")
		return
	}

	moved, err := s.clients.MoveScope(r.Context(), chi.URLParam(r, "scope"), req.To)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, moveResponse{Moved: moved})
}
