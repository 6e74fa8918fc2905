package main

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dmaher/loanscope/internal/scenario"
)

// readPayload funnels a request body through the scenario codec so every
// entry point gets identical validation and defaulting.
func (s *server) readPayload(w http.ResponseWriter, r *http.Request) (scenario.Payload, bool) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "failed to read request body")
		return scenario.Payload{}, false
	}

	p, err := scenario.Decode(body)
	if err != nil {
		s.respondStoreError(w, err)
		return scenario.Payload{}, false
	}
	return p, true
}

func (s *server) handleScenariosList(w http.ResponseWriter, r *http.Request) {
	scenarios, err := s.scenarios.List(r.Context())
	if err != nil {
		s.respondStoreError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, scenarios)
}

func (s *server) handleScenarioCreate(w http.ResponseWriter, r *http.Request) {
	p, ok := s.readPayload(w, r)
	if !ok {
		return
	}

	saved, err := s.scenarios.Create(r.Context(), p)
	if err != nil {
		s.respondStoreError(w, err)
		return
	}
	s.respondJSON(w, http.StatusCreated, saved)
}

func (s *server) handleScenarioGet(w http.ResponseWriter, r *http.Request) {
	saved, err := s.scenarios.Get(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		s.respondStoreError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, saved)
}

func (s *server) handleScenarioUpdate(w http.ResponseWriter, r *http.Request) {
	p, ok := s.readPayload(w, r)
	if !ok {
		return
	}

	saved, err := s.scenarios.Update(r.Context(), chi.URLParam(r, "name"), p)
	if err != nil {
		s.respondStoreError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, saved)
}

func (s *server) handleScenarioDelete(w http.ResponseWriter, r *http.Request) {
	if err := s.scenarios.Delete(r.Context(), chi.URLParam(r, "name")); err != nil {
		s.respondStoreError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *server) handleScenariosExport(w http.ResponseWriter, r *http.Request) {
	bundle, err := s.scenarios.ExportAll(r.Context())
	if err != nil {
		s.respondStoreError(w, err)
		return
	}
	w.Header().Set("Content-Disposition", `attachment; filename="scenarios.json"`)
	s.respondJSON(w, http.StatusOK, bundle)
}

// rawBundle defers per-scenario parsing to the codec so a bundle edited
// by hand still gets defaults and real error positions.
type rawBundle struct {
	Version   int               `json:"version"`
	Scenarios []json.RawMessage `json:"scenarios"`
}

type importResponse struct {
	Created int `json:"created"`
	Updated int `json:"updated"`
}

func (s *server) handleScenariosImport(w http.ResponseWriter, r *http.Request) {
	var raw rawBundle
	if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid bundle format")
		return
	}

	bundle := scenario.Bundle{Version: raw.Version}
	for _, entry := range raw.Scenarios {
		p, err := scenario.Decode(entry)
		if err != nil {
			s.respondStoreError(w, err)
			return
		}
		bundle.Scenarios = append(bundle.Scenarios, p)
	}

	created, updated, err := s.scenarios.Import(r.Context(), bundle)
	if err != nil {
		s.respondStoreError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, importResponse{Created: created, Updated: updated})
}

func (s *server) handleCurrentStateGet(w http.ResponseWriter, r *http.Request) {
	p, err := s.scenarios.CurrentState(r.Context())
	if err != nil {
		s.respondStoreError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, p)
}

func (s *server) handleCurrentStateSave(w http.ResponseWriter, r *http.Request) {
	p, ok := s.readPayload(w, r)
	if !ok {
		return
	}

	if err := s.scenarios.SaveCurrentState(r.Context(), p); err != nil {
		s.respondStoreError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
