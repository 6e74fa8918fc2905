package main

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dmaher/loanscope/internal/clientstore"
	"github.com/dmaher/loanscope/internal/scenario"
)

type errorResponse struct {
	Error        string `json:"error"`
	Field        string `json:"field,omitempty"`
	ProgramIndex *int   `json:"programIndex,omitempty"`
}

func (s *server) respondJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if body == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.log.WithError(err).Error("failed to encode response")
	}
}

func (s *server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, errorResponse{Error: message})
}

// respondStoreError maps store and codec failures onto API statuses so
// handlers stay a one-liner on the error path.
func (s *server) respondStoreError(w http.ResponseWriter, err error) {
	var decodeErr *scenario.DecodeError
	switch {
	case errors.As(err, &decodeErr):
		resp := errorResponse{Error: decodeErr.Error(), Field: decodeErr.Field}
		if decodeErr.Kind == scenario.InvalidProgram {
			idx := decodeErr.ProgramIndex
			resp.ProgramIndex = &idx
		}
		s.respondJSON(w, http.StatusBadRequest, resp)
	case errors.Is(err, scenario.ErrNotFound), errors.Is(err, clientstore.ErrNotFound):
		s.respondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, scenario.ErrNameTaken):
		s.respondError(w, http.StatusConflict, err.Error())
	case errors.Is(err, scenario.ErrEmptyName):
		s.respondError(w, http.StatusBadRequest, err.Error())
	default:
		s.log.WithError(err).Error("request failed")
		s.respondError(w, http.StatusInternalServerError, "internal error")
	}
}
