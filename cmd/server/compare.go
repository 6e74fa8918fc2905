package main

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/dmaher/loanscope/internal/export"
	"github.com/dmaher/loanscope/internal/loan"
	"github.com/dmaher/loanscope/internal/scenario"
)

const compareCacheTTL = 5 * time.Minute

// handleCompare evaluates a comparison. Results are cached by request
// body hash; identical inputs are common while the user tweaks one
// program at a time.
func (s *server) handleCompare(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "failed to read request body")
		return
	}

	sum := sha256.Sum256(body)
	cacheKey := "compare:" + hex.EncodeToString(sum[:])
	if cached, ok := s.cache.Get(r.Context(), cacheKey); ok {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(cached))
		return
	}

	p, err := scenario.Decode(body)
	if err != nil {
		s.respondStoreError(w, err)
		return
	}

	cmp := loan.Compare(p.LoanData, p.Preferred())
	out, err := json.Marshal(cmp)
	if err != nil {
		s.respondStoreError(w, err)
		return
	}

	if err := s.cache.Set(r.Context(), cacheKey, string(out), compareCacheTTL); err != nil {
		s.log.WithError(err).Warn("failed to cache comparison")
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(out)
}

func (s *server) handleExport(w http.ResponseWriter, r *http.Request) {
	p, ok := s.readPayload(w, r)
	if !ok {
		return
	}

	cmp := loan.Compare(p.LoanData, p.Preferred())

	var (
		out         []byte
		err         error
		contentType string
		filename    string
	)
	switch format := chi.URLParam(r, "format"); format {
	case "csv":
		out, err = export.CSV(p.LoanData, cmp)
		contentType = "text/csv; charset=utf-8"
		filename = "comparison.csv"
	case "html":
		out, err = export.HTMLTable(p.LoanData, cmp)
		contentType = "text/html; charset=utf-8"
		filename = "comparison.html"
	case "eml":
		opts := export.EMLOptions{}
		if p.Name != "" {
			opts.Subject = "Loan comparison: " + p.Name
		}
		out, err = export.EML(p.LoanData, cmp, opts)
		contentType = "message/rfc822"
		filename = "comparison.eml"
	default:
		s.respondError(w, http.StatusBadRequest, "unknown export format "+format)
		return
	}
	if err != nil {
		s.respondStoreError(w, err)
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(out)
}
