// Package server exposes the pipeline's invocation surface: one endpoint per
// unit of work (ingestion, cleaning, matching) plus a health probe. Handlers
// stay thin; the use cases own all behavior.
package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/advanceai-medora/Medora-AI-sub000/internal/usecase"
)

// Server routes job and matching requests to the pipeline use cases.
type Server struct {
	ingestor  *usecase.Ingestor
	cleaner   *usecase.Cleaner
	matcher   *usecase.Matcher
	cleanOpts usecase.CleanOptions
	logger    *slog.Logger
}

// New wires the use cases into a server.
func New(ingestor *usecase.Ingestor, cleaner *usecase.Cleaner, matcher *usecase.Matcher, cleanOpts usecase.CleanOptions, logger *slog.Logger) *Server {
	return &Server{ingestor: ingestor, cleaner: cleaner, matcher: matcher, cleanOpts: cleanOpts, logger: logger}
}

// Handler builds the chi router.
func (s *Server) Handler(requestTimeout time.Duration) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(requestTimeout))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "healthy", "service": "refengine"})
	})

	r.Post("/jobs/ingest", s.handleIngest)
	r.Post("/jobs/clean", s.handleClean)
	r.Post("/insights", s.handleMatch)

	return r
}

func (s *Server) handleIngest(w http.ResponseWriter, r *http.Request) {
	report, err := s.ingestor.Run(r.Context())
	if err != nil {
		s.logger.Error("ingestion job failed", "error", err)
		writeError(w, http.StatusInternalServerError, "ingestion failed")
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (s *Server) handleClean(w http.ResponseWriter, r *http.Request) {
	opts := s.cleanOpts
	if r.ContentLength > 0 {
		var body struct {
			YearCutoff int `json:"year_cutoff"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if body.YearCutoff > 0 {
			opts.YearCutoff = body.YearCutoff
		}
	}

	report, err := s.cleaner.Run(r.Context(), opts)
	if err != nil {
		s.logger.Error("cleaning job failed", "error", err)
		writeError(w, http.StatusInternalServerError, "cleaning failed")
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (s *Server) handleMatch(w http.ResponseWriter, r *http.Request) {
	var req usecase.MatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	resp, err := s.matcher.Match(r.Context(), req)
	if err != nil {
		if errors.Is(err, usecase.ErrMissingFields) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		s.logger.Error("matching request failed", "error", err)
		writeError(w, http.StatusInternalServerError, "matching failed")
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
