// Package server exposes the pipeline operations over a small ops HTTP API
// for scheduled-job triggers and operator inspection. It renders no pages;
// storefront serving lives elsewhere and re-validates deals through the
// public-eligibility predicate.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/bradjohnson79/trendsinusa-sub002/internal/domain"
	"github.com/bradjohnson79/trendsinusa-sub002/internal/ports"
	"github.com/bradjohnson79/trendsinusa-sub002/internal/usecase"
)

// Server wires the ops endpoints onto a mux router.
type Server struct {
	pipeline *usecase.Pipeline
	router   *usecase.SiteRouter
	sweep    *usecase.ExpirySweep
	public   *usecase.PublicDeals
	runs     ports.RunStore
	siteSrc  ports.SiteSource
	bindings []usecase.SourceBinding
	logger   *slog.Logger
}

// New builds the ops server.
func New(pipeline *usecase.Pipeline, siteRouter *usecase.SiteRouter, sweep *usecase.ExpirySweep,
	public *usecase.PublicDeals, runs ports.RunStore, siteSrc ports.SiteSource,
	bindings []usecase.SourceBinding, logger *slog.Logger) *Server {
	return &Server{
		pipeline: pipeline,
		router:   siteRouter,
		sweep:    sweep,
		public:   public,
		runs:     runs,
		siteSrc:  siteSrc,
		bindings: bindings,
		logger:   logger,
	}
}

// Handler returns the routed HTTP handler.
func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()
	api := r.PathPrefix("/api").Subrouter()

	api.HandleFunc("/ingest/{source}", s.handleIngest).Methods(http.MethodPost)
	api.HandleFunc("/retag", s.handleRetag).Methods(http.MethodPost)
	api.HandleFunc("/sweep", s.handleSweep).Methods(http.MethodPost)
	api.HandleFunc("/sites/invalidate", s.handleInvalidate).Methods(http.MethodPost)
	api.HandleFunc("/sites/{site}/deals", s.handlePublicDeals).Methods(http.MethodGet)
	api.HandleFunc("/runs", s.handleRuns).Methods(http.MethodGet)
	r.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)

	return r
}

func (s *Server) handleIngest(w http.ResponseWriter, r *http.Request) {
	source := mux.Vars(r)["source"]

	siteKey, ok := s.siteKeyFor(source)
	if !ok {
		s.writeError(w, http.StatusNotFound, "unknown source")
		return
	}

	run, err := s.pipeline.RunIngestion(r.Context(), source, siteKey)
	switch {
	case err == nil:
		s.writeJSON(w, http.StatusOK, run)
	case errors.Is(err, domain.ErrRunInProgress):
		s.writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, domain.ErrUpstreamFetch):
		s.writeError(w, http.StatusBadGateway, err.Error())
	default:
		s.logError("ingest failed", "source", source, "error", err)
		s.writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func (s *Server) handleRetag(w http.ResponseWriter, r *http.Request) {
	result, err := s.router.RecomputeProductSiteTags(r.Context())
	if err != nil {
		s.logError("retag failed", "error", err)
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleSweep(w http.ResponseWriter, r *http.Request) {
	result, err := s.sweep.Run(r.Context())
	if err != nil {
		s.logError("sweep failed", "error", err)
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleInvalidate(w http.ResponseWriter, r *http.Request) {
	if err := s.siteSrc.Invalidate(r.Context()); err != nil {
		s.logError("site cache invalidation failed", "error", err)
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handlePublicDeals(w http.ResponseWriter, r *http.Request) {
	siteKey := mux.Vars(r)["site"]
	deals, err := s.public.ListForSite(r.Context(), siteKey)
	if err != nil {
		s.logError("list public deals failed", "site", siteKey, "error", err)
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, deals)
}

func (s *Server) handleRuns(w http.ResponseWriter, r *http.Request) {
	runs, err := s.runs.ListRecent(r.Context(), 50)
	if err != nil {
		s.logError("list runs failed", "error", err)
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, runs)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) siteKeyFor(source string) (string, bool) {
	for _, b := range s.bindings {
		if b.Source == source {
			return b.SiteKey, true
		}
	}
	return "", false
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logError("encode response", "error", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{"error": message})
}

func (s *Server) logError(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Error(msg, args...)
	}
}

// ListenAndServe runs the ops API until the context is canceled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{Addr: addr, Handler: s.Handler()}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
