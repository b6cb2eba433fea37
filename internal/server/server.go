// Package server exposes the tour optimization engine over HTTP.
package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/morgankhalil/venueconnect/internal/cache"
	"github.com/morgankhalil/venueconnect/internal/config"
	"github.com/morgankhalil/venueconnect/internal/logging"
	"github.com/morgankhalil/venueconnect/internal/optimizer"
	"github.com/morgankhalil/venueconnect/internal/store"
	"github.com/morgankhalil/venueconnect/internal/tour"
)

// Logger defines the logging interface used by the server.
// This allows us to be flexible with our logging implementation.
type Logger interface {
	Debug(msg string, fields ...map[string]interface{})
	Info(msg string, fields ...map[string]interface{})
	Warn(msg string, fields ...map[string]interface{})
	Error(msg string, fields ...map[string]interface{})
	Fatal(msg string, fields ...map[string]interface{})
	WithFields(fields map[string]interface{}) *logging.Logger
}

// Server wires the orchestrator, apply engine and stop store behind the
// two public operations: optimize and apply.
type Server struct {
	cfg     *config.Config
	logger  Logger
	store   store.Store
	orch    *optimizer.Orchestrator
	applier *optimizer.Applier
	results *cache.ResultCache // nil when caching is disabled
}

// NewServer creates a server instance. The cache may be nil.
func NewServer(cfg *config.Config, logger Logger, st store.Store, orch *optimizer.Orchestrator, applier *optimizer.Applier, results *cache.ResultCache) *Server {
	return &Server{
		cfg:     cfg,
		logger:  logger,
		store:   st,
		orch:    orch,
		applier: applier,
		results: results,
	}
}

// RegisterRoutes mounts the API under /api/v1.
func (s *Server) RegisterRoutes(r chi.Router) {
	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/optimize/{tourID}", s.handleOptimize)
		r.Post("/apply/{tourID}", s.handleApply)
	})
}

// optimizeRequest is the POST /optimize/{tourID} body. All fields are
// optional; the method defaults to auto.
type optimizeRequest struct {
	Method string `json:"method,omitempty"`
	optimizer.Options
}

type optimizeResponse struct {
	TourData           *tour.Snapshot `json:"tourData"`
	OptimizationResult *tour.Result   `json:"optimizationResult"`
}

func (s *Server) handleOptimize(w http.ResponseWriter, r *http.Request) {
	tourID, err := strconv.ParseInt(chi.URLParam(r, "tourID"), 10, 64)
	if err != nil || tourID <= 0 {
		s.respondError(w, http.StatusBadRequest, "invalid tour id")
		return
	}

	// An empty body is a valid request with all defaults.
	var req optimizeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		s.respondError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	method, ok := parseMethod(req.Method)
	if !ok {
		s.respondError(w, http.StatusBadRequest, "method must be standard, ai or auto")
		return
	}

	// Requests that omit the spacing constraints inherit the server
	// configuration; explicit values always win.
	if req.Options.MinDaysBetweenShows <= 0 {
		req.Options.MinDaysBetweenShows = s.cfg.Optimization.MinDaysBetweenShows
	}
	if req.Options.MaxDaysBetweenShows <= 0 {
		req.Options.MaxDaysBetweenShows = s.cfg.Optimization.MaxDaysBetweenShows
	}

	snap, err := store.BuildSnapshot(r.Context(), s.store, tourID)
	if err != nil {
		s.logger.Error("snapshot construction failed", map[string]interface{}{
			"tour_id": tourID,
			"error":   err.Error(),
		})
		s.respondError(w, http.StatusInternalServerError, "failed to load tour data")
		return
	}

	// The AI path is non-deterministic, so only deterministic-capable
	// requests consult the cache.
	cacheKey := ""
	if s.results != nil && method == optimizer.MethodStandard {
		cacheKey = cache.Key(tourID, cache.Digest(req))
		if cached, hit := s.results.Get(r.Context(), cacheKey); hit {
			s.respondJSON(w, http.StatusOK, optimizeResponse{TourData: snap, OptimizationResult: cached})
			return
		}
	}

	result := s.orch.Optimize(r.Context(), snap, req.Options, method)
	if cacheKey != "" {
		s.results.Set(r.Context(), cacheKey, result)
	}

	logging.FromContext(r.Context()).Info("optimization completed", map[string]interface{}{
		"tour_id":  tourID,
		"method":   result.Method,
		"degraded": result.Degraded,
		"stops":    len(result.Sequence),
	})

	s.respondJSON(w, http.StatusOK, optimizeResponse{TourData: snap, OptimizationResult: result})
}

type applyRequest struct {
	OptimizedSequence []int64            `json:"optimizedSequence"`
	SuggestedDates    map[int64]tour.Day `json:"suggestedDates,omitempty"`
}

type applyResponse struct {
	Success bool                    `json:"success"`
	Metrics *optimizer.ApplyMetrics `json:"metrics"`
}

func (s *Server) handleApply(w http.ResponseWriter, r *http.Request) {
	tourID, err := strconv.ParseInt(chi.URLParam(r, "tourID"), 10, 64)
	if err != nil || tourID <= 0 {
		s.respondError(w, http.StatusBadRequest, "invalid tour id")
		return
	}

	var req applyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if len(req.OptimizedSequence) == 0 {
		s.respondError(w, http.StatusBadRequest, "optimizedSequence is required")
		return
	}

	metrics, err := s.applier.Apply(r.Context(), tourID, optimizer.ApplyInput{
		Sequence:       req.OptimizedSequence,
		SuggestedDates: req.SuggestedDates,
	})
	if err != nil {
		s.logger.Error("apply failed", map[string]interface{}{
			"tour_id": tourID,
			"error":   err.Error(),
		})
		s.respondError(w, http.StatusInternalServerError, "failed to apply optimization")
		return
	}

	logging.FromContext(r.Context()).Info("optimization applied", map[string]interface{}{
		"tour_id": tourID,
		"updated": metrics.UpdatedStops,
		"skipped": metrics.SkippedRefs,
	})

	s.respondJSON(w, http.StatusOK, applyResponse{Success: true, Metrics: metrics})
}

func parseMethod(m string) (optimizer.Method, bool) {
	switch optimizer.Method(m) {
	case "":
		return optimizer.MethodAuto, true
	case optimizer.MethodStandard, optimizer.MethodAI, optimizer.MethodAuto:
		return optimizer.Method(m), true
	default:
		return "", false
	}
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.logger.Error("response encoding failed", map[string]interface{}{"error": err.Error()})
	}
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.logger.Warn("request rejected", map[string]interface{}{
		"status":  status,
		"message": message,
	})
	s.respondJSON(w, status, map[string]string{"error": message})
}
