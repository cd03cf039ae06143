// Package server exposes the scheduling engine over a JSON HTTP API.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/Gandasoft/polylearner/internal/config"
	"github.com/Gandasoft/polylearner/internal/embedding"
	"github.com/Gandasoft/polylearner/internal/logging"
	"github.com/Gandasoft/polylearner/internal/planner"
	"github.com/Gandasoft/polylearner/internal/recommend"
	"github.com/Gandasoft/polylearner/internal/service"
)

// Server wraps the engine behind net/http.
type Server struct {
	engine *service.Engine
	http   *http.Server
}

// New builds a Server listening on the configured address.
func New(cfg config.ServerConfig, engine *service.Engine) *Server {
	s := &Server{engine: engine}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /schedule", s.handleSchedule)
	mux.HandleFunc("POST /groups", s.handleGroups)
	mux.HandleFunc("POST /evaluate", s.handleEvaluate)
	mux.HandleFunc("POST /embeddings", s.handleEmbeddings)
	mux.HandleFunc("POST /recommendations", s.handleRecommendations)
	mux.HandleFunc("POST /analyze", s.handleAnalyze)
	mux.HandleFunc("POST /calendar/sync", s.handleCalendarSync)
	mux.HandleFunc("GET /healthz", s.handleHealth)

	addr := cfg.Addr
	if addr == "" {
		addr = ":8090"
	}
	s.http = &http.Server{
		Addr:         addr,
		Handler:      requestID(mux),
		ReadTimeout:  serverDuration(cfg.ReadTimeout, 30*time.Second),
		WriteTimeout: serverDuration(cfg.WriteTimeout, 120*time.Second),
	}
	return s
}

// Addr returns the listen address.
func (s *Server) Addr() string { return s.http.Addr }

// ListenAndServe blocks until the server stops.
func (s *Server) ListenAndServe() error {
	logging.Server("Listening on %s", s.http.Addr)
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

// Handler exposes the routing stack for tests.
func (s *Server) Handler() http.Handler { return s.http.Handler }

func serverDuration(v string, fallback time.Duration) time.Duration {
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}

// requestID tags every request with a correlation id for log tracing.
func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)
		log := logging.WithRequestID(logging.CategoryServer, id)
		log.Debug("%s %s", r.Method, r.URL.Path)
		next.ServeHTTP(w, r)
	})
}

// =============================================================================
// REQUEST / RESPONSE TYPES
// =============================================================================

type tasksRequest struct {
	Tasks []planner.Task `json:"tasks"`
}

type scheduleRequest struct {
	Tasks      []planner.Task           `json:"tasks"`
	Scheduling *config.SchedulingConfig `json:"scheduling,omitempty"`
}

type blocksRequest struct {
	Blocks []planner.Block `json:"blocks"`
}

type recommendRequest struct {
	Tasks      []planner.Task           `json:"tasks"`
	Result     *planner.Result          `json:"result,omitempty"`
	Scheduling *config.SchedulingConfig `json:"scheduling,omitempty"`
}

type syncRequest struct {
	Schedule planner.WeekSchedule `json:"schedule"`
}

type embeddingsResponse struct {
	Embeddings []embedding.Vector `json:"embeddings"`
	Dimensions int                `json:"dimensions"`
}

type recommendationsResponse struct {
	Recommendations []recommend.Recommendation `json:"recommendations"`
}

type errorResponse struct {
	Error string   `json:"error"`
	Cycle []string `json:"cycle,omitempty"`
}

// =============================================================================
// HANDLERS
// =============================================================================

func (s *Server) handleSchedule(w http.ResponseWriter, r *http.Request) {
	var req scheduleRequest
	if !decode(w, r, &req) {
		return
	}
	plan, err := s.engine.PlanWeek(r.Context(), req.Tasks, req.Scheduling)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, plan)
}

func (s *Server) handleGroups(w http.ResponseWriter, r *http.Request) {
	var req tasksRequest
	if !decode(w, r, &req) {
		return
	}
	groups := s.engine.GroupTasks(r.Context(), req.Tasks)
	writeJSON(w, http.StatusOK, map[string]any{"groups": groups})
}

func (s *Server) handleEvaluate(w http.ResponseWriter, r *http.Request) {
	var req blocksRequest
	if !decode(w, r, &req) {
		return
	}
	metrics := s.engine.Evaluate(req.Blocks)
	writeJSON(w, http.StatusOK, metrics)
}

func (s *Server) handleEmbeddings(w http.ResponseWriter, r *http.Request) {
	var req tasksRequest
	if !decode(w, r, &req) {
		return
	}
	vectors := s.engine.Embed(r.Context(), req.Tasks)
	writeJSON(w, http.StatusOK, embeddingsResponse{
		Embeddings: vectors,
		Dimensions: embedding.Dimensions,
	})
}

func (s *Server) handleRecommendations(w http.ResponseWriter, r *http.Request) {
	var req recommendRequest
	if !decode(w, r, &req) {
		return
	}
	result := req.Result
	if result == nil {
		computed, err := s.engine.ComputeSchedule(r.Context(), req.Tasks, req.Scheduling)
		if err != nil {
			writeError(w, err)
			return
		}
		result = computed
	}
	recs := s.engine.Recommend(r.Context(), result, req.Tasks)
	writeJSON(w, http.StatusOK, recommendationsResponse{Recommendations: recs})
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req tasksRequest
	if !decode(w, r, &req) {
		return
	}
	writeJSON(w, http.StatusOK, s.engine.AnalyzeTasks(r.Context(), req.Tasks))
}

func (s *Server) handleCalendarSync(w http.ResponseWriter, r *http.Request) {
	var req syncRequest
	if !decode(w, r, &req) {
		return
	}
	results, err := s.engine.SyncCalendar(r.Context(), req.Schedule)
	if err != nil {
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"results": results})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// =============================================================================
// ENCODING HELPERS
// =============================================================================

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: fmt.Sprintf("invalid request body: %v", err)})
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.ServerError("Failed to encode response: %v", err)
	}
}

// writeError maps engine errors onto HTTP statuses. Validation and
// cycle failures are the caller's fault; everything else is ours.
func writeError(w http.ResponseWriter, err error) {
	var validationErr *planner.ValidationError
	if errors.As(err, &validationErr) {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: validationErr.Error()})
		return
	}
	var cycleErr *planner.DependencyCycleError
	if errors.As(err, &cycleErr) {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: cycleErr.Error(), Cycle: cycleErr.Cycle})
		return
	}
	logging.ServerError("Request failed: %v", err)
	writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
}
