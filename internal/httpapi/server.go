// Package httpapi exposes plan generation over HTTP.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"care-meal-planner/internal/app"
	"care-meal-planner/internal/metrics"
	"care-meal-planner/internal/patient"
	"care-meal-planner/internal/planner"
	"care-meal-planner/internal/ratelimit"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

const (
	maxBodyBytes = 64 << 10
	// maxTimeout caps a per-request model timeout.
	maxTimeout = 10 * time.Minute
)

// PlanGenerator runs one generation.
type PlanGenerator interface {
	GenerateForPatient(ctx context.Context, req app.GenerateRequest) (*app.GenerateResponse, error)
}

// PlanLister returns stored plans for a patient.
type PlanLister interface {
	ListRecentByPatient(ctx context.Context, patientID string, limit int) ([]planner.StoredPlan, error)
}

// ProgressReader returns the caller's latest generation stage.
type ProgressReader interface {
	Get(ctx context.Context, userID string) (planner.Stage, bool, error)
}

// HealthChecker reports process health.
type HealthChecker interface {
	Check(ctx context.Context) metrics.SysHealth
}

// Config holds the server's collaborators. Plans, Progress, Health and
// Metrics are optional; their routes answer 404 when unset.
type Config struct {
	Generator PlanGenerator
	Plans     PlanLister
	Progress  ProgressReader
	Health    HealthChecker
	Metrics   http.Handler
	JWTSecret string
	Logger    *zap.Logger
}

// Server routes API requests.
type Server struct {
	cfg    Config
	secret []byte
	logger *zap.Logger
	mux    *http.ServeMux
}

// NewServer validates cfg and registers the routes.
func NewServer(cfg Config) (*Server, error) {
	if cfg.Generator == nil {
		return nil, errors.New("httpapi: generator is required")
	}
	if cfg.JWTSecret == "" {
		return nil, errors.New("httpapi: JWT secret is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		cfg:    cfg,
		secret: []byte(cfg.JWTSecret),
		logger: logger.Named("http"),
		mux:    http.NewServeMux(),
	}

	s.mux.HandleFunc("POST /v1/patients/{id}/meal-plans", s.authenticated(s.handleGenerate))
	if cfg.Plans != nil {
		s.mux.HandleFunc("GET /v1/patients/{id}/meal-plans", s.authenticated(s.handleListPlans))
	}
	if cfg.Progress != nil {
		s.mux.HandleFunc("GET /v1/progress", s.authenticated(s.handleProgress))
	}
	if cfg.Health != nil {
		s.mux.HandleFunc("GET /health", s.handleHealth)
	}
	if cfg.Metrics != nil {
		s.mux.Handle("GET /metrics", cfg.Metrics)
	}
	return s, nil
}

// Handler returns the root handler with request logging.
func (s *Server) Handler() http.Handler {
	return s.logRequests(s.mux)
}

type generateBody struct {
	Notes          string   `json:"notes"`
	NumDays        int      `json:"numDays"`
	FixedMealTypes []string `json:"fixedMealTypes"`
	Fast           bool     `json:"fast"`
	TimeoutMs      int64    `json:"timeoutMs"`
}

type generateReply struct {
	PlanID        int64                 `json:"planId"`
	RequestID     string                `json:"requestId"`
	Plan          *planner.MealPlan     `json:"plan"`
	PromptSummary string                `json:"promptSummary"`
	Source        planner.PlanSource    `json:"source"`
	Variety       planner.VarietyReport `json:"variety"`
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request, userID string) {
	var body generateBody
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return
	}

	if body.TimeoutMs < 0 || body.TimeoutMs > maxTimeout.Milliseconds() {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("timeoutMs must be between 0 and %d", maxTimeout.Milliseconds()))
		return
	}

	fixed := make([]planner.MealType, 0, len(body.FixedMealTypes))
	for _, t := range body.FixedMealTypes {
		fixed = append(fixed, planner.MealType(t))
	}

	resp, err := s.cfg.Generator.GenerateForPatient(r.Context(), app.GenerateRequest{
		UserID:         userID,
		PatientID:      r.PathValue("id"),
		Notes:          body.Notes,
		NumDays:        body.NumDays,
		FixedMealTypes: fixed,
		Fast:           body.Fast,
		Timeout:        time.Duration(body.TimeoutMs) * time.Millisecond,
	})
	if err != nil {
		s.writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, generateReply{
		PlanID:        resp.PlanID,
		RequestID:     resp.RequestID,
		Plan:          resp.Plan,
		PromptSummary: resp.PromptSummary,
		Source:        resp.Source,
		Variety:       resp.Variety,
	})
}

type storedPlanReply struct {
	PlanID        int64              `json:"planId"`
	Source        planner.PlanSource `json:"source"`
	PromptSummary string             `json:"promptSummary"`
	CreatedAt     time.Time          `json:"createdAt"`
	Plan          json.RawMessage    `json:"plan"`
}

func (s *Server) handleListPlans(w http.ResponseWriter, r *http.Request, _ string) {
	limit := 10
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 100 {
			writeError(w, http.StatusBadRequest, "limit must be between 1 and 100")
			return
		}
		limit = n
	}

	plans, err := s.cfg.Plans.ListRecentByPatient(r.Context(), r.PathValue("id"), limit)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	out := make([]storedPlanReply, 0, len(plans))
	for _, p := range plans {
		out = append(out, storedPlanReply{
			PlanID:        p.ID,
			Source:        p.Source,
			PromptSummary: p.PromptSummary,
			CreatedAt:     p.CreatedAt,
			Plan:          json.RawMessage(p.PlanData),
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"plans": out})
}

func (s *Server) handleProgress(w http.ResponseWriter, r *http.Request, userID string) {
	stage, ok, err := s.cfg.Progress.Get(r.Context(), userID)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	if !ok {
		writeError(w, http.StatusNotFound, "no generation in progress")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"stage": string(stage)})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	health := s.cfg.Health.Check(r.Context())
	status := http.StatusOK
	if health.Status != "ok" {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, health)
}

type authedHandler func(w http.ResponseWriter, r *http.Request, userID string)

// authenticated requires an HS256 bearer token and passes its subject on.
func (s *Server) authenticated(next authedHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		raw, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !ok || raw == "" {
			writeError(w, http.StatusUnauthorized, "missing bearer token")
			return
		}
		token, err := jwt.Parse(raw, func(*jwt.Token) (any, error) {
			return s.secret, nil
		}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
		if err != nil {
			writeError(w, http.StatusUnauthorized, "invalid token")
			return
		}
		sub, err := token.Claims.GetSubject()
		if err != nil || sub == "" {
			writeError(w, http.StatusUnauthorized, "token has no subject")
			return
		}
		next(w, r, sub)
	}
}

func (s *Server) writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, planner.ErrInvalidOptions):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, patient.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, ratelimit.ErrLimited):
		writeError(w, http.StatusTooManyRequests, err.Error())
	default:
		s.logger.Error("request failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.logger.Info("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", rec.status),
			zap.Duration("duration", time.Since(start)),
		)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
