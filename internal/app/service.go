package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"care-meal-planner/internal/llm"
	"care-meal-planner/internal/metrics"
	"care-meal-planner/internal/planner"
	"care-meal-planner/internal/progress"
	"care-meal-planner/internal/storage"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// PatientProvider resolves a patient ID to the context used for planning.
type PatientProvider interface {
	Get(ctx context.Context, id string) (planner.PatientContext, error)
}

// Limiter decides whether a user may start another generation.
type Limiter interface {
	Allow(ctx context.Context, userID string) error
}

// UsageRecorder stores token usage per generation.
type UsageRecorder interface {
	RecordMeta(ctx context.Context, meta llm.AgentMeta, source string) error
}

// Notifier announces progress and finished plans to the care team.
type Notifier interface {
	Func(patientID string) planner.ProgressFunc
	NotifyPlan(patientID string, res *planner.Result)
}

// Archive keeps a file copy of each plan.
type Archive interface {
	Save(p storage.ArchivedPlan) (string, error)
}

// Deps are the collaborators of a Service. Generator, Patients and Sink are
// required; the rest are optional.
type Deps struct {
	Generator *planner.Generator
	Patients  PatientProvider
	Sink      planner.PlanSink
	Limiter   Limiter
	Tracker   *progress.Tracker
	Notifier  Notifier
	Usage     UsageRecorder
	Collector *metrics.Collector
	Archive   Archive
	Logger    *zap.Logger
}

// Service runs a generation on behalf of a user: limits, lookup, generation,
// persistence and bookkeeping.
type Service struct {
	deps   Deps
	logger *zap.Logger
	now    func() time.Time
}

// NewService validates deps and returns a Service.
func NewService(deps Deps) (*Service, error) {
	switch {
	case deps.Generator == nil:
		return nil, errors.New("app: generator is required")
	case deps.Patients == nil:
		return nil, errors.New("app: patient provider is required")
	case deps.Sink == nil:
		return nil, errors.New("app: plan sink is required")
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{deps: deps, logger: logger.Named("service"), now: time.Now}, nil
}

// GenerateRequest asks for a plan for one patient.
type GenerateRequest struct {
	UserID    string
	PatientID string
	// Patient, when set, is used instead of looking PatientID up.
	Patient        *planner.PatientContext
	Notes          string
	NumDays        int
	FixedMealTypes []planner.MealType
	Fast           bool
	Timeout        time.Duration
}

// GenerateResponse is a persisted plan.
type GenerateResponse struct {
	RequestID     string
	PlanID        int64
	Plan          *planner.MealPlan
	PromptSummary string
	Source        planner.PlanSource
	Variety       planner.VarietyReport
	ArchivePath   string
}

// GenerateForPatient runs one generation. Errors wrap ratelimit.ErrLimited,
// patient.ErrNotFound, planner.ErrInvalidOptions or planner.ErrFallbackInvalid
// where those apply.
func (s *Service) GenerateForPatient(ctx context.Context, req GenerateRequest) (*GenerateResponse, error) {
	requestID := uuid.NewString()
	log := s.logger.With(
		zap.String("request_id", requestID),
		zap.String("user_id", req.UserID),
		zap.String("patient_id", req.PatientID),
	)

	if s.deps.Limiter != nil {
		if err := s.deps.Limiter.Allow(ctx, req.UserID); err != nil {
			if s.deps.Collector != nil {
				s.deps.Collector.ObserveRateLimited()
			}
			log.Info("generation rejected", zap.Error(err))
			return nil, err
		}
	}

	var pc planner.PatientContext
	if req.Patient != nil {
		pc = *req.Patient
	} else {
		var err error
		pc, err = s.deps.Patients.Get(ctx, req.PatientID)
		if err != nil {
			return nil, fmt.Errorf("failed to load patient %s: %w", req.PatientID, err)
		}
	}

	opts := planner.Options{
		NumDays:        req.NumDays,
		FixedMealTypes: req.FixedMealTypes,
		Fast:           req.Fast,
		Timeout:        req.Timeout,
		Progress:       s.progressFunc(ctx, req),
	}

	res, err := s.deps.Generator.Generate(ctx, pc, req.Notes, opts)
	if err != nil {
		return nil, err
	}

	planID, err := s.deps.Sink.Save(ctx, planner.PlanRecord{
		UserID:        req.UserID,
		PatientID:     req.PatientID,
		Source:        res.Source,
		PromptSummary: res.PromptSummary,
		Plan:          res.Plan,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to persist meal plan: %w", err)
	}

	resp := &GenerateResponse{
		RequestID:     requestID,
		PlanID:        planID,
		Plan:          res.Plan,
		PromptSummary: res.PromptSummary,
		Source:        res.Source,
		Variety:       res.Variety,
	}

	s.bookkeep(ctx, log, req, res, resp)

	log.Info("plan ready",
		zap.Int64("plan_id", planID),
		zap.String("source", string(res.Source)),
		zap.Int("days", len(res.Plan.Days)),
	)
	return resp, nil
}

func (s *Service) progressFunc(ctx context.Context, req GenerateRequest) planner.ProgressFunc {
	var fns []planner.ProgressFunc
	if s.deps.Tracker != nil && req.UserID != "" {
		fns = append(fns, s.deps.Tracker.Func(ctx, req.UserID))
	}
	if s.deps.Notifier != nil {
		fns = append(fns, s.deps.Notifier.Func(req.PatientID))
	}
	return progress.Combine(fns...)
}

// bookkeep records usage, metrics and the archive copy. Failures are logged
// and do not fail the request since the plan is already persisted.
func (s *Service) bookkeep(ctx context.Context, log *zap.Logger, req GenerateRequest, res *planner.Result, resp *GenerateResponse) {
	if s.deps.Usage != nil {
		if err := s.deps.Usage.RecordMeta(ctx, res.Meta, string(res.Source)); err != nil {
			log.Warn("failed to record usage", zap.Error(err))
		}
	}
	if s.deps.Collector != nil {
		s.deps.Collector.ObserveResult(res)
	}
	if s.deps.Archive != nil {
		path, err := s.deps.Archive.Save(storage.ArchivedPlan{
			PatientID:     req.PatientID,
			PlanID:        resp.PlanID,
			Source:        res.Source,
			PromptSummary: res.PromptSummary,
			CreatedAt:     s.now(),
			Plan:          res.Plan,
		})
		if err != nil {
			log.Warn("failed to archive plan", zap.Error(err))
		}
		resp.ArchivePath = path
	}
	if s.deps.Notifier != nil {
		s.deps.Notifier.NotifyPlan(req.PatientID, res)
	}
}
