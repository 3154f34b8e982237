package planner

import (
	"context"
	"fmt"
	"time"

	"care-meal-planner/internal/llm"

	"go.uber.org/zap"
)

// PlanSource tells whether a plan came from the model or the fallback catalog.
type PlanSource string

const (
	SourceModel    PlanSource = "model"
	SourceFallback PlanSource = "fallback"
)

// Options controls a single generation.
type Options struct {
	// NumDays defaults to DefaultDays when zero.
	NumDays        int
	FixedMealTypes []MealType
	// Fast requests the whole plan in one shot with the larger time budget.
	Fast bool
	// Timeout overrides the mode-dependent timeout when positive.
	Timeout  time.Duration
	Progress ProgressFunc
}

func (o Options) withDefaults() (Options, error) {
	if o.NumDays == 0 {
		o.NumDays = DefaultDays
	}
	if o.NumDays < MinDays || o.NumDays > MaxDays {
		return o, fmt.Errorf("%w: numDays must be between %d and %d, got %d", ErrInvalidOptions, MinDays, MaxDays, o.NumDays)
	}
	if o.Timeout < 0 {
		return o, fmt.Errorf("%w: negative timeout", ErrInvalidOptions)
	}
	seen := make(map[MealType]bool, len(o.FixedMealTypes))
	fixed := make([]MealType, 0, len(o.FixedMealTypes))
	for _, t := range o.FixedMealTypes {
		if !t.Valid() {
			return o, fmt.Errorf("%w: unknown meal type %q", ErrInvalidOptions, t)
		}
		if !seen[t] {
			seen[t] = true
			fixed = append(fixed, t)
		}
	}
	o.FixedMealTypes = fixed
	return o, nil
}

// GeneratorConfig holds the time and token budgets of the model call.
type GeneratorConfig struct {
	FastTimeout   time.Duration
	StableTimeout time.Duration

	BaseTokens   int
	TokensPerDay int
	MaxTokens    int

	FastTemperature   float32
	StableTemperature float32

	// Now is the clock used for age derivation. Defaults to time.Now.
	Now func() time.Time
}

// DefaultGeneratorConfig returns the production budgets.
func DefaultGeneratorConfig() GeneratorConfig {
	return GeneratorConfig{
		FastTimeout:       90 * time.Second,
		StableTimeout:     60 * time.Second,
		BaseTokens:        800,
		TokensPerDay:      1400,
		MaxTokens:         16000,
		FastTemperature:   0.7,
		StableTemperature: 0.4,
	}
}

// Result is the outcome of a generation.
type Result struct {
	Plan          *MealPlan
	PromptSummary string
	Source        PlanSource
	// FallbackReason is the error that sent the pipeline to the fallback.
	FallbackReason string
	// FallbackKind is FailureKind of that error.
	FallbackKind string
	Variety      VarietyReport
	Meta         llm.AgentMeta
}

// Generator runs the meal-plan pipeline against a model backend.
type Generator struct {
	client    llm.ModelClient
	prompts   *PromptBuilder
	validator *SchemaValidator
	cfg       GeneratorConfig
	logger    *zap.Logger
}

// NewGenerator creates a Generator. Zero budgets in cfg are taken from
// DefaultGeneratorConfig.
func NewGenerator(client llm.ModelClient, cfg GeneratorConfig, logger *zap.Logger) (*Generator, error) {
	validator, err := NewSchemaValidator()
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	def := DefaultGeneratorConfig()
	if cfg.FastTimeout <= 0 {
		cfg.FastTimeout = def.FastTimeout
	}
	if cfg.StableTimeout <= 0 {
		cfg.StableTimeout = def.StableTimeout
	}
	if cfg.BaseTokens <= 0 {
		cfg.BaseTokens = def.BaseTokens
	}
	if cfg.TokensPerDay <= 0 {
		cfg.TokensPerDay = def.TokensPerDay
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = def.MaxTokens
	}
	if cfg.FastTemperature <= 0 {
		cfg.FastTemperature = def.FastTemperature
	}
	if cfg.StableTemperature <= 0 {
		cfg.StableTemperature = def.StableTemperature
	}
	return &Generator{
		client:    client,
		prompts:   NewPromptBuilder(cfg.Now),
		validator: validator,
		cfg:       cfg,
		logger:    logger.Named("planner"),
	}, nil
}

// Generate produces a plan for patient. Backend failures never surface as
// errors: the fallback catalog is used instead. Only ErrInvalidOptions and
// ErrFallbackInvalid are returned.
func (g *Generator) Generate(ctx context.Context, patient PatientContext, additionalNotes string, opts Options) (*Result, error) {
	opts, err := opts.withDefaults()
	if err != nil {
		return nil, err
	}
	log := g.logger.With(zap.Int("num_days", opts.NumDays), zap.Bool("fast", opts.Fast))

	opts.Progress.report(StagePreparing)
	g.transition(log, "building_prompt")
	dayNames := DayNames(opts.NumDays)
	prompt, err := g.prompts.Build(patient, additionalNotes, dayNames, opts.FixedMealTypes)
	if err != nil {
		return nil, err
	}

	result := &Result{PromptSummary: prompt.Summary}

	plan, meta, failure := g.modelPlan(ctx, log, prompt, dayNames, opts)
	result.Meta = meta
	if failure == nil {
		g.finish(log, plan, opts)
		// Tips can push a recipe past its length limit.
		if err := g.validator.Check(plan, dayNames); err != nil {
			failure = err
		}
	}
	if failure != nil {
		log.Warn("using fallback plan", zap.Error(failure))
		opts.Progress.report(StageFallback)
		g.transition(log, "fallback")

		plan = BuildFallbackPlan(dayNames)
		g.finish(log, plan, opts)
		if err := g.validator.Check(plan, dayNames); err != nil {
			log.Error("fallback plan invalid", zap.Error(err))
			return nil, fmt.Errorf("%w: %v", ErrFallbackInvalid, err)
		}
		result.Source = SourceFallback
		result.FallbackReason = failure.Error()
		result.FallbackKind = FailureKind(failure)
	} else {
		result.Source = SourceModel
	}

	g.transition(log, "audit")
	result.Variety = AuditVariety(plan, opts.FixedMealTypes)
	if !result.Variety.OK() {
		log.Info("plan has repeated meals", zap.Int("repetitions", len(result.Variety.Repetitions)))
	}

	result.Plan = plan
	g.transition(log, "done")
	opts.Progress.report(StageReady)

	log.Info("meal plan generated",
		zap.String("source", string(result.Source)),
		zap.Int("total_tokens", meta.Usage.TotalTokens),
		zap.Duration("latency", meta.Latency),
	)
	return result, nil
}

// modelPlan runs the model path. A non-nil failure means the caller must fall back.
func (g *Generator) modelPlan(ctx context.Context, log *zap.Logger, prompt Prompt, dayNames []string, opts Options) (*MealPlan, llm.AgentMeta, error) {
	timeout, temperature := g.cfg.StableTimeout, g.cfg.StableTemperature
	if opts.Fast {
		timeout, temperature = g.cfg.FastTimeout, g.cfg.FastTemperature
	}
	if opts.Timeout > 0 {
		timeout = opts.Timeout
	}

	req := llm.ChatRequest{
		System:       prompt.System,
		User:         prompt.User,
		Temperature:  temperature,
		JSONResponse: true,
		MaxTokens:    TokenBudget(len(dayNames), g.cfg.BaseTokens, g.cfg.TokensPerDay, g.cfg.MaxTokens),
	}

	g.transition(log, "awaiting_model")
	inv, err := Invoke(ctx, g.client, req, timeout)
	if err != nil {
		return nil, llm.AgentMeta{}, err
	}

	g.transition(log, "parsing")
	repaired, err := Repair(inv.Content)
	if err != nil {
		return nil, inv.Meta, err
	}
	log.Debug("model output repaired", zap.String("strategy", string(repaired.Strategy)))

	g.transition(log, "validating")
	plan, err := g.validator.Validate(repaired.Raw, dayNames)
	if err != nil {
		return nil, inv.Meta, err
	}
	return plan, inv.Meta, nil
}

// finish applies fixed meal types and recipe tips in place.
func (g *Generator) finish(log *zap.Logger, plan *MealPlan, opts Options) {
	g.transition(log, "normalizing")
	FixMealTypes(plan, opts.FixedMealTypes)

	g.transition(log, "tip_injection")
	ApplyTips(plan)
}

func (g *Generator) transition(log *zap.Logger, state string) {
	log.Debug("pipeline state", zap.String("state", state))
}
