package mrt

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"time"

	"github.com/aretw0/mrt/internal/logging"
	"github.com/aretw0/mrt/internal/runtime"
	"github.com/aretw0/mrt/pkg/config"
	"github.com/aretw0/mrt/pkg/domain"
	"github.com/aretw0/mrt/pkg/factory"
	idprovider "github.com/aretw0/mrt/pkg/identity"
	"github.com/aretw0/mrt/pkg/runner"
	"github.com/google/uuid"
)

// Engine is the high-level entry point of the library.
// It wraps the internal sequencer and ties configuration, trial generation
// and identity together.
type Engine struct {
	runtime *runtime.Engine
	cfg     config.Config
	hooks   domain.LifecycleHooks
	logger  *slog.Logger
	clock   func() time.Time
	client  map[string]string
	newID   func() string
}

// Option defines a functional option for configuring the Engine.
type Option func(*Engine)

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(e *Engine) {
		e.hooks = hooks
	}
}

// WithLogger sets a custom structured logger for the engine.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithClock overrides the wall clock used for fallback seed keys and by Run.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.clock = now
	}
}

// WithClientMetadata attaches client key/values to every submitted envelope.
func WithClientMetadata(meta map[string]string) Option {
	return func(e *Engine) {
		e.client = maps.Clone(meta)
	}
}

// WithSessionIDGenerator replaces the uuid session ID generator.
func WithSessionIDGenerator(fn func() string) Option {
	return func(e *Engine) {
		e.newID = fn
	}
}

// New validates cfg and initializes an Engine.
func New(cfg config.Config, opts ...Option) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	eng := &Engine{
		cfg:   cfg,
		clock: time.Now,
		newID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(eng)
	}
	if eng.logger == nil {
		eng.logger = logging.NewNop()
	}

	eng.runtime = runtime.NewEngine(cfg,
		runtime.WithLogger(eng.logger),
		runtime.WithLifecycleHooks(eng.hooks),
		runtime.WithClientMetadata(eng.client),
	)
	return eng, nil
}

// Config returns the validated configuration.
func (e *Engine) Config() config.Config {
	return e.runtime.Config()
}

// Plan generates the reproducible trial layout for seedKey without creating a session.
func (e *Engine) Plan(seedKey string) (*factory.Plan, error) {
	return factory.BuildPlan(e.cfg, seedKey)
}

// NewSession creates an idle session for identity with its trial lists
// generated from the identity's seed key. An identity without identifiers
// gets a fallback key derived from the clock and a random suffix.
func (e *Engine) NewSession(ctx context.Context, identity domain.Identity) (*domain.SessionState, error) {
	if identity.SeedKey() == "" {
		identity.Fallback = idprovider.FallbackKey(e.clock())
	}

	plan, err := e.Plan(identity.SeedKey())
	if err != nil {
		return nil, fmt.Errorf("failed to generate trials: %w", err)
	}

	state := domain.NewSessionState(e.newID(), identity, plan.Seed)
	state.Practice = plan.Practice
	state.Main = plan.Main

	e.logger.Debug("session created",
		"session_id", state.SessionID,
		"seed_key", plan.SeedKey,
		"seed", plan.Seed,
		"practice", len(plan.Practice),
		"main", len(plan.Main))
	return state, nil
}

// Start validates the session and emits the phase-enter hook. It returns no
// actions; the first frames follow the begin event.
func (e *Engine) Start(ctx context.Context, state *domain.SessionState) ([]domain.ActionRequest, error) {
	return e.runtime.Start(ctx, state)
}

// Dispatch feeds one event to the sequencer and returns the side effects to perform.
func (e *Engine) Dispatch(ctx context.Context, state *domain.SessionState, ev domain.Event) ([]domain.ActionRequest, error) {
	return e.runtime.Dispatch(ctx, state, ev)
}

// Run drives state to completion in real time with a Runner built from opts.
// The engine's logger and clock are applied first so opts can override them.
func (e *Engine) Run(ctx context.Context, state *domain.SessionState, opts ...runner.Option) error {
	base := []runner.Option{
		runner.WithLogger(e.logger),
		runner.WithClock(e.clock),
	}
	r := runner.NewRunner(append(base, opts...)...)
	return r.Run(ctx, e, state)
}
