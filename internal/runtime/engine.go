package runtime

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"

	"github.com/aretw0/mrt/internal/logging"
	"github.com/aretw0/mrt/pkg/config"
	"github.com/aretw0/mrt/pkg/domain"
	"github.com/aretw0/mrt/pkg/scoring"
)

// ErrNoTrials is returned when a session is started without generated trial lists.
var ErrNoTrials = errors.New("session has no trials")

// Engine is the trial sequencer.
//
// It is a pure state machine: every call mutates the given SessionState and
// returns the side effects the host must perform, in order. It never sleeps,
// starts goroutines or reads the clock; time enters only through Event.At.
type Engine struct {
	cfg    config.Config
	keys   scoring.Keymap
	logger *slog.Logger
	hooks  domain.LifecycleHooks
	client map[string]string
}

// EngineOption configures the Engine.
type EngineOption func(*Engine)

// WithLogger sets a structured logger.
func WithLogger(logger *slog.Logger) EngineOption {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithLifecycleHooks registers observability callbacks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) EngineOption {
	return func(e *Engine) {
		e.hooks = hooks
	}
}

// WithClientMetadata attaches client key/values (user agent, host) to every envelope.
func WithClientMetadata(meta map[string]string) EngineOption {
	return func(e *Engine) {
		e.client = maps.Clone(meta)
	}
}

// NewEngine creates a sequencer for cfg. The configuration is assumed valid.
func NewEngine(cfg config.Config, opts ...EngineOption) *Engine {
	e := &Engine{
		cfg:    cfg,
		keys:   scoring.Keymap{Same: cfg.SameKey, Mirror: cfg.MirrorKey},
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Config returns the configuration the engine was built with.
func (e *Engine) Config() config.Config {
	return e.cfg
}

// Start checks that s is a fresh session ready for the practice block.
func (e *Engine) Start(ctx context.Context, s *domain.SessionState) ([]domain.ActionRequest, error) {
	if s.Phase != domain.PhaseIdle {
		return nil, fmt.Errorf("%w: cannot start from %s", domain.ErrInvalidTransition, s.Phase)
	}
	if len(s.Practice) == 0 || len(s.Main) == 0 {
		return nil, ErrNoTrials
	}
	for i, t := range append(append([]domain.TrialSpec(nil), s.Practice...), s.Main...) {
		if err := t.Validate(); err != nil {
			return nil, fmt.Errorf("trial %d: %w", i, err)
		}
	}

	e.logger.Info("session ready",
		"session_id", s.SessionID,
		"practice", len(s.Practice),
		"main", len(s.Main),
		"seed", s.Seed)
	e.emitPhaseEnter(ctx, s, s.Phase)
	return nil, nil
}

// Dispatch feeds one event to the sequencer.
//
// Stale timers, inputs outside the response window and unrecognized inputs are
// ignored and yield no actions. A begin event outside idle or bridge returns
// ErrInvalidTransition; anything but a redraw after completion returns
// ErrSessionComplete.
func (e *Engine) Dispatch(ctx context.Context, s *domain.SessionState, ev domain.Event) ([]domain.ActionRequest, error) {
	if s.Phase == domain.PhaseComplete && ev.Type != domain.EventRedraw {
		return nil, domain.ErrSessionComplete
	}

	switch ev.Type {
	case domain.EventBegin:
		return e.begin(ctx, s, ev)
	case domain.EventTimer:
		return e.timer(ctx, s, ev)
	case domain.EventInput:
		return e.input(ctx, s, ev)
	case domain.EventRedraw:
		return e.redraw(s), nil
	}
	return nil, fmt.Errorf("%w: unknown event %q", domain.ErrInvalidTransition, ev.Type)
}

func (e *Engine) begin(ctx context.Context, s *domain.SessionState, ev domain.Event) ([]domain.ActionRequest, error) {
	switch s.Phase {
	case domain.PhaseIdle:
		s.Block = domain.BlockPractice
		s.Index = 0
	case domain.PhaseBridge:
		s.Block = domain.BlockMain
		s.Index = 0
	default:
		return nil, fmt.Errorf("%w: begin during %s", domain.ErrInvalidTransition, s.Phase)
	}
	e.logger.Info("block started", "session_id", s.SessionID, "block", s.Block, "trials", len(s.Trials()))
	return e.pullTrial(ctx, s, nil), nil
}

func (e *Engine) timer(ctx context.Context, s *domain.SessionState, ev domain.Event) ([]domain.ActionRequest, error) {
	if ev.Token != s.Token {
		e.logger.Debug("stale timer ignored", "session_id", s.SessionID, "token", ev.Token, "current", s.Token)
		return nil, nil
	}

	switch s.Phase {
	case domain.PhaseFixation:
		return e.presentStimulus(ctx, s, ev), nil
	case domain.PhaseStimulus:
		if ev.At.Before(s.Deadline) {
			// Fired early; wait out the remainder of the window.
			return []domain.ActionRequest{e.arm(s, s.Deadline.Sub(ev.At))}, nil
		}
		return e.resolve(ctx, s, domain.ResponseNone, ev), nil
	case domain.PhaseInterTrial:
		return e.advance(ctx, s, ev), nil
	}
	return nil, nil
}

func (e *Engine) input(ctx context.Context, s *domain.SessionState, ev domain.Event) ([]domain.ActionRequest, error) {
	if s.Phase != domain.PhaseStimulus || !s.Listening {
		return nil, nil
	}
	resp, ok := e.keys.Resolve(ev.Input)
	if !ok {
		e.logger.Debug("unrecognized input ignored", "session_id", s.SessionID, "input", ev.Input)
		return nil, nil
	}
	if ev.At.Before(s.Onset) {
		e.logger.Debug("input before onset ignored", "session_id", s.SessionID, "input", ev.Input, "early_by", s.Onset.Sub(ev.At))
		return nil, nil
	}
	if ev.At.After(s.Deadline) {
		resp = domain.ResponseNone
	}
	return e.resolve(ctx, s, resp, ev), nil
}
