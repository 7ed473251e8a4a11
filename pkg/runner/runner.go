package runner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aretw0/mrt/internal/logging"
	"github.com/aretw0/mrt/pkg/dispatch"
	"github.com/aretw0/mrt/pkg/domain"
	"github.com/aretw0/mrt/pkg/ports"
)

// ErrAborted is returned when the operator quits before the session completes.
var ErrAborted = errors.New("session aborted")

// Sequencer is the state machine the Runner drives.
type Sequencer interface {
	Start(ctx context.Context, s *domain.SessionState) ([]domain.ActionRequest, error)
	Dispatch(ctx context.Context, s *domain.SessionState, ev domain.Event) ([]domain.ActionRequest, error)
}

// Runner executes a session on a single goroutine.
//
// It owns exactly one timer. Every arm request stops the previous timer
// before resetting it, and the token carried by each timer lets the
// sequencer discard anything stale.
type Runner struct {
	Renderer   ports.Renderer
	Input      ports.InputSource
	Dispatcher *dispatch.Dispatcher

	// Store is the persistence adapter. If nil, sessions are ephemeral.
	Store ports.StateStore

	// Logger is used for internal debug logging.
	// If nil, a no-op logger is used.
	Logger *slog.Logger

	// Clock stamps timer events. Defaults to time.Now.
	Clock func() time.Time

	// DrainTimeout bounds the wait for in-flight sink submissions on exit.
	DrainTimeout time.Duration

	observer func(*domain.SessionState)
}

// NewRunner creates a Runner. Without a renderer frames are dropped; without
// an input source only timers advance the session.
func NewRunner(opts ...Option) *Runner {
	r := &Runner{
		Logger:       logging.NewNop(),
		Clock:        time.Now,
		DrainTimeout: dispatch.DefaultTimeout,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.Dispatcher == nil {
		r.Dispatcher = dispatch.New(nil)
	}
	return r
}

// loop holds the per-run timer state.
type loop struct {
	timer  *time.Timer
	timerC <-chan time.Time
	token  uint64
	open   bool
}

// Run drives state until it completes, the operator quits or ctx is done.
// A fresh (idle) state is started first; the caller must not touch state
// while Run is executing.
func (r *Runner) Run(ctx context.Context, seq Sequencer, state *domain.SessionState) error {
	l := &loop{timer: time.NewTimer(time.Hour)}
	l.timer.Stop()
	defer l.timer.Stop()
	defer r.drain(ctx)

	if state.Phase == domain.PhaseIdle {
		actions, err := seq.Start(ctx, state)
		if err != nil {
			return fmt.Errorf("failed to start session: %w", err)
		}
		if err := r.apply(ctx, l, state, actions); err != nil {
			return err
		}
	}

	var inputs <-chan domain.Input
	if r.Input != nil {
		inputs = r.Input.Inputs()
	}

	for !state.Terminated() {
		var ev domain.Event
		select {
		case <-ctx.Done():
			return ctx.Err()

		case <-l.timerC:
			l.timerC = nil
			ev = domain.Event{Type: domain.EventTimer, Token: l.token, At: r.Clock()}

		case in, ok := <-inputs:
			if !ok {
				r.Logger.Debug("input source closed", "session_id", state.SessionID)
				inputs = nil
				continue
			}
			var quit bool
			ev, quit = r.toEvent(in)
			if quit {
				r.Logger.Info("session aborted by operator", "session_id", state.SessionID, "phase", state.Phase)
				return ErrAborted
			}
			if ev.Type == domain.EventInput && !l.open {
				r.Logger.Debug("input outside response window", "session_id", state.SessionID, "input", in.Value)
			}
		}

		actions, err := seq.Dispatch(ctx, state, ev)
		if err != nil {
			if errors.Is(err, domain.ErrInvalidTransition) || errors.Is(err, domain.ErrSessionComplete) {
				r.Logger.Debug("event rejected", "session_id", state.SessionID, "event", ev.Type, "err", err)
				continue
			}
			return fmt.Errorf("dispatch error: %w", err)
		}
		if err := r.apply(ctx, l, state, actions); err != nil {
			return err
		}
	}
	return nil
}

// toEvent maps an input to a sequencer event. Inputs without a capture time
// are stamped on receipt.
func (r *Runner) toEvent(in domain.Input) (domain.Event, bool) {
	at := in.At
	if at.IsZero() {
		at = r.Clock()
	}
	switch in.Kind {
	case domain.InputQuit:
		return domain.Event{}, true
	case domain.InputBegin:
		return domain.Event{Type: domain.EventBegin, At: at}, false
	case domain.InputRedraw:
		return domain.Event{Type: domain.EventRedraw, At: at}, false
	}
	return domain.Event{Type: domain.EventInput, Input: in.Value, At: at}, false
}

// apply performs the actions in order, then persists and publishes a snapshot.
func (r *Runner) apply(ctx context.Context, l *loop, state *domain.SessionState, actions []domain.ActionRequest) error {
	for _, act := range actions {
		switch act.Type {
		case domain.ActionRender:
			frame, ok := act.Payload.(domain.Frame)
			if !ok || r.Renderer == nil {
				continue
			}
			if err := r.Renderer.Render(ctx, frame); err != nil {
				r.Logger.Warn("render failed", "session_id", state.SessionID, "frame", frame.Kind, "err", err)
			}

		case domain.ActionArmTimer:
			req, ok := act.Payload.(domain.TimerRequest)
			if !ok {
				continue
			}
			// Disarm before arm.
			l.timer.Stop()
			l.timer.Reset(req.Duration)
			l.timerC = l.timer.C
			l.token = req.Token

		case domain.ActionCancelTimer:
			if token, ok := act.Payload.(uint64); ok && token == l.token {
				l.timer.Stop()
				l.timerC = nil
			}

		case domain.ActionOpenWindow:
			l.open = true

		case domain.ActionCloseWindow:
			l.open = false

		case domain.ActionSubmit:
			if env, ok := act.Payload.(domain.Envelope); ok {
				r.Dispatcher.Submit(ctx, env)
			}
		}
	}

	if r.Store != nil {
		if err := r.Store.Save(ctx, state.SessionID, state.Snapshot()); err != nil {
			return fmt.Errorf("critical persistence error: %w", err)
		}
		r.Logger.Debug("state saved", "session_id", state.SessionID, "phase", state.Phase)
	}
	if r.observer != nil {
		r.observer(state.Snapshot())
	}
	return nil
}

func (r *Runner) drain(ctx context.Context) {
	dctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.DrainTimeout)
	defer cancel()
	if err := r.Dispatcher.Wait(dctx); err != nil {
		r.Logger.Debug("sink drain incomplete", "err", err)
	}
}
