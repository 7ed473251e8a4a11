// Package dispatch hands result envelopes to sinks without blocking the session loop.
package dispatch

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/mrt/internal/logging"
	"github.com/aretw0/mrt/pkg/domain"
	"github.com/aretw0/mrt/pkg/ports"
)

// DefaultTimeout bounds a single submission.
const DefaultTimeout = 10 * time.Second

// Dispatcher launches every submission on its own goroutine. Failures are
// logged at debug level, reported to the OnSinkError hook and otherwise
// swallowed. Nothing is retried.
type Dispatcher struct {
	sink    ports.Sink
	timeout time.Duration
	logger  *slog.Logger
	hooks   domain.LifecycleHooks

	wg       sync.WaitGroup
	mu       sync.Mutex
	failures int
}

// Option configures the Dispatcher.
type Option func(*Dispatcher)

// WithTimeout sets the per-submission timeout.
func WithTimeout(d time.Duration) Option {
	return func(x *Dispatcher) {
		if d > 0 {
			x.timeout = d
		}
	}
}

// WithLogger sets a structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(x *Dispatcher) {
		x.logger = logger
	}
}

// WithLifecycleHooks registers the OnSinkError callback.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(x *Dispatcher) {
		x.hooks = hooks
	}
}

// New creates a Dispatcher for sink. A nil sink discards everything.
func New(sink ports.Sink, opts ...Option) *Dispatcher {
	if sink == nil {
		sink = ports.NopSink
	}
	d := &Dispatcher{
		sink:    sink,
		timeout: DefaultTimeout,
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Submit sends env in the background and returns immediately.
// The submission is detached from ctx cancellation but keeps its values.
func (d *Dispatcher) Submit(ctx context.Context, env domain.Envelope) {
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		sctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), d.timeout)
		defer cancel()

		err := d.safeSubmit(sctx, env)
		if err == nil {
			return
		}
		d.mu.Lock()
		d.failures++
		d.mu.Unlock()

		d.logger.Debug("sink submission failed",
			"session_id", env.SessionID,
			"action", env.Action,
			"err", err)
		if d.hooks.OnSinkError != nil {
			d.hooks.OnSinkError(sctx, &domain.SinkEvent{
				EventBase: domain.EventBase{Timestamp: time.Now(), Type: domain.HookSinkError, SessionID: env.SessionID},
				Action:    env.Action,
				Err:       err,
			})
		}
	}()
}

func (d *Dispatcher) safeSubmit(ctx context.Context, env domain.Envelope) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.New("sink panicked")
		}
	}()
	return d.sink.Submit(ctx, env)
}

// Wait blocks until in-flight submissions finish or ctx is done.
// It is meant for shutdown only.
func (d *Dispatcher) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Failures returns the number of failed submissions so far.
func (d *Dispatcher) Failures() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.failures
}

// Multi fans an envelope out to several sinks sequentially, joining their errors.
type Multi []ports.Sink

// Submit implements ports.Sink.
func (m Multi) Submit(ctx context.Context, env domain.Envelope) error {
	var errs []error
	for _, s := range m {
		if s == nil {
			continue
		}
		if err := s.Submit(ctx, env); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
