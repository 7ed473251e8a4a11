package runner

import (
	"log/slog"
	"time"

	"github.com/aretw0/mrt/pkg/dispatch"
	"github.com/aretw0/mrt/pkg/domain"
	"github.com/aretw0/mrt/pkg/ports"
)

// DefaultInputBufferSize is the default number of inputs buffered by input sources.
const DefaultInputBufferSize = 64

// Option defines a functional option for configuring the Runner.
type Option func(*Runner)

// WithStore configures the StateStore; a snapshot is saved after every step.
func WithStore(store ports.StateStore) Option {
	return func(r *Runner) {
		r.Store = store
	}
}

// WithLogger configures the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runner) {
		r.Logger = logger
	}
}

// WithRenderer configures where frames are drawn.
func WithRenderer(renderer ports.Renderer) Option {
	return func(r *Runner) {
		r.Renderer = renderer
	}
}

// WithInput configures the input source.
func WithInput(input ports.InputSource) Option {
	return func(r *Runner) {
		r.Input = input
	}
}

// WithSink configures the result sink behind a default Dispatcher.
func WithSink(sink ports.Sink, opts ...dispatch.Option) Option {
	return func(r *Runner) {
		r.Dispatcher = dispatch.New(sink, opts...)
	}
}

// WithDispatcher configures a pre-built Dispatcher.
func WithDispatcher(d *dispatch.Dispatcher) Option {
	return func(r *Runner) {
		r.Dispatcher = d
	}
}

// WithClock overrides the wall clock used to stamp timer events.
func WithClock(now func() time.Time) Option {
	return func(r *Runner) {
		r.Clock = now
	}
}

// WithDrainTimeout bounds how long Run waits for in-flight submissions on exit.
func WithDrainTimeout(d time.Duration) Option {
	return func(r *Runner) {
		r.DrainTimeout = d
	}
}

// WithStateObserver registers a callback invoked with a snapshot after every step.
func WithStateObserver(fn func(*domain.SessionState)) Option {
	return func(r *Runner) {
		r.observer = fn
	}
}
