package ports

import (
	"context"

	"github.com/aretw0/mrt/pkg/domain"
)

// Sink receives result envelopes. Submissions are best effort: callers never
// retry and never let a failure affect the session.
type Sink interface {
	Submit(ctx context.Context, env domain.Envelope) error
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(ctx context.Context, env domain.Envelope) error

// Submit calls f.
func (f SinkFunc) Submit(ctx context.Context, env domain.Envelope) error {
	return f(ctx, env)
}

// NopSink discards every envelope.
var NopSink Sink = SinkFunc(func(context.Context, domain.Envelope) error { return nil })
