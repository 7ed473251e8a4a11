package memory

import (
	"context"
	"slices"
	"sync"

	"github.com/aretw0/mrt/pkg/domain"
)

// Sink keeps every submitted envelope in memory. Safe for concurrent use.
type Sink struct {
	mu   sync.RWMutex
	envs []domain.Envelope
}

// NewSink creates an empty in-memory sink.
func NewSink() *Sink {
	return &Sink{}
}

// Submit implements ports.Sink.
func (s *Sink) Submit(ctx context.Context, env domain.Envelope) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.envs = append(s.envs, env)
	return nil
}

// Envelopes returns a copy of everything submitted so far, in arrival order.
func (s *Sink) Envelopes() []domain.Envelope {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.envs)
}

// Records returns the trial records submitted for sessionID.
func (s *Sink) Records(sessionID string) []domain.TrialRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []domain.TrialRecord
	for _, env := range s.envs {
		if env.SessionID == sessionID && env.Record != nil {
			out = append(out, *env.Record)
		}
	}
	return out
}

// Summary returns the summary submitted for sessionID, if any.
func (s *Sink) Summary(sessionID string) (domain.SessionSummary, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, env := range s.envs {
		if env.SessionID == sessionID && env.Summary != nil {
			return *env.Summary, true
		}
	}
	return domain.SessionSummary{}, false
}
