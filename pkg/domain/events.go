package domain

import (
	"context"
	"time"
)

// HookType defines the category of a lifecycle event.
type HookType string

const (
	HookPhaseEnter    HookType = "phase_enter"
	HookTrialResolved HookType = "trial_resolved"
	HookSessionDone   HookType = "session_complete"
	HookSinkError     HookType = "sink_error"
)

// EventBase contains common fields for all lifecycle events.
type EventBase struct {
	Timestamp time.Time `json:"timestamp"`
	Type      HookType  `json:"type"`
	SessionID string    `json:"session_id"`
}

// PhaseEvent reports entry into a sequencer phase.
type PhaseEvent struct {
	EventBase
	Phase Phase `json:"phase"`
	Block Block `json:"block"`
	Index int   `json:"index"`
}

// TrialEvent reports a resolved trial.
type TrialEvent struct {
	EventBase
	Record TrialRecord `json:"record"`
}

// SummaryEvent reports session completion.
type SummaryEvent struct {
	EventBase
	Summary SessionSummary `json:"summary"`
}

// SinkEvent reports a failed (and swallowed) sink submission.
type SinkEvent struct {
	EventBase
	Action string `json:"action"`
	Err    error  `json:"-"`
}

// LifecycleHooks defines callbacks for sequencer observability.
// Hooks run on the caller's goroutine and must not block.
type LifecycleHooks struct {
	OnPhaseEnter      func(context.Context, *PhaseEvent)
	OnTrialResolved   func(context.Context, *TrialEvent)
	OnSessionComplete func(context.Context, *SummaryEvent)
	OnSinkError       func(context.Context, *SinkEvent)
}

// Merge returns hooks that call h first and then other.
func (h LifecycleHooks) Merge(other LifecycleHooks) LifecycleHooks {
	return LifecycleHooks{
		OnPhaseEnter: func(ctx context.Context, e *PhaseEvent) {
			if h.OnPhaseEnter != nil {
				h.OnPhaseEnter(ctx, e)
			}
			if other.OnPhaseEnter != nil {
				other.OnPhaseEnter(ctx, e)
			}
		},
		OnTrialResolved: func(ctx context.Context, e *TrialEvent) {
			if h.OnTrialResolved != nil {
				h.OnTrialResolved(ctx, e)
			}
			if other.OnTrialResolved != nil {
				other.OnTrialResolved(ctx, e)
			}
		},
		OnSessionComplete: func(ctx context.Context, e *SummaryEvent) {
			if h.OnSessionComplete != nil {
				h.OnSessionComplete(ctx, e)
			}
			if other.OnSessionComplete != nil {
				other.OnSessionComplete(ctx, e)
			}
		},
		OnSinkError: func(ctx context.Context, e *SinkEvent) {
			if h.OnSinkError != nil {
				h.OnSinkError(ctx, e)
			}
			if other.OnSinkError != nil {
				other.OnSinkError(ctx, e)
			}
		},
	}
}
