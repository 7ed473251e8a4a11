package runtime

import (
	"context"
	"time"

	"github.com/aretw0/mrt/pkg/domain"
)

func (e *Engine) emitPhaseEnter(ctx context.Context, s *domain.SessionState, phase domain.Phase) {
	if e.hooks.OnPhaseEnter == nil {
		return
	}
	e.hooks.OnPhaseEnter(ctx, &domain.PhaseEvent{
		EventBase: domain.EventBase{Timestamp: time.Now(), Type: domain.HookPhaseEnter, SessionID: s.SessionID},
		Phase:     phase,
		Block:     s.Block,
		Index:     s.Index,
	})
}

func (e *Engine) emitTrialResolved(ctx context.Context, s *domain.SessionState, rec domain.TrialRecord) {
	if e.hooks.OnTrialResolved == nil {
		return
	}
	e.hooks.OnTrialResolved(ctx, &domain.TrialEvent{
		EventBase: domain.EventBase{Timestamp: time.Now(), Type: domain.HookTrialResolved, SessionID: s.SessionID},
		Record:    rec,
	})
}

func (e *Engine) emitSessionComplete(ctx context.Context, s *domain.SessionState, sum domain.SessionSummary) {
	if e.hooks.OnSessionComplete == nil {
		return
	}
	e.hooks.OnSessionComplete(ctx, &domain.SummaryEvent{
		EventBase: domain.EventBase{Timestamp: time.Now(), Type: domain.HookSessionDone, SessionID: s.SessionID},
		Summary:   sum,
	})
}
