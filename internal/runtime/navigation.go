package runtime

import (
	"context"
	"time"

	"github.com/aretw0/mrt/pkg/domain"
	"github.com/aretw0/mrt/pkg/results"
	"github.com/aretw0/mrt/pkg/scoring"
)

// pullTrial arms the trial at s.Index of the active block.
func (e *Engine) pullTrial(ctx context.Context, s *domain.SessionState, actions []domain.ActionRequest) []domain.ActionRequest {
	trials := s.Trials()
	cur := trials[s.Index]
	s.Current = &cur
	s.Onset = time.Time{}
	s.Deadline = time.Time{}
	s.Phase = domain.PhaseFixation
	e.emitPhaseEnter(ctx, s, s.Phase)

	return append(actions,
		render(progressFrame(s)),
		render(domain.Frame{Kind: domain.FrameFixation, Block: s.Block}),
		e.arm(s, e.cfg.Fixation()),
	)
}

// presentStimulus shows the current trial and opens the response window.
func (e *Engine) presentStimulus(ctx context.Context, s *domain.SessionState, ev domain.Event) []domain.ActionRequest {
	s.Phase = domain.PhaseStimulus
	s.Onset = ev.At
	s.Deadline = ev.At.Add(e.cfg.MaxResponse())
	s.Listening = true
	e.emitPhaseEnter(ctx, s, s.Phase)

	return []domain.ActionRequest{
		render(stimulusFrame(s)),
		{Type: domain.ActionOpenWindow},
		e.arm(s, e.cfg.MaxResponse()),
	}
}

// resolve records the single outcome of the current trial. Bumping the token
// first guarantees the losing path (input or timeout) can no longer resolve it.
func (e *Engine) resolve(ctx context.Context, s *domain.SessionState, resp domain.Response, ev domain.Event) []domain.ActionRequest {
	cancelled := s.Token
	s.Token++
	s.Listening = false
	s.Phase = domain.PhaseResolving
	e.emitPhaseEnter(ctx, s, s.Phase)

	actions := []domain.ActionRequest{
		{Type: domain.ActionCancelTimer, Payload: cancelled},
		{Type: domain.ActionCloseWindow},
	}

	rec := domain.TrialRecord{
		Trial:         *s.Current,
		Block:         s.Block,
		SequenceIndex: s.Index + 1,
		Response:      resp,
		Correct:       scoring.Score(resp, s.Current.Condition),
		Timestamp:     ev.At,
	}
	if resp != domain.ResponseNone {
		rt := ev.At.Sub(s.Onset).Round(time.Millisecond).Milliseconds()
		rec.ReactionTimeMs = &rt
	}
	s.Records = append(s.Records, rec)

	e.logger.Debug("trial resolved",
		"session_id", s.SessionID,
		"block", rec.Block,
		"index", rec.SequenceIndex,
		"response", rec.Response,
		"correct", rec.Correct,
		"rt_ms", deref(rec.ReactionTimeMs))
	e.emitTrialResolved(ctx, s, rec)

	actions = append(actions, e.submit(s, domain.EnvelopeTrial, &rec, nil))

	if s.Block == domain.BlockPractice {
		fb := scoring.Feedback(resp, rec.Correct)
		s.Feedback = &fb
		actions = append(actions, render(domain.Frame{Kind: domain.FrameFeedback, Block: s.Block, Feedback: &fb}))
	}

	s.Phase = domain.PhaseInterTrial
	e.emitPhaseEnter(ctx, s, s.Phase)
	return append(actions, e.arm(s, e.cfg.InterTrial()))
}

// advance ends the inter-trial interval.
func (e *Engine) advance(ctx context.Context, s *domain.SessionState, ev domain.Event) []domain.ActionRequest {
	var actions []domain.ActionRequest
	if s.Feedback != nil {
		s.Feedback = nil
		actions = append(actions, render(domain.Frame{Kind: domain.FrameClearFeedback, Block: s.Block}))
	}

	s.Index++
	s.Current = nil
	if s.Index < len(s.Trials()) {
		return e.pullTrial(ctx, s, actions)
	}

	if s.Block == domain.BlockPractice {
		s.Phase = domain.PhaseBridge
		s.Index = 0
		e.emitPhaseEnter(ctx, s, s.Phase)
		e.logger.Info("practice complete", "session_id", s.SessionID, "records", len(s.Records))
		done := domain.Feedback{Text: domain.FeedbackPractice, Color: domain.ColorCorrect}
		return append(actions,
			render(domain.Frame{Kind: domain.FrameFeedback, Block: domain.BlockPractice, Feedback: &done}),
			render(BridgeFrame(s)),
		)
	}

	return append(actions, e.complete(ctx, s, ev)...)
}

func (e *Engine) complete(ctx context.Context, s *domain.SessionState, ev domain.Event) []domain.ActionRequest {
	sum := results.Summarize(s.Records, len(s.Main), ev.At)
	s.Summary = &sum
	s.Block = domain.BlockComplete
	s.Phase = domain.PhaseComplete
	e.emitPhaseEnter(ctx, s, s.Phase)

	e.logger.Info("session complete",
		"session_id", s.SessionID,
		"answered", sum.AnsweredMainTrials,
		"accuracy_percent", deref(sum.AccuracyPercent),
		"mean_rt_ms", deref(sum.MeanReactionTimeMs))
	e.emitSessionComplete(ctx, s, sum)

	return []domain.ActionRequest{
		e.submit(s, domain.EnvelopeSummary, nil, &sum),
		render(completeFrame(s)),
	}
}

// arm replaces the single pending timer.
func (e *Engine) arm(s *domain.SessionState, d time.Duration) domain.ActionRequest {
	s.Token++
	return domain.ActionRequest{
		Type:    domain.ActionArmTimer,
		Payload: domain.TimerRequest{Token: s.Token, Duration: d},
	}
}

func (e *Engine) submit(s *domain.SessionState, action string, rec *domain.TrialRecord, sum *domain.SessionSummary) domain.ActionRequest {
	env := domain.Envelope{
		Action:        action,
		Version:       e.cfg.SchemaVersion(),
		SessionID:     s.SessionID,
		ParticipantID: s.Identity.ParticipantID,
		SessionCode:   s.Identity.SessionCode,
		Client:        e.client,
		Record:        rec,
		Summary:       sum,
	}
	return domain.ActionRequest{Type: domain.ActionSubmit, Payload: env}
}

// deref unwraps optional values for log output.
func deref[T any](p *T) any {
	if p == nil {
		return nil
	}
	return *p
}
