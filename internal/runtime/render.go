package runtime

import "github.com/aretw0/mrt/pkg/domain"

// redraw re-renders whatever is on screen with its original parameters.
// It never touches onset, deadline or the pending timer.
func (e *Engine) redraw(s *domain.SessionState) []domain.ActionRequest {
	switch s.Phase {
	case domain.PhaseFixation:
		return []domain.ActionRequest{
			render(progressFrame(s)),
			render(domain.Frame{Kind: domain.FrameFixation, Block: s.Block}),
		}
	case domain.PhaseStimulus:
		return []domain.ActionRequest{
			render(progressFrame(s)),
			render(stimulusFrame(s)),
		}
	case domain.PhaseInterTrial:
		if s.Feedback != nil {
			fb := *s.Feedback
			return []domain.ActionRequest{render(domain.Frame{Kind: domain.FrameFeedback, Block: s.Block, Feedback: &fb})}
		}
	case domain.PhaseBridge:
		return []domain.ActionRequest{render(BridgeFrame(s))}
	case domain.PhaseComplete:
		return []domain.ActionRequest{render(completeFrame(s))}
	}
	return nil
}

func render(f domain.Frame) domain.ActionRequest {
	return domain.ActionRequest{Type: domain.ActionRender, Payload: f}
}

func progressFrame(s *domain.SessionState) domain.Frame {
	return domain.Frame{
		Kind:     domain.FrameProgress,
		Block:    s.Block,
		Progress: &domain.Progress{Current: s.Index + 1, Total: len(s.Trials())},
	}
}

func stimulusFrame(s *domain.SessionState) domain.Frame {
	t := *s.Current
	return domain.Frame{Kind: domain.FrameStimulus, Block: s.Block, Trial: &t}
}

// BridgeFrame is the frame shown between the practice and main blocks.
func BridgeFrame(s *domain.SessionState) domain.Frame {
	return domain.Frame{Kind: domain.FrameBridge, Block: domain.BlockMain, MainTrials: len(s.Main)}
}

func completeFrame(s *domain.SessionState) domain.Frame {
	f := domain.Frame{
		Kind:     domain.FrameComplete,
		Block:    domain.BlockComplete,
		Progress: &domain.Progress{Current: len(s.Main), Total: len(s.Main)},
	}
	if s.Summary != nil {
		sum := *s.Summary
		f.Summary = &sum
	}
	return f
}
