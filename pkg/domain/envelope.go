package domain

import "time"

// DefaultSchemaVersion tags every entry handed to a sink.
const DefaultSchemaVersion = "mrt-v1.0"

// Envelope actions.
const (
	EnvelopeTrial   = "trial"
	EnvelopeSummary = "summary"
)

// Envelope is the unit a logging sink receives.
type Envelope struct {
	Action        string            `json:"action"`
	Version       string            `json:"version"`
	SessionID     string            `json:"session_id"`
	ParticipantID string            `json:"participant_id"`
	SessionCode   string            `json:"session_code"`
	Client        map[string]string `json:"client,omitempty"`
	Record        *TrialRecord      `json:"record,omitempty"`
	Summary       *SessionSummary   `json:"summary,omitempty"`
}

// Flatten renders the envelope as the flat row stored by sheet-like sinks.
func (e Envelope) Flatten() map[string]any {
	row := make(map[string]any, len(e.Client)+24)
	for k, v := range e.Client {
		row[k] = v
	}
	// Reserved columns win over client metadata of the same name.
	row["action"] = e.Action
	row["version"] = e.Version
	row["session_id"] = e.SessionID
	row["participant_id"] = e.ParticipantID
	row["session_code"] = e.SessionCode

	if r := e.Record; r != nil {
		row["block"] = string(r.Block)
		row["trial_index"] = r.SequenceIndex
		row["condition"] = string(r.Trial.Condition)
		row["angle"] = r.Trial.Angle
		row["left_angle"] = r.Trial.LeftAngle
		row["left_mirror"] = boolInt(r.Trial.LeftMirror)
		row["right_angle"] = r.Trial.RightAngle
		row["right_mirror"] = boolInt(r.Trial.RightMirror)
		row["angle_difference"] = r.Trial.AngleDifference
		row["response"] = string(r.Response)
		row["correct_response"] = string(r.Trial.ExpectedResponse())
		row["accuracy"] = r.Accuracy()
		if r.ReactionTimeMs != nil {
			row["rt_ms"] = *r.ReactionTimeMs
		} else {
			row["rt_ms"] = nil
		}
		row["timestamp"] = r.Timestamp.UTC().Format(time.RFC3339Nano)
	}

	if s := e.Summary; s != nil {
		row["total_main_trials"] = s.TotalMainTrials
		row["answered_main_trials"] = s.AnsweredMainTrials
		if s.AccuracyPercent != nil {
			row["accuracy_percent"] = *s.AccuracyPercent
		} else {
			row["accuracy_percent"] = nil
		}
		if s.MeanReactionTimeMs != nil {
			row["mean_rt_ms"] = *s.MeanReactionTimeMs
		} else {
			row["mean_rt_ms"] = nil
		}
		row["timestamp"] = s.Timestamp.UTC().Format(time.RFC3339Nano)
	}
	return row
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
