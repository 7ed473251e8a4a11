package domain

import "time"

// Block is a named phase of the session.
type Block string

const (
	BlockPractice Block = "practice"
	BlockMain     Block = "main"
	BlockComplete Block = "complete"
)

// Response is the canonical label of a participant's answer.
type Response string

const (
	ResponseSame   Response = "same"
	ResponseMirror Response = "mirror"
	// ResponseNone marks a trial that timed out.
	ResponseNone Response = "none"
)

// TrialRecord is the append-only result of one resolved trial.
type TrialRecord struct {
	Trial          TrialSpec `json:"trial"`
	Block          Block     `json:"block"`
	SequenceIndex  int       `json:"sequence_index"`
	Response       Response  `json:"response"`
	Correct        bool      `json:"correct"`
	ReactionTimeMs *int64    `json:"rt_ms"`
	Timestamp      time.Time `json:"timestamp"`
}

// Accuracy is the 0/1 encoding used in exported rows.
func (r TrialRecord) Accuracy() int {
	if r.Correct {
		return 1
	}
	return 0
}

// SessionSummary aggregates the main block once the session completes.
// Accuracy and mean reaction time cover answered trials only; both are nil
// when nothing was answered.
type SessionSummary struct {
	TotalMainTrials    int       `json:"total_main_trials"`
	AnsweredMainTrials int       `json:"answered_main_trials"`
	CorrectMainTrials  int       `json:"correct_main_trials"`
	AccuracyPercent    *float64  `json:"accuracy_percent"`
	MeanReactionTimeMs *int64    `json:"mean_rt_ms"`
	Timestamp          time.Time `json:"timestamp"`
}
