package domain

import (
	"maps"
	"time"
)

// Phase is the state of the trial sequencer.
type Phase string

const (
	PhaseIdle       Phase = "idle"        // Waiting for the operator to begin practice
	PhaseFixation   Phase = "fixation"    // Fixation mark shown, hold timer pending
	PhaseStimulus   Phase = "stimulus"    // Stimulus shown, response window open
	PhaseResolving  Phase = "resolving"   // Transient: scoring and recording
	PhaseInterTrial Phase = "inter_trial" // Inter-trial interval, feedback may be visible
	PhaseBridge     Phase = "bridge"      // Practice done, waiting for the operator to begin main
	PhaseComplete   Phase = "complete"    // Sink state
)

// Identity carries the participant identifiers of a session.
type Identity struct {
	ParticipantID string `json:"participant_id"`
	SessionCode   string `json:"session_code"`
	// Fallback is used as seed key when neither identifier is set.
	Fallback string `json:"fallback,omitempty"`
}

// SeedKey returns the string the trial order is derived from.
// The session code wins over the participant ID.
func (i Identity) SeedKey() string {
	if i.SessionCode != "" {
		return i.SessionCode
	}
	if i.ParticipantID != "" {
		return i.ParticipantID
	}
	return i.Fallback
}

// SessionState is the single mutable object owned by the sequencer.
type SessionState struct {
	SessionID string   `json:"session_id"`
	Identity  Identity `json:"identity"`
	Seed      uint32   `json:"seed"`
	// Overrides are the per-session configuration overrides a remote host
	// applied when it created the session.
	Overrides map[string]any `json:"overrides,omitempty"`

	Block Block `json:"block"`
	Phase Phase `json:"phase"`
	// Index is the 0-based position of Current within the active block.
	Index int `json:"index"`

	Practice []TrialSpec `json:"practice"`
	Main     []TrialSpec `json:"main"`

	Current  *TrialSpec `json:"current,omitempty"`
	Onset    time.Time  `json:"onset,omitempty"`
	Deadline time.Time  `json:"deadline,omitempty"`

	// Token identifies the single pending timer. Any timer event carrying
	// another token is stale.
	Token uint64 `json:"token"`
	// Listening is true while the response window is open.
	Listening bool `json:"listening"`

	// Records is the in-memory result log. Append-only.
	Records []TrialRecord   `json:"records"`
	Summary *SessionSummary `json:"summary,omitempty"`

	// Feedback holds the practice feedback visible during the inter-trial interval.
	Feedback *Feedback `json:"feedback,omitempty"`
}

// NewSessionState creates an idle session positioned before the practice block.
func NewSessionState(sessionID string, identity Identity, seed uint32) *SessionState {
	return &SessionState{
		SessionID: sessionID,
		Identity:  identity,
		Seed:      seed,
		Block:     BlockPractice,
		Phase:     PhaseIdle,
		Records:   []TrialRecord{},
	}
}

// Trials returns the trial list of the active block.
func (s *SessionState) Trials() []TrialSpec {
	switch s.Block {
	case BlockPractice:
		return s.Practice
	case BlockMain:
		return s.Main
	}
	return nil
}

// Terminated reports whether the session reached the complete phase.
func (s *SessionState) Terminated() bool {
	return s.Phase == PhaseComplete
}

// Snapshot returns a deep copy safe to hand to another goroutine or a store.
func (s *SessionState) Snapshot() *SessionState {
	c := *s
	c.Overrides = maps.Clone(s.Overrides)
	c.Practice = append([]TrialSpec(nil), s.Practice...)
	c.Main = append([]TrialSpec(nil), s.Main...)
	c.Records = make([]TrialRecord, len(s.Records))
	for i, r := range s.Records {
		if r.ReactionTimeMs != nil {
			rt := *r.ReactionTimeMs
			r.ReactionTimeMs = &rt
		}
		c.Records[i] = r
	}
	if s.Current != nil {
		cur := *s.Current
		c.Current = &cur
	}
	if s.Summary != nil {
		sum := *s.Summary
		c.Summary = &sum
	}
	if s.Feedback != nil {
		fb := *s.Feedback
		c.Feedback = &fb
	}
	return &c
}
