package domain

// SessionDiff represents the changes between two session snapshots.
// It is designed to be serialized to JSON for partial updates on the client.
type SessionDiff struct {
	// SessionID is always present to identify the target.
	SessionID string `json:"session_id"`

	Phase *Phase `json:"phase,omitempty"`
	Block *Block `json:"block,omitempty"`
	Index *int   `json:"index,omitempty"`

	// Records contains only records appended since the old snapshot.
	Records []TrialRecord `json:"records,omitempty"`

	Summary *SessionSummary `json:"summary,omitempty"`
}

// Diff calculates the difference between oldState and newState.
// If oldState is nil, it returns a diff representing the entire newState (initial load).
// It returns nil when nothing observable changed.
func Diff(oldState, newState *SessionState) *SessionDiff {
	if newState == nil {
		return nil
	}

	diff := &SessionDiff{
		SessionID: newState.SessionID,
	}

	if oldState == nil || oldState.Phase != newState.Phase {
		p := newState.Phase
		diff.Phase = &p
	}
	if oldState == nil || oldState.Block != newState.Block {
		b := newState.Block
		diff.Block = &b
	}
	if oldState == nil || oldState.Index != newState.Index {
		i := newState.Index
		diff.Index = &i
	}

	// Records are append-only.
	oldLen := 0
	if oldState != nil {
		oldLen = len(oldState.Records)
	}
	if len(newState.Records) > oldLen {
		diff.Records = append([]TrialRecord(nil), newState.Records[oldLen:]...)
	}

	if newState.Summary != nil && (oldState == nil || oldState.Summary == nil) {
		s := *newState.Summary
		diff.Summary = &s
	}

	if diff.IsEmpty() {
		return nil
	}
	return diff
}

// IsEmpty checks if the diff contains any actionable changes.
func (d *SessionDiff) IsEmpty() bool {
	return d.Phase == nil &&
		d.Block == nil &&
		d.Index == nil &&
		len(d.Records) == 0 &&
		d.Summary == nil
}
