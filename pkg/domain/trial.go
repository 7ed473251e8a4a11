package domain

import "fmt"

// Condition is the ground-truth category of a trial.
type Condition string

const (
	ConditionSame   Condition = "same"
	ConditionMirror Condition = "mirror"
)

// Conditions lists the conditions in generation order.
var Conditions = []Condition{ConditionSame, ConditionMirror}

// PairingPolicy selects how the main block pairs stimulus angles.
type PairingPolicy string

const (
	// PairingSameAngle presents both glyphs at the same rotation (classic design).
	PairingSameAngle PairingPolicy = "same_angle"
	// PairingAllPairs presents every ordered pair of angles from the set.
	PairingAllPairs PairingPolicy = "all_pairs"
)

// TrialSpec describes one stimulus pair. It is immutable once built.
type TrialSpec struct {
	Condition       Condition `json:"condition"`
	Angle           int       `json:"angle"`
	LeftAngle       int       `json:"left_angle"`
	RightAngle      int       `json:"right_angle"`
	LeftMirror      bool      `json:"left_mirror"`
	RightMirror     bool      `json:"right_mirror"`
	AngleDifference int       `json:"angle_difference"`
}

// NewTrialSpec builds a trial with consistent mirror flags and angle difference.
// mirrorLeft is only consulted for mirror trials.
func NewTrialSpec(cond Condition, left, right int, mirrorLeft bool) TrialSpec {
	t := TrialSpec{
		Condition:       cond,
		Angle:           left,
		LeftAngle:       left,
		RightAngle:      right,
		AngleDifference: AngleDifference(left, right),
	}
	if cond == ConditionMirror {
		t.LeftMirror = mirrorLeft
		t.RightMirror = !mirrorLeft
	}
	return t
}

// AngleDifference folds the rotational distance between two angles into [0,180].
func AngleDifference(a, b int) int {
	d := b - a
	if d < 0 {
		d = -d
	}
	d %= 360
	if 360-d < d {
		return 360 - d
	}
	return d
}

// ExpectedResponse is the correct answer for the trial.
func (t TrialSpec) ExpectedResponse() Response {
	if t.Condition == ConditionMirror {
		return ResponseMirror
	}
	return ResponseSame
}

// Validate checks the structural invariants of the trial.
func (t TrialSpec) Validate() error {
	for _, a := range []int{t.LeftAngle, t.RightAngle} {
		if a < 0 || a >= 360 {
			return fmt.Errorf("%w: angle %d outside [0,360)", ErrInvalidTrial, a)
		}
	}
	switch t.Condition {
	case ConditionSame:
		if t.LeftMirror || t.RightMirror {
			return fmt.Errorf("%w: same trial with a mirrored side", ErrInvalidTrial)
		}
	case ConditionMirror:
		if t.LeftMirror == t.RightMirror {
			return fmt.Errorf("%w: mirror trial must mirror exactly one side", ErrInvalidTrial)
		}
	default:
		return fmt.Errorf("%w: unknown condition %q", ErrInvalidTrial, t.Condition)
	}
	if t.AngleDifference != AngleDifference(t.LeftAngle, t.RightAngle) {
		return fmt.Errorf("%w: angle difference %d does not match angles", ErrInvalidTrial, t.AngleDifference)
	}
	return nil
}
