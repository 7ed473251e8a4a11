package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAngleDifference(t *testing.T) {
	tests := []struct {
		a, b int
		want int
	}{
		{0, 0, 0},
		{0, 30, 30},
		{30, 0, 30},
		{0, 180, 180},
		{180, 0, 180},
		{0, 270, 90},
		{350, 10, 20},
		{90, 300, 150},
		{120, 150, 30},
	}
	for _, tt := range tests {
		got := AngleDifference(tt.a, tt.b)
		assert.Equal(t, tt.want, got, "AngleDifference(%d, %d)", tt.a, tt.b)
		assert.GreaterOrEqual(t, got, 0)
		assert.LessOrEqual(t, got, 180)
	}
}

func TestNewTrialSpec_MirrorFlags(t *testing.T) {
	same := NewTrialSpec(ConditionSame, 60, 60, true)
	assert.False(t, same.LeftMirror)
	assert.False(t, same.RightMirror)
	assert.Equal(t, ResponseSame, same.ExpectedResponse())
	require.NoError(t, same.Validate())

	left := NewTrialSpec(ConditionMirror, 60, 60, true)
	assert.True(t, left.LeftMirror)
	assert.False(t, left.RightMirror)
	assert.Equal(t, ResponseMirror, left.ExpectedResponse())
	require.NoError(t, left.Validate())

	right := NewTrialSpec(ConditionMirror, 60, 60, false)
	assert.False(t, right.LeftMirror)
	assert.True(t, right.RightMirror)
	require.NoError(t, right.Validate())
}

func TestNewTrialSpec_OppositeAngles(t *testing.T) {
	spec := NewTrialSpec(ConditionSame, 0, 180, false)
	assert.Equal(t, 180, spec.AngleDifference)
	assert.Equal(t, 0, spec.Angle)
}

func TestTrialSpec_Validate(t *testing.T) {
	tests := []struct {
		name string
		spec TrialSpec
	}{
		{"Angle out of range", TrialSpec{Condition: ConditionSame, LeftAngle: 360}},
		{"Negative angle", TrialSpec{Condition: ConditionSame, RightAngle: -30}},
		{"Same with mirror", TrialSpec{Condition: ConditionSame, LeftMirror: true}},
		{"Mirror with neither side", TrialSpec{Condition: ConditionMirror}},
		{"Mirror with both sides", TrialSpec{Condition: ConditionMirror, LeftMirror: true, RightMirror: true}},
		{"Unknown condition", TrialSpec{Condition: "rotated"}},
		{"Stale difference", TrialSpec{Condition: ConditionSame, LeftAngle: 0, RightAngle: 90, AngleDifference: 30}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, tt.spec.Validate(), ErrInvalidTrial)
		})
	}
}

func TestIdentity_SeedKey(t *testing.T) {
	assert.Equal(t, "CODE", Identity{ParticipantID: "p1", SessionCode: "CODE", Fallback: "x"}.SeedKey())
	assert.Equal(t, "p1", Identity{ParticipantID: "p1", Fallback: "x"}.SeedKey())
	assert.Equal(t, "x", Identity{Fallback: "x"}.SeedKey())
}

func TestSessionState_Snapshot(t *testing.T) {
	rt := int64(420)
	s := NewSessionState("s1", Identity{ParticipantID: "p"}, 7)
	s.Practice = []TrialSpec{NewTrialSpec(ConditionSame, 0, 0, false)}
	s.Current = &s.Practice[0]
	s.Records = append(s.Records, TrialRecord{Block: BlockPractice, SequenceIndex: 1, ReactionTimeMs: &rt})

	snap := s.Snapshot()
	*snap.Records[0].ReactionTimeMs = 1
	snap.Practice[0].Angle = 90
	snap.Current.Angle = 180
	snap.Records = append(snap.Records, TrialRecord{})

	assert.Equal(t, int64(420), *s.Records[0].ReactionTimeMs)
	assert.Equal(t, 0, s.Practice[0].Angle)
	assert.Equal(t, 0, s.Current.Angle)
	assert.Len(t, s.Records, 1)
}

func TestSessionState_Trials(t *testing.T) {
	s := NewSessionState("s1", Identity{}, 1)
	s.Practice = []TrialSpec{{}, {}}
	s.Main = []TrialSpec{{}, {}, {}}

	assert.Len(t, s.Trials(), 2)
	s.Block = BlockMain
	assert.Len(t, s.Trials(), 3)
	s.Block = BlockComplete
	assert.Nil(t, s.Trials())
}

func TestEnvelope_Flatten(t *testing.T) {
	rt := int64(812)
	rec := TrialRecord{
		Trial:          NewTrialSpec(ConditionMirror, 30, 90, false),
		Block:          BlockMain,
		SequenceIndex:  4,
		Response:       ResponseSame,
		Correct:        false,
		ReactionTimeMs: &rt,
	}
	env := Envelope{
		Action:        EnvelopeTrial,
		Version:       DefaultSchemaVersion,
		ParticipantID: "p1",
		SessionID:     "s1",
		Client: map[string]string{
			"user_agent": "test",
			"version":    "0.1.0",
			"session_id": "spoofed",
		},
		Record: &rec,
	}

	row := env.Flatten()
	assert.Equal(t, "main", row["block"])
	assert.Equal(t, 4, row["trial_index"])
	assert.Equal(t, "mirror", row["condition"])
	assert.Equal(t, 0, row["left_mirror"])
	assert.Equal(t, 1, row["right_mirror"])
	assert.Equal(t, 60, row["angle_difference"])
	assert.Equal(t, "same", row["response"])
	assert.Equal(t, "mirror", row["correct_response"])
	assert.Equal(t, 0, row["accuracy"])
	assert.Equal(t, int64(812), row["rt_ms"])
	assert.Equal(t, "test", row["user_agent"])
	assert.Equal(t, "mrt-v1.0", row["version"])
	assert.Equal(t, "s1", row["session_id"])
	assert.Equal(t, "trial", row["action"])

	rec.ReactionTimeMs = nil
	row = env.Flatten()
	v, ok := row["rt_ms"]
	assert.True(t, ok)
	assert.Nil(t, v)
}
