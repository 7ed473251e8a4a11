package runner_test

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/aretw0/mrt/pkg/domain"
	"github.com/aretw0/mrt/pkg/runner"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var at = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

func TestParseLine(t *testing.T) {
	tests := []struct {
		line  string
		kind  domain.InputKind
		value string
	}{
		{"\n", domain.InputBegin, ""},
		{"begin\n", domain.InputBegin, ""},
		{"START", domain.InputBegin, ""},
		{"quit", domain.InputQuit, ""},
		{"exit\r\n", domain.InputQuit, ""},
		{"redraw", domain.InputRedraw, ""},
		{"f\n", domain.InputAction, "f"},
		{"  J ", domain.InputAction, "J"},
		{"mirror", domain.InputAction, "mirror"},
	}
	for _, tt := range tests {
		t.Run(strings.TrimSpace(tt.line), func(t *testing.T) {
			in, ok := runner.ParseLine(tt.line, at)
			require.True(t, ok)
			assert.Equal(t, tt.kind, in.Kind)
			assert.Equal(t, tt.value, in.Value)
			assert.Equal(t, at, in.At)
		})
	}
}

func TestParseLine_RejectsOversized(t *testing.T) {
	_, ok := runner.ParseLine(strings.Repeat("x", 1000), at)
	assert.False(t, ok)
}

func TestDecodeInput(t *testing.T) {
	t.Run("Object", func(t *testing.T) {
		in, ok := runner.DecodeInput(`{"kind":"action","value":"j"}`, at)
		require.True(t, ok)
		assert.Equal(t, domain.InputAction, in.Kind)
		assert.Equal(t, "j", in.Value)
		assert.Equal(t, at, in.At)
	})

	t.Run("Object Keeps Capture Time", func(t *testing.T) {
		captured := at.Add(-50 * time.Millisecond)
		raw, err := json.Marshal(domain.Input{Kind: domain.InputAction, Value: "f", At: captured})
		require.NoError(t, err)

		in, ok := runner.DecodeInput(string(raw), at)
		require.True(t, ok)
		assert.True(t, captured.Equal(in.At))
	})

	t.Run("JSON String", func(t *testing.T) {
		in, ok := runner.DecodeInput(`"quit"`, at)
		require.True(t, ok)
		assert.Equal(t, domain.InputQuit, in.Kind)
	})

	t.Run("Raw Text", func(t *testing.T) {
		in, ok := runner.DecodeInput("same", at)
		require.True(t, ok)
		assert.Equal(t, domain.InputAction, in.Kind)
		assert.Equal(t, "same", in.Value)
	})

	t.Run("Control Characters Stripped", func(t *testing.T) {
		in, ok := runner.DecodeInput(`{"kind":"action","value":"f\u001b[A"}`, at)
		require.True(t, ok)
		assert.Equal(t, "f[A", in.Value)
	})
}

func TestLineInput_ClosesAtEOF(t *testing.T) {
	src := runner.NewLineInput(strings.NewReader("begin\nf\nquit"))
	var got []domain.Input
	for in := range src.Inputs() {
		got = append(got, in)
	}
	require.Len(t, got, 3)
	assert.Equal(t, domain.InputBegin, got[0].Kind)
	assert.Equal(t, "f", got[1].Value)
	assert.Equal(t, domain.InputQuit, got[2].Kind)
}

func TestJSONInput_SkipsBlankLines(t *testing.T) {
	src := runner.NewJSONInput(strings.NewReader("{\"kind\":\"begin\"}\n\n\"j\"\n"))
	var got []domain.Input
	for in := range src.Inputs() {
		got = append(got, in)
	}
	require.Len(t, got, 2)
	assert.Equal(t, domain.InputBegin, got[0].Kind)
	assert.Equal(t, "j", got[1].Value)
}

func TestFormatFrame(t *testing.T) {
	acc, rt := 66.7, int64(1000)
	trial := domain.NewTrialSpec(domain.ConditionMirror, 90, 90, true)

	tests := []struct {
		name  string
		frame domain.Frame
		want  string
	}{
		{"Progress", domain.Frame{Kind: domain.FrameProgress, Block: domain.BlockMain, Progress: &domain.Progress{Current: 3, Total: 140}}, "[main] 3 / 140"},
		{"Fixation", domain.Frame{Kind: domain.FrameFixation}, "+"},
		{"Stimulus", domain.Frame{Kind: domain.FrameStimulus, Trial: &trial}, "L Я@90°  R R@90°"},
		{"Feedback", domain.Frame{Kind: domain.FrameFeedback, Feedback: &domain.Feedback{Text: domain.FeedbackTooSlow}}, "Too slow"},
		{"Clear", domain.Frame{Kind: domain.FrameClearFeedback}, ""},
		{"Bridge", domain.Frame{Kind: domain.FrameBridge, MainTrials: 140}, "Main task: 140 trials, no feedback. Type begin to start."},
		{"Complete", domain.Frame{Kind: domain.FrameComplete, Summary: &domain.SessionSummary{AccuracyPercent: &acc, MeanReactionTimeMs: &rt}}, "Task complete. Accuracy: 66.7% | Mean RT: 1000 ms"},
		{"Complete Unanswered", domain.Frame{Kind: domain.FrameComplete, Summary: &domain.SessionSummary{}}, "Task complete. Accuracy: —% | Mean RT: — ms"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, runner.FormatFrame(tt.frame))
		})
	}
}

func TestTextRenderer(t *testing.T) {
	var buf bytes.Buffer
	r := runner.NewTextRenderer(&buf)
	ctx := context.Background()

	require.NoError(t, r.Render(ctx, domain.Frame{Kind: domain.FrameFixation}))
	require.NoError(t, r.Render(ctx, domain.Frame{Kind: domain.FrameClearFeedback}))
	require.NoError(t, r.Render(ctx, domain.Frame{Kind: domain.FrameFeedback, Feedback: &domain.Feedback{Text: "Correct"}}))

	assert.Equal(t, "+\nCorrect\n", buf.String())
}

func TestJSONRenderer(t *testing.T) {
	var buf bytes.Buffer
	r := runner.NewJSONRenderer(&buf)
	require.NoError(t, r.Render(context.Background(), domain.Frame{Kind: domain.FrameBridge, Block: domain.BlockPractice, MainTrials: 140}))

	var f domain.Frame
	require.NoError(t, json.Unmarshal(buf.Bytes(), &f))
	assert.Equal(t, domain.FrameBridge, f.Kind)
	assert.Equal(t, 140, f.MainTrials)
}

func TestSanitizeInput(t *testing.T) {
	t.Run("Plain", func(t *testing.T) {
		out, err := runner.SanitizeInput("f")
		require.NoError(t, err)
		assert.Equal(t, "f", out)
	})

	t.Run("Control Characters", func(t *testing.T) {
		out, err := runner.SanitizeInput("j\x00\x07")
		require.NoError(t, err)
		assert.Equal(t, "j", out)
	})

	t.Run("Invalid UTF-8", func(t *testing.T) {
		_, err := runner.SanitizeInput("\xff\xfe")
		assert.ErrorIs(t, err, runner.ErrInvalidUTF8)
	})

	t.Run("Too Large", func(t *testing.T) {
		_, err := runner.SanitizeInput(strings.Repeat("a", runner.DefaultMaxInputSize+1))
		assert.ErrorIs(t, err, runner.ErrInputTooLarge)
	})

	t.Run("Env Override", func(t *testing.T) {
		t.Setenv(runner.EnvMaxInputSize, "4")
		_, err := runner.SanitizeInput("abcde")
		assert.ErrorIs(t, err, runner.ErrInputTooLarge)
	})
}
