package tui

import (
	"bytes"
	"context"
	"io"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/aretw0/mrt/pkg/domain"
	"github.com/muesli/termenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRenderer(t *testing.T, buf *bytes.Buffer, opts ...Option) *Renderer {
	t.Helper()
	r, err := NewRenderer(buf, append([]Option{WithProfile(termenv.Ascii), WithStyle("notty")}, opts...)...)
	require.NoError(t, err)
	return r
}

func TestRenderer_ShortFrames(t *testing.T) {
	var buf bytes.Buffer
	r := newTestRenderer(t, &buf)
	ctx := context.Background()

	require.NoError(t, r.Render(ctx, domain.Frame{Kind: domain.FrameFixation}))
	require.NoError(t, r.Render(ctx, domain.Frame{Kind: domain.FrameFeedback, Feedback: &domain.Feedback{Text: "Correct", Color: domain.ColorCorrect}}))
	require.NoError(t, r.Render(ctx, domain.Frame{Kind: domain.FrameProgress, Block: domain.BlockMain, Progress: &domain.Progress{Current: 2, Total: 140}}))

	assert.Equal(t, "      +\nCorrect\n[main] 2 / 140\n", buf.String())
}

func TestRenderer_Screens(t *testing.T) {
	var buf bytes.Buffer
	r := newTestRenderer(t, &buf)
	ctx := context.Background()

	require.NoError(t, r.Render(ctx, domain.Frame{Kind: domain.FrameBridge, MainTrials: 140}))
	assert.Contains(t, buf.String(), "140 trials")

	buf.Reset()
	acc, rt := 66.7, int64(1000)
	require.NoError(t, r.Render(ctx, domain.Frame{Kind: domain.FrameComplete, Summary: &domain.SessionSummary{AccuracyPercent: &acc, MeanReactionTimeMs: &rt}}))
	assert.Contains(t, buf.String(), "Task complete")
	assert.Contains(t, buf.String(), "66.7%")
	assert.Contains(t, buf.String(), "1000 ms")

	buf.Reset()
	require.NoError(t, r.Render(ctx, domain.Frame{Kind: domain.FrameComplete, Summary: &domain.SessionSummary{}}))
	assert.Contains(t, buf.String(), "—")
}

func TestRenderer_Intro(t *testing.T) {
	var buf bytes.Buffer
	r := newTestRenderer(t, &buf, WithKeys("d", "k"))
	require.NoError(t, r.Intro(10))
	out := buf.String()
	assert.Contains(t, out, "Mental rotation")
	assert.Regexp(t, `d\W* for same`, out)
	assert.Regexp(t, `k\W* for mirror`, out)
}

func TestRenderer_RawMode(t *testing.T) {
	var buf bytes.Buffer
	r := newTestRenderer(t, &buf, WithRawMode(true))
	require.NoError(t, r.Render(context.Background(), domain.Frame{Kind: domain.FrameFixation}))
	assert.Equal(t, "      +\r\n", buf.String())
}

func TestDecodeKeys(t *testing.T) {
	at := time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC)
	tests := []struct {
		name  string
		in    string
		kinds []domain.InputKind
		value string
	}{
		{"Enter", "\r", []domain.InputKind{domain.InputBegin}, ""},
		{"Space", " ", []domain.InputKind{domain.InputBegin}, ""},
		{"Escape", "\x1b", []domain.InputKind{domain.InputQuit}, ""},
		{"Ctrl C", "\x03", []domain.InputKind{domain.InputQuit}, ""},
		{"Ctrl L", "\x0c", []domain.InputKind{domain.InputRedraw}, ""},
		{"Key", "j", []domain.InputKind{domain.InputAction}, "j"},
		{"Arrow Sequence", "\x1b[A", nil, ""},
		{"Other Control", "\x01", nil, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DecodeKeys([]byte(tt.in), at)
			var kinds []domain.InputKind
			for _, in := range got {
				kinds = append(kinds, in.Kind)
				assert.Equal(t, at, in.At)
			}
			assert.Equal(t, tt.kinds, kinds)
			if tt.value != "" {
				assert.Equal(t, tt.value, got[0].Value)
			}
		})
	}
}

func TestKeyInput(t *testing.T) {
	k := NewKeyInput(strings.NewReader("\rfj\x1b"))
	var got []domain.Input
	for in := range k.Inputs() {
		got = append(got, in)
	}
	require.Len(t, got, 4)
	assert.Equal(t, domain.InputBegin, got[0].Kind)
	assert.Equal(t, "f", got[1].Value)
	assert.Equal(t, "j", got[2].Value)
	assert.Equal(t, domain.InputQuit, got[3].Kind)
	assert.False(t, got[0].At.IsZero())
}

func TestKeyInput_ResizeRedraws(t *testing.T) {
	pr, pw := io.Pipe()
	resize := make(chan os.Signal, 1)
	k := NewKeyInput(pr, WithResize(resize))

	resize <- os.Interrupt
	select {
	case in := <-k.Inputs():
		assert.Equal(t, domain.InputRedraw, in.Kind)
		assert.False(t, in.At.IsZero())
	case <-time.After(2 * time.Second):
		t.Fatal("no redraw after resize")
	}

	go func() {
		_, _ = pw.Write([]byte("f"))
		_ = pw.Close()
	}()
	var got []domain.Input
	for in := range k.Inputs() {
		got = append(got, in)
	}
	require.Len(t, got, 1)
	assert.Equal(t, "f", got[0].Value)
}

func TestPrintBanner(t *testing.T) {
	var buf bytes.Buffer
	PrintBanner(&buf, "0.1.0\n")
	assert.Contains(t, buf.String(), "mental rotation task 0.1.0")
}
