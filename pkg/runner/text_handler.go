package runner

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/aretw0/mrt/pkg/domain"
)

// LineInput reads one input per line: "begin" (or an empty line) starts a
// block, "quit"/"exit" aborts, "redraw" re-renders, anything else is a
// response key.
type LineInput struct {
	Reader *bufio.Reader
	Clock  func() time.Time

	ch        chan domain.Input
	startOnce sync.Once
}

// NewLineInput creates a line-based input source. A nil reader means Stdin.
func NewLineInput(r io.Reader) *LineInput {
	if r == nil {
		r = os.Stdin
	}
	return &LineInput{
		Reader: bufio.NewReader(r),
		Clock:  time.Now,
	}
}

// Inputs starts the pump on first use and returns its channel.
func (h *LineInput) Inputs() <-chan domain.Input {
	h.startOnce.Do(func() {
		h.ch = make(chan domain.Input, DefaultInputBufferSize)
		go h.pump()
	})
	return h.ch
}

func (h *LineInput) pump() {
	defer close(h.ch)
	for {
		text, err := h.Reader.ReadString('\n')
		at := h.Clock()

		// If we got text (even with EOF), send it
		if text != "" || err == nil {
			if in, ok := ParseLine(text, at); ok {
				h.ch <- in
			}
		}
		if err != nil {
			return
		}
	}
}

// ParseLine converts a text line into an Input. ok is false for lines that
// fail sanitization.
func ParseLine(line string, at time.Time) (domain.Input, bool) {
	clean, err := SanitizeInput(strings.TrimSpace(line))
	if err != nil {
		return domain.Input{}, false
	}
	switch strings.ToLower(clean) {
	case "", "begin", "start":
		return domain.Input{Kind: domain.InputBegin, At: at}, true
	case "quit", "exit":
		return domain.Input{Kind: domain.InputQuit, At: at}, true
	case "redraw":
		return domain.Input{Kind: domain.InputRedraw, At: at}, true
	}
	return domain.Input{Kind: domain.InputAction, Value: clean, At: at}, true
}

// TextRenderer prints frames as plain text lines.
type TextRenderer struct {
	Writer io.Writer
	mu     sync.Mutex
}

// NewTextRenderer creates a plain text renderer. A nil writer means Stdout.
func NewTextRenderer(w io.Writer) *TextRenderer {
	if w == nil {
		w = os.Stdout
	}
	return &TextRenderer{Writer: w}
}

// Render implements ports.Renderer.
func (h *TextRenderer) Render(ctx context.Context, f domain.Frame) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	line := FormatFrame(f)
	if line == "" {
		return nil
	}
	_, err := fmt.Fprintln(h.Writer, line)
	return err
}

// FormatFrame is the one-line text form of a frame. Empty for frames with no text.
func FormatFrame(f domain.Frame) string {
	switch f.Kind {
	case domain.FrameProgress:
		if f.Progress == nil {
			return ""
		}
		return fmt.Sprintf("[%s] %d / %d", f.Block, f.Progress.Current, f.Progress.Total)
	case domain.FrameFixation:
		return "+"
	case domain.FrameStimulus:
		if f.Trial == nil {
			return ""
		}
		return fmt.Sprintf("L %s  R %s", glyph(f.Trial.LeftAngle, f.Trial.LeftMirror), glyph(f.Trial.RightAngle, f.Trial.RightMirror))
	case domain.FrameFeedback:
		if f.Feedback == nil {
			return ""
		}
		return f.Feedback.Text
	case domain.FrameBridge:
		return fmt.Sprintf("Main task: %d trials, no feedback. Type begin to start.", f.MainTrials)
	case domain.FrameComplete:
		return "Task complete. " + FormatSummary(f.Summary)
	}
	return ""
}

// FormatSummary renders accuracy and mean reaction time, or a dash when nothing was answered.
func FormatSummary(s *domain.SessionSummary) string {
	acc, rt := "—", "—"
	if s != nil && s.AccuracyPercent != nil {
		acc = fmt.Sprintf("%.1f", *s.AccuracyPercent)
	}
	if s != nil && s.MeanReactionTimeMs != nil {
		rt = fmt.Sprintf("%d", *s.MeanReactionTimeMs)
	}
	return fmt.Sprintf("Accuracy: %s%% | Mean RT: %s ms", acc, rt)
}

func glyph(angle int, mirror bool) string {
	if mirror {
		return fmt.Sprintf("Я@%d°", angle)
	}
	return fmt.Sprintf("R@%d°", angle)
}
