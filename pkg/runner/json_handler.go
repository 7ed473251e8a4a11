package runner

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/aretw0/mrt/pkg/domain"
)

// JSONInput reads JSON-Lines inputs. Each line is either an Input object
// ({"kind":"action","value":"f"}) or a bare JSON or raw string handled like LineInput.
type JSONInput struct {
	Reader *bufio.Reader
	Clock  func() time.Time

	ch        chan domain.Input
	startOnce sync.Once
}

// NewJSONInput creates a JSON-Lines input source. A nil reader means Stdin.
func NewJSONInput(r io.Reader) *JSONInput {
	if r == nil {
		r = os.Stdin
	}
	return &JSONInput{Reader: bufio.NewReader(r), Clock: time.Now}
}

// Inputs starts the pump on first use and returns its channel.
func (h *JSONInput) Inputs() <-chan domain.Input {
	h.startOnce.Do(func() {
		h.ch = make(chan domain.Input, DefaultInputBufferSize)
		go h.pump()
	})
	return h.ch
}

func (h *JSONInput) pump() {
	defer close(h.ch)
	for {
		text, err := h.Reader.ReadString('\n')
		at := h.Clock()
		if strings.TrimSpace(text) != "" {
			if in, ok := DecodeInput(text, at); ok {
				h.ch <- in
			}
		}
		if err != nil {
			return
		}
	}
}

// DecodeInput parses one JSON line. Timestamps default to at.
func DecodeInput(line string, at time.Time) (domain.Input, bool) {
	text := strings.TrimSpace(line)

	var in domain.Input
	if err := json.Unmarshal([]byte(text), &in); err == nil && in.Kind != "" {
		clean, err := SanitizeInput(in.Value)
		if err != nil {
			return domain.Input{}, false
		}
		in.Value = clean
		if in.At.IsZero() {
			in.At = at
		}
		return in, true
	}

	// Try to unquote if it's a JSON string
	var val string
	if err := json.Unmarshal([]byte(text), &val); err == nil {
		return ParseLine(val, at)
	}
	// Fallback: raw text
	return ParseLine(text, at)
}

// JSONRenderer emits each frame as one JSON line.
type JSONRenderer struct {
	Encoder *json.Encoder
	mu      sync.Mutex
}

// NewJSONRenderer creates a JSON-Lines renderer. A nil writer means Stdout.
func NewJSONRenderer(w io.Writer) *JSONRenderer {
	if w == nil {
		w = os.Stdout
	}
	return &JSONRenderer{Encoder: json.NewEncoder(w)}
}

// Render implements ports.Renderer.
func (h *JSONRenderer) Render(ctx context.Context, f domain.Frame) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.Encoder.Encode(f)
}
