package tui

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/aretw0/mrt/pkg/domain"
	"github.com/aretw0/mrt/pkg/runner"
	"github.com/charmbracelet/glamour"
	"github.com/muesli/termenv"
)

// Renderer draws frames on a terminal.
// Short frames are styled with termenv; the bridge and completion screens
// are markdown rendered with glamour.
type Renderer struct {
	mu      sync.Mutex
	out     *termenv.Output
	md      *glamour.TermRenderer
	raw     bool
	sameKey string
	mirKey  string
}

// Option configures the Renderer.
type Option func(*rendererConfig)

type rendererConfig struct {
	profile  termenv.Profile
	style    string
	raw      bool
	same     string
	mirror   string
	wordWrap int
}

// WithProfile forces a color profile instead of detecting one.
func WithProfile(p termenv.Profile) Option {
	return func(c *rendererConfig) {
		c.profile = p
	}
}

// WithStyle selects a glamour style ("dark", "light", "notty"). Empty means auto.
func WithStyle(style string) Option {
	return func(c *rendererConfig) {
		c.style = style
	}
}

// WithRawMode emits CRLF line endings for terminals in raw mode.
func WithRawMode(raw bool) Option {
	return func(c *rendererConfig) {
		c.raw = raw
	}
}

// WithKeys names the response keys in instructions.
func WithKeys(same, mirror string) Option {
	return func(c *rendererConfig) {
		c.same, c.mirror = same, mirror
	}
}

// NewRenderer creates a Renderer writing to w.
func NewRenderer(w io.Writer, opts ...Option) (*Renderer, error) {
	cfg := rendererConfig{profile: -1, same: "f", mirror: "j", wordWrap: 72}
	for _, opt := range opts {
		opt(&cfg)
	}

	outOpts := []termenv.OutputOption{}
	if cfg.profile >= 0 {
		outOpts = append(outOpts, termenv.WithProfile(cfg.profile))
	}

	mdOpts := []glamour.TermRendererOption{glamour.WithWordWrap(cfg.wordWrap)}
	if cfg.style == "" {
		mdOpts = append(mdOpts, glamour.WithAutoStyle())
	} else {
		mdOpts = append(mdOpts, glamour.WithStandardStyle(cfg.style))
	}
	md, err := glamour.NewTermRenderer(mdOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create markdown renderer: %w", err)
	}

	return &Renderer{
		out:     termenv.NewOutput(w, outOpts...),
		md:      md,
		raw:     cfg.raw,
		sameKey: cfg.same,
		mirKey:  cfg.mirror,
	}, nil
}

// Intro renders the opening instructions.
func (r *Renderer) Intro(practice int) error {
	return r.markdown(fmt.Sprintf(`# Mental rotation

Two figures appear side by side. Decide whether the right one is the **same**
figure rotated, or its **mirror** image.

* Press **%s** for same
* Press **%s** for mirror

You will first do %d practice trials with feedback. Press **Enter** to begin, **Esc** to quit.
`, r.sameKey, r.mirKey, practice))
}

// Render draws one frame.
func (r *Renderer) Render(ctx context.Context, f domain.Frame) error {
	switch f.Kind {
	case domain.FrameProgress:
		return r.line(r.out.String(runner.FormatFrame(f)).Faint().String())

	case domain.FrameFixation:
		return r.line(r.out.String("      +").Bold().String())

	case domain.FrameStimulus:
		return r.line(r.out.String(runner.FormatFrame(f)).Bold().String())

	case domain.FrameFeedback:
		if f.Feedback == nil {
			return nil
		}
		s := r.out.String(f.Feedback.Text).Bold()
		if f.Feedback.Color != "" {
			s = s.Foreground(r.out.Color(f.Feedback.Color))
		}
		return r.line(s.String())

	case domain.FrameClearFeedback:
		r.mu.Lock()
		defer r.mu.Unlock()
		r.out.ClearLine()
		return nil

	case domain.FrameBridge:
		return r.markdown(fmt.Sprintf(`## Practice complete

The main task has **%d trials**. There is no feedback from now on.

Press **Enter** to begin.
`, f.MainTrials))

	case domain.FrameComplete:
		acc, rt := "—", "—"
		if f.Summary != nil && f.Summary.AccuracyPercent != nil {
			acc = fmt.Sprintf("%.1f%%", *f.Summary.AccuracyPercent)
		}
		if f.Summary != nil && f.Summary.MeanReactionTimeMs != nil {
			rt = fmt.Sprintf("%d ms", *f.Summary.MeanReactionTimeMs)
		}
		return r.markdown(fmt.Sprintf(`## Task complete

| Accuracy | Mean RT |
|----------|---------|
| %s | %s |
`, acc, rt))
	}
	return nil
}

func (r *Renderer) line(s string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.write(s + "\n")
}

func (r *Renderer) markdown(src string) error {
	out, err := r.md.Render(src)
	if err != nil {
		return fmt.Errorf("failed to render markdown: %w", err)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.write(out)
}

func (r *Renderer) write(s string) error {
	if r.raw {
		s = strings.ReplaceAll(s, "\n", "\r\n")
	}
	_, err := io.WriteString(r.out, s)
	return err
}
