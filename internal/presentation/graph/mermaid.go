// Package graph renders the trial sequencer's phase machine as a Mermaid flowchart.
package graph

import (
	"fmt"
	"strings"

	"github.com/aretw0/mrt/pkg/config"
	"github.com/aretw0/mrt/pkg/domain"
)

// Transition is one edge of the phase machine.
type Transition struct {
	From, To domain.Phase
	Label    string
	// Operator marks edges driven by an operator command instead of a timer or response.
	Operator bool
}

// Overlay contains session data to visualize on the graph.
type Overlay struct {
	Visited []domain.Phase
	Current domain.Phase
}

// Transitions lists the edges of the phase machine with the timings of cfg.
func Transitions(cfg config.Config) []Transition {
	return []Transition{
		{From: domain.PhaseIdle, To: domain.PhaseFixation, Label: "begin", Operator: true},
		{From: domain.PhaseFixation, To: domain.PhaseStimulus, Label: fmt.Sprintf("%dms", cfg.FixationMs)},
		{From: domain.PhaseStimulus, To: domain.PhaseResolving, Label: strings.ToLower(cfg.SameKey) + " / " + strings.ToLower(cfg.MirrorKey)},
		{From: domain.PhaseStimulus, To: domain.PhaseResolving, Label: fmt.Sprintf("timeout %dms", cfg.MaxResponseMs)},
		{From: domain.PhaseResolving, To: domain.PhaseInterTrial, Label: "record"},
		{From: domain.PhaseInterTrial, To: domain.PhaseFixation, Label: fmt.Sprintf("%dms, next trial", cfg.InterTrialMs)},
		{From: domain.PhaseInterTrial, To: domain.PhaseBridge, Label: fmt.Sprintf("after %d practice", cfg.PracticeTrials)},
		{From: domain.PhaseBridge, To: domain.PhaseFixation, Label: "begin", Operator: true},
		{From: domain.PhaseInterTrial, To: domain.PhaseComplete, Label: "last main trial"},
	}
}

// OverlayFor derives the visited and current phases of a session.
func OverlayFor(s *domain.SessionState) *Overlay {
	o := &Overlay{Current: s.Phase, Visited: []domain.Phase{domain.PhaseIdle}}
	if len(s.Records) > 0 || s.Phase != domain.PhaseIdle {
		o.Visited = append(o.Visited, domain.PhaseFixation)
	}
	if len(s.Records) > 0 {
		o.Visited = append(o.Visited, domain.PhaseStimulus, domain.PhaseResolving, domain.PhaseInterTrial)
	}
	if s.Block == domain.BlockMain || s.Block == domain.BlockComplete {
		o.Visited = append(o.Visited, domain.PhaseBridge)
	}
	return o
}

// GenerateMermaid produces a Mermaid flowchart from the transitions.
// It applies semantic styling:
// - Idle and bridge wait for the operator: ((Circle))
// - Stimulus waits for the participant: [/Parallelogram/]
// - Complete is terminal: [[Subroutine]]
// - Default: [Rectangle]
func GenerateMermaid(transitions []Transition, overlay *Overlay) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")

	seen := make(map[domain.Phase]bool)
	declare := func(p domain.Phase) {
		if seen[p] {
			return
		}
		seen[p] = true
		opener, closer := "[", "]"
		switch p {
		case domain.PhaseIdle, domain.PhaseBridge:
			opener, closer = "((", "))"
		case domain.PhaseStimulus:
			opener, closer = "[/", "/]"
		case domain.PhaseComplete:
			opener, closer = "[[", "]]"
		}
		fmt.Fprintf(&sb, "    %s%s\"%s\"%s\n", sanitizeMermaidID(string(p)), opener, p, closer)
	}

	for _, t := range transitions {
		declare(t.From)
		declare(t.To)
		arrow := "-->"
		if t.Label != "" {
			label := strings.ReplaceAll(t.Label, "\"", "'")
			arrow = fmt.Sprintf("-- \"%s\" -->", label)
			if t.Operator {
				arrow = fmt.Sprintf("-. \"%s\" .->", label)
			}
		} else if t.Operator {
			arrow = "-.->"
		}
		fmt.Fprintf(&sb, "    %s %s %s\n", sanitizeMermaidID(string(t.From)), arrow, sanitizeMermaidID(string(t.To)))
	}

	if overlay != nil {
		sb.WriteString("\n    %% Overlay Styles\n")
		// Black text stays readable on light and dark themes.
		sb.WriteString("    classDef visited fill:#e1f5fe,stroke:#01579b,stroke-width:2px,color:#000;\n")
		sb.WriteString("    classDef current fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")

		styled := make(map[domain.Phase]bool)
		for _, p := range overlay.Visited {
			if p == overlay.Current || styled[p] || !seen[p] {
				continue
			}
			styled[p] = true
			fmt.Fprintf(&sb, "    class %s visited;\n", sanitizeMermaidID(string(p)))
		}
		if overlay.Current != "" {
			fmt.Fprintf(&sb, "    class %s current;\n", sanitizeMermaidID(string(overlay.Current)))
		}
	}

	return sb.String()
}

func sanitizeMermaidID(id string) string {
	return strings.NewReplacer(".", "_", "-", "_", "/", "_", "\\", "_").Replace(id)
}
