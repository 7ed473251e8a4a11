package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/aretw0/mrt/internal/logging"
	"github.com/aretw0/mrt/pkg/domain"
)

// createLogger configures the application logger.
// Without --debug or an explicit level, logging is off so the task owns the terminal.
func createLogger(debug bool, level string) *slog.Logger {
	if debug {
		return logging.New(slog.LevelDebug)
	}
	if level == "" {
		return logging.NewNop()
	}
	lvl, err := logging.ParseLevel(level)
	if err != nil {
		return logging.New(slog.LevelInfo)
	}
	return logging.New(lvl)
}

// printSystemMessage prints a standardized system message.
func printSystemMessage(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, ">>> %s\n", fmt.Sprintf(format, args...))
}

func debugHooks(logger *slog.Logger) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnPhaseEnter: func(ctx context.Context, e *domain.PhaseEvent) {
			logger.Debug("phase enter", "phase", e.Phase, "block", e.Block, "index", e.Index)
		},
		OnTrialResolved: func(ctx context.Context, e *domain.TrialEvent) {
			logger.Debug("trial", "block", e.Record.Block, "index", e.Record.SequenceIndex, "response", e.Record.Response, "correct", e.Record.Correct)
		},
		OnSessionComplete: func(ctx context.Context, e *domain.SummaryEvent) {
			logger.Debug("summary", "answered", e.Summary.AnsweredMainTrials, "total", e.Summary.TotalMainTrials)
		},
		OnSinkError: func(ctx context.Context, e *domain.SinkEvent) {
			logger.Warn("result submission failed", "action", e.Action, "err", e.Err)
		},
	}
}
