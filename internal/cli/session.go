package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	goruntime "runtime"
	"strings"

	"github.com/aretw0/mrt"
	"github.com/aretw0/mrt/internal/presentation/tui"
	mrtruntime "github.com/aretw0/mrt/internal/runtime"
	"github.com/aretw0/mrt/pkg/adapters/file"
	"github.com/aretw0/mrt/pkg/dispatch"
	"github.com/aretw0/mrt/pkg/domain"
	"github.com/aretw0/mrt/pkg/identity"
	"github.com/aretw0/mrt/pkg/ports"
	"github.com/aretw0/mrt/pkg/runner"
	"github.com/aretw0/mrt/pkg/session"
)

// ErrNotResumable is returned when a persisted session stopped mid-trial.
var ErrNotResumable = errors.New("session cannot be resumed")

// Streams are the standard streams of a run.
type Streams struct {
	In  io.Reader
	Out io.Writer
	Err io.Writer
}

// StdStreams returns the process streams.
func StdStreams() Streams {
	return Streams{In: os.Stdin, Out: os.Stdout, Err: os.Stderr}
}

// RunSession runs one local session from identity entry to result export.
func RunSession(ctx context.Context, opts RunOptions, streams Streams) error {
	if err := opts.Validate(); err != nil {
		return err
	}
	logger := createLogger(opts.Debug, opts.LogLevel)
	msg := streams.Out
	if opts.quiet() {
		msg = streams.Err
	}

	backends, err := OpenBackends(opts.Backends, opts.Config, logger)
	if err != nil {
		return fmt.Errorf("failed to open backends: %w", err)
	}
	defer backends.Close()

	hooks := debugHooks(logger)
	engine, err := mrt.New(opts.Config,
		mrt.WithLogger(logger),
		mrt.WithLifecycleHooks(hooks),
		mrt.WithClientMetadata(clientMetadata()),
	)
	if err != nil {
		return err
	}

	signals := runner.NewSignalManager(ctx)
	defer signals.Stop()
	ctx = signals.Context()

	state, resumed, err := hydrate(ctx, engine, opts, backends.Store, logger)
	if err != nil {
		return fmt.Errorf("failed to init session: %w", err)
	}
	if resumed {
		printSystemMessage(msg, "Resuming session '%s' at %s.", state.SessionID, state.Phase)
	}

	if !state.Terminated() {
		renderer, input, restore, err := setupIO(ctx, opts, streams, state)
		if err != nil {
			return err
		}

		runErr := engine.Run(ctx, state,
			runner.WithRenderer(renderer),
			runner.WithInput(input),
			runner.WithStore(backends.Store),
			runner.WithSink(backends.Sink(),
				dispatch.WithTimeout(opts.Config.SinkTimeout()),
				dispatch.WithLogger(logger),
				dispatch.WithLifecycleHooks(hooks)),
		)
		restore()

		if err := exportResults(msg, opts.Output, state); err != nil {
			logger.Error("export failed", "err", err)
			printSystemMessage(msg, "Export failed: %v", err)
		}
		reportCompletion(msg, state, runErr, signals.Interrupted())
		return handleExecutionError(runErr)
	}

	printSystemMessage(msg, "Session '%s' is already complete. %s", state.SessionID, runner.FormatSummary(state.Summary))
	return exportResults(msg, opts.Output, state)
}

// hydrate loads the named session from the store or creates a fresh one.
func hydrate(ctx context.Context, engine *mrt.Engine, opts RunOptions, store ports.StateStore, logger *slog.Logger) (*domain.SessionState, bool, error) {
	ident, err := identity.NewGenerated(identity.Static{
		ParticipantID: opts.ParticipantID,
		SessionCode:   opts.SessionCode,
	}).Identify(ctx)
	if err != nil {
		return nil, false, err
	}

	created := false
	create := func() (*domain.SessionState, error) {
		created = true
		s, err := engine.NewSession(ctx, ident)
		if err != nil {
			return nil, err
		}
		if opts.SessionID != "" {
			s.SessionID = opts.SessionID
		}
		return s, nil
	}

	if store == nil || opts.SessionID == "" {
		s, err := create()
		return s, false, err
	}

	mgr := session.NewManager(store, session.WithLogger(logger))
	if opts.Fresh {
		if err := mgr.Delete(ctx, opts.SessionID); err != nil && !errors.Is(err, domain.ErrSessionNotFound) {
			return nil, false, err
		}
	}
	state, err := mgr.LoadOrCreate(ctx, opts.SessionID, create)
	if err != nil {
		return nil, false, err
	}
	if created {
		return state, false, nil
	}

	switch state.Phase {
	case domain.PhaseIdle, domain.PhaseBridge, domain.PhaseComplete:
		logger.Info("session resumed", "session_id", state.SessionID, "phase", state.Phase, "records", len(state.Records))
		return state, true, nil
	}
	return nil, false, fmt.Errorf("%w: '%s' stopped during %s; use --fresh to restart", ErrNotResumable, state.SessionID, state.Phase)
}

// setupIO builds the renderer and input source of the selected mode.
func setupIO(ctx context.Context, opts RunOptions, streams Streams, state *domain.SessionState) (ports.Renderer, ports.InputSource, func(), error) {
	restore := func() {}
	cfg := opts.Config

	var renderer ports.Renderer
	var input ports.InputSource
	switch opts.Mode {
	case ModeJSON:
		return runner.NewJSONRenderer(streams.Out), runner.NewJSONInput(streams.In), restore, nil

	case ModeText:
		text := runner.NewTextRenderer(streams.Out)
		renderer, input = text, runner.NewLineInput(streams.In)
		if state.Phase == domain.PhaseIdle {
			fmt.Fprintf(streams.Out, "Same: %s  Mirror: %s  Quit: quit\nType begin to start %d practice trials.\n",
				cfg.SameKey, cfg.MirrorKey, len(state.Practice))
		}

	case ModeTUI:
		raw := false
		if f, ok := streams.In.(*os.File); ok {
			var err error
			if restore, raw, err = tui.MakeRaw(f); err != nil {
				return nil, nil, restore, fmt.Errorf("failed to enter raw mode: %w", err)
			}
		}
		r, err := tui.NewRenderer(streams.Out, tui.WithRawMode(raw), tui.WithKeys(cfg.SameKey, cfg.MirrorKey))
		if err != nil {
			restore()
			return nil, nil, func() {}, err
		}
		tui.PrintBanner(streams.Out, mrt.Version)
		if state.Phase == domain.PhaseIdle {
			if err := r.Intro(len(state.Practice)); err != nil {
				restore()
				return nil, nil, func() {}, err
			}
		}
		var keyOpts []tui.KeyOption
		if raw {
			resize, stop := tui.NotifyResize()
			keyOpts = append(keyOpts, tui.WithResize(resize))
			restoreTerm := restore
			restore = func() {
				stop()
				restoreTerm()
			}
		}
		renderer, input = r, tui.NewKeyInput(streams.In, keyOpts...)
	}

	if state.Phase == domain.PhaseBridge {
		_ = renderer.Render(ctx, mrtruntime.BridgeFrame(state))
	}
	return renderer, input, restore, nil
}

// exportResults writes the trial records once the run ends, whatever the outcome.
func exportResults(w io.Writer, output string, state *domain.SessionState) error {
	if output == "-" || len(state.Records) == 0 {
		return nil
	}
	if output == "" {
		output = file.ExportName(state, "csv")
	}
	if err := file.Export(output, state.Records); err != nil {
		return err
	}
	printSystemMessage(w, "%d trial records written to %s", len(state.Records), output)
	return nil
}

func reportCompletion(w io.Writer, state *domain.SessionState, err error, interrupted bool) {
	switch {
	case err == nil:
		printSystemMessage(w, "Session '%s' complete. %s", state.SessionID, runner.FormatSummary(state.Summary))
	case errors.Is(err, runner.ErrAborted):
		printSystemMessage(w, "Aborted during %s after %d trials.", state.Phase, len(state.Records))
	case interrupted && isInterrupted(err):
		printSystemMessage(w, "Interrupted during %s after %d trials.", state.Phase, len(state.Records))
	}
}

func isInterrupted(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, runner.ErrAborted)
}

func handleExecutionError(err error) error {
	if err == nil || isInterrupted(err) {
		return nil
	}
	return err
}

func clientMetadata() map[string]string {
	return map[string]string{
		"client":      "mrt-cli",
		"app_version": strings.TrimSpace(mrt.Version),
		"os":          goruntime.GOOS,
	}
}
