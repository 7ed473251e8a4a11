/*
Package mrt is a trial-sequence engine for mental-rotation experiments.

A session presents pairs of rotated glyphs and times a binary same/mirror
judgment. The engine generates a balanced, reproducible trial order from a
participant identifier and runs each trial through a strict timing loop:
fixation, stimulus, response or timeout, practice feedback and an
inter-trial interval. Every trial resolves exactly once.

# Concept

The sequencer is a pure state machine over domain.SessionState. It never
sleeps or reads the clock: the host feeds it events (begin, timer, input,
redraw) stamped with their capture time, and performs the side effects it
returns (render a frame, arm or cancel the single timer, submit a result).
pkg/runner is the real-time host used by the CLI; the HTTP adapter hosts
sessions remotely.

# Usage

	cfg := config.Default()
	eng, err := mrt.New(cfg)
	if err != nil {
		log.Fatal(err)
	}

	state, err := eng.NewSession(ctx, domain.Identity{ParticipantID: "P017"})
	if err != nil {
		log.Fatal(err)
	}

	err = eng.Run(ctx, state,
		runner.WithRenderer(runner.NewTextRenderer(os.Stdout)),
		runner.WithInput(runner.NewLineInput(os.Stdin)),
		runner.WithSink(webhook.New(cfg.SheetsURL)),
	)

The same identifier always yields the same trial order.
*/
package mrt
