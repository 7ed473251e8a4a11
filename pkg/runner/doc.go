/*
Package runner drives a trial session in real time.

It is the bridge between the pure sequencer (internal/runtime) and the outside
world: it owns the single pending timer, reads inputs from an InputSource,
draws frames through a Renderer and hands result envelopes to a Sink without
waiting for them.

# Key Components

  - Runner: the single-goroutine event loop.
  - LineInput / TextRenderer: plain text I/O for pipes and scripts.
  - JSONInput / JSONRenderer: JSON-Lines I/O for headless hosts.
  - SignalManager: SIGINT/SIGTERM to context cancellation.

# Usage

	r := runner.NewRunner(
		runner.WithRenderer(renderer),
		runner.WithInput(input),
		runner.WithSink(sink),
	)

	if err := r.Run(ctx, engine, state); err != nil {
		log.Fatal(err)
	}
*/
package runner
