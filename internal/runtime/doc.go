// Package runtime implements the trial sequencer.
//
// The Engine drives a SessionState through fixation, stimulus, resolution and
// the inter-trial interval, and across the practice, bridge and main blocks.
// Hosts feed it events and perform the returned actions; see pkg/runner for
// the real-time host.
package runtime
