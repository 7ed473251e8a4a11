/*
Package domain contains the core domain models of the mental-rotation task engine.

It defines the trial specifications, the per-trial records, the session state
owned by the sequencer, and the action/event vocabulary exchanged with the host.
This package is kept pure and free of external dependencies like I/O or
persistence, following Hexagonal Architecture principles.

# Key Entities

  - TrialSpec: An immutable stimulus pair (condition, angles, mirror flags).
  - TrialRecord: The append-only result of one resolved trial.
  - SessionState: The runtime snapshot of a session (block, phase, lists, records).
  - ActionRequest: A structural representation of what the host should render or arm.
  - Envelope: The unit handed to logging sinks.
*/
package domain
