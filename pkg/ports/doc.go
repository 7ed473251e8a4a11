/*
Package ports defines the driven ports (interfaces) of the mrt engine.

These interfaces keep the trial sequencer independent of how frames are drawn,
where inputs come from, and where results go.

# Key Interfaces

  - Renderer: draws fixation, stimulus, feedback, bridge and end frames.
  - InputSource: emits participant and operator inputs.
  - Sink: receives trial and summary envelopes, best effort.
  - IdentifierProvider: supplies the participant identity before trial generation.
  - StateStore: persists SessionState snapshots.
  - DistributedLocker: coordinates exclusive session access across replicas.
*/
package ports
