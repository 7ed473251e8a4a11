package domain

import "errors"

// ErrInvalidTrial is returned when a TrialSpec breaks its invariants.
var ErrInvalidTrial = errors.New("invalid trial")

// ErrInvalidTransition is returned when an event is not accepted in the current phase.
var ErrInvalidTransition = errors.New("invalid transition")

// ErrSessionComplete is returned when an event reaches a completed session.
var ErrSessionComplete = errors.New("session complete")

// ErrSessionNotFound is returned when a session ID cannot be found in the store.
var ErrSessionNotFound = errors.New("session not found")
