package config

import "errors"

// Configuration errors. All of them are fatal and raised before the first trial.
var (
	ErrEmptyAngleSet          = errors.New("angle set must not be empty")
	ErrAngleRange             = errors.New("angle must be in [0,360)")
	ErrDuplicateAngle         = errors.New("duplicate angle")
	ErrUnknownPairing         = errors.New("unknown pairing policy")
	ErrNonPositiveRepetitions = errors.New("repetitions must be positive")
	ErrInvalidTrialCap        = errors.New("main trial cap must be a non-negative even number")
	ErrPracticeCount          = errors.New("practice trial count must be at least 2")
	ErrInvalidDuration        = errors.New("invalid duration")
	ErrKeyMapping             = errors.New("same and mirror keys must be distinct and non-empty")
	ErrInvalidOverride        = errors.New("invalid config override")
)
