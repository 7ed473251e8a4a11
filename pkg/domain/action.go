package domain

import (
	"time"
)

// ActionRequest represents a side-effect that the sequencer requests the host to perform.
type ActionRequest struct {
	Type    string `json:"type"`
	Payload any    `json:"payload,omitempty"`
}

// Standard Action Types
const (
	// ActionRender requests the host to draw a frame.
	// Payload: Frame
	ActionRender = "RENDER"

	// ActionArmTimer requests the host to replace the pending timer.
	// Payload: TimerRequest
	ActionArmTimer = "ARM_TIMER"

	// ActionCancelTimer requests the host to drop the pending timer.
	// Payload: uint64 (the token being cancelled)
	ActionCancelTimer = "CANCEL_TIMER"

	// ActionOpenWindow marks the start of the response window.
	ActionOpenWindow = "OPEN_WINDOW"

	// ActionCloseWindow marks the end of the response window.
	ActionCloseWindow = "CLOSE_WINDOW"

	// ActionSubmit hands an entry to the logging sink. Fire and forget.
	// Payload: Envelope
	ActionSubmit = "SUBMIT"
)

// TimerRequest asks the host to fire a timer event carrying Token after Duration.
type TimerRequest struct {
	Token    uint64        `json:"token"`
	Duration time.Duration `json:"duration"`
}

// FrameKind identifies what a frame shows.
type FrameKind string

const (
	FrameFixation      FrameKind = "fixation"
	FrameStimulus      FrameKind = "stimulus"
	FrameFeedback      FrameKind = "feedback"
	FrameClearFeedback FrameKind = "clear_feedback"
	FrameProgress      FrameKind = "progress"
	FrameBridge        FrameKind = "bridge"
	FrameComplete      FrameKind = "complete"
)

// Frame is what the render collaborator draws.
type Frame struct {
	Kind     FrameKind       `json:"kind"`
	Block    Block           `json:"block"`
	Trial    *TrialSpec      `json:"trial,omitempty"`
	Feedback *Feedback       `json:"feedback,omitempty"`
	Progress *Progress       `json:"progress,omitempty"`
	Summary  *SessionSummary `json:"summary,omitempty"`
	// MainTrials is set on bridge frames.
	MainTrials int `json:"main_trials,omitempty"`
}

// Feedback is the transient practice message.
type Feedback struct {
	Text  string `json:"text"`
	Color string `json:"color"`
}

// Progress is the "current / total" indicator of the active block.
type Progress struct {
	Current int `json:"current"`
	Total   int `json:"total"`
}

// EventType is the category of an event fed to the sequencer.
type EventType string

const (
	// EventBegin is the explicit operator action that starts a block.
	EventBegin EventType = "begin"
	// EventTimer reports that the timer armed with Token elapsed.
	EventTimer EventType = "timer"
	// EventInput carries a raw input identity (key or on-screen control).
	EventInput EventType = "input"
	// EventRedraw reports a resize or visibility change.
	EventRedraw EventType = "redraw"
)

// Event is a single stimulus to the sequencer. At is the host's capture time.
type Event struct {
	Type  EventType `json:"type"`
	Token uint64    `json:"token,omitempty"`
	Input string    `json:"input,omitempty"`
	At    time.Time `json:"at"`
}

// InputKind identifies what an input source emitted.
type InputKind string

const (
	InputAction InputKind = "action"
	InputBegin  InputKind = "begin"
	InputRedraw InputKind = "redraw"
	InputQuit   InputKind = "quit"
)

// Input is a discrete event produced by an input source.
type Input struct {
	Kind  InputKind `json:"kind"`
	Value string    `json:"value,omitempty"`
	At    time.Time `json:"at,omitempty"`
}
