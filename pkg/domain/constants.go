package domain

// Feedback texts and colors shown during practice.
const (
	FeedbackCorrect   = "Correct"
	FeedbackIncorrect = "Incorrect"
	FeedbackTooSlow   = "Too slow"
	FeedbackPractice  = "Practice complete"

	ColorCorrect   = "#4caf50"
	ColorIncorrect = "#f44336"
	ColorTooSlow   = "#ff9800"
)

// On-screen control identities accepted regardless of the configured keys.
const (
	ControlSame   = "same"
	ControlMirror = "mirror"
)
