package protocol

import "time"

// Overlay carries one frame's display state for render sinks.
type Overlay struct {
	SessionID  string    `json:"session_id"`
	Label      string    `json:"label"`
	Confidence float64   `json:"confidence"`
	Sentence   string    `json:"sentence"`
	Timestamp  time.Time `json:"timestamp"`
}

// ConfirmedEvent is broadcast whenever a new label is confirmed.
type ConfirmedEvent struct {
	SessionID  string    `json:"session_id"`
	Label      string    `json:"label"`
	Confidence float64   `json:"confidence"`
	Spoken     bool      `json:"spoken"`
	Timestamp  time.Time `json:"timestamp"`
}

// StopRequest asks the running pipeline to exit at the next frame boundary.
type StopRequest struct {
	Reason    string    `json:"reason"`
	Timestamp time.Time `json:"timestamp"`
}

const (
	SubjectOverlayFrame   = "sign.frame.overlay"
	SubjectEventConfirmed = "sign.event.confirmed"
	SubjectControlStop    = "sign.ctrl.stop"
)
