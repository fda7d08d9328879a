package recognize

import "strings"

// Observation is one frame's raw classification output.
type Observation struct {
	Label      string
	Confidence float64
}

// State tracks the last confirmed and last spoken labels for a run.
// It is owned by the loop driver and mutated once per frame.
type State struct {
	CurrentLabel string
	LastSpoken   string
}

// Event is emitted when a frame confirms a new label.
type Event struct {
	Label      string
	Confidence float64
}

// Debouncer turns per-frame observations into confirmed events. A frame
// confirms only when its confidence exceeds the threshold and its label
// differs from the previously confirmed one. Low-confidence frames never
// clear the current label.
type Debouncer struct {
	Threshold float64
}

func (d Debouncer) Confirm(obs Observation, state *State) (Event, bool) {
	if obs.Confidence <= d.Threshold {
		return Event{}, false
	}
	if obs.Label == state.CurrentLabel {
		return Event{}, false
	}
	state.CurrentLabel = obs.Label
	return Event{Label: obs.Label, Confidence: obs.Confidence}, true
}

// SentenceBuffer is the append-only history of confirmed labels. The
// backing sequence is unbounded; only the rendered view is windowed.
// Append is unconditional: the caller guards against repeating the
// buffer's own last entry, a tracker kept separate from State.CurrentLabel.
type SentenceBuffer struct {
	entries []string
}

func (b *SentenceBuffer) Append(label string) {
	b.entries = append(b.entries, label)
}

func (b *SentenceBuffer) Len() int {
	return len(b.entries)
}

// Last returns the most recently appended label, or "" when empty.
func (b *SentenceBuffer) Last() string {
	if len(b.entries) == 0 {
		return ""
	}
	return b.entries[len(b.entries)-1]
}

// Render joins the last window entries with single spaces, oldest first.
func (b *SentenceBuffer) Render(window int) string {
	if window <= 0 || len(b.entries) == 0 {
		return ""
	}
	start := len(b.entries) - window
	if start < 0 {
		start = 0
	}
	return strings.Join(b.entries[start:], " ")
}

// SpeechGate decides whether a frame's label should be uttered. It keeps
// its own last-spoken tracker, independent of the debouncer's current
// label and of the sentence buffer's last entry.
type SpeechGate struct {
	Threshold float64
}

func (g SpeechGate) ShouldSpeak(obs Observation, state *State) bool {
	if obs.Confidence <= g.Threshold {
		return false
	}
	if obs.Label == state.LastSpoken {
		return false
	}
	state.LastSpoken = obs.Label
	return true
}
