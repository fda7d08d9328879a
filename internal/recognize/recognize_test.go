package recognize

import (
	"fmt"
	"strings"
	"testing"
)

func TestDebounceRepeatedLabels(t *testing.T) {
	deb := Debouncer{Threshold: 0.90}
	gate := SpeechGate{Threshold: 0.90}
	state := &State{}
	var buf SentenceBuffer
	var spoken []string

	for _, label := range []string{"A", "A", "B", "B", "B", "C"} {
		obs := Observation{Label: label, Confidence: 0.95}
		if evt, ok := deb.Confirm(obs, state); ok {
			if buf.Last() != evt.Label {
				buf.Append(evt.Label)
			}
		}
		if gate.ShouldSpeak(obs, state) {
			spoken = append(spoken, label)
		}
	}

	if got := buf.Render(10); got != "A B C" {
		t.Fatalf("expected buffer 'A B C', got %q", got)
	}
	if len(spoken) != 3 {
		t.Fatalf("expected 3 utterances, got %d (%v)", len(spoken), spoken)
	}
	for i, want := range []string{"A", "B", "C"} {
		if spoken[i] != want {
			t.Fatalf("utterance %d: expected %s, got %s", i, want, spoken[i])
		}
	}
}

func TestLowConfidenceNeverConfirms(t *testing.T) {
	deb := Debouncer{Threshold: 0.90}
	gate := SpeechGate{Threshold: 0.90}
	state := &State{}
	var buf SentenceBuffer

	for _, label := range []string{"A", "B", "C", "A", "B"} {
		obs := Observation{Label: label, Confidence: 0.90} // equal to T, not above
		if _, ok := deb.Confirm(obs, state); ok {
			t.Fatalf("label %s confirmed at threshold confidence", label)
		}
		if gate.ShouldSpeak(obs, state) {
			t.Fatalf("label %s spoken at threshold confidence", label)
		}
	}
	if buf.Len() != 0 {
		t.Fatalf("expected empty buffer, got %d entries", buf.Len())
	}
	if state.CurrentLabel != "" || state.LastSpoken != "" {
		t.Fatalf("expected untouched state, got %+v", state)
	}
}

func TestLowConfidenceFrameIsNotAReset(t *testing.T) {
	deb := Debouncer{Threshold: 0.90}
	gate := SpeechGate{Threshold: 0.90}
	state := &State{}
	var buf SentenceBuffer
	utterances := 0

	frames := []Observation{
		{Label: "A", Confidence: 0.95},
		{Label: "A", Confidence: 0.10},
		{Label: "A", Confidence: 0.95},
	}
	for _, obs := range frames {
		if evt, ok := deb.Confirm(obs, state); ok {
			if buf.Last() != evt.Label {
				buf.Append(evt.Label)
			}
		}
		if gate.ShouldSpeak(obs, state) {
			utterances++
		}
	}

	if buf.Len() != 1 {
		t.Fatalf("expected one append, got %d", buf.Len())
	}
	if utterances != 1 {
		t.Fatalf("expected one utterance, got %d", utterances)
	}
}

func TestRenderWindowsLastEntries(t *testing.T) {
	var buf SentenceBuffer
	for i := 0; i < 15; i++ {
		buf.Append(fmt.Sprintf("L%d", i))
	}
	got := buf.Render(10)
	parts := strings.Split(got, " ")
	if len(parts) != 10 {
		t.Fatalf("expected 10 rendered entries, got %d: %q", len(parts), got)
	}
	if parts[0] != "L5" || parts[9] != "L14" {
		t.Fatalf("expected window L5..L14, got %q", got)
	}
}

func TestRenderEmptyBuffer(t *testing.T) {
	var buf SentenceBuffer
	if got := buf.Render(10); got != "" {
		t.Fatalf("expected empty render, got %q", got)
	}
}

func TestNoAdjacentDuplicatesProperty(t *testing.T) {
	deb := Debouncer{Threshold: 0.90}
	state := &State{}
	var buf SentenceBuffer

	// Mixed sequence with repeats, dips and label churn.
	frames := []Observation{
		{"Hello", 0.95}, {"Hello", 0.99}, {"Hello", 0.40},
		{"World", 0.91}, {"World", 0.91}, {"Hello", 0.95},
		{"Hello", 0.20}, {"Hello", 0.97}, {"Bye", 0.93},
	}
	for _, obs := range frames {
		if evt, ok := deb.Confirm(obs, state); ok {
			if buf.Last() != evt.Label {
				buf.Append(evt.Label)
			}
		}
	}

	parts := strings.Split(buf.Render(100), " ")
	for i := 1; i < len(parts); i++ {
		if parts[i] == parts[i-1] {
			t.Fatalf("adjacent duplicate %q in rendered sentence %q", parts[i], buf.Render(100))
		}
	}
	if got := buf.Render(100); got != "Hello World Hello Bye" {
		t.Fatalf("unexpected sentence %q", got)
	}
}

func TestSpeechGateTracksIndependently(t *testing.T) {
	gate := SpeechGate{Threshold: 0.90}
	state := &State{CurrentLabel: "A"}

	// CurrentLabel already A, but nothing has been spoken yet: the gate
	// must still fire on its own tracker.
	if !gate.ShouldSpeak(Observation{Label: "A", Confidence: 0.95}, state) {
		t.Fatal("expected first utterance of A")
	}
	if gate.ShouldSpeak(Observation{Label: "A", Confidence: 0.95}, state) {
		t.Fatal("expected repeat of A suppressed")
	}
	if state.LastSpoken != "A" {
		t.Fatalf("expected last spoken A, got %q", state.LastSpoken)
	}
}
