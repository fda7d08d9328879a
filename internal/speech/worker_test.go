package speech

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"
)

func newLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))
}

func TestWorkerSpeaksEnqueuedLabels(t *testing.T) {
	speaker := NewMockSpeaker(0, nil)
	worker := NewWorker(context.Background(), speaker, newLogger())
	worker.Start()

	worker.Enqueue("Hello")
	waitFor(t, func() bool { return len(speaker.Utterances()) == 1 })
	worker.Enqueue("World")
	waitFor(t, func() bool { return len(speaker.Utterances()) == 2 })
	worker.Close()

	got := speaker.Utterances()
	if got[0] != "Hello" || got[1] != "World" {
		t.Fatalf("unexpected utterances %v", got)
	}
	if !speaker.Closed() {
		t.Fatal("expected speaker released on close")
	}
}

func TestWorkerDropsStalePendingUtterance(t *testing.T) {
	speaker := NewMockSpeaker(150*time.Millisecond, nil)
	worker := NewWorker(context.Background(), speaker, newLogger())
	worker.Start()

	worker.Enqueue("first")
	time.Sleep(50 * time.Millisecond) // let the worker start on "first"
	worker.Enqueue("stale")
	worker.Enqueue("newest") // replaces "stale" before it starts

	waitFor(t, func() bool { return len(speaker.Utterances()) == 2 })
	worker.Close()

	got := speaker.Utterances()
	if got[0] != "first" || got[1] != "newest" {
		t.Fatalf("expected [first newest], got %v", got)
	}
}

func TestWorkerSurvivesSpeakerFailure(t *testing.T) {
	speaker := NewMockSpeaker(0, errors.New("audio device busy"))
	worker := NewWorker(context.Background(), speaker, newLogger())
	worker.Start()

	worker.Enqueue("Hello")
	time.Sleep(50 * time.Millisecond)
	worker.Close()

	if len(speaker.Utterances()) != 0 {
		t.Fatalf("expected no recorded utterances, got %v", speaker.Utterances())
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}
