package eventstore

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/signlabs/signvoice/internal/config"
)

func newLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))
}

func TestOpenEphemeral(t *testing.T) {
	ctx := context.Background()
	cfg := config.EventStoreConfig{RetentionMode: "ephemeral"}
	es, err := Open(ctx, cfg, newLogger())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	t.Cleanup(func() { _ = es.Close() })

	if err := es.AppendRecognition(ctx, Recognition{SessionID: "s", Label: "Hello"}); err != nil {
		t.Fatalf("ephemeral append should be a no-op: %v", err)
	}
	recs, err := es.ListSessionRecognitions(ctx, "s", 10)
	if err != nil || recs != nil {
		t.Fatalf("expected no rows from ephemeral store, got %v (%v)", recs, err)
	}
}

func TestAppendAndQuery(t *testing.T) {
	tmp := t.TempDir()
	cfg := config.EventStoreConfig{Path: filepath.Join(tmp, "events.db"), RetentionMode: "session"}
	es, err := Open(context.Background(), cfg, newLogger())
	if err != nil {
		t.Fatalf("open event store: %v", err)
	}
	t.Cleanup(func() { _ = es.Close() })

	sessionID := "session-123"
	if err := es.BeginSession(context.Background(), sessionID, "signvoice-runtime"); err != nil {
		t.Fatalf("begin session: %v", err)
	}
	if err := es.AppendRecognition(context.Background(), Recognition{
		SessionID: sessionID, Label: "Hello", Confidence: 0.95, Spoken: true,
	}); err != nil {
		t.Fatalf("append recognition: %v", err)
	}
	if err := es.AppendRecognition(context.Background(), Recognition{
		SessionID: sessionID, Label: "World", Confidence: 0.93, Spoken: false,
	}); err != nil {
		t.Fatalf("append recognition: %v", err)
	}

	recs, err := es.ListSessionRecognitions(context.Background(), sessionID, 10)
	if err != nil {
		t.Fatalf("list recognitions: %v", err)
	}
	if len(recs) != 2 {
		t.Fatalf("expected 2 recognitions, got %d", len(recs))
	}
	if recs[0].Label != "Hello" || !recs[0].Spoken {
		t.Fatalf("unexpected first recognition: %+v", recs[0])
	}
	if recs[1].Label != "World" || recs[1].Spoken {
		t.Fatalf("unexpected second recognition: %+v", recs[1])
	}
}

func TestPruneByDaysAndSessions(t *testing.T) {
	tmp := t.TempDir()
	cfg := config.EventStoreConfig{Path: filepath.Join(tmp, "events.db"), RetentionMode: "persistent", RetentionDays: 1, MaxSessions: 1}
	es, err := Open(context.Background(), cfg, newLogger())
	if err != nil {
		t.Fatalf("open event store: %v", err)
	}
	t.Cleanup(func() { _ = es.Close() })

	es.clock = func() time.Time { return time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC) }
	if err := es.BeginSession(context.Background(), "old-session", "runtime"); err != nil {
		t.Fatalf("begin session: %v", err)
	}
	if err := es.AppendRecognition(context.Background(), Recognition{SessionID: "old-session", Label: "Hello"}); err != nil {
		t.Fatalf("append recognition: %v", err)
	}

	es.clock = func() time.Time { return time.Date(2026, 8, 3, 0, 0, 0, 0, time.UTC) }
	if err := es.BeginSession(context.Background(), "new-session", "runtime"); err != nil {
		t.Fatalf("begin session: %v", err)
	}
	if err := es.Prune(context.Background()); err != nil {
		t.Fatalf("prune: %v", err)
	}

	recs, err := es.ListSessionRecognitions(context.Background(), "old-session", 10)
	if err != nil {
		t.Fatalf("list recognitions: %v", err)
	}
	if len(recs) != 0 {
		t.Fatalf("expected old session pruned")
	}
}
