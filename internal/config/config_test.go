package config

import "testing"

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Recognition.ConfidenceThreshold != 0.90 {
		t.Fatalf("expected default threshold 0.90, got %v", cfg.Recognition.ConfidenceThreshold)
	}
	if cfg.Recognition.SentenceWindow != 10 {
		t.Fatalf("expected default window 10, got %d", cfg.Recognition.SentenceWindow)
	}
	if cfg.Classifier.OnError != "fatal" {
		t.Fatalf("expected default on_error fatal, got %s", cfg.Classifier.OnError)
	}
	if cfg.Bus.Servers[0] != "nats://localhost:4222" {
		t.Fatalf("expected default server, got %v", cfg.Bus.Servers)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("SIGNVOICE_CAMERA_MODE", "exec")
	t.Setenv("SIGNVOICE_CAMERA_COMMAND", "ffcap --device 0")
	t.Setenv("SIGNVOICE_CAMERA_WIDTH", "1280")
	t.Setenv("SIGNVOICE_CAMERA_HEIGHT", "720")
	t.Setenv("SIGNVOICE_CLASSIFIER_MODE", "exec")
	t.Setenv("SIGNVOICE_CLASSIFIER_COMMAND", "sign-infer --serve")
	t.Setenv("SIGNVOICE_CLASSIFIER_ON_ERROR", "skip")
	t.Setenv("SIGNVOICE_LABELS_NAMES", "Hello, World, Thanks")
	t.Setenv("SIGNVOICE_RECOGNITION_CONFIDENCE_THRESHOLD", "0.75")
	t.Setenv("SIGNVOICE_RECOGNITION_SENTENCE_WINDOW", "5")
	t.Setenv("SIGNVOICE_SPEECH_MODE", "exec")
	t.Setenv("SIGNVOICE_SPEECH_COMMAND", "espeak-ng --stdin")
	t.Setenv("SIGNVOICE_EVENT_STORE_PATH", "./tmp.db")
	t.Setenv("SIGNVOICE_EVENT_STORE_RETENTION_MODE", "persistent")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Camera.Mode != "exec" || cfg.Camera.Command != "ffcap --device 0" {
		t.Fatalf("expected camera override, got %+v", cfg.Camera)
	}
	if cfg.Camera.Width != 1280 || cfg.Camera.Height != 720 {
		t.Fatalf("expected camera resolution override, got %dx%d", cfg.Camera.Width, cfg.Camera.Height)
	}
	if cfg.Classifier.OnError != "skip" {
		t.Fatalf("expected on_error override, got %s", cfg.Classifier.OnError)
	}
	if len(cfg.Labels.Names) != 3 || cfg.Labels.Names[1] != "World" {
		t.Fatalf("expected labels override, got %v", cfg.Labels.Names)
	}
	if cfg.Recognition.ConfidenceThreshold != 0.75 {
		t.Fatalf("expected threshold override, got %v", cfg.Recognition.ConfidenceThreshold)
	}
	if cfg.Recognition.SentenceWindow != 5 {
		t.Fatalf("expected window override, got %d", cfg.Recognition.SentenceWindow)
	}
	if cfg.Speech.Command != "espeak-ng --stdin" {
		t.Fatalf("expected speech command override")
	}
	if cfg.EventStore.Path != "./tmp.db" {
		t.Fatalf("expected event store path override")
	}
	if cfg.EventStore.RetentionMode != "persistent" {
		t.Fatalf("expected event store retention mode override")
	}
}

func TestValidateRejectsBadThreshold(t *testing.T) {
	t.Setenv("SIGNVOICE_RECOGNITION_CONFIDENCE_THRESHOLD", "1.5")
	if _, err := Load(""); err == nil {
		t.Fatal("expected validation error for threshold out of range")
	}
}

func TestValidateRequiresExecCommand(t *testing.T) {
	t.Setenv("SIGNVOICE_CLASSIFIER_MODE", "exec")
	if _, err := Load(""); err == nil {
		t.Fatal("expected validation error for exec mode without command")
	}
}
