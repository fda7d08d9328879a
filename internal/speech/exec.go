package speech

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"sync"

	"github.com/mattn/go-shellwords"
	"github.com/signlabs/signvoice/internal/config"
)

type execSpeaker struct {
	cmd   []string
	voice string
	mu    sync.Mutex
}

// NewExecSpeaker pipes text to a local TTS command (espeak-ng, say, piper)
// and waits for it to finish playing.
func NewExecSpeaker(cfg config.SpeechConfig) (Speaker, error) {
	parser := shellwords.NewParser()
	args, err := parser.Parse(cfg.Command)
	if err != nil {
		return nil, fmt.Errorf("parse speech command: %w", err)
	}
	if len(args) == 0 {
		return nil, fmt.Errorf("speech command is empty")
	}
	return &execSpeaker{cmd: args, voice: cfg.Voice}, nil
}

func (e *execSpeaker) Speak(ctx context.Context, text string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	args := append([]string{}, e.cmd[1:]...)
	if e.voice != "" {
		args = append(args, "--voice", e.voice)
	}
	command := exec.CommandContext(ctx, e.cmd[0], args...)
	command.Stdin = strings.NewReader(text)
	var stderr bytes.Buffer
	command.Stderr = &stderr

	if err := command.Run(); err != nil {
		return fmt.Errorf("speech command failed: %w: %s", err, stderr.String())
	}
	return nil
}

func (e *execSpeaker) Close() error {
	return nil
}
