package camera

import (
	"bufio"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os/exec"

	"github.com/mattn/go-shellwords"
	"github.com/signlabs/signvoice/internal/config"
	"github.com/signlabs/signvoice/internal/vision"
)

// execSource reads frames from a long-lived capture subprocess. The wire
// format per frame is a 12-byte little-endian header (width, height,
// payload length as uint32) followed by packed BGR pixel bytes.
type execSource struct {
	cmd    *exec.Cmd
	stdout *bufio.Reader
	cancel context.CancelFunc
}

func NewExecSource(parent context.Context, cfg config.CameraConfig) (Source, error) {
	parser := shellwords.NewParser()
	args, err := parser.Parse(cfg.Command)
	if err != nil {
		return nil, fmt.Errorf("parse camera command: %w", err)
	}
	if len(args) == 0 {
		return nil, fmt.Errorf("camera command is empty")
	}

	ctx, cancel := context.WithCancel(parent)
	cmdArgs := append([]string{}, args[1:]...)
	cmdArgs = append(cmdArgs,
		"--width", fmt.Sprint(cfg.Width),
		"--height", fmt.Sprint(cfg.Height))
	cmd := exec.CommandContext(ctx, args[0], cmdArgs...)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		cancel()
		return nil, fmt.Errorf("camera stdout pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		cancel()
		return nil, fmt.Errorf("start camera command: %w", err)
	}

	return &execSource{
		cmd:    cmd,
		stdout: bufio.NewReaderSize(stdout, cfg.Width*cfg.Height*3+64),
		cancel: cancel,
	}, nil
}

func (s *execSource) Next(ctx context.Context) (vision.Frame, error) {
	if err := ctx.Err(); err != nil {
		return vision.Frame{}, err
	}

	var header [12]byte
	if _, err := io.ReadFull(s.stdout, header[:]); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return vision.Frame{}, io.EOF
		}
		return vision.Frame{}, fmt.Errorf("read frame header: %w", err)
	}

	width := int(binary.LittleEndian.Uint32(header[0:]))
	height := int(binary.LittleEndian.Uint32(header[4:]))
	length := int(binary.LittleEndian.Uint32(header[8:]))
	if width <= 0 || height <= 0 || length != width*height*3 {
		return vision.Frame{}, fmt.Errorf("malformed frame header: %dx%d payload=%d", width, height, length)
	}

	pix := make([]byte, length)
	if _, err := io.ReadFull(s.stdout, pix); err != nil {
		return vision.Frame{}, fmt.Errorf("read frame payload: %w", err)
	}
	return vision.Frame{Width: width, Height: height, Pix: pix}, nil
}

func (s *execSource) Close() error {
	s.cancel()
	err := s.cmd.Wait()
	// Cancellation kills the subprocess; that exit is expected.
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return nil
	}
	return err
}
