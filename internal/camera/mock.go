package camera

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/signlabs/signvoice/internal/vision"
)

type mockSource struct {
	frames   []vision.Frame
	interval time.Duration
	cursor   int
	closed   bool
	mu       sync.Mutex
}

// NewMockSource yields the given frames in order, then io.EOF.
func NewMockSource(frames ...vision.Frame) Source {
	return &mockSource{frames: frames}
}

// NewTimedMockSource paces frames at the given interval, approximating a
// real capture rate.
func NewTimedMockSource(interval time.Duration, frames ...vision.Frame) Source {
	return &mockSource{frames: frames, interval: interval}
}

func (m *mockSource) Next(ctx context.Context) (vision.Frame, error) {
	if err := ctx.Err(); err != nil {
		return vision.Frame{}, err
	}
	if m.interval > 0 {
		select {
		case <-ctx.Done():
			return vision.Frame{}, ctx.Err()
		case <-time.After(m.interval):
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed || m.cursor >= len(m.frames) {
		return vision.Frame{}, io.EOF
	}
	frame := m.frames[m.cursor]
	m.cursor++
	return frame, nil
}

func (m *mockSource) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}
