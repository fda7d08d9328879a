package speech

import (
	"context"
	"sync"
	"time"
)

// MockSpeaker records utterances for assertions in tests and dry runs.
type MockSpeaker struct {
	delay      time.Duration
	err        error
	mu         sync.Mutex
	utterances []string
	closed     bool
}

// NewMockSpeaker returns a speaker that records every utterance. A
// non-zero delay simulates synthesis time; err, when set, is returned by
// every Speak call.
func NewMockSpeaker(delay time.Duration, err error) *MockSpeaker {
	return &MockSpeaker{delay: delay, err: err}
}

func (m *MockSpeaker) Speak(ctx context.Context, text string) error {
	if m.delay > 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(m.delay):
		}
	}
	if m.err != nil {
		return m.err
	}
	m.mu.Lock()
	m.utterances = append(m.utterances, text)
	m.mu.Unlock()
	return nil
}

func (m *MockSpeaker) Close() error {
	m.mu.Lock()
	m.closed = true
	m.mu.Unlock()
	return nil
}

func (m *MockSpeaker) Utterances() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.utterances...)
}

func (m *MockSpeaker) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}
