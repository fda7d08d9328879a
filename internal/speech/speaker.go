package speech

import "context"

// Speaker performs a blocking "speak it now" call against a local,
// offline synthesis backend.
type Speaker interface {
	Speak(ctx context.Context, text string) error
	Close() error
}
