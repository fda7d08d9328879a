package camera

import (
	"context"

	"github.com/signlabs/signvoice/internal/vision"
)

// Source yields color frames on demand. Next returns io.EOF on clean
// end-of-stream and any other error on device failure; in both cases no
// further frames will arrive.
type Source interface {
	Next(ctx context.Context) (vision.Frame, error)
	Close() error
}
