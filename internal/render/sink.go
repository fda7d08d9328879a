package render

import (
	"log/slog"

	"github.com/signlabs/signvoice/internal/protocol"
)

// Sink consumes one overlay per frame and surfaces operator stop requests.
type Sink interface {
	Render(overlay protocol.Overlay) error
	StopRequests() <-chan protocol.StopRequest
	Close()
}

type logSink struct {
	logger *slog.Logger
	stop   chan protocol.StopRequest
}

// NewLogSink renders overlays as debug log lines. Used when the bus is
// disabled; it never produces stop requests.
func NewLogSink(logger *slog.Logger) Sink {
	return &logSink{
		logger: logger.With(slog.String("component", "render-sink")),
		stop:   make(chan protocol.StopRequest),
	}
}

func (s *logSink) Render(overlay protocol.Overlay) error {
	s.logger.Debug("frame",
		slog.String("label", overlay.Label),
		slog.Float64("confidence", overlay.Confidence),
		slog.String("sentence", overlay.Sentence))
	return nil
}

func (s *logSink) StopRequests() <-chan protocol.StopRequest {
	return s.stop
}

func (s *logSink) Close() {}
