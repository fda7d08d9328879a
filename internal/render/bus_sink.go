package render

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/signlabs/signvoice/internal/bus"
	"github.com/signlabs/signvoice/internal/protocol"
)

// busSink publishes overlays on the bus for external viewers and relays
// their stop requests back to the pipeline.
type busSink struct {
	bus    *bus.Client
	logger *slog.Logger
	sub    *nats.Subscription
	stop   chan protocol.StopRequest
}

func NewBusSink(busClient *bus.Client, logger *slog.Logger) (Sink, error) {
	s := &busSink{
		bus:    busClient,
		logger: logger.With(slog.String("component", "render-sink")),
		stop:   make(chan protocol.StopRequest, 1),
	}
	sub, err := busClient.Conn().Subscribe(protocol.SubjectControlStop, s.handleStop)
	if err != nil {
		return nil, fmt.Errorf("subscribe stop control: %w", err)
	}
	s.sub = sub
	return s, nil
}

func (s *busSink) Render(overlay protocol.Overlay) error {
	if overlay.Timestamp.IsZero() {
		overlay.Timestamp = time.Now().UTC()
	}
	data, err := json.Marshal(overlay)
	if err != nil {
		return fmt.Errorf("marshal overlay: %w", err)
	}
	return s.bus.Conn().Publish(protocol.SubjectOverlayFrame, data)
}

func (s *busSink) handleStop(msg *nats.Msg) {
	var req protocol.StopRequest
	if err := json.Unmarshal(msg.Data, &req); err != nil {
		s.logger.Warn("failed to decode stop request", slog.String("error", err.Error()))
		return
	}
	select {
	case s.stop <- req:
		s.logger.Info("stop requested", slog.String("reason", req.Reason))
	default:
		// A stop is already pending; one is enough.
	}
}

func (s *busSink) StopRequests() <-chan protocol.StopRequest {
	return s.stop
}

func (s *busSink) Close() {
	if s.sub != nil {
		_ = s.sub.Drain()
	}
}
