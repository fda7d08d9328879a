package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/signlabs/signvoice/internal/camera"
	"github.com/signlabs/signvoice/internal/classify"
	"github.com/signlabs/signvoice/internal/config"
	"github.com/signlabs/signvoice/internal/eventstore"
	"github.com/signlabs/signvoice/internal/protocol"
	"github.com/signlabs/signvoice/internal/recognize"
	"github.com/signlabs/signvoice/internal/render"
	"github.com/signlabs/signvoice/internal/speech"
	"github.com/signlabs/signvoice/internal/vision"
)

// EventPublisher broadcasts confirmed recognition events for external
// consumers. Optional; a nil publisher disables broadcasting.
type EventPublisher interface {
	PublishConfirmed(evt protocol.ConfirmedEvent) error
}

// Pipeline owns the per-run recognition session and drives the frame
// loop: acquire, prepare, classify, debounce, buffer, speak, render.
// All session state is mutated by the single loop goroutine only.
type Pipeline struct {
	sessionID string
	runtime   string

	state     recognize.State
	buffer    recognize.SentenceBuffer
	debouncer recognize.Debouncer
	gate      recognize.SpeechGate
	window    int
	onError   string

	source  camera.Source
	adapter *classify.Adapter
	worker  *speech.Worker
	sink    render.Sink
	store   *eventstore.Store
	events  EventPublisher
	logger  *slog.Logger

	frames        metric.Int64Counter
	confirmations metric.Int64Counter
	utterances    metric.Int64Counter
	latency       metric.Float64Histogram
}

// New assembles a pipeline. worker, store and events may be nil when
// speech, persistence or broadcasting are disabled.
func New(
	cfg config.Config,
	source camera.Source,
	adapter *classify.Adapter,
	worker *speech.Worker,
	sink render.Sink,
	store *eventstore.Store,
	events EventPublisher,
	logger *slog.Logger,
) *Pipeline {
	p := &Pipeline{
		sessionID: uuid.NewString(),
		runtime:   cfg.RuntimeName,
		debouncer: recognize.Debouncer{Threshold: cfg.Recognition.ConfidenceThreshold},
		gate:      recognize.SpeechGate{Threshold: cfg.Recognition.ConfidenceThreshold},
		window:    cfg.Recognition.SentenceWindow,
		onError:   cfg.Classifier.OnError,
		source:    source,
		adapter:   adapter,
		worker:    worker,
		sink:      sink,
		store:     store,
		events:    events,
	}
	p.logger = logger.With(slog.String("component", "pipeline"), slog.String("session_id", p.sessionID))
	p.initMetrics()
	return p
}

func (p *Pipeline) SessionID() string {
	return p.sessionID
}

// Sentence returns the current windowed sentence view.
func (p *Pipeline) Sentence() string {
	return p.buffer.Render(p.window)
}

func (p *Pipeline) initMetrics() {
	meter := otel.Meter("github.com/signlabs/signvoice/pipeline")
	var err error
	if p.frames, err = meter.Int64Counter("signvoice.frames.processed"); err != nil {
		p.logger.Warn("failed to create frame counter", slog.String("error", err.Error()))
	}
	if p.confirmations, err = meter.Int64Counter("signvoice.recognitions.confirmed"); err != nil {
		p.logger.Warn("failed to create confirmation counter", slog.String("error", err.Error()))
	}
	if p.utterances, err = meter.Int64Counter("signvoice.utterances.enqueued"); err != nil {
		p.logger.Warn("failed to create utterance counter", slog.String("error", err.Error()))
	}
	if p.latency, err = meter.Float64Histogram("signvoice.inference.latency_ms"); err != nil {
		p.logger.Warn("failed to create latency histogram", slog.String("error", err.Error()))
	}
}

// Run processes frames until the context is cancelled, a stop request
// arrives, or the camera stream ends. Exit checks happen at frame
// boundaries only; the camera and speech backend are always released
// before Run returns.
func (p *Pipeline) Run(ctx context.Context) error {
	defer p.release()

	if p.store != nil {
		if err := p.store.BeginSession(ctx, p.sessionID, p.runtime); err != nil {
			p.logger.Warn("failed to record session", slog.String("error", err.Error()))
		}
	}

	inputSize := p.adapter.Describe().InputSize
	p.logger.Info("recognition loop started", slog.Int("input_size", inputSize))

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("recognition loop cancelled")
			return nil
		case req := <-p.sink.StopRequests():
			p.logger.Info("recognition loop stopped by operator", slog.String("reason", req.Reason))
			return nil
		default:
		}

		frame, err := p.source.Next(ctx)
		if err != nil {
			if errors.Is(err, io.EOF) {
				p.logger.Info("camera stream ended")
				return nil
			}
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("acquire frame: %w", err)
		}

		if err := p.processFrame(ctx, frame, inputSize); err != nil {
			if p.onError == "skip" {
				p.logger.Warn("frame skipped", slog.String("error", err.Error()))
				continue
			}
			return err
		}
	}
}

func (p *Pipeline) processFrame(ctx context.Context, frame vision.Frame, inputSize int) error {
	tensor, err := vision.Prepare(frame, inputSize)
	if err != nil {
		return fmt.Errorf("prepare frame: %w", err)
	}

	start := time.Now()
	obs, err := p.adapter.Classify(ctx, tensor)
	if err != nil {
		return fmt.Errorf("classify frame: %w", err)
	}
	if p.latency != nil {
		p.latency.Record(ctx, float64(time.Since(start).Microseconds())/1000.0)
	}
	if p.frames != nil {
		p.frames.Add(ctx, 1)
	}

	evt, confirmed := p.debouncer.Confirm(obs, &p.state)

	spoken := false
	if p.worker != nil && p.gate.ShouldSpeak(obs, &p.state) {
		p.worker.Enqueue(obs.Label)
		spoken = true
		if p.utterances != nil {
			p.utterances.Add(ctx, 1)
		}
	}

	if confirmed {
		// The buffer keeps its own last-entry guard, separate from the
		// debouncer's current-label tracker.
		if p.buffer.Last() != evt.Label {
			p.buffer.Append(evt.Label)
		}
		if p.confirmations != nil {
			p.confirmations.Add(ctx, 1, metric.WithAttributes(attribute.String("label", evt.Label)))
		}
		p.recordConfirmed(ctx, evt, spoken)
	}

	// Display always reflects the raw per-frame observation, independent
	// of whether anything was confirmed.
	overlay := protocol.Overlay{
		SessionID:  p.sessionID,
		Label:      obs.Label,
		Confidence: obs.Confidence,
		Sentence:   p.buffer.Render(p.window),
		Timestamp:  time.Now().UTC(),
	}
	if err := p.sink.Render(overlay); err != nil {
		p.logger.Warn("render failed", slog.String("error", err.Error()))
	}
	return nil
}

func (p *Pipeline) recordConfirmed(ctx context.Context, evt recognize.Event, spoken bool) {
	if p.store != nil {
		rec := eventstore.Recognition{
			SessionID:  p.sessionID,
			Label:      evt.Label,
			Confidence: evt.Confidence,
			Spoken:     spoken,
		}
		if err := p.store.AppendRecognition(ctx, rec); err != nil {
			p.logger.Warn("failed to record recognition", slog.String("error", err.Error()))
		}
	}
	if p.events != nil {
		msg := protocol.ConfirmedEvent{
			SessionID:  p.sessionID,
			Label:      evt.Label,
			Confidence: evt.Confidence,
			Spoken:     spoken,
			Timestamp:  time.Now().UTC(),
		}
		if err := p.events.PublishConfirmed(msg); err != nil {
			p.logger.Warn("failed to publish recognition", slog.String("error", err.Error()))
		}
	}
}

func (p *Pipeline) release() {
	if err := p.source.Close(); err != nil {
		p.logger.Warn("camera close failed", slog.String("error", err.Error()))
	}
	if p.worker != nil {
		p.worker.Close()
	}
}
