package runtime

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/signlabs/signvoice/internal/bus"
	"github.com/signlabs/signvoice/internal/camera"
	"github.com/signlabs/signvoice/internal/classify"
	"github.com/signlabs/signvoice/internal/config"
	"github.com/signlabs/signvoice/internal/eventstore"
	"github.com/signlabs/signvoice/internal/labels"
	"github.com/signlabs/signvoice/internal/natsserver"
	"github.com/signlabs/signvoice/internal/pipeline"
	"github.com/signlabs/signvoice/internal/render"
	"github.com/signlabs/signvoice/internal/speech"
)

type Runtime struct {
	cfg         config.Config
	logger      *slog.Logger
	httpServer  *http.Server
	tracerClose func(context.Context) error
	ready       atomic.Bool
	wg          sync.WaitGroup
}

func New(cfg config.Config, logger *slog.Logger) *Runtime {
	return &Runtime{
		cfg:    cfg,
		logger: logger,
	}
}

func (r *Runtime) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	shutdownTelemetry, metricsHandler, err := setupTelemetry(r.cfg, r.logger)
	if err != nil {
		return fmt.Errorf("failed to setup telemetry: %w", err)
	}
	r.tracerClose = shutdownTelemetry

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", r.handleHealth)
	mux.HandleFunc("/readyz", r.handleReady)
	if metricsHandler != nil {
		mux.Handle("/metrics", metricsHandler)
	}

	addr := fmt.Sprintf("%s:%d", r.cfg.HTTP.Bind, r.cfg.HTTP.Port)
	r.httpServer = &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		if err := r.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			r.logger.Error("http server failed", slog.String("error", err.Error()))
		}
	}()

	var embedded *natsserver.EmbeddedServer
	var busClient *bus.Client
	if r.cfg.Bus.Enabled {
		embedded, err = natsserver.Start(r.cfg.Bus, r.logger)
		if err != nil {
			return fmt.Errorf("failed to start embedded bus: %w", err)
		}
		busClient, err = bus.Connect(ctx, r.cfg.Bus, r.logger)
		if err != nil {
			embedded.Shutdown()
			return fmt.Errorf("failed to connect to bus: %w", err)
		}
	}

	store, err := eventstore.Open(ctx, r.cfg.EventStore, r.logger)
	if err != nil {
		busClient.Close()
		embedded.Shutdown()
		return fmt.Errorf("failed to open event store: %w", err)
	}

	classifier, err := r.buildClassifier(ctx)
	if err != nil {
		_ = store.Close()
		busClient.Close()
		embedded.Shutdown()
		return err
	}
	info := classifier.Describe()
	r.logger.Info("classifier ready",
		slog.Int("input_size", info.InputSize),
		slog.Int("num_classes", info.NumClasses))

	set := r.resolveLabels(info)
	adapter := classify.NewAdapter(classifier, set)

	source, err := r.buildCamera(ctx)
	if err != nil {
		_ = store.Close()
		busClient.Close()
		embedded.Shutdown()
		return err
	}

	var worker *speech.Worker
	if r.cfg.Speech.Enabled {
		speaker, err := r.buildSpeaker()
		if err != nil {
			_ = source.Close()
			_ = store.Close()
			busClient.Close()
			embedded.Shutdown()
			return err
		}
		worker = speech.NewWorker(ctx, speaker, r.logger)
		worker.Start()
	}

	var sink render.Sink
	var events pipeline.EventPublisher
	if busClient != nil {
		sink, err = render.NewBusSink(busClient, r.logger)
		if err != nil {
			if worker != nil {
				worker.Close()
			}
			_ = source.Close()
			_ = store.Close()
			busClient.Close()
			embedded.Shutdown()
			return fmt.Errorf("failed to create render sink: %w", err)
		}
		events = pipeline.NewBusPublisher(busClient)
	} else {
		sink = render.NewLogSink(r.logger)
	}

	p := pipeline.New(r.cfg, source, adapter, worker, sink, store, events, r.logger)

	done := make(chan error, 1)
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		done <- p.Run(ctx)
	}()

	r.ready.Store(true)
	r.logger.Info("runtime started",
		slog.String("addr", addr),
		slog.String("session_id", p.SessionID()))

	var runErr error
	select {
	case <-ctx.Done():
		r.logger.Info("runtime stopping")
		runErr = <-done
	case runErr = <-done:
		r.logger.Info("recognition loop finished")
	}
	cancel()

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()

	sink.Close()
	if err := store.Close(); err != nil {
		r.logger.Error("event store close error", slog.String("error", err.Error()))
	}
	busClient.Close()
	embedded.Shutdown()

	if err := r.httpServer.Shutdown(shutdownCtx); err != nil {
		r.logger.Error("http shutdown error", slog.String("error", err.Error()))
	}
	r.wg.Wait()

	if r.tracerClose != nil {
		if err := r.tracerClose(shutdownCtx); err != nil {
			r.logger.Error("telemetry shutdown error", slog.String("error", err.Error()))
		}
	}

	return runErr
}

func (r *Runtime) buildClassifier(ctx context.Context) (classify.Classifier, error) {
	switch r.cfg.Classifier.Mode {
	case "exec":
		classifier, err := classify.NewExecClassifier(ctx, r.cfg.Classifier)
		if err != nil {
			return nil, fmt.Errorf("failed to create classifier: %w", err)
		}
		return classifier, nil
	default:
		info := classify.ModelInfo{
			InputSize:  r.cfg.Classifier.InputSize,
			NumClasses: r.cfg.Classifier.NumClasses,
		}
		return classify.NewMockClassifier(info), nil
	}
}

func (r *Runtime) buildCamera(ctx context.Context) (camera.Source, error) {
	switch r.cfg.Camera.Mode {
	case "exec":
		source, err := camera.NewExecSource(ctx, r.cfg.Camera)
		if err != nil {
			return nil, fmt.Errorf("failed to open camera: %w", err)
		}
		return source, nil
	default:
		return camera.NewMockSource(), nil
	}
}

func (r *Runtime) buildSpeaker() (speech.Speaker, error) {
	switch r.cfg.Speech.Mode {
	case "exec":
		speaker, err := speech.NewExecSpeaker(r.cfg.Speech)
		if err != nil {
			return nil, fmt.Errorf("failed to create speaker: %w", err)
		}
		return speaker, nil
	default:
		return speech.NewMockSpeaker(0, nil), nil
	}
}

// resolveLabels builds the run's label set: configured names first, then a
// dataset directory listing, then synthesized Class_{i} names.
func (r *Runtime) resolveLabels(info classify.ModelInfo) *labels.Set {
	if len(r.cfg.Labels.Names) > 0 {
		set := labels.New(r.cfg.Labels.Names)
		r.warnOnShortfall(set, info)
		return set
	}
	if r.cfg.Labels.Directory != "" {
		set, err := labels.FromDirectory(r.cfg.Labels.Directory)
		if err == nil {
			r.logger.Info("labels loaded from dataset directory",
				slog.String("directory", r.cfg.Labels.Directory),
				slog.Int("count", set.Len()))
			r.warnOnShortfall(set, info)
			return set
		}
		r.logger.Warn("failed to load labels from directory, synthesizing",
			slog.String("directory", r.cfg.Labels.Directory),
			slog.String("error", err.Error()))
	}
	return labels.Synthesize(info.NumClasses)
}

func (r *Runtime) warnOnShortfall(set *labels.Set, info classify.ModelInfo) {
	if set.Len() < info.NumClasses {
		r.logger.Warn("label set does not cover all classifier outputs",
			slog.Int("labels", set.Len()),
			slog.Int("num_classes", info.NumClasses))
	}
}

func (r *Runtime) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (r *Runtime) handleReady(w http.ResponseWriter, _ *http.Request) {
	if r.ready.Load() {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
		return
	}
	w.WriteHeader(http.StatusServiceUnavailable)
	_, _ = w.Write([]byte("not ready"))
}
