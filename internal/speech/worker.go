package speech

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Worker decouples utterances from the recognition loop. Enqueue never
// blocks: the queue holds at most one pending utterance and a newer label
// replaces an unstarted older one, since only the most recent sign
// matters. Speaker failures are logged and never surface to the loop.
type Worker struct {
	speaker Speaker
	logger  *slog.Logger
	pending chan string
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

func NewWorker(parent context.Context, speaker Speaker, logger *slog.Logger) *Worker {
	ctx, cancel := context.WithCancel(parent)
	return &Worker{
		speaker: speaker,
		logger:  logger.With(slog.String("component", "speech-worker")),
		pending: make(chan string, 1),
		ctx:     ctx,
		cancel:  cancel,
	}
}

func (w *Worker) Start() {
	w.wg.Add(1)
	go w.run()
}

func (w *Worker) run() {
	defer w.wg.Done()
	for {
		select {
		case <-w.ctx.Done():
			w.drain()
			return
		case text := <-w.pending:
			ctx, cancel := context.WithTimeout(w.ctx, 30*time.Second)
			start := time.Now()
			if err := w.speaker.Speak(ctx, text); err != nil {
				w.logger.Warn("utterance failed",
					slog.String("text", text),
					slog.String("error", err.Error()))
			} else {
				w.logger.Debug("utterance complete",
					slog.String("text", text),
					slog.Duration("latency", time.Since(start)))
			}
			cancel()
		}
	}
}

// drain speaks an already-enqueued utterance during shutdown so a label
// accepted before Close is never silently swallowed.
func (w *Worker) drain() {
	select {
	case text := <-w.pending:
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := w.speaker.Speak(ctx, text); err != nil {
			w.logger.Warn("final utterance failed",
				slog.String("text", text),
				slog.String("error", err.Error()))
		}
	default:
	}
}

// Enqueue submits a label for utterance, dropping any pending unstarted
// one in its favor.
func (w *Worker) Enqueue(text string) {
	for {
		select {
		case w.pending <- text:
			return
		default:
		}
		select {
		case stale := <-w.pending:
			w.logger.Debug("dropped stale utterance", slog.String("text", stale))
		default:
		}
	}
}

// Close stops the worker and releases the speech backend.
func (w *Worker) Close() {
	w.cancel()
	w.wg.Wait()
	if err := w.speaker.Close(); err != nil {
		w.logger.Warn("speaker close failed", slog.String("error", err.Error()))
	}
}
