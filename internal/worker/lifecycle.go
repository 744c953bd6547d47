package worker

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Lifecycle is the part of the session service the worker drives.
type Lifecycle interface {
	StartDue(ctx context.Context) (int, error)
	AutoComplete(ctx context.Context) (int, error)
}

// LifecycleWorker periodically starts sessions whose slot has begun and
// completes deliveries the artist never confirmed.
type LifecycleWorker struct {
	sessions Lifecycle
	interval time.Duration
	logger   *zap.Logger
	stopChan  chan struct{}
	startOnce sync.Once
	stopOnce  sync.Once
	wg       sync.WaitGroup
}

func NewLifecycleWorker(sessions Lifecycle, interval time.Duration, logger *zap.Logger) *LifecycleWorker {
	if interval <= 0 {
		interval = time.Minute
	}
	return &LifecycleWorker{
		sessions: sessions,
		interval: interval,
		logger:   logger.With(zap.String("worker", "lifecycle")),
		stopChan: make(chan struct{}),
	}
}

// Start runs one pass immediately, then one per interval until Stop or ctx
// is done. Only the first call starts the loop.
func (w *LifecycleWorker) Start(ctx context.Context) {
	w.startOnce.Do(func() {
		w.logger.Info("Starting lifecycle worker", zap.Duration("interval", w.interval))

		w.wg.Add(1)
		go w.run(ctx)
	})
}

// Stop signals the loop and waits for the current pass to finish.
func (w *LifecycleWorker) Stop() {
	w.stopOnce.Do(func() {
		w.logger.Info("Stopping lifecycle worker")
		close(w.stopChan)
	})
	w.wg.Wait()
}

func (w *LifecycleWorker) run(ctx context.Context) {
	defer w.wg.Done()

	w.Tick(ctx)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			w.Tick(ctx)
		case <-w.stopChan:
			w.logger.Info("Lifecycle worker stopped")
			return
		case <-ctx.Done():
			w.logger.Info("Lifecycle worker cancelled")
			return
		}
	}
}

// Tick performs a single pass.
func (w *LifecycleWorker) Tick(ctx context.Context) {
	started, err := w.sessions.StartDue(ctx)
	if err != nil {
		w.logger.Error("Failed to start due sessions", zap.Error(err))
	} else if started > 0 {
		w.logger.Info("Sessions started", zap.Int("count", started))
	}

	completed, err := w.sessions.AutoComplete(ctx)
	if err != nil {
		w.logger.Error("Failed to auto-complete sessions", zap.Error(err))
	} else if completed > 0 {
		w.logger.Info("Sessions auto-completed", zap.Int("count", completed))
	}
}
