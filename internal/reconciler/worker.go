package reconciler

import (
	"context"
	"log/slog"
	"sync"
)

// Worker runs the reconciler as an explicit background unit of work instead
// of an unmanaged detached task. Triggers arrive through a 1-buffered
// channel, so overlapping triggers coalesce and at most one run is active
// per store at a time.
type Worker struct {
	reconciler *Reconciler
	trigger    chan struct{}
	done       chan struct{}
	startOnce  sync.Once
}

// NewWorker creates a worker around the given reconciler.
func NewWorker(reconciler *Reconciler) *Worker {
	return &Worker{
		reconciler: reconciler,
		trigger:    make(chan struct{}, 1),
		done:       make(chan struct{}),
	}
}

// Start launches the worker loop. It returns immediately; the loop exits
// when ctx is canceled.
func (w *Worker) Start(ctx context.Context) {
	w.startOnce.Do(func() {
		go w.loop(ctx)
	})
}

func (w *Worker) loop(ctx context.Context) {
	defer close(w.done)

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.trigger:
		}

		// Run outcomes are observable only through logs and metrics; the
		// request that triggered ingestion has already completed.
		if _, err := w.reconciler.Run(ctx); err != nil && ctx.Err() == nil {
			slog.Error("Background reconciler run failed", "error", err)
		}
	}
}

// Trigger requests a reconciler run without blocking. A trigger arriving
// while one is already queued is dropped: the queued run will observe the
// same pending rows.
func (w *Worker) Trigger() {
	select {
	case w.trigger <- struct{}{}:
	default:
	}
}

// Wait blocks until the worker loop has exited after context cancellation.
func (w *Worker) Wait() {
	<-w.done
}
