package service

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Task is one unit of periodic work.
type Task func(ctx context.Context) error

// Worker runs a Task once at start and then every interval. Runs never
// overlap: the loop is sequential and RunOnce shares the same mutex.
type Worker struct {
	name     string
	interval time.Duration
	task     Task
	recorder Recorder
	log      zerolog.Logger

	mu       sync.Mutex
	stopCh   chan struct{}
	stopOnce sync.Once
	done     chan struct{}
}

// NewWorker creates a worker that ticks every interval.
func NewWorker(name string, interval time.Duration, task Task, recorder Recorder, log zerolog.Logger) *Worker {
	if recorder == nil {
		recorder = nopRecorder{}
	}
	return &Worker{
		name:     name,
		interval: interval,
		task:     task,
		recorder: recorder,
		log:      log.With().Str("component", "worker").Str("worker", name).Logger(),
		stopCh:   make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start blocks running the loop until ctx is cancelled or Stop is called.
func (w *Worker) Start(ctx context.Context) {
	defer close(w.done)
	w.log.Info().Dur("interval", w.interval).Msg("starting")

	// Run once immediately on startup
	w.RunOnce(ctx)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			w.RunOnce(ctx)
		case <-ctx.Done():
			w.log.Info().Msg("stopping (context cancelled)")
			return
		case <-w.stopCh:
			w.log.Info().Msg("stopping (stop signal)")
			return
		}
	}
}

// RunOnce executes the task synchronously and returns its error.
func (w *Worker) RunOnce(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	start := time.Now()
	err := w.task(ctx)
	elapsed := time.Since(start)
	w.recorder.ObserveJob(w.name, elapsed, err)

	if err != nil {
		w.log.Error().Err(err).Dur("elapsed", elapsed).Msg("run failed")
		return err
	}
	w.log.Debug().Dur("elapsed", elapsed.Round(time.Millisecond)).Msg("run complete")
	return nil
}

// Stop signals the worker to stop. Safe to call more than once.
func (w *Worker) Stop() {
	w.stopOnce.Do(func() { close(w.stopCh) })
}

// Done is closed when Start returns.
func (w *Worker) Done() <-chan struct{} {
	return w.done
}
