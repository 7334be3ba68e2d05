package jobs

import (
	"context"
	"time"

	"github.com/EABruton/waitlist/internal/logger"
	"github.com/EABruton/waitlist/internal/metrics"
	"github.com/rs/zerolog"
)

// Handler runs one job's work. The waitlist handlers re-read store state on
// every run, so a stale or duplicate trigger is harmless.
type Handler func(ctx context.Context) error

// Worker binds one handler to one queue. At most one job executes at a time
// on a given worker; admission-control correctness rests on there being a
// single worker per queue in the process.
type Worker struct {
	store    *Store
	queue    string
	handler  Handler
	interval time.Duration
	log      zerolog.Logger
}

func NewWorker(store *Store, queue string, handler Handler, interval time.Duration) *Worker {
	if interval <= 0 {
		interval = 500 * time.Millisecond
	}
	return &Worker{
		store:    store,
		queue:    queue,
		handler:  handler,
		interval: interval,
		log:      logger.Logger.With().Str("worker", queue).Logger(),
	}
}

// Start performs one synchronous catch-up invocation of the handler (work
// accumulates while a worker is down), then polls in the background until
// ctx is canceled.
func (w *Worker) Start(ctx context.Context) {
	w.log.Info().Msg("starting")
	w.runHandler(ctx, "catch-up")
	go w.loop(ctx)
}

func (w *Worker) loop(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("stopped")
			return
		case <-ticker.C:
			w.drain(ctx)
		}
	}
}

// drain claims and runs due jobs until the queue is empty or ctx ends.
func (w *Worker) drain(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}

		job, err := w.store.Claim(ctx, w.queue)
		if err != nil {
			w.log.Error().Err(err).Msg("claim failed")
			return
		}
		if job == nil {
			return
		}
		w.runJob(ctx, job)
	}
}

func (w *Worker) runJob(ctx context.Context, job *Job) {
	start := time.Now()
	if err := w.handler(ctx); err != nil {
		metrics.RecordJobRun(w.queue, "error", time.Since(start))
		w.log.Error().Err(err).Str("job_id", job.ID).Str("job", job.Name).Msg("job failed")
		if ferr := w.store.Fail(ctx, job.ID, err.Error()); ferr != nil {
			w.log.Error().Err(ferr).Str("job_id", job.ID).Msg("job could not be marked failed")
		}
		return
	}

	metrics.RecordJobRun(w.queue, "ok", time.Since(start))
	if cerr := w.store.Complete(ctx, job.ID); cerr != nil {
		w.log.Error().Err(cerr).Str("job_id", job.ID).Msg("job could not be marked done")
	}
}

func (w *Worker) runHandler(ctx context.Context, trigger string) {
	start := time.Now()
	if err := w.handler(ctx); err != nil {
		metrics.RecordJobRun(w.queue, "error", time.Since(start))
		w.log.Error().Err(err).Str("trigger", trigger).Msg("run failed")
		return
	}
	metrics.RecordJobRun(w.queue, "ok", time.Since(start))
}
