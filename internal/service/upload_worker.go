package service

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"invoicedash/internal/domain"
)

// UploadWorkerConfig holds settings for the upload worker pool.
type UploadWorkerConfig struct {
	Concurrency int
	QueueSize   int
	// JobTimeout bounds a single job. Jobs run on their own context so
	// in-flight work finishes even during shutdown.
	JobTimeout time.Duration
}

// UploadTask is one queued asynchronous upload.
type UploadTask struct {
	JobID   string
	Request UploadRequest
}

// UploadWorker runs queued uploads on a bounded pool of goroutines.
type UploadWorker struct {
	tasks  chan UploadTask
	handle func(ctx context.Context, task UploadTask)
	cfg    UploadWorkerConfig
	log    zerolog.Logger
	wg     sync.WaitGroup

	mu      sync.Mutex
	stopped bool
	dropped []UploadTask
}

// NewUploadWorker creates a new UploadWorker that hands every task to handle.
func NewUploadWorker(cfg UploadWorkerConfig, handle func(ctx context.Context, task UploadTask), log zerolog.Logger) *UploadWorker {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 1
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 64
	}
	if cfg.JobTimeout <= 0 {
		cfg.JobTimeout = 5 * time.Minute
	}
	return &UploadWorker{
		tasks:  make(chan UploadTask, cfg.QueueSize),
		handle: handle,
		cfg:    cfg,
		log:    log.With().Str("component", "upload_worker").Logger(),
	}
}

// Enqueue queues a task without blocking. It fails once Drain has been called.
func (w *UploadWorker) Enqueue(task UploadTask) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.stopped {
		return domain.ErrUploadQueueFull
	}
	select {
	case w.tasks <- task:
		return nil
	default:
		return domain.ErrUploadQueueFull
	}
}

// Start dispatches queued tasks until ctx is canceled. It blocks until all
// in-flight tasks have finished. Tasks not yet running at shutdown are left
// for Drain.
func (w *UploadWorker) Start(ctx context.Context) {
	sem := make(chan struct{}, w.cfg.Concurrency)

	w.log.Info().Int("concurrency", w.cfg.Concurrency).Int("queue_size", w.cfg.QueueSize).
		Msg("uploadWorker: started")

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Int("queued", len(w.tasks)).Msg("uploadWorker: shutting down, waiting for in-flight uploads...")
			w.wg.Wait()
			w.log.Info().Msg("uploadWorker: shutdown complete")
			return
		case task := <-w.tasks:
			select {
			case sem <- struct{}{}: // acquire
			case <-ctx.Done():
				w.mu.Lock()
				w.dropped = append(w.dropped, task)
				w.mu.Unlock()
				w.wg.Wait()
				return
			}
			w.wg.Add(1)
			go func() {
				defer w.wg.Done()
				defer func() { <-sem }() // release

				jobCtx, cancel := context.WithTimeout(context.Background(), w.cfg.JobTimeout)
				defer cancel()

				w.log.Debug().Str("job_id", task.JobID).Str("file_name", task.Request.FileName).
					Msg("uploadWorker: dispatching upload")
				w.handle(jobCtx, task)
			}()
		}
	}
}

// Pending reports how many tasks are waiting for a free slot.
func (w *UploadWorker) Pending() int {
	return len(w.tasks)
}

// Drain stops the worker from accepting tasks and returns every task that
// was queued but never started.
func (w *UploadWorker) Drain() []UploadTask {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.stopped = true
	out := w.dropped
	w.dropped = nil
	for {
		select {
		case task := <-w.tasks:
			out = append(out, task)
		default:
			return out
		}
	}
}
