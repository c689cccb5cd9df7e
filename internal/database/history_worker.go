package database

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"suppcheck/internal/database/relational"
	"suppcheck/pkg/logger"
)

const (
	defaultFlushInterval = 5 * time.Second
	defaultQueueSize     = 64
)

// Record is one finished check waiting to be persisted.
type Record struct {
	Consultation relational.Consultation
	Findings     []relational.ConsultationFinding
}

// Worker persists consultation history off the request path. Checks enqueue
// their results and return immediately; the worker drains the queue on an
// interval and once more on shutdown.
type Worker struct {
	repo     relational.ConsultationRepository
	queue    chan Record
	interval time.Duration

	mu      sync.Mutex
	cancel  context.CancelFunc
	running bool
	wg      sync.WaitGroup
}

// WorkerOption configures a Worker.
type WorkerOption func(*Worker)

// WithFlushInterval sets how often the queue is drained.
func WithFlushInterval(d time.Duration) WorkerOption {
	return func(w *Worker) {
		if d > 0 {
			w.interval = d
		}
	}
}

// WithQueueSize sets the queue capacity.
func WithQueueSize(n int) WorkerOption {
	return func(w *Worker) {
		if n > 0 {
			w.queue = make(chan Record, n)
		}
	}
}

// NewWorker creates a new worker instance.
func NewWorker(repo relational.ConsultationRepository, opts ...WorkerOption) (*Worker, error) {
	if repo == nil {
		return nil, errors.New("repo is required")
	}
	w := &Worker{
		repo:     repo,
		queue:    make(chan Record, defaultQueueSize),
		interval: defaultFlushInterval,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// Enqueue hands a record to the worker without blocking. When the queue is
// full the record is dropped; history is best-effort and never stalls a check.
func (w *Worker) Enqueue(rec Record) {
	select {
	case w.queue <- rec:
	default:
		logger.Warn("history queue full, dropping record",
			"session_id", rec.Consultation.SessionID)
	}
}

// Start begins the periodic drain loop.
func (w *Worker) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return errors.New("worker already running")
	}
	ctx, cancel := context.WithCancel(ctx)
	w.cancel = cancel
	w.running = true
	w.wg.Add(1)
	w.mu.Unlock()

	go w.loop(ctx)
	return nil
}

// Stop gracefully stops the worker.
func (w *Worker) Stop() {
	w.mu.Lock()
	cancel := w.cancel
	w.cancel = nil
	w.running = false
	w.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	w.wg.Wait()

	// Drain what is still queued; the worker context is gone, so use a
	// detached one with a timeout.
	ctx, cancelFlush := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelFlush()
	if err := w.FlushOnce(ctx); err != nil {
		logger.Warn("final history flush failed", "error", err)
	}
}

// FlushOnce drains whatever is queued right now.
func (w *Worker) FlushOnce(ctx context.Context) error {
	for {
		select {
		case rec := <-w.queue:
			if _, err := w.repo.InsertConsultation(ctx, rec.Consultation, rec.Findings); err != nil {
				return fmt.Errorf("persist consultation: %w", err)
			}
		default:
			return nil
		}
	}
}

func (w *Worker) loop(ctx context.Context) {
	defer w.wg.Done()
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := w.FlushOnce(ctx); err != nil {
				logger.Warn("history flush failed", "error", err)
			}
		}
	}
}
