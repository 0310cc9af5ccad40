package audit

import (
	"context"

	"github.com/rs/zerolog"

	"smart-parking-backend/internal/model"
	"smart-parking-backend/internal/store"
)

// WorkerPool persists gate-scan events off the request path so a slow write
// never delays a gate decision.
type WorkerPool struct {
	size  int
	jobs  chan model.GateEvent
	store store.Store
	log   zerolog.Logger
}

// NewWorkerPool creates a gate-event worker pool.
func NewWorkerPool(size, queueSize int, s store.Store, log zerolog.Logger) *WorkerPool {
	return &WorkerPool{
		size:  size,
		jobs:  make(chan model.GateEvent, queueSize),
		store: s,
		log:   log.With().Str("component", "audit").Logger(),
	}
}

// Start launches the worker goroutines.
func (wp *WorkerPool) Start(ctx context.Context) {
	for i := 0; i < wp.size; i++ {
		go wp.worker(ctx, i)
	}
}

func (wp *WorkerPool) worker(ctx context.Context, id int) {
	wp.log.Debug().Int("worker", id).Msg("worker started")
	for {
		select {
		case ev := <-wp.jobs:
			if err := wp.store.InsertGateEvent(ctx, &ev); err != nil {
				wp.log.Error().Err(err).
					Str("gate", ev.Gate).
					Str("qr_code", ev.QRCode).
					Msg("failed to persist gate event")
			}
		case <-ctx.Done():
			wp.log.Debug().Int("worker", id).Msg("worker shutting down")
			return
		}
	}
}

// Record enqueues a gate event. If the queue is full the event is dropped
// rather than blocking the gate.
func (wp *WorkerPool) Record(ev model.GateEvent) {
	select {
	case wp.jobs <- ev:
	default:
		wp.log.Warn().Str("gate", ev.Gate).Msg("audit queue full, dropping gate event")
	}
}

// Jobs returns the jobs channel for testing.
func (wp *WorkerPool) Jobs() chan model.GateEvent {
	return wp.jobs
}
