// Package audit persists audit events off the request path.
package audit

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"auth_backend/internal/feature/auth/domain/entity"
	"auth_backend/internal/feature/auth/usecase"
	"auth_backend/internal/platform/ids"
)

// ErrClosed is returned by Close when the recorder was already closed.
var ErrClosed = errors.New("audit recorder closed")

// Sink stores a single audit event.
type Sink interface {
	Save(ctx context.Context, ev *entity.AuditEvent) error
}

// Observer counts events that never reached the sink.
type Observer interface {
	IncAuditDropped()
	IncAuditWriteFailure()
}

// Config sizes the worker pool.
type Config struct {
	Workers      int
	BufferSize   int
	WriteTimeout time.Duration
}

// Recorder hands events to a fixed pool of workers through a bounded queue.
// When the queue is full the event is dropped and counted.
type Recorder struct {
	sink     Sink
	observer Observer
	timeout  time.Duration

	queue chan entity.AuditEvent
	wg    sync.WaitGroup

	mu     sync.RWMutex
	closed bool
}

var _ usecase.AuditRecorder = (*Recorder)(nil)

// NewRecorder starts cfg.Workers goroutines writing to sink. A nil observer is allowed.
func NewRecorder(sink Sink, cfg Config, observer Observer) *Recorder {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = 1024
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = 5 * time.Second
	}
	r := &Recorder{
		sink:     sink,
		observer: observer,
		timeout:  cfg.WriteTimeout,
		queue:    make(chan entity.AuditEvent, cfg.BufferSize),
	}
	r.wg.Add(cfg.Workers)
	for i := 0; i < cfg.Workers; i++ {
		go r.work()
	}
	return r
}

// Record enqueues ev without blocking. The caller's context is not used for
// the write, so a finished request does not cancel its own audit row.
func (r *Recorder) Record(_ context.Context, ev entity.AuditEvent) {
	if ev.CreatedAt.IsZero() {
		ev.CreatedAt = time.Now()
	}
	if ev.ID == "" {
		ev.ID = ids.NewAt(ev.CreatedAt)
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.closed {
		r.drop(ev, "recorder closed")
		return
	}
	select {
	case r.queue <- ev:
	default:
		r.drop(ev, "queue full")
	}
}

// Close stops accepting events and waits for queued ones to be written, or
// for ctx to end.
func (r *Recorder) Close(ctx context.Context) error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return ErrClosed
	}
	r.closed = true
	close(r.queue)
	r.mu.Unlock()

	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (r *Recorder) work() {
	defer r.wg.Done()
	for ev := range r.queue {
		r.write(ev)
	}
}

func (r *Recorder) write(ev entity.AuditEvent) {
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()

	if err := r.sink.Save(ctx, &ev); err != nil {
		slog.Error("failed to write audit event", "id", ev.ID, "action", ev.Action, "error", err)
		if r.observer != nil {
			r.observer.IncAuditWriteFailure()
		}
	}
}

func (r *Recorder) drop(ev entity.AuditEvent, why string) {
	slog.Warn("audit event dropped", "reason", why, "action", ev.Action, "username", ev.Username)
	if r.observer != nil {
		r.observer.IncAuditDropped()
	}
}
