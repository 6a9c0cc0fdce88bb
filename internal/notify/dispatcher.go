package notify

import (
	"context"
	"sync"
	"time"

	"github.com/Freeeeeet/lesson_scheduler/internal/model"
	"github.com/Freeeeeet/lesson_scheduler/internal/service"
	"go.uber.org/zap"
)

const sendTimeout = 15 * time.Second

type job struct {
	session *model.Session
	kind    model.EventKind
}

// Dispatcher: асинхронная обёртка над Notifier с ограниченной очередью.
// Notify никогда не блокирует вызывающего: при переполнении событие
// отбрасывается с предупреждением в логе.
type Dispatcher struct {
	next    service.Notifier
	queue   chan job
	workers int
	logger  *zap.Logger
}

func NewDispatcher(next service.Notifier, workers, queueSize int, logger *zap.Logger) *Dispatcher {
	if workers <= 0 {
		workers = 1
	}
	if queueSize <= 0 {
		queueSize = 100
	}
	return &Dispatcher{
		next:    next,
		queue:   make(chan job, queueSize),
		workers: workers,
		logger:  logger,
	}
}

// Notify ставит событие в очередь
func (d *Dispatcher) Notify(ctx context.Context, session *model.Session, kind model.EventKind) error {
	select {
	case d.queue <- job{session: session.Clone(), kind: kind}:
	default:
		d.logger.Warn("Notification queue is full, dropping event",
			zap.String("session_id", session.ID.String()),
			zap.String("event", string(kind)),
		)
	}
	return nil
}

// Pending: число событий в очереди
func (d *Dispatcher) Pending() int {
	return len(d.queue)
}

// Run запускает воркеров и блокируется до отмены ctx
func (d *Dispatcher) Run(ctx context.Context) error {
	d.logger.Info("Starting notification dispatcher", zap.Int("workers", d.workers))

	var wg sync.WaitGroup
	for i := 0; i < d.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			d.work(ctx)
		}()
	}
	wg.Wait()

	d.logger.Info("Notification dispatcher stopped", zap.Int("dropped_pending", len(d.queue)))
	return nil
}

func (d *Dispatcher) work(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case j := <-d.queue:
			d.deliver(ctx, j)
		}
	}
}

func (d *Dispatcher) deliver(ctx context.Context, j job) {
	sendCtx, cancel := context.WithTimeout(ctx, sendTimeout)
	defer cancel()

	if err := d.next.Notify(sendCtx, j.session, j.kind); err != nil {
		d.logger.Error("Failed to deliver notification",
			zap.String("session_id", j.session.ID.String()),
			zap.String("event", string(j.kind)),
			zap.Error(err),
		)
	}
}
