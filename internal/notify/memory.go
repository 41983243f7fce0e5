package notify

import (
	"context"
	"sync"

	"devforum/internal/metrics"

	"github.com/sirupsen/logrus"
)

// MemoryQueue is an in-process bounded queue drained by a fixed number of
// workers. Enqueue never blocks; a full queue drops the message.
type MemoryQueue struct {
	handler Handler
	metrics *metrics.Metrics
	queue   chan Message
	wg      sync.WaitGroup

	mu     sync.RWMutex
	closed bool
}

func NewMemoryQueue(handler Handler, workers, size int, m *metrics.Metrics) *MemoryQueue {
	if workers <= 0 {
		workers = 1
	}
	if size <= 0 {
		size = 64
	}
	q := &MemoryQueue{
		handler: handler,
		metrics: m,
		queue:   make(chan Message, size),
	}
	for i := 0; i < workers; i++ {
		q.wg.Add(1)
		go q.worker()
	}
	logrus.WithFields(logrus.Fields{"workers": workers, "size": size}).Info("notification queue started")
	return q
}

func (q *MemoryQueue) worker() {
	defer q.wg.Done()
	for msg := range q.queue {
		run(q.handler, q.metrics, msg)
	}
}

func (q *MemoryQueue) Enqueue(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		return ErrClosed
	}
	select {
	case q.queue <- msg:
		q.metrics.Notification(string(msg.Kind), metrics.NotifyEnqueued)
		return nil
	default:
		q.metrics.Notification(string(msg.Kind), metrics.NotifyDropped)
		return ErrQueueFull
	}
}

// Close drains queued messages before returning, or gives up when ctx ends.
func (q *MemoryQueue) Close(ctx context.Context) error {
	q.mu.Lock()
	if !q.closed {
		q.closed = true
		close(q.queue)
	}
	q.mu.Unlock()

	done := make(chan struct{})
	go func() {
		q.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
