package notify

import (
	"context"
	"sync"
	"time"

	"devforum/internal/metrics"

	"github.com/sirupsen/logrus"
)

// publishTimeout bounds one broker publish made by the outbox goroutine.
const publishTimeout = 2 * time.Second

type publishFunc func(ctx context.Context, msg Message) error

// outbox hands messages from request goroutines to a single publisher so a
// slow broker never holds up a request. Like MemoryQueue, push never blocks.
type outbox struct {
	pending chan Message
	publish publishFunc
	timeout time.Duration
	metrics *metrics.Metrics
	done    chan struct{}

	mu     sync.RWMutex
	closed bool
}

func newOutbox(size int, timeout time.Duration, publish publishFunc, m *metrics.Metrics) *outbox {
	if size <= 0 {
		size = 64
	}
	if timeout <= 0 {
		timeout = publishTimeout
	}
	o := &outbox{
		pending: make(chan Message, size),
		publish: publish,
		timeout: timeout,
		metrics: m,
		done:    make(chan struct{}),
	}
	go o.run()
	return o
}

func (o *outbox) run() {
	defer close(o.done)
	for msg := range o.pending {
		ctx, cancel := context.WithTimeout(context.Background(), o.timeout)
		err := o.publish(ctx, msg)
		cancel()
		if err != nil {
			o.metrics.Notification(string(msg.Kind), metrics.NotifyDropped)
			logrus.WithError(err).WithFields(logrus.Fields{
				"message_id": msg.ID,
				"kind":       msg.Kind,
			}).Warn("failed to publish notification")
			continue
		}
		o.metrics.Notification(string(msg.Kind), metrics.NotifyEnqueued)
	}
}

func (o *outbox) push(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	o.mu.RLock()
	defer o.mu.RUnlock()
	if o.closed {
		return ErrClosed
	}
	select {
	case o.pending <- msg:
		return nil
	default:
		o.metrics.Notification(string(msg.Kind), metrics.NotifyDropped)
		return ErrQueueFull
	}
}

// close stops accepting messages and waits until the pending ones are published.
func (o *outbox) close(ctx context.Context) error {
	o.mu.Lock()
	if !o.closed {
		o.closed = true
		close(o.pending)
	}
	o.mu.Unlock()

	select {
	case <-o.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
