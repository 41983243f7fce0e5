// Package notify queues best-effort side effects (mail, mailing list
// subscriptions, geolocation) and runs them on a bounded worker pool.
// Failures are logged and dropped; nothing is retried.
package notify

import (
	"context"
	"errors"
	"fmt"
	"time"

	"devforum/internal/metrics"

	"github.com/sirupsen/logrus"
)

var (
	ErrQueueFull = errors.New("notification queue is full")
	ErrClosed    = errors.New("notification queue is closed")
)

// handleTimeout bounds a single handler invocation.
const handleTimeout = 30 * time.Second

// Dispatcher accepts messages without waiting for them to be handled.
type Dispatcher interface {
	Enqueue(ctx context.Context, msg Message) error
	// Close stops accepting messages and waits for in-flight work until ctx ends.
	Close(ctx context.Context) error
}

// Handler performs the side effect described by a message.
type Handler interface {
	Handle(ctx context.Context, msg Message) error
}

type HandlerFunc func(ctx context.Context, msg Message) error

func (f HandlerFunc) Handle(ctx context.Context, msg Message) error { return f(ctx, msg) }

// Router dispatches messages to the handler registered for their kind.
type Router struct {
	handlers map[Kind]Handler
}

func NewRouter() *Router {
	return &Router{handlers: make(map[Kind]Handler)}
}

func (r *Router) Register(kind Kind, h Handler) *Router {
	r.handlers[kind] = h
	return r
}

func (r *Router) Handle(ctx context.Context, msg Message) error {
	h, ok := r.handlers[msg.Kind]
	if !ok {
		return fmt.Errorf("no handler for %q", msg.Kind)
	}
	return h.Handle(ctx, msg)
}

// run executes one message and swallows its failure.
func run(h Handler, m *metrics.Metrics, msg Message) {
	ctx, cancel := context.WithTimeout(context.Background(), handleTimeout)
	defer cancel()

	logger := logrus.WithFields(logrus.Fields{"message_id": msg.ID, "kind": msg.Kind})
	defer func() {
		if rec := recover(); rec != nil {
			m.Notification(string(msg.Kind), metrics.NotifyFailed)
			logger.WithField("panic", rec).Error("notification handler panicked")
		}
	}()

	if err := msg.Validate(); err != nil {
		m.Notification(string(msg.Kind), metrics.NotifyFailed)
		logger.WithError(err).Warn("dropping invalid notification")
		return
	}
	if err := h.Handle(ctx, msg); err != nil {
		m.Notification(string(msg.Kind), metrics.NotifyFailed)
		logger.WithError(err).Warn("notification failed")
		return
	}
	m.Notification(string(msg.Kind), metrics.NotifyDelivered)
	logger.WithField("latency", time.Since(msg.EnqueuedAt).String()).Debug("notification delivered")
}

// Submit enqueues msg and logs instead of returning an error. Callers use it
// after their own work has committed.
func Submit(ctx context.Context, d Dispatcher, msg Message) {
	if d == nil {
		return
	}
	if err := d.Enqueue(ctx, msg); err != nil {
		logrus.WithError(err).WithFields(logrus.Fields{
			"message_id": msg.ID,
			"kind":       msg.Kind,
		}).Warn("failed to enqueue notification")
	}
}
