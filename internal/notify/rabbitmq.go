package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"devforum/internal/metrics"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"
)

const consumerTag = "devforum-notify"

// RabbitQueue publishes messages to a durable RabbitMQ queue and consumes
// them with a pool of workers in the same process. Publishing happens off the
// request path through a bounded outbox of size messages.
type RabbitQueue struct {
	conn      *amqp.Connection
	pubCh     *amqp.Channel
	subCh     *amqp.Channel
	queueName string
	handler   Handler
	metrics   *metrics.Metrics
	wg        sync.WaitGroup
	out       *outbox

	closeOnce sync.Once
}

// NewRabbitQueue dials url, declares the queue and starts workers consumers.
func NewRabbitQueue(url, queueName string, workers, size int, handler Handler, m *metrics.Metrics) (*RabbitQueue, error) {
	if workers <= 0 {
		workers = 1
	}
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("rabbitmq: dial: %w", err)
	}
	q := &RabbitQueue{conn: conn, queueName: queueName, handler: handler, metrics: m}
	if err := q.setup(workers); err != nil {
		_ = conn.Close()
		return nil, err
	}
	q.out = newOutbox(size, publishTimeout, q.publish, m)
	logrus.WithFields(logrus.Fields{"queue": queueName, "workers": workers, "size": size}).Info("rabbitmq notification queue started")
	return q, nil
}

func (q *RabbitQueue) setup(workers int) error {
	var err error
	if q.pubCh, err = q.conn.Channel(); err != nil {
		return fmt.Errorf("rabbitmq: open publish channel: %w", err)
	}
	if _, err = q.pubCh.QueueDeclare(
		q.queueName,
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,
	); err != nil {
		return fmt.Errorf("rabbitmq: declare queue %q: %w", q.queueName, err)
	}

	if q.subCh, err = q.conn.Channel(); err != nil {
		return fmt.Errorf("rabbitmq: open consume channel: %w", err)
	}
	if err = q.subCh.Qos(workers, 0, false); err != nil {
		return fmt.Errorf("rabbitmq: set qos: %w", err)
	}
	deliveries, err := q.subCh.Consume(
		q.queueName,
		consumerTag,
		false, // auto-ack
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("rabbitmq: consume: %w", err)
	}
	for i := 0; i < workers; i++ {
		q.wg.Add(1)
		go q.consume(deliveries)
	}
	return nil
}

func (q *RabbitQueue) consume(deliveries <-chan amqp.Delivery) {
	defer q.wg.Done()
	for d := range deliveries {
		msg, err := decodeDelivery(d.Body)
		if err != nil {
			logrus.WithError(err).WithField("delivery_tag", d.DeliveryTag).Warn("discarding malformed notification")
			_ = d.Nack(false, false)
			continue
		}
		run(q.handler, q.metrics, msg)
		// at-most-once: acknowledged whatever the handler outcome
		_ = d.Ack(false)
	}
}

func decodeDelivery(body []byte) (Message, error) {
	var msg Message
	if err := json.Unmarshal(body, &msg); err != nil {
		return Message{}, fmt.Errorf("decode notification: %w", err)
	}
	if msg.Kind == "" {
		return Message{}, errors.New("decode notification: missing kind")
	}
	return msg, nil
}

// Enqueue hands msg to the outbox and returns without waiting for the broker.
func (q *RabbitQueue) Enqueue(ctx context.Context, msg Message) error {
	return q.out.push(ctx, msg)
}

func (q *RabbitQueue) publish(ctx context.Context, msg Message) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("encode notification: %w", err)
	}
	err = q.pubCh.PublishWithContext(ctx,
		"",          // default exchange
		q.queueName, // routing key
		false,       // mandatory
		false,       // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			MessageId:    msg.ID,
			Type:         string(msg.Kind),
			Timestamp:    msg.EnqueuedAt,
			AppId:        "devforum",
			Body:         body,
		},
	)
	if err != nil {
		return fmt.Errorf("rabbitmq: publish: %w", err)
	}
	return nil
}

// Close flushes the outbox, cancels the consumer, lets workers finish the
// deliveries already received and closes the connection.
func (q *RabbitQueue) Close(ctx context.Context) error {
	var err error
	q.closeOnce.Do(func() { err = q.shutdown(ctx) })
	return err
}

func (q *RabbitQueue) shutdown(ctx context.Context) error {
	flushErr := q.out.close(ctx)
	if flushErr != nil {
		logrus.WithError(flushErr).Warn("rabbitmq: outbox not flushed")
	}

	if err := q.subCh.Cancel(consumerTag, false); err != nil {
		logrus.WithError(err).Warn("rabbitmq: cancel consumer")
	}

	done := make(chan struct{})
	go func() {
		q.wg.Wait()
		close(done)
	}()
	var waitErr error
	select {
	case <-done:
	case <-ctx.Done():
		waitErr = ctx.Err()
	}

	_ = q.pubCh.Close()
	_ = q.subCh.Close()
	if err := q.conn.Close(); err != nil && !errors.Is(err, amqp.ErrClosed) {
		return err
	}
	if waitErr != nil {
		return waitErr
	}
	return flushErr
}
