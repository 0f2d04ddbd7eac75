// Package outbox drains the notification outbox. Services append
// notification rows in the same transaction as the ledger write they
// announce; the dispatcher publishes pending rows to Kafka and records the
// delivery outcome. A failed publish only delays the notification, it never
// touches ledger state.
package outbox

import (
	"context"
	"encoding/json"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"github.com/inkbridge/settlement/internal/settlement/models"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

var jsonMarshal = json.Marshal

// Store is the slice of the repository the dispatcher needs.
type Store interface {
	ListPendingNotifications(ctx context.Context, limit int) ([]models.Notification, error)
	MarkNotificationSent(ctx context.Context, id uuid.UUID, sentAt time.Time) error
	BumpNotificationAttempts(ctx context.Context, id uuid.UUID) error
	MarkNotificationFailed(ctx context.Context, id uuid.UUID) error
}

// KafkaWriter is the producer surface, narrowed for testing.
type KafkaWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Message is the wire payload handed to the downstream delivery worker.
type Message struct {
	ID         uuid.UUID  `json:"id"`
	JobID      *uuid.UUID `json:"jobId,omitempty"`
	Type       string     `json:"type"`
	Recipient  string     `json:"recipient"`
	Subject    string     `json:"subject"`
	Body       string     `json:"body"`
	Attachment string     `json:"attachment,omitempty"`
}

// Dispatcher periodically drains pending notifications to Kafka.
type Dispatcher struct {
	store       Store
	writer      KafkaWriter
	logger      *zap.Logger
	interval    time.Duration
	batchSize   int
	maxAttempts int
	newBackOff  func() backoff.BackOff
	closeChan   chan struct{}
	doneChan    chan struct{}
}

const (
	defaultBatchSize   = 50
	defaultMaxAttempts = 5
)

// NewDispatcher builds a dispatcher over a real Kafka writer, creating the
// topic if it does not exist yet.
func NewDispatcher(brokers []string, topic string, store Store, logger *zap.Logger, interval time.Duration) (*Dispatcher, error) {
	conn, err := kafka.Dial("tcp", brokers[0])
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	err = conn.CreateTopics(kafka.TopicConfig{
		Topic:             topic,
		NumPartitions:     3,
		ReplicationFactor: 1,
	})
	if err != nil {
		logger.Warn("failed to create topic (may already exist)", zap.Error(err))
	}

	writer := &kafka.Writer{
		Addr:     kafka.TCP(brokers...),
		Balancer: &kafka.LeastBytes{},
		Topic:    topic,
	}
	return NewDispatcherWithWriter(writer, store, logger, interval), nil
}

// NewDispatcherWithWriter builds a dispatcher over an injected writer.
func NewDispatcherWithWriter(writer KafkaWriter, store Store, logger *zap.Logger, interval time.Duration) *Dispatcher {
	return &Dispatcher{
		store:       store,
		writer:      writer,
		logger:      logger.Named("outbox_dispatcher"),
		interval:    interval,
		batchSize:   defaultBatchSize,
		maxAttempts: defaultMaxAttempts,
		newBackOff: func() backoff.BackOff {
			return backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 3)
		},
		closeChan: make(chan struct{}),
		doneChan:  make(chan struct{}),
	}
}

// Start launches the drain loop.
func (d *Dispatcher) Start() {
	go d.loop()
}

func (d *Dispatcher) loop() {
	defer close(d.doneChan)
	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if err := d.DrainOnce(context.Background()); err != nil {
				d.logger.Error("outbox drain failed", zap.Error(err))
			}
		case <-d.closeChan:
			return
		}
	}
}

// DrainOnce publishes one batch of pending notifications. Each row is
// retried with exponential backoff within the pass; a row that still fails
// keeps its pending status until its attempt budget is spent.
func (d *Dispatcher) DrainOnce(ctx context.Context) error {
	pending, err := d.store.ListPendingNotifications(ctx, d.batchSize)
	if err != nil {
		return err
	}
	for i := range pending {
		d.dispatch(ctx, &pending[i])
	}
	return nil
}

func (d *Dispatcher) dispatch(ctx context.Context, n *models.Notification) {
	value, err := jsonMarshal(Message{
		ID:         n.ID,
		JobID:      n.JobID,
		Type:       n.Type,
		Recipient:  n.Recipient,
		Subject:    n.Subject,
		Body:       n.Body,
		Attachment: n.Attachment,
	})
	if err != nil {
		d.logger.Error("failed to serialize notification",
			zap.Error(err),
			zap.String("notification_id", n.ID.String()),
		)
		return
	}

	publish := func() error {
		return d.writer.WriteMessages(ctx, kafka.Message{
			Key:   []byte(n.ID.String()),
			Value: value,
		})
	}
	err = backoff.Retry(publish, d.newBackOff())
	if err != nil {
		d.logger.Error("failed to publish notification",
			zap.Error(err),
			zap.String("notification_id", n.ID.String()),
			zap.String("type", n.Type),
			zap.Int("attempts", n.Attempts+1),
		)
		if n.Attempts+1 >= d.maxAttempts {
			if markErr := d.store.MarkNotificationFailed(ctx, n.ID); markErr != nil {
				d.logger.Error("failed to mark notification failed", zap.Error(markErr))
			}
			return
		}
		if bumpErr := d.store.BumpNotificationAttempts(ctx, n.ID); bumpErr != nil {
			d.logger.Error("failed to bump notification attempts", zap.Error(bumpErr))
		}
		return
	}

	if err := d.store.MarkNotificationSent(ctx, n.ID, time.Now()); err != nil {
		d.logger.Error("failed to mark notification sent",
			zap.Error(err),
			zap.String("notification_id", n.ID.String()),
		)
	}
}

// Close stops the loop and closes the writer.
func (d *Dispatcher) Close() {
	close(d.closeChan)
	<-d.doneChan
	if err := d.writer.Close(); err != nil {
		d.logger.Error("failed to close Kafka writer", zap.Error(err))
	}
}
