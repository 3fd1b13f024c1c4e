package notifications

import (
	"context"
	"fmt"
	"time"

	"tourly/pkg/logger"

	"github.com/IBM/sarama"
	"github.com/google/uuid"
)

// Queue enqueues notification messages for asynchronous delivery.
type Queue interface {
	Enqueue(ctx context.Context, msg *Message) error
	Close() error
}

// KafkaQueue publishes messages to a Kafka topic with a sync producer.
type KafkaQueue struct {
	producer sarama.SyncProducer
	topic    string
	logger   *logger.Logger
}

func NewKafkaQueue(brokers []string, topic string, log *logger.Logger) (*KafkaQueue, error) {
	cfg := sarama.NewConfig()
	cfg.Producer.Return.Successes = true
	cfg.Producer.Return.Errors = true
	cfg.Producer.RequiredAcks = sarama.WaitForAll
	cfg.Producer.Compression = sarama.CompressionSnappy
	cfg.Producer.Retry.Max = 3
	cfg.Producer.Timeout = 10 * time.Second
	cfg.Producer.Idempotent = true
	cfg.Net.MaxOpenRequests = 1
	cfg.Producer.Partitioner = sarama.NewHashPartitioner

	producer, err := sarama.NewSyncProducer(brokers, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create Kafka producer: %w", err)
	}

	return &KafkaQueue{producer: producer, topic: topic, logger: log}, nil
}

func (q *KafkaQueue) Enqueue(ctx context.Context, msg *Message) error {
	value, err := msg.ToJSON()
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	kafkaMsg := &sarama.ProducerMessage{
		Topic:     q.topic,
		Key:       sarama.StringEncoder(msg.PartitionKey()),
		Value:     sarama.ByteEncoder(value),
		Headers:   q.headers(msg),
		Timestamp: msg.CreatedAt,
	}

	partition, offset, err := q.producer.SendMessage(kafkaMsg)
	if err != nil {
		return fmt.Errorf("failed to enqueue notification: %w", err)
	}

	q.logger.Info("notification enqueued",
		"template", msg.Template,
		"partition", partition,
		"offset", offset,
	)
	return nil
}

func (q *KafkaQueue) headers(msg *Message) []sarama.RecordHeader {
	headers := []sarama.RecordHeader{
		{Key: []byte("message_id"), Value: []byte(msg.ID.String())},
		{Key: []byte("template"), Value: []byte(msg.Template)},
		{Key: []byte("created_at"), Value: []byte(msg.CreatedAt.Format(time.RFC3339))},
	}
	if msg.BookingID != nil {
		headers = append(headers, sarama.RecordHeader{Key: []byte("booking_id"), Value: []byte(msg.BookingID.String())})
	}
	return headers
}

func (q *KafkaQueue) Close() error {
	if q.producer != nil {
		return q.producer.Close()
	}
	return nil
}

// NopQueue drops messages, used when no broker is configured. Notifications
// are best-effort; booking flows must not depend on the broker being up.
type NopQueue struct {
	logger *logger.Logger
}

func NewNopQueue(log *logger.Logger) *NopQueue {
	return &NopQueue{logger: log}
}

func (q *NopQueue) Enqueue(ctx context.Context, msg *Message) error {
	q.logger.Debug("notification dropped, no queue configured",
		"template", msg.Template,
		"message_id", msg.ID,
	)
	return nil
}

func (q *NopQueue) Close() error { return nil }

// Helpers building the standard lifecycle messages.

func BookingConfirmed(bookingID, userID uuid.UUID, payload map[string]interface{}) *Message {
	msg := NewMessage(TemplateBookingConfirmed, payload)
	msg.BookingID = &bookingID
	msg.UserID = &userID
	return msg
}

func BookingCancelled(bookingID, userID uuid.UUID, payload map[string]interface{}) *Message {
	msg := NewMessage(TemplateBookingCancelled, payload)
	msg.BookingID = &bookingID
	msg.UserID = &userID
	return msg
}

func SupplierActionRequired(bookingID, supplierID uuid.UUID, payload map[string]interface{}) *Message {
	msg := NewMessage(TemplateSupplierActionRequired, payload)
	msg.BookingID = &bookingID
	msg.UserID = &supplierID
	return msg
}

func RefundIssued(bookingID, userID uuid.UUID, payload map[string]interface{}) *Message {
	msg := NewMessage(TemplateRefundIssued, payload)
	msg.BookingID = &bookingID
	msg.UserID = &userID
	return msg
}
