package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"

	"github.com/eventmart/commerce-backend/internal/config"
)

// PurchaseEvent is published after a payment verification completes.
// Downstream consumers (notifications, analytics) key off OrderID.
type PurchaseEvent struct {
	OrderID         string    `json:"order_id"`
	OrderNumber     string    `json:"order_number"`
	TransactionType string    `json:"transaction_type"`
	UserID          string    `json:"user_id"`
	SubjectID       string    `json:"subject_id"`
	Quantity        int       `json:"quantity"`
	TotalPrice      float64   `json:"total_price"`
	CompletedAt     time.Time `json:"completed_at"`
}

// Producer publishes purchase events. A nil *Producer is valid and
// disables publishing.
type Producer struct {
	writer *kafka.Writer
	topic  string
	logger *logrus.Logger
}

// NewProducer creates a purchase event producer
func NewProducer(cfg config.KafkaConfig, logger *logrus.Logger) *Producer {
	if !cfg.Enabled {
		return nil
	}
	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.LeastBytes{},
		BatchTimeout: 50 * time.Millisecond,
		RequiredAcks: kafka.RequireOne,
	}
	return &Producer{writer: writer, topic: cfg.Topic, logger: logger}
}

// PublishPurchase publishes a purchase event keyed by order id
func (p *Producer) PublishPurchase(ctx context.Context, event PurchaseEvent) error {
	if p == nil {
		return nil
	}

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal purchase event: %w", err)
	}

	err = p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(event.OrderID),
		Value: data,
		Time:  time.Now(),
	})
	if err != nil {
		return fmt.Errorf("failed to write purchase event: %w", err)
	}

	p.logger.WithFields(logrus.Fields{
		"topic":    p.topic,
		"order_id": event.OrderID,
	}).Debug("Published purchase event")
	return nil
}

// Close releases the underlying writer
func (p *Producer) Close() error {
	if p == nil {
		return nil
	}
	return p.writer.Close()
}
