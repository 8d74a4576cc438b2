// Package events publishes order lifecycle events to Kafka.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/IBM/sarama"
	"github.com/lorahalle/storefront/storefront-backend/internal/domain"
	"github.com/rs/zerolog/log"
)

// EventTypeOrderPlaced is the event_type header of placed-order messages
const EventTypeOrderPlaced = "order.placed"

// OrderPlacedEvent is the message body published for a new order
type OrderPlacedEvent struct {
	EventID     string            `json:"eventId"`
	EventType   string            `json:"eventType"`
	Timestamp   time.Time         `json:"timestamp"`
	OrderID     string            `json:"orderId"`
	CustomerID  string            `json:"customerId"`
	Items       []domain.CartLine `json:"items"`
	TotalAmount int64             `json:"totalAmount"`
	Status      string            `json:"status"`
	CreatedAt   time.Time         `json:"createdAt"`
}

// NewOrderPlacedEvent builds the event for order
func NewOrderPlacedEvent(order *domain.Order, now time.Time) OrderPlacedEvent {
	return OrderPlacedEvent{
		EventID:     fmt.Sprintf("evt_%d", now.UnixNano()),
		EventType:   EventTypeOrderPlaced,
		Timestamp:   now,
		OrderID:     order.ID.String(),
		CustomerID:  order.CustomerID,
		Items:       order.Items,
		TotalAmount: order.TotalAmount,
		Status:      string(order.Status),
		CreatedAt:   order.CreatedAt,
	}
}

// KafkaPublisher wraps a Kafka producer
type KafkaPublisher struct {
	producer sarama.SyncProducer
	topic    string
}

// NewProducerConfig returns the producer settings used for order events
func NewProducerConfig() *sarama.Config {
	config := sarama.NewConfig()
	config.Producer.Return.Successes = true
	config.Producer.Retry.Max = 3
	config.Producer.RequiredAcks = sarama.WaitForAll
	config.Producer.Compression = sarama.CompressionSnappy
	config.Producer.MaxMessageBytes = 1000000
	return config
}

// NewKafkaPublisher connects a synchronous producer to brokers
func NewKafkaPublisher(brokers []string, topic string) (*KafkaPublisher, error) {
	producer, err := sarama.NewSyncProducer(brokers, NewProducerConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to create Kafka producer: %w", err)
	}

	log.Info().
		Strs("brokers", brokers).
		Str("topic", topic).
		Msg("Kafka publisher initialized")

	return NewKafkaPublisherWithProducer(producer, topic), nil
}

// NewKafkaPublisherWithProducer wraps an existing producer
func NewKafkaPublisherWithProducer(producer sarama.SyncProducer, topic string) *KafkaPublisher {
	return &KafkaPublisher{producer: producer, topic: topic}
}

// PublishOrderPlaced publishes an order.placed event keyed by order id
func (p *KafkaPublisher) PublishOrderPlaced(ctx context.Context, order *domain.Order) error {
	event := NewOrderPlacedEvent(order, time.Now().UTC())

	eventBytes, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	msg := &sarama.ProducerMessage{
		Topic: p.topic,
		Key:   sarama.StringEncoder(event.OrderID),
		Value: sarama.ByteEncoder(eventBytes),
		Headers: []sarama.RecordHeader{
			{Key: []byte("event_type"), Value: []byte(EventTypeOrderPlaced)},
			{Key: []byte("event_id"), Value: []byte(event.EventID)},
		},
	}

	partition, offset, err := p.producer.SendMessage(msg)
	if err != nil {
		return fmt.Errorf("failed to send message to Kafka: %w", err)
	}

	log.Info().
		Str("event_id", event.EventID).
		Str("topic", p.topic).
		Int32("partition", partition).
		Int64("offset", offset).
		Str("order_id", event.OrderID).
		Msg("Order placed event published")
	return nil
}

// Close closes the Kafka producer
func (p *KafkaPublisher) Close() error {
	if p.producer != nil {
		return p.producer.Close()
	}
	return nil
}

// NoopPublisher drops events. Used when no brokers are configured.
type NoopPublisher struct{}

// PublishOrderPlaced does nothing
func (NoopPublisher) PublishOrderPlaced(ctx context.Context, order *domain.Order) error {
	return nil
}
