package events

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"

	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/config"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/logging"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/metrics"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/models"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/requestctx"
)

// OrderPublisher publishes order lifecycle events.
type OrderPublisher interface {
	PublishOrderCreated(ctx context.Context, order *models.Order) error
	PublishOrderStatusChanged(ctx context.Context, order *models.Order, previousStatus models.OrderStatus) error
	PublishOrderCancelled(ctx context.Context, order *models.Order, reason string) error
}

var (
	_ OrderPublisher = (*KafkaPublisher)(nil)
	_ OrderPublisher = (*MockEventPublisher)(nil)
	_ OrderPublisher = NopPublisher{}
)

// EventType represents the type of order event.
type EventType string

const (
	EventTypeOrderCreated       EventType = "order.created"
	EventTypeOrderStatusChanged EventType = "order.status_changed"
	EventTypeOrderCancelled     EventType = "order.cancelled"
)

// OrderEvent represents an order-related event.
type OrderEvent struct {
	ID            string            `json:"id"`
	Type          EventType         `json:"type"`
	OrderID       string            `json:"order_id"`
	UserID        string            `json:"user_id"`
	Data          json.RawMessage   `json:"data"`
	Metadata      map[string]string `json:"metadata"`
	Timestamp     time.Time         `json:"timestamp"`
	CorrelationID string            `json:"correlation_id,omitempty"`
}

// KafkaPublisher publishes order events to Kafka.
type KafkaPublisher struct {
	writer *kafka.Writer
	topic  string
	logger *logging.LoggerV2
}

// NewKafkaPublisher creates a new Kafka-based event publisher.
func NewKafkaPublisher(cfg config.KafkaConfig, logger *logging.LoggerV2) *KafkaPublisher {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.OrdersTopic,
		Balancer:     &kafka.Hash{},
		WriteTimeout: 10 * time.Second,
		RequiredAcks: kafka.RequireOne,
	}

	return &KafkaPublisher{
		writer: writer,
		topic:  cfg.OrdersTopic,
		logger: logger,
	}
}

// PublishOrderCreated publishes an order created event carrying the full order and breakdown.
func (p *KafkaPublisher) PublishOrderCreated(ctx context.Context, order *models.Order) error {
	p.logger.Debug("Publishing order created event", logging.Fields{
		"order_id": order.ID,
	})

	data, err := json.Marshal(order)
	if err != nil {
		return err
	}

	return p.publish(ctx, newOrderEvent(ctx, EventTypeOrderCreated, order, data))
}

// PublishOrderStatusChanged publishes an order status change event.
func (p *KafkaPublisher) PublishOrderStatusChanged(ctx context.Context, order *models.Order, previousStatus models.OrderStatus) error {
	p.logger.Debug("Publishing order status changed event", logging.Fields{
		"order_id":        order.ID,
		"previous_status": previousStatus,
		"new_status":      order.Status,
	})

	data, err := json.Marshal(StatusChangedPayload{
		Order:          order,
		PreviousStatus: previousStatus,
		NewStatus:      order.Status,
	})
	if err != nil {
		return err
	}

	return p.publish(ctx, newOrderEvent(ctx, EventTypeOrderStatusChanged, order, data))
}

// PublishOrderCancelled publishes an order cancellation event.
func (p *KafkaPublisher) PublishOrderCancelled(ctx context.Context, order *models.Order, reason string) error {
	p.logger.Debug("Publishing order cancelled event", logging.Fields{
		"order_id": order.ID,
		"reason":   reason,
	})

	data, err := json.Marshal(CancelledPayload{Order: order, Reason: reason})
	if err != nil {
		return err
	}

	return p.publish(ctx, newOrderEvent(ctx, EventTypeOrderCancelled, order, data))
}

// StatusChangedPayload is the data of an order.status_changed event.
type StatusChangedPayload struct {
	Order          *models.Order      `json:"order"`
	PreviousStatus models.OrderStatus `json:"previous_status"`
	NewStatus      models.OrderStatus `json:"new_status"`
}

// CancelledPayload is the data of an order.cancelled event.
type CancelledPayload struct {
	Order  *models.Order `json:"order"`
	Reason string        `json:"reason"`
}

func newOrderEvent(ctx context.Context, eventType EventType, order *models.Order, data []byte) *OrderEvent {
	return &OrderEvent{
		ID:      "evt_" + uuid.NewString(),
		Type:    eventType,
		OrderID: order.ID,
		UserID:  order.UserID,
		Data:    data,
		Metadata: map[string]string{
			"status": string(order.Status),
		},
		Timestamp:     time.Now().UTC(),
		CorrelationID: requestctx.RequestID(ctx),
	}
}

// toMessage keys by order id so one order's events stay on one partition.
func toMessage(event *OrderEvent) (kafka.Message, error) {
	eventData, err := json.Marshal(event)
	if err != nil {
		return kafka.Message{}, err
	}

	return kafka.Message{
		Key:   []byte(event.OrderID),
		Value: eventData,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(event.Type)},
			{Key: "event_id", Value: []byte(event.ID)},
		},
	}, nil
}

func (p *KafkaPublisher) publish(ctx context.Context, event *OrderEvent) error {
	msg, err := toMessage(event)
	if err != nil {
		return err
	}

	err = p.writer.WriteMessages(ctx, msg)
	metrics.EventPublished(string(event.Type), err)
	if err != nil {
		p.logger.Error("Failed to publish event", logging.Fields{
			"event_id":   event.ID,
			"event_type": event.Type,
			"order_id":   event.OrderID,
			"error":      err.Error(),
		})
		return err
	}

	p.logger.Info("Event published", logging.Fields{
		"event_id":   event.ID,
		"event_type": event.Type,
		"order_id":   event.OrderID,
		"topic":      p.topic,
	})

	return nil
}

// Close closes the Kafka writer.
func (p *KafkaPublisher) Close() error {
	p.logger.Info("Closing Kafka publisher")
	return p.writer.Close()
}

// NopPublisher drops events. Used when order events are disabled.
type NopPublisher struct{}

func (NopPublisher) PublishOrderCreated(ctx context.Context, order *models.Order) error { return nil }

func (NopPublisher) PublishOrderStatusChanged(ctx context.Context, order *models.Order, previousStatus models.OrderStatus) error {
	return nil
}

func (NopPublisher) PublishOrderCancelled(ctx context.Context, order *models.Order, reason string) error {
	return nil
}

// MockEventPublisher is a mock implementation for testing.
type MockEventPublisher struct {
	mu     sync.Mutex
	Events []*OrderEvent
	Err    error
}

func NewMockEventPublisher() *MockEventPublisher {
	return &MockEventPublisher{
		Events: make([]*OrderEvent, 0),
	}
}

func (m *MockEventPublisher) record(eventType EventType, order *models.Order, meta map[string]string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.Events = append(m.Events, &OrderEvent{
		Type:     eventType,
		OrderID:  order.ID,
		UserID:   order.UserID,
		Metadata: meta,
	})
	return nil
}

// Types returns the recorded event types in order.
func (m *MockEventPublisher) Types() []EventType {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]EventType, 0, len(m.Events))
	for _, e := range m.Events {
		out = append(out, e.Type)
	}
	return out
}

func (m *MockEventPublisher) PublishOrderCreated(ctx context.Context, order *models.Order) error {
	return m.record(EventTypeOrderCreated, order, nil)
}

func (m *MockEventPublisher) PublishOrderStatusChanged(ctx context.Context, order *models.Order, previousStatus models.OrderStatus) error {
	return m.record(EventTypeOrderStatusChanged, order, map[string]string{
		"previous_status": string(previousStatus),
		"new_status":      string(order.Status),
	})
}

func (m *MockEventPublisher) PublishOrderCancelled(ctx context.Context, order *models.Order, reason string) error {
	return m.record(EventTypeOrderCancelled, order, map[string]string{"reason": reason})
}
