package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/config"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/logging"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/metrics"
)

// DeliveryEventType represents the type of delivery event.
type DeliveryEventType string

const (
	DeliveryEventCompleted DeliveryEventType = "delivery.completed"
	DeliveryEventFailed    DeliveryEventType = "delivery.failed"
)

// DeliveryEvent is emitted by the external logistics tracker.
type DeliveryEvent struct {
	ID        string            `json:"id"`
	Type      DeliveryEventType `json:"type"`
	OrderID   string            `json:"order_id"`
	DriverID  string            `json:"driver_id"`
	Reason    string            `json:"reason,omitempty"`
	Timestamp time.Time         `json:"timestamp"`
}

// DeliveryHandler applies delivery outcomes to orders.
type DeliveryHandler interface {
	CompleteDelivery(ctx context.Context, orderID, driverID string) error
	FailDelivery(ctx context.Context, orderID, driverID, reason string) error
}

// KafkaConsumer consumes delivery events from Kafka.
type KafkaConsumer struct {
	reader  *kafka.Reader
	handler DeliveryHandler
	logger  *logging.LoggerV2
	stopCh  chan struct{}
}

// NewKafkaConsumer creates a new Kafka-based event consumer.
func NewKafkaConsumer(cfg config.KafkaConfig, handler DeliveryHandler, logger *logging.LoggerV2) *KafkaConsumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  cfg.Brokers,
		Topic:    cfg.DeliveriesTopic,
		GroupID:  cfg.ConsumerGroup,
		MinBytes: 1,
		MaxBytes: 10e6,
		MaxWait:  time.Second,
	})

	return newConsumer(reader, handler, logger)
}

func newConsumer(reader *kafka.Reader, handler DeliveryHandler, logger *logging.LoggerV2) *KafkaConsumer {
	return &KafkaConsumer{
		reader:  reader,
		handler: handler,
		logger:  logger,
		stopCh:  make(chan struct{}),
	}
}

// Start begins consuming events. It blocks until ctx is cancelled or Stop is called.
func (c *KafkaConsumer) Start(ctx context.Context) error {
	c.logger.Info("Starting Kafka consumer")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-c.stopCh:
			c.logger.Info("Kafka consumer stopped")
			return nil
		default:
			msg, err := c.reader.ReadMessage(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				select {
				case <-c.stopCh:
					c.logger.Info("Kafka consumer stopped")
					return nil
				default:
				}
				c.logger.Error("Failed to read message", logging.Fields{"error": err.Error()})
				continue
			}

			if err := c.handleMessage(ctx, msg); err != nil {
				c.logger.Error("Failed to handle delivery event", logging.Fields{
					"offset": msg.Offset,
					"error":  err.Error(),
				})
			}
		}
	}
}

// Stop stops the consumer.
func (c *KafkaConsumer) Stop() {
	close(c.stopCh)
	if c.reader != nil {
		c.reader.Close()
	}
}

func (c *KafkaConsumer) handleMessage(ctx context.Context, msg kafka.Message) error {
	c.logger.Debug("Received message", logging.Fields{
		"topic":     msg.Topic,
		"partition": msg.Partition,
		"offset":    msg.Offset,
	})

	var event DeliveryEvent
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		metrics.EventConsumed("malformed", err)
		return fmt.Errorf("unmarshal delivery event: %w", err)
	}
	if event.Type == "" {
		event.Type = DeliveryEventType(headerValue(msg, "event_type"))
	}

	var err error
	switch event.Type {
	case DeliveryEventCompleted:
		c.logger.Info("Handling delivery completed event", logging.Fields{
			"order_id":  event.OrderID,
			"driver_id": event.DriverID,
		})
		err = c.handler.CompleteDelivery(ctx, event.OrderID, event.DriverID)
	case DeliveryEventFailed:
		c.logger.Info("Handling delivery failed event", logging.Fields{
			"order_id": event.OrderID,
			"reason":   event.Reason,
		})
		err = c.handler.FailDelivery(ctx, event.OrderID, event.DriverID, event.Reason)
	default:
		c.logger.Debug("Ignoring unknown event type", logging.Fields{"type": event.Type})
		return nil
	}

	metrics.EventConsumed(string(event.Type), err)
	return err
}

func headerValue(msg kafka.Message, key string) string {
	for _, h := range msg.Headers {
		if h.Key == key {
			return string(h.Value)
		}
	}
	return ""
}
