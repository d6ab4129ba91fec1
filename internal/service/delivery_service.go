package service

import (
	"context"
	"fmt"

	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/errors"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/events"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/logging"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/models"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/repository"
)

var _ events.DeliveryHandler = (*DeliveryService)(nil)

// DeliveryService serves drivers and applies logistics tracker events.
type DeliveryService struct {
	orders *OrderService
	logger *logging.LoggerV2
}

// NewDeliveryService creates a new delivery service.
func NewDeliveryService(orders *OrderService) *DeliveryService {
	return &DeliveryService{
		orders: orders,
		logger: logging.NewLoggerV2("delivery-service"),
	}
}

// ListDeliveries returns the shipped orders assigned to driverID as cards.
func (s *DeliveryService) ListDeliveries(ctx context.Context, driverID string, limit, offset int) ([]models.OrderCard, int, error) {
	limit, offset, err := normalizePage(limit, offset)
	if err != nil {
		return nil, 0, err
	}

	shipped := models.OrderStatusShipped
	orders, total, err := s.orders.orderRepo.List(ctx, &models.OrderListFilter{
		DriverID: driverID,
		Status:   &shipped,
		Limit:    limit,
		Offset:   offset,
	})
	if err != nil {
		return nil, 0, err
	}

	cards := make([]models.OrderCard, 0, len(orders))
	for _, o := range orders {
		cards = append(cards, s.orders.Card(o))
	}
	return cards, total, nil
}

// MarkDelivered moves a shipped order assigned to driverID to delivered.
func (s *DeliveryService) MarkDelivered(ctx context.Context, driverID, orderID string) (*models.Order, error) {
	order, err := s.orders.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.DriverID != driverID {
		return nil, errors.ErrForbidden
	}

	s.logger.Info("Marking order delivered", logging.Fields{
		"order_id":  orderID,
		"driver_id": driverID,
	})
	return s.orders.transition(ctx, order, models.OrderStatusDelivered, "")
}

// CompleteDelivery applies a delivery.completed event. An empty driverID skips the driver check.
func (s *DeliveryService) CompleteDelivery(ctx context.Context, orderID, driverID string) error {
	order, err := s.orders.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		return err
	}
	if order.Status == models.OrderStatusDelivered {
		// Redelivered message.
		return nil
	}
	if driverID != "" && order.DriverID != "" && order.DriverID != driverID {
		return fmt.Errorf("delivery event for order %s names driver %s, assigned %s", orderID, driverID, order.DriverID)
	}

	_, err = s.orders.transition(ctx, order, models.OrderStatusDelivered, "")
	if errors.Is(err, repository.ErrStatusConflict) {
		// Marked delivered over HTTP while the event was in flight.
		if current, gerr := s.orders.orderRepo.GetByID(ctx, orderID); gerr == nil && current.Status == models.OrderStatusDelivered {
			return nil
		}
	}
	return err
}

// FailDelivery applies a delivery.failed event. The order stays shipped; the customer and
// its vendors are told the attempt failed.
func (s *DeliveryService) FailDelivery(ctx context.Context, orderID, driverID, reason string) error {
	order, err := s.orders.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		return err
	}
	if order.Status != models.OrderStatusShipped {
		return errors.NewValidationError("status", "order is not out for delivery")
	}
	if reason == "" {
		reason = "no reason given"
	}

	s.logger.Warn("Delivery attempt failed", logging.Fields{
		"order_id":  orderID,
		"driver_id": driverID,
		"reason":    reason,
	})

	meta := map[string]string{"order_id": order.ID, "reason": reason}
	recipients := append([]string{order.UserID}, order.Vendors()...)
	for _, userID := range recipients {
		s.orders.notifications.Notify(ctx, &models.Notification{
			UserID:   userID,
			Kind:     models.NotificationOrderStatus,
			Title:    "Delivery attempt failed",
			Body:     fmt.Sprintf("Delivery of order %s failed: %s.", order.ID, reason),
			Metadata: meta,
		})
	}
	return nil
}
