package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/config"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/errors"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/events"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/logging"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/metrics"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/models"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/pricing"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/repository"
)

// OrderService handles checkout and order fulfilment.
type OrderService struct {
	orderRepo      repository.OrderRepository
	carts          repository.CartStore
	catalog        *CatalogService
	notifications  *NotificationService
	eventPublisher events.OrderPublisher
	formatter      *pricing.Formatter
	config         *config.Config
	logger         *logging.LoggerV2
	now            func() time.Time
}

// NewOrderService creates a new order service.
func NewOrderService(
	orderRepo repository.OrderRepository,
	carts repository.CartStore,
	catalog *CatalogService,
	notifications *NotificationService,
	eventPublisher events.OrderPublisher,
	cfg *config.Config,
) *OrderService {
	return &OrderService{
		orderRepo:      orderRepo,
		carts:          carts,
		catalog:        catalog,
		notifications:  notifications,
		eventPublisher: eventPublisher,
		formatter:      pricing.NewFormatter(cfg.Pricing.CurrencySymbol),
		config:         cfg,
		logger:         logging.NewLoggerV2("order-service"),
		now:            time.Now,
	}
}

// Checkout places the user's cart as an order. Unit prices and tax rates are read from the
// catalog at this moment and stored with the order.
func (s *OrderService) Checkout(ctx context.Context, userID string, req *models.CheckoutRequest) (*models.Order, error) {
	if err := validateAddress(&req.ShippingAddress, "shipping_address"); err != nil {
		return nil, err
	}

	cart, err := s.carts.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(cart.Items) == 0 {
		return nil, errors.NewValidationError("items", "cart is empty")
	}

	s.logger.Info("Checking out cart", logging.Fields{
		"user_id":    userID,
		"item_count": len(cart.Items),
	})

	products, err := s.catalog.ListProducts(ctx)
	if err != nil {
		s.logger.Error("Catalog unavailable at checkout", logging.Fields{
			"user_id": userID,
			"error":   err.Error(),
		})
		return nil, err
	}

	items, rates, err := snapshotItems(cart.Items, products)
	if err != nil {
		return nil, err
	}

	order := &models.Order{
		UserID:          userID,
		Status:          models.OrderStatusPending,
		Items:           items,
		Rates:           rates,
		ShippingAddress: req.ShippingAddress,
		Notes:           SanitizeOrderNotes(req.Notes),
		CreatedAt:       s.now().UTC(),
	}
	order.Reprice()

	if err := s.orderRepo.Create(ctx, order); err != nil {
		s.logger.Error("Failed to create order", logging.Fields{
			"user_id": userID,
			"error":   err.Error(),
		})
		return nil, err
	}

	if err := s.carts.Delete(ctx, userID); err != nil {
		// Log but don't fail
		s.logger.Error("Failed to clear cart after checkout", logging.Fields{
			"user_id":  userID,
			"order_id": order.ID,
			"error":    err.Error(),
		})
	}

	metrics.OrderPlaced(order.Breakdown.Total)

	if s.config.Features.EnableOrderEvents {
		if err := s.eventPublisher.PublishOrderCreated(ctx, order); err != nil {
			// Log but don't fail
			s.logger.Error("Failed to publish order created event", logging.Fields{
				"order_id": order.ID,
				"error":    err.Error(),
			})
		}
	}

	s.sendOrderPlacedNotifications(ctx, order)

	s.logger.Info("Order created successfully", logging.Fields{
		"order_id": order.ID,
		"total":    order.Breakdown.Total,
	})

	return order, nil
}

// snapshotItems resolves cart lines against the catalog. Every product must exist.
func snapshotItems(cartItems []models.CartItem, products []models.Product) ([]models.OrderItem, []pricing.Rate, error) {
	items := make([]models.OrderItem, 0, len(cartItems))
	rates := make([]pricing.Rate, 0, len(cartItems))
	seen := make(map[string]bool)

	for _, ci := range cartItems {
		p, ok := models.FindProduct(products, ci.ProductID)
		if !ok {
			return nil, nil, errors.NewValidationError("items", "unknown product "+ci.ProductID)
		}
		if err := validateQuantity(ci.Quantity); err != nil {
			return nil, nil, err
		}

		items = append(items, models.OrderItem{
			ProductID: p.ID,
			Name:      p.Name,
			VendorID:  p.VendorID,
			Quantity:  ci.Quantity,
			UnitPrice: p.UnitPrice,
		})
		if !seen[p.ID] {
			seen[p.ID] = true
			rates = append(rates, p.Rate())
		}
	}
	return items, rates, nil
}

// GetOrder retrieves an order visible to actor.
func (s *OrderService) GetOrder(ctx context.Context, actor *models.Session, id string) (*models.Order, error) {
	s.logger.Debug("Getting order", logging.Fields{"order_id": id})

	order, err := s.orderRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !canView(actor, order) {
		return nil, errors.ErrForbidden
	}
	return order, nil
}

// ListOrders returns order cards scoped to the actor: customers see their orders, vendors the
// orders containing their products, drivers the orders assigned to them.
func (s *OrderService) ListOrders(ctx context.Context, actor *models.Session, filter *models.OrderListFilter) ([]models.OrderCard, int, error) {
	limit, offset, err := normalizePage(filter.Limit, filter.Offset)
	if err != nil {
		return nil, 0, err
	}
	if filter.Status != nil && !filter.Status.Valid() {
		return nil, 0, errors.NewValidationError("status", "invalid order status")
	}

	scoped := &models.OrderListFilter{Status: filter.Status, Limit: limit, Offset: offset}
	switch actor.Role {
	case models.RoleCustomer:
		scoped.UserID = actor.UserID
	case models.RoleVendor:
		scoped.VendorID = actor.UserID
	case models.RoleDriver:
		scoped.DriverID = actor.UserID
	default:
		return nil, 0, errors.ErrForbidden
	}

	s.logger.Debug("Listing orders", logging.Fields{
		"role":   actor.Role,
		"limit":  limit,
		"offset": offset,
	})

	orders, total, err := s.orderRepo.List(ctx, scoped)
	if err != nil {
		return nil, 0, err
	}

	cards := make([]models.OrderCard, 0, len(orders))
	for _, o := range orders {
		cards = append(cards, s.Card(o))
	}
	return cards, total, nil
}

// Card condenses an order for dashboard lists.
func (s *OrderService) Card(o *models.Order) models.OrderCard {
	total := pricing.Round2(o.Breakdown.Total)
	return models.OrderCard{
		ID:             o.ID,
		Status:         o.Status,
		StatusLabel:    o.Status.Label(),
		ItemCount:      len(o.Items),
		Total:          total,
		FormattedTotal: s.formatter.Amount(total),
		DriverID:       o.DriverID,
		CreatedAt:      o.CreatedAt,
	}
}

// Formatted renders the order breakdown as currency strings.
func (s *OrderService) Formatted(o *models.Order) pricing.FormattedBreakdown {
	return s.formatter.Breakdown(o.Breakdown)
}

// UpdateOrderStatus moves an order along the fulfilment flow. Vendors drive every step except
// that the assigned driver may mark a shipped order delivered.
func (s *OrderService) UpdateOrderStatus(ctx context.Context, actor *models.Session, id string, req *models.UpdateOrderStatusRequest) (*models.Order, error) {
	if err := ValidateUpdateOrderStatusRequest(req); err != nil {
		return nil, err
	}

	s.logger.Info("Updating order status", logging.Fields{
		"order_id":   id,
		"new_status": req.Status,
		"role":       actor.Role,
	})

	current, err := s.orderRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	switch actor.Role {
	case models.RoleVendor:
		if !current.HasVendor(actor.UserID) {
			return nil, errors.ErrForbidden
		}
	case models.RoleDriver:
		if current.DriverID != actor.UserID || req.Status != models.OrderStatusDelivered {
			return nil, errors.ErrForbidden
		}
	default:
		return nil, errors.ErrForbidden
	}

	return s.transition(ctx, current, req.Status, SanitizeOrderNotes(req.Notes))
}

// AssignDriver hands a packed order to a driver and marks it shipped.
func (s *OrderService) AssignDriver(ctx context.Context, actor *models.Session, id, driverID string) (*models.Order, error) {
	driverID = strings.TrimSpace(driverID)
	if driverID == "" {
		return nil, errors.NewValidationError("driver_id", "driver ID is required")
	}

	current, err := s.orderRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if actor.Role != models.RoleVendor || !current.HasVendor(actor.UserID) {
		return nil, errors.ErrForbidden
	}
	if !isValidStatusTransition(current.Status, models.OrderStatusShipped) {
		return nil, errors.NewValidationError("status", fmt.Sprintf(
			"cannot assign a driver to an order that is %s",
			current.Status,
		))
	}

	order, err := s.orderRepo.AssignDriver(ctx, id, current.Status, driverID)
	if err != nil {
		return nil, err
	}

	s.logger.Info("Driver assigned", logging.Fields{
		"order_id":  id,
		"driver_id": driverID,
	})
	s.afterTransition(ctx, order, current.Status, "")

	addr := order.ShippingAddress
	s.notifications.Notify(ctx, &models.Notification{
		UserID:   driverID,
		Kind:     models.NotificationDeliveryAssigned,
		Title:    "New delivery",
		Body:     fmt.Sprintf("Order %s to %s, %s is ready for pickup.", order.ID, addr.Line1, addr.City),
		Metadata: map[string]string{"order_id": order.ID},
	})

	return order, nil
}

// CancelOrder cancels a customer's own order while it has not shipped.
func (s *OrderService) CancelOrder(ctx context.Context, actor *models.Session, id string, reason string) (*models.Order, error) {
	if err := ValidateCancellationReason(reason); err != nil {
		return nil, err
	}

	s.logger.Info("Cancelling order", logging.Fields{
		"order_id": id,
		"reason":   reason,
	})

	order, err := s.orderRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if actor.Role != models.RoleCustomer || order.UserID != actor.UserID {
		return nil, errors.ErrForbidden
	}
	if !order.CanCancel() {
		return nil, errors.NewValidationError("status", "order cannot be cancelled in current state")
	}

	previousStatus := order.Status
	reason = SanitizeOrderNotes(reason)
	order, err = s.orderRepo.UpdateStatus(ctx, id, previousStatus, models.OrderStatusCancelled)
	if err != nil {
		return nil, err
	}

	metrics.OrderTransition(string(order.Status))

	if s.config.Features.EnableOrderEvents {
		if err := s.eventPublisher.PublishOrderCancelled(ctx, order, reason); err != nil {
			s.logger.Error("Failed to publish order cancelled event", logging.Fields{
				"order_id": order.ID,
				"error":    err.Error(),
			})
		}
	}

	s.sendStatusChangeNotifications(ctx, order, previousStatus, reason)
	return order, nil
}

// Invoice renders the bill for an order from its stored items, rates and breakdown.
func (s *OrderService) Invoice(ctx context.Context, actor *models.Session, id string) (*models.Invoice, error) {
	order, err := s.GetOrder(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	return s.buildInvoice(order), nil
}

func (s *OrderService) buildInvoice(order *models.Order) *models.Invoice {
	priced := pricing.Lines(order.LineItems(), order.Rates)
	lines := make([]models.InvoiceLine, 0, len(priced))
	for i, l := range priced {
		rate := rateFor(order.Rates, l.ProductID)
		lines = append(lines, models.InvoiceLine{
			ProductID:   l.ProductID,
			Name:        order.Items[i].Name,
			Quantity:    s.formatter.Quantity(l.Quantity),
			UnitPrice:   s.formatter.Amount(l.UnitPrice),
			Amount:      s.formatter.Amount(l.Amount),
			CGSTPercent: rate.CGSTPercent,
			CGST:        s.formatter.Amount(l.CGST),
			SGSTPercent: rate.SGSTPercent,
			SGST:        s.formatter.Amount(l.SGST),
			DeliveryFee: s.formatter.Amount(l.DeliveryFee),
		})
	}

	breakdown := order.Breakdown.Display()
	return &models.Invoice{
		InvoiceNumber:   InvoiceNumber(order),
		OrderID:         order.ID,
		CustomerID:      order.UserID,
		Status:          order.Status,
		StatusLabel:     order.Status.Label(),
		IssuedAt:        s.now().UTC(),
		ShippingAddress: order.ShippingAddress,
		Currency:        s.config.Pricing.Currency,
		Lines:           lines,
		Breakdown:       breakdown,
		Formatted:       s.formatter.Breakdown(breakdown),
	}
}

// InvoiceNumber returns INV-<yyyymmdd>-<last 8 characters of the order id, upper case>.
func InvoiceNumber(order *models.Order) string {
	suffix := order.ID
	if i := strings.LastIndex(suffix, "_"); i >= 0 {
		suffix = suffix[i+1:]
	}
	if len(suffix) > 8 {
		suffix = suffix[len(suffix)-8:]
	}
	return "INV-" + order.CreatedAt.UTC().Format("20060102") + "-" + strings.ToUpper(suffix)
}

func rateFor(rates []pricing.Rate, productID string) pricing.Rate {
	for _, r := range rates {
		if r.ProductID == productID {
			return r
		}
	}
	return pricing.Rate{}
}

// transition validates and applies a status change, then publishes and notifies. The note
// travels with the notifications; the order keeps the customer's own notes.
func (s *OrderService) transition(ctx context.Context, current *models.Order, to models.OrderStatus, note string) (*models.Order, error) {
	if !isValidStatusTransition(current.Status, to) {
		return nil, errors.NewValidationError("status", fmt.Sprintf(
			"invalid status transition from %s to %s",
			current.Status,
			to,
		))
	}

	order, err := s.orderRepo.UpdateStatus(ctx, current.ID, current.Status, to)
	if err != nil {
		return nil, err
	}

	s.afterTransition(ctx, order, current.Status, note)
	return order, nil
}

func (s *OrderService) afterTransition(ctx context.Context, order *models.Order, previousStatus models.OrderStatus, note string) {
	metrics.OrderTransition(string(order.Status))

	if s.config.Features.EnableOrderEvents {
		if err := s.eventPublisher.PublishOrderStatusChanged(ctx, order, previousStatus); err != nil {
			s.logger.Error("Failed to publish status change event", logging.Fields{
				"order_id": order.ID,
				"error":    err.Error(),
			})
		}
	}

	s.sendStatusChangeNotifications(ctx, order, previousStatus, note)
}

func (s *OrderService) sendOrderPlacedNotifications(ctx context.Context, order *models.Order) {
	total := s.formatter.Amount(order.Breakdown.Total)

	s.notifications.Notify(ctx, &models.Notification{
		UserID: order.UserID,
		Kind:   models.NotificationOrderPlaced,
		Title:  "Order placed",
		Body:   fmt.Sprintf("Your order %s for %s has been received.", order.ID, total),
		Metadata: map[string]string{
			"order_id": order.ID,
			"total":    total,
		},
	})

	for _, vendorID := range order.Vendors() {
		s.notifications.Notify(ctx, &models.Notification{
			UserID:   vendorID,
			Kind:     models.NotificationOrderPlaced,
			Title:    "New order",
			Body:     fmt.Sprintf("Order %s includes your products.", order.ID),
			Metadata: map[string]string{"order_id": order.ID},
		})
	}
}

func (s *OrderService) sendStatusChangeNotifications(ctx context.Context, order *models.Order, previousStatus models.OrderStatus, note string) {
	meta := map[string]string{
		"order_id":        order.ID,
		"previous_status": string(previousStatus),
		"status":          string(order.Status),
	}
	if note != "" {
		meta["note"] = note
	}

	s.notifications.Notify(ctx, &models.Notification{
		UserID:   order.UserID,
		Kind:     models.NotificationOrderStatus,
		Title:    order.Status.Label(),
		Body:     fmt.Sprintf("Your order %s is now: %s.", order.ID, strings.ToLower(order.Status.Label())),
		Metadata: meta,
	})

	// Vendors hear about the steps they do not drive themselves.
	if order.Status == models.OrderStatusCancelled || order.Status == models.OrderStatusDelivered {
		for _, vendorID := range order.Vendors() {
			s.notifications.Notify(ctx, &models.Notification{
				UserID:   vendorID,
				Kind:     models.NotificationOrderStatus,
				Title:    "Order " + string(order.Status),
				Body:     fmt.Sprintf("Order %s was %s.", order.ID, order.Status),
				Metadata: meta,
			})
		}
	}
}

func canView(actor *models.Session, order *models.Order) bool {
	if actor == nil {
		return false
	}
	switch actor.Role {
	case models.RoleCustomer:
		return order.UserID == actor.UserID
	case models.RoleVendor:
		return order.HasVendor(actor.UserID)
	case models.RoleDriver:
		return order.DriverID == actor.UserID
	}
	return false
}
