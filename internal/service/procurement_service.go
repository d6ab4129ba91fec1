package service

import (
	"context"
	"fmt"

	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/errors"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/logging"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/models"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/pricing"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/repository"
)

// ProcurementService manages vendor stock purchases.
type ProcurementService struct {
	repo          repository.ProcurementRepository
	catalog       *CatalogService
	notifications *NotificationService
	logger        *logging.LoggerV2
}

// NewProcurementService creates a new procurement service.
func NewProcurementService(repo repository.ProcurementRepository, catalog *CatalogService, notifications *NotificationService) *ProcurementService {
	return &ProcurementService{
		repo:          repo,
		catalog:       catalog,
		notifications: notifications,
		logger:        logging.NewLoggerV2("procurement-service"),
	}
}

// CreateProcurementOrder prices the requested items against the catalog and stores the order.
// A negotiated unit price on an item overrides the catalog price; taxes still come from the catalog.
func (s *ProcurementService) CreateProcurementOrder(ctx context.Context, vendorID string, req *models.CreateProcurementRequest) (*models.ProcurementOrder, error) {
	if len(req.Items) == 0 {
		return nil, errors.NewValidationError("items", "at least one item is required")
	}

	products, err := s.catalog.ListProducts(ctx)
	if err != nil {
		return nil, err
	}

	items := make([]models.OrderItem, 0, len(req.Items))
	for i, it := range req.Items {
		p, ok := models.FindProduct(products, it.ProductID)
		if !ok {
			return nil, errors.NewValidationError("items", fmt.Sprintf("item %d: unknown product %s", i, it.ProductID))
		}

		qty := 1.0
		if it.Quantity != nil {
			qty = *it.Quantity
		}
		if err := validateQuantity(qty); err != nil {
			return nil, err
		}

		price := p.UnitPrice
		if it.UnitPrice != nil {
			if *it.UnitPrice < 0 {
				return nil, errors.NewValidationError("items", fmt.Sprintf("item %d: unit price cannot be negative", i))
			}
			price = *it.UnitPrice
		}

		items = append(items, models.OrderItem{
			ProductID: p.ID,
			Name:      p.Name,
			VendorID:  p.VendorID,
			Quantity:  qty,
			UnitPrice: price,
		})
	}

	po := &models.ProcurementOrder{
		VendorID: vendorID,
		Status:   models.ProcurementStatusRequested,
		Items:    items,
		Notes:    SanitizeOrderNotes(req.Notes),
	}
	po.Breakdown = pricing.Aggregate(po.LineItems(), models.Rates(products))

	if err := s.repo.Create(ctx, po); err != nil {
		return nil, err
	}

	s.logger.Info("Procurement order created", logging.Fields{
		"procurement_id": po.ID,
		"vendor_id":      vendorID,
		"item_count":     len(items),
	})
	return po, nil
}

// ListProcurementOrders returns the vendor's procurement orders newest first.
func (s *ProcurementService) ListProcurementOrders(ctx context.Context, vendorID string, limit, offset int) ([]*models.ProcurementOrder, int, error) {
	limit, offset, err := normalizePage(limit, offset)
	if err != nil {
		return nil, 0, err
	}
	return s.repo.ListByVendor(ctx, vendorID, limit, offset)
}

// GetProcurementOrder returns one of the vendor's procurement orders.
func (s *ProcurementService) GetProcurementOrder(ctx context.Context, vendorID, id string) (*models.ProcurementOrder, error) {
	po, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if po.VendorID != vendorID {
		return nil, errors.ErrForbidden
	}
	return po, nil
}

// UpdateProcurementStatus moves requested to approved or rejected, and approved to received.
func (s *ProcurementService) UpdateProcurementStatus(ctx context.Context, vendorID, id string, status models.ProcurementStatus) (*models.ProcurementOrder, error) {
	po, err := s.GetProcurementOrder(ctx, vendorID, id)
	if err != nil {
		return nil, err
	}
	if !isValidProcurementTransition(po.Status, status) {
		return nil, errors.NewValidationError("status", fmt.Sprintf(
			"invalid status transition from %s to %s",
			po.Status,
			status,
		))
	}

	updated, err := s.repo.UpdateStatus(ctx, id, status)
	if err != nil {
		return nil, err
	}

	s.notifications.Notify(ctx, &models.Notification{
		UserID: vendorID,
		Kind:   models.NotificationProcurementStatus,
		Title:  "Procurement " + string(status),
		Body:   fmt.Sprintf("Procurement order %s is now %s.", id, status),
		Metadata: map[string]string{
			"procurement_id":  id,
			"previous_status": string(po.Status),
			"status":          string(status),
		},
	})
	return updated, nil
}
