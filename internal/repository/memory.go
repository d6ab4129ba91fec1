package repository

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
	"time"

	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/errors"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/models"
)

// clone deep-copies v through JSON so callers never share state with the store.
func clone[T any](v *T) *T {
	data, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	var out T
	if err := json.Unmarshal(data, &out); err != nil {
		panic(err)
	}
	return &out
}

func paginate[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return []T{}
	}
	end := len(items)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return items[offset:end]
}

// MemoryOrderRepository is an in-process OrderRepository for tests and local runs.
type MemoryOrderRepository struct {
	mu     sync.RWMutex
	orders map[string]*models.Order
}

// NewMemoryOrderRepository creates an empty in-memory order repository.
func NewMemoryOrderRepository() *MemoryOrderRepository {
	return &MemoryOrderRepository{orders: make(map[string]*models.Order)}
}

func (r *MemoryOrderRepository) Create(ctx context.Context, order *models.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if order.ID == "" {
		order.ID = generateOrderID()
	}
	if order.CreatedAt.IsZero() {
		order.CreatedAt = time.Now().UTC()
	}
	order.UpdatedAt = order.CreatedAt
	r.orders[order.ID] = clone(order)
	return nil
}

func (r *MemoryOrderRepository) GetByID(ctx context.Context, id string) (*models.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	order, ok := r.orders[id]
	if !ok {
		return nil, errors.ErrNotFound
	}
	return clone(order), nil
}

func (r *MemoryOrderRepository) List(ctx context.Context, filter *models.OrderListFilter) ([]*models.Order, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	matched := make([]*models.Order, 0)
	for _, o := range r.orders {
		if filter.UserID != "" && o.UserID != filter.UserID {
			continue
		}
		if filter.VendorID != "" && !o.HasVendor(filter.VendorID) {
			continue
		}
		if filter.DriverID != "" && o.DriverID != filter.DriverID {
			continue
		}
		if filter.Status != nil && o.Status != *filter.Status {
			continue
		}
		matched = append(matched, clone(o))
	}

	sort.Slice(matched, func(i, j int) bool {
		if matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].ID > matched[j].ID
		}
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	return paginate(matched, filter.Limit, filter.Offset), len(matched), nil
}

func (r *MemoryOrderRepository) UpdateStatus(ctx context.Context, id string, from, to models.OrderStatus) (*models.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	order, ok := r.orders[id]
	if !ok {
		return nil, errors.ErrNotFound
	}
	if order.Status != from {
		return nil, ErrStatusConflict
	}

	now := time.Now().UTC()
	order.Status = to
	order.UpdatedAt = now
	switch to {
	case models.OrderStatusShipped:
		order.ShippedAt = &now
	case models.OrderStatusDelivered:
		order.DeliveredAt = &now
	}
	return clone(order), nil
}

func (r *MemoryOrderRepository) AssignDriver(ctx context.Context, id string, from models.OrderStatus, driverID string) (*models.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	order, ok := r.orders[id]
	if !ok {
		return nil, errors.ErrNotFound
	}
	if order.Status != from {
		return nil, ErrStatusConflict
	}

	now := time.Now().UTC()
	order.DriverID = driverID
	order.Status = models.OrderStatusShipped
	order.ShippedAt = &now
	order.UpdatedAt = now
	return clone(order), nil
}

// MemoryProcurementRepository is an in-process ProcurementRepository.
type MemoryProcurementRepository struct {
	mu     sync.RWMutex
	orders map[string]*models.ProcurementOrder
}

// NewMemoryProcurementRepository creates an empty in-memory procurement repository.
func NewMemoryProcurementRepository() *MemoryProcurementRepository {
	return &MemoryProcurementRepository{orders: make(map[string]*models.ProcurementOrder)}
}

func (r *MemoryProcurementRepository) Create(ctx context.Context, po *models.ProcurementOrder) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if po.ID == "" {
		po.ID = generateProcurementID()
	}
	if po.CreatedAt.IsZero() {
		po.CreatedAt = time.Now().UTC()
	}
	po.UpdatedAt = po.CreatedAt
	r.orders[po.ID] = clone(po)
	return nil
}

func (r *MemoryProcurementRepository) GetByID(ctx context.Context, id string) (*models.ProcurementOrder, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	po, ok := r.orders[id]
	if !ok {
		return nil, errors.ErrNotFound
	}
	return clone(po), nil
}

func (r *MemoryProcurementRepository) ListByVendor(ctx context.Context, vendorID string, limit, offset int) ([]*models.ProcurementOrder, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	matched := make([]*models.ProcurementOrder, 0)
	for _, po := range r.orders {
		if po.VendorID == vendorID {
			matched = append(matched, clone(po))
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		if matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].ID > matched[j].ID
		}
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})
	return paginate(matched, limit, offset), len(matched), nil
}

func (r *MemoryProcurementRepository) UpdateStatus(ctx context.Context, id string, status models.ProcurementStatus) (*models.ProcurementOrder, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	po, ok := r.orders[id]
	if !ok {
		return nil, errors.ErrNotFound
	}
	po.Status = status
	po.UpdatedAt = time.Now().UTC()
	return clone(po), nil
}

// MemoryNotificationRepository is an in-process NotificationRepository.
type MemoryNotificationRepository struct {
	mu    sync.RWMutex
	items []*models.Notification
}

// NewMemoryNotificationRepository creates an empty in-memory notification repository.
func NewMemoryNotificationRepository() *MemoryNotificationRepository {
	return &MemoryNotificationRepository{}
}

func (r *MemoryNotificationRepository) Create(ctx context.Context, n *models.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if n.ID == "" {
		n.ID = generateNotificationID()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now().UTC()
	}
	r.items = append(r.items, clone(n))
	return nil
}

func (r *MemoryNotificationRepository) List(ctx context.Context, filter *models.NotificationFilter) ([]*models.Notification, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	matched := make([]*models.Notification, 0)
	// Newest first: items are appended in creation order.
	for i := len(r.items) - 1; i >= 0; i-- {
		n := r.items[i]
		if n.UserID != filter.UserID || (filter.UnreadOnly && n.Read) {
			continue
		}
		matched = append(matched, clone(n))
	}
	return paginate(matched, filter.Limit, filter.Offset), len(matched), nil
}

func (r *MemoryNotificationRepository) MarkRead(ctx context.Context, userID, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, n := range r.items {
		if n.ID == id && n.UserID == userID {
			n.Read = true
			return nil
		}
	}
	return errors.ErrNotFound
}

func (r *MemoryNotificationRepository) MarkAllRead(ctx context.Context, userID string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	count := 0
	for _, n := range r.items {
		if n.UserID == userID && !n.Read {
			n.Read = true
			count++
		}
	}
	return count, nil
}

func (r *MemoryNotificationRepository) UnreadCount(ctx context.Context, userID string) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	count := 0
	for _, n := range r.items {
		if n.UserID == userID && !n.Read {
			count++
		}
	}
	return count, nil
}
