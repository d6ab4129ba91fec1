package repository

import (
	"context"
	"strconv"
	"strings"

	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/errors"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/models"
)

// OrderRepository persists customer orders.
type OrderRepository interface {
	Create(ctx context.Context, order *models.Order) error
	GetByID(ctx context.Context, id string) (*models.Order, error)
	List(ctx context.Context, filter *models.OrderListFilter) ([]*models.Order, int, error)
	// UpdateStatus and AssignDriver apply only while the order is still in status from and
	// return ErrStatusConflict otherwise.
	UpdateStatus(ctx context.Context, id string, from, to models.OrderStatus) (*models.Order, error)
	AssignDriver(ctx context.Context, id string, from models.OrderStatus, driverID string) (*models.Order, error)
}

// ErrStatusConflict reports a status change that lost a race with another request.
var ErrStatusConflict = errors.NewValidationError("status", "order status was changed by another request")

// ProcurementRepository persists vendor procurement orders.
type ProcurementRepository interface {
	Create(ctx context.Context, po *models.ProcurementOrder) error
	GetByID(ctx context.Context, id string) (*models.ProcurementOrder, error)
	ListByVendor(ctx context.Context, vendorID string, limit, offset int) ([]*models.ProcurementOrder, int, error)
	UpdateStatus(ctx context.Context, id string, status models.ProcurementStatus) (*models.ProcurementOrder, error)
}

// NotificationRepository persists notification panel entries.
type NotificationRepository interface {
	Create(ctx context.Context, n *models.Notification) error
	List(ctx context.Context, filter *models.NotificationFilter) ([]*models.Notification, int, error)
	MarkRead(ctx context.Context, userID, id string) error
	MarkAllRead(ctx context.Context, userID string) (int, error)
	UnreadCount(ctx context.Context, userID string) (int, error)
}

var (
	_ OrderRepository        = (*PostgresOrderRepository)(nil)
	_ OrderRepository        = (*MemoryOrderRepository)(nil)
	_ ProcurementRepository  = (*PostgresProcurementRepository)(nil)
	_ ProcurementRepository  = (*MemoryProcurementRepository)(nil)
	_ NotificationRepository = (*PostgresNotificationRepository)(nil)
	_ NotificationRepository = (*MemoryNotificationRepository)(nil)
)

// whereBuilder accumulates AND-ed conditions with numbered placeholders.
type whereBuilder struct {
	conds []string
	args  []interface{}
}

func (w *whereBuilder) add(cond string, arg interface{}) {
	w.args = append(w.args, arg)
	w.conds = append(w.conds, strings.ReplaceAll(cond, "?", "$"+strconv.Itoa(len(w.args))))
}

func (w *whereBuilder) addRaw(cond string) {
	w.conds = append(w.conds, cond)
}

func (w *whereBuilder) clause() string {
	if len(w.conds) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(w.conds, " AND ")
}

// page appends LIMIT and OFFSET placeholders and returns the suffix.
func (w *whereBuilder) page(limit, offset int) string {
	w.args = append(w.args, limit, offset)
	n := len(w.args)
	return " LIMIT $" + strconv.Itoa(n-1) + " OFFSET $" + strconv.Itoa(n)
}
