package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/lib/pq"

	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/errors"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/logging"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/models"
)

const orderColumns = `
		id, user_id, vendor_ids, status, items, rates, shipping_address,
		subtotal, cgst, sgst, delivery_fee, total,
		driver_id, notes, created_at, updated_at, shipped_at, delivered_at`

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

// PostgresOrderRepository implements OrderRepository using PostgreSQL.
type PostgresOrderRepository struct {
	db     *sql.DB
	logger *logging.LoggerV2
}

// NewPostgresOrderRepository creates a new PostgreSQL order repository.
func NewPostgresOrderRepository(db *sql.DB, logger *logging.LoggerV2) *PostgresOrderRepository {
	return &PostgresOrderRepository{
		db:     db,
		logger: logger,
	}
}

// GetByID retrieves an order by its unique identifier.
func (r *PostgresOrderRepository) GetByID(ctx context.Context, id string) (*models.Order, error) {
	r.logger.Debug("Fetching order by ID", logging.Fields{"order_id": id})

	query := `SELECT` + orderColumns + ` FROM orders WHERE id = $1`

	order, err := scanOrder(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, errors.ErrNotFound
	}
	if err != nil {
		r.logger.Error("Failed to fetch order", logging.Fields{
			"order_id": id,
			"error":    err.Error(),
		})
		return nil, err
	}

	return order, nil
}

// Create inserts a placed order. The breakdown and rates are stored as computed at checkout.
func (r *PostgresOrderRepository) Create(ctx context.Context, order *models.Order) error {
	r.logger.Debug("Creating new order", logging.Fields{"user_id": order.UserID})

	if order.ID == "" {
		order.ID = generateOrderID()
	}
	now := time.Now().UTC()
	if order.CreatedAt.IsZero() {
		order.CreatedAt = now
	}
	order.UpdatedAt = order.CreatedAt

	itemsJSON, err := json.Marshal(order.Items)
	if err != nil {
		return err
	}
	ratesJSON, err := json.Marshal(order.Rates)
	if err != nil {
		return err
	}
	shippingJSON, err := json.Marshal(order.ShippingAddress)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO orders (` + orderColumns + `
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18
		)
	`

	b := order.Breakdown
	_, err = r.db.ExecContext(ctx, query,
		order.ID,
		order.UserID,
		pq.Array(order.Vendors()),
		order.Status,
		itemsJSON,
		ratesJSON,
		shippingJSON,
		b.Subtotal,
		b.CGST,
		b.SGST,
		b.DeliveryFee,
		b.Total,
		nullString(order.DriverID),
		nullString(order.Notes),
		order.CreatedAt,
		order.UpdatedAt,
		order.ShippedAt,
		order.DeliveredAt,
	)
	if err != nil {
		r.logger.Error("Failed to create order", logging.Fields{
			"user_id": order.UserID,
			"error":   err.Error(),
		})
		return err
	}

	r.logger.Info("Order created successfully", logging.Fields{
		"order_id": order.ID,
		"user_id":  order.UserID,
		"total":    b.Total,
	})
	return nil
}

// UpdateStatus moves the order from one status to another and stamps shipped_at or
// delivered_at on those transitions. Order notes are left as the customer wrote them.
func (r *PostgresOrderRepository) UpdateStatus(ctx context.Context, id string, from, to models.OrderStatus) (*models.Order, error) {
	r.logger.Debug("Updating order status", logging.Fields{
		"order_id":   id,
		"old_status": from,
		"new_status": to,
	})

	now := time.Now().UTC()

	var shippedAt, deliveredAt *time.Time
	switch to {
	case models.OrderStatusShipped:
		shippedAt = &now
	case models.OrderStatusDelivered:
		deliveredAt = &now
	}

	query := `
		UPDATE orders
		SET status = $2, updated_at = $3,
		    shipped_at = COALESCE($4, shipped_at),
		    delivered_at = COALESCE($5, delivered_at)
		WHERE id = $1 AND status = $6
		RETURNING` + orderColumns

	order, err := scanOrder(r.db.QueryRowContext(ctx, query, id, to, now, shippedAt, deliveredAt, from))
	if err == sql.ErrNoRows {
		return nil, r.missedUpdate(ctx, id)
	}
	if err != nil {
		r.logger.Error("Failed to update order status", logging.Fields{
			"order_id": id,
			"error":    err.Error(),
		})
		return nil, err
	}

	r.logger.Info("Order status updated", logging.Fields{
		"order_id":   id,
		"new_status": to,
	})
	return order, nil
}

// AssignDriver records the driver and moves the order out for delivery.
func (r *PostgresOrderRepository) AssignDriver(ctx context.Context, id string, from models.OrderStatus, driverID string) (*models.Order, error) {
	now := time.Now().UTC()

	query := `
		UPDATE orders
		SET driver_id = $2, status = $3, shipped_at = $4, updated_at = $4
		WHERE id = $1 AND status = $5
		RETURNING` + orderColumns

	order, err := scanOrder(r.db.QueryRowContext(ctx, query, id, driverID, models.OrderStatusShipped, now, from))
	if err == sql.ErrNoRows {
		return nil, r.missedUpdate(ctx, id)
	}
	if err != nil {
		r.logger.Error("Failed to assign driver", logging.Fields{
			"order_id":  id,
			"driver_id": driverID,
			"error":     err.Error(),
		})
		return nil, err
	}

	r.logger.Info("Driver assigned", logging.Fields{
		"order_id":  id,
		"driver_id": driverID,
	})
	return order, nil
}

// missedUpdate tells an unknown order apart from one whose status moved first.
func (r *PostgresOrderRepository) missedUpdate(ctx context.Context, id string) error {
	var exists bool
	err := r.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM orders WHERE id = $1)`, id).Scan(&exists)
	if err != nil {
		return err
	}
	if exists {
		return ErrStatusConflict
	}
	return errors.ErrNotFound
}

// List retrieves orders newest first, with the total count before paging.
func (r *PostgresOrderRepository) List(ctx context.Context, filter *models.OrderListFilter) ([]*models.Order, int, error) {
	r.logger.Debug("Listing orders", logging.Fields{
		"user_id":   filter.UserID,
		"vendor_id": filter.VendorID,
		"driver_id": filter.DriverID,
		"limit":     filter.Limit,
		"offset":    filter.Offset,
	})

	w := orderWhere(filter)

	var total int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM orders"+w.clause(), w.args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := "SELECT" + orderColumns + " FROM orders" + w.clause() + " ORDER BY created_at DESC"
	query += w.page(filter.Limit, filter.Offset)

	rows, err := r.db.QueryContext(ctx, query, w.args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	orders := make([]*models.Order, 0)
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, 0, err
		}
		orders = append(orders, order)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	r.logger.Info("Orders listed", logging.Fields{
		"count": len(orders),
		"total": total,
	})
	return orders, total, nil
}

func orderWhere(filter *models.OrderListFilter) *whereBuilder {
	w := &whereBuilder{}
	if filter.UserID != "" {
		w.add("user_id = ?", filter.UserID)
	}
	if filter.VendorID != "" {
		w.add("? = ANY(vendor_ids)", filter.VendorID)
	}
	if filter.DriverID != "" {
		w.add("driver_id = ?", filter.DriverID)
	}
	if filter.Status != nil {
		w.add("status = ?", *filter.Status)
	}
	return w
}

func scanOrder(row rowScanner) (*models.Order, error) {
	var order models.Order
	var itemsJSON, ratesJSON, shippingJSON []byte
	var shippedAt, deliveredAt sql.NullTime
	var driverID, notes sql.NullString
	var vendorIDs pq.StringArray

	err := row.Scan(
		&order.ID,
		&order.UserID,
		&vendorIDs,
		&order.Status,
		&itemsJSON,
		&ratesJSON,
		&shippingJSON,
		&order.Breakdown.Subtotal,
		&order.Breakdown.CGST,
		&order.Breakdown.SGST,
		&order.Breakdown.DeliveryFee,
		&order.Breakdown.Total,
		&driverID,
		&notes,
		&order.CreatedAt,
		&order.UpdatedAt,
		&shippedAt,
		&deliveredAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(itemsJSON, &order.Items); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(ratesJSON, &order.Rates); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(shippingJSON, &order.ShippingAddress); err != nil {
		return nil, err
	}

	order.DriverID = driverID.String
	order.Notes = notes.String
	if shippedAt.Valid {
		order.ShippedAt = &shippedAt.Time
	}
	if deliveredAt.Valid {
		order.DeliveredAt = &deliveredAt.Time
	}
	return &order, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
