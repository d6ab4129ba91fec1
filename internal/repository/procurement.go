package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/errors"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/logging"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/models"
)

const procurementColumns = `
		id, vendor_id, status, items, subtotal, cgst, sgst, delivery_fee, total,
		notes, created_at, updated_at`

// PostgresProcurementRepository implements ProcurementRepository using PostgreSQL.
type PostgresProcurementRepository struct {
	db     *sql.DB
	logger *logging.LoggerV2
}

// NewPostgresProcurementRepository creates a new PostgreSQL procurement repository.
func NewPostgresProcurementRepository(db *sql.DB, logger *logging.LoggerV2) *PostgresProcurementRepository {
	return &PostgresProcurementRepository{db: db, logger: logger}
}

func (r *PostgresProcurementRepository) Create(ctx context.Context, po *models.ProcurementOrder) error {
	if po.ID == "" {
		po.ID = generateProcurementID()
	}
	if po.CreatedAt.IsZero() {
		po.CreatedAt = time.Now().UTC()
	}
	po.UpdatedAt = po.CreatedAt

	itemsJSON, err := json.Marshal(po.Items)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO procurement_orders (` + procurementColumns + `
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`

	b := po.Breakdown
	_, err = r.db.ExecContext(ctx, query,
		po.ID, po.VendorID, po.Status, itemsJSON,
		b.Subtotal, b.CGST, b.SGST, b.DeliveryFee, b.Total,
		nullString(po.Notes), po.CreatedAt, po.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create procurement order", logging.Fields{
			"vendor_id": po.VendorID,
			"error":     err.Error(),
		})
		return err
	}

	r.logger.Info("Procurement order created", logging.Fields{
		"procurement_id": po.ID,
		"vendor_id":      po.VendorID,
		"total":          b.Total,
	})
	return nil
}

func (r *PostgresProcurementRepository) GetByID(ctx context.Context, id string) (*models.ProcurementOrder, error) {
	query := `SELECT` + procurementColumns + ` FROM procurement_orders WHERE id = $1`

	po, err := scanProcurement(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, errors.ErrNotFound
	}
	return po, err
}

func (r *PostgresProcurementRepository) ListByVendor(ctx context.Context, vendorID string, limit, offset int) ([]*models.ProcurementOrder, int, error) {
	w := &whereBuilder{}
	w.add("vendor_id = ?", vendorID)

	var total int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM procurement_orders"+w.clause(), w.args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := "SELECT" + procurementColumns + " FROM procurement_orders" + w.clause() + " ORDER BY created_at DESC"
	query += w.page(limit, offset)

	rows, err := r.db.QueryContext(ctx, query, w.args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := make([]*models.ProcurementOrder, 0)
	for rows.Next() {
		po, err := scanProcurement(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, po)
	}
	return out, total, rows.Err()
}

func (r *PostgresProcurementRepository) UpdateStatus(ctx context.Context, id string, status models.ProcurementStatus) (*models.ProcurementOrder, error) {
	query := `
		UPDATE procurement_orders SET status = $2, updated_at = $3
		WHERE id = $1
		RETURNING` + procurementColumns

	po, err := scanProcurement(r.db.QueryRowContext(ctx, query, id, status, time.Now().UTC()))
	if err == sql.ErrNoRows {
		return nil, errors.ErrNotFound
	}
	if err != nil {
		r.logger.Error("Failed to update procurement status", logging.Fields{
			"procurement_id": id,
			"error":          err.Error(),
		})
		return nil, err
	}

	r.logger.Info("Procurement status updated", logging.Fields{
		"procurement_id": id,
		"new_status":     status,
	})
	return po, nil
}

func scanProcurement(row rowScanner) (*models.ProcurementOrder, error) {
	var po models.ProcurementOrder
	var itemsJSON []byte
	var notes sql.NullString

	err := row.Scan(
		&po.ID,
		&po.VendorID,
		&po.Status,
		&itemsJSON,
		&po.Breakdown.Subtotal,
		&po.Breakdown.CGST,
		&po.Breakdown.SGST,
		&po.Breakdown.DeliveryFee,
		&po.Breakdown.Total,
		&notes,
		&po.CreatedAt,
		&po.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(itemsJSON, &po.Items); err != nil {
		return nil, err
	}
	po.Notes = notes.String
	return &po, nil
}
