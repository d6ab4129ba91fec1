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

const notificationColumns = ` id, user_id, kind, title, body, metadata, read, created_at`

// PostgresNotificationRepository implements NotificationRepository using PostgreSQL.
type PostgresNotificationRepository struct {
	db     *sql.DB
	logger *logging.LoggerV2
}

// NewPostgresNotificationRepository creates a new PostgreSQL notification repository.
func NewPostgresNotificationRepository(db *sql.DB, logger *logging.LoggerV2) *PostgresNotificationRepository {
	return &PostgresNotificationRepository{db: db, logger: logger}
}

func (r *PostgresNotificationRepository) Create(ctx context.Context, n *models.Notification) error {
	if n.ID == "" {
		n.ID = generateNotificationID()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now().UTC()
	}

	metaJSON, err := json.Marshal(n.Metadata)
	if err != nil {
		return err
	}

	query := `INSERT INTO notifications (` + notificationColumns + `) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	if _, err := r.db.ExecContext(ctx, query, n.ID, n.UserID, n.Kind, n.Title, n.Body, metaJSON, n.Read, n.CreatedAt); err != nil {
		r.logger.Error("Failed to store notification", logging.Fields{
			"user_id": n.UserID,
			"kind":    n.Kind,
			"error":   err.Error(),
		})
		return err
	}
	return nil
}

func (r *PostgresNotificationRepository) List(ctx context.Context, filter *models.NotificationFilter) ([]*models.Notification, int, error) {
	w := &whereBuilder{}
	w.add("user_id = ?", filter.UserID)
	if filter.UnreadOnly {
		w.addRaw("read = FALSE")
	}

	var total int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM notifications"+w.clause(), w.args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := "SELECT" + notificationColumns + " FROM notifications" + w.clause() + " ORDER BY created_at DESC"
	query += w.page(filter.Limit, filter.Offset)

	rows, err := r.db.QueryContext(ctx, query, w.args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := make([]*models.Notification, 0)
	for rows.Next() {
		var n models.Notification
		var metaJSON []byte
		if err := rows.Scan(&n.ID, &n.UserID, &n.Kind, &n.Title, &n.Body, &metaJSON, &n.Read, &n.CreatedAt); err != nil {
			return nil, 0, err
		}
		if len(metaJSON) > 0 {
			if err := json.Unmarshal(metaJSON, &n.Metadata); err != nil {
				return nil, 0, err
			}
		}
		out = append(out, &n)
	}
	return out, total, rows.Err()
}

// MarkRead marks one of the user's notifications as read.
func (r *PostgresNotificationRepository) MarkRead(ctx context.Context, userID, id string) error {
	result, err := r.db.ExecContext(ctx, `UPDATE notifications SET read = TRUE WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return err
	}
	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return errors.ErrNotFound
	}
	return nil
}

func (r *PostgresNotificationRepository) MarkAllRead(ctx context.Context, userID string) (int, error) {
	result, err := r.db.ExecContext(ctx, `UPDATE notifications SET read = TRUE WHERE user_id = $1 AND read = FALSE`, userID)
	if err != nil {
		return 0, err
	}
	rowsAffected, _ := result.RowsAffected()
	return int(rowsAffected), nil
}

func (r *PostgresNotificationRepository) UnreadCount(ctx context.Context, userID string) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM notifications WHERE user_id = $1 AND read = FALSE`, userID).Scan(&count)
	return count, err
}
