package notification

import (
	"context"
	"database/sql"
	"errors"
)

type postgresRepo struct{ db *sql.DB }

func NewPostgresRepository(db *sql.DB) Repository { return &postgresRepo{db: db} }

func (r *postgresRepo) ActiveID(ctx context.Context, q Execer, productID int64) (int64, bool, error) {
	var id int64
	err := q.QueryRowContext(ctx, `
		SELECT id FROM low_stock_notifications
		WHERE product_id=$1 AND is_active`, productID).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return id, true, nil
}

func (r *postgresRepo) Insert(ctx context.Context, q Execer, n *LowStockNotification) error {
	return q.QueryRowContext(ctx, `
		INSERT INTO low_stock_notifications (product_id, message, is_active)
		VALUES ($1,$2,$3) RETURNING id, created_at`,
		n.ProductID, n.Message, n.IsActive).Scan(&n.ID, &n.CreatedAt)
}

func (r *postgresRepo) Deactivate(ctx context.Context, q Execer, id int64) error {
	_, err := q.ExecContext(ctx,
		`UPDATE low_stock_notifications SET is_active=FALSE WHERE id=$1`, id)
	return err
}

func (r *postgresRepo) ListActive(ctx context.Context) ([]*LowStockNotification, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, product_id, message, is_active, created_at
		FROM low_stock_notifications WHERE is_active ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var notifs []*LowStockNotification
	for rows.Next() {
		n := &LowStockNotification{}
		if err := rows.Scan(&n.ID, &n.ProductID, &n.Message, &n.IsActive, &n.CreatedAt); err != nil {
			return nil, err
		}
		notifs = append(notifs, n)
	}
	return notifs, rows.Err()
}
