package audit

import (
	"context"
	"database/sql"
)

type postgresRepo struct{ db *sql.DB }

func NewPostgresRepository(db *sql.DB) Repository { return &postgresRepo{db: db} }

// Record appends one entry using the caller's transaction so the audit row
// and the mutation it describes commit or roll back together.
func (r *postgresRepo) Record(ctx context.Context, q Execer, e *Entry) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO audit_log (admin_id, product_id, action, old_value, new_value)
		VALUES ($1,$2,$3,$4,$5)`,
		e.AdminID, e.ProductID, e.Action, e.OldValue, e.NewValue)
	return err
}

func (r *postgresRepo) List(ctx context.Context, limit, offset int) ([]*Entry, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, admin_id, product_id, action, old_value, new_value, timestamp
		FROM audit_log ORDER BY timestamp DESC LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var entries []*Entry
	for rows.Next() {
		e := &Entry{}
		if err := rows.Scan(&e.ID, &e.AdminID, &e.ProductID, &e.Action,
			&e.OldValue, &e.NewValue, &e.Timestamp); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
