package dispense

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/lib/pq"

	"github.com/medtrack/rx-backend/internal/modules/notification"
	"github.com/medtrack/rx-backend/internal/pg"
)

type postgresRepo struct {
	db         *sql.DB
	reconciler *notification.Reconciler
}

func NewPostgresRepository(db *sql.DB, reconciler *notification.Reconciler) Repository {
	return &postgresRepo{db: db, reconciler: reconciler}
}

type lockedProduct struct {
	id           int64
	drug         string
	brand        string
	strength     string
	formulation  string
	price        float64
	stock        int
	reorderLevel int
}

// CreateDispense performs the whole basket as one transaction: lock the
// affected product rows in ascending id order, validate every line, insert
// the header and items, decrement stock, and reconcile notification state.
// Nothing is visible to other transactions until commit, and any failure
// rolls the whole basket back.
func (r *postgresRepo) CreateDispense(ctx context.Context, d *Dispense, lines []Line) ([]notification.Event, error) {
	ids := make([]int64, len(lines))
	for i, line := range lines {
		ids[i] = line.ProductID
	}
	// Ascending id order keeps lock acquisition consistent across
	// concurrently racing baskets, preventing circular waits.
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	locked, err := lockProducts(ctx, tx, ids)
	if err != nil {
		return nil, pg.Classify(err)
	}

	// Validate every line before any mutation.
	verr := &ValidationError{}
	for _, line := range lines {
		p, ok := locked[line.ProductID]
		if !ok {
			verr.add(line.ProductID, "product not found")
			continue
		}
		if p.stock < line.Qty {
			verr.add(line.ProductID, fmt.Sprintf("insufficient stock (%d available)", p.stock))
		}
	}
	if verr.failed() {
		return nil, verr
	}

	err = tx.QueryRowContext(ctx, `
		INSERT INTO dispenses (reference, user_id) VALUES ($1,$2)
		RETURNING id, created_at`,
		d.Reference, d.UserID).Scan(&d.ID, &d.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert dispense: %w", err)
	}

	var events []notification.Event
	for _, line := range lines {
		p := locked[line.ProductID]
		p.stock -= line.Qty

		if _, err := tx.ExecContext(ctx,
			`UPDATE products SET stock=$1, last_changed_at=NOW() WHERE id=$2`,
			p.stock, p.id); err != nil {
			return nil, fmt.Errorf("decrement stock for product %d: %w", p.id, err)
		}

		item := &DispenseItem{
			DispenseID:      d.ID,
			ProductID:       p.id,
			Qty:             line.Qty,
			PriceAtDispense: p.price,
			Drug:            p.drug,
			Strength:        p.strength,
		}
		err = tx.QueryRowContext(ctx, `
			INSERT INTO dispense_items (dispense_id, product_id, qty, price_at_dispense)
			VALUES ($1,$2,$3,$4) RETURNING id`,
			item.DispenseID, item.ProductID, item.Qty, item.PriceAtDispense).Scan(&item.ID)
		if err != nil {
			return nil, fmt.Errorf("insert dispense_item: %w", err)
		}
		d.Items = append(d.Items, item)

		ev, err := r.reconciler.Reconcile(ctx, tx, notification.ProductState{
			ID:           p.id,
			Drug:         p.drug,
			Brand:        p.brand,
			Strength:     p.strength,
			Formulation:  p.formulation,
			Stock:        p.stock,
			ReorderLevel: p.reorderLevel,
		})
		if err != nil {
			return nil, err
		}
		if ev != nil {
			events = append(events, *ev)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, pg.Classify(err)
	}
	return events, nil
}

func lockProducts(ctx context.Context, tx *sql.Tx, ids []int64) (map[int64]*lockedProduct, error) {
	rows, err := tx.QueryContext(ctx, `
		SELECT id, drug, brand, strength, formulation, price, stock, reorder_level
		FROM products WHERE id = ANY($1) ORDER BY id FOR UPDATE`, pq.Int64Array(ids))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	locked := make(map[int64]*lockedProduct, len(ids))
	for rows.Next() {
		p := &lockedProduct{}
		if err := rows.Scan(&p.id, &p.drug, &p.brand, &p.strength, &p.formulation,
			&p.price, &p.stock, &p.reorderLevel); err != nil {
			return nil, err
		}
		locked[p.id] = p
	}
	return locked, rows.Err()
}

func (r *postgresRepo) GetByID(ctx context.Context, id int64) (*Dispense, error) {
	d := &Dispense{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, reference, user_id, created_at FROM dispenses WHERE id=$1`, id).
		Scan(&d.ID, &d.Reference, &d.UserID, &d.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if err := r.attachItems(ctx, []*Dispense{d}); err != nil {
		return nil, err
	}
	return d, nil
}

func (r *postgresRepo) ListByUser(ctx context.Context, userID int64) ([]*Dispense, error) {
	return r.queryDispenses(ctx, `
		SELECT id, reference, user_id, created_at FROM dispenses
		WHERE user_id=$1 ORDER BY created_at DESC`, userID)
}

func (r *postgresRepo) ListAll(ctx context.Context, from, to *time.Time) ([]*Dispense, error) {
	query := `SELECT id, reference, user_id, created_at FROM dispenses`
	var args []interface{}
	var where []string
	if from != nil {
		args = append(args, *from)
		where = append(where, fmt.Sprintf("created_at >= $%d", len(args)))
	}
	if to != nil {
		args = append(args, *to)
		where = append(where, fmt.Sprintf("created_at <= $%d", len(args)))
	}
	for i, cond := range where {
		if i == 0 {
			query += " WHERE " + cond
		} else {
			query += " AND " + cond
		}
	}
	query += " ORDER BY created_at DESC"
	return r.queryDispenses(ctx, query, args...)
}

func (r *postgresRepo) CountByUser(ctx context.Context, userID int64) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM dispenses WHERE user_id=$1`, userID).Scan(&count)
	return count, err
}

func (r *postgresRepo) ListByUserPage(ctx context.Context, userID int64, limit, offset int) ([]*Dispense, error) {
	return r.queryDispenses(ctx, `
		SELECT id, reference, user_id, created_at FROM dispenses
		WHERE user_id=$1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`,
		userID, limit, offset)
}

// ── helpers ──────────────────────────────────────────────────────────────────

func (r *postgresRepo) queryDispenses(ctx context.Context, query string, args ...interface{}) ([]*Dispense, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var dispenses []*Dispense
	for rows.Next() {
		d := &Dispense{}
		if err := rows.Scan(&d.ID, &d.Reference, &d.UserID, &d.CreatedAt); err != nil {
			return nil, err
		}
		dispenses = append(dispenses, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if err := r.attachItems(ctx, dispenses); err != nil {
		return nil, err
	}
	return dispenses, nil
}

// attachItems loads the items for a set of dispenses in one query, joining
// the product snapshot attributes used in responses.
func (r *postgresRepo) attachItems(ctx context.Context, dispenses []*Dispense) error {
	if len(dispenses) == 0 {
		return nil
	}
	ids := make([]int64, len(dispenses))
	byID := make(map[int64]*Dispense, len(dispenses))
	for i, d := range dispenses {
		ids[i] = d.ID
		byID[d.ID] = d
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT i.id, i.dispense_id, i.product_id, i.qty, i.price_at_dispense, p.drug, p.strength
		FROM dispense_items i
		JOIN products p ON p.id = i.product_id
		WHERE i.dispense_id = ANY($1) ORDER BY i.id ASC`, pq.Int64Array(ids))
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		item := &DispenseItem{}
		if err := rows.Scan(&item.ID, &item.DispenseID, &item.ProductID, &item.Qty,
			&item.PriceAtDispense, &item.Drug, &item.Strength); err != nil {
			return err
		}
		d := byID[item.DispenseID]
		d.Items = append(d.Items, item)
	}
	return rows.Err()
}
