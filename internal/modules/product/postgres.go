package product

import (
	"context"
	"database/sql"
	"errors"

	"github.com/medtrack/rx-backend/internal/modules/audit"
	"github.com/medtrack/rx-backend/internal/modules/notification"
	"github.com/medtrack/rx-backend/internal/pg"
)

type postgresRepo struct {
	db         *sql.DB
	auditor    audit.Recorder
	reconciler *notification.Reconciler
}

func NewPostgresRepository(db *sql.DB, auditor audit.Recorder, reconciler *notification.Reconciler) Repository {
	return &postgresRepo{db: db, auditor: auditor, reconciler: reconciler}
}

const productColumns = `id, drug, brand, strength, formulation, unit, price,
	nhia_cover, stock, reorder_level, notes, last_changed_at`

func (r *postgresRepo) Create(ctx context.Context, p *Product) error {
	return r.db.QueryRowContext(ctx, `
		INSERT INTO products (drug, brand, strength, formulation, unit, price, nhia_cover, stock, reorder_level, notes)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
		RETURNING id, last_changed_at`,
		p.Drug, p.Brand, p.Strength, p.Formulation, p.Unit,
		p.Price, p.NHIACover, p.Stock, p.ReorderLevel, p.Notes).
		Scan(&p.ID, &p.LastChangedAt)
}

func (r *postgresRepo) GetByID(ctx context.Context, id int64) (*Product, error) {
	p, err := scanProduct(r.db.QueryRowContext(ctx,
		`SELECT `+productColumns+` FROM products WHERE id=$1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return p, err
}

func (r *postgresRepo) List(ctx context.Context, limit, offset int) ([]*Product, error) {
	return r.queryProducts(ctx,
		`SELECT `+productColumns+` FROM products ORDER BY drug, id LIMIT $1 OFFSET $2`,
		limit, offset)
}

func (r *postgresRepo) ListLowStock(ctx context.Context) ([]*Product, error) {
	return r.queryProducts(ctx,
		`SELECT `+productColumns+` FROM products WHERE stock <= reorder_level ORDER BY stock ASC`)
}

func (r *postgresRepo) OverrideStock(ctx context.Context, productID int64, qty int, adminID int64) (*Product, []notification.Event, error) {
	return r.override(ctx, productID, adminID, audit.ActionStockUpdate,
		func(p *Product) (old int) {
			old = p.Stock
			p.Stock = qty
			return old
		},
		`UPDATE products SET stock=$1, last_changed_at=NOW() WHERE id=$2`, qty)
}

func (r *postgresRepo) SetReorderLevel(ctx context.Context, productID int64, level int, adminID int64) (*Product, []notification.Event, error) {
	return r.override(ctx, productID, adminID, audit.ActionReorderUpdate,
		func(p *Product) (old int) {
			old = p.ReorderLevel
			p.ReorderLevel = level
			return old
		},
		`UPDATE products SET reorder_level=$1, last_changed_at=NOW() WHERE id=$2`, level)
}

// override runs a single-row administrative mutation: lock the row, apply
// the change, append the audit entry, and reconcile notification state, all
// in one transaction. Events are returned for post-commit publication.
func (r *postgresRepo) override(ctx context.Context, productID, adminID int64, action audit.Action,
	apply func(*Product) int, update string, value int) (*Product, []notification.Event, error) {

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, nil, err
	}
	defer tx.Rollback()

	p, err := scanProduct(tx.QueryRowContext(ctx,
		`SELECT `+productColumns+` FROM products WHERE id=$1 FOR UPDATE`, productID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil, ErrNotFound
	}
	if err != nil {
		return nil, nil, pg.Classify(err)
	}

	oldValue := apply(p)
	if _, err := tx.ExecContext(ctx, update, value, productID); err != nil {
		return nil, nil, err
	}

	if err := r.auditor.Record(ctx, tx, &audit.Entry{
		AdminID:   adminID,
		ProductID: productID,
		Action:    action,
		OldValue:  oldValue,
		NewValue:  value,
	}); err != nil {
		return nil, nil, err
	}

	ev, err := r.reconciler.Reconcile(ctx, tx, notification.ProductState{
		ID:           p.ID,
		Drug:         p.Drug,
		Brand:        p.Brand,
		Strength:     p.Strength,
		Formulation:  p.Formulation,
		Stock:        p.Stock,
		ReorderLevel: p.ReorderLevel,
	})
	if err != nil {
		return nil, nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, nil, pg.Classify(err)
	}

	var events []notification.Event
	if ev != nil {
		events = append(events, *ev)
	}
	return p, events, nil
}

// ── helpers ──────────────────────────────────────────────────────────────────

type rowScanner interface{ Scan(dest ...interface{}) error }

func scanProduct(row rowScanner) (*Product, error) {
	p := &Product{}
	err := row.Scan(&p.ID, &p.Drug, &p.Brand, &p.Strength, &p.Formulation, &p.Unit,
		&p.Price, &p.NHIACover, &p.Stock, &p.ReorderLevel, &p.Notes, &p.LastChangedAt)
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (r *postgresRepo) queryProducts(ctx context.Context, query string, args ...interface{}) ([]*Product, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var products []*Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	return products, rows.Err()
}
