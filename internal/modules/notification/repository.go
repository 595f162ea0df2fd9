package notification

import (
	"context"
	"database/sql"
)

// Execer is the subset of database/sql the reconciler's storage needs,
// satisfied by both *sql.DB and *sql.Tx. The reconciler always runs on the
// transaction of the stock mutation that triggered it.
type Execer interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// Store is the row-level storage the state machine owns.
type Store interface {
	// ActiveID reports the id of the product's active notification, if any.
	ActiveID(ctx context.Context, q Execer, productID int64) (int64, bool, error)
	// Insert persists a new active notification and fills in its id.
	Insert(ctx context.Context, q Execer, n *LowStockNotification) error
	// Deactivate flips a notification inactive. The row is retained.
	Deactivate(ctx context.Context, q Execer, id int64) error
}

// Repository adds the synchronous snapshot query used by clients on connect.
type Repository interface {
	Store
	ListActive(ctx context.Context) ([]*LowStockNotification, error)
}
