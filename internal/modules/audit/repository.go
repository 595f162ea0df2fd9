package audit

import (
	"context"
	"database/sql"
)

// Execer is the subset of database/sql needed to append an entry. It is
// satisfied by both *sql.DB and *sql.Tx so callers can record inside the
// transaction that performs the mutation being audited.
type Execer interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

// Recorder appends audit entries within a caller-supplied transaction.
type Recorder interface {
	Record(ctx context.Context, q Execer, e *Entry) error
}

// Repository provides read access to the audit trail.
type Repository interface {
	Recorder
	List(ctx context.Context, limit, offset int) ([]*Entry, error)
}
