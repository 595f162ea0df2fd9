package product

import (
	"context"
	"errors"

	"github.com/medtrack/rx-backend/internal/modules/notification"
)

// ErrNotFound is returned when a product id does not exist.
var ErrNotFound = errors.New("product not found")

// Repository persists products. The Override methods run as single
// transactions: row lock, mutation, audit entry, and notification
// reconciliation commit or roll back as a unit.
type Repository interface {
	Create(ctx context.Context, p *Product) error
	GetByID(ctx context.Context, id int64) (*Product, error)
	List(ctx context.Context, limit, offset int) ([]*Product, error)
	ListLowStock(ctx context.Context) ([]*Product, error)

	// OverrideStock sets stock to an absolute value on behalf of an admin.
	OverrideStock(ctx context.Context, productID int64, qty int, adminID int64) (*Product, []notification.Event, error)
	// SetReorderLevel changes the low-stock threshold on behalf of an admin.
	SetReorderLevel(ctx context.Context, productID int64, level int, adminID int64) (*Product, []notification.Event, error)
}
