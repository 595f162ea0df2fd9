package dispense

import (
	"context"
	"errors"
	"time"

	"github.com/medtrack/rx-backend/internal/modules/notification"
)

// ErrNotFound is returned when a dispense id does not exist.
var ErrNotFound = errors.New("dispense not found")

// Repository persists dispenses. CreateDispense is the atomicity boundary
// of the whole pipeline: it locks the affected product rows, validates,
// mutates stock, reconciles notification state, and commits as one unit,
// returning the transition events for post-commit publication.
type Repository interface {
	CreateDispense(ctx context.Context, d *Dispense, lines []Line) ([]notification.Event, error)
	GetByID(ctx context.Context, id int64) (*Dispense, error)
	ListByUser(ctx context.Context, userID int64) ([]*Dispense, error)
	ListAll(ctx context.Context, from, to *time.Time) ([]*Dispense, error)
	CountByUser(ctx context.Context, userID int64) (int, error)
	ListByUserPage(ctx context.Context, userID int64, limit, offset int) ([]*Dispense, error)
}
