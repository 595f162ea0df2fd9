package notification

import (
	"context"
	"fmt"
	"strings"
)

// ProductState is the slice of a product the reconciler needs: the stock
// comparison inputs plus the descriptive attributes used to compose the
// human-readable message.
type ProductState struct {
	ID           int64
	Drug         string
	Brand        string
	Strength     string
	Formulation  string
	Stock        int
	ReorderLevel int
}

type action int

const (
	actionNone action = iota
	actionAdd
	actionRemove
)

// transition is the two-state decision: given the stock comparison and
// whether an active row exists, what must change. Deterministic and pure,
// so repeated reconciliation cannot produce duplicate active rows.
func transition(stock, reorderLevel int, hasActive bool) action {
	low := stock <= reorderLevel
	switch {
	case low && !hasActive:
		return actionAdd
	case !low && hasActive:
		return actionRemove
	default:
		return actionNone
	}
}

// LowStockMessage composes the alert text from the product's descriptive
// attributes and current stock count.
func LowStockMessage(p ProductState) string {
	brand := p.Brand
	if brand == "" {
		brand = "No Brand"
	}
	parts := []string{p.Drug}
	if p.Strength != "" {
		parts = append(parts, p.Strength)
	}
	if p.Formulation != "" {
		parts = append(parts, p.Formulation)
	}
	return fmt.Sprintf("%s (%s) low on stock — %d left.", strings.Join(parts, " "), brand, p.Stock)
}

// Reconciler drives the per-product notification state machine. It is
// invoked inside the transaction that mutated the product's stock so the
// notification row change commits or rolls back with the mutation.
type Reconciler struct {
	store Store
}

func NewReconciler(store Store) *Reconciler { return &Reconciler{store: store} }

// Reconcile ensures the persisted active-notification state matches the
// state derived from the product's stock and reorder level. It returns the
// transition event if one occurred, or nil. Idempotent: calling it again on
// an unchanged product is a no-op.
func (rc *Reconciler) Reconcile(ctx context.Context, q Execer, p ProductState) (*Event, error) {
	activeID, hasActive, err := rc.store.ActiveID(ctx, q, p.ID)
	if err != nil {
		return nil, fmt.Errorf("find active notification for product %d: %w", p.ID, err)
	}

	switch transition(p.Stock, p.ReorderLevel, hasActive) {
	case actionAdd:
		n := &LowStockNotification{
			ProductID: p.ID,
			Message:   LowStockMessage(p),
			IsActive:  true,
		}
		if err := rc.store.Insert(ctx, q, n); err != nil {
			return nil, fmt.Errorf("insert notification for product %d: %w", p.ID, err)
		}
		ev := NewAddEvent(n)
		return &ev, nil

	case actionRemove:
		if err := rc.store.Deactivate(ctx, q, activeID); err != nil {
			return nil, fmt.Errorf("deactivate notification %d: %w", activeID, err)
		}
		ev := NewRemoveEvent(p.ID)
		return &ev, nil
	}
	return nil, nil
}
