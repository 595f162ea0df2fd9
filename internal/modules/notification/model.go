package notification

import "time"

// Channel is the redis pub/sub channel carrying low-stock domain events.
const Channel = "low_stock_channel"

// LowStockNotification is one low-stock alert for a product. Rows are never
// deleted: when stock recovers the row is flipped inactive, and a later
// re-crossing creates a fresh row so the history of alerts is preserved.
type LowStockNotification struct {
	ID        int64     `json:"id"`
	ProductID int64     `json:"product_id"`
	Message   string    `json:"message"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

// AddEvent announces a newly created active notification.
type AddEvent struct {
	ID        int64  `json:"id"`
	Message   string `json:"message"`
	ProductID int64  `json:"product_id"`
}

// Event is a single notification-state transition. Exactly one of Add or
// Remove is set, producing one of the two wire shapes:
//
//	{"add": {"id": 7, "message": "...", "product_id": 3}}
//	{"remove": 3}
type Event struct {
	Add    *AddEvent `json:"add,omitempty"`
	Remove *int64    `json:"remove,omitempty"`
}

// NewAddEvent builds the event for a notification that just became active.
func NewAddEvent(n *LowStockNotification) Event {
	return Event{Add: &AddEvent{ID: n.ID, Message: n.Message, ProductID: n.ProductID}}
}

// NewRemoveEvent builds the event for a product whose stock recovered.
func NewRemoveEvent(productID int64) Event {
	return Event{Remove: &productID}
}
