package audit

import "time"

// Action identifies the kind of administrative mutation being recorded.
type Action string

const (
	ActionStockUpdate   Action = "update_stock"
	ActionReorderUpdate Action = "update_reorder"
)

// Entry is one immutable audit row. Entries are only ever appended, never
// updated or deleted.
type Entry struct {
	ID        int64     `json:"id"`
	AdminID   int64     `json:"admin_id"`
	ProductID int64     `json:"product_id"`
	Action    Action    `json:"action"`
	OldValue  int       `json:"old_value"`
	NewValue  int       `json:"new_value"`
	Timestamp time.Time `json:"timestamp"`
}
