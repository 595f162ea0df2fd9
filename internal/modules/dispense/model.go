package dispense

import "time"

// Dispense is one committed basket. It is immutable after commit; deleting
// it cascades to its items.
type Dispense struct {
	ID        int64           `json:"id"`
	Reference string          `json:"reference"`
	UserID    int64           `json:"user_id"`
	CreatedAt time.Time       `json:"created_at"`
	Items     []*DispenseItem `json:"items"`
}

// DispenseItem is one basket line. PriceAtDispense snapshots the product's
// price at commit time so historical records survive future price changes.
type DispenseItem struct {
	ID              int64   `json:"id"`
	DispenseID      int64   `json:"dispense_id"`
	ProductID       int64   `json:"product_id"`
	Qty             int     `json:"qty"`
	PriceAtDispense float64 `json:"price_at_dispense"`
	Drug            string  `json:"drug,omitempty"`
	Strength        string  `json:"strength,omitempty"`
}

// Line is one (product, quantity) pair of a basket.
type Line struct {
	ProductID int64 `json:"product_id"`
	Qty       int   `json:"qty"`
}

// CreateDispenseRequest is the dispense submission payload.
type CreateDispenseRequest struct {
	Items []Line `json:"items"`
}

// HistoryPage is one page of a user's dispense history.
type HistoryPage struct {
	Total   int         `json:"total"`
	Page    int         `json:"page"`
	Limit   int         `json:"limit"`
	Results []*Dispense `json:"results"`
}
