package product

import "time"

// Product is one stocked pharmacy item. Drug, brand, strength, formulation
// and unit are descriptive attributes; stock and reorder_level drive the
// low-stock notification state machine.
type Product struct {
	ID            int64     `json:"id"`
	Drug          string    `json:"drug"`
	Brand         string    `json:"brand,omitempty"`
	Strength      string    `json:"strength,omitempty"`
	Formulation   string    `json:"formulation,omitempty"`
	Unit          string    `json:"unit,omitempty"`
	Price         float64   `json:"price"`
	NHIACover     bool      `json:"nhia_cover"`
	Stock         int       `json:"stock"`
	ReorderLevel  int       `json:"reorder_level"`
	Notes         string    `json:"notes,omitempty"`
	LastChangedAt time.Time `json:"last_changed_at"`
}

// CreateProductRequest is the payload for adding a product.
type CreateProductRequest struct {
	Drug         string  `json:"drug"`
	Brand        string  `json:"brand"`
	Strength     string  `json:"strength"`
	Formulation  string  `json:"formulation"`
	Unit         string  `json:"unit"`
	Price        float64 `json:"price"`
	NHIACover    bool    `json:"nhia_cover"`
	Stock        int     `json:"stock"`
	ReorderLevel *int    `json:"reorder_level,omitempty"`
	Notes        string  `json:"notes"`
}

// UpdateStockRequest sets a product's stock to an absolute value.
type UpdateStockRequest struct {
	Qty int `json:"qty"`
}

// UpdateReorderRequest changes a product's low-stock threshold.
type UpdateReorderRequest struct {
	ReorderLevel int `json:"reorder_level"`
}
