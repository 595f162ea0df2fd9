package product

import (
	"context"
	"fmt"

	"github.com/medtrack/rx-backend/internal/modules/notification"
)

// Service defines product business logic, including the administrative
// stock and reorder-level overrides that feed the audit trail and the
// low-stock notification pipeline.
type Service interface {
	Create(ctx context.Context, req CreateProductRequest) (*Product, error)
	Get(ctx context.Context, id int64) (*Product, error)
	List(ctx context.Context, limit, offset int) ([]*Product, error)
	ListLowStock(ctx context.Context) ([]*Product, error)

	UpdateStock(ctx context.Context, productID int64, qty int, adminID int64) (*Product, error)
	UpdateReorderLevel(ctx context.Context, productID int64, level int, adminID int64) (*Product, error)
}

// EventPublisher receives notification events strictly after the
// transaction that produced them has committed.
type EventPublisher interface {
	PublishAll(ctx context.Context, evs []notification.Event)
}

const defaultReorderLevel = 10

type service struct {
	repo   Repository
	events EventPublisher
}

// NewService creates a new product service.
func NewService(repo Repository, events EventPublisher) Service {
	return &service{repo: repo, events: events}
}

func (s *service) Create(ctx context.Context, req CreateProductRequest) (*Product, error) {
	if req.Drug == "" {
		return nil, fmt.Errorf("drug is required")
	}
	if req.Stock < 0 {
		return nil, fmt.Errorf("stock must not be negative")
	}
	reorder := defaultReorderLevel
	if req.ReorderLevel != nil {
		if *req.ReorderLevel < 0 {
			return nil, fmt.Errorf("reorder_level must not be negative")
		}
		reorder = *req.ReorderLevel
	}
	p := &Product{
		Drug:         req.Drug,
		Brand:        req.Brand,
		Strength:     req.Strength,
		Formulation:  req.Formulation,
		Unit:         req.Unit,
		Price:        req.Price,
		NHIACover:    req.NHIACover,
		Stock:        req.Stock,
		ReorderLevel: reorder,
		Notes:        req.Notes,
	}
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *service) Get(ctx context.Context, id int64) (*Product, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *service) List(ctx context.Context, limit, offset int) ([]*Product, error) {
	if limit <= 0 {
		limit = 50
	} else if limit > 100 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	return s.repo.List(ctx, limit, offset)
}

func (s *service) ListLowStock(ctx context.Context) ([]*Product, error) {
	return s.repo.ListLowStock(ctx)
}

func (s *service) UpdateStock(ctx context.Context, productID int64, qty int, adminID int64) (*Product, error) {
	if qty < 0 {
		return nil, fmt.Errorf("stock must not be negative")
	}
	p, events, err := s.repo.OverrideStock(ctx, productID, qty, adminID)
	if err != nil {
		return nil, err
	}
	s.events.PublishAll(ctx, events)
	return p, nil
}

func (s *service) UpdateReorderLevel(ctx context.Context, productID int64, level int, adminID int64) (*Product, error) {
	if level < 0 {
		return nil, fmt.Errorf("reorder_level must not be negative")
	}
	p, events, err := s.repo.SetReorderLevel(ctx, productID, level, adminID)
	if err != nil {
		return nil, err
	}
	s.events.PublishAll(ctx, events)
	return p, nil
}
