package audit

import "context"

// Service exposes read access to the audit trail. Writes happen through
// Recorder inside the transactions of the mutations being audited.
type Service interface {
	List(ctx context.Context, limit, offset int) ([]*Entry, error)
}

type service struct {
	repo Repository
}

// NewService creates a new audit service.
func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (s *service) List(ctx context.Context, limit, offset int) ([]*Entry, error) {
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
