package dispense

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/medtrack/rx-backend/internal/modules/notification"
)

// Service defines the dispense business logic.
type Service interface {
	// Dispense atomically validates and commits a basket on behalf of an
	// actor, then publishes any resulting notification events.
	Dispense(ctx context.Context, actorID int64, req CreateDispenseRequest) (*Dispense, error)

	// Get retrieves one dispense with its items.
	Get(ctx context.Context, id int64) (*Dispense, error)

	// History returns the actor's own dispenses, newest first.
	History(ctx context.Context, actorID int64) ([]*Dispense, error)

	// ListAll returns every dispense, optionally bounded by date (admin view).
	ListAll(ctx context.Context, from, to *time.Time) ([]*Dispense, error)

	// UserHistory returns one page of a user's dispenses (admin view).
	UserHistory(ctx context.Context, userID int64, page, limit int) (*HistoryPage, error)
}

// EventPublisher receives notification events strictly after the dispense
// transaction has committed.
type EventPublisher interface {
	PublishAll(ctx context.Context, evs []notification.Event)
}

type service struct {
	repo   Repository
	events EventPublisher
}

// NewService creates a new dispense service.
func NewService(repo Repository, events EventPublisher) Service {
	return &service{repo: repo, events: events}
}

func (s *service) Dispense(ctx context.Context, actorID int64, req CreateDispenseRequest) (*Dispense, error) {
	if len(req.Items) == 0 {
		return nil, fmt.Errorf("basket must contain at least one item")
	}

	verr := &ValidationError{}
	for _, line := range req.Items {
		if line.Qty <= 0 {
			verr.add(line.ProductID, "quantity must be positive")
		}
	}
	if verr.failed() {
		return nil, verr
	}

	lines := coalesce(req.Items)

	d := &Dispense{
		Reference: generateReference(),
		UserID:    actorID,
	}
	events, err := s.repo.CreateDispense(ctx, d, lines)
	if err != nil {
		return nil, err
	}

	// The transaction committed; events from rolled-back transactions never
	// reach this point.
	s.events.PublishAll(ctx, events)
	return d, nil
}

// coalesce merges duplicate product ids into single cumulative lines,
// preserving first-occurrence order, so each product is validated and
// decremented exactly once under one lock.
func coalesce(items []Line) []Line {
	var lines []Line
	index := make(map[int64]int)
	for _, item := range items {
		if i, ok := index[item.ProductID]; ok {
			lines[i].Qty += item.Qty
			continue
		}
		index[item.ProductID] = len(lines)
		lines = append(lines, item)
	}
	return lines
}

func (s *service) Get(ctx context.Context, id int64) (*Dispense, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *service) History(ctx context.Context, actorID int64) ([]*Dispense, error) {
	return s.repo.ListByUser(ctx, actorID)
}

func (s *service) ListAll(ctx context.Context, from, to *time.Time) ([]*Dispense, error) {
	return s.repo.ListAll(ctx, from, to)
}

func (s *service) UserHistory(ctx context.Context, userID int64, page, limit int) (*HistoryPage, error) {
	if page < 1 {
		page = 1
	}
	if limit <= 0 {
		limit = 5
	} else if limit > 100 {
		limit = 100
	}
	total, err := s.repo.CountByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	results, err := s.repo.ListByUserPage(ctx, userID, limit, (page-1)*limit)
	if err != nil {
		return nil, err
	}
	if results == nil {
		results = []*Dispense{}
	}
	return &HistoryPage{Total: total, Page: page, Limit: limit, Results: results}, nil
}

// generateReference creates a human-readable dispense number: DSP-YYYYMMDD-XXXX
func generateReference() string {
	date := time.Now().UTC().Format("20060102")
	suffix := strings.ToUpper(uuid.New().String()[:4])
	return fmt.Sprintf("DSP-%s-%s", date, suffix)
}
