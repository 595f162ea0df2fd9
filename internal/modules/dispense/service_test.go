package dispense

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/medtrack/rx-backend/internal/modules/notification"
)

type fakeRepo struct {
	Repository
	lines      []Line
	events     []notification.Event
	err        error
	total      int
	page       []*Dispense
	lastLimit  int
	lastOffset int
}

func (f *fakeRepo) CreateDispense(ctx context.Context, d *Dispense, lines []Line) ([]notification.Event, error) {
	f.lines = lines
	if f.err != nil {
		return nil, f.err
	}
	d.ID = 1
	d.CreatedAt = time.Now()
	return f.events, nil
}

func (f *fakeRepo) CountByUser(ctx context.Context, userID int64) (int, error) {
	return f.total, nil
}

func (f *fakeRepo) ListByUserPage(ctx context.Context, userID int64, limit, offset int) ([]*Dispense, error) {
	f.lastLimit = limit
	f.lastOffset = offset
	return f.page, nil
}

type fakePublisher struct {
	published []notification.Event
}

func (f *fakePublisher) PublishAll(ctx context.Context, evs []notification.Event) {
	f.published = append(f.published, evs...)
}

func TestDispenseCoalescesDuplicateLines(t *testing.T) {
	repo := &fakeRepo{}
	s := NewService(repo, &fakePublisher{})

	// The same product referenced twice is treated as one cumulative line
	// against a single lock.
	d, err := s.Dispense(context.Background(), 7, CreateDispenseRequest{
		Items: []Line{{ProductID: 1, Qty: 2}, {ProductID: 1, Qty: 3}, {ProductID: 2, Qty: 1}},
	})
	require.NoError(t, err)
	require.Equal(t, []Line{{ProductID: 1, Qty: 5}, {ProductID: 2, Qty: 1}}, repo.lines)
	require.Equal(t, int64(7), d.UserID)
	require.True(t, strings.HasPrefix(d.Reference, "DSP-"))
}

func TestDispenseRejectsEmptyBasket(t *testing.T) {
	s := NewService(&fakeRepo{}, &fakePublisher{})
	_, err := s.Dispense(context.Background(), 7, CreateDispenseRequest{})
	require.Error(t, err)
}

func TestDispenseRejectsNonPositiveQuantity(t *testing.T) {
	repo := &fakeRepo{}
	s := NewService(repo, &fakePublisher{})

	_, err := s.Dispense(context.Background(), 7, CreateDispenseRequest{
		Items: []Line{{ProductID: 1, Qty: 0}, {ProductID: 2, Qty: -3}, {ProductID: 3, Qty: 1}},
	})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	require.Len(t, verr.Lines, 2)
	require.Equal(t, int64(1), verr.Lines[0].ProductID)
	require.Equal(t, int64(2), verr.Lines[1].ProductID)
	// Nothing reached the store.
	require.Nil(t, repo.lines)
}

func TestDispensePublishesOnlyAfterCommit(t *testing.T) {
	ev := notification.NewRemoveEvent(1)
	repo := &fakeRepo{events: []notification.Event{ev}}
	pub := &fakePublisher{}
	s := NewService(repo, pub)

	_, err := s.Dispense(context.Background(), 7, CreateDispenseRequest{
		Items: []Line{{ProductID: 1, Qty: 2}},
	})
	require.NoError(t, err)
	require.Len(t, pub.published, 1)
}

func TestDispenseFailureDoesNotPublish(t *testing.T) {
	repo := &fakeRepo{err: &ValidationError{Lines: []LineError{
		{ProductID: 1, Reason: "insufficient stock (4 available)"},
	}}}
	pub := &fakePublisher{}
	s := NewService(repo, pub)

	_, err := s.Dispense(context.Background(), 7, CreateDispenseRequest{
		Items: []Line{{ProductID: 1, Qty: 6}},
	})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	require.Contains(t, verr.Error(), "insufficient stock")
	require.Empty(t, pub.published)
}

func TestDispenseRepoErrorPassesThrough(t *testing.T) {
	boom := errors.New("connection reset")
	s := NewService(&fakeRepo{err: boom}, &fakePublisher{})

	_, err := s.Dispense(context.Background(), 7, CreateDispenseRequest{
		Items: []Line{{ProductID: 1, Qty: 1}},
	})
	require.ErrorIs(t, err, boom)
}

func TestUserHistoryPaging(t *testing.T) {
	repo := &fakeRepo{total: 12, page: []*Dispense{{ID: 6}}}
	s := NewService(repo, &fakePublisher{})

	page, err := s.UserHistory(context.Background(), 7, 3, 5)
	require.NoError(t, err)
	require.Equal(t, 12, page.Total)
	require.Equal(t, 3, page.Page)
	require.Equal(t, 5, page.Limit)
	require.Equal(t, 5, repo.lastLimit)
	require.Equal(t, 10, repo.lastOffset)
}

func TestUserHistoryClampsOversizedLimit(t *testing.T) {
	repo := &fakeRepo{total: 500}
	s := NewService(repo, &fakePublisher{})

	page, err := s.UserHistory(context.Background(), 7, 1, 250)
	require.NoError(t, err)
	require.Equal(t, 100, page.Limit)
	require.Equal(t, 100, repo.lastLimit)
}

func TestUserHistoryDefaults(t *testing.T) {
	repo := &fakeRepo{}
	s := NewService(repo, &fakePublisher{})

	page, err := s.UserHistory(context.Background(), 7, 0, 0)
	require.NoError(t, err)
	require.Equal(t, 1, page.Page)
	require.Equal(t, 5, page.Limit)
	require.NotNil(t, page.Results)
	require.Equal(t, 0, repo.lastOffset)
}
