package dispense

import (
	"context"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/require"

	"github.com/medtrack/rx-backend/internal/modules/notification"
	"github.com/medtrack/rx-backend/internal/pg"
)

// stubStore keeps notification state in memory so the reconciler can run
// inside the mocked transaction without issuing SQL of its own.
type stubStore struct {
	rows   []*notification.LowStockNotification
	nextID int64
}

func (s *stubStore) ActiveID(ctx context.Context, q notification.Execer, productID int64) (int64, bool, error) {
	for _, n := range s.rows {
		if n.ProductID == productID && n.IsActive {
			return n.ID, true, nil
		}
	}
	return 0, false, nil
}

func (s *stubStore) Insert(ctx context.Context, q notification.Execer, n *notification.LowStockNotification) error {
	s.nextID++
	n.ID = s.nextID
	s.rows = append(s.rows, n)
	return nil
}

func (s *stubStore) Deactivate(ctx context.Context, q notification.Execer, id int64) error {
	for _, n := range s.rows {
		if n.ID == id {
			n.IsActive = false
		}
	}
	return nil
}

func newMockRepo(t *testing.T) (Repository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewPostgresRepository(db, notification.NewReconciler(&stubStore{})), mock
}

var lockedColumns = []string{"id", "drug", "brand", "strength", "formulation", "price", "stock", "reorder_level"}

func TestCreateDispenseInsufficientStockRollsBack(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectBegin()
	mock.ExpectQuery("FROM products WHERE id = ANY").
		WithArgs(pq.Int64Array{1, 2}).
		WillReturnRows(sqlmock.NewRows(lockedColumns).
			AddRow(1, "Paracetamol", "GSK", "500mg", "Tablet", 2.5, 4, 5).
			AddRow(2, "Amoxicillin", "", "250mg", "Capsule", 5.0, 10, 5))
	mock.ExpectRollback()

	d := &Dispense{Reference: "DSP-20260901-AAAA", UserID: 7}
	_, err := repo.CreateDispense(context.Background(), d,
		[]Line{{ProductID: 1, Qty: 6}, {ProductID: 2, Qty: 1}})

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	require.Len(t, verr.Lines, 1)
	require.Equal(t, int64(1), verr.Lines[0].ProductID)
	require.Equal(t, "insufficient stock (4 available)", verr.Lines[0].Reason)

	// One bad line rolls the whole basket back: no header, items or stock
	// writes happened for the valid line either.
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateDispenseUnknownProductRollsBack(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectBegin()
	mock.ExpectQuery("FROM products WHERE id = ANY").
		WithArgs(pq.Int64Array{1, 99}).
		WillReturnRows(sqlmock.NewRows(lockedColumns).
			AddRow(1, "Paracetamol", "GSK", "500mg", "Tablet", 2.5, 10, 5))
	mock.ExpectRollback()

	d := &Dispense{Reference: "DSP-20260901-BBBB", UserID: 7}
	_, err := repo.CreateDispense(context.Background(), d,
		[]Line{{ProductID: 1, Qty: 1}, {ProductID: 99, Qty: 2}})

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	require.Len(t, verr.Lines, 1)
	require.Equal(t, int64(99), verr.Lines[0].ProductID)
	require.Equal(t, "product not found", verr.Lines[0].Reason)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateDispenseLocksInAscendingIDOrder(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectBegin()
	// Basket arrives as 9, 2, 5; the lock query must receive 2, 5, 9.
	mock.ExpectQuery("FROM products WHERE id = ANY").
		WithArgs(pq.Int64Array{2, 5, 9}).
		WillReturnRows(sqlmock.NewRows(lockedColumns).
			AddRow(2, "A", "", "", "", 1.0, 0, 5).
			AddRow(5, "B", "", "", "", 1.0, 0, 5).
			AddRow(9, "C", "", "", "", 1.0, 0, 5))
	mock.ExpectRollback()

	d := &Dispense{Reference: "DSP-20260901-CCCC", UserID: 7}
	_, err := repo.CreateDispense(context.Background(), d,
		[]Line{{ProductID: 9, Qty: 1}, {ProductID: 2, Qty: 1}, {ProductID: 5, Qty: 1}})

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	require.Len(t, verr.Lines, 3)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateDispenseLockContentionClassifiedRetryable(t *testing.T) {
	repo, mock := newMockRepo(t)

	// Two racing baskets over the same rows: the loser's lock wait surfaces
	// as a driver error, classified retryable so exactly one basket commits.
	mock.ExpectBegin()
	mock.ExpectQuery("FROM products WHERE id = ANY").
		WillReturnError(&pq.Error{Code: "55P03"})
	mock.ExpectRollback()

	d := &Dispense{Reference: "DSP-20260901-DDDD", UserID: 7}
	_, err := repo.CreateDispense(context.Background(), d, []Line{{ProductID: 1, Qty: 1}})
	require.ErrorIs(t, err, pg.ErrContention)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateDispenseCommitsBasketAndReturnsEvents(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectBegin()
	mock.ExpectQuery("FROM products WHERE id = ANY").
		WithArgs(pq.Int64Array{1}).
		WillReturnRows(sqlmock.NewRows(lockedColumns).
			AddRow(1, "Paracetamol", "GSK", "500mg", "Tablet", 2.5, 5, 5))
	mock.ExpectQuery("INSERT INTO dispenses").
		WithArgs("DSP-20260901-EEEE", int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(10, time.Now()))
	mock.ExpectExec("UPDATE products SET stock=").
		WithArgs(3, int64(1)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("INSERT INTO dispense_items").
		WithArgs(int64(10), int64(1), 2, 2.5).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(100))
	mock.ExpectCommit()

	d := &Dispense{Reference: "DSP-20260901-EEEE", UserID: 7}
	events, err := repo.CreateDispense(context.Background(), d, []Line{{ProductID: 1, Qty: 2}})
	require.NoError(t, err)
	require.Equal(t, int64(10), d.ID)
	require.Len(t, d.Items, 1)
	require.Equal(t, 2.5, d.Items[0].PriceAtDispense)

	// 5 -> 3 crossed the reorder level, so the commit carries an add event.
	require.Len(t, events, 1)
	require.NotNil(t, events[0].Add)
	require.Equal(t, int64(1), events[0].Add.ProductID)
	require.NoError(t, mock.ExpectationsWereMet())
}
