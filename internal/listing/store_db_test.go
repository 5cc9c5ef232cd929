package listing

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var cols = []string{"id", "title", "description", "price", "category", "image_url", "seller_name", "seller_email", "created_at"}

func newMockStore(t *testing.T) (*PostgresStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewPostgresStore(db), mock
}

func TestPostgresStore_InsertFront(t *testing.T) {
	s, mock := newMockStore(t)
	at := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	l := Listing{ID: "x1", Title: "Lamp", Description: "desk", Price: 100, Category: "Other",
		ImageURL: "img", SellerName: "A", SellerEmail: "a@davv.ac.in", CreatedAt: at}

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO listings")).
		WithArgs("x1", "Lamp", "desk", 100.0, "Other", "img", "A", "a@davv.ac.in", at).
		WillReturnResult(sqlmock.NewResult(1, 1))

	require.NoError(t, s.InsertFront(context.Background(), l))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_InsertFrontDuplicate(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO listings")).
		WillReturnError(&pgconn.PgError{Code: pgUniqueCode})

	err := s.InsertFront(context.Background(), Listing{ID: "dup"})
	assert.ErrorIs(t, err, ErrDuplicateID)
}

func TestPostgresStore_SnapshotNewestFirst(t *testing.T) {
	s, mock := newMockStore(t)
	at := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)

	rows := sqlmock.NewRows(cols).
		AddRow("b", "B", "bd", 2.0, "Other", "", "S", "s@davv.ac.in", at).
		AddRow("a", "A", "ad", 1.0, "Other", "", "S", "s@davv.ac.in", at)
	mock.ExpectQuery(regexp.QuoteMeta("ORDER BY seq DESC")).WillReturnRows(rows)

	got, err := s.Snapshot(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "a"}, ids(got))
	assert.Equal(t, 2.0, got[0].Price)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_SnapshotQueryError(t *testing.T) {
	s, mock := newMockStore(t)
	boom := errors.New("boom")
	mock.ExpectQuery("SELECT").WillReturnError(boom)

	_, err := s.Snapshot(context.Background())
	assert.ErrorIs(t, err, boom)
}

func TestPostgresStore_GetMissing(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectQuery(regexp.QuoteMeta("WHERE id = $1")).
		WithArgs("nope").
		WillReturnRows(sqlmock.NewRows(cols))

	_, ok, err := s.Get(context.Background(), "nope")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestPostgresStore_Remove(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM listings WHERE id = $1")).
		WithArgs("x1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM listings WHERE id = $1")).
		WithArgs("x1").
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, s.Remove(context.Background(), "x1"))
	assert.ErrorIs(t, s.Remove(context.Background(), "x1"), ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}
