package sheet

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSheetMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	sqlxDB := sqlx.NewDb(db, "postgres")
	return sqlxDB, mock, func() {
		sqlxDB.Close()
		db.Close()
	}
}

func TestPostgresStoreRowsFillsGapsAndNulls(t *testing.T) {
	db, mock, cleanup := newSheetMock(t)
	defer cleanup()

	rows := sqlmock.NewRows([]string{"row_number", "cells"}).
		AddRow(1, `{ID,Title}`).
		AddRow(3, `{abc,NULL}`)
	mock.ExpectQuery("SELECT row_number, cells FROM sheet_rows").
		WithArgs("minwon").
		WillReturnRows(rows)

	store := NewPostgresStore(db, "minwon")
	result, err := store.Rows(context.Background())
	require.NoError(t, err)
	require.Len(t, result, 3)
	assert.Equal(t, []string{"ID", "Title"}, result[0])
	assert.Empty(t, result[1])
	assert.Equal(t, []string{"abc", ""}, result[2])
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStoreAppendRow(t *testing.T) {
	db, mock, cleanup := newSheetMock(t)
	defer cleanup()

	cells := []string{"id-1", "title"}
	mock.ExpectExec("INSERT INTO sheet_rows").
		WithArgs("minwon", pq.Array(cells)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	store := NewPostgresStore(db, "minwon")
	require.NoError(t, store.AppendRow(context.Background(), cells))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStoreAppendRowRetriesRowNumberRace(t *testing.T) {
	db, mock, cleanup := newSheetMock(t)
	defer cleanup()

	cells := []string{"id-2", "title"}
	mock.ExpectExec("INSERT INTO sheet_rows").
		WithArgs("minwon", pq.Array(cells)).
		WillReturnError(&pq.Error{Code: "23505", Message: "duplicate key value violates unique constraint"})
	mock.ExpectExec("INSERT INTO sheet_rows").
		WithArgs("minwon", pq.Array(cells)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	store := NewPostgresStore(db, "minwon")
	require.NoError(t, store.AppendRow(context.Background(), cells))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStoreAppendRowGivesUpAfterRepeatedRaces(t *testing.T) {
	db, mock, cleanup := newSheetMock(t)
	defer cleanup()

	cells := []string{"id-3"}
	for i := 0; i < maxAppendAttempts; i++ {
		mock.ExpectExec("INSERT INTO sheet_rows").
			WithArgs("minwon", pq.Array(cells)).
			WillReturnError(&pq.Error{Code: "23505"})
	}

	store := NewPostgresStore(db, "minwon")
	err := store.AppendRow(context.Background(), cells)
	require.Error(t, err)
	var pqErr *pq.Error
	assert.True(t, errors.As(err, &pqErr))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStoreAppendRowDoesNotRetryOtherErrors(t *testing.T) {
	db, mock, cleanup := newSheetMock(t)
	defer cleanup()

	cells := []string{"id-4"}
	mock.ExpectExec("INSERT INTO sheet_rows").
		WithArgs("minwon", pq.Array(cells)).
		WillReturnError(errors.New("connection refused"))

	store := NewPostgresStore(db, "minwon")
	require.Error(t, store.AppendRow(context.Background(), cells))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStoreEnsureHeader(t *testing.T) {
	db, mock, cleanup := newSheetMock(t)
	defer cleanup()

	mock.ExpectExec("ON CONFLICT \\(sheet_name, row_number\\) DO NOTHING").
		WithArgs("minwon", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))

	store := NewPostgresStore(db, "minwon")
	require.NoError(t, store.EnsureHeader(context.Background(), []string{"ID"}))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStoreUpdateCell(t *testing.T) {
	db, mock, cleanup := newSheetMock(t)
	defer cleanup()

	mock.ExpectExec("UPDATE sheet_rows SET cells").
		WithArgs("minwon", 4, 9, "6").
		WillReturnResult(sqlmock.NewResult(0, 1))

	store := NewPostgresStore(db, "minwon")
	require.NoError(t, store.UpdateCell(context.Background(), 4, 9, "6"))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStoreUpdateCellMissingRow(t *testing.T) {
	db, mock, cleanup := newSheetMock(t)
	defer cleanup()

	mock.ExpectExec("UPDATE sheet_rows SET cells").
		WithArgs("minwon", 42, 10, "해결").
		WillReturnResult(sqlmock.NewResult(0, 0))

	store := NewPostgresStore(db, "minwon")
	err := store.UpdateCell(context.Background(), 42, 10, "해결")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrCellOutOfRange))
}

func TestPostgresStoreCompareAndSwapCell(t *testing.T) {
	db, mock, cleanup := newSheetMock(t)
	defer cleanup()

	mock.ExpectExec("UPDATE sheet_rows SET cells.*COALESCE").
		WithArgs("minwon", 2, 9, "6", "5").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE sheet_rows SET cells.*COALESCE").
		WithArgs("minwon", 2, 9, "6", "5").
		WillReturnResult(sqlmock.NewResult(0, 0))

	store := NewPostgresStore(db, "minwon")
	swapped, err := store.CompareAndSwapCell(context.Background(), 2, 9, "5", "6")
	require.NoError(t, err)
	assert.True(t, swapped)

	swapped, err = store.CompareAndSwapCell(context.Background(), 2, 9, "5", "6")
	require.NoError(t, err)
	assert.False(t, swapped)
	require.NoError(t, mock.ExpectationsWereMet())
}
