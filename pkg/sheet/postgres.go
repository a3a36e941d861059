package sheet

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// PostgresStore persists a named sheet in the sheet_rows table, one array of cells per row.
type PostgresStore struct {
	db   *sqlx.DB
	name string
}

// NewPostgresStore binds a store to the sheet identified by name.
func NewPostgresStore(db *sqlx.DB, name string) *PostgresStore {
	return &PostgresStore{db: db, name: name}
}

// Name returns the sheet name.
func (s *PostgresStore) Name() string {
	return s.name
}

// Ping checks that the backing database is reachable.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// EnsureHeader writes the header as row 1 unless the sheet already has one.
func (s *PostgresStore) EnsureHeader(ctx context.Context, header []string) error {
	const query = `INSERT INTO sheet_rows (sheet_name, row_number, cells)
VALUES ($1, 1, $2)
ON CONFLICT (sheet_name, row_number) DO NOTHING`
	if _, err := s.db.ExecContext(ctx, query, s.name, pq.Array(header)); err != nil {
		return fmt.Errorf("ensure sheet header: %w", err)
	}
	return nil
}

// Rows returns every row in row-number order. Missing row numbers come back as empty
// rows so positions keep matching the 1-indexed addresses used by UpdateCell.
func (s *PostgresStore) Rows(ctx context.Context) ([][]string, error) {
	const query = `SELECT row_number, cells FROM sheet_rows WHERE sheet_name = $1 ORDER BY row_number ASC`
	rows, err := s.db.QueryxContext(ctx, query, s.name)
	if err != nil {
		return nil, fmt.Errorf("select sheet rows: %w", err)
	}
	defer rows.Close()

	result := make([][]string, 0)
	for rows.Next() {
		var (
			rowNumber int
			cells     []sql.NullString
		)
		if err := rows.Scan(&rowNumber, pq.Array(&cells)); err != nil {
			return nil, fmt.Errorf("scan sheet row: %w", err)
		}
		for len(result) < rowNumber-1 {
			result = append(result, []string{})
		}
		values := make([]string, len(cells))
		for i, cell := range cells {
			if cell.Valid {
				values[i] = cell.String
			}
		}
		result = append(result, values)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sheet rows: %w", err)
	}
	return result, nil
}

const (
	maxAppendAttempts = 5
	uniqueViolation   = "23505"
)

// AppendRow inserts cells after the current last row. Concurrent appends can pick the same
// row number; the loser of that race retries with a fresh one.
func (s *PostgresStore) AppendRow(ctx context.Context, cells []string) error {
	const query = `INSERT INTO sheet_rows (sheet_name, row_number, cells)
SELECT $1, COALESCE(MAX(row_number), 0) + 1, $2 FROM sheet_rows WHERE sheet_name = $1`
	var err error
	for attempt := 0; attempt < maxAppendAttempts; attempt++ {
		if _, err = s.db.ExecContext(ctx, query, s.name, pq.Array(cells)); err == nil {
			return nil
		}
		if !isUniqueViolation(err) || ctx.Err() != nil {
			break
		}
	}
	return fmt.Errorf("append sheet row: %w", err)
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}

// UpdateCell overwrites one cell of an existing row.
func (s *PostgresStore) UpdateCell(ctx context.Context, row, col int, value string) error {
	if row < 1 || col < 1 {
		return fmt.Errorf("%w: row %d column %d", ErrCellOutOfRange, row, col)
	}
	const query = `UPDATE sheet_rows SET cells[$3::int] = $4, updated_at = NOW()
WHERE sheet_name = $1 AND row_number = $2`
	res, err := s.db.ExecContext(ctx, query, s.name, row, col, value)
	if err != nil {
		return fmt.Errorf("update sheet cell: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update sheet cell: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: row %d", ErrCellOutOfRange, row)
	}
	return nil
}

// CompareAndSwapCell updates the cell in a single statement guarded by its current value.
// It reports false when the cell changed since it was read.
func (s *PostgresStore) CompareAndSwapCell(ctx context.Context, row, col int, expected, value string) (bool, error) {
	if row < 1 || col < 1 {
		return false, fmt.Errorf("%w: row %d column %d", ErrCellOutOfRange, row, col)
	}
	const query = `UPDATE sheet_rows SET cells[$3::int] = $4, updated_at = NOW()
WHERE sheet_name = $1 AND row_number = $2 AND COALESCE(cells[$3::int], '') = $5`
	res, err := s.db.ExecContext(ctx, query, s.name, row, col, value, expected)
	if err != nil {
		return false, fmt.Errorf("swap sheet cell: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("swap sheet cell: %w", err)
	}
	return affected == 1, nil
}
