// Package sheet provides spreadsheet-shaped row stores: a named table with one header
// row and 1-indexed data rows beneath it, accessed through three primitives.
package sheet

import (
	"context"
	"errors"
)

// ErrCellOutOfRange is returned when an update addresses a row or column that does not exist.
var ErrCellOutOfRange = errors.New("sheet: cell out of range")

// Store is the row store collaborator.
type Store interface {
	// Rows returns every row including the header, in sheet order.
	Rows(ctx context.Context) ([][]string, error)
	// AppendRow adds cells as a new trailing row.
	AppendRow(ctx context.Context, cells []string) error
	// UpdateCell overwrites a single cell. Row and column are 1-indexed; row 1 is the header.
	UpdateCell(ctx context.Context, row, col int, value string) error
}

// CellSwapper is implemented by stores that can write a cell only while it still holds
// an expected value. A cell past the end of its row compares equal to "".
type CellSwapper interface {
	CompareAndSwapCell(ctx context.Context, row, col int, expected, value string) (bool, error)
}
