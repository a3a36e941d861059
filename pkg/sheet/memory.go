package sheet

import (
	"context"
	"fmt"
	"sync"
)

// MemoryStore keeps a sheet in process memory. Contents are lost on restart.
type MemoryStore struct {
	mu   sync.RWMutex
	rows [][]string
}

// NewMemoryStore builds a sheet holding only the given header row.
// A nil header yields a completely empty sheet.
func NewMemoryStore(header []string) *MemoryStore {
	s := &MemoryStore{}
	if header != nil {
		s.rows = append(s.rows, cloneCells(header))
	}
	return s
}

// Rows returns a copy of every row.
func (s *MemoryStore) Rows(ctx context.Context) ([][]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([][]string, len(s.rows))
	for i, row := range s.rows {
		out[i] = cloneCells(row)
	}
	return out, nil
}

// AppendRow adds a trailing row.
func (s *MemoryStore) AppendRow(ctx context.Context, cells []string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	s.rows = append(s.rows, cloneCells(cells))
	s.mu.Unlock()
	return nil
}

// UpdateCell overwrites one cell, growing the row when the column lies past its end.
func (s *MemoryStore) UpdateCell(ctx context.Context, row, col int, value string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if col < 1 {
		return fmt.Errorf("%w: column %d", ErrCellOutOfRange, col)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if row < 1 || row > len(s.rows) {
		return fmt.Errorf("%w: row %d", ErrCellOutOfRange, row)
	}
	cells := s.rows[row-1]
	for len(cells) < col {
		cells = append(cells, "")
	}
	cells[col-1] = value
	s.rows[row-1] = cells
	return nil
}

// CompareAndSwapCell writes value only if the cell currently equals expected.
func (s *MemoryStore) CompareAndSwapCell(ctx context.Context, row, col int, expected, value string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	if col < 1 {
		return false, fmt.Errorf("%w: column %d", ErrCellOutOfRange, col)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if row < 1 || row > len(s.rows) {
		return false, fmt.Errorf("%w: row %d", ErrCellOutOfRange, row)
	}
	cells := s.rows[row-1]
	current := ""
	if col <= len(cells) {
		current = cells[col-1]
	}
	if current != expected {
		return false, nil
	}
	for len(cells) < col {
		cells = append(cells, "")
	}
	cells[col-1] = value
	s.rows[row-1] = cells
	return true, nil
}

func cloneCells(cells []string) []string {
	out := make([]string, len(cells))
	copy(out, cells)
	return out
}
