package repository

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/minwon-api/internal/models"
	"github.com/noah-isme/minwon-api/pkg/sheet"
)

type storeObserver interface {
	ObserveStoreOperation(operation string, duration time.Duration, err error)
}

// ComplaintRepository maps complaints onto rows of the shared sheet.
type ComplaintRepository struct {
	store   sheet.Store
	metrics storeObserver
	logger  *zap.Logger
	now     func() time.Time
}

// NewComplaintRepository constructs the repository. metrics and logger may be nil.
func NewComplaintRepository(store sheet.Store, metrics storeObserver, logger *zap.Logger) *ComplaintRepository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ComplaintRepository{store: store, metrics: metrics, logger: logger, now: time.Now}
}

// Append writes the complaint as a new trailing row. Ids are not checked for uniqueness.
func (r *ComplaintRepository) Append(ctx context.Context, complaint models.Complaint) (err error) {
	defer r.observe("append", time.Now(), &err)
	if err = r.store.AppendRow(ctx, EncodeRow(complaint)); err != nil {
		return fmt.Errorf("append complaint %s: %w", complaint.ID, err)
	}
	return nil
}

// LoadAll decodes every data row in storage order. Rows that fail to decode are skipped
// and reported as warnings; blank rows are ignored.
func (r *ComplaintRepository) LoadAll(ctx context.Context) (_ []models.Complaint, _ []models.RowWarning, err error) {
	defer r.observe("load_all", time.Now(), &err)
	rows, err := r.store.Rows(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("load complaints: %w", err)
	}

	complaints := make([]models.Complaint, 0, len(rows))
	var warnings []models.RowWarning
	for i, cells := range rows {
		if i == 0 || isBlankRow(cells) {
			continue
		}
		complaint, decodeErr := DecodeRow(cells, r.now)
		if decodeErr != nil {
			warning := models.RowWarning{Row: i + 1, ID: cellAt(cells, ColumnID), Message: decodeErr.Error()}
			warnings = append(warnings, warning)
			r.logger.Warn("skipping malformed complaint row",
				zap.Int("row", warning.Row),
				zap.String("id", warning.ID),
				zap.Error(decodeErr))
			continue
		}
		complaints = append(complaints, complaint)
	}
	return complaints, warnings, nil
}

// ErrPatchConflict is returned when a row kept changing underneath FindAndPatch.
var ErrPatchConflict = errors.New("complaint row modified concurrently")

const maxPatchAttempts = 8

// FindAndPatch scans the id column for id and rewrites the cell at column with the value
// patch derives from its current content. It returns the written value, or
// models.ErrComplaintNotFound without writing when no row matches. A blank id never matches.
//
// Stores implementing sheet.CellSwapper get a guarded write: if the cell changed between
// the scan and the write, the scan is repeated. Other stores get a plain overwrite, and two
// callers patching the same row concurrently can both read the same value, with the later
// write winning.
func (r *ComplaintRepository) FindAndPatch(ctx context.Context, id string, column Column, patch func(current string) string) (_ string, err error) {
	defer r.observe("find_and_patch", time.Now(), &err)
	if strings.TrimSpace(id) == "" {
		return "", models.ErrComplaintNotFound
	}
	swapper, guarded := r.store.(sheet.CellSwapper)

	for attempt := 1; attempt <= maxPatchAttempts; attempt++ {
		rows, err := r.store.Rows(ctx)
		if err != nil {
			return "", fmt.Errorf("scan complaints: %w", err)
		}
		row := findRow(rows, id)
		if row == 0 {
			r.logger.Warn("complaint not found for patch", zap.String("id", id), zap.Stringer("column", column))
			return "", models.ErrComplaintNotFound
		}

		current := cellAt(rows[row-1], column)
		next := patch(current)
		if !guarded {
			if err := r.store.UpdateCell(ctx, row, column.Index(), next); err != nil {
				return "", fmt.Errorf("patch complaint %s %s: %w", id, column, err)
			}
			return next, nil
		}

		swapped, err := swapper.CompareAndSwapCell(ctx, row, column.Index(), current, next)
		if err != nil {
			return "", fmt.Errorf("patch complaint %s %s: %w", id, column, err)
		}
		if swapped {
			return next, nil
		}
		r.logger.Debug("complaint cell changed during patch, rescanning",
			zap.String("id", id),
			zap.Stringer("column", column),
			zap.Int("attempt", attempt))
	}
	return "", fmt.Errorf("patch complaint %s %s: %w", id, column, ErrPatchConflict)
}

// findRow returns the 1-indexed row holding id, or 0. The header row is never matched.
func findRow(rows [][]string, id string) int {
	for i := 1; i < len(rows); i++ {
		if cellAt(rows[i], ColumnID) == id {
			return i + 1
		}
	}
	return 0
}

// IncrementLike adds one to the stored like count, treating a non-numeric cell as zero.
func (r *ComplaintRepository) IncrementLike(ctx context.Context, id string) (int, error) {
	written, err := r.FindAndPatch(ctx, id, ColumnLikeCount, func(current string) string {
		return strconv.Itoa(parseLikeCount(current) + 1)
	})
	if err != nil {
		return 0, err
	}
	return parseLikeCount(written), nil
}

// MarkResolved sets the status cell to resolved. Repeating it leaves the row unchanged.
func (r *ComplaintRepository) MarkResolved(ctx context.Context, id string) error {
	_, err := r.FindAndPatch(ctx, id, ColumnStatus, func(string) string {
		return string(models.StatusResolved)
	})
	return err
}

// FillAddress stores address unless the row already carries a resolved one. It reports
// whether the address was written.
func (r *ComplaintRepository) FillAddress(ctx context.Context, id, address string) (bool, error) {
	filled := false
	_, err := r.FindAndPatch(ctx, id, ColumnAddress, func(current string) string {
		filled = models.AddressMissing(current)
		if filled {
			return address
		}
		return current
	})
	if err != nil {
		return false, err
	}
	return filled, nil
}

func (r *ComplaintRepository) observe(operation string, start time.Time, err *error) {
	if r.metrics == nil {
		return
	}
	r.metrics.ObserveStoreOperation(operation, time.Since(start), *err)
}
