package repository

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/noah-isme/minwon-api/internal/models"
)

// Column identifies a cell position in a stored complaint row.
type Column int

// Column order is load-bearing: it matches the header row of the shared sheet.
const (
	ColumnID Column = iota
	ColumnTitle
	ColumnContent
	ColumnDate
	ColumnCoordinates
	ColumnAuthor
	ColumnCategory
	ColumnAddress
	ColumnLikeCount
	ColumnStatus

	columnCount = int(ColumnStatus) + 1
)

var columnHeaders = [columnCount]string{
	"ID",
	"Title",
	"Content",
	"Date",
	"Coordinates",
	"Author",
	"Category",
	"Korean Address",
	"Like Count",
	"Status",
}

// Index returns the 1-based sheet column index.
func (c Column) Index() int {
	return int(c) + 1
}

// String returns the header name of the column.
func (c Column) String() string {
	if c < 0 || int(c) >= columnCount {
		return fmt.Sprintf("Column(%d)", int(c))
	}
	return columnHeaders[c]
}

// Header returns the header row written above the complaint rows.
func Header() []string {
	header := make([]string, columnCount)
	copy(header, columnHeaders[:])
	return header
}

const (
	noCoordinates = "None"
	dateLayout    = "2006-01-02"
)

// EncodeRow renders a complaint as exactly one cell per column.
func EncodeRow(c models.Complaint) []string {
	row := make([]string, columnCount)
	row[ColumnID] = c.ID
	row[ColumnTitle] = c.Title
	row[ColumnContent] = c.Content
	row[ColumnDate] = c.Date.Format(dateLayout)
	row[ColumnCoordinates] = formatCoordinates(c.Coordinates)
	row[ColumnAuthor] = c.Author
	row[ColumnCategory] = string(c.Category)
	row[ColumnAddress] = c.Address
	row[ColumnLikeCount] = strconv.Itoa(c.LikeCount)
	row[ColumnStatus] = string(c.Status)
	return row
}

// DecodeRow parses a stored row. Short rows are padded and every column falls back
// to its default, except a non-empty date that does not parse, which fails the row.
func DecodeRow(cells []string, now func() time.Time) (models.Complaint, error) {
	row := padRow(cells)

	date, err := parseDate(row[ColumnDate], now)
	if err != nil {
		return models.Complaint{}, err
	}

	author := row[ColumnAuthor]
	if author == "" {
		author = models.AnonymousAuthor
	}
	category := models.Category(row[ColumnCategory])
	if category == "" {
		category = models.CategoryOther
	}
	status := models.Status(row[ColumnStatus])
	if status == "" {
		status = models.StatusUnresolved
	}

	return models.Complaint{
		ID:          row[ColumnID],
		Title:       row[ColumnTitle],
		Content:     row[ColumnContent],
		Date:        date,
		Address:     row[ColumnAddress],
		Coordinates: parseCoordinates(row[ColumnCoordinates]),
		Author:      author,
		Category:    category,
		LikeCount:   parseLikeCount(row[ColumnLikeCount]),
		Status:      status,
	}, nil
}

func padRow(cells []string) []string {
	row := make([]string, columnCount)
	copy(row, cells)
	return row
}

func cellAt(cells []string, col Column) string {
	if int(col) >= len(cells) {
		return ""
	}
	return cells[col]
}

func isBlankRow(cells []string) bool {
	for _, cell := range cells {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

func parseDate(raw string, now func() time.Time) (time.Time, error) {
	if raw == "" {
		if now == nil {
			now = time.Now
		}
		return models.TruncateDate(now()), nil
	}
	parsed, err := time.Parse(dateLayout, strings.TrimSpace(raw))
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", raw, err)
	}
	return parsed, nil
}

// parseCoordinates accepts "(lat, lng)", "[lat, lng]" or "lat, lng". Anything else is
// treated as absent.
func parseCoordinates(raw string) *models.Coordinates {
	value := strings.TrimSpace(raw)
	if value == "" || strings.EqualFold(value, noCoordinates) {
		return nil
	}
	if n := len(value); n >= 2 {
		switch {
		case value[0] == '(' && value[n-1] == ')', value[0] == '[' && value[n-1] == ']':
			value = value[1 : n-1]
		}
	}
	parts := strings.Split(value, ",")
	if len(parts) != 2 {
		return nil
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return nil
	}
	lng, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return nil
	}
	coords := models.Coordinates{Latitude: lat, Longitude: lng}
	if !coords.Valid() {
		return nil
	}
	return &coords
}

func formatCoordinates(c *models.Coordinates) string {
	if c == nil {
		return noCoordinates
	}
	return fmt.Sprintf("(%s, %s)", formatFloat(c.Latitude), formatFloat(c.Longitude))
}

// formatFloat keeps the shortest exact representation and always shows a decimal
// point for whole numbers, matching how existing sheet rows were written.
func formatFloat(f float64) string {
	s := strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.ContainsAny(s, ".eE") && !math.IsInf(f, 0) && !math.IsNaN(f) {
		s += ".0"
	}
	return s
}

// parseLikeCount accepts only plain digit strings; everything else counts as zero.
func parseLikeCount(raw string) int {
	if raw == "" {
		return 0
	}
	for _, r := range raw {
		if r < '0' || r > '9' {
			return 0
		}
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0
	}
	return n
}
