package models

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Category classifies a complaint. Values are persisted verbatim.
type Category string

const (
	CategoryTraffic     Category = "교통 불편"
	CategoryEnvironment Category = "환경 문제"
	CategoryFacility    Category = "시설 개선"
	CategorySafety      Category = "안전 문제"
	CategorySuggestion  Category = "기타 건의"
	CategoryOther       Category = "기타"
)

// SubmittableCategories lists the categories offered on the submission form, in display order.
var SubmittableCategories = []Category{
	CategoryTraffic,
	CategoryEnvironment,
	CategoryFacility,
	CategorySafety,
	CategorySuggestion,
}

// ParseCategory maps raw input onto a known category. Blank input yields CategoryOther.
func ParseCategory(raw string) (Category, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return CategoryOther, true
	}
	candidate := Category(raw)
	if candidate == CategoryOther {
		return candidate, true
	}
	for _, c := range SubmittableCategories {
		if c == candidate {
			return c, true
		}
	}
	return "", false
}

// Status is the processing state of a complaint.
type Status string

const (
	StatusUnresolved Status = "미해결"
	StatusResolved   Status = "해결"
)

// CanTransition reports whether the status may move to next.
// Resolved is terminal; re-resolving is allowed as a no-op.
func (s Status) CanTransition(next Status) bool {
	switch next {
	case StatusResolved:
		return true
	case StatusUnresolved:
		return s == StatusUnresolved
	default:
		return false
	}
}

// AnonymousAuthor replaces a blank author name.
const AnonymousAuthor = "익명"

const (
	dateLayout         = "2006-01-02"
	summaryUnspecified = "지정되지 않음"
	summaryNotProvided = "제공되지 않음"
)

// Coordinates is a WGS84 latitude/longitude pair.
type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Valid reports whether both components are finite.
func (c Coordinates) Valid() bool {
	return isFinite(c.Latitude) && isFinite(c.Longitude)
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// Complaint is a single citizen complaint (민원) and its metadata.
type Complaint struct {
	ID          string       `json:"id"`
	Title       string       `json:"title"`
	Content     string       `json:"content"`
	Date        time.Time    `json:"date"`
	Address     string       `json:"address"`
	Coordinates *Coordinates `json:"coordinates,omitempty"`
	Author      string       `json:"author"`
	Category    Category     `json:"category"`
	LikeCount   int          `json:"like_count"`
	Status      Status       `json:"status"`
}

// ComplaintInput carries the fields a submitter controls.
type ComplaintInput struct {
	Title       string
	Content     string
	Date        time.Time
	Coordinates *Coordinates
	Category    Category
	Author      string
	Address     string
}

// Validation failures raised before a complaint is constructed.
var (
	ErrTitleRequired       = errors.New("title is required")
	ErrContentRequired     = errors.New("content is required")
	ErrCoordinatesRequired = errors.New("coordinates are required")
	ErrCoordinatesInvalid  = errors.New("coordinates must be finite numbers")
)

// ErrComplaintNotFound is returned when no stored row carries the requested id.
var ErrComplaintNotFound = errors.New("complaint not found")

// NewComplaint validates input and builds a complaint with a fresh id and default state.
// A zero Date falls back to today's date taken from now.
func NewComplaint(in ComplaintInput, now time.Time) (*Complaint, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, ErrTitleRequired
	}
	content := strings.TrimSpace(in.Content)
	if content == "" {
		return nil, ErrContentRequired
	}
	if in.Coordinates == nil {
		return nil, ErrCoordinatesRequired
	}
	if !in.Coordinates.Valid() {
		return nil, ErrCoordinatesInvalid
	}

	date := in.Date
	if date.IsZero() {
		date = now
	}
	category := in.Category
	if category == "" {
		category = CategoryOther
	}
	author := strings.TrimSpace(in.Author)
	if author == "" {
		author = AnonymousAuthor
	}
	coords := *in.Coordinates

	return &Complaint{
		ID:          uuid.NewString(),
		Title:       title,
		Content:     content,
		Date:        TruncateDate(date),
		Address:     strings.TrimSpace(in.Address),
		Coordinates: &coords,
		Author:      author,
		Category:    category,
		LikeCount:   0,
		Status:      StatusUnresolved,
	}, nil
}

// TruncateDate drops the time of day, keeping the calendar date in UTC.
func TruncateDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DateString renders the complaint date as ISO-8601.
func (c *Complaint) DateString() string {
	return c.Date.Format(dateLayout)
}

// Located reports whether the complaint has usable coordinates.
func (c *Complaint) Located() bool {
	return c.Coordinates != nil && c.Coordinates.Valid()
}

// Summary renders every field as a multi-line block for display.
func (c *Complaint) Summary() string {
	address := c.Address
	if address == "" {
		address = summaryUnspecified
	}
	author := c.Author
	if strings.TrimSpace(author) == "" {
		author = AnonymousAuthor
	}
	location := summaryNotProvided
	if c.Coordinates != nil {
		location = fmt.Sprintf("위도 %.5f, 경도 %.5f", c.Coordinates.Latitude, c.Coordinates.Longitude)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "민원 ID: %s\n", c.ID)
	fmt.Fprintf(&b, "제목: %s\n", c.Title)
	fmt.Fprintf(&b, "내용: %s\n", c.Content)
	fmt.Fprintf(&b, "날짜: %s\n", c.DateString())
	fmt.Fprintf(&b, "주소: %s\n", address)
	fmt.Fprintf(&b, "좌표: %s\n", location)
	fmt.Fprintf(&b, "작성자: %s\n", author)
	fmt.Fprintf(&b, "유형: %s\n", c.Category)
	fmt.Fprintf(&b, "공감 수: %d\n", c.LikeCount)
	fmt.Fprintf(&b, "처리 상태: %s", c.Status)
	return b.String()
}

// RowWarning describes a stored row that could not be decoded and was skipped.
type RowWarning struct {
	Row     int    `json:"row"`
	ID      string `json:"id,omitempty"`
	Message string `json:"message"`
}

// AddressUnavailable is shown in place of an address when reverse geocoding fails.
const AddressUnavailable = "주소를 찾을 수 없습니다."

// AddressMissing reports whether a stored address still needs resolving.
func AddressMissing(address string) bool {
	address = strings.TrimSpace(address)
	return address == "" || address == AddressUnavailable
}
