package dto

import "github.com/noah-isme/minwon-api/internal/models"

// SubmitComplaintRequest is the payload for filing a complaint from a map pin.
type SubmitComplaintRequest struct {
	Title     string   `json:"title" validate:"required"`
	Content   string   `json:"content" validate:"required"`
	Latitude  *float64 `json:"latitude" validate:"required,latitude"`
	Longitude *float64 `json:"longitude" validate:"required,longitude"`
	Category  string   `json:"category" validate:"omitempty,complaint_category"`
	Date      string   `json:"date" validate:"omitempty,datetime=2006-01-02"`
	Author    string   `json:"author" validate:"max=50"`
	// Address overrides the geocoded address when the submitter edited it.
	Address string `json:"address" validate:"max=300"`
}

// ComplaintListFilter narrows the complaint list.
type ComplaintListFilter struct {
	Category string `form:"category"`
	Status   string `form:"status"`
	Page     int    `form:"page"`
	PageSize int    `form:"page_size"`
}

// ComplaintResponse is the API view of a complaint, including its display summary.
type ComplaintResponse struct {
	ID          string              `json:"id"`
	Title       string              `json:"title"`
	Content     string              `json:"content"`
	Date        string              `json:"date"`
	Address     string              `json:"address"`
	Coordinates *models.Coordinates `json:"coordinates,omitempty"`
	Author      string              `json:"author"`
	Category    models.Category     `json:"category"`
	LikeCount   int                 `json:"like_count"`
	Status      models.Status       `json:"status"`
	Summary     string              `json:"summary"`
}

// NewComplaintResponse renders a complaint for API output.
func NewComplaintResponse(c models.Complaint) ComplaintResponse {
	return ComplaintResponse{
		ID:          c.ID,
		Title:       c.Title,
		Content:     c.Content,
		Date:        c.DateString(),
		Address:     c.Address,
		Coordinates: c.Coordinates,
		Author:      c.Author,
		Category:    c.Category,
		LikeCount:   c.LikeCount,
		Status:      c.Status,
		Summary:     c.Summary(),
	}
}

// NewComplaintResponses renders a list in order.
func NewComplaintResponses(items []models.Complaint) []ComplaintResponse {
	out := make([]ComplaintResponse, 0, len(items))
	for _, c := range items {
		out = append(out, NewComplaintResponse(c))
	}
	return out
}

// LikeResponse reports the like count after an increment.
type LikeResponse struct {
	ID        string `json:"id"`
	LikeCount int    `json:"like_count"`
}

// ResolveResponse reports the status after resolution.
type ResolveResponse struct {
	ID     string        `json:"id"`
	Status models.Status `json:"status"`
}

// StatisticsResponse aggregates complaint counts.
type StatisticsResponse struct {
	Total      int             `json:"total"`
	ByCategory []CategoryCount `json:"by_category"`
	ByDate     []DateCount     `json:"by_date"`
	ByStatus   []StatusCount   `json:"by_status"`
}

// CategoryCount counts complaints in one category.
type CategoryCount struct {
	Category models.Category `json:"category"`
	Count    int             `json:"count"`
}

// DateCount counts complaints filed on one date.
type DateCount struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

// StatusCount counts complaints in one status.
type StatusCount struct {
	Status models.Status `json:"status"`
	Count  int           `json:"count"`
}

// RankingEntry is one row of the like ranking.
type RankingEntry struct {
	Rank      int             `json:"rank"`
	ID        string          `json:"id"`
	Title     string          `json:"title"`
	Category  models.Category `json:"category"`
	Date      string          `json:"date"`
	LikeCount int             `json:"like_count"`
	Status    models.Status   `json:"status"`
}

// MapResponse carries the initial viewport and one marker per located complaint.
type MapResponse struct {
	Center  MapCenter   `json:"center"`
	Markers []MapMarker `json:"markers"`
}

// MapCenter is the suggested initial viewport.
type MapCenter struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Zoom      int     `json:"zoom"`
}

// MapMarker pins a complaint on the map.
type MapMarker struct {
	ID        string          `json:"id"`
	Title     string          `json:"title"`
	Category  models.Category `json:"category"`
	Status    models.Status   `json:"status"`
	Latitude  float64         `json:"latitude"`
	Longitude float64         `json:"longitude"`
	Address   string          `json:"address"`
	LikeCount int             `json:"like_count"`
}

// AddressLookupRequest is the query for reverse geocoding a map click.
type AddressLookupRequest struct {
	Latitude  *float64 `form:"lat" validate:"required,latitude"`
	Longitude *float64 `form:"lng" validate:"required,longitude"`
}

// AddressResponse is the resolved address for a map click.
type AddressResponse struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Address   string  `json:"address"`
	Resolved  bool    `json:"resolved"`
}

// ExportFormat selects the export renderer.
type ExportFormat string

const (
	ExportFormatCSV ExportFormat = "csv"
	ExportFormatPDF ExportFormat = "pdf"
)

// ExportRequest selects the format and optional filters for an export.
type ExportRequest struct {
	Format   ExportFormat `form:"format"`
	Category string       `form:"category"`
	Status   string       `form:"status"`
}

// ExportFile is a rendered export ready for download.
type ExportFile struct {
	Filename    string
	ContentType string
	Data        []byte
	Rows        int
}
