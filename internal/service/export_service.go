package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/minwon-api/internal/dto"
	"github.com/noah-isme/minwon-api/internal/models"
	appErrors "github.com/noah-isme/minwon-api/pkg/errors"
	"github.com/noah-isme/minwon-api/pkg/export"
)

// Export column labels, in the order the summary lists them.
var exportHeaders = []string{"민원 ID", "제목", "내용", "날짜", "주소", "좌표", "작성자", "유형", "공감 수", "처리 상태"}

var exportPDFWidths = []float64{3, 3, 5, 1.6, 4, 2.4, 1.4, 1.4, 1, 1}

const exportTitle = "민원 목록"

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset, title string, widths ...float64) ([]byte, error)
}

// ExportConfig tunes export behaviour.
type ExportConfig struct {
	MaxRows int
}

// ExportService renders the complaint list as downloadable files.
type ExportService struct {
	loader complaintLoader
	csv    csvRenderer
	pdf    pdfRenderer
	logger *zap.Logger
	cfg    ExportConfig
	now    func() time.Time
}

// NewExportService constructs an ExportService.
func NewExportService(loader complaintLoader, cfg ExportConfig, logger *zap.Logger, csv csvRenderer, pdf pdfRenderer) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if csv == nil {
		csv = export.NewCSVExporter(true)
	}
	if pdf == nil {
		pdf = export.NewPDFExporter("")
	}
	return &ExportService{loader: loader, csv: csv, pdf: pdf, logger: logger, cfg: cfg, now: time.Now}
}

// Export reloads the store and renders matching complaints in storage order.
func (s *ExportService) Export(ctx context.Context, req dto.ExportRequest) (*dto.ExportFile, error) {
	format := dto.ExportFormat(strings.ToLower(strings.TrimSpace(string(req.Format))))
	if format == "" {
		format = dto.ExportFormatCSV
	}
	if format != dto.ExportFormatCSV && format != dto.ExportFormatPDF {
		return nil, appErrors.Clone(appErrors.ErrUnsupportedFormat, fmt.Sprintf("unsupported export format %q", req.Format))
	}
	category, status, err := parseComplaintFilter(req.Category, req.Status)
	if err != nil {
		return nil, err
	}

	items, _, err := s.loader.Load(ctx)
	if err != nil {
		return nil, err
	}
	items = filterComplaints(items, category, status)
	if s.cfg.MaxRows > 0 && len(items) > s.cfg.MaxRows {
		s.logger.Warn("export truncated", zap.Int("rows", len(items)), zap.Int("max_rows", s.cfg.MaxRows))
		items = items[:s.cfg.MaxRows]
	}

	dataset := BuildExportDataset(items)
	var (
		data        []byte
		contentType string
	)
	switch format {
	case dto.ExportFormatPDF:
		data, err = s.pdf.Render(dataset, exportTitle, exportPDFWidths...)
		contentType = "application/pdf"
	default:
		data, err = s.csv.Render(dataset)
		contentType = "text/csv; charset=utf-8"
	}
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render export")
	}

	filename := fmt.Sprintf("minwon-%s.%s", s.now().UTC().Format("20060102-150405"), format)
	s.logger.Info("complaints exported", zap.String("format", string(format)), zap.Int("rows", len(items)))
	return &dto.ExportFile{Filename: filename, ContentType: contentType, Data: data, Rows: len(items)}, nil
}

// BuildExportDataset maps complaints onto the export columns.
func BuildExportDataset(items []models.Complaint) export.Dataset {
	rows := make([]map[string]string, 0, len(items))
	for _, c := range items {
		coords := ""
		if c.Coordinates != nil {
			coords = strconv.FormatFloat(c.Coordinates.Latitude, 'f', 5, 64) + ", " + strconv.FormatFloat(c.Coordinates.Longitude, 'f', 5, 64)
		}
		values := []string{
			c.ID,
			c.Title,
			c.Content,
			c.DateString(),
			c.Address,
			coords,
			c.Author,
			string(c.Category),
			strconv.Itoa(c.LikeCount),
			string(c.Status),
		}
		row := make(map[string]string, len(exportHeaders))
		for i, header := range exportHeaders {
			row[header] = values[i]
		}
		rows = append(rows, row)
	}
	return export.Dataset{Headers: append([]string(nil), exportHeaders...), Rows: rows}
}
