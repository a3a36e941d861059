package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/minwon-api/internal/dto"
	"github.com/noah-isme/minwon-api/internal/models"
	"github.com/noah-isme/minwon-api/internal/repository"
	appErrors "github.com/noah-isme/minwon-api/pkg/errors"
)

const (
	defaultComplaintPageSize = 20
	maxComplaintPageSize     = 100
)

// Complaint lifecycle events recorded in metrics.
const (
	eventSubmitted = "submitted"
	eventLiked     = "liked"
	eventResolved  = "resolved"
)

type complaintStore interface {
	Append(ctx context.Context, complaint models.Complaint) error
	LoadAll(ctx context.Context) ([]models.Complaint, []models.RowWarning, error)
	IncrementLike(ctx context.Context, id string) (int, error)
	MarkResolved(ctx context.Context, id string) error
}

type addressResolver interface {
	Resolve(ctx context.Context, coords models.Coordinates) string
}

// ComplaintServiceParams groups constructor dependencies.
type ComplaintServiceParams struct {
	Store     complaintStore
	Resolver  addressResolver
	Cache     *CacheService
	Metrics   *MetricsService
	Validator *validator.Validate
	Logger    *zap.Logger
	// Persistent is false when the store only lives in process memory.
	Persistent bool
}

// ComplaintService implements submission, browsing and the two row patches.
type ComplaintService struct {
	store      complaintStore
	resolver   addressResolver
	cache      *CacheService
	metrics    *MetricsService
	validator  *validator.Validate
	logger     *zap.Logger
	persistent bool
	now        func() time.Time
}

// ComplaintList is one page of complaints plus rows skipped while loading.
type ComplaintList struct {
	Items      []models.Complaint
	Pagination *models.Pagination
	Warnings   []models.RowWarning
}

// NewComplaintService constructs a ComplaintService.
func NewComplaintService(params ComplaintServiceParams) *ComplaintService {
	logger := params.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	validate := params.Validator
	if validate == nil {
		validate = validator.New()
	}
	RegisterComplaintValidations(validate)
	return &ComplaintService{
		store:      params.Store,
		resolver:   params.Resolver,
		cache:      params.Cache,
		metrics:    params.Metrics,
		validator:  validate,
		logger:     logger,
		persistent: params.Persistent,
		now:        time.Now,
	}
}

// RegisterComplaintValidations installs the complaint_category tag.
func RegisterComplaintValidations(validate *validator.Validate) {
	_ = validate.RegisterValidation("complaint_category", func(fl validator.FieldLevel) bool {
		_, ok := models.ParseCategory(fl.Field().String())
		return ok
	})
}

// Persistent reports whether writes reach durable storage.
func (s *ComplaintService) Persistent() bool {
	return s.persistent
}

// Submit validates the request, resolves the address when none was supplied and appends
// the complaint as a new row.
func (s *ComplaintService) Submit(ctx context.Context, req dto.SubmitComplaintRequest) (*models.Complaint, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid complaint payload")
	}

	in := models.ComplaintInput{
		Title:   req.Title,
		Content: req.Content,
		Author:  req.Author,
		Address: req.Address,
	}
	if req.Latitude != nil && req.Longitude != nil {
		in.Coordinates = &models.Coordinates{Latitude: *req.Latitude, Longitude: *req.Longitude}
	}
	category, _ := models.ParseCategory(req.Category)
	in.Category = category
	if req.Date != "" {
		date, err := time.Parse("2006-01-02", req.Date)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid complaint date")
		}
		in.Date = date
	}

	complaint, err := models.NewComplaint(in, s.now())
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, err.Error())
	}
	if complaint.Address == "" && s.resolver != nil {
		complaint.Address = s.resolver.Resolve(ctx, *complaint.Coordinates)
	}

	if err := s.store.Append(ctx, *complaint); err != nil {
		s.logger.Error("failed to store complaint", zap.String("id", complaint.ID), zap.Error(err))
		return nil, storeFailure(err, "failed to store complaint")
	}

	s.metrics.RecordComplaintEvent(eventSubmitted)
	s.cache.InvalidateViews(ctx)
	s.logger.Info("complaint submitted",
		zap.String("id", complaint.ID),
		zap.String("category", string(complaint.Category)),
		zap.Bool("persistent", s.persistent))
	return complaint, nil
}

// Load reloads every complaint from the store in storage order.
func (s *ComplaintService) Load(ctx context.Context) ([]models.Complaint, []models.RowWarning, error) {
	items, warnings, err := s.store.LoadAll(ctx)
	if err != nil {
		return nil, nil, storeFailure(err, "failed to load complaints")
	}
	return items, warnings, nil
}

// List returns one page of complaints matching the filter, in storage order.
func (s *ComplaintService) List(ctx context.Context, filter dto.ComplaintListFilter) (*ComplaintList, error) {
	category, status, err := parseComplaintFilter(filter.Category, filter.Status)
	if err != nil {
		return nil, err
	}

	items, warnings, err := s.Load(ctx)
	if err != nil {
		return nil, err
	}
	matched := filterComplaints(items, category, status)

	page := filter.Page
	if page <= 0 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = defaultComplaintPageSize
	}
	if size > maxComplaintPageSize {
		size = maxComplaintPageSize
	}

	start := (page - 1) * size
	if start > len(matched) {
		start = len(matched)
	}
	end := start + size
	if end > len(matched) {
		end = len(matched)
	}

	return &ComplaintList{
		Items:      matched[start:end],
		Pagination: &models.Pagination{Page: page, PageSize: size, TotalCount: len(matched)},
		Warnings:   warnings,
	}, nil
}

// Get reloads the store and returns the complaint with the given id.
func (s *ComplaintService) Get(ctx context.Context, id string) (*models.Complaint, error) {
	items, _, err := s.Load(ctx)
	if err != nil {
		return nil, err
	}
	for i := range items {
		if items[i].ID == id {
			return &items[i], nil
		}
	}
	return nil, appErrors.Clone(appErrors.ErrNotFound, "complaint not found")
}

// Like increments the like count and returns the new value.
func (s *ComplaintService) Like(ctx context.Context, id string) (int, error) {
	count, err := s.store.IncrementLike(ctx, id)
	if err != nil {
		return 0, s.patchFailure(err, id, "failed to record like")
	}
	s.metrics.RecordComplaintEvent(eventLiked)
	s.cache.InvalidateViews(ctx)
	return count, nil
}

// Resolve marks the complaint resolved. Resolving twice is a no-op.
func (s *ComplaintService) Resolve(ctx context.Context, id string) error {
	if err := s.store.MarkResolved(ctx, id); err != nil {
		return s.patchFailure(err, id, "failed to resolve complaint")
	}
	s.metrics.RecordComplaintEvent(eventResolved)
	s.cache.InvalidateViews(ctx)
	s.logger.Info("complaint resolved", zap.String("id", id))
	return nil
}

func (s *ComplaintService) patchFailure(err error, id, message string) error {
	switch {
	case errors.Is(err, models.ErrComplaintNotFound):
		s.logger.Warn("complaint not found", zap.String("id", id))
		return appErrors.Clone(appErrors.ErrNotFound, "complaint not found")
	case errors.Is(err, repository.ErrPatchConflict):
		return appErrors.Wrap(err, appErrors.ErrConflict.Code, appErrors.ErrConflict.Status, "complaint is being updated, try again")
	default:
		s.logger.Error(message, zap.String("id", id), zap.Error(err))
		return storeFailure(err, message)
	}
}

func storeFailure(err error, message string) error {
	return appErrors.Wrap(err, appErrors.ErrStoreUnavailable.Code, appErrors.ErrStoreUnavailable.Status, message)
}

func parseComplaintFilter(rawCategory, rawStatus string) (models.Category, models.Status, error) {
	var (
		category models.Category
		status   models.Status
	)
	if rawCategory = strings.TrimSpace(rawCategory); rawCategory != "" {
		parsed, ok := models.ParseCategory(rawCategory)
		if !ok {
			return "", "", appErrors.Clone(appErrors.ErrValidation, "unknown category")
		}
		category = parsed
	}
	if rawStatus = strings.TrimSpace(rawStatus); rawStatus != "" {
		status = models.Status(rawStatus)
		if status != models.StatusUnresolved && status != models.StatusResolved {
			return "", "", appErrors.Clone(appErrors.ErrValidation, "unknown status")
		}
	}
	return category, status, nil
}

func filterComplaints(items []models.Complaint, category models.Category, status models.Status) []models.Complaint {
	if category == "" && status == "" {
		return items
	}
	out := make([]models.Complaint, 0, len(items))
	for _, c := range items {
		if category != "" && c.Category != category {
			continue
		}
		if status != "" && c.Status != status {
			continue
		}
		out = append(out, c)
	}
	return out
}
