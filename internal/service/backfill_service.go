package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/minwon-api/internal/models"
	"github.com/noah-isme/minwon-api/pkg/geocode"
	"github.com/noah-isme/minwon-api/pkg/jobs"
)

type addressStore interface {
	LoadAll(ctx context.Context) ([]models.Complaint, []models.RowWarning, error)
	FillAddress(ctx context.Context, id, address string) (bool, error)
}

// BackfillConfig tunes the address backfill worker pool.
type BackfillConfig struct {
	Workers    int
	MaxRetries int
	RetryDelay time.Duration
}

// BackfillResult reports what an address backfill did.
type BackfillResult struct {
	Candidates int               `json:"candidates"`
	Filled     int               `json:"filled"`
	Skipped    int               `json:"skipped"`
	Failed     int               `json:"failed"`
	Errors     map[string]string `json:"errors,omitempty"`
}

// BackfillService re-geocodes complaints filed while the geocoder was unreachable.
type BackfillService struct {
	store    addressStore
	geocoder reverseGeocoder
	cache    *CacheService
	metrics  *MetricsService
	logger   *zap.Logger
	cfg      BackfillConfig
}

// NewBackfillService constructs a BackfillService.
func NewBackfillService(store addressStore, geocoder reverseGeocoder, cache *CacheService, metrics *MetricsService, logger *zap.Logger, cfg BackfillConfig) *BackfillService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 4
	}
	return &BackfillService{store: store, geocoder: geocoder, cache: cache, metrics: metrics, logger: logger, cfg: cfg}
}

type configuredGeocoder interface {
	Configured() bool
}

func (s *BackfillService) geocoderConfigured() bool {
	if s.geocoder == nil {
		return false
	}
	if c, ok := s.geocoder.(configuredGeocoder); ok {
		return c.Configured()
	}
	return true
}

var errAddressKept = errors.New("address already resolved")

// BackfillAddresses looks up an address for every located complaint whose address is
// blank or the unavailable marker, and writes it unless the row was resolved meanwhile.
func (s *BackfillService) BackfillAddresses(ctx context.Context) (*BackfillResult, error) {
	if !s.geocoderConfigured() {
		return nil, geocode.ErrNotConfigured
	}
	items, _, err := s.store.LoadAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("load complaints: %w", err)
	}

	batch := make([]jobs.Job, 0)
	for i := range items {
		c := items[i]
		if !c.Located() || !models.AddressMissing(c.Address) {
			continue
		}
		batch = append(batch, jobs.Job{ID: c.ID, Payload: *c.Coordinates})
	}
	result := &BackfillResult{Candidates: len(batch), Errors: map[string]string{}}
	if len(batch) == 0 {
		return result, nil
	}

	pool := jobs.NewPool("address-backfill", s.fill, jobs.PoolConfig{
		Workers:    s.cfg.Workers,
		MaxRetries: s.cfg.MaxRetries,
		RetryDelay: s.cfg.RetryDelay,
		Logger:     s.logger,
	})
	run := pool.Run(ctx, batch)

	result.Filled = run.Succeeded
	for id, jobErr := range run.Errors {
		if errors.Is(jobErr, errAddressKept) {
			result.Skipped++
			continue
		}
		result.Failed++
		result.Errors[id] = jobErr.Error()
	}
	if result.Filled > 0 {
		s.cache.InvalidateViews(ctx)
	}
	s.logger.Info("address backfill finished",
		zap.Int("candidates", result.Candidates),
		zap.Int("filled", result.Filled),
		zap.Int("skipped", result.Skipped),
		zap.Int("failed", result.Failed))
	return result, nil
}

func (s *BackfillService) fill(ctx context.Context, job jobs.Job) error {
	coords, ok := job.Payload.(models.Coordinates)
	if !ok {
		return jobs.Permanent(fmt.Errorf("unexpected payload %T", job.Payload))
	}
	address, err := s.geocoder.ReverseGeocode(ctx, coords.Latitude, coords.Longitude)
	switch {
	case errors.Is(err, geocode.ErrNoAddress), err == nil && address == "":
		s.metrics.RecordGeocode(GeocodeNoAddress)
		return jobs.Permanent(geocode.ErrNoAddress)
	case errors.Is(err, geocode.ErrNotConfigured):
		s.metrics.RecordGeocode(GeocodeUnavailable)
		return jobs.Permanent(err)
	case err != nil:
		s.metrics.RecordGeocode(GeocodeFailed)
		return err
	}
	s.metrics.RecordGeocode(GeocodeResolved)

	filled, err := s.store.FillAddress(ctx, job.ID, address)
	if err != nil {
		return jobs.Permanent(err)
	}
	if !filled {
		return jobs.Permanent(errAddressKept)
	}
	return nil
}
