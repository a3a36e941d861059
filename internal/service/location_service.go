package service

import (
	"context"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/minwon-api/internal/dto"
	"github.com/noah-isme/minwon-api/internal/models"
	appErrors "github.com/noah-isme/minwon-api/pkg/errors"
	"github.com/noah-isme/minwon-api/pkg/geocode"
)

type reverseGeocoder interface {
	ReverseGeocode(ctx context.Context, lat, lng float64) (string, error)
}

// LocationService turns map coordinates into display addresses.
type LocationService struct {
	geocoder  reverseGeocoder
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewLocationService constructs the service. A nil geocoder resolves everything to
// models.AddressUnavailable.
func NewLocationService(geocoder reverseGeocoder, metrics *MetricsService, logger *zap.Logger) *LocationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LocationService{geocoder: geocoder, metrics: metrics, validator: validator.New(), logger: logger}
}

// Lookup resolves the address for a map click. Only malformed coordinates are errors.
func (s *LocationService) Lookup(ctx context.Context, req dto.AddressLookupRequest) (*dto.AddressResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "lat and lng must be valid coordinates")
	}
	coords := models.Coordinates{Latitude: *req.Latitude, Longitude: *req.Longitude}
	address := s.Resolve(ctx, coords)
	return &dto.AddressResponse{
		Latitude:  coords.Latitude,
		Longitude: coords.Longitude,
		Address:   address,
		Resolved:  address != models.AddressUnavailable,
	}, nil
}

// Resolve never fails: any lookup error yields models.AddressUnavailable.
func (s *LocationService) Resolve(ctx context.Context, coords models.Coordinates) string {
	address, outcome := s.lookup(ctx, coords)
	s.metrics.RecordGeocode(outcome)
	if outcome != GeocodeResolved {
		return models.AddressUnavailable
	}
	return address
}

func (s *LocationService) lookup(ctx context.Context, coords models.Coordinates) (string, string) {
	if s.geocoder == nil {
		return "", GeocodeUnavailable
	}
	if !coords.Valid() {
		return "", GeocodeNoAddress
	}
	address, err := s.geocoder.ReverseGeocode(ctx, coords.Latitude, coords.Longitude)
	switch {
	case errors.Is(err, geocode.ErrNotConfigured):
		return "", GeocodeUnavailable
	case errors.Is(err, geocode.ErrNoAddress):
		s.logger.Info("no address for coordinates",
			zap.Float64("lat", coords.Latitude),
			zap.Float64("lng", coords.Longitude))
		return "", GeocodeNoAddress
	case err != nil:
		s.logger.Warn("reverse geocoding failed",
			zap.Float64("lat", coords.Latitude),
			zap.Float64("lng", coords.Longitude),
			zap.Error(err))
		return "", GeocodeFailed
	case address == "":
		return "", GeocodeNoAddress
	}
	return address, GeocodeResolved
}
