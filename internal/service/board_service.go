package service

import (
	"context"
	"sort"
	"strconv"

	"go.uber.org/zap"

	"github.com/noah-isme/minwon-api/internal/dto"
	"github.com/noah-isme/minwon-api/internal/models"
	"github.com/noah-isme/minwon-api/pkg/config"
)

const (
	defaultRankingLimit = 10
	maxRankingLimit     = 100
)

type complaintLoader interface {
	Load(ctx context.Context) ([]models.Complaint, []models.RowWarning, error)
}

// BoardService builds the aggregate views: statistics, like ranking and map markers.
// Each view reloads the whole store unless the view cache is enabled.
type BoardService struct {
	loader complaintLoader
	cache  *CacheService
	mapCfg config.MapConfig
	logger *zap.Logger
}

// NewBoardService constructs a BoardService.
func NewBoardService(loader complaintLoader, cache *CacheService, mapCfg config.MapConfig, logger *zap.Logger) *BoardService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BoardService{loader: loader, cache: cache, mapCfg: mapCfg, logger: logger}
}

// Statistics returns complaint counts by category, date and status, and whether the
// result came from cache.
func (s *BoardService) Statistics(ctx context.Context) (*dto.StatisticsResponse, bool, error) {
	var cached dto.StatisticsResponse
	if s.cachedView(ctx, cacheKeyStatistics, &cached) {
		return &cached, true, nil
	}
	items, _, err := s.loader.Load(ctx)
	if err != nil {
		return nil, false, err
	}
	stats := BuildStatistics(items)
	s.storeView(ctx, cacheKeyStatistics, stats)
	return stats, false, nil
}

// Ranking returns the most liked complaints.
func (s *BoardService) Ranking(ctx context.Context, limit int) ([]dto.RankingEntry, bool, error) {
	if limit <= 0 {
		limit = defaultRankingLimit
	}
	if limit > maxRankingLimit {
		limit = maxRankingLimit
	}
	key := cacheKeyRanking + strconv.Itoa(limit)
	var cached []dto.RankingEntry
	if s.cachedView(ctx, key, &cached) {
		return cached, true, nil
	}
	items, _, err := s.loader.Load(ctx)
	if err != nil {
		return nil, false, err
	}
	ranking := BuildRanking(items, limit)
	s.storeView(ctx, key, ranking)
	return ranking, false, nil
}

// Map returns the initial viewport and one marker per located complaint.
func (s *BoardService) Map(ctx context.Context) (*dto.MapResponse, bool, error) {
	var cached dto.MapResponse
	if s.cachedView(ctx, cacheKeyMap, &cached) {
		return &cached, true, nil
	}
	items, _, err := s.loader.Load(ctx)
	if err != nil {
		return nil, false, err
	}
	resp := &dto.MapResponse{
		Center: dto.MapCenter{
			Latitude:  s.mapCfg.CenterLatitude,
			Longitude: s.mapCfg.CenterLongitude,
			Zoom:      s.mapCfg.Zoom,
		},
		Markers: BuildMarkers(items),
	}
	s.storeView(ctx, cacheKeyMap, resp)
	return resp, false, nil
}

// cachedView reads a view from cache. A cache failure counts as a miss so the view is
// rebuilt from the store.
func (s *BoardService) cachedView(ctx context.Context, key string, dest interface{}) bool {
	hit, err := s.cache.Get(ctx, key, dest)
	if err != nil {
		s.logger.Debug("view cache read failed, rebuilding", zap.String("key", key), zap.Error(err))
		return false
	}
	return hit
}

func (s *BoardService) storeView(ctx context.Context, key string, value interface{}) {
	if err := s.cache.Set(ctx, key, value, 0); err != nil {
		s.logger.Debug("view cache write failed", zap.String("key", key), zap.Error(err))
	}
}

// BuildStatistics counts complaints. Every submittable category, the default category and
// both statuses are always listed, zero-filled; values found only in hand-edited rows
// follow in name order. Dates ascend.
func BuildStatistics(items []models.Complaint) *dto.StatisticsResponse {
	byCategory := make(map[models.Category]int)
	byDate := make(map[string]int)
	byStatus := make(map[models.Status]int)
	for _, c := range items {
		byCategory[c.Category]++
		byDate[c.DateString()]++
		byStatus[c.Status]++
	}

	stats := &dto.StatisticsResponse{Total: len(items)}

	knownCategories := append(append([]models.Category{}, models.SubmittableCategories...), models.CategoryOther)
	for _, category := range knownCategories {
		stats.ByCategory = append(stats.ByCategory, dto.CategoryCount{Category: category, Count: byCategory[category]})
		delete(byCategory, category)
	}
	extraCategories := make([]models.Category, 0, len(byCategory))
	for category := range byCategory {
		extraCategories = append(extraCategories, category)
	}
	sort.Slice(extraCategories, func(i, j int) bool { return extraCategories[i] < extraCategories[j] })
	for _, category := range extraCategories {
		stats.ByCategory = append(stats.ByCategory, dto.CategoryCount{Category: category, Count: byCategory[category]})
	}

	dates := make([]string, 0, len(byDate))
	for date := range byDate {
		dates = append(dates, date)
	}
	sort.Strings(dates)
	stats.ByDate = make([]dto.DateCount, 0, len(dates))
	for _, date := range dates {
		stats.ByDate = append(stats.ByDate, dto.DateCount{Date: date, Count: byDate[date]})
	}

	for _, status := range []models.Status{models.StatusUnresolved, models.StatusResolved} {
		stats.ByStatus = append(stats.ByStatus, dto.StatusCount{Status: status, Count: byStatus[status]})
		delete(byStatus, status)
	}
	extraStatuses := make([]models.Status, 0, len(byStatus))
	for status := range byStatus {
		extraStatuses = append(extraStatuses, status)
	}
	sort.Slice(extraStatuses, func(i, j int) bool { return extraStatuses[i] < extraStatuses[j] })
	for _, status := range extraStatuses {
		stats.ByStatus = append(stats.ByStatus, dto.StatusCount{Status: status, Count: byStatus[status]})
	}

	return stats
}

// BuildRanking orders complaints by like count, highest first. Ties keep storage order.
func BuildRanking(items []models.Complaint, limit int) []dto.RankingEntry {
	ordered := make([]models.Complaint, len(items))
	copy(ordered, items)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].LikeCount > ordered[j].LikeCount })
	if limit > 0 && len(ordered) > limit {
		ordered = ordered[:limit]
	}

	out := make([]dto.RankingEntry, 0, len(ordered))
	for i, c := range ordered {
		out = append(out, dto.RankingEntry{
			Rank:      i + 1,
			ID:        c.ID,
			Title:     c.Title,
			Category:  c.Category,
			Date:      c.DateString(),
			LikeCount: c.LikeCount,
			Status:    c.Status,
		})
	}
	return out
}

// BuildMarkers returns one marker per complaint with coordinates.
func BuildMarkers(items []models.Complaint) []dto.MapMarker {
	out := make([]dto.MapMarker, 0, len(items))
	for _, c := range items {
		if !c.Located() {
			continue
		}
		out = append(out, dto.MapMarker{
			ID:        c.ID,
			Title:     c.Title,
			Category:  c.Category,
			Status:    c.Status,
			Latitude:  c.Coordinates.Latitude,
			Longitude: c.Coordinates.Longitude,
			Address:   c.Address,
			LikeCount: c.LikeCount,
		})
	}
	return out
}
