package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/minwon-api/internal/dto"
	"github.com/noah-isme/minwon-api/internal/middleware"
	"github.com/noah-isme/minwon-api/internal/models"
	appErrors "github.com/noah-isme/minwon-api/pkg/errors"
)

type fakeBoardSrv struct {
	stats     *dto.StatisticsResponse
	ranking   []dto.RankingEntry
	view      *dto.MapResponse
	hit       bool
	err       error
	lastLimit int
}

func (f *fakeBoardSrv) Statistics(context.Context) (*dto.StatisticsResponse, bool, error) {
	return f.stats, f.hit, f.err
}

func (f *fakeBoardSrv) Ranking(_ context.Context, limit int) ([]dto.RankingEntry, bool, error) {
	f.lastLimit = limit
	return f.ranking, f.hit, f.err
}

func (f *fakeBoardSrv) Map(context.Context) (*dto.MapResponse, bool, error) {
	return f.view, f.hit, f.err
}

func newBoardRouter(srv *fakeBoardSrv) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewBoardHandler(srv)
	router := gin.New()
	router.Use(middleware.WithResponseMeta())
	router.GET("/board/statistics", h.Statistics)
	router.GET("/board/ranking", h.Ranking)
	router.GET("/board/map", h.Map)
	return router
}

func TestBoardHandlerStatisticsReportsCacheHit(t *testing.T) {
	srv := &fakeBoardSrv{
		stats: &dto.StatisticsResponse{Total: 2, ByCategory: []dto.CategoryCount{{Category: models.CategoryTraffic, Count: 2}}},
		hit:   true,
	}
	rec, envelope := doRequest(newBoardRouter(srv), http.MethodGet, "/board/statistics", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, envelope.Meta["cache_hit"])
	var stats dto.StatisticsResponse
	require.NoError(t, json.Unmarshal(envelope.Data, &stats))
	assert.Equal(t, 2, stats.Total)
}

func TestBoardHandlerRankingLimit(t *testing.T) {
	srv := &fakeBoardSrv{ranking: []dto.RankingEntry{{Rank: 1, ID: "a", LikeCount: 9}}}
	router := newBoardRouter(srv)

	rec, envelope := doRequest(router, http.MethodGet, "/board/ranking?limit=5", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 5, srv.lastLimit)
	assert.Equal(t, false, envelope.Meta["cache_hit"])

	rec, _ = doRequest(router, http.MethodGet, "/board/ranking?limit=-1", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = doRequest(router, http.MethodGet, "/board/ranking", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 0, srv.lastLimit)
}

func TestBoardHandlerMap(t *testing.T) {
	srv := &fakeBoardSrv{view: &dto.MapResponse{
		Center:  dto.MapCenter{Latitude: 37.5665, Longitude: 126.978, Zoom: 12},
		Markers: []dto.MapMarker{{ID: "a", Latitude: 37.5, Longitude: 127}},
	}}
	rec, envelope := doRequest(newBoardRouter(srv), http.MethodGet, "/board/map", "")

	require.Equal(t, http.StatusOK, rec.Code)
	var view dto.MapResponse
	require.NoError(t, json.Unmarshal(envelope.Data, &view))
	assert.Equal(t, 12, view.Center.Zoom)
	assert.Len(t, view.Markers, 1)
}

func TestBoardHandlerStoreFailure(t *testing.T) {
	srv := &fakeBoardSrv{err: appErrors.Wrap(errors.New("connection refused"), appErrors.ErrStoreUnavailable.Code, appErrors.ErrStoreUnavailable.Status, "failed to load complaints")}
	rec, envelope := doRequest(newBoardRouter(srv), http.MethodGet, "/board/map", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, appErrors.ErrStoreUnavailable.Code, envelope.Error.Code)
}
