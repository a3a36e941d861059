package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/minwon-api/internal/bootstrap"
	"github.com/noah-isme/minwon-api/internal/repository"
	"github.com/noah-isme/minwon-api/internal/service"
	"github.com/noah-isme/minwon-api/pkg/config"
	"github.com/noah-isme/minwon-api/pkg/sheet"
)

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	cfg := &config.Config{Env: config.EnvDevelopment, APIPrefix: "/api/v1"}
	logr := zap.NewNop()
	storage := &bootstrap.Storage{Sheet: sheet.NewMemoryStore(repository.Header())}
	metrics := service.NewMetricsService()
	repo := repository.NewComplaintRepository(storage.Sheet, metrics, logr)
	complaints := service.NewComplaintService(service.ComplaintServiceParams{
		Store:    repo,
		Resolver: service.NewLocationService(nil, metrics, logr),
		Metrics:  metrics,
		Logger:   logr,
	})
	return newRouter(cfg, logr, routeDeps{
		complaints: complaints,
		board:      service.NewBoardService(complaints, nil, config.MapConfig{Zoom: 12}, logr),
		location:   service.NewLocationService(nil, metrics, logr),
		export:     service.NewExportService(complaints, service.ExportConfig{}, logr, nil, nil),
		auth:       service.NewAuthService(nil, logr, service.AuthConfig{AccessTokenSecret: "x", AccessTokenExpiry: time.Hour}),
		backfill:   service.NewBackfillService(repo, nil, nil, metrics, logr, service.BackfillConfig{}),
		metrics:    metrics,
		storage:    storage,
	})
}

func TestRouterComplaintFlowInTransientMode(t *testing.T) {
	router := newTestRouter(t)

	body := `{"title":"쓰레기 무단 투기","content":"골목에 쓰레기가 쌓여 있습니다","latitude":37.5,"longitude":127.0,"category":"환경 문제"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/complaints", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var created struct {
		Data struct {
			ID      string `json:"id"`
			Address string `json:"address"`
		} `json:"data"`
		Meta map[string]interface{} `json:"meta"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.Equal(t, "unavailable", created.Meta["persistence"])
	assert.Equal(t, "주소를 찾을 수 없습니다.", created.Data.Address)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/complaints/"+created.Data.ID+"/like", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/board/ranking", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"like_count":1`)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPatch, "/api/v1/complaints/"+created.Data.ID+"/resolve", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/complaints/export", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Disposition"), ".csv")
}

func TestRouterHealthEndpoints(t *testing.T) {
	router := newTestRouter(t)
	for _, path := range []string{"/health", "/ready", "/metrics"} {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusOK, rec.Code, path)
	}
}
