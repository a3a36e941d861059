package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/minwon-api/internal/service"
)

type pingerStub struct {
	err error
}

func (p pingerStub) Ping(context.Context) error {
	return p.err
}

func serveRequest(router http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func newMetricsRouter(h *MetricsHandler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/health", h.Health)
	router.GET("/ready", h.Ready)
	router.GET("/metrics", h.Prometheus)
	router.GET("/metrics/summary", h.Summary)
	return router
}

func TestMetricsHandlerReady(t *testing.T) {
	rec, _ := doRequest(newMetricsRouter(NewMetricsHandler(nil, pingerStub{}, true)), http.MethodGet, "/ready", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, _ = doRequest(newMetricsRouter(NewMetricsHandler(nil, pingerStub{err: errors.New("down")}, true)), http.MethodGet, "/ready", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	rec, _ = doRequest(newMetricsRouter(NewMetricsHandler(nil, nil, false)), http.MethodGet, "/ready", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"persistence":"unavailable"`)
}

func TestMetricsHandlerExposesCollectors(t *testing.T) {
	metrics := service.NewMetricsService()
	metrics.ObserveHTTPRequest(http.MethodGet, "/complaints", http.StatusOK, 10*time.Millisecond)
	router := newMetricsRouter(NewMetricsHandler(metrics, nil, false))

	rec, _ := doRequest(router, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "http_requests_total"))

	rec, envelope := doRequest(router, http.MethodGet, "/metrics/summary", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, string(envelope.Data), `"requests_total":1`)

	rec, _ = doRequest(newMetricsRouter(NewMetricsHandler(nil, nil, false)), http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
