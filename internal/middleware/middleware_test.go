package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/noah-isme/minwon-api/internal/models"
	appErrors "github.com/noah-isme/minwon-api/pkg/errors"
)

type validatorStub struct {
	claims *models.JWTClaims
}

func (v validatorStub) ValidateToken(token string) (*models.JWTClaims, error) {
	if token != "good" {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid token")
	}
	return v.claims, nil
}

func init() {
	gin.SetMode(gin.TestMode)
}

func adminClaims() *models.JWTClaims {
	claims := &models.JWTClaims{UserID: "admin", Role: models.RoleAdmin}
	claims.Subject = "admin"
	return claims
}

func serve(router *gin.Engine, method, path, auth string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestJWTRequiresBearerToken(t *testing.T) {
	router := gin.New()
	router.GET("/", JWT(validatorStub{claims: adminClaims()}), func(c *gin.Context) {
		claims, ok := ClaimsFromContext(c)
		require.True(t, ok)
		c.String(http.StatusOK, claims.Subject)
	})

	assert.Equal(t, http.StatusUnauthorized, serve(router, http.MethodGet, "/", "").Code)
	assert.Equal(t, http.StatusUnauthorized, serve(router, http.MethodGet, "/", "Basic abc").Code)
	assert.Equal(t, http.StatusUnauthorized, serve(router, http.MethodGet, "/", "Bearer bad").Code)

	rec := serve(router, http.MethodGet, "/", "Bearer good")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "admin", rec.Body.String())
}

func TestOptionalJWTNeverBlocks(t *testing.T) {
	router := gin.New()
	router.GET("/", OptionalJWT(validatorStub{claims: adminClaims()}), func(c *gin.Context) {
		_, ok := ClaimsFromContext(c)
		c.JSON(http.StatusOK, gin.H{"authenticated": ok})
	})

	assert.JSONEq(t, `{"authenticated":false}`, serve(router, http.MethodGet, "/", "Bearer bad").Body.String())
	assert.JSONEq(t, `{"authenticated":true}`, serve(router, http.MethodGet, "/", "Bearer good").Body.String())
}

func TestRequireRoles(t *testing.T) {
	other := &models.JWTClaims{Role: models.UserRole("VIEWER")}
	for _, tc := range []struct {
		name   string
		claims *models.JWTClaims
		want   int
	}{
		{"no claims", nil, http.StatusUnauthorized},
		{"wrong role", other, http.StatusForbidden},
		{"admin", adminClaims(), http.StatusNoContent},
	} {
		t.Run(tc.name, func(t *testing.T) {
			router := gin.New()
			router.POST("/", func(c *gin.Context) {
				if tc.claims != nil {
					c.Set(ContextUserKey, tc.claims)
				}
			}, RequireRoles(models.RoleAdmin), func(c *gin.Context) {
				c.Status(http.StatusNoContent)
			})
			assert.Equal(t, tc.want, serve(router, http.MethodPost, "/", "").Code)
		})
	}
}

type observerStub struct {
	method, path string
	status       int
}

func (o *observerStub) ObserveHTTPRequest(method, path string, status int, _ time.Duration) {
	o.method, o.path, o.status = method, path, status
}

func TestMetricsReportsRoutePattern(t *testing.T) {
	obs := &observerStub{}
	router := gin.New()
	router.Use(Metrics(obs))
	router.GET("/complaints/:id", func(c *gin.Context) { c.Status(http.StatusAccepted) })

	serve(router, http.MethodGet, "/complaints/abc", "")
	assert.Equal(t, "/complaints/:id", obs.path)
	assert.Equal(t, http.StatusAccepted, obs.status)

	serve(router, http.MethodGet, "/missing", "")
	assert.Equal(t, "/missing", obs.path)
	assert.Equal(t, http.StatusNotFound, obs.status)
}

func TestResponseMetaAndPersistence(t *testing.T) {
	router := gin.New()
	router.Use(WithResponseMeta(), Persistence(false))
	router.GET("/", func(c *gin.Context) {
		SetCacheHit(c, true)
		c.JSON(http.StatusOK, ExtractMeta(c))
	})

	var meta map[string]interface{}
	require.NoError(t, json.Unmarshal(serve(router, http.MethodGet, "/", "").Body.Bytes(), &meta))
	assert.Equal(t, PersistenceUnavailable, meta["persistence"])
	assert.Equal(t, true, meta["cache_hit"])
}

func TestExtractMetaEmpty(t *testing.T) {
	router := gin.New()
	router.Use(WithResponseMeta(), Persistence(true))
	router.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"nil": ExtractMeta(c) == nil})
	})
	assert.JSONEq(t, `{"nil":true}`, serve(router, http.MethodGet, "/", "").Body.String())
}

func TestAuditLogsSuccessfulActions(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	router := gin.New()
	router.PATCH("/complaints/:id/resolve", func(c *gin.Context) {
		c.Set(ContextUserKey, adminClaims())
	}, Audit(zap.New(core), "complaint.resolve"), func(c *gin.Context) {
		if c.Param("id") == "missing" {
			c.Status(http.StatusNotFound)
			return
		}
		c.Status(http.StatusOK)
	})

	serve(router, http.MethodPatch, "/complaints/c-1/resolve", "")
	serve(router, http.MethodPatch, "/complaints/missing/resolve", "")

	entries := logs.All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "complaint.resolve", fields["action"])
	assert.Equal(t, "admin", fields["actor"])
	assert.Equal(t, "c-1", fields["resource_id"])
}
