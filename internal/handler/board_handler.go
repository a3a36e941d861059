package handler

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/minwon-api/internal/dto"
	"github.com/noah-isme/minwon-api/internal/middleware"
	appErrors "github.com/noah-isme/minwon-api/pkg/errors"
	"github.com/noah-isme/minwon-api/pkg/response"
)

type boardService interface {
	Statistics(ctx context.Context) (*dto.StatisticsResponse, bool, error)
	Ranking(ctx context.Context, limit int) ([]dto.RankingEntry, bool, error)
	Map(ctx context.Context) (*dto.MapResponse, bool, error)
}

// BoardHandler serves the aggregate views computed over all complaints.
type BoardHandler struct {
	service boardService
}

// NewBoardHandler constructs the handler.
func NewBoardHandler(svc boardService) *BoardHandler {
	return &BoardHandler{service: svc}
}

// Statistics godoc
// @Summary Complaint statistics
// @Description Counts by category, date and status.
// @Tags Board
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /board/statistics [get]
func (h *BoardHandler) Statistics(c *gin.Context) {
	stats, cacheHit, err := h.service.Statistics(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, cacheHit)
	response.JSON(c, http.StatusOK, stats, nil, responseMeta(c))
}

// Ranking godoc
// @Summary Like ranking
// @Description Complaints ordered by like count. Ties keep filing order.
// @Tags Board
// @Produce json
// @Param limit query int false "Number of entries (default 10, max 100)"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /board/ranking [get]
func (h *BoardHandler) Ranking(c *gin.Context) {
	limit := 0
	if raw := strings.TrimSpace(c.Query("limit")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "limit must be a non-negative integer"))
			return
		}
		limit = parsed
	}
	ranking, cacheHit, err := h.service.Ranking(c.Request.Context(), limit)
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, cacheHit)
	response.JSON(c, http.StatusOK, ranking, nil, responseMeta(c))
}

// Map godoc
// @Summary Complaint map
// @Description Initial viewport and one marker per complaint with coordinates.
// @Tags Board
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /board/map [get]
func (h *BoardHandler) Map(c *gin.Context) {
	view, cacheHit, err := h.service.Map(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, cacheHit)
	response.JSON(c, http.StatusOK, view, nil, responseMeta(c))
}
