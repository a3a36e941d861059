package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/minwon-api/internal/service"
	appErrors "github.com/noah-isme/minwon-api/pkg/errors"
	"github.com/noah-isme/minwon-api/pkg/geocode"
	"github.com/noah-isme/minwon-api/pkg/response"
)

type backfillService interface {
	BackfillAddresses(ctx context.Context) (*service.BackfillResult, error)
}

// BackfillHandler lets staff re-run reverse geocoding for unresolved addresses.
type BackfillHandler struct {
	service backfillService
}

// NewBackfillHandler constructs the handler.
func NewBackfillHandler(svc backfillService) *BackfillHandler {
	return &BackfillHandler{service: svc}
}

// Addresses godoc
// @Summary Backfill complaint addresses
// @Description Re-geocodes complaints whose address could not be resolved when they were filed. Staff only.
// @Tags Complaints
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Failure 503 {object} response.Envelope
// @Router /admin/backfill-addresses [post]
func (h *BackfillHandler) Addresses(c *gin.Context) {
	result, err := h.service.BackfillAddresses(c.Request.Context())
	if err != nil {
		if errors.Is(err, geocode.ErrNotConfigured) {
			response.Error(c, appErrors.New("GEOCODER_UNAVAILABLE", http.StatusServiceUnavailable, "geocoder is not configured"))
			return
		}
		response.Error(c, appErrors.Wrap(err, appErrors.ErrStoreUnavailable.Code, appErrors.ErrStoreUnavailable.Status, "address backfill failed"))
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}
