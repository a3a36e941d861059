package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/minwon-api/internal/dto"
	appErrors "github.com/noah-isme/minwon-api/pkg/errors"
	"github.com/noah-isme/minwon-api/pkg/response"
)

type locationService interface {
	Lookup(ctx context.Context, req dto.AddressLookupRequest) (*dto.AddressResponse, error)
}

// LocationHandler resolves map clicks to addresses before a complaint is filed.
type LocationHandler struct {
	service locationService
}

// NewLocationHandler constructs the handler.
func NewLocationHandler(svc locationService) *LocationHandler {
	return &LocationHandler{service: svc}
}

// Address godoc
// @Summary Reverse geocode a map click
// @Description Always answers 200 for valid coordinates; resolved is false when no address was found.
// @Tags Location
// @Produce json
// @Param lat query number true "Latitude"
// @Param lng query number true "Longitude"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /location/address [get]
func (h *LocationHandler) Address(c *gin.Context) {
	var req dto.AddressLookupRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "lat and lng must be numbers"))
		return
	}
	resp, err := h.service.Lookup(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, resp, nil)
}
