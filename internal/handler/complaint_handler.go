package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/minwon-api/internal/dto"
	"github.com/noah-isme/minwon-api/internal/models"
	"github.com/noah-isme/minwon-api/internal/service"
	appErrors "github.com/noah-isme/minwon-api/pkg/errors"
	"github.com/noah-isme/minwon-api/pkg/response"
)

type complaintService interface {
	Submit(ctx context.Context, req dto.SubmitComplaintRequest) (*models.Complaint, error)
	List(ctx context.Context, filter dto.ComplaintListFilter) (*service.ComplaintList, error)
	Get(ctx context.Context, id string) (*models.Complaint, error)
	Like(ctx context.Context, id string) (int, error)
	Resolve(ctx context.Context, id string) error
}

// ComplaintHandler exposes complaint submission and the board's row actions.
type ComplaintHandler struct {
	service complaintService
}

// NewComplaintHandler constructs the handler.
func NewComplaintHandler(svc complaintService) *ComplaintHandler {
	return &ComplaintHandler{service: svc}
}

// Submit godoc
// @Summary File a complaint
// @Description Files a complaint at a map location. The address is reverse geocoded when omitted.
// @Tags Complaints
// @Accept json
// @Produce json
// @Param payload body dto.SubmitComplaintRequest true "Complaint payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 503 {object} response.Envelope
// @Router /complaints [post]
func (h *ComplaintHandler) Submit(c *gin.Context) {
	var req dto.SubmitComplaintRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid complaint payload"))
		return
	}

	complaint, err := h.service.Submit(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, dto.NewComplaintResponse(*complaint), metaOrNil(responseMeta(c)))
}

// List godoc
// @Summary List complaints
// @Description Reloads every complaint in filing order. Rows that could not be read are reported in meta.warnings.
// @Tags Complaints
// @Produce json
// @Param category query string false "Category"
// @Param status query string false "Status (미해결 or 해결)"
// @Param page query int false "Page"
// @Param page_size query int false "Page size"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 503 {object} response.Envelope
// @Router /complaints [get]
func (h *ComplaintHandler) List(c *gin.Context) {
	var filter dto.ComplaintListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid query parameters"))
		return
	}

	list, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}

	meta := responseMeta(c)
	if len(list.Warnings) > 0 {
		meta["warnings"] = list.Warnings
	}
	response.JSON(c, http.StatusOK, dto.NewComplaintResponses(list.Items), list.Pagination, metaOrNil(meta))
}

// Get godoc
// @Summary Get complaint
// @Tags Complaints
// @Produce json
// @Param id path string true "Complaint ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /complaints/{id} [get]
func (h *ComplaintHandler) Get(c *gin.Context) {
	id, ok := complaintID(c)
	if !ok {
		return
	}
	complaint, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, dto.NewComplaintResponse(*complaint), nil, metaOrNil(responseMeta(c)))
}

// Like godoc
// @Summary Like a complaint
// @Description Adds one to the complaint's like count.
// @Tags Complaints
// @Produce json
// @Param id path string true "Complaint ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /complaints/{id}/like [post]
func (h *ComplaintHandler) Like(c *gin.Context) {
	id, ok := complaintID(c)
	if !ok {
		return
	}
	count, err := h.service.Like(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, dto.LikeResponse{ID: id, LikeCount: count}, nil, metaOrNil(responseMeta(c)))
}

// Resolve godoc
// @Summary Resolve a complaint
// @Description Marks the complaint as resolved. Staff only.
// @Tags Complaints
// @Produce json
// @Security BearerAuth
// @Param id path string true "Complaint ID"
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /complaints/{id}/resolve [patch]
func (h *ComplaintHandler) Resolve(c *gin.Context) {
	id, ok := complaintID(c)
	if !ok {
		return
	}
	if err := h.service.Resolve(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, dto.ResolveResponse{ID: id, Status: models.StatusResolved}, nil, metaOrNil(responseMeta(c)))
}
