package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/attendsmart-api/internal/models"
	"github.com/noah-isme/attendsmart-api/internal/service"
	"github.com/noah-isme/attendsmart-api/pkg/response"
)

type semesterService interface {
	Get(ctx context.Context, userID string) (*models.Semester, error)
	Update(ctx context.Context, userID string, req service.UpdateSemesterRequest) (*models.Semester, error)
}

// SemesterHandler serves the semester date range.
type SemesterHandler struct {
	service semesterService
}

// NewSemesterHandler constructs the handler.
func NewSemesterHandler(svc semesterService) *SemesterHandler {
	return &SemesterHandler{service: svc}
}

// Get godoc
// @Summary Get semester dates
// @Tags Semester
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Failure 412 {object} response.Envelope
// @Router /semester [get]
func (h *SemesterHandler) Get(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	semester, err := h.service.Get(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, semester)
}

// Update godoc
// @Summary Set semester dates
// @Tags Semester
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body service.UpdateSemesterRequest true "Semester bounds"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /semester [put]
func (h *SemesterHandler) Update(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	var req service.UpdateSemesterRequest
	if !bindJSON(c, &req, "invalid semester payload") {
		return
	}
	semester, err := h.service.Update(c.Request.Context(), userID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, semester)
}
