package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/attendsmart-api/internal/dto"
	"github.com/noah-isme/attendsmart-api/internal/models"
	"github.com/noah-isme/attendsmart-api/internal/service"
	"github.com/noah-isme/attendsmart-api/pkg/response"
)

type timetableService interface {
	List(ctx context.Context, userID string) ([]models.TimetableSlot, error)
	Create(ctx context.Context, userID string, req service.TimetableSlotRequest) (*models.TimetableSlot, error)
	Update(ctx context.Context, userID, id string, req service.TimetableSlotRequest) (*models.TimetableSlot, error)
	Delete(ctx context.Context, userID, id string) error
	Tomorrow(ctx context.Context, userID string) (*dto.TomorrowTimetable, error)
}

// TimetableHandler manages weekly lecture slots.
type TimetableHandler struct {
	service timetableService
}

// NewTimetableHandler constructs the handler.
func NewTimetableHandler(svc timetableService) *TimetableHandler {
	return &TimetableHandler{service: svc}
}

// List godoc
// @Summary List timetable slots
// @Tags Timetable
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /timetable [get]
func (h *TimetableHandler) List(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	slots, err := h.service.List(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, slots)
}

// Create godoc
// @Summary Add a weekly slot
// @Tags Timetable
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body service.TimetableSlotRequest true "Slot"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /timetable [post]
func (h *TimetableHandler) Create(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	var req service.TimetableSlotRequest
	if !bindJSON(c, &req, "invalid timetable payload") {
		return
	}
	slot, err := h.service.Create(c.Request.Context(), userID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, slot)
}

// Update godoc
// @Summary Replace a weekly slot
// @Tags Timetable
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Slot ID"
// @Param payload body service.TimetableSlotRequest true "Slot"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /timetable/{id} [put]
func (h *TimetableHandler) Update(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	var req service.TimetableSlotRequest
	if !bindJSON(c, &req, "invalid timetable payload") {
		return
	}
	slot, err := h.service.Update(c.Request.Context(), userID, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, slot)
}

// Delete godoc
// @Summary Delete a weekly slot
// @Tags Timetable
// @Security BearerAuth
// @Param id path string true "Slot ID"
// @Success 204
// @Failure 404 {object} response.Envelope
// @Router /timetable/{id} [delete]
func (h *TimetableHandler) Delete(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	if err := h.service.Delete(c.Request.Context(), userID, c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Tomorrow godoc
// @Summary Tomorrow's lectures
// @Tags Timetable
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /timetable/tomorrow [get]
func (h *TimetableHandler) Tomorrow(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	result, err := h.service.Tomorrow(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, result)
}
