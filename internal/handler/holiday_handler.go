package handler

import (
	"bytes"
	"context"
	"io"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/attendsmart-api/internal/dto"
	"github.com/noah-isme/attendsmart-api/internal/models"
	"github.com/noah-isme/attendsmart-api/internal/service"
	appErrors "github.com/noah-isme/attendsmart-api/pkg/errors"
	"github.com/noah-isme/attendsmart-api/pkg/response"
)

const maxCalendarUpload = 2 << 20

type holidayService interface {
	ListPersonal(ctx context.Context, userID string) ([]models.UserHoliday, error)
	CreatePersonal(ctx context.Context, userID string, req service.UserHolidayRequest) (*models.UserHoliday, error)
	UpdatePersonal(ctx context.Context, userID, id string, req service.UserHolidayRequest) (*models.UserHoliday, error)
	DeletePersonal(ctx context.Context, userID, id string) error
	ListNational(ctx context.Context) ([]models.NationalHoliday, error)
	CreateNational(ctx context.Context, req service.NationalHolidayRequest) (*models.NationalHoliday, error)
	ImportNational(ctx context.Context, feed io.Reader) (*dto.HolidayImportResult, error)
	ImportNationalFromURL(ctx context.Context, rawURL string) (*dto.HolidayImportResult, error)
}

// importCalendarRequest points the importer at a remote iCalendar feed.
type importCalendarRequest struct {
	URL string `json:"url" binding:"required"`
}

// HolidayHandler serves personal and national holidays.
type HolidayHandler struct {
	service holidayService
}

// NewHolidayHandler constructs the handler.
func NewHolidayHandler(svc holidayService) *HolidayHandler {
	return &HolidayHandler{service: svc}
}

// List godoc
// @Summary List personal holidays
// @Tags Holidays
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /holidays [get]
func (h *HolidayHandler) List(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	holidays, err := h.service.ListPersonal(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, holidays)
}

// Create godoc
// @Summary Add a personal holiday range
// @Tags Holidays
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body service.UserHolidayRequest true "Holiday"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /holidays [post]
func (h *HolidayHandler) Create(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	var req service.UserHolidayRequest
	if !bindJSON(c, &req, "invalid holiday payload") {
		return
	}
	holiday, err := h.service.CreatePersonal(c.Request.Context(), userID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, holiday)
}

// Update godoc
// @Summary Replace a personal holiday range
// @Tags Holidays
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Holiday ID"
// @Param payload body service.UserHolidayRequest true "Holiday"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /holidays/{id} [put]
func (h *HolidayHandler) Update(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	var req service.UserHolidayRequest
	if !bindJSON(c, &req, "invalid holiday payload") {
		return
	}
	holiday, err := h.service.UpdatePersonal(c.Request.Context(), userID, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, holiday)
}

// Delete godoc
// @Summary Delete a personal holiday range
// @Tags Holidays
// @Security BearerAuth
// @Param id path string true "Holiday ID"
// @Success 204
// @Router /holidays/{id} [delete]
func (h *HolidayHandler) Delete(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	if err := h.service.DeletePersonal(c.Request.Context(), userID, c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// ListNational godoc
// @Summary List national holidays
// @Tags Holidays
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /holidays/national [get]
func (h *HolidayHandler) ListNational(c *gin.Context) {
	holidays, err := h.service.ListNational(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, holidays)
}

// CreateNational godoc
// @Summary Add a national holiday
// @Tags Holidays
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body service.NationalHolidayRequest true "Holiday"
// @Success 201 {object} response.Envelope
// @Router /holidays/national [post]
func (h *HolidayHandler) CreateNational(c *gin.Context) {
	var req service.NationalHolidayRequest
	if !bindJSON(c, &req, "invalid holiday payload") {
		return
	}
	holiday, err := h.service.CreateNational(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, holiday)
}

// ImportNational godoc
// @Summary Import national holidays from iCalendar
// @Description Accepts a text/calendar body, or JSON {"url": "..."} pointing at a feed.
// @Tags Holidays
// @Accept plain
// @Accept json
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /holidays/national/import [post]
func (h *HolidayHandler) ImportNational(c *gin.Context) {
	if strings.HasPrefix(c.ContentType(), "application/json") {
		var req importCalendarRequest
		if !bindJSON(c, &req, "url is required") {
			return
		}
		result, err := h.service.ImportNationalFromURL(c.Request.Context(), req.URL)
		if err != nil {
			response.Error(c, err)
			return
		}
		response.OK(c, result)
		return
	}

	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxCalendarUpload+1))
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "failed to read calendar"))
		return
	}
	if len(body) == 0 {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "calendar body is empty"))
		return
	}
	if len(body) > maxCalendarUpload {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "calendar exceeds 2MB"))
		return
	}
	result, err := h.service.ImportNational(c.Request.Context(), bytes.NewReader(body))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, result)
}
