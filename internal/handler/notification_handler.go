package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/attendsmart-api/internal/models"
	"github.com/noah-isme/attendsmart-api/internal/service"
	"github.com/noah-isme/attendsmart-api/pkg/response"
)

type notificationSettingsService interface {
	Get(ctx context.Context, userID string) (*models.NotificationSetting, error)
	Update(ctx context.Context, userID string, req service.UpdateNotificationSettingsRequest) (*models.NotificationSetting, error)
}

// NotificationHandler serves per-user reminder channel settings.
type NotificationHandler struct {
	service notificationSettingsService
}

// NewNotificationHandler constructs the handler.
func NewNotificationHandler(svc notificationSettingsService) *NotificationHandler {
	return &NotificationHandler{service: svc}
}

// GetSettings godoc
// @Summary Get reminder channels
// @Tags Notifications
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /notifications/settings [get]
func (h *NotificationHandler) GetSettings(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	settings, err := h.service.Get(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, settings)
}

// UpdateSettings godoc
// @Summary Update reminder channels
// @Tags Notifications
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body service.UpdateNotificationSettingsRequest true "Settings"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /notifications/settings [put]
func (h *NotificationHandler) UpdateSettings(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	var req service.UpdateNotificationSettingsRequest
	if !bindJSON(c, &req, "invalid notification settings") {
		return
	}
	settings, err := h.service.Update(c.Request.Context(), userID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, settings)
}
