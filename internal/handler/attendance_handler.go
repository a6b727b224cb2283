package handler

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/attendsmart-api/internal/dto"
	"github.com/noah-isme/attendsmart-api/internal/models"
	"github.com/noah-isme/attendsmart-api/internal/service"
	appErrors "github.com/noah-isme/attendsmart-api/pkg/errors"
	"github.com/noah-isme/attendsmart-api/pkg/response"
)

type attendanceService interface {
	CalculateAttendance(ctx context.Context, userID string) (*models.AttendanceStats, error)
	PredictRisk(ctx context.Context, userID string, minimumRequired float64) (*models.RiskPrediction, error)
	Occurrences(ctx context.Context, userID string, query dto.OccurrenceQuery) ([]dto.OccurrenceItem, error)
	Today(ctx context.Context, userID string) (*dto.TodayAttendance, error)
	Mark(ctx context.Context, userID string, req service.MarkAttendanceRequest) (*models.AttendanceMark, error)
	Report(ctx context.Context, userID string) (*models.AttendanceReport, error)
}

type reportExporter interface {
	Export(ctx context.Context, userID string, format models.ReportFormat) (*service.ExportResult, error)
}

// AttendanceHandler serves marking, summaries, risk and reports.
type AttendanceHandler struct {
	attendance attendanceService
	exports    reportExporter
}

// NewAttendanceHandler constructs the handler.
func NewAttendanceHandler(attendance attendanceService, exports reportExporter) *AttendanceHandler {
	return &AttendanceHandler{attendance: attendance, exports: exports}
}

// Today godoc
// @Summary Today's lectures with their marks
// @Description On a national or personal holiday the holiday is returned instead of lectures.
// @Tags Attendance
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /attendance/today [get]
func (h *AttendanceHandler) Today(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	today, err := h.attendance.Today(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, today)
}

// Mark godoc
// @Summary Mark a lecture
// @Tags Attendance
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body service.MarkAttendanceRequest true "Mark"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /attendance/mark [post]
func (h *AttendanceHandler) Mark(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	var req service.MarkAttendanceRequest
	if !bindJSON(c, &req, "invalid attendance payload") {
		return
	}
	mark, err := h.attendance.Mark(c.Request.Context(), userID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, mark)
}

// Summary godoc
// @Summary Attendance so far
// @Tags Attendance
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Failure 412 {object} response.Envelope
// @Router /attendance/summary [get]
func (h *AttendanceHandler) Summary(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	stats, err := h.attendance.CalculateAttendance(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, stats)
}

// Risk godoc
// @Summary Project attendance to the semester end
// @Tags Attendance
// @Produce json
// @Security BearerAuth
// @Param minimum_required query number false "Minimum percentage in (0, 100]; omit to use the configured default (75)"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 412 {object} response.Envelope
// @Router /attendance/risk [get]
func (h *AttendanceHandler) Risk(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	var minimum float64
	if raw := strings.TrimSpace(c.Query("minimum_required")); raw != "" {
		parsed, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "minimum_required must be a number"))
			return
		}
		if parsed <= 0 || parsed > 100 {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "minimum_required must be greater than 0 and at most 100"))
			return
		}
		minimum = parsed
	}
	prediction, err := h.attendance.PredictRisk(c.Request.Context(), userID, minimum)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, prediction)
}

// Occurrences godoc
// @Summary Dated lecture occurrences with their status (present, absent, unmarked, off, holiday)
// @Tags Attendance
// @Produce json
// @Security BearerAuth
// @Param from query string false "YYYY-MM-DD, defaults to and is clamped to semester start"
// @Param to query string false "YYYY-MM-DD, defaults to and is clamped to semester end"
// @Success 200 {object} response.Envelope
// @Router /attendance/occurrences [get]
func (h *AttendanceHandler) Occurrences(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	var query dto.OccurrenceQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid query"))
		return
	}
	items, err := h.attendance.Occurrences(c.Request.Context(), userID, query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, nil, map[string]interface{}{"count": len(items)})
}

// Report godoc
// @Summary Download the attendance report
// @Tags Attendance
// @Produce json
// @Produce text/csv
// @Produce application/pdf
// @Security BearerAuth
// @Param format query string false "json, csv, pdf or xlsx (default csv)"
// @Success 200 {file} file
// @Failure 400 {object} response.Envelope
// @Router /attendance/report [get]
func (h *AttendanceHandler) Report(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	raw := c.Query("format")
	if strings.EqualFold(strings.TrimSpace(raw), "json") {
		report, err := h.attendance.Report(c.Request.Context(), userID)
		if err != nil {
			response.Error(c, err)
			return
		}
		response.OK(c, report)
		return
	}

	format, valid := models.ParseReportFormat(raw)
	if !valid {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "format must be one of json, csv, pdf, xlsx"))
		return
	}
	file, err := h.exports.Export(c.Request.Context(), userID, format)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, file.Filename, file.ContentType, file.Payload)
}
