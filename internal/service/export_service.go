package service

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/noah-isme/attendsmart-api/internal/models"
	appErrors "github.com/noah-isme/attendsmart-api/pkg/errors"
	"github.com/noah-isme/attendsmart-api/pkg/export"
)

type reportSource interface {
	Report(ctx context.Context, userID string) (*models.AttendanceReport, error)
}

type datasetRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

// ExportResult is a rendered report ready to be streamed.
type ExportResult struct {
	Filename    string
	ContentType string
	Payload     []byte
}

// ExportService renders attendance reports into downloadable files.
type ExportService struct {
	reports   reportSource
	renderers map[models.ReportFormat]datasetRenderer
	logger    *zap.Logger
}

// NewExportService constructs an ExportService with the CSV, PDF and XLSX renderers.
func NewExportService(reports reportSource, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{
		reports: reports,
		renderers: map[models.ReportFormat]datasetRenderer{
			models.ReportFormatCSV:  export.NewCSVExporter(),
			models.ReportFormatPDF:  export.NewPDFExporter(),
			models.ReportFormatXLSX: export.NewXLSXExporter(),
		},
		logger: logger,
	}
}

// Export renders the user's report in the requested format.
func (s *ExportService) Export(ctx context.Context, userID string, format models.ReportFormat) (*ExportResult, error) {
	renderer, ok := s.renderers[format]
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported format %q", format))
	}
	report, err := s.reports.Report(ctx, userID)
	if err != nil {
		return nil, err
	}
	payload, err := renderer.Render(buildReportDataset(report))
	if err != nil {
		s.logger.Error("failed to render attendance report", zap.String("user_id", userID), zap.String("format", string(format)), zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render report")
	}
	return &ExportResult{
		Filename:    fmt.Sprintf("attendance_%s_%s.%s", sanitizeFilename(report.User.Name), report.GeneratedAt.Format("20060102"), format),
		ContentType: format.ContentType(),
		Payload:     payload,
	}, nil
}

func buildReportDataset(report *models.AttendanceReport) export.Dataset {
	rows := make([]map[string]string, 0, len(report.Subjects))
	for _, subject := range report.Subjects {
		rows = append(rows, map[string]string{
			"Subject":        subject.Subject,
			"Present":        fmt.Sprintf("%d", subject.Present),
			"Absent":         fmt.Sprintf("%d", subject.Absent),
			"Unmarked":       fmt.Sprintf("%d", subject.Unmarked),
			"Off":            fmt.Sprintf("%d", subject.Off),
			"Total":          fmt.Sprintf("%d", subject.Total),
			"Attendance (%)": fmt.Sprintf("%.2f", subject.AttendancePct),
		})
	}
	return export.Dataset{
		Title: fmt.Sprintf("Attendance Report - %s", report.User.Name),
		Notes: [][2]string{
			{"Email", report.User.Email},
			{"Semester", fmt.Sprintf("%s to %s", report.Semester.SemesterStart, report.Semester.SemesterEnd)},
			{"Generated", report.GeneratedAt.Format("2006-01-02 15:04 MST")},
			{"Present / Total", fmt.Sprintf("%d / %d", report.Stats.Present, report.Stats.Total)},
			{"Attendance (%)", fmt.Sprintf("%.2f", report.Stats.AttendancePct)},
			{"Projected (%)", fmt.Sprintf("%.2f", report.Risk.ProjectedPct)},
			{"Risk", fmt.Sprintf("%s: %s", report.Risk.Risk, report.Risk.Message)},
		},
		Headers: []string{"Subject", "Present", "Absent", "Unmarked", "Off", "Total", "Attendance (%)"},
		Rows:    rows,
	}
}

func sanitizeFilename(raw string) string {
	if raw == "" {
		return "na"
	}
	replacer := strings.NewReplacer(" ", "_", "/", "-", "\\", "-", ":", "-", "..", ".", "__", "_")
	result := strings.ToLower(replacer.Replace(raw))
	if len(result) > 100 {
		return result[:100]
	}
	return result
}
