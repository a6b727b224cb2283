package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/attendsmart-api/internal/models"
	appErrors "github.com/noah-isme/attendsmart-api/pkg/errors"
)

type semesterRepository interface {
	FindByUser(ctx context.Context, userID string) (*models.Semester, error)
	Upsert(ctx context.Context, semester *models.Semester) error
}

// SemesterService manages the semester bounds of each user.
type SemesterService struct {
	repo      semesterRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewSemesterService constructs the service.
func NewSemesterService(repo semesterRepository, validate *validator.Validate, logger *zap.Logger) *SemesterService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	registerValidations(validate)
	return &SemesterService{repo: repo, validator: validate, logger: logger}
}

// UpdateSemesterRequest sets both semester bounds.
type UpdateSemesterRequest struct {
	SemesterStart string `json:"semester_start" validate:"required,ymd"`
	SemesterEnd   string `json:"semester_end" validate:"required,ymd"`
}

// Get returns the user's semester or SEMESTER_NOT_SET.
func (s *SemesterService) Get(ctx context.Context, userID string) (*models.Semester, error) {
	semester, err := s.repo.FindByUser(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrMissingSemester, "")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load semester")
	}
	return semester, nil
}

// Update replaces the user's semester bounds.
func (s *SemesterService) Update(ctx context.Context, userID string, req UpdateSemesterRequest) (*models.Semester, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payload")
	}
	start, _ := time.Parse(dateLayout, strings.TrimSpace(req.SemesterStart))
	end, _ := time.Parse(dateLayout, strings.TrimSpace(req.SemesterEnd))
	if end.Before(start) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "semester_end must be on or after semester_start")
	}

	semester := &models.Semester{
		UserID:        userID,
		SemesterStart: formatDate(start),
		SemesterEnd:   formatDate(end),
		UpdatedAt:     time.Now().UTC(),
	}
	if err := s.repo.Upsert(ctx, semester); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save semester")
	}
	s.logger.Info("semester updated", zap.String("user_id", userID), zap.String("start", semester.SemesterStart), zap.String("end", semester.SemesterEnd))
	return semester, nil
}
