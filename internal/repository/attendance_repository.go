package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/attendsmart-api/internal/models"
	appErrors "github.com/noah-isme/attendsmart-api/pkg/errors"
)

const (
	markColumns         = `id, user_id, date, day, subject, start_time, end_time, status, recorded_at`
	pqUniqueViolation   = "23505"
	duplicateMarkReason = "attendance already marked for this lecture"
)

// AttendanceRepository persists attendance marks.
type AttendanceRepository struct {
	db *sqlx.DB
}

// NewAttendanceRepository constructs the repository.
func NewAttendanceRepository(db *sqlx.DB) *AttendanceRepository {
	return &AttendanceRepository{db: db}
}

// ListByUser returns every mark of a user in recording order.
func (r *AttendanceRepository) ListByUser(ctx context.Context, userID string) ([]models.AttendanceMark, error) {
	const query = `SELECT ` + markColumns + ` FROM attendance_marks WHERE user_id = $1 ORDER BY recorded_at, id`
	var marks []models.AttendanceMark
	if err := r.db.SelectContext(ctx, &marks, query, userID); err != nil {
		return nil, fmt.Errorf("list attendance marks: %w", err)
	}
	return marks, nil
}

// ListByDate returns marks of every user for one calendar date.
func (r *AttendanceRepository) ListByDate(ctx context.Context, date string) ([]models.AttendanceMark, error) {
	const query = `SELECT ` + markColumns + ` FROM attendance_marks WHERE date = $1 ORDER BY recorded_at, id`
	var marks []models.AttendanceMark
	if err := r.db.SelectContext(ctx, &marks, query, date); err != nil {
		return nil, fmt.Errorf("list attendance marks by date: %w", err)
	}
	return marks, nil
}

// FindOne returns the mark for a lecture occurrence or sql.ErrNoRows.
func (r *AttendanceRepository) FindOne(ctx context.Context, userID, date, subject, startTime string) (*models.AttendanceMark, error) {
	const query = `SELECT ` + markColumns + ` FROM attendance_marks
WHERE user_id = $1 AND date = $2 AND subject = $3 AND start_time = $4
ORDER BY recorded_at LIMIT 1`
	var mark models.AttendanceMark
	if err := r.db.GetContext(ctx, &mark, query, userID, date, subject, startTime); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find attendance mark: %w", err)
	}
	return &mark, nil
}

// Create inserts a mark. A concurrent duplicate surfaces as a conflict.
func (r *AttendanceRepository) Create(ctx context.Context, mark *models.AttendanceMark) error {
	if mark.ID == "" {
		mark.ID = uuid.NewString()
	}
	if mark.RecordedAt.IsZero() {
		mark.RecordedAt = time.Now().UTC()
	}
	const query = `INSERT INTO attendance_marks (id, user_id, date, day, subject, start_time, end_time, status, recorded_at)
VALUES (:id, :user_id, :date, :day, :subject, :start_time, :end_time, :status, :recorded_at)`
	if _, err := r.db.NamedExecContext(ctx, query, mark); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && string(pqErr.Code) == pqUniqueViolation {
			return appErrors.Wrap(err, appErrors.ErrConflict.Code, appErrors.ErrConflict.Status, duplicateMarkReason)
		}
		return fmt.Errorf("create attendance mark: %w", err)
	}
	return nil
}
