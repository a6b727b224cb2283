package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/attendsmart-api/internal/models"
)

// SemesterRepository stores one semester range per user.
type SemesterRepository struct {
	db *sqlx.DB
}

// NewSemesterRepository constructs the repository.
func NewSemesterRepository(db *sqlx.DB) *SemesterRepository {
	return &SemesterRepository{db: db}
}

// FindByUser returns sql.ErrNoRows when the user never configured a semester.
func (r *SemesterRepository) FindByUser(ctx context.Context, userID string) (*models.Semester, error) {
	const query = `SELECT user_id, semester_start, semester_end, updated_at FROM semesters WHERE user_id = $1`
	var semester models.Semester
	if err := r.db.GetContext(ctx, &semester, query, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find semester: %w", err)
	}
	return &semester, nil
}

// Upsert replaces the user's semester range.
func (r *SemesterRepository) Upsert(ctx context.Context, semester *models.Semester) error {
	if semester.UpdatedAt.IsZero() {
		semester.UpdatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO semesters (user_id, semester_start, semester_end, updated_at)
VALUES (:user_id, :semester_start, :semester_end, :updated_at)
ON CONFLICT (user_id) DO UPDATE SET semester_start = EXCLUDED.semester_start, semester_end = EXCLUDED.semester_end, updated_at = EXCLUDED.updated_at`
	if _, err := r.db.NamedExecContext(ctx, query, semester); err != nil {
		return fmt.Errorf("upsert semester: %w", err)
	}
	return nil
}
