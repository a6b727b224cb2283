package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/attendsmart-api/internal/models"
)

const userHolidayColumns = `id, user_id, start_date, end_date, title, category, created_at`

// UserHolidayRepository persists personal holiday ranges.
type UserHolidayRepository struct {
	db *sqlx.DB
}

// NewUserHolidayRepository constructs the repository.
func NewUserHolidayRepository(db *sqlx.DB) *UserHolidayRepository {
	return &UserHolidayRepository{db: db}
}

// ListByUser returns the user's ranges ordered by start date.
func (r *UserHolidayRepository) ListByUser(ctx context.Context, userID string) ([]models.UserHoliday, error) {
	const query = `SELECT ` + userHolidayColumns + ` FROM user_holidays WHERE user_id = $1 ORDER BY start_date, created_at`
	var holidays []models.UserHoliday
	if err := r.db.SelectContext(ctx, &holidays, query, userID); err != nil {
		return nil, fmt.Errorf("list user holidays: %w", err)
	}
	return holidays, nil
}

// FindByID returns one range.
func (r *UserHolidayRepository) FindByID(ctx context.Context, id string) (*models.UserHoliday, error) {
	const query = `SELECT ` + userHolidayColumns + ` FROM user_holidays WHERE id = $1`
	var holiday models.UserHoliday
	if err := r.db.GetContext(ctx, &holiday, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find user holiday: %w", err)
	}
	return &holiday, nil
}

// Create inserts a range.
func (r *UserHolidayRepository) Create(ctx context.Context, holiday *models.UserHoliday) error {
	if holiday.ID == "" {
		holiday.ID = uuid.NewString()
	}
	if holiday.CreatedAt.IsZero() {
		holiday.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO user_holidays (id, user_id, start_date, end_date, title, category, created_at)
VALUES (:id, :user_id, :start_date, :end_date, :title, :category, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, holiday); err != nil {
		return fmt.Errorf("create user holiday: %w", err)
	}
	return nil
}

// Update rewrites a range by id.
func (r *UserHolidayRepository) Update(ctx context.Context, holiday *models.UserHoliday) error {
	const query = `UPDATE user_holidays SET start_date = :start_date, end_date = :end_date, title = :title, category = :category WHERE id = :id`
	res, err := r.db.NamedExecContext(ctx, query, holiday)
	if err != nil {
		return fmt.Errorf("update user holiday: %w", err)
	}
	return expectAffected(res)
}

// Delete removes a range by id.
func (r *UserHolidayRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM user_holidays WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete user holiday: %w", err)
	}
	return expectAffected(res)
}

// NationalHolidayRepository persists the shared national calendar.
type NationalHolidayRepository struct {
	db *sqlx.DB
}

// NewNationalHolidayRepository constructs the repository.
func NewNationalHolidayRepository(db *sqlx.DB) *NationalHolidayRepository {
	return &NationalHolidayRepository{db: db}
}

// List returns every national holiday by date.
func (r *NationalHolidayRepository) List(ctx context.Context) ([]models.NationalHoliday, error) {
	var holidays []models.NationalHoliday
	if err := r.db.SelectContext(ctx, &holidays, `SELECT id, date, title FROM national_holidays ORDER BY date, id`); err != nil {
		return nil, fmt.Errorf("list national holidays: %w", err)
	}
	return holidays, nil
}

// Create inserts a national holiday.
func (r *NationalHolidayRepository) Create(ctx context.Context, holiday *models.NationalHoliday) error {
	if holiday.ID == "" {
		holiday.ID = uuid.NewString()
	}
	const query = `INSERT INTO national_holidays (id, date, title) VALUES (:id, :date, :title)`
	if _, err := r.db.NamedExecContext(ctx, query, holiday); err != nil {
		return fmt.Errorf("create national holiday: %w", err)
	}
	return nil
}

// ExistingDates returns the set of dates already present.
func (r *NationalHolidayRepository) ExistingDates(ctx context.Context) (map[string]bool, error) {
	var dates []string
	if err := r.db.SelectContext(ctx, &dates, `SELECT DISTINCT date FROM national_holidays`); err != nil {
		return nil, fmt.Errorf("list national holiday dates: %w", err)
	}
	out := make(map[string]bool, len(dates))
	for _, d := range dates {
		out[d] = true
	}
	return out, nil
}
