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

const timetableColumns = `id, user_id, day, subject, start_time, end_time, created_at`

// TimetableRepository persists weekly lecture slots.
type TimetableRepository struct {
	db *sqlx.DB
}

// NewTimetableRepository constructs the repository.
func NewTimetableRepository(db *sqlx.DB) *TimetableRepository {
	return &TimetableRepository{db: db}
}

// ListByUser returns the user's slots in insertion order.
func (r *TimetableRepository) ListByUser(ctx context.Context, userID string) ([]models.TimetableSlot, error) {
	const query = `SELECT ` + timetableColumns + ` FROM timetable_slots WHERE user_id = $1 ORDER BY created_at, id`
	var slots []models.TimetableSlot
	if err := r.db.SelectContext(ctx, &slots, query, userID); err != nil {
		return nil, fmt.Errorf("list timetable: %w", err)
	}
	return slots, nil
}

// ListAll returns every slot of every user, grouped by user.
func (r *TimetableRepository) ListAll(ctx context.Context) ([]models.TimetableSlot, error) {
	const query = `SELECT ` + timetableColumns + ` FROM timetable_slots ORDER BY user_id, created_at, id`
	var slots []models.TimetableSlot
	if err := r.db.SelectContext(ctx, &slots, query); err != nil {
		return nil, fmt.Errorf("list all timetable slots: %w", err)
	}
	return slots, nil
}

// FindByID returns a single slot.
func (r *TimetableRepository) FindByID(ctx context.Context, id string) (*models.TimetableSlot, error) {
	const query = `SELECT ` + timetableColumns + ` FROM timetable_slots WHERE id = $1`
	var slot models.TimetableSlot
	if err := r.db.GetContext(ctx, &slot, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find timetable slot: %w", err)
	}
	return &slot, nil
}

// Create inserts a slot.
func (r *TimetableRepository) Create(ctx context.Context, slot *models.TimetableSlot) error {
	if slot.ID == "" {
		slot.ID = uuid.NewString()
	}
	if slot.CreatedAt.IsZero() {
		slot.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO timetable_slots (id, user_id, day, subject, start_time, end_time, created_at)
VALUES (:id, :user_id, :day, :subject, :start_time, :end_time, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, slot); err != nil {
		return fmt.Errorf("create timetable slot: %w", err)
	}
	return nil
}

// Update rewrites a slot by id.
func (r *TimetableRepository) Update(ctx context.Context, slot *models.TimetableSlot) error {
	const query = `UPDATE timetable_slots SET day = :day, subject = :subject, start_time = :start_time, end_time = :end_time WHERE id = :id`
	res, err := r.db.NamedExecContext(ctx, query, slot)
	if err != nil {
		return fmt.Errorf("update timetable slot: %w", err)
	}
	return expectAffected(res)
}

// Delete removes a slot by id.
func (r *TimetableRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM timetable_slots WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete timetable slot: %w", err)
	}
	return expectAffected(res)
}

// expectAffected maps a zero-row write onto sql.ErrNoRows.
func expectAffected(res sql.Result) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
