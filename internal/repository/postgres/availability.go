package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/hospitalops/scheduler-api/internal/model"
	"github.com/hospitalops/scheduler-api/pkg/apperror"
)

func (r *availabilityRepository) Create(ctx context.Context, w *model.AvailabilityWindow) error {
	query := `
		INSERT INTO availability_windows (id, doctor_id, day_of_week, start_time, end_time, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	w.ID = uuid.New()
	w.CreatedAt = time.Now()
	w.UpdatedAt = time.Now()

	_, err := r.db.ExecContext(ctx, query,
		w.ID,
		w.DoctorID,
		w.DayOfWeek,
		w.StartTime,
		w.EndTime,
		w.CreatedAt,
		w.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create availability window: %w", err)
	}
	return nil
}

func (r *availabilityRepository) Get(ctx context.Context, id uuid.UUID) (*model.AvailabilityWindow, error) {
	query := `
		SELECT id, doctor_id, day_of_week, start_time, end_time, created_at, updated_at
		FROM availability_windows
		WHERE id = $1
	`
	var w model.AvailabilityWindow
	err := r.db.GetContext(ctx, &w, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.NotFound("availability window")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get availability window: %w", err)
	}
	return &w, nil
}

func (r *availabilityRepository) Update(ctx context.Context, w *model.AvailabilityWindow) error {
	query := `
		UPDATE availability_windows
		SET day_of_week = $1, start_time = $2, end_time = $3, updated_at = $4
		WHERE id = $5
	`
	w.UpdatedAt = time.Now()

	result, err := r.db.ExecContext(ctx, query, w.DayOfWeek, w.StartTime, w.EndTime, w.UpdatedAt, w.ID)
	if err != nil {
		return fmt.Errorf("failed to update availability window: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return apperror.NotFound("availability window")
	}
	return nil
}

func (r *availabilityRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM availability_windows WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete availability window: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return apperror.NotFound("availability window")
	}
	return nil
}

func (r *availabilityRepository) ListForDoctor(ctx context.Context, doctorID uuid.UUID) ([]*model.AvailabilityWindow, error) {
	query := `
		SELECT id, doctor_id, day_of_week, start_time, end_time, created_at, updated_at
		FROM availability_windows
		WHERE doctor_id = $1
		ORDER BY day_of_week ASC, start_time ASC
	`
	var windows []*model.AvailabilityWindow
	if err := r.db.SelectContext(ctx, &windows, query, doctorID); err != nil {
		return nil, fmt.Errorf("failed to list availability windows: %w", err)
	}
	return windows, nil
}

func (r *availabilityRepository) ListForDoctorDay(ctx context.Context, doctorID uuid.UUID, day time.Weekday) ([]*model.AvailabilityWindow, error) {
	query := `
		SELECT id, doctor_id, day_of_week, start_time, end_time, created_at, updated_at
		FROM availability_windows
		WHERE doctor_id = $1 AND day_of_week = $2
		ORDER BY start_time ASC
	`
	var windows []*model.AvailabilityWindow
	if err := r.db.SelectContext(ctx, &windows, query, doctorID, day); err != nil {
		return nil, fmt.Errorf("failed to list availability windows: %w", err)
	}
	return windows, nil
}
