package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/hospitalops/scheduler-api/internal/model"
	"github.com/hospitalops/scheduler-api/pkg/apperror"
)

func (r *appointmentRepository) Create(ctx context.Context, apt *model.Appointment) error {
	apt.ID = uuid.New()
	apt.CreatedAt = time.Now()
	apt.UpdatedAt = time.Now()

	return withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		if err := lockDoctorDay(ctx, tx, apt.DoctorID, apt.AppointmentDate); err != nil {
			return err
		}

		overlap, err := doctorHasOverlap(ctx, tx, apt.DoctorID, apt.AppointmentDate, apt.StartTime, apt.EndTime)
		if err != nil {
			return err
		}
		if overlap {
			return apperror.ErrAppointmentOverlap
		}

		query := `
			INSERT INTO appointments (id, doctor_id, patient_name, appointment_date, start_time, end_time, status, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		`
		_, err = tx.ExecContext(ctx, query,
			apt.ID,
			apt.DoctorID,
			apt.PatientName,
			apt.AppointmentDate,
			apt.StartTime,
			apt.EndTime,
			apt.Status,
			apt.CreatedAt,
			apt.UpdatedAt,
		)
		if err != nil {
			// A racing writer that slipped past the admission check lands
			// on the partial unique index; report it as the same conflict.
			if isUniqueViolation(err, "uq_appointments_doctor_date_slot") {
				return apperror.Wrap(apperror.ErrAppointmentOverlap, err)
			}
			return fmt.Errorf("failed to create appointment: %w", err)
		}

		return insertOutboxTx(ctx, tx, model.EventAppointmentCreated, apt)
	})
}

// lockDoctorDay serializes writers of one doctor's daily schedule for the
// duration of the transaction. The partial unique index only stops identical
// tuples; overlapping but non-identical intervals need the lock plus the
// re-check below.
func lockDoctorDay(ctx context.Context, tx *sqlx.Tx, doctorID uuid.UUID, date time.Time) error {
	key := doctorID.String() + ":" + date.Format(model.DateFormat)
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtextextended($1, 0))`, key); err != nil {
		return fmt.Errorf("failed to lock doctor schedule: %w", err)
	}
	return nil
}

func doctorHasOverlap(ctx context.Context, tx *sqlx.Tx, doctorID uuid.UUID, date time.Time, start, end time.Time) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1
			FROM appointments
			WHERE doctor_id = $1
			AND appointment_date = $2
			AND status != $3
			AND start_time < $4
			AND end_time > $5
		)
	`
	var overlap bool
	err := tx.GetContext(ctx, &overlap, query, doctorID, date, model.AppointmentStatusCancelled, end, start)
	if err != nil {
		return false, fmt.Errorf("failed to check appointment overlap: %w", err)
	}
	return overlap, nil
}

func (r *appointmentRepository) Get(ctx context.Context, id uuid.UUID) (*model.Appointment, error) {
	query := `
		SELECT id, doctor_id, patient_name, appointment_date, start_time, end_time, status, created_at, updated_at
		FROM appointments
		WHERE id = $1
	`
	var apt model.Appointment
	err := r.db.GetContext(ctx, &apt, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.NotFound("appointment")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get appointment: %w", err)
	}
	return &apt, nil
}

func (r *appointmentRepository) List(ctx context.Context, filters *model.AppointmentFilters) ([]*model.Appointment, error) {
	query := `
		SELECT id, doctor_id, patient_name, appointment_date, start_time, end_time, status, created_at, updated_at
		FROM appointments
		WHERE 1=1
	`
	args := []interface{}{}
	argCount := 1

	if filters != nil {
		if filters.DoctorID != uuid.Nil {
			query += fmt.Sprintf(" AND doctor_id = $%d", argCount)
			args = append(args, filters.DoctorID)
			argCount++
		}
		if filters.Status != "" {
			query += fmt.Sprintf(" AND status = $%d", argCount)
			args = append(args, filters.Status)
			argCount++
		}
		if !filters.DateFrom.IsZero() {
			query += fmt.Sprintf(" AND appointment_date >= $%d", argCount)
			args = append(args, filters.DateFrom)
			argCount++
		}
		if !filters.DateTo.IsZero() {
			query += fmt.Sprintf(" AND appointment_date <= $%d", argCount)
			args = append(args, filters.DateTo)
			argCount++
		}
	}

	query += " ORDER BY start_time ASC"

	var appointments []*model.Appointment
	if err := r.db.SelectContext(ctx, &appointments, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list appointments: %w", err)
	}
	return appointments, nil
}

func (r *appointmentRepository) ListActiveForDoctorDate(ctx context.Context, doctorID uuid.UUID, date time.Time) ([]*model.Appointment, error) {
	query := `
		SELECT id, doctor_id, patient_name, appointment_date, start_time, end_time, status, created_at, updated_at
		FROM appointments
		WHERE doctor_id = $1
		AND appointment_date = $2
		AND status != $3
		ORDER BY start_time ASC
	`
	var appointments []*model.Appointment
	err := r.db.SelectContext(ctx, &appointments, query, doctorID, date, model.AppointmentStatusCancelled)
	if err != nil {
		return nil, fmt.Errorf("failed to list active appointments: %w", err)
	}
	return appointments, nil
}

func (r *appointmentRepository) TransitionStatus(ctx context.Context, id uuid.UUID, from, to model.AppointmentStatus) error {
	return withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		query := `
			UPDATE appointments
			SET status = $1, updated_at = $2
			WHERE id = $3 AND status = $4
		`
		result, err := tx.ExecContext(ctx, query, to, time.Now(), id, from)
		if err != nil {
			return fmt.Errorf("failed to transition appointment status: %w", err)
		}

		rows, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get rows affected: %w", err)
		}
		if rows == 0 {
			// Either the row is gone or it is no longer in the expected
			// state; distinguish the two for the caller.
			var exists bool
			if err := tx.GetContext(ctx, &exists, `SELECT EXISTS (SELECT 1 FROM appointments WHERE id = $1)`, id); err != nil {
				return fmt.Errorf("failed to check appointment existence: %w", err)
			}
			if !exists {
				return apperror.NotFound("appointment")
			}
			return apperror.ErrInvalidStateTransition
		}

		if to == model.AppointmentStatusCancelled {
			return insertOutboxTx(ctx, tx, model.EventAppointmentCancelled, map[string]interface{}{"id": id})
		}
		return nil
	})
}
