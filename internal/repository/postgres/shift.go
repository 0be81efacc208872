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
	"github.com/hospitalops/scheduler-api/internal/repository"
	"github.com/hospitalops/scheduler-api/pkg/apperror"
)

func (r *shiftRepository) CreateShift(ctx context.Context, shift *model.Shift) error {
	query := `
		INSERT INTO shifts (id, name, shift_type, start_time, end_time, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	shift.ID = uuid.New()
	shift.CreatedAt = time.Now()
	shift.UpdatedAt = time.Now()

	_, err := r.db.ExecContext(ctx, query,
		shift.ID,
		shift.Name,
		shift.ShiftType,
		shift.StartTime,
		shift.EndTime,
		shift.CreatedAt,
		shift.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create shift: %w", err)
	}
	return nil
}

func (r *shiftRepository) GetShift(ctx context.Context, id uuid.UUID) (*model.Shift, error) {
	query := `
		SELECT id, name, shift_type, start_time, end_time, created_at, updated_at
		FROM shifts
		WHERE id = $1
	`
	var shift model.Shift
	err := r.db.GetContext(ctx, &shift, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.NotFound("shift")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get shift: %w", err)
	}
	return &shift, nil
}

func (r *shiftRepository) ListShifts(ctx context.Context, p model.Pagination) ([]*model.Shift, error) {
	query := `
		SELECT id, name, shift_type, start_time, end_time, created_at, updated_at
		FROM shifts
		ORDER BY start_time ASC
		LIMIT $1 OFFSET $2
	`
	var shifts []*model.Shift
	if err := r.db.SelectContext(ctx, &shifts, query, p.Limit(), p.Offset()); err != nil {
		return nil, fmt.Errorf("failed to list shifts: %w", err)
	}
	return shifts, nil
}

func (r *shiftRepository) UpdateShift(ctx context.Context, shift *model.Shift) error {
	query := `
		UPDATE shifts
		SET name = $1, shift_type = $2, start_time = $3, end_time = $4, updated_at = $5
		WHERE id = $6
	`
	shift.UpdatedAt = time.Now()

	result, err := r.db.ExecContext(ctx, query,
		shift.Name,
		shift.ShiftType,
		shift.StartTime,
		shift.EndTime,
		shift.UpdatedAt,
		shift.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update shift: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return apperror.NotFound("shift")
	}
	return nil
}

func (r *shiftRepository) DeleteShift(ctx context.Context, id uuid.UUID) error {
	return withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM staff_shift_assignments WHERE shift_id = $1`, id); err != nil {
			return fmt.Errorf("failed to delete shift assignments: %w", err)
		}

		result, err := tx.ExecContext(ctx, `DELETE FROM shifts WHERE id = $1`, id)
		if err != nil {
			return fmt.Errorf("failed to delete shift: %w", err)
		}

		rows, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get rows affected: %w", err)
		}
		if rows == 0 {
			return apperror.NotFound("shift")
		}
		return nil
	})
}

func (r *shiftRepository) GetAssignment(ctx context.Context, id uuid.UUID) (*model.StaffShiftAssignment, error) {
	query := `
		SELECT id, staff_id, shift_id, status, target_staff_id, created_at, updated_at
		FROM staff_shift_assignments
		WHERE id = $1
	`
	var assignment model.StaffShiftAssignment
	err := r.db.GetContext(ctx, &assignment, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.NotFound("assignment")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get assignment: %w", err)
	}
	return &assignment, nil
}

func (r *shiftRepository) ListAssignmentsForStaff(ctx context.Context, staffID uuid.UUID) ([]*model.StaffShiftAssignment, error) {
	query := `
		SELECT id, staff_id, shift_id, status, target_staff_id, created_at, updated_at
		FROM staff_shift_assignments
		WHERE staff_id = $1
		ORDER BY created_at ASC
	`
	var assignments []*model.StaffShiftAssignment
	if err := r.db.SelectContext(ctx, &assignments, query, staffID); err != nil {
		return nil, fmt.Errorf("failed to list assignments: %w", err)
	}
	return assignments, nil
}

func (r *shiftRepository) ListActiveAssignmentsWithShifts(ctx context.Context, staffID uuid.UUID) ([]*repository.AssignmentWithShift, error) {
	query := `
		SELECT a.id, a.staff_id, a.shift_id, a.status, a.target_staff_id, a.created_at, a.updated_at,
			   s.start_time AS shift_start, s.end_time AS shift_end
		FROM staff_shift_assignments a
		JOIN shifts s ON s.id = a.shift_id
		WHERE a.staff_id = $1
		AND a.status IN ($2, $3)
		ORDER BY s.start_time ASC
	`
	var assignments []*repository.AssignmentWithShift
	err := r.db.SelectContext(ctx, &assignments, query, staffID,
		model.AssignmentStatusAssigned, model.AssignmentStatusSwapped)
	if err != nil {
		return nil, fmt.Errorf("failed to list active assignments: %w", err)
	}
	return assignments, nil
}

// lockStaffSchedule serializes writers of one staff member's schedule for the
// duration of the transaction. Row locks alone cannot stop two racing inserts
// of fresh overlapping rows, so a per-staff advisory lock closes the phantom.
func lockStaffSchedule(ctx context.Context, tx *sqlx.Tx, staffID uuid.UUID) error {
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtextextended($1, 0))`, staffID.String()); err != nil {
		return fmt.Errorf("failed to lock staff schedule: %w", err)
	}
	return nil
}

// staffHasOverlap applies the half-open overlap rule (start < end', end > start')
// against the staff member's slot-occupying assignments.
func staffHasOverlap(ctx context.Context, tx *sqlx.Tx, staffID uuid.UUID, start, end time.Time, excludeAssignment uuid.UUID) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1
			FROM staff_shift_assignments a
			JOIN shifts s ON s.id = a.shift_id
			WHERE a.staff_id = $1
			AND a.status IN ($2, $3)
			AND a.id != $4
			AND s.start_time < $5
			AND s.end_time > $6
		)
	`
	var overlap bool
	err := tx.GetContext(ctx, &overlap, query, staffID,
		model.AssignmentStatusAssigned, model.AssignmentStatusSwapped,
		excludeAssignment, end, start)
	if err != nil {
		return false, fmt.Errorf("failed to check shift overlap: %w", err)
	}
	return overlap, nil
}

func (r *shiftRepository) Assign(ctx context.Context, assignment *model.StaffShiftAssignment) error {
	assignment.ID = uuid.New()
	assignment.Status = model.AssignmentStatusAssigned
	assignment.CreatedAt = time.Now()
	assignment.UpdatedAt = time.Now()

	return withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		var shift model.Shift
		err := tx.GetContext(ctx, &shift, `
			SELECT id, name, shift_type, start_time, end_time, created_at, updated_at
			FROM shifts WHERE id = $1
		`, assignment.ShiftID)
		if errors.Is(err, sql.ErrNoRows) {
			return apperror.NotFound("shift")
		}
		if err != nil {
			return fmt.Errorf("failed to get shift: %w", err)
		}

		if err := lockStaffSchedule(ctx, tx, assignment.StaffID); err != nil {
			return err
		}

		overlap, err := staffHasOverlap(ctx, tx, assignment.StaffID, shift.StartTime, shift.EndTime, uuid.Nil)
		if err != nil {
			return err
		}
		if overlap {
			return apperror.ErrShiftOverlap
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO staff_shift_assignments (id, staff_id, shift_id, status, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6)
		`,
			assignment.ID,
			assignment.StaffID,
			assignment.ShiftID,
			assignment.Status,
			assignment.CreatedAt,
			assignment.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to create assignment: %w", err)
		}

		return insertOutboxTx(ctx, tx, model.EventShiftAssigned, assignment)
	})
}

func (r *shiftRepository) RequestSwap(ctx context.Context, assignmentID, targetStaffID uuid.UUID) error {
	return withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		assignment, err := lockAssignment(ctx, tx, assignmentID)
		if err != nil {
			return err
		}

		if assignment.Status != model.AssignmentStatusAssigned {
			return apperror.ErrInvalidStateTransition
		}

		_, err = tx.ExecContext(ctx, `
			UPDATE staff_shift_assignments
			SET status = $1, target_staff_id = $2, updated_at = $3
			WHERE id = $4
		`, model.AssignmentStatusSwapRequested, targetStaffID, time.Now(), assignmentID)
		if err != nil {
			return fmt.Errorf("failed to request swap: %w", err)
		}
		return nil
	})
}

func (r *shiftRepository) ApproveSwap(ctx context.Context, assignmentID uuid.UUID) (*model.StaffShiftAssignment, error) {
	var created *model.StaffShiftAssignment

	err := withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		assignment, err := lockAssignment(ctx, tx, assignmentID)
		if err != nil {
			return err
		}

		if assignment.Status != model.AssignmentStatusSwapRequested || assignment.TargetStaffID == nil {
			return apperror.ErrInvalidStateTransition
		}
		target := *assignment.TargetStaffID

		var shift model.Shift
		err = tx.GetContext(ctx, &shift, `
			SELECT id, name, shift_type, start_time, end_time, created_at, updated_at
			FROM shifts WHERE id = $1
		`, assignment.ShiftID)
		if errors.Is(err, sql.ErrNoRows) {
			return apperror.NotFound("shift")
		}
		if err != nil {
			return fmt.Errorf("failed to get shift: %w", err)
		}

		if err := lockStaffSchedule(ctx, tx, target); err != nil {
			return err
		}

		// The target must still be free for the shift window at approval
		// time; a conflict aborts with the original row untouched.
		overlap, err := staffHasOverlap(ctx, tx, target, shift.StartTime, shift.EndTime, uuid.Nil)
		if err != nil {
			return err
		}
		if overlap {
			return apperror.ErrShiftOverlap
		}

		now := time.Now()
		_, err = tx.ExecContext(ctx, `
			UPDATE staff_shift_assignments
			SET status = $1, updated_at = $2
			WHERE id = $3
		`, model.AssignmentStatusSwapped, now, assignmentID)
		if err != nil {
			return fmt.Errorf("failed to mark assignment swapped: %w", err)
		}

		newAssignment := &model.StaffShiftAssignment{
			StaffID: target,
			ShiftID: assignment.ShiftID,
			Status:  model.AssignmentStatusAssigned,
		}
		newAssignment.ID = uuid.New()
		newAssignment.CreatedAt = now
		newAssignment.UpdatedAt = now

		_, err = tx.ExecContext(ctx, `
			INSERT INTO staff_shift_assignments (id, staff_id, shift_id, status, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6)
		`,
			newAssignment.ID,
			newAssignment.StaffID,
			newAssignment.ShiftID,
			newAssignment.Status,
			newAssignment.CreatedAt,
			newAssignment.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to create swapped assignment: %w", err)
		}

		created = newAssignment
		return insertOutboxTx(ctx, tx, model.EventShiftSwapApproved, map[string]interface{}{
			"original_assignment_id": assignmentID,
			"new_assignment_id":      newAssignment.ID,
			"staff_id":               newAssignment.StaffID,
			"shift_id":               newAssignment.ShiftID,
		})
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

func (r *shiftRepository) RejectSwap(ctx context.Context, assignmentID uuid.UUID) error {
	return withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		assignment, err := lockAssignment(ctx, tx, assignmentID)
		if err != nil {
			return err
		}

		if assignment.Status != model.AssignmentStatusSwapRequested {
			return apperror.ErrInvalidStateTransition
		}

		_, err = tx.ExecContext(ctx, `
			UPDATE staff_shift_assignments
			SET status = $1, target_staff_id = NULL, updated_at = $2
			WHERE id = $3
		`, model.AssignmentStatusAssigned, time.Now(), assignmentID)
		if err != nil {
			return fmt.Errorf("failed to reject swap: %w", err)
		}
		return nil
	})
}

func lockAssignment(ctx context.Context, tx *sqlx.Tx, id uuid.UUID) (*model.StaffShiftAssignment, error) {
	var assignment model.StaffShiftAssignment
	err := tx.GetContext(ctx, &assignment, `
		SELECT id, staff_id, shift_id, status, target_staff_id, created_at, updated_at
		FROM staff_shift_assignments
		WHERE id = $1
		FOR UPDATE
	`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.NotFound("assignment")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to lock assignment: %w", err)
	}
	return &assignment, nil
}
