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

func (r *otRepository) CreateSlot(ctx context.Context, slot *model.OTSlot) error {
	query := `
		INSERT INTO ot_slots (id, room_id, slot_date, start_time, end_time, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	slot.ID = uuid.New()
	slot.CreatedAt = time.Now()
	slot.UpdatedAt = time.Now()

	_, err := r.db.ExecContext(ctx, query,
		slot.ID,
		slot.RoomID,
		slot.SlotDate,
		slot.StartTime,
		slot.EndTime,
		slot.Status,
		slot.CreatedAt,
		slot.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create OT slot: %w", err)
	}
	return nil
}

func (r *otRepository) GetSlot(ctx context.Context, id uuid.UUID) (*model.OTSlot, error) {
	query := `
		SELECT id, room_id, slot_date, start_time, end_time, status, created_at, updated_at
		FROM ot_slots
		WHERE id = $1
	`
	var slot model.OTSlot
	err := r.db.GetContext(ctx, &slot, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.NotFound("OT slot")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get OT slot: %w", err)
	}
	return &slot, nil
}

func (r *otRepository) ListSlots(ctx context.Context, roomID uuid.UUID, onlyAvailable bool) ([]*model.OTSlot, error) {
	query := `
		SELECT id, room_id, slot_date, start_time, end_time, status, created_at, updated_at
		FROM ot_slots
		WHERE 1=1
	`
	args := []interface{}{}
	argCount := 1

	if roomID != uuid.Nil {
		query += fmt.Sprintf(" AND room_id = $%d", argCount)
		args = append(args, roomID)
		argCount++
	}
	if onlyAvailable {
		query += fmt.Sprintf(" AND status = $%d", argCount)
		args = append(args, model.OTSlotStatusAvailable)
		argCount++
	}

	query += " ORDER BY start_time ASC"

	var slots []*model.OTSlot
	if err := r.db.SelectContext(ctx, &slots, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list OT slots: %w", err)
	}
	return slots, nil
}

func (r *otRepository) GetActiveBookingForSlot(ctx context.Context, slotID uuid.UUID) (*model.OTBooking, error) {
	query := `
		SELECT id, ot_slot_id, doctor_id, procedure, status, created_at, updated_at
		FROM ot_bookings
		WHERE ot_slot_id = $1 AND status != $2
	`
	var booking model.OTBooking
	err := r.db.GetContext(ctx, &booking, query, slotID, model.OTBookingStatusRejected)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get active booking: %w", err)
	}
	return &booking, nil
}

// Book is the single atomic unit for OT allocation: it locks the slot row,
// re-checks bookability, inserts the booking and flips the slot to booked.
// If the re-check fails after concurrent contention nothing is written.
func (r *otRepository) Book(ctx context.Context, booking *model.OTBooking) error {
	booking.ID = uuid.New()
	booking.Status = model.OTBookingStatusPending
	booking.CreatedAt = time.Now()
	booking.UpdatedAt = time.Now()

	return withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		var slot model.OTSlot
		err := tx.GetContext(ctx, &slot, `
			SELECT id, room_id, slot_date, start_time, end_time, status, created_at, updated_at
			FROM ot_slots
			WHERE id = $1
			FOR UPDATE
		`, booking.OTSlotID)
		if errors.Is(err, sql.ErrNoRows) {
			return apperror.NotFound("OT slot")
		}
		if err != nil {
			return fmt.Errorf("failed to lock OT slot: %w", err)
		}

		if slot.Status != model.OTSlotStatusAvailable {
			return apperror.ErrSlotUnavailable
		}

		// Status should already encode this; re-check anyway to guard
		// against state drift between slot status and booking rows.
		var hasActive bool
		err = tx.GetContext(ctx, &hasActive, `
			SELECT EXISTS (SELECT 1 FROM ot_bookings WHERE ot_slot_id = $1 AND status != $2)
		`, booking.OTSlotID, model.OTBookingStatusRejected)
		if err != nil {
			return fmt.Errorf("failed to check active bookings: %w", err)
		}
		if hasActive {
			return apperror.ErrSlotUnavailable
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO ot_bookings (id, ot_slot_id, doctor_id, procedure, status, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
		`,
			booking.ID,
			booking.OTSlotID,
			booking.DoctorID,
			booking.Procedure,
			booking.Status,
			booking.CreatedAt,
			booking.UpdatedAt,
		)
		if err != nil {
			if isUniqueViolation(err, "uq_ot_bookings_active_slot") {
				return apperror.Wrap(apperror.ErrSlotUnavailable, err)
			}
			return fmt.Errorf("failed to create OT booking: %w", err)
		}

		_, err = tx.ExecContext(ctx, `
			UPDATE ot_slots SET status = $1, updated_at = $2 WHERE id = $3
		`, model.OTSlotStatusBooked, time.Now(), booking.OTSlotID)
		if err != nil {
			return fmt.Errorf("failed to update OT slot status: %w", err)
		}

		return insertOutboxTx(ctx, tx, model.EventOTSlotBooked, booking)
	})
}

func (r *otRepository) GetBooking(ctx context.Context, id uuid.UUID) (*model.OTBooking, error) {
	query := `
		SELECT id, ot_slot_id, doctor_id, procedure, status, created_at, updated_at
		FROM ot_bookings
		WHERE id = $1
	`
	var booking model.OTBooking
	err := r.db.GetContext(ctx, &booking, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.NotFound("OT booking")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get OT booking: %w", err)
	}
	return &booking, nil
}

func (r *otRepository) ListBookings(ctx context.Context, doctorID uuid.UUID) ([]*model.OTBooking, error) {
	query := `
		SELECT id, ot_slot_id, doctor_id, procedure, status, created_at, updated_at
		FROM ot_bookings
		WHERE 1=1
	`
	args := []interface{}{}
	if doctorID != uuid.Nil {
		query += " AND doctor_id = $1"
		args = append(args, doctorID)
	}
	query += " ORDER BY created_at ASC"

	var bookings []*model.OTBooking
	if err := r.db.SelectContext(ctx, &bookings, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list OT bookings: %w", err)
	}
	return bookings, nil
}

func (r *otRepository) TransitionBookingStatus(ctx context.Context, id uuid.UUID, from, to model.OTBookingStatus) error {
	return withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		var booking model.OTBooking
		err := tx.GetContext(ctx, &booking, `
			SELECT id, ot_slot_id, doctor_id, procedure, status, created_at, updated_at
			FROM ot_bookings
			WHERE id = $1
			FOR UPDATE
		`, id)
		if errors.Is(err, sql.ErrNoRows) {
			return apperror.NotFound("OT booking")
		}
		if err != nil {
			return fmt.Errorf("failed to lock OT booking: %w", err)
		}

		if booking.Status != from {
			return apperror.ErrInvalidStateTransition
		}

		_, err = tx.ExecContext(ctx, `
			UPDATE ot_bookings SET status = $1, updated_at = $2 WHERE id = $3
		`, to, time.Now(), id)
		if err != nil {
			return fmt.Errorf("failed to update OT booking status: %w", err)
		}

		// A rejected booking vacates its slot.
		if to == model.OTBookingStatusRejected {
			_, err = tx.ExecContext(ctx, `
				UPDATE ot_slots SET status = $1, updated_at = $2 WHERE id = $3 AND status = $4
			`, model.OTSlotStatusAvailable, time.Now(), booking.OTSlotID, model.OTSlotStatusBooked)
			if err != nil {
				return fmt.Errorf("failed to release OT slot: %w", err)
			}
		}
		return nil
	})
}
