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

func (r *roomRepository) Create(ctx context.Context, room *model.Room) error {
	query := `
		INSERT INTO rooms (id, room_number, ward_name, room_type, bed_capacity, floor_number, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	room.ID = uuid.New()
	room.CreatedAt = time.Now()
	room.UpdatedAt = time.Now()

	_, err := r.db.ExecContext(ctx, query,
		room.ID,
		room.RoomNumber,
		room.WardName,
		room.RoomType,
		room.BedCapacity,
		room.FloorNumber,
		room.IsActive,
		room.CreatedAt,
		room.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err, "rooms_room_number_key") {
			return apperror.New(apperror.CodeConflict, "room number already exists")
		}
		return fmt.Errorf("failed to create room: %w", err)
	}
	return nil
}

func (r *roomRepository) Get(ctx context.Context, id uuid.UUID) (*model.Room, error) {
	query := `
		SELECT id, room_number, ward_name, room_type, bed_capacity, floor_number, is_active, created_at, updated_at
		FROM rooms
		WHERE id = $1
	`
	var room model.Room
	err := r.db.GetContext(ctx, &room, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.NotFound("room")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get room: %w", err)
	}
	return &room, nil
}

func (r *roomRepository) GetByNumber(ctx context.Context, roomNumber string) (*model.Room, error) {
	query := `
		SELECT id, room_number, ward_name, room_type, bed_capacity, floor_number, is_active, created_at, updated_at
		FROM rooms
		WHERE room_number = $1
	`
	var room model.Room
	err := r.db.GetContext(ctx, &room, query, roomNumber)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.NotFound("room")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get room by number: %w", err)
	}
	return &room, nil
}

func (r *roomRepository) List(ctx context.Context, p model.Pagination) ([]*model.Room, error) {
	query := `
		SELECT id, room_number, ward_name, room_type, bed_capacity, floor_number, is_active, created_at, updated_at
		FROM rooms
		ORDER BY room_number ASC
		LIMIT $1 OFFSET $2
	`
	var rooms []*model.Room
	if err := r.db.SelectContext(ctx, &rooms, query, p.Limit(), p.Offset()); err != nil {
		return nil, fmt.Errorf("failed to list rooms: %w", err)
	}
	return rooms, nil
}

func (r *roomRepository) Update(ctx context.Context, room *model.Room) error {
	query := `
		UPDATE rooms
		SET room_number = $1, ward_name = $2, room_type = $3, bed_capacity = $4, floor_number = $5, is_active = $6, updated_at = $7
		WHERE id = $8
	`
	room.UpdatedAt = time.Now()

	result, err := r.db.ExecContext(ctx, query,
		room.RoomNumber,
		room.WardName,
		room.RoomType,
		room.BedCapacity,
		room.FloorNumber,
		room.IsActive,
		room.UpdatedAt,
		room.ID,
	)
	if err != nil {
		if isUniqueViolation(err, "rooms_room_number_key") {
			return apperror.New(apperror.CodeConflict, "room number already exists")
		}
		return fmt.Errorf("failed to update room: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return apperror.NotFound("room")
	}
	return nil
}

func (r *roomRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM rooms WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete room: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return apperror.NotFound("room")
	}
	return nil
}
