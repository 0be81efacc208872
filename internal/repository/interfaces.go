package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/hospitalops/scheduler-api/internal/model"
)

// UserRepository reads and writes actors. Role and activation state are
// always read fresh; nothing in this package caches them.
type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	Get(ctx context.Context, id uuid.UUID) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	List(ctx context.Context, p model.Pagination) ([]*model.User, error)
	SetActive(ctx context.Context, id uuid.UUID, active bool) error
}

type AvailabilityRepository interface {
	Create(ctx context.Context, w *model.AvailabilityWindow) error
	Get(ctx context.Context, id uuid.UUID) (*model.AvailabilityWindow, error)
	Update(ctx context.Context, w *model.AvailabilityWindow) error
	Delete(ctx context.Context, id uuid.UUID) error
	ListForDoctor(ctx context.Context, doctorID uuid.UUID) ([]*model.AvailabilityWindow, error)
	ListForDoctorDay(ctx context.Context, doctorID uuid.UUID, day time.Weekday) ([]*model.AvailabilityWindow, error)
}

type AppointmentRepository interface {
	// Create inserts the appointment and its outbox event in one
	// transaction. A racing duplicate hitting the partial unique index is
	// translated to ErrAppointmentOverlap.
	Create(ctx context.Context, apt *model.Appointment) error
	Get(ctx context.Context, id uuid.UUID) (*model.Appointment, error)
	List(ctx context.Context, filters *model.AppointmentFilters) ([]*model.Appointment, error)
	ListActiveForDoctorDate(ctx context.Context, doctorID uuid.UUID, date time.Time) ([]*model.Appointment, error)
	// TransitionStatus flips status only when the current status matches
	// from; a mismatch reports ErrInvalidStateTransition.
	TransitionStatus(ctx context.Context, id uuid.UUID, from, to model.AppointmentStatus) error
}

type RoomRepository interface {
	Create(ctx context.Context, room *model.Room) error
	Get(ctx context.Context, id uuid.UUID) (*model.Room, error)
	GetByNumber(ctx context.Context, roomNumber string) (*model.Room, error)
	List(ctx context.Context, p model.Pagination) ([]*model.Room, error)
	Update(ctx context.Context, room *model.Room) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type OTRepository interface {
	CreateSlot(ctx context.Context, slot *model.OTSlot) error
	GetSlot(ctx context.Context, id uuid.UUID) (*model.OTSlot, error)
	ListSlots(ctx context.Context, roomID uuid.UUID, onlyAvailable bool) ([]*model.OTSlot, error)
	// GetActiveBookingForSlot returns nil when the slot carries no active
	// (non-rejected) booking.
	GetActiveBookingForSlot(ctx context.Context, slotID uuid.UUID) (*model.OTBooking, error)
	// Book re-checks bookability under a row lock, inserts the booking,
	// flips the slot to booked and records the outbox event, all in one
	// transaction. Contention reports ErrSlotUnavailable with no writes.
	Book(ctx context.Context, booking *model.OTBooking) error
	GetBooking(ctx context.Context, id uuid.UUID) (*model.OTBooking, error)
	ListBookings(ctx context.Context, doctorID uuid.UUID) ([]*model.OTBooking, error)
	// TransitionBookingStatus flips status only from the expected state.
	// Rejecting an active booking frees its slot in the same transaction.
	TransitionBookingStatus(ctx context.Context, id uuid.UUID, from, to model.OTBookingStatus) error
}

// AssignmentWithShift joins an assignment to its shift window for overlap
// arithmetic.
type AssignmentWithShift struct {
	model.StaffShiftAssignment
	ShiftStart time.Time `db:"shift_start"`
	ShiftEnd   time.Time `db:"shift_end"`
}

type ShiftRepository interface {
	CreateShift(ctx context.Context, shift *model.Shift) error
	GetShift(ctx context.Context, id uuid.UUID) (*model.Shift, error)
	ListShifts(ctx context.Context, p model.Pagination) ([]*model.Shift, error)
	UpdateShift(ctx context.Context, shift *model.Shift) error
	DeleteShift(ctx context.Context, id uuid.UUID) error

	GetAssignment(ctx context.Context, id uuid.UUID) (*model.StaffShiftAssignment, error)
	ListAssignmentsForStaff(ctx context.Context, staffID uuid.UUID) ([]*model.StaffShiftAssignment, error)
	// ListActiveAssignmentsWithShifts returns the staff member's
	// slot-occupying assignments joined to their shift windows.
	ListActiveAssignmentsWithShifts(ctx context.Context, staffID uuid.UUID) ([]*AssignmentWithShift, error)

	// Assign re-checks the staff member's schedule under row locks and
	// inserts the assignment atomically; an overlapping active assignment
	// reports ErrShiftOverlap.
	Assign(ctx context.Context, assignment *model.StaffShiftAssignment) error
	// RequestSwap flips Assigned -> SwapRequested and records the target.
	RequestSwap(ctx context.Context, assignmentID, targetStaffID uuid.UUID) error
	// ApproveSwap re-validates the target's schedule, flips the original
	// row to Swapped and inserts a new Assigned row for the target; the two
	// writes commit together or not at all. Returns the new assignment.
	ApproveSwap(ctx context.Context, assignmentID uuid.UUID) (*model.StaffShiftAssignment, error)
	// RejectSwap reverts SwapRequested -> Assigned and clears the target.
	RejectSwap(ctx context.Context, assignmentID uuid.UUID) error
}

type OutboxRepository interface {
	Create(ctx context.Context, event *model.OutboxEvent) error
	GetPendingWithLock(ctx context.Context, limit int) ([]*model.OutboxEvent, error)
	MarkProcessed(ctx context.Context, id uuid.UUID) error
	MarkFailed(ctx context.Context, id uuid.UUID, errMsg string) error
	CountPending(ctx context.Context) (int64, error)
}
