package model

import (
	"time"

	"github.com/google/uuid"
)

type ShiftType string

const (
	ShiftTypeMorning   ShiftType = "morning"
	ShiftTypeAfternoon ShiftType = "afternoon"
	ShiftTypeNight     ShiftType = "night"
)

// Shift is a staffed time window. Assignments reference it; it does not own
// them.
type Shift struct {
	Base
	Name      string    `json:"name" db:"name"`
	ShiftType ShiftType `json:"shift_type" db:"shift_type"`
	StartTime time.Time `json:"start_time" db:"start_time"`
	EndTime   time.Time `json:"end_time" db:"end_time"`
}

type AssignmentStatus string

const (
	AssignmentStatusAssigned      AssignmentStatus = "assigned"
	AssignmentStatusSwapRequested AssignmentStatus = "swap_requested"
	AssignmentStatusSwapped       AssignmentStatus = "swapped"
	AssignmentStatusCompleted     AssignmentStatus = "completed"
)

// OccupiesSlot reports whether the assignment counts toward the staff
// member's schedule for overlap purposes.
func (s AssignmentStatus) OccupiesSlot() bool {
	return s == AssignmentStatusAssigned || s == AssignmentStatusSwapped
}

// StaffShiftAssignment binds one staff member to one shift. TargetStaffID is
// set only while a swap request is pending.
type StaffShiftAssignment struct {
	Base
	StaffID       uuid.UUID        `json:"staff_id" db:"staff_id"`
	ShiftID       uuid.UUID        `json:"shift_id" db:"shift_id"`
	Status        AssignmentStatus `json:"status" db:"status"`
	TargetStaffID *uuid.UUID       `json:"target_staff_id,omitempty" db:"target_staff_id"`
}

type CreateShiftRequest struct {
	Name      string    `json:"name" validate:"required,max=100"`
	ShiftType ShiftType `json:"shift_type" validate:"required,oneof=morning afternoon night"`
	Date      string    `json:"date" validate:"required,datetime=2006-01-02"`
	StartTime string    `json:"start_time" validate:"required,datetime=15:04"`
	EndTime   string    `json:"end_time" validate:"required,datetime=15:04"`
}

type UpdateShiftRequest struct {
	Name      *string    `json:"name" validate:"omitempty,max=100"`
	ShiftType *ShiftType `json:"shift_type" validate:"omitempty,oneof=morning afternoon night"`
	StartTime *time.Time `json:"start_time"`
	EndTime   *time.Time `json:"end_time"`
}

type AssignShiftRequest struct {
	StaffID uuid.UUID `json:"staff_id" validate:"required"`
	ShiftID uuid.UUID `json:"shift_id" validate:"required"`
}

type SwapRequest struct {
	AssignmentID  uuid.UUID `json:"assignment_id" validate:"required"`
	TargetStaffID uuid.UUID `json:"target_staff_id" validate:"required"`
}
