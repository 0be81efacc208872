package model

import (
	"time"

	"github.com/google/uuid"
)

type RoomType string

const (
	RoomTypeGeneral     RoomType = "general"
	RoomTypeICU         RoomType = "icu"
	RoomTypePrivate     RoomType = "private"
	RoomTypeSemiPrivate RoomType = "semi_private"
)

// Room is a physical hospital room; operating-theatre slots belong to a room.
type Room struct {
	Base
	RoomNumber  string   `json:"room_number" db:"room_number"`
	WardName    string   `json:"ward_name" db:"ward_name"`
	RoomType    RoomType `json:"room_type" db:"room_type"`
	BedCapacity int      `json:"bed_capacity" db:"bed_capacity"`
	FloorNumber int      `json:"floor_number" db:"floor_number"`
	IsActive    bool     `json:"is_active" db:"is_active"`
}

type OTSlotStatus string

const (
	OTSlotStatusAvailable   OTSlotStatus = "available"
	OTSlotStatusBooked      OTSlotStatus = "booked"
	OTSlotStatusMaintenance OTSlotStatus = "maintenance"
	OTSlotStatusBlocked     OTSlotStatus = "blocked"
)

// OTSlot is one bookable operating-theatre window in a room. A slot carries
// at most one active booking; status and booking presence must agree.
type OTSlot struct {
	Base
	RoomID    uuid.UUID    `json:"room_id" db:"room_id"`
	SlotDate  time.Time    `json:"slot_date" db:"slot_date"`
	StartTime time.Time    `json:"start_time" db:"start_time"`
	EndTime   time.Time    `json:"end_time" db:"end_time"`
	Status    OTSlotStatus `json:"status" db:"status"`
}

type OTBookingStatus string

const (
	OTBookingStatusPending   OTBookingStatus = "pending"
	OTBookingStatusApproved  OTBookingStatus = "approved"
	OTBookingStatusRejected  OTBookingStatus = "rejected"
	OTBookingStatusCompleted OTBookingStatus = "completed"
)

// OTBooking references exactly one slot and one doctor. Creation is legal
// only while the slot is available and atomically flips it to booked.
type OTBooking struct {
	Base
	OTSlotID  uuid.UUID       `json:"ot_slot_id" db:"ot_slot_id"`
	DoctorID  uuid.UUID       `json:"doctor_id" db:"doctor_id"`
	Procedure string          `json:"procedure" db:"procedure"`
	Status    OTBookingStatus `json:"status" db:"status"`
}

// IsActive reports whether the booking still occupies its slot.
func (b *OTBooking) IsActive() bool {
	return b.Status != OTBookingStatusRejected
}

type CreateRoomRequest struct {
	RoomNumber  string   `json:"room_number" validate:"required,max=50"`
	WardName    string   `json:"ward_name" validate:"required,max=100"`
	RoomType    RoomType `json:"room_type" validate:"required,oneof=general icu private semi_private"`
	BedCapacity int      `json:"bed_capacity" validate:"required,min=1"`
	FloorNumber int      `json:"floor_number" validate:"min=0"`
}

type UpdateRoomRequest struct {
	RoomNumber  *string   `json:"room_number" validate:"omitempty,max=50"`
	WardName    *string   `json:"ward_name" validate:"omitempty,max=100"`
	RoomType    *RoomType `json:"room_type" validate:"omitempty,oneof=general icu private semi_private"`
	BedCapacity *int      `json:"bed_capacity" validate:"omitempty,min=1"`
	IsActive    *bool     `json:"is_active"`
}

type CreateOTSlotRequest struct {
	RoomID    uuid.UUID `json:"room_id" validate:"required"`
	Date      string    `json:"date" validate:"required,datetime=2006-01-02"`
	StartTime string    `json:"start_time" validate:"required,datetime=15:04"`
	EndTime   string    `json:"end_time" validate:"required,datetime=15:04,gtfield=StartTime"`
}

type CreateOTBookingRequest struct {
	OTSlotID  uuid.UUID `json:"ot_slot_id" validate:"required"`
	DoctorID  uuid.UUID `json:"doctor_id" validate:"required"`
	Procedure string    `json:"procedure" validate:"required,max=255"`
}
