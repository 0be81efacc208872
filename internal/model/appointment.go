package model

import (
	"time"

	"github.com/google/uuid"
)

type AppointmentStatus string

const (
	AppointmentStatusScheduled AppointmentStatus = "scheduled"
	AppointmentStatusCompleted AppointmentStatus = "completed"
	AppointmentStatusCancelled AppointmentStatus = "cancelled"
	AppointmentStatusNoShow    AppointmentStatus = "no_show"
)

// IsTerminal reports whether no further transition may leave the status.
func (s AppointmentStatus) IsTerminal() bool {
	return s != AppointmentStatusScheduled
}

// Appointment is a non-clinical booking against one doctor. StartTime and
// EndTime are absolute instants built from AppointmentDate plus wall-clock
// times in the operating timezone; all overlap checks run over the instants.
type Appointment struct {
	Base
	DoctorID        uuid.UUID         `json:"doctor_id" db:"doctor_id"`
	PatientName     string            `json:"patient_name" db:"patient_name"`
	AppointmentDate time.Time         `json:"appointment_date" db:"appointment_date"`
	StartTime       time.Time         `json:"start_time" db:"start_time"`
	EndTime         time.Time         `json:"end_time" db:"end_time"`
	Status          AppointmentStatus `json:"status" db:"status"`
}

// IsActive reports whether the appointment still occupies its time range.
func (a *Appointment) IsActive() bool {
	return a.Status != AppointmentStatusCancelled
}

type CreateAppointmentRequest struct {
	DoctorID    uuid.UUID `json:"doctor_id" validate:"required"`
	PatientName string    `json:"patient_name" validate:"required,max=255"`
	Date        string    `json:"date" validate:"required,datetime=2006-01-02"`
	StartTime   string    `json:"start_time" validate:"required,datetime=15:04"`
	EndTime     string    `json:"end_time" validate:"required,datetime=15:04,gtfield=StartTime"`
}

type AppointmentFilters struct {
	DoctorID uuid.UUID
	Status   AppointmentStatus
	DateFrom time.Time
	DateTo   time.Time
}
