package model

import (
	"time"

	"github.com/google/uuid"
)

// ClockFormat is the wall-clock layout used for availability windows and
// appointment time fields on the wire and in the store.
const ClockFormat = "15:04"

// DateFormat is the layout for date-only fields.
const DateFormat = "2006-01-02"

// AvailabilityWindow is one weekly working-hour range for a doctor.
// Day numbering follows time.Weekday (Sunday = 0). A doctor may have several
// windows on the same day, e.g. a split morning/afternoon schedule.
type AvailabilityWindow struct {
	Base
	DoctorID  uuid.UUID    `json:"doctor_id" db:"doctor_id"`
	DayOfWeek time.Weekday `json:"day_of_week" db:"day_of_week"`
	StartTime string       `json:"start_time" db:"start_time"`
	EndTime   string       `json:"end_time" db:"end_time"`
}

// Window projects the wall-clock range onto a concrete date in loc, returning
// absolute instants so overlap arithmetic never mixes representations.
func (w *AvailabilityWindow) Window(date time.Time, loc *time.Location) (time.Time, time.Time, error) {
	start, err := CombineDateClock(date, w.StartTime, loc)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	end, err := CombineDateClock(date, w.EndTime, loc)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return start, end, nil
}

// CombineDateClock builds an absolute instant from a date and an "HH:MM"
// wall-clock value in the given location.
func CombineDateClock(date time.Time, clock string, loc *time.Location) (time.Time, error) {
	t, err := time.ParseInLocation(ClockFormat, clock, loc)
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(date.Year(), date.Month(), date.Day(), t.Hour(), t.Minute(), 0, 0, loc), nil
}

type CreateAvailabilityRequest struct {
	DoctorID  uuid.UUID `json:"doctor_id" validate:"required"`
	DayOfWeek int       `json:"day_of_week" validate:"min=0,max=6"`
	StartTime string    `json:"start_time" validate:"required,datetime=15:04"`
	EndTime   string    `json:"end_time" validate:"required,datetime=15:04,gtfield=StartTime"`
}

type UpdateAvailabilityRequest struct {
	DayOfWeek *int    `json:"day_of_week" validate:"omitempty,min=0,max=6"`
	StartTime *string `json:"start_time" validate:"omitempty,datetime=15:04"`
	EndTime   *string `json:"end_time" validate:"omitempty,datetime=15:04"`
}
