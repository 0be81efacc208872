package appointment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/hospitalops/scheduler-api/internal/model"
	"github.com/hospitalops/scheduler-api/internal/repository"
	"github.com/hospitalops/scheduler-api/pkg/apperror"
	"github.com/hospitalops/scheduler-api/pkg/interval"
	"github.com/hospitalops/scheduler-api/pkg/metrics"
)

// HoursChecker answers whether an interval sits inside a doctor's working
// hours.
type HoursChecker interface {
	IsWithinWorkingHours(ctx context.Context, doctorID uuid.UUID, date, start, end time.Time) (bool, error)
}

// Service is the admission gate for appointments: it validates a proposed
// booking against availability and existing active appointments, and drives
// the status lifecycle. Validation itself never mutates state; the storage
// layer closes the validate-then-insert race.
type Service struct {
	repo    repository.AppointmentRepository
	users   repository.UserRepository
	hours   HoursChecker
	metrics *metrics.Metrics
	loc     *time.Location
	now     func() time.Time
}

func NewService(repo repository.AppointmentRepository, users repository.UserRepository, hours HoursChecker, m *metrics.Metrics, loc *time.Location) *Service {
	return &Service{
		repo:    repo,
		users:   users,
		hours:   hours,
		metrics: m,
		loc:     loc,
		now:     time.Now,
	}
}

// Validate reports whether the proposed appointment is admissible. It
// returns nil when admissible, or the first matching typed conflict.
func (s *Service) Validate(ctx context.Context, actor model.Actor, doctorID uuid.UUID, date, start, end time.Time) error {
	doctor, err := s.users.Get(ctx, doctorID)
	if err != nil {
		return err
	}
	if doctor.Role != model.RoleDoctor {
		return apperror.NotFound("doctor")
	}

	// Back-dated corrections are an admin prerogative.
	if !actor.IsAdmin() {
		today := startOfDay(s.now().In(s.loc))
		if startOfDay(date.In(s.loc)).Before(today) {
			return apperror.ErrPastDate
		}
	}

	within, err := s.hours.IsWithinWorkingHours(ctx, doctorID, date, start, end)
	if err != nil {
		return err
	}
	if !within {
		return apperror.ErrDoctorUnavailable
	}

	existing, err := s.repo.ListActiveForDoctorDate(ctx, doctorID, date)
	if err != nil {
		return fmt.Errorf("failed to load existing appointments: %w", err)
	}
	for _, apt := range existing {
		if interval.Overlaps(start, end, apt.StartTime, apt.EndTime) {
			return apperror.ErrAppointmentOverlap
		}
	}

	return nil
}

// Create validates and commits a new appointment.
func (s *Service) Create(ctx context.Context, actor model.Actor, req *model.CreateAppointmentRequest) (*model.Appointment, error) {
	date, start, end, err := s.resolveTimes(req.Date, req.StartTime, req.EndTime)
	if err != nil {
		return nil, err
	}

	if err := s.Validate(ctx, actor, req.DoctorID, date, start, end); err != nil {
		s.observeDecision("appointment", err)
		return nil, err
	}

	apt := &model.Appointment{
		DoctorID:        req.DoctorID,
		PatientName:     req.PatientName,
		AppointmentDate: date,
		StartTime:       start,
		EndTime:         end,
		Status:          model.AppointmentStatusScheduled,
	}
	if err := s.repo.Create(ctx, apt); err != nil {
		s.observeDecision("appointment", err)
		return nil, err
	}

	s.observeDecision("appointment", nil)
	return apt, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*model.Appointment, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) List(ctx context.Context, filters *model.AppointmentFilters) ([]*model.Appointment, error) {
	return s.repo.List(ctx, filters)
}

func (s *Service) ListForDoctor(ctx context.Context, doctorID uuid.UUID) ([]*model.Appointment, error) {
	return s.repo.List(ctx, &model.AppointmentFilters{DoctorID: doctorID})
}

// Cancel, Complete and MarkNoShow each leave the Scheduled state; all three
// targets are terminal and no edge leaves a terminal state.

func (s *Service) Cancel(ctx context.Context, id uuid.UUID) error {
	return s.repo.TransitionStatus(ctx, id, model.AppointmentStatusScheduled, model.AppointmentStatusCancelled)
}

func (s *Service) Complete(ctx context.Context, id uuid.UUID) error {
	return s.repo.TransitionStatus(ctx, id, model.AppointmentStatusScheduled, model.AppointmentStatusCompleted)
}

func (s *Service) MarkNoShow(ctx context.Context, id uuid.UUID) error {
	return s.repo.TransitionStatus(ctx, id, model.AppointmentStatusScheduled, model.AppointmentStatusNoShow)
}

// resolveTimes builds absolute instants from the wire format: a date plus
// wall-clock start and end in the operating timezone.
func (s *Service) resolveTimes(dateStr, startStr, endStr string) (date, start, end time.Time, err error) {
	date, err = time.ParseInLocation(model.DateFormat, dateStr, s.loc)
	if err != nil {
		return time.Time{}, time.Time{}, time.Time{}, apperror.New(apperror.CodeBadRequest, "invalid date")
	}
	start, err = model.CombineDateClock(date, startStr, s.loc)
	if err != nil {
		return time.Time{}, time.Time{}, time.Time{}, apperror.New(apperror.CodeBadRequest, "invalid start time")
	}
	end, err = model.CombineDateClock(date, endStr, s.loc)
	if err != nil {
		return time.Time{}, time.Time{}, time.Time{}, apperror.New(apperror.CodeBadRequest, "invalid end time")
	}
	if !end.After(start) {
		return time.Time{}, time.Time{}, time.Time{}, apperror.New(apperror.CodeBadRequest, "end time must be after start time")
	}
	return date, start, end, nil
}

func (s *Service) observeDecision(resource string, err error) {
	if s.metrics == nil {
		return
	}
	outcome := "admitted"
	if err != nil {
		outcome = "rejected"
	}
	s.metrics.BookingDecisions.WithLabelValues(resource, outcome).Inc()
	if err != nil {
		s.metrics.SchedulingConflict.WithLabelValues(conflictLabel(err)).Inc()
	}
}

func conflictLabel(err error) string {
	switch {
	case errors.Is(err, apperror.ErrDoctorUnavailable):
		return "doctor_unavailable"
	case errors.Is(err, apperror.ErrAppointmentOverlap):
		return "appointment_overlap"
	case errors.Is(err, apperror.ErrPastDate):
		return "past_date"
	default:
		return "other"
	}
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
