package ot

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/hospitalops/scheduler-api/internal/model"
	"github.com/hospitalops/scheduler-api/internal/repository"
	"github.com/hospitalops/scheduler-api/pkg/apperror"
	"github.com/hospitalops/scheduler-api/pkg/metrics"
)

// Service manages operating-theatre slots and their bookings. A slot carries
// at most one active booking; the storage layer holds that invariant under a
// row lock while this layer performs the readable pre-checks and lifecycle
// rules.
type Service struct {
	repo    repository.OTRepository
	rooms   repository.RoomRepository
	users   repository.UserRepository
	metrics *metrics.Metrics
	loc     *time.Location
}

func NewService(repo repository.OTRepository, rooms repository.RoomRepository, users repository.UserRepository, m *metrics.Metrics, loc *time.Location) *Service {
	return &Service{repo: repo, rooms: rooms, users: users, metrics: m, loc: loc}
}

// IsSlotBookable reports whether the slot currently admits a new booking.
// The answer is advisory; Book re-checks under a lock before committing.
func (s *Service) IsSlotBookable(ctx context.Context, slotID uuid.UUID) (bool, error) {
	slot, err := s.repo.GetSlot(ctx, slotID)
	if err != nil {
		return false, err
	}
	if slot.Status != model.OTSlotStatusAvailable {
		return false, nil
	}
	active, err := s.repo.GetActiveBookingForSlot(ctx, slotID)
	if err != nil {
		return false, err
	}
	return active == nil, nil
}

// Book places a pending booking on an available slot. Contention between
// concurrent requests for the same slot resolves to exactly one winner; the
// losers receive ErrSlotUnavailable.
func (s *Service) Book(ctx context.Context, req *model.CreateOTBookingRequest) (*model.OTBooking, error) {
	doctor, err := s.users.Get(ctx, req.DoctorID)
	if err != nil {
		return nil, err
	}
	if doctor.Role != model.RoleDoctor {
		return nil, apperror.NotFound("doctor")
	}

	bookable, err := s.IsSlotBookable(ctx, req.OTSlotID)
	if err != nil {
		return nil, err
	}
	if !bookable {
		s.observeDecision(apperror.ErrSlotUnavailable)
		return nil, apperror.ErrSlotUnavailable
	}

	booking := &model.OTBooking{
		OTSlotID:  req.OTSlotID,
		DoctorID:  req.DoctorID,
		Procedure: req.Procedure,
		Status:    model.OTBookingStatusPending,
	}
	if err := s.repo.Book(ctx, booking); err != nil {
		s.observeDecision(err)
		return nil, err
	}

	s.observeDecision(nil)
	return booking, nil
}

func (s *Service) GetBooking(ctx context.Context, id uuid.UUID) (*model.OTBooking, error) {
	return s.repo.GetBooking(ctx, id)
}

func (s *Service) ListBookings(ctx context.Context, doctorID uuid.UUID) ([]*model.OTBooking, error) {
	return s.repo.ListBookings(ctx, doctorID)
}

// ApproveBooking confirms a pending booking. The slot stays booked.
func (s *Service) ApproveBooking(ctx context.Context, id uuid.UUID) error {
	return s.repo.TransitionBookingStatus(ctx, id, model.OTBookingStatusPending, model.OTBookingStatusApproved)
}

// RejectBooking declines a pending booking and frees its slot in the same
// transaction, so the slot is immediately bookable again.
func (s *Service) RejectBooking(ctx context.Context, id uuid.UUID) error {
	return s.repo.TransitionBookingStatus(ctx, id, model.OTBookingStatusPending, model.OTBookingStatusRejected)
}

// CompleteBooking closes out an approved booking after the procedure.
func (s *Service) CompleteBooking(ctx context.Context, id uuid.UUID) error {
	return s.repo.TransitionBookingStatus(ctx, id, model.OTBookingStatusApproved, model.OTBookingStatusCompleted)
}

// CreateSlot opens a new bookable window in a room.
func (s *Service) CreateSlot(ctx context.Context, req *model.CreateOTSlotRequest) (*model.OTSlot, error) {
	if _, err := s.rooms.Get(ctx, req.RoomID); err != nil {
		return nil, err
	}

	date, err := time.ParseInLocation(model.DateFormat, req.Date, s.loc)
	if err != nil {
		return nil, apperror.New(apperror.CodeBadRequest, "invalid date")
	}
	start, err := model.CombineDateClock(date, req.StartTime, s.loc)
	if err != nil {
		return nil, apperror.New(apperror.CodeBadRequest, "invalid start time")
	}
	end, err := model.CombineDateClock(date, req.EndTime, s.loc)
	if err != nil {
		return nil, apperror.New(apperror.CodeBadRequest, "invalid end time")
	}
	if !end.After(start) {
		return nil, apperror.New(apperror.CodeBadRequest, "end time must be after start time")
	}

	slot := &model.OTSlot{
		RoomID:    req.RoomID,
		SlotDate:  date,
		StartTime: start,
		EndTime:   end,
		Status:    model.OTSlotStatusAvailable,
	}
	if err := s.repo.CreateSlot(ctx, slot); err != nil {
		return nil, err
	}
	return slot, nil
}

func (s *Service) GetSlot(ctx context.Context, id uuid.UUID) (*model.OTSlot, error) {
	return s.repo.GetSlot(ctx, id)
}

func (s *Service) ListSlots(ctx context.Context, roomID uuid.UUID, onlyAvailable bool) ([]*model.OTSlot, error) {
	return s.repo.ListSlots(ctx, roomID, onlyAvailable)
}

func (s *Service) observeDecision(err error) {
	if s.metrics == nil {
		return
	}
	outcome := "admitted"
	if err != nil {
		outcome = "rejected"
	}
	s.metrics.BookingDecisions.WithLabelValues("ot_slot", outcome).Inc()
	if errors.Is(err, apperror.ErrSlotUnavailable) {
		s.metrics.SchedulingConflict.WithLabelValues("slot_unavailable").Inc()
	}
}
