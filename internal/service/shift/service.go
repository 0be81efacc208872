package shift

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

// Service manages shifts, assignments and the swap workflow. Overlap checks
// consider only slot-occupying assignments; the storage layer repeats the
// check under per-staff locks before committing.
type Service struct {
	repo    repository.ShiftRepository
	users   repository.UserRepository
	metrics *metrics.Metrics
	loc     *time.Location
}

func NewService(repo repository.ShiftRepository, users repository.UserRepository, m *metrics.Metrics, loc *time.Location) *Service {
	return &Service{repo: repo, users: users, metrics: m, loc: loc}
}

// CreateShift builds a shift window from a date plus wall-clock bounds. A
// night shift whose end clock falls at or before its start rolls into the
// next day.
func (s *Service) CreateShift(ctx context.Context, req *model.CreateShiftRequest) (*model.Shift, error) {
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
		end = end.AddDate(0, 0, 1)
	}

	shift := &model.Shift{
		Name:      req.Name,
		ShiftType: req.ShiftType,
		StartTime: start,
		EndTime:   end,
	}
	if err := s.repo.CreateShift(ctx, shift); err != nil {
		return nil, err
	}
	return shift, nil
}

func (s *Service) GetShift(ctx context.Context, id uuid.UUID) (*model.Shift, error) {
	return s.repo.GetShift(ctx, id)
}

func (s *Service) ListShifts(ctx context.Context, p model.Pagination) ([]*model.Shift, error) {
	return s.repo.ListShifts(ctx, p)
}

func (s *Service) UpdateShift(ctx context.Context, id uuid.UUID, req *model.UpdateShiftRequest) (*model.Shift, error) {
	shift, err := s.repo.GetShift(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Name != nil {
		shift.Name = *req.Name
	}
	if req.ShiftType != nil {
		shift.ShiftType = *req.ShiftType
	}
	if req.StartTime != nil {
		shift.StartTime = *req.StartTime
	}
	if req.EndTime != nil {
		shift.EndTime = *req.EndTime
	}
	if !shift.EndTime.After(shift.StartTime) {
		return nil, apperror.New(apperror.CodeBadRequest, "end time must be after start time")
	}
	if err := s.repo.UpdateShift(ctx, shift); err != nil {
		return nil, err
	}
	return shift, nil
}

func (s *Service) DeleteShift(ctx context.Context, id uuid.UUID) error {
	return s.repo.DeleteShift(ctx, id)
}

// IsOverlapFree reports whether the staff member's slot-occupying
// assignments leave the given window clear.
func (s *Service) IsOverlapFree(ctx context.Context, staffID uuid.UUID, start, end time.Time) (bool, error) {
	existing, err := s.repo.ListActiveAssignmentsWithShifts(ctx, staffID)
	if err != nil {
		return false, fmt.Errorf("failed to load staff schedule: %w", err)
	}
	for _, a := range existing {
		if interval.Overlaps(start, end, a.ShiftStart, a.ShiftEnd) {
			return false, nil
		}
	}
	return true, nil
}

// Assign places a staff member on a shift if their schedule is clear.
func (s *Service) Assign(ctx context.Context, req *model.AssignShiftRequest) (*model.StaffShiftAssignment, error) {
	staff, err := s.users.Get(ctx, req.StaffID)
	if err != nil {
		return nil, err
	}
	if !staff.IsActive {
		return nil, apperror.New(apperror.CodeConflict, "staff member is deactivated")
	}

	shift, err := s.repo.GetShift(ctx, req.ShiftID)
	if err != nil {
		return nil, err
	}

	clear, err := s.IsOverlapFree(ctx, req.StaffID, shift.StartTime, shift.EndTime)
	if err != nil {
		return nil, err
	}
	if !clear {
		s.observeDecision(apperror.ErrShiftOverlap)
		return nil, apperror.ErrShiftOverlap
	}

	assignment := &model.StaffShiftAssignment{
		StaffID: req.StaffID,
		ShiftID: req.ShiftID,
		Status:  model.AssignmentStatusAssigned,
	}
	if err := s.repo.Assign(ctx, assignment); err != nil {
		s.observeDecision(err)
		return nil, err
	}

	s.observeDecision(nil)
	return assignment, nil
}

func (s *Service) GetAssignment(ctx context.Context, id uuid.UUID) (*model.StaffShiftAssignment, error) {
	return s.repo.GetAssignment(ctx, id)
}

// MyShifts returns every assignment carried by the staff member, regardless
// of status.
func (s *Service) MyShifts(ctx context.Context, staffID uuid.UUID) ([]*model.StaffShiftAssignment, error) {
	return s.repo.ListAssignmentsForStaff(ctx, staffID)
}

// RequestSwap opens a swap on the actor's own assignment. Admins may open a
// swap on anyone's behalf.
func (s *Service) RequestSwap(ctx context.Context, actor model.Actor, req *model.SwapRequest) error {
	assignment, err := s.repo.GetAssignment(ctx, req.AssignmentID)
	if err != nil {
		return err
	}
	if !actor.IsAdmin() && assignment.StaffID != actor.UserID {
		return apperror.ErrNotOwner
	}
	if req.TargetStaffID == assignment.StaffID {
		return apperror.New(apperror.CodeBadRequest, "cannot swap a shift with yourself")
	}

	target, err := s.users.Get(ctx, req.TargetStaffID)
	if err != nil {
		return err
	}
	if !target.IsActive {
		return apperror.New(apperror.CodeConflict, "target staff member is deactivated")
	}

	return s.repo.RequestSwap(ctx, req.AssignmentID, req.TargetStaffID)
}

// ApproveSwap hands the shift to the swap target. The target's schedule is
// re-validated against the shift window at approval time, whatever it looked
// like when the swap was requested; an overlap aborts the approval and the
// request stays open.
func (s *Service) ApproveSwap(ctx context.Context, assignmentID uuid.UUID) (*model.StaffShiftAssignment, error) {
	newAssignment, err := s.repo.ApproveSwap(ctx, assignmentID)
	if err != nil {
		s.observeDecision(err)
		return nil, err
	}
	s.observeDecision(nil)
	return newAssignment, nil
}

// RejectSwap reverts the assignment to its original holder.
func (s *Service) RejectSwap(ctx context.Context, assignmentID uuid.UUID) error {
	return s.repo.RejectSwap(ctx, assignmentID)
}

func (s *Service) observeDecision(err error) {
	if s.metrics == nil {
		return
	}
	outcome := "admitted"
	if err != nil {
		outcome = "rejected"
	}
	s.metrics.BookingDecisions.WithLabelValues("shift", outcome).Inc()
	if errors.Is(err, apperror.ErrShiftOverlap) {
		s.metrics.SchedulingConflict.WithLabelValues("shift_overlap").Inc()
	}
}
