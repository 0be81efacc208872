package availability

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/hospitalops/scheduler-api/internal/model"
	"github.com/hospitalops/scheduler-api/internal/repository"
	"github.com/hospitalops/scheduler-api/pkg/apperror"
	"github.com/hospitalops/scheduler-api/pkg/interval"
)

// Service maintains doctors' weekly working-hour windows and answers
// whether a proposed interval falls inside them.
type Service struct {
	repo  repository.AvailabilityRepository
	users repository.UserRepository
	loc   *time.Location
}

func NewService(repo repository.AvailabilityRepository, users repository.UserRepository, loc *time.Location) *Service {
	return &Service{repo: repo, users: users, loc: loc}
}

// IsWithinWorkingHours reports whether [start, end) fits entirely inside at
// least one of the doctor's windows for the date's weekday. A doctor with no
// windows defined for that weekday is unavailable: absent authoritative data
// the answer is no.
func (s *Service) IsWithinWorkingHours(ctx context.Context, doctorID uuid.UUID, date, start, end time.Time) (bool, error) {
	windows, err := s.repo.ListForDoctorDay(ctx, doctorID, date.In(s.loc).Weekday())
	if err != nil {
		return false, fmt.Errorf("failed to load availability: %w", err)
	}
	if len(windows) == 0 {
		return false, nil
	}

	for _, w := range windows {
		winStart, winEnd, err := w.Window(date.In(s.loc), s.loc)
		if err != nil {
			return false, fmt.Errorf("malformed availability window %s: %w", w.ID, err)
		}
		if interval.Contains(winStart, winEnd, start, end) {
			return true, nil
		}
	}
	return false, nil
}

// Create adds a window for a doctor. Only an admin or the doctor themself
// may manage a doctor's windows.
func (s *Service) Create(ctx context.Context, actor model.Actor, req *model.CreateAvailabilityRequest) (*model.AvailabilityWindow, error) {
	if !actor.IsAdmin() && actor.UserID != req.DoctorID {
		return nil, apperror.ErrNotOwner
	}

	doctor, err := s.users.Get(ctx, req.DoctorID)
	if err != nil {
		return nil, err
	}
	if doctor.Role != model.RoleDoctor {
		return nil, apperror.New(apperror.CodeBadRequest, "availability windows belong to doctors")
	}

	w := &model.AvailabilityWindow{
		DoctorID:  req.DoctorID,
		DayOfWeek: time.Weekday(req.DayOfWeek),
		StartTime: req.StartTime,
		EndTime:   req.EndTime,
	}
	if err := s.repo.Create(ctx, w); err != nil {
		return nil, err
	}
	return w, nil
}

func (s *Service) Update(ctx context.Context, actor model.Actor, id uuid.UUID, req *model.UpdateAvailabilityRequest) (*model.AvailabilityWindow, error) {
	w, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.IsAdmin() && actor.UserID != w.DoctorID {
		return nil, apperror.ErrNotOwner
	}

	if req.DayOfWeek != nil {
		w.DayOfWeek = time.Weekday(*req.DayOfWeek)
	}
	if req.StartTime != nil {
		w.StartTime = *req.StartTime
	}
	if req.EndTime != nil {
		w.EndTime = *req.EndTime
	}
	if w.EndTime <= w.StartTime {
		return nil, apperror.New(apperror.CodeBadRequest, "window end must be after start")
	}

	if err := s.repo.Update(ctx, w); err != nil {
		return nil, err
	}
	return w, nil
}

func (s *Service) Delete(ctx context.Context, actor model.Actor, id uuid.UUID) error {
	w, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if !actor.IsAdmin() && actor.UserID != w.DoctorID {
		return apperror.ErrNotOwner
	}
	return s.repo.Delete(ctx, id)
}

func (s *Service) ListForDoctor(ctx context.Context, doctorID uuid.UUID) ([]*model.AvailabilityWindow, error) {
	return s.repo.ListForDoctor(ctx, doctorID)
}
