package ot

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hospitalops/scheduler-api/internal/model"
	"github.com/hospitalops/scheduler-api/internal/repository"
	"github.com/hospitalops/scheduler-api/pkg/apperror"
)

type fakeOTRepo struct {
	slots    map[uuid.UUID]*model.OTSlot
	bookings map[uuid.UUID]*model.OTBooking
}

func newFakeOTRepo() *fakeOTRepo {
	return &fakeOTRepo{
		slots:    make(map[uuid.UUID]*model.OTSlot),
		bookings: make(map[uuid.UUID]*model.OTBooking),
	}
}

func (f *fakeOTRepo) CreateSlot(ctx context.Context, slot *model.OTSlot) error {
	slot.ID = uuid.New()
	f.slots[slot.ID] = slot
	return nil
}

func (f *fakeOTRepo) GetSlot(ctx context.Context, id uuid.UUID) (*model.OTSlot, error) {
	slot, ok := f.slots[id]
	if !ok {
		return nil, apperror.NotFound("ot slot")
	}
	return slot, nil
}

func (f *fakeOTRepo) ListSlots(ctx context.Context, roomID uuid.UUID, onlyAvailable bool) ([]*model.OTSlot, error) {
	var out []*model.OTSlot
	for _, slot := range f.slots {
		if slot.RoomID != roomID {
			continue
		}
		if onlyAvailable && slot.Status != model.OTSlotStatusAvailable {
			continue
		}
		out = append(out, slot)
	}
	return out, nil
}

func (f *fakeOTRepo) GetActiveBookingForSlot(ctx context.Context, slotID uuid.UUID) (*model.OTBooking, error) {
	for _, b := range f.bookings {
		if b.OTSlotID == slotID && b.IsActive() {
			return b, nil
		}
	}
	return nil, nil
}

func (f *fakeOTRepo) Book(ctx context.Context, booking *model.OTBooking) error {
	slot, ok := f.slots[booking.OTSlotID]
	if !ok {
		return apperror.NotFound("ot slot")
	}
	if slot.Status != model.OTSlotStatusAvailable {
		return apperror.ErrSlotUnavailable
	}
	if active, _ := f.GetActiveBookingForSlot(ctx, booking.OTSlotID); active != nil {
		return apperror.ErrSlotUnavailable
	}
	booking.ID = uuid.New()
	f.bookings[booking.ID] = booking
	slot.Status = model.OTSlotStatusBooked
	return nil
}

func (f *fakeOTRepo) GetBooking(ctx context.Context, id uuid.UUID) (*model.OTBooking, error) {
	b, ok := f.bookings[id]
	if !ok {
		return nil, apperror.NotFound("ot booking")
	}
	return b, nil
}

func (f *fakeOTRepo) ListBookings(ctx context.Context, doctorID uuid.UUID) ([]*model.OTBooking, error) {
	var out []*model.OTBooking
	for _, b := range f.bookings {
		if b.DoctorID == doctorID {
			out = append(out, b)
		}
	}
	return out, nil
}

func (f *fakeOTRepo) TransitionBookingStatus(ctx context.Context, id uuid.UUID, from, to model.OTBookingStatus) error {
	b, ok := f.bookings[id]
	if !ok {
		return apperror.NotFound("ot booking")
	}
	if b.Status != from {
		return apperror.ErrInvalidStateTransition
	}
	b.Status = to
	if to == model.OTBookingStatusRejected {
		if slot, ok := f.slots[b.OTSlotID]; ok && slot.Status == model.OTSlotStatusBooked {
			slot.Status = model.OTSlotStatusAvailable
		}
	}
	return nil
}

type fakeRoomRepo struct {
	rooms map[uuid.UUID]*model.Room
}

func (f *fakeRoomRepo) Create(ctx context.Context, room *model.Room) error { return nil }

func (f *fakeRoomRepo) Get(ctx context.Context, id uuid.UUID) (*model.Room, error) {
	room, ok := f.rooms[id]
	if !ok {
		return nil, apperror.NotFound("room")
	}
	return room, nil
}

func (f *fakeRoomRepo) GetByNumber(ctx context.Context, roomNumber string) (*model.Room, error) {
	return nil, apperror.NotFound("room")
}

func (f *fakeRoomRepo) List(ctx context.Context, p model.Pagination) ([]*model.Room, error) {
	return nil, nil
}

func (f *fakeRoomRepo) Update(ctx context.Context, room *model.Room) error { return nil }

func (f *fakeRoomRepo) Delete(ctx context.Context, id uuid.UUID) error { return nil }

type fakeUserRepo struct {
	users map[uuid.UUID]*model.User
}

func (f *fakeUserRepo) Create(ctx context.Context, u *model.User) error { return nil }

func (f *fakeUserRepo) Get(ctx context.Context, id uuid.UUID) (*model.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, apperror.NotFound("user")
	}
	return u, nil
}

func (f *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	return nil, apperror.NotFound("user")
}

func (f *fakeUserRepo) List(ctx context.Context, p model.Pagination) ([]*model.User, error) {
	return nil, nil
}

func (f *fakeUserRepo) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	return nil
}

var _ repository.OTRepository = (*fakeOTRepo)(nil)
var _ repository.RoomRepository = (*fakeRoomRepo)(nil)
var _ repository.UserRepository = (*fakeUserRepo)(nil)

type fixture struct {
	svc      *Service
	repo     *fakeOTRepo
	roomID   uuid.UUID
	doctorID uuid.UUID
	slotID   uuid.UUID
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	roomID := uuid.New()
	doctorID := uuid.New()
	slotID := uuid.New()

	repo := newFakeOTRepo()
	repo.slots[slotID] = &model.OTSlot{
		Base:      model.Base{ID: slotID},
		RoomID:    roomID,
		SlotDate:  time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC),
		StartTime: time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC),
		EndTime:   time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC),
		Status:    model.OTSlotStatusAvailable,
	}

	rooms := &fakeRoomRepo{rooms: map[uuid.UUID]*model.Room{
		roomID: {Base: model.Base{ID: roomID}, RoomNumber: "OT-1", IsActive: true},
	}}
	users := &fakeUserRepo{users: map[uuid.UUID]*model.User{
		doctorID: {Base: model.Base{ID: doctorID}, Role: model.RoleDoctor, IsActive: true},
	}}

	return &fixture{
		svc:      NewService(repo, rooms, users, nil, time.UTC),
		repo:     repo,
		roomID:   roomID,
		doctorID: doctorID,
		slotID:   slotID,
	}
}

func (f *fixture) book(t *testing.T) (*model.OTBooking, error) {
	t.Helper()
	return f.svc.Book(context.Background(), &model.CreateOTBookingRequest{
		OTSlotID:  f.slotID,
		DoctorID:  f.doctorID,
		Procedure: "appendectomy",
	})
}

func TestBookAvailableSlot(t *testing.T) {
	f := newFixture(t)

	booking, err := f.book(t)
	require.NoError(t, err)
	assert.Equal(t, model.OTBookingStatusPending, booking.Status)

	slot, err := f.svc.GetSlot(context.Background(), f.slotID)
	require.NoError(t, err)
	assert.Equal(t, model.OTSlotStatusBooked, slot.Status)
}

func TestBookBookedSlotFails(t *testing.T) {
	f := newFixture(t)

	_, err := f.book(t)
	require.NoError(t, err)

	_, err = f.book(t)
	assert.ErrorIs(t, err, apperror.ErrSlotUnavailable)
}

func TestBookMaintenanceSlotFails(t *testing.T) {
	f := newFixture(t)
	f.repo.slots[f.slotID].Status = model.OTSlotStatusMaintenance

	_, err := f.book(t)
	assert.ErrorIs(t, err, apperror.ErrSlotUnavailable)
}

func TestBookUnknownDoctorFails(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Book(context.Background(), &model.CreateOTBookingRequest{
		OTSlotID:  f.slotID,
		DoctorID:  uuid.New(),
		Procedure: "appendectomy",
	})
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestRejectFreesSlot(t *testing.T) {
	f := newFixture(t)

	booking, err := f.book(t)
	require.NoError(t, err)

	require.NoError(t, f.svc.RejectBooking(context.Background(), booking.ID))

	slot, err := f.svc.GetSlot(context.Background(), f.slotID)
	require.NoError(t, err)
	assert.Equal(t, model.OTSlotStatusAvailable, slot.Status)

	// The freed slot admits a fresh booking.
	_, err = f.book(t)
	assert.NoError(t, err)
}

func TestApproveKeepsSlotBooked(t *testing.T) {
	f := newFixture(t)

	booking, err := f.book(t)
	require.NoError(t, err)

	require.NoError(t, f.svc.ApproveBooking(context.Background(), booking.ID))

	slot, err := f.svc.GetSlot(context.Background(), f.slotID)
	require.NoError(t, err)
	assert.Equal(t, model.OTSlotStatusBooked, slot.Status)
}

func TestCompleteRequiresApproved(t *testing.T) {
	f := newFixture(t)

	booking, err := f.book(t)
	require.NoError(t, err)

	err = f.svc.CompleteBooking(context.Background(), booking.ID)
	assert.ErrorIs(t, err, apperror.ErrInvalidStateTransition)

	require.NoError(t, f.svc.ApproveBooking(context.Background(), booking.ID))
	assert.NoError(t, f.svc.CompleteBooking(context.Background(), booking.ID))
}

func TestRejectedBookingIsImmutable(t *testing.T) {
	f := newFixture(t)

	booking, err := f.book(t)
	require.NoError(t, err)
	require.NoError(t, f.svc.RejectBooking(context.Background(), booking.ID))

	err = f.svc.ApproveBooking(context.Background(), booking.ID)
	assert.ErrorIs(t, err, apperror.ErrInvalidStateTransition)
}

func TestCreateSlot(t *testing.T) {
	f := newFixture(t)

	slot, err := f.svc.CreateSlot(context.Background(), &model.CreateOTSlotRequest{
		RoomID:    f.roomID,
		Date:      "2026-03-03",
		StartTime: "13:00",
		EndTime:   "15:00",
	})
	require.NoError(t, err)
	assert.Equal(t, model.OTSlotStatusAvailable, slot.Status)
	assert.True(t, slot.EndTime.After(slot.StartTime))
}

func TestCreateSlotUnknownRoomFails(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.CreateSlot(context.Background(), &model.CreateOTSlotRequest{
		RoomID:    uuid.New(),
		Date:      "2026-03-03",
		StartTime: "13:00",
		EndTime:   "15:00",
	})
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestListSlotsOnlyAvailable(t *testing.T) {
	f := newFixture(t)

	_, err := f.book(t)
	require.NoError(t, err)

	slots, err := f.svc.ListSlots(context.Background(), f.roomID, true)
	require.NoError(t, err)
	assert.Empty(t, slots)

	slots, err = f.svc.ListSlots(context.Background(), f.roomID, false)
	require.NoError(t, err)
	assert.Len(t, slots, 1)
}
