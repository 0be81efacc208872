package api_test

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// nextMonday returns a Monday far enough in the future for booking tests.
func nextMonday() time.Time {
	d := time.Now().AddDate(0, 0, 7)
	for d.Weekday() != time.Monday {
		d = d.AddDate(0, 0, 1)
	}
	return d
}

func createUser(t *testing.T, role string) string {
	t.Helper()
	resp := makeRequest("POST", "/users", map[string]interface{}{
		"email":     fmt.Sprintf("%s_%d@hospital.test", role, time.Now().UnixNano()),
		"full_name": "Test " + role,
		"password":  "sw0rdfish-42",
		"role":      role,
	}, authToken)
	require.True(t, resp.IsSuccess(), "failed to create %s: %s", role, resp.Message)
	return resp.GetString("id")
}

func TestAppointmentFlow(t *testing.T) {
	requireServer(t)

	doctorID := createUser(t, "doctor")
	date := nextMonday().Format("2006-01-02")

	availResp := makeRequest("POST", "/availability", map[string]interface{}{
		"doctor_id":   doctorID,
		"day_of_week": 1,
		"start_time":  "09:00",
		"end_time":    "17:00",
	}, authToken)
	require.True(t, availResp.IsSuccess(), "failed to create availability: %s", availResp.Message)

	createResp := makeRequest("POST", "/appointments", map[string]interface{}{
		"doctor_id":    doctorID,
		"patient_name": "Jordan Lee",
		"date":         date,
		"start_time":   "10:00",
		"end_time":     "11:00",
	}, authToken)
	require.True(t, createResp.IsSuccess(), "failed to create appointment: %s", createResp.Message)
	appointmentID := createResp.GetString("id")
	assert.Equal(t, "scheduled", createResp.GetString("status"))

	// Overlapping slot for the same doctor must be rejected.
	overlapResp := makeRequest("POST", "/appointments", map[string]interface{}{
		"doctor_id":    doctorID,
		"patient_name": "Casey Morgan",
		"date":         date,
		"start_time":   "10:30",
		"end_time":     "11:30",
	}, authToken)
	assert.False(t, overlapResp.IsSuccess(), "overlapping appointment should be rejected")

	// A slot touching the boundary is admissible.
	boundaryResp := makeRequest("POST", "/appointments", map[string]interface{}{
		"doctor_id":    doctorID,
		"patient_name": "Casey Morgan",
		"date":         date,
		"start_time":   "11:00",
		"end_time":     "12:00",
	}, authToken)
	assert.True(t, boundaryResp.IsSuccess(), "boundary appointment should be admitted: %s", boundaryResp.Message)

	// Outside working hours.
	earlyResp := makeRequest("POST", "/appointments", map[string]interface{}{
		"doctor_id":    doctorID,
		"patient_name": "Casey Morgan",
		"date":         date,
		"start_time":   "07:00",
		"end_time":     "08:00",
	}, authToken)
	assert.False(t, earlyResp.IsSuccess(), "appointment outside working hours should be rejected")

	// Cancelling frees the slot for rebooking.
	cancelResp := makeRequest("POST", "/appointments/"+appointmentID+"/cancel", nil, authToken)
	require.True(t, cancelResp.IsSuccess(), "failed to cancel: %s", cancelResp.Message)

	rebookResp := makeRequest("POST", "/appointments", map[string]interface{}{
		"doctor_id":    doctorID,
		"patient_name": "Riley Chen",
		"date":         date,
		"start_time":   "10:00",
		"end_time":     "11:00",
	}, authToken)
	assert.True(t, rebookResp.IsSuccess(), "cancelled slot should be rebookable: %s", rebookResp.Message)
}

func TestOTBookingFlow(t *testing.T) {
	requireServer(t)

	doctorID := createUser(t, "doctor")

	roomResp := makeRequest("POST", "/rooms", map[string]interface{}{
		"room_number":  fmt.Sprintf("OT-%d", time.Now().UnixNano()),
		"ward_name":    "Surgical",
		"room_type":    "general",
		"bed_capacity": 1,
		"floor_number": 2,
	}, authToken)
	require.True(t, roomResp.IsSuccess(), "failed to create room: %s", roomResp.Message)
	roomID := roomResp.GetString("id")

	slotResp := makeRequest("POST", "/ot-slots", map[string]interface{}{
		"room_id":    roomID,
		"date":       nextMonday().Format("2006-01-02"),
		"start_time": "08:00",
		"end_time":   "12:00",
	}, authToken)
	require.True(t, slotResp.IsSuccess(), "failed to create slot: %s", slotResp.Message)
	slotID := slotResp.GetString("id")

	bookResp := makeRequest("POST", "/ot-slots/book", map[string]interface{}{
		"ot_slot_id": slotID,
		"doctor_id":  doctorID,
		"procedure":  "appendectomy",
	}, authToken)
	require.True(t, bookResp.IsSuccess(), "failed to book slot: %s", bookResp.Message)
	bookingID := bookResp.GetString("id")
	assert.Equal(t, "pending", bookResp.GetString("status"))

	// Second booking of the same slot must lose.
	doubleResp := makeRequest("POST", "/ot-slots/book", map[string]interface{}{
		"ot_slot_id": slotID,
		"doctor_id":  doctorID,
		"procedure":  "appendectomy",
	}, authToken)
	assert.False(t, doubleResp.IsSuccess(), "double booking should be rejected")

	approveResp := makeRequest("POST", "/ot-bookings/"+bookingID+"/approve", nil, authToken)
	assert.True(t, approveResp.IsSuccess(), "failed to approve booking: %s", approveResp.Message)

	completeResp := makeRequest("POST", "/ot-bookings/"+bookingID+"/complete", nil, authToken)
	assert.True(t, completeResp.IsSuccess(), "failed to complete booking: %s", completeResp.Message)
}

func TestShiftSwapFlow(t *testing.T) {
	requireServer(t)

	staffA := createUser(t, "staff")
	staffB := createUser(t, "staff")
	date := nextMonday().Format("2006-01-02")

	shiftResp := makeRequest("POST", "/shifts", map[string]interface{}{
		"name":       fmt.Sprintf("Morning %d", time.Now().UnixNano()),
		"shift_type": "morning",
		"date":       date,
		"start_time": "07:00",
		"end_time":   "15:00",
	}, authToken)
	require.True(t, shiftResp.IsSuccess(), "failed to create shift: %s", shiftResp.Message)
	shiftID := shiftResp.GetString("id")

	assignResp := makeRequest("POST", "/shifts/assign", map[string]interface{}{
		"staff_id": staffA,
		"shift_id": shiftID,
	}, authToken)
	require.True(t, assignResp.IsSuccess(), "failed to assign shift: %s", assignResp.Message)
	assignmentID := assignResp.GetString("id")

	// Assigning the same staff member an overlapping shift must fail.
	dupAssignResp := makeRequest("POST", "/shifts/assign", map[string]interface{}{
		"staff_id": staffA,
		"shift_id": shiftID,
	}, authToken)
	assert.False(t, dupAssignResp.IsSuccess(), "overlapping assignment should be rejected")

	swapResp := makeRequest("POST", "/shifts/swap-request", map[string]interface{}{
		"assignment_id":   assignmentID,
		"target_staff_id": staffB,
	}, authToken)
	require.True(t, swapResp.IsSuccess(), "failed to request swap: %s", swapResp.Message)

	approveResp := makeRequest("POST", "/shifts/swap/"+assignmentID+"/approve", nil, authToken)
	require.True(t, approveResp.IsSuccess(), "failed to approve swap: %s", approveResp.Message)
	assert.Equal(t, staffB, approveResp.GetString("staff_id"))
	assert.Equal(t, "assigned", approveResp.GetString("status"))
}

func TestAppointmentRoleGuards(t *testing.T) {
	requireServer(t)

	email := fmt.Sprintf("staff_%d@hospital.test", time.Now().UnixNano())
	createResp := makeRequest("POST", "/users", map[string]interface{}{
		"email":     email,
		"full_name": "Test staff",
		"password":  "sw0rdfish-42",
		"role":      "staff",
	}, authToken)
	require.True(t, createResp.IsSuccess(), "failed to create staff: %s", createResp.Message)

	loginResp := makeRequest("POST", "/auth/login", map[string]interface{}{
		"email":    email,
		"password": "sw0rdfish-42",
	}, "")
	require.True(t, loginResp.IsSuccess(), "failed to login as staff: %s", loginResp.Message)
	staffToken := loginResp.GetString("access_token")

	doctorID := createUser(t, "doctor")
	date := nextMonday().Format("2006-01-02")

	bookResp := makeRequest("POST", "/appointments", map[string]interface{}{
		"doctor_id":    doctorID,
		"patient_name": "Jordan Lee",
		"date":         date,
		"start_time":   "10:00",
		"end_time":     "11:00",
	}, staffToken)
	assert.False(t, bookResp.IsSuccess(), "staff should not create appointments")

	listResp := makeRequest("GET", "/appointments", nil, staffToken)
	assert.False(t, listResp.IsSuccess(), "staff should not list appointments")
}
