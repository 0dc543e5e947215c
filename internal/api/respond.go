package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/hackgods/facility-scheduling-core/internal/apperr"
	"github.com/hackgods/facility-scheduling-core/internal/appointment"
	"github.com/hackgods/facility-scheduling-core/internal/billing"
	"github.com/hackgods/facility-scheduling-core/internal/room"
	"github.com/hackgods/facility-scheduling-core/internal/schedule"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, details string) {
	writeJSON(w, status, ErrorResponse{Error: code, Details: details})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
		return false
	}
	return true
}

// errorCodes names the errors clients commonly branch on.
var errorCodes = []struct {
	err  error
	code string
}{
	{appointment.ErrPatientNotFound, "patient_not_found"},
	{appointment.ErrProviderNotFound, "provider_not_found"},
	{appointment.ErrAppointmentNotFound, "appointment_not_found"},
	{appointment.ErrSlotAlreadyBooked, "slot_already_booked"},
	{appointment.ErrSlotBeingBooked, "slot_being_booked"},
	{appointment.ErrInvalidStatusTransition, "invalid_status_transition"},
	{appointment.ErrInvalidDuration, "invalid_duration"},
	{schedule.ErrInvalidWeekday, "invalid_weekday"},
	{schedule.ErrNotGridPoint, "invalid_slot_time"},
	{schedule.ErrMalformedTime, "invalid_slot_time"},
	{room.ErrRoomNotFound, "room_not_found"},
	{room.ErrRoomOccupied, "room_occupied"},
	{room.ErrRoomNotOccupied, "room_not_occupied"},
	{billing.ErrNotPatientsAppointment, "appointment_not_found"},
	{billing.ErrInvoiceNotFound, "invoice_not_found"},
	{billing.ErrInvoiceSettled, "invoice_settled"},
	{billing.ErrInvalidAmount, "invalid_amount"},
}

// handleError maps an error's kind to an HTTP status.
func handleError(w http.ResponseWriter, err error) {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		writeError(w, http.StatusServiceUnavailable, "request_canceled", err.Error())
		return
	}

	code := ""
	for _, c := range errorCodes {
		if errors.Is(err, c.err) {
			code = c.code
			break
		}
	}

	status := http.StatusInternalServerError
	switch apperr.Kind(err) {
	case apperr.ErrValidation:
		status = http.StatusBadRequest
		if code == "" {
			code = "validation_error"
		}
	case apperr.ErrNotFound:
		status = http.StatusNotFound
		if code == "" {
			code = "not_found"
		}
	case apperr.ErrConflict:
		status = http.StatusConflict
		if code == "" {
			code = "conflict"
		}
	case apperr.ErrState:
		status = http.StatusConflict
		if code == "" {
			code = "invalid_state"
		}
	default:
		code = "internal_error"
	}
	writeError(w, status, code, err.Error())
}
