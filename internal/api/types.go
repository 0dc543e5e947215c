package api

import (
	"time"

	"github.com/hackgods/facility-scheduling-core/internal/appointment"
	"github.com/hackgods/facility-scheduling-core/internal/billing"
	"github.com/hackgods/facility-scheduling-core/internal/room"
)

type CreateAppointmentRequest struct {
	PatientID  string `json:"patient_id"`
	ProviderID string `json:"provider_id"`
	Weekday    string `json:"weekday"`
	Time       string `json:"time"`
}

type SetStatusRequest struct {
	Status string `json:"status"`
}

type SetDurationRequest struct {
	Minutes int `json:"minutes"`
}

type PayRequest struct {
	AppointmentID string `json:"appointment_id,omitempty"`
}

type OpenInvoiceRequest struct {
	Total   float64 `json:"total"`
	DueDate string  `json:"due_date,omitempty"`
}

type InvoicePaymentRequest struct {
	Amount float64 `json:"amount"`
}

type AssignRoomRequest struct {
	PatientID string `json:"patient_id"`
}

type SetCapacityRequest struct {
	Capacity int `json:"capacity"`
}

type AppointmentResponse struct {
	ID              string  `json:"id"`
	PatientID       string  `json:"patient_id"`
	ProviderID      string  `json:"provider_id"`
	Weekday         string  `json:"weekday"`
	Time            string  `json:"time"`
	Date            string  `json:"date"`
	Status          string  `json:"status"`
	DurationMinutes int     `json:"duration_minutes"`
	Cost            float64 `json:"cost"`
	Paid            bool    `json:"paid"`
}

func newAppointmentResponse(a *appointment.Appointment) AppointmentResponse {
	v := a.View()
	return AppointmentResponse{
		ID:              v.ID,
		PatientID:       v.PatientID,
		ProviderID:      v.ProviderID,
		Weekday:         v.Instant.Day.String(),
		Time:            v.Instant.At.String(),
		Date:            v.Date.Format(time.DateOnly),
		Status:          string(v.Status),
		DurationMinutes: v.DurationMinutes,
		Cost:            v.Cost,
		Paid:            v.Paid,
	}
}

func newAppointmentList(appts []*appointment.Appointment) []AppointmentResponse {
	out := make([]AppointmentResponse, 0, len(appts))
	for _, a := range appts {
		out = append(out, newAppointmentResponse(a))
	}
	return out
}

type SlotsResponse struct {
	ProviderID string   `json:"provider_id"`
	Weekday    string   `json:"weekday"`
	Slots      []string `json:"slots"`
}

type ProviderResponse struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	Specialty    string  `json:"specialty,omitempty"`
	Department   string  `json:"department,omitempty"`
	VariableFee  bool    `json:"variable_fee"`
	PerMinuteFee float64 `json:"per_minute_fee,omitempty"`
}

func newProviderResponse(p *appointment.Provider) ProviderResponse {
	resp := ProviderResponse{
		ID:          p.ID(),
		Name:        p.Identity().FullName(),
		Specialty:   p.Specialty(),
		Department:  p.Department(),
		VariableFee: p.ChargesVariableFee(),
	}
	if resp.VariableFee {
		resp.PerMinuteFee = p.PerMinuteFee()
	}
	return resp
}

type PatientResponse struct {
	ID                 string  `json:"id"`
	Name               string  `json:"name"`
	OutstandingBalance float64 `json:"outstanding_balance"`
}

func newPatientResponse(p *appointment.Patient) PatientResponse {
	return PatientResponse{
		ID:                 p.ID(),
		Name:               p.Identity().FullName(),
		OutstandingBalance: p.OutstandingBalance(),
	}
}

type BillingResponse struct {
	PatientID   string                `json:"patient_id"`
	Outstanding []AppointmentResponse `json:"outstanding"`
	Total       float64               `json:"total"`
	Invoices    []InvoiceResponse     `json:"invoices"`
}

type ReceiptResponse struct {
	PatientID      string   `json:"patient_id"`
	AppointmentIDs []string `json:"appointment_ids"`
	Amount         float64  `json:"amount"`
}

func newReceiptResponse(r billing.Receipt) ReceiptResponse {
	ids := r.AppointmentIDs
	if ids == nil {
		ids = []string{}
	}
	return ReceiptResponse{PatientID: r.PatientID, AppointmentIDs: ids, Amount: r.Amount}
}

type InvoiceResponse struct {
	ID        string    `json:"id"`
	PatientID string    `json:"patient_id"`
	Total     float64   `json:"total"`
	Paid      float64   `json:"paid"`
	Remaining float64   `json:"remaining"`
	Settled   bool      `json:"settled"`
	IssuedAt  time.Time `json:"issued_at"`
	DueDate   string    `json:"due_date"`
}

func newInvoiceResponse(inv *billing.Invoice) InvoiceResponse {
	v := inv.View()
	return InvoiceResponse{
		ID:        v.ID,
		PatientID: v.PatientID,
		Total:     v.Total,
		Paid:      v.Paid,
		Remaining: v.Remaining,
		Settled:   v.Settled,
		IssuedAt:  v.IssuedAt,
		DueDate:   v.DueAt.Format(time.DateOnly),
	}
}

type RoomResponse struct {
	ID            string     `json:"id"`
	Type          string     `json:"type"`
	Capacity      int        `json:"capacity"`
	HourlyRate    float64    `json:"hourly_rate"`
	Equipment     string     `json:"equipment"`
	Available     bool       `json:"available"`
	OccupantID    string     `json:"occupant_id,omitempty"`
	OccupiedSince *time.Time `json:"occupied_since,omitempty"`
}

func newRoomResponse(r *room.Room) RoomResponse {
	v := r.View()
	resp := RoomResponse{
		ID:         v.ID,
		Type:       v.Type,
		Capacity:   v.Capacity,
		HourlyRate: v.HourlyRate,
		Equipment:  v.Equipment,
		Available:  v.Available,
		OccupantID: v.OccupantID,
	}
	if !v.Available {
		since := v.OccupiedSince
		resp.OccupiedSince = &since
	}
	return resp
}

type StayResponse struct {
	RoomID    string    `json:"room_id"`
	PatientID string    `json:"patient_id"`
	Since     time.Time `json:"since"`
	Until     time.Time `json:"until"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

type CreatePatientRequest struct {
	ID        string `json:"id,omitempty"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

type CreateProviderRequest struct {
	ID           string  `json:"id,omitempty"`
	FirstName    string  `json:"first_name"`
	LastName     string  `json:"last_name"`
	Specialty    string  `json:"specialty,omitempty"`
	Department   string  `json:"department,omitempty"`
	VariableFee  bool    `json:"variable_fee"`
	PerMinuteFee float64 `json:"per_minute_fee,omitempty"`
}
