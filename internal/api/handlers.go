package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/hackgods/facility-scheduling-core/internal/appointment"
	"github.com/hackgods/facility-scheduling-core/internal/billing"
	"github.com/hackgods/facility-scheduling-core/internal/party"
	"github.com/hackgods/facility-scheduling-core/internal/schedule"
)

func listProvidersHandler(svc *appointment.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		providers, err := svc.ListProviders(r.Context())
		if err != nil {
			handleError(w, err)
			return
		}
		out := make([]ProviderResponse, 0, len(providers))
		for _, p := range providers {
			out = append(out, newProviderResponse(p))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func listPatientsHandler(svc *appointment.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		patients, err := svc.ListPatients(r.Context())
		if err != nil {
			handleError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, newPatientList(patients))
	}
}

func newPatientList(patients []*appointment.Patient) []PatientResponse {
	out := make([]PatientResponse, 0, len(patients))
	for _, p := range patients {
		out = append(out, newPatientResponse(p))
	}
	return out
}

func listSlotsHandler(svc *appointment.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		providerID := chi.URLParam(r, "id")
		day, err := schedule.ParseWeekday(r.URL.Query().Get("weekday"))
		if err != nil {
			handleError(w, err)
			return
		}

		slots, err := svc.ListAvailableSlots(r.Context(), providerID, day)
		if err != nil {
			handleError(w, err)
			return
		}

		resp := SlotsResponse{ProviderID: providerID, Weekday: day.String(), Slots: make([]string, 0, len(slots))}
		for _, s := range slots {
			resp.Slots = append(resp.Slots, s.String())
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func providerAppointmentsHandler(svc *appointment.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		appts, err := svc.ListAppointmentsByProvider(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			handleError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, newAppointmentList(appts))
	}
}

func providerPatientsHandler(svc *appointment.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		patients, err := svc.ListProviderPatients(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			handleError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, newPatientList(patients))
	}
}

func patientAppointmentsHandler(svc *appointment.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		appts, err := svc.ListAppointmentsByPatient(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			handleError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, newAppointmentList(appts))
	}
}

func createAppointmentHandler(svc *appointment.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CreateAppointmentRequest
		if !decodeJSON(w, r, &req) {
			return
		}

		day, err := schedule.ParseWeekday(req.Weekday)
		if err != nil {
			handleError(w, err)
			return
		}
		at, err := schedule.ParseTimeOfDay(req.Time)
		if err != nil {
			handleError(w, err)
			return
		}

		appt, err := svc.CreateAppointment(r.Context(), req.PatientID, req.ProviderID, day, at)
		if err != nil {
			handleError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, newAppointmentResponse(appt))
	}
}

func getAppointmentHandler(svc *appointment.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		appt, err := svc.GetAppointment(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			handleError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, newAppointmentResponse(appt))
	}
}

func setStatusHandler(svc *appointment.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req SetStatusRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		target, err := appointment.ParseStatus(req.Status)
		if err != nil {
			handleError(w, err)
			return
		}

		appt, err := svc.SetAppointmentStatus(r.Context(), chi.URLParam(r, "id"), target)
		if err != nil {
			handleError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, newAppointmentResponse(appt))
	}
}

func setDurationHandler(svc *appointment.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req SetDurationRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		appt, err := svc.SetAppointmentDuration(r.Context(), chi.URLParam(r, "id"), req.Minutes)
		if err != nil {
			handleError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, newAppointmentResponse(appt))
	}
}

func payAppointmentHandler(svc *appointment.Service, ledger *billing.Ledger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if _, err := ledger.MarkPaid(r.Context(), id); err != nil {
			handleError(w, err)
			return
		}
		appt, err := svc.GetAppointment(r.Context(), id)
		if err != nil {
			handleError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, newAppointmentResponse(appt))
	}
}

func createPatientHandler(svc *appointment.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CreatePatientRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		if req.ID == "" {
			req.ID = uuid.NewString()
		}
		p, err := svc.RegisterPatient(r.Context(), party.Identity{
			ID:        req.ID,
			FirstName: req.FirstName,
			LastName:  req.LastName,
			Role:      party.RolePatient,
		})
		if err != nil {
			handleError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, newPatientResponse(p))
	}
}

func createProviderHandler(svc *appointment.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CreateProviderRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		if req.ID == "" {
			req.ID = uuid.NewString()
		}
		p, err := svc.RegisterProvider(r.Context(), party.Identity{
			ID:        req.ID,
			FirstName: req.FirstName,
			LastName:  req.LastName,
			Role:      party.RoleProvider,
		}, appointment.ProviderOptions{
			Specialty:    req.Specialty,
			Department:   req.Department,
			VariableFee:  req.VariableFee,
			PerMinuteFee: req.PerMinuteFee,
		})
		if err != nil {
			handleError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, newProviderResponse(p))
	}
}
