package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hackgods/facility-scheduling-core/internal/apperr"
	"github.com/hackgods/facility-scheduling-core/internal/billing"
)

func billingHandler(ledger *billing.Ledger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		patientID := chi.URLParam(r, "id")
		unpaid, total, err := ledger.Outstanding(r.Context(), patientID)
		if err != nil {
			handleError(w, err)
			return
		}

		invoices := ledger.ListInvoices(r.Context(), patientID)
		resp := BillingResponse{
			PatientID:   patientID,
			Outstanding: newAppointmentList(unpaid),
			Total:       total,
			Invoices:    make([]InvoiceResponse, 0, len(invoices)),
		}
		for _, inv := range invoices {
			resp.Invoices = append(resp.Invoices, newInvoiceResponse(inv))
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

// payBillingHandler pays one appointment when the body names it, otherwise
// everything outstanding. An empty body is allowed.
func payBillingHandler(ledger *billing.Ledger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req PayRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		patientID := chi.URLParam(r, "id")
		var (
			receipt billing.Receipt
			err     error
		)
		if req.AppointmentID != "" {
			receipt, err = ledger.PayOne(r.Context(), patientID, req.AppointmentID)
		} else {
			receipt, err = ledger.PayAll(r.Context(), patientID)
		}
		if err != nil {
			handleError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, newReceiptResponse(receipt))
	}
}

func openInvoiceHandler(ledger *billing.Ledger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req OpenInvoiceRequest
		if !decodeJSON(w, r, &req) {
			return
		}

		var due time.Time
		if req.DueDate != "" {
			d, err := time.Parse(time.DateOnly, req.DueDate)
			if err != nil {
				handleError(w, apperr.Validation("due_date must be formatted as YYYY-MM-DD"))
				return
			}
			due = d
		}

		inv, err := ledger.OpenInvoice(r.Context(), chi.URLParam(r, "id"), req.Total, due)
		if err != nil {
			handleError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, newInvoiceResponse(inv))
	}
}

func getInvoiceHandler(ledger *billing.Ledger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		inv, err := ledger.GetInvoice(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			handleError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, newInvoiceResponse(inv))
	}
}

func payInvoiceHandler(ledger *billing.Ledger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req InvoicePaymentRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		inv, err := ledger.PayInvoice(r.Context(), chi.URLParam(r, "id"), req.Amount)
		if err != nil {
			handleError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, newInvoiceResponse(inv))
	}
}
