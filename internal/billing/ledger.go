// Package billing computes outstanding balances over a patient's
// appointments and records payments against them.
package billing

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/hackgods/facility-scheduling-core/internal/apperr"
	"github.com/hackgods/facility-scheduling-core/internal/appointment"
	"github.com/hackgods/facility-scheduling-core/internal/audit"
	"github.com/hackgods/facility-scheduling-core/internal/ids"
	"github.com/hackgods/facility-scheduling-core/internal/lock"
	"github.com/hackgods/facility-scheduling-core/internal/metrics"
)

const (
	EventPaymentRecorded = "PAYMENT_RECORDED"
	EventInvoiceIssued   = "INVOICE_ISSUED"
	EventInvoicePayment  = "INVOICE_PAYMENT"
)

const DefaultInvoiceTermDays = 30

var (
	ErrNotPatientsAppointment = apperr.NotFound("appointment does not belong to patient")
	ErrLedgerBusy             = apperr.Conflict("patient account is currently being updated, please retry")
)

// Directory is the subset of the appointment repository the ledger reads.
type Directory interface {
	GetPatientByID(ctx context.Context, id string) (*appointment.Patient, error)
	GetAppointmentByID(ctx context.Context, id string) (*appointment.Appointment, error)
}

// Receipt lists the appointments a payment call newly marked as paid.
// Appointments already paid before the call are not included.
type Receipt struct {
	PatientID      string
	AppointmentIDs []string
	Amount         float64
}

type Option func(*Ledger)

func WithEvents(r *audit.Recorder) Option { return func(l *Ledger) { l.events = r } }

func WithMetrics(m *metrics.Recorder) Option { return func(l *Ledger) { l.metrics = m } }

func WithLogger(log zerolog.Logger) Option { return func(l *Ledger) { l.log = log } }

type Ledger struct {
	dir     Directory
	locker  lock.Locker
	ids     ids.Generator
	events  *audit.Recorder
	metrics *metrics.Recorder
	log     zerolog.Logger
	now     func() time.Time

	mu       sync.RWMutex
	invoices map[string]*Invoice
	order    []*Invoice
}

func NewLedger(dir Directory, locker lock.Locker, gen ids.Generator, opts ...Option) *Ledger {
	l := &Ledger{
		dir:      dir,
		locker:   locker,
		ids:      gen,
		log:      zerolog.Nop(),
		now:      time.Now,
		invoices: make(map[string]*Invoice),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func accountLockKey(patientID string) string { return "patient:" + patientID }

// Outstanding returns the patient's unpaid appointments in booking order
// and the sum of their costs.
func (l *Ledger) Outstanding(ctx context.Context, patientID string) ([]*appointment.Appointment, float64, error) {
	patient, err := l.dir.GetPatientByID(ctx, patientID)
	if err != nil {
		return nil, 0, err
	}
	var (
		unpaid []*appointment.Appointment
		total  float64
	)
	for _, a := range patient.Appointments() {
		if v := a.View(); !v.Paid {
			unpaid = append(unpaid, a)
			total += v.Cost
		}
	}
	return unpaid, total, nil
}

// PayAll marks every unpaid appointment of the patient as paid.
func (l *Ledger) PayAll(ctx context.Context, patientID string) (Receipt, error) {
	patient, err := l.dir.GetPatientByID(ctx, patientID)
	if err != nil {
		return Receipt{}, err
	}
	return l.settle(ctx, patientID, patient.Appointments())
}

// PayOne marks a single appointment of the patient as paid. Paying an
// already paid appointment succeeds with an empty receipt.
func (l *Ledger) PayOne(ctx context.Context, patientID, appointmentID string) (Receipt, error) {
	if _, err := l.dir.GetPatientByID(ctx, patientID); err != nil {
		return Receipt{}, err
	}
	appt, err := l.dir.GetAppointmentByID(ctx, appointmentID)
	if err != nil {
		return Receipt{}, err
	}
	if appt.Patient().ID() != patientID {
		return Receipt{}, ErrNotPatientsAppointment
	}
	return l.settle(ctx, patientID, []*appointment.Appointment{appt})
}

// MarkPaid pays an appointment by id alone.
func (l *Ledger) MarkPaid(ctx context.Context, appointmentID string) (Receipt, error) {
	appt, err := l.dir.GetAppointmentByID(ctx, appointmentID)
	if err != nil {
		return Receipt{}, err
	}
	return l.settle(ctx, appt.Patient().ID(), []*appointment.Appointment{appt})
}

func (l *Ledger) settle(ctx context.Context, patientID string, appts []*appointment.Appointment) (Receipt, error) {
	receipt := Receipt{PatientID: patientID}
	err := l.locker.WithLock(ctx, accountLockKey(patientID), func(lockCtx context.Context) error {
		for _, a := range appts {
			changed, amount := a.MarkPaid()
			if !changed {
				continue
			}
			receipt.AppointmentIDs = append(receipt.AppointmentIDs, a.ID())
			receipt.Amount += amount
		}
		if len(receipt.AppointmentIDs) > 0 {
			l.events.Record(lockCtx, EventPaymentRecorded, patientID, map[string]any{
				"appointment_ids": receipt.AppointmentIDs,
				"amount":          receipt.Amount,
			})
		}
		return nil
	})
	if err != nil {
		return Receipt{}, l.lockError(ctx, err)
	}

	l.metrics.Payment(ctx, len(receipt.AppointmentIDs), receipt.Amount)
	if n := len(receipt.AppointmentIDs); n > 0 {
		l.log.Info().Str("patient_id", patientID).Int("appointments", n).
			Float64("amount", receipt.Amount).Msg("payment recorded")
	}
	return receipt, nil
}

// OpenInvoice issues a cumulative invoice for the patient. A zero due time
// defaults to DefaultInvoiceTermDays after issue.
func (l *Ledger) OpenInvoice(ctx context.Context, patientID string, total float64, due time.Time) (*Invoice, error) {
	if _, err := l.dir.GetPatientByID(ctx, patientID); err != nil {
		return nil, err
	}
	issued := l.now()
	if due.IsZero() {
		due = issued.AddDate(0, 0, DefaultInvoiceTermDays)
	}
	inv, err := newInvoice(l.ids.Next(), patientID, total, issued, due)
	if err != nil {
		return nil, err
	}

	l.mu.Lock()
	l.invoices[inv.ID()] = inv
	l.order = append(l.order, inv)
	l.mu.Unlock()

	l.events.Record(ctx, EventInvoiceIssued, inv.ID(), map[string]any{
		"patient_id": patientID,
		"total":      total,
		"due_at":     due,
	})
	return inv, nil
}

func (l *Ledger) GetInvoice(_ context.Context, id string) (*Invoice, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	inv, ok := l.invoices[id]
	if !ok {
		return nil, ErrInvoiceNotFound
	}
	return inv, nil
}

func (l *Ledger) ListInvoices(_ context.Context, patientID string) []*Invoice {
	l.mu.RLock()
	defer l.mu.RUnlock()
	var out []*Invoice
	for _, inv := range l.order {
		if inv.PatientID() == patientID {
			out = append(out, inv)
		}
	}
	return out
}

// PayInvoice applies a partial payment to an invoice.
func (l *Ledger) PayInvoice(ctx context.Context, invoiceID string, amount float64) (*Invoice, error) {
	inv, err := l.GetInvoice(ctx, invoiceID)
	if err != nil {
		return nil, err
	}
	if err := inv.Pay(amount); err != nil {
		return nil, err
	}
	v := inv.View()
	l.events.Record(ctx, EventInvoicePayment, inv.ID(), map[string]any{
		"patient_id": v.PatientID,
		"amount":     amount,
		"paid":       v.Paid,
		"settled":    v.Settled,
	})
	l.metrics.Payment(ctx, 1, amount)
	return inv, nil
}

func (l *Ledger) lockError(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	if errors.Is(err, lock.ErrLockNotAcquired) {
		return ErrLedgerBusy
	}
	return err
}
