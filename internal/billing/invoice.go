package billing

import (
	"sync"
	"time"

	"github.com/hackgods/facility-scheduling-core/internal/apperr"
)

var (
	ErrInvalidAmount   = apperr.Validation("amount must be positive")
	ErrInvoiceSettled  = apperr.State("invoice is already settled")
	ErrInvoiceNotFound = apperr.NotFound("invoice not found")
)

// Invoice accumulates partial payments until the total is covered. It is
// independent of the per-appointment paid flag.
type Invoice struct {
	id        string
	patientID string
	total     float64
	due       time.Time
	issued    time.Time

	mu      sync.Mutex
	paid    float64
	settled bool
}

func newInvoice(id, patientID string, total float64, issued, due time.Time) (*Invoice, error) {
	if total <= 0 {
		return nil, ErrInvalidAmount
	}
	return &Invoice{id: id, patientID: patientID, total: total, issued: issued, due: due}, nil
}

func (i *Invoice) ID() string        { return i.id }
func (i *Invoice) PatientID() string { return i.patientID }

// Pay adds amount to the running total and settles the invoice once the
// total is reached.
func (i *Invoice) Pay(amount float64) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.settled {
		return ErrInvoiceSettled
	}
	i.paid += amount
	if i.paid >= i.total {
		i.settled = true
	}
	return nil
}

type InvoiceView struct {
	ID        string
	PatientID string
	Total     float64
	Paid      float64
	Remaining float64
	Settled   bool
	IssuedAt  time.Time
	DueAt     time.Time
}

func (i *Invoice) View() InvoiceView {
	i.mu.Lock()
	defer i.mu.Unlock()
	remaining := i.total - i.paid
	if remaining < 0 {
		remaining = 0
	}
	return InvoiceView{
		ID:        i.id,
		PatientID: i.patientID,
		Total:     i.total,
		Paid:      i.paid,
		Remaining: remaining,
		Settled:   i.settled,
		IssuedAt:  i.issued,
		DueAt:     i.due,
	}
}
