package appointment

import (
	"strings"
	"sync"
	"time"

	"github.com/hackgods/facility-scheduling-core/internal/apperr"
	"github.com/hackgods/facility-scheduling-core/internal/schedule"
)

type Status string

const (
	StatusScheduled Status = "Scheduled"
	StatusCompleted Status = "Completed"
	StatusCanceled  Status = "Canceled"
)

func (s Status) Terminal() bool { return s == StatusCompleted || s == StatusCanceled }

// ParseStatus accepts status names in any case; "cancelled" is accepted too.
func ParseStatus(s string) (Status, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "scheduled":
		return StatusScheduled, nil
	case "completed":
		return StatusCompleted, nil
	case "canceled", "cancelled":
		return StatusCanceled, nil
	}
	return "", ErrInvalidTargetStatus
}

const (
	DefaultDurationMinutes = 30
	DefaultCost            = 50.0
)

var (
	ErrMissingID               = apperr.Validation("appointment id is required")
	ErrMissingPatient          = apperr.Validation("patient is required")
	ErrMissingProvider         = apperr.Validation("provider is required")
	ErrMissingInstant          = apperr.Validation("appointment instant is required")
	ErrDateMismatch            = apperr.Validation("appointment date does not fall on the requested weekday")
	ErrInvalidDuration         = apperr.Validation("duration must be a positive number of minutes")
	ErrInvalidTargetStatus     = apperr.Validation("target status must be Completed or Canceled")
	ErrInvalidStatusTransition = apperr.State("appointment is no longer scheduled")
)

// Appointment is created only by Service.CreateAppointment and is never
// deleted.
type Appointment struct {
	id       string
	patient  *Patient
	provider *Provider
	instant  schedule.Instant
	date     time.Time

	mu       sync.RWMutex
	status   Status
	duration int
	cost     float64
	paid     bool
}

func NewAppointment(id string, patient *Patient, provider *Provider, instant schedule.Instant, date time.Time) (*Appointment, error) {
	switch {
	case id == "":
		return nil, ErrMissingID
	case patient == nil:
		return nil, ErrMissingPatient
	case provider == nil:
		return nil, ErrMissingProvider
	case instant == (schedule.Instant{}) || date.IsZero():
		return nil, ErrMissingInstant
	}
	if err := provider.Calendar().Validate(instant); err != nil {
		return nil, err
	}
	if schedule.Weekday(date.Weekday()) != instant.Day {
		return nil, ErrDateMismatch
	}

	return &Appointment{
		id:       id,
		patient:  patient,
		provider: provider,
		instant:  instant,
		date:     date,
		status:   StatusScheduled,
		duration: DefaultDurationMinutes,
		cost:     DefaultCost,
	}, nil
}

func (a *Appointment) ID() string                { return a.id }
func (a *Appointment) Patient() *Patient         { return a.patient }
func (a *Appointment) Provider() *Provider       { return a.provider }
func (a *Appointment) Instant() schedule.Instant { return a.instant }
func (a *Appointment) Date() time.Time           { return a.date }

func (a *Appointment) Status() Status {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.status
}

func (a *Appointment) DurationMinutes() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.duration
}

func (a *Appointment) Cost() float64 {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.cost
}

func (a *Appointment) Paid() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.paid
}

// SetDuration changes the length of the appointment. For variable-fee
// providers the cost becomes minutes × per-minute fee; flat-fee costs never
// change.
func (a *Appointment) SetDuration(minutes int) error {
	if minutes <= 0 {
		return ErrInvalidDuration
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	a.duration = minutes
	if a.provider.ChargesVariableFee() {
		a.cost = float64(minutes) * a.provider.PerMinuteFee()
	}
	return nil
}

// Transition moves a scheduled appointment to a terminal status. Terminal
// appointments reject every further transition, including to the status
// they already hold.
func (a *Appointment) Transition(target Status) error {
	if !target.Terminal() {
		return ErrInvalidTargetStatus
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if a.status != StatusScheduled {
		return ErrInvalidStatusTransition
	}
	a.status = target
	return nil
}

// MarkPaid sets the paid flag. It reports whether this call changed it, so
// concurrent payers can tell exactly one of them collected the cost.
func (a *Appointment) MarkPaid() (changed bool, amount float64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.paid {
		return false, 0
	}
	a.paid = true
	return true, a.cost
}

// View is a consistent point-in-time copy of an appointment.
type View struct {
	ID              string
	PatientID       string
	ProviderID      string
	Instant         schedule.Instant
	Date            time.Time
	Status          Status
	DurationMinutes int
	Cost            float64
	Paid            bool
}

func (a *Appointment) View() View {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return View{
		ID:              a.id,
		PatientID:       a.patient.ID(),
		ProviderID:      a.provider.ID(),
		Instant:         a.instant,
		Date:            a.date,
		Status:          a.status,
		DurationMinutes: a.duration,
		Cost:            a.cost,
		Paid:            a.paid,
	}
}
