package appointment

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/hackgods/facility-scheduling-core/internal/apperr"
	"github.com/hackgods/facility-scheduling-core/internal/audit"
	"github.com/hackgods/facility-scheduling-core/internal/ids"
	"github.com/hackgods/facility-scheduling-core/internal/lock"
	"github.com/hackgods/facility-scheduling-core/internal/metrics"
	"github.com/hackgods/facility-scheduling-core/internal/party"
	"github.com/hackgods/facility-scheduling-core/internal/schedule"
)

const (
	EventAppointmentCreated  = "APPOINTMENT_CREATED"
	EventAppointmentStatus   = "APPOINTMENT_STATUS_CHANGED"
	EventAppointmentDuration = "APPOINTMENT_DURATION_CHANGED"
)

var (
	ErrSlotAlreadyBooked = apperr.Conflict("slot already has an appointment")
	ErrSlotBeingBooked   = apperr.Conflict("slot is currently being booked, please retry")
)

type Option func(*Service)

// WithWeek sets the week concrete appointment dates are drawn from.
func WithWeek(w schedule.Week) Option { return func(s *Service) { s.week = w } }

func WithEvents(r *audit.Recorder) Option { return func(s *Service) { s.events = r } }

func WithMetrics(m *metrics.Recorder) Option { return func(s *Service) { s.metrics = m } }

func WithLogger(l zerolog.Logger) Option { return func(s *Service) { s.log = l } }

// Service is the only writer that creates appointments.
type Service struct {
	repo    Repository
	locker  lock.Locker
	ids     ids.Generator
	week    schedule.Week
	events  *audit.Recorder
	metrics *metrics.Recorder
	log     zerolog.Logger
}

func NewService(repo Repository, locker lock.Locker, gen ids.Generator, opts ...Option) *Service {
	s := &Service{
		repo:   repo,
		locker: locker,
		ids:    gen,
		week:   schedule.WeekOf(time.Now()),
		log:    zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// slotLockKey scopes the booking critical section to one grid point, so
// bookings for different slots of a provider never contend.
func slotLockKey(providerID string, in schedule.Instant) string {
	return fmt.Sprintf("provider:%s:%s:%s", providerID, strings.ToLower(in.Day.String()[:3]), in.At)
}

// RegisterPatient adds a patient handle to the directory.
func (s *Service) RegisterPatient(ctx context.Context, id party.Identity) (*Patient, error) {
	p, err := NewPatient(id)
	if err != nil {
		return nil, err
	}
	if err := s.repo.AddPatient(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// RegisterProvider adds a provider handle to the directory.
func (s *Service) RegisterProvider(ctx context.Context, id party.Identity, opts ProviderOptions) (*Provider, error) {
	p, err := NewProvider(id, opts)
	if err != nil {
		return nil, err
	}
	if err := s.repo.AddProvider(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// ListAvailableSlots returns the free grid points of a provider on day.
func (s *Service) ListAvailableSlots(ctx context.Context, providerID string, day schedule.Weekday) ([]schedule.TimeOfDay, error) {
	provider, err := s.repo.GetProviderByID(ctx, providerID)
	if err != nil {
		return nil, err
	}
	return provider.Calendar().AvailableSlots(day, provider.BookedInstants())
}

// CreateAppointment books patient with provider at (day, at). The slot check
// is repeated inside the slot's critical section, so of two concurrent
// requests for the same slot exactly one commits.
func (s *Service) CreateAppointment(ctx context.Context, patientID, providerID string, day schedule.Weekday, at schedule.TimeOfDay) (*Appointment, error) {
	appt, err := s.createAppointment(ctx, patientID, providerID, schedule.Instant{Day: day, At: at})
	s.metrics.Booking(ctx, metrics.Outcome(err))
	if err != nil {
		s.log.Debug().Err(err).
			Str("provider_id", providerID).
			Str("patient_id", patientID).
			Stringer("day", day).
			Stringer("at", at).
			Msg("booking rejected")
		return nil, err
	}
	return appt, nil
}

func (s *Service) createAppointment(ctx context.Context, patientID, providerID string, instant schedule.Instant) (*Appointment, error) {
	patient, err := s.repo.GetPatientByID(ctx, patientID)
	if err != nil {
		return nil, err
	}
	provider, err := s.repo.GetProviderByID(ctx, providerID)
	if err != nil {
		return nil, err
	}
	if err := provider.Calendar().Validate(instant); err != nil {
		return nil, err
	}

	var created *Appointment

	err = s.locker.WithLock(ctx, slotLockKey(providerID, instant), func(lockCtx context.Context) error {
		free, err := provider.Calendar().IsFree(instant, provider.BookedInstants())
		if err != nil {
			return err
		}
		if !free {
			return ErrSlotAlreadyBooked
		}

		appt, err := NewAppointment(s.ids.Next(), patient, provider, instant, s.week.DateFor(instant))
		if err != nil {
			return err
		}
		if err := s.repo.InsertAppointment(lockCtx, appt); err != nil {
			return fmt.Errorf("insert appointment: %w", err)
		}

		provider.attach(appt, patient)
		patient.attach(appt)
		created = appt

		s.events.Record(lockCtx, EventAppointmentCreated, appt.ID(), map[string]any{
			"patient_id":  patientID,
			"provider_id": providerID,
			"weekday":     instant.Day.String(),
			"time":        instant.At.String(),
			"date":        appt.Date(),
			"cost":        appt.Cost(),
		})
		return nil
	})

	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		if errors.Is(err, lock.ErrLockNotAcquired) {
			return nil, ErrSlotBeingBooked
		}
		return nil, err
	}

	s.log.Info().
		Str("appointment_id", created.ID()).
		Str("provider_id", providerID).
		Str("patient_id", patientID).
		Stringer("instant", instant).
		Msg("appointment booked")

	return created, nil
}

// SetAppointmentStatus moves a scheduled appointment to Completed or
// Canceled. The appointment keeps its slot either way.
func (s *Service) SetAppointmentStatus(ctx context.Context, id string, target Status) (*Appointment, error) {
	appt, err := s.repo.GetAppointmentByID(ctx, id)
	if err != nil {
		s.metrics.Transition(ctx, string(target), metrics.Outcome(err))
		return nil, err
	}

	from := appt.Status()
	if err := appt.Transition(target); err != nil {
		s.metrics.Transition(ctx, string(target), metrics.Outcome(err))
		return nil, err
	}
	s.metrics.Transition(ctx, string(target), metrics.OutcomeOK)

	s.events.Record(ctx, EventAppointmentStatus, id, map[string]any{
		"from": from,
		"to":   target,
	})
	return appt, nil
}

// SetAppointmentDuration changes an appointment's length, repricing it for
// variable-fee providers.
func (s *Service) SetAppointmentDuration(ctx context.Context, id string, minutes int) (*Appointment, error) {
	appt, err := s.repo.GetAppointmentByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := appt.SetDuration(minutes); err != nil {
		return nil, err
	}

	s.events.Record(ctx, EventAppointmentDuration, id, map[string]any{
		"minutes": minutes,
		"cost":    appt.Cost(),
	})
	return appt, nil
}

func (s *Service) GetAppointment(ctx context.Context, id string) (*Appointment, error) {
	return s.repo.GetAppointmentByID(ctx, id)
}

func (s *Service) ListAppointmentsByPatient(ctx context.Context, patientID string) ([]*Appointment, error) {
	p, err := s.repo.GetPatientByID(ctx, patientID)
	if err != nil {
		return nil, err
	}
	return p.Appointments(), nil
}

func (s *Service) ListAppointmentsByProvider(ctx context.Context, providerID string) ([]*Appointment, error) {
	p, err := s.repo.GetProviderByID(ctx, providerID)
	if err != nil {
		return nil, err
	}
	return p.Appointments(), nil
}

func (s *Service) ListProviderPatients(ctx context.Context, providerID string) ([]*Patient, error) {
	p, err := s.repo.GetProviderByID(ctx, providerID)
	if err != nil {
		return nil, err
	}
	return p.Patients(), nil
}

func (s *Service) ListProviders(ctx context.Context) ([]*Provider, error) {
	return s.repo.ListProviders(ctx)
}

func (s *Service) ListPatients(ctx context.Context) ([]*Patient, error) {
	return s.repo.ListPatients(ctx)
}
