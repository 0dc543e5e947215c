// Package metrics counts booking, room and payment outcomes with
// OpenTelemetry instruments.
package metrics

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/hackgods/facility-scheduling-core/internal/apperr"
)

const (
	OutcomeOK       = "ok"
	OutcomeConflict = "conflict"
	OutcomeInvalid  = "invalid"
	OutcomeError    = "error"
)

// Outcome classifies an operation result for the outcome attribute.
func Outcome(err error) string {
	if err == nil {
		return OutcomeOK
	}
	switch apperr.Kind(err) {
	case apperr.ErrConflict, apperr.ErrState:
		return OutcomeConflict
	case apperr.ErrValidation, apperr.ErrNotFound:
		return OutcomeInvalid
	default:
		return OutcomeError
	}
}

// Recorder is nil-safe; a nil *Recorder records nothing.
type Recorder struct {
	bookings    metric.Int64Counter
	transitions metric.Int64Counter
	rooms       metric.Int64Counter
	payments    metric.Int64Counter
	collected   metric.Float64Counter
}

func NewRecorder(meter metric.Meter) (*Recorder, error) {
	bookings, err := meter.Int64Counter("clinic.bookings",
		metric.WithDescription("Booking attempts by outcome"))
	if err != nil {
		return nil, fmt.Errorf("bookings counter: %w", err)
	}
	transitions, err := meter.Int64Counter("clinic.appointment.transitions",
		metric.WithDescription("Appointment status transitions by target and outcome"))
	if err != nil {
		return nil, fmt.Errorf("transitions counter: %w", err)
	}
	rooms, err := meter.Int64Counter("clinic.room.operations",
		metric.WithDescription("Room assign and release attempts by outcome"))
	if err != nil {
		return nil, fmt.Errorf("rooms counter: %w", err)
	}
	payments, err := meter.Int64Counter("clinic.payments",
		metric.WithDescription("Appointments newly marked paid"))
	if err != nil {
		return nil, fmt.Errorf("payments counter: %w", err)
	}
	collected, err := meter.Float64Counter("clinic.payments.amount",
		metric.WithDescription("Currency units collected"))
	if err != nil {
		return nil, fmt.Errorf("amount counter: %w", err)
	}

	return &Recorder{
		bookings:    bookings,
		transitions: transitions,
		rooms:       rooms,
		payments:    payments,
		collected:   collected,
	}, nil
}

func (r *Recorder) Booking(ctx context.Context, outcome string) {
	if r == nil {
		return
	}
	r.bookings.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}

func (r *Recorder) Transition(ctx context.Context, target, outcome string) {
	if r == nil {
		return
	}
	r.transitions.Add(ctx, 1, metric.WithAttributes(
		attribute.String("target", target),
		attribute.String("outcome", outcome),
	))
}

func (r *Recorder) Room(ctx context.Context, op, outcome string) {
	if r == nil {
		return
	}
	r.rooms.Add(ctx, 1, metric.WithAttributes(
		attribute.String("op", op),
		attribute.String("outcome", outcome),
	))
}

// Payment records n newly paid items totalling amount.
func (r *Recorder) Payment(ctx context.Context, n int, amount float64) {
	if r == nil || n == 0 {
		return
	}
	r.payments.Add(ctx, int64(n))
	r.collected.Add(ctx, amount)
}
