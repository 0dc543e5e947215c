package appointment

import (
	"context"

	"github.com/hackgods/facility-scheduling-core/internal/apperr"
)

var (
	ErrPatientNotFound     = apperr.NotFound("patient not found")
	ErrProviderNotFound    = apperr.NotFound("provider not found")
	ErrAppointmentNotFound = apperr.NotFound("appointment not found")
	ErrDuplicateID         = apperr.Conflict("id already registered")
)

// Repository holds the live entities. It is the identity lookup consumed by
// the booking service and the billing ledger.
type Repository interface {
	GetPatientByID(ctx context.Context, id string) (*Patient, error)
	GetProviderByID(ctx context.Context, id string) (*Provider, error)
	GetAppointmentByID(ctx context.Context, id string) (*Appointment, error)

	ListPatients(ctx context.Context) ([]*Patient, error)
	ListProviders(ctx context.Context) ([]*Provider, error)

	AddPatient(ctx context.Context, p *Patient) error
	AddProvider(ctx context.Context, p *Provider) error
	InsertAppointment(ctx context.Context, a *Appointment) error
}
