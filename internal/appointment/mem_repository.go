package appointment

import (
	"context"
	"sync"
)

// MemRepository keeps every entity in process memory; state is discarded
// on exit.
type MemRepository struct {
	mu            sync.RWMutex
	patients      map[string]*Patient
	patientOrder  []*Patient
	providers     map[string]*Provider
	providerOrder []*Provider
	appointments  map[string]*Appointment
}

func NewMemRepository() *MemRepository {
	return &MemRepository{
		patients:     make(map[string]*Patient),
		providers:    make(map[string]*Provider),
		appointments: make(map[string]*Appointment),
	}
}

func (r *MemRepository) GetPatientByID(_ context.Context, id string) (*Patient, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.patients[id]
	if !ok {
		return nil, ErrPatientNotFound
	}
	return p, nil
}

func (r *MemRepository) GetProviderByID(_ context.Context, id string) (*Provider, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.providers[id]
	if !ok {
		return nil, ErrProviderNotFound
	}
	return p, nil
}

func (r *MemRepository) GetAppointmentByID(_ context.Context, id string) (*Appointment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.appointments[id]
	if !ok {
		return nil, ErrAppointmentNotFound
	}
	return a, nil
}

func (r *MemRepository) ListPatients(_ context.Context) ([]*Patient, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Patient, len(r.patientOrder))
	copy(out, r.patientOrder)
	return out, nil
}

func (r *MemRepository) ListProviders(_ context.Context) ([]*Provider, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Provider, len(r.providerOrder))
	copy(out, r.providerOrder)
	return out, nil
}

func (r *MemRepository) AddPatient(_ context.Context, p *Patient) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.patients[p.ID()]; ok {
		return ErrDuplicateID
	}
	r.patients[p.ID()] = p
	r.patientOrder = append(r.patientOrder, p)
	return nil
}

func (r *MemRepository) AddProvider(_ context.Context, p *Provider) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.providers[p.ID()]; ok {
		return ErrDuplicateID
	}
	r.providers[p.ID()] = p
	r.providerOrder = append(r.providerOrder, p)
	return nil
}

func (r *MemRepository) InsertAppointment(_ context.Context, a *Appointment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.appointments[a.ID()]; ok {
		return ErrDuplicateID
	}
	r.appointments[a.ID()] = a
	return nil
}
