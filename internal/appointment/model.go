package appointment

import (
	"sync"

	"github.com/hackgods/facility-scheduling-core/internal/apperr"
	"github.com/hackgods/facility-scheduling-core/internal/party"
	"github.com/hackgods/facility-scheduling-core/internal/schedule"
)

// DefaultPerMinuteFee applies to variable-fee providers created without a fee.
const DefaultPerMinuteFee = 250.0

var (
	ErrMissingIdentity = apperr.Validation("identity id is required")
	ErrWrongRole       = apperr.Validation("identity has the wrong role")
	ErrNegativeFee     = apperr.Validation("per-minute fee must not be negative")
)

type ProviderOptions struct {
	Specialty  string
	Department string
	// VariableFee marks a private provider billed per minute. Salaried
	// providers charge the flat appointment cost.
	VariableFee  bool
	PerMinuteFee float64
}

// Provider owns a calendar and the appointments booked against it.
type Provider struct {
	identity   party.Identity
	specialty  string
	department string
	variable   bool
	fee        float64
	calendar   *schedule.Calendar

	mu           sync.RWMutex
	appointments []*Appointment
	patients     []*Patient
	patientSet   map[string]struct{}
}

func NewProvider(id party.Identity, opts ProviderOptions) (*Provider, error) {
	if id.ID == "" {
		return nil, ErrMissingIdentity
	}
	if id.Role == "" {
		id.Role = party.RoleProvider
	}
	if id.Role != party.RoleProvider {
		return nil, ErrWrongRole
	}
	if opts.PerMinuteFee < 0 {
		return nil, ErrNegativeFee
	}

	fee := opts.PerMinuteFee
	if opts.VariableFee && fee == 0 {
		fee = DefaultPerMinuteFee
	}

	return &Provider{
		identity:   id,
		specialty:  opts.Specialty,
		department: opts.Department,
		variable:   opts.VariableFee,
		fee:        fee,
		calendar:   schedule.NewCalendar(),
		patientSet: make(map[string]struct{}),
	}, nil
}

func (p *Provider) ID() string                   { return p.identity.ID }
func (p *Provider) Identity() party.Identity     { return p.identity }
func (p *Provider) Specialty() string            { return p.specialty }
func (p *Provider) Department() string           { return p.department }
func (p *Provider) ChargesVariableFee() bool     { return p.variable }
func (p *Provider) PerMinuteFee() float64        { return p.fee }
func (p *Provider) Calendar() *schedule.Calendar { return p.calendar }

func (p *Provider) Appointments() []*Appointment {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]*Appointment, len(p.appointments))
	copy(out, p.appointments)
	return out
}

// Patients returns the distinct patients seen, in first-booking order.
func (p *Provider) Patients() []*Patient {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]*Patient, len(p.patients))
	copy(out, p.patients)
	return out
}

// BookedInstants returns the instant of every appointment the provider
// holds. Appointments are never removed, so a canceled or completed
// appointment keeps its grid point.
func (p *Provider) BookedInstants() []schedule.Instant {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]schedule.Instant, 0, len(p.appointments))
	for _, a := range p.appointments {
		out = append(out, a.Instant())
	}
	return out
}

func (p *Provider) attach(a *Appointment, patient *Patient) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.appointments = append(p.appointments, a)
	if _, ok := p.patientSet[patient.ID()]; !ok {
		p.patientSet[patient.ID()] = struct{}{}
		p.patients = append(p.patients, patient)
	}
}

// Patient is the subject of appointments.
type Patient struct {
	identity party.Identity

	mu           sync.RWMutex
	appointments []*Appointment
}

func NewPatient(id party.Identity) (*Patient, error) {
	if id.ID == "" {
		return nil, ErrMissingIdentity
	}
	if id.Role == "" {
		id.Role = party.RolePatient
	}
	if id.Role != party.RolePatient {
		return nil, ErrWrongRole
	}
	return &Patient{identity: id}, nil
}

func (p *Patient) ID() string               { return p.identity.ID }
func (p *Patient) Identity() party.Identity { return p.identity }

func (p *Patient) Appointments() []*Appointment {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]*Appointment, len(p.appointments))
	copy(out, p.appointments)
	return out
}

// OutstandingBalance sums the cost of unpaid appointments.
func (p *Patient) OutstandingBalance() float64 {
	var total float64
	for _, a := range p.Appointments() {
		if v := a.View(); !v.Paid {
			total += v.Cost
		}
	}
	return total
}

func (p *Patient) attach(a *Appointment) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, existing := range p.appointments {
		if existing == a {
			return
		}
	}
	p.appointments = append(p.appointments, a)
}

var (
	_ party.Schedulable = (*Provider)(nil)
	_ party.Billable    = (*Patient)(nil)
)
