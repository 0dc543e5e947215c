// Package party holds the identity record shared by every participant and
// the role tag that selects which capabilities a participant carries.
package party

import "strings"

type Role string

const (
	RolePatient    Role = "patient"
	RoleProvider   Role = "provider"
	RoleAssistant  Role = "assistant"
	RolePharmacist Role = "pharmacist"
	RoleFounder    Role = "founder"
)

func (r Role) Valid() bool {
	switch r {
	case RolePatient, RoleProvider, RoleAssistant, RolePharmacist, RoleFounder:
		return true
	}
	return false
}

// Identity is the plain record the directory hands back for a submitted id.
type Identity struct {
	ID        string
	FirstName string
	LastName  string
	Role      Role
}

func (i Identity) FullName() string {
	return strings.TrimSpace(i.FirstName + " " + i.LastName)
}

// Schedulable is implemented by participants that own a booking calendar.
type Schedulable interface {
	Identity() Identity
	ChargesVariableFee() bool
	PerMinuteFee() float64
}

// Billable is implemented by participants that can owe money for services.
type Billable interface {
	Identity() Identity
	OutstandingBalance() float64
}
