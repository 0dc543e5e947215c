// Package room allocates single-occupant rooms to patients.
package room

import (
	"strings"
	"sync"
	"time"

	"github.com/hackgods/facility-scheduling-core/internal/apperr"
)

var (
	ErrMissingName      = apperr.Validation("room name is required")
	ErrMissingType      = apperr.Validation("room type is required")
	ErrMissingEquipment = apperr.Validation("room equipment description is required")
	ErrInvalidCapacity  = apperr.Validation("room capacity must be at least 1")
	ErrInvalidRate      = apperr.Validation("room hourly rate must be positive")
	ErrMissingPatient   = apperr.Validation("patient id is required")
	ErrRoomOccupied     = apperr.Conflict("room is already occupied")
	ErrRoomNotOccupied  = apperr.State("room is not occupied")
)

// Room is available exactly when it has no occupant.
type Room struct {
	name       string
	roomType   string
	hourlyRate float64
	equipment  string

	mu       sync.RWMutex
	capacity int
	occupant string
	since    time.Time
}

func New(name, roomType string, capacity int, hourlyRate float64, equipment string) (*Room, error) {
	switch {
	case strings.TrimSpace(name) == "":
		return nil, ErrMissingName
	case strings.TrimSpace(roomType) == "":
		return nil, ErrMissingType
	case strings.TrimSpace(equipment) == "":
		return nil, ErrMissingEquipment
	case capacity < 1:
		return nil, ErrInvalidCapacity
	case hourlyRate <= 0:
		return nil, ErrInvalidRate
	}
	return &Room{
		name:       name,
		roomType:   roomType,
		capacity:   capacity,
		hourlyRate: hourlyRate,
		equipment:  equipment,
	}, nil
}

func (r *Room) ID() string          { return r.name }
func (r *Room) Type() string        { return r.roomType }
func (r *Room) HourlyRate() float64 { return r.hourlyRate }
func (r *Room) Equipment() string   { return r.equipment }

func (r *Room) Capacity() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.capacity
}

func (r *Room) SetCapacity(n int) error {
	if n < 1 {
		return ErrInvalidCapacity
	}
	r.mu.Lock()
	r.capacity = n
	r.mu.Unlock()
	return nil
}

func (r *Room) Available() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.occupant == ""
}

// Occupant returns the current occupant's patient id.
func (r *Room) Occupant() (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.occupant, r.occupant != ""
}

// claim sets the occupant only if the room is empty.
func (r *Room) claim(patientID string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.occupant != "" {
		return ErrRoomOccupied
	}
	r.occupant = patientID
	r.since = at
	return nil
}

func (r *Room) vacate() (Stay, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.occupant == "" {
		return Stay{}, ErrRoomNotOccupied
	}
	stay := Stay{RoomID: r.name, PatientID: r.occupant, Since: r.since}
	r.occupant = ""
	r.since = time.Time{}
	return stay, nil
}

// Stay describes one finished occupancy.
type Stay struct {
	RoomID    string
	PatientID string
	Since     time.Time
	Until     time.Time
}

type View struct {
	ID            string
	Type          string
	Capacity      int
	HourlyRate    float64
	Equipment     string
	Available     bool
	OccupantID    string
	OccupiedSince time.Time
}

func (r *Room) View() View {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return View{
		ID:            r.name,
		Type:          r.roomType,
		Capacity:      r.capacity,
		HourlyRate:    r.hourlyRate,
		Equipment:     r.equipment,
		Available:     r.occupant == "",
		OccupantID:    r.occupant,
		OccupiedSince: r.since,
	}
}
