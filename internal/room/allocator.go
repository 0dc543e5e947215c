package room

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/hackgods/facility-scheduling-core/internal/apperr"
	"github.com/hackgods/facility-scheduling-core/internal/appointment"
	"github.com/hackgods/facility-scheduling-core/internal/audit"
	"github.com/hackgods/facility-scheduling-core/internal/lock"
	"github.com/hackgods/facility-scheduling-core/internal/metrics"
)

const (
	EventRoomAssigned = "ROOM_ASSIGNED"
	EventRoomReleased = "ROOM_RELEASED"
)

var (
	ErrRoomNotFound  = apperr.NotFound("room not found")
	ErrDuplicateRoom = apperr.Conflict("room already registered")
	ErrRoomBusy      = apperr.Conflict("room is currently being updated, please retry")
)

// PatientLookup resolves patient ids handed to Assign.
type PatientLookup interface {
	GetPatientByID(ctx context.Context, id string) (*appointment.Patient, error)
}

type Option func(*Allocator)

func WithEvents(r *audit.Recorder) Option { return func(a *Allocator) { a.events = r } }

func WithMetrics(m *metrics.Recorder) Option { return func(a *Allocator) { a.metrics = m } }

func WithLogger(l zerolog.Logger) Option { return func(a *Allocator) { a.log = l } }

// Allocator applies the same claim discipline as booking: the occupancy
// check and the write happen inside one per-room critical section.
type Allocator struct {
	patients PatientLookup
	locker   lock.Locker
	events   *audit.Recorder
	metrics  *metrics.Recorder
	log      zerolog.Logger
	now      func() time.Time

	rooms *registry
}

func NewAllocator(patients PatientLookup, locker lock.Locker, opts ...Option) *Allocator {
	a := &Allocator{
		patients: patients,
		locker:   locker,
		log:      zerolog.Nop(),
		now:      time.Now,
		rooms:    newRegistry(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

func roomLockKey(id string) string { return "room:" + id }

func (a *Allocator) AddRoom(_ context.Context, r *Room) error {
	return a.rooms.add(r)
}

func (a *Allocator) Get(_ context.Context, id string) (*Room, error) {
	return a.rooms.get(id)
}

// List returns rooms in registration order, optionally only free ones.
func (a *Allocator) List(_ context.Context, availableOnly bool) []*Room {
	all := a.rooms.list()
	if !availableOnly {
		return all
	}
	out := make([]*Room, 0, len(all))
	for _, r := range all {
		if r.Available() {
			out = append(out, r)
		}
	}
	return out
}

// Assign places patientID in the room. An occupied room fails with
// ErrRoomOccupied and is left untouched.
func (a *Allocator) Assign(ctx context.Context, roomID, patientID string) error {
	err := a.assign(ctx, roomID, patientID)
	a.metrics.Room(ctx, "assign", metrics.Outcome(err))
	return err
}

func (a *Allocator) assign(ctx context.Context, roomID, patientID string) error {
	if patientID == "" {
		return ErrMissingPatient
	}
	r, err := a.rooms.get(roomID)
	if err != nil {
		return err
	}
	if _, err := a.patients.GetPatientByID(ctx, patientID); err != nil {
		return err
	}

	err = a.locker.WithLock(ctx, roomLockKey(roomID), func(lockCtx context.Context) error {
		if err := r.claim(patientID, a.now()); err != nil {
			return err
		}
		a.events.Record(lockCtx, EventRoomAssigned, roomID, map[string]any{
			"patient_id": patientID,
		})
		return nil
	})
	if err != nil {
		return a.lockError(ctx, err)
	}

	a.log.Info().Str("room_id", roomID).Str("patient_id", patientID).Msg("room assigned")
	return nil
}

// Release returns an occupied room to the pool.
func (a *Allocator) Release(ctx context.Context, roomID string) (Stay, error) {
	stay, err := a.release(ctx, roomID)
	a.metrics.Room(ctx, "release", metrics.Outcome(err))
	return stay, err
}

func (a *Allocator) release(ctx context.Context, roomID string) (Stay, error) {
	r, err := a.rooms.get(roomID)
	if err != nil {
		return Stay{}, err
	}

	var stay Stay
	err = a.locker.WithLock(ctx, roomLockKey(roomID), func(lockCtx context.Context) error {
		s, err := r.vacate()
		if err != nil {
			return err
		}
		s.Until = a.now()
		stay = s
		a.events.Record(lockCtx, EventRoomReleased, roomID, map[string]any{
			"patient_id": s.PatientID,
			"since":      s.Since,
			"until":      s.Until,
		})
		return nil
	})
	if err != nil {
		return Stay{}, a.lockError(ctx, err)
	}

	a.log.Info().Str("room_id", roomID).Str("patient_id", stay.PatientID).Msg("room released")
	return stay, nil
}

func (a *Allocator) SetCapacity(_ context.Context, roomID string, n int) error {
	r, err := a.rooms.get(roomID)
	if err != nil {
		return err
	}
	return r.SetCapacity(n)
}

func (a *Allocator) lockError(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	if errors.Is(err, lock.ErrLockNotAcquired) {
		return ErrRoomBusy
	}
	return err
}
