// Package seed fills an empty directory with demo providers, patients and
// rooms.
package seed

import (
	"context"
	"fmt"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/rs/zerolog"

	"github.com/hackgods/facility-scheduling-core/internal/appointment"
	"github.com/hackgods/facility-scheduling-core/internal/ids"
	"github.com/hackgods/facility-scheduling-core/internal/party"
	"github.com/hackgods/facility-scheduling-core/internal/room"
)

var specialties = []string{
	"Dermatology",
	"Cardiology",
	"General Practice",
	"Orthopedics",
	"Endocrinology",
	"Neurology",
	"Pediatrics",
	"Psychiatry",
	"Ophthalmology",
	"ENT",
}

var departments = []string{"Outpatient", "Surgery", "Diagnostics", "Emergency"}

type roomSpec struct {
	name      string
	roomType  string
	capacity  int
	rate      float64
	equipment string
}

var demoRooms = []roomSpec{
	{"201", "Radiology - 1", 2, 50.0, "X-Ray machine"},
	{"202", "Radiology Pro Plus", 2, 50.0, "MRI scanner"},
	{"101", "Blood", 1, 200.0, "Phlebotomy chair"},
	{"301", "Operating Room - 1", 1, 200.0, "Surgical table"},
	{"302", "Operating Room - 2", 1, 500.0, "Surgical robot"},
	{"303", "Emergency Room - 1", 4, 300.0, "Defibrillator"},
}

type Options struct {
	Providers int
	Patients  int
	// Seed makes the generated names reproducible; zero picks a random seed.
	Seed uint64
	IDs  ids.Generator
}

type Summary struct {
	Providers int
	Patients  int
	Rooms     int
}

// Populate registers the demo directory through the services so every
// entity passes the same validation as API-created ones.
func Populate(ctx context.Context, booking *appointment.Service, rooms *room.Allocator, opts Options, log zerolog.Logger) (Summary, error) {
	faker := gofakeit.New(opts.Seed)
	gen := opts.IDs
	if gen == nil {
		gen = ids.UUIDGenerator{}
	}
	var sum Summary

	log.Info().Int("count", opts.Providers).Msg("seeding providers")
	for i := 0; i < opts.Providers; i++ {
		id := party.Identity{
			ID:        gen.Next(),
			FirstName: faker.FirstName(),
			LastName:  faker.LastName(),
			Role:      party.RoleProvider,
		}
		po := appointment.ProviderOptions{
			Specialty:  specialties[faker.Number(0, len(specialties)-1)],
			Department: departments[faker.Number(0, len(departments)-1)],
		}
		// every third provider is a private practitioner
		if i%3 == 2 {
			po.VariableFee = true
			po.PerMinuteFee = float64(faker.Number(2, 10))
		}
		if _, err := booking.RegisterProvider(ctx, id, po); err != nil {
			return sum, fmt.Errorf("seed provider %d: %w", i, err)
		}
		sum.Providers++
	}

	log.Info().Int("count", opts.Patients).Msg("seeding patients")
	for i := 0; i < opts.Patients; i++ {
		id := party.Identity{
			ID:        gen.Next(),
			FirstName: faker.FirstName(),
			LastName:  faker.LastName(),
			Role:      party.RolePatient,
		}
		if _, err := booking.RegisterPatient(ctx, id); err != nil {
			return sum, fmt.Errorf("seed patient %d: %w", i, err)
		}
		sum.Patients++
	}

	for _, spec := range demoRooms {
		r, err := room.New(spec.name, spec.roomType, spec.capacity, spec.rate, spec.equipment)
		if err != nil {
			return sum, fmt.Errorf("seed room %s: %w", spec.name, err)
		}
		if err := rooms.AddRoom(ctx, r); err != nil {
			return sum, fmt.Errorf("seed room %s: %w", spec.name, err)
		}
		sum.Rooms++
	}

	log.Info().Int("providers", sum.Providers).Int("patients", sum.Patients).
		Int("rooms", sum.Rooms).Msg("seed complete")
	return sum, nil
}
