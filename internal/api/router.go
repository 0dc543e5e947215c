package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/hackgods/facility-scheduling-core/internal/appointment"
	"github.com/hackgods/facility-scheduling-core/internal/billing"
	"github.com/hackgods/facility-scheduling-core/internal/room"
)

type RouterConfig struct {
	Booking *appointment.Service
	Ledger  *billing.Ledger
	Rooms   *room.Allocator
	PgPool  *pgxpool.Pool
	Redis   *redis.Client
	Metrics http.Handler
	Logger  zerolog.Logger
	Env     string
	Version string
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	// Apply middleware
	r.Use(RequestIDMiddleware)
	r.Use(LoggingMiddleware(cfg.Logger))
	r.Use(middleware.Recoverer)

	// Health endpoints
	health := NewHealthHandler(cfg.PgPool, cfg.Redis, cfg.Env, cfg.Version)
	r.Get("/health/live", health.Liveness)
	r.Get("/health/ready", health.Readiness)
	if cfg.Metrics != nil {
		r.Handle("/metrics", cfg.Metrics)
	}

	// Directory endpoints
	r.Get("/providers", listProvidersHandler(cfg.Booking))
	r.Post("/providers", createProviderHandler(cfg.Booking))
	r.Get("/providers/{id}/slots", listSlotsHandler(cfg.Booking))
	r.Get("/providers/{id}/appointments", providerAppointmentsHandler(cfg.Booking))
	r.Get("/providers/{id}/patients", providerPatientsHandler(cfg.Booking))
	r.Get("/patients", listPatientsHandler(cfg.Booking))
	r.Post("/patients", createPatientHandler(cfg.Booking))
	r.Get("/patients/{id}/appointments", patientAppointmentsHandler(cfg.Booking))

	// Appointment endpoints
	r.Post("/appointments", createAppointmentHandler(cfg.Booking))
	r.Get("/appointments/{id}", getAppointmentHandler(cfg.Booking))
	r.Post("/appointments/{id}/status", setStatusHandler(cfg.Booking))
	r.Post("/appointments/{id}/duration", setDurationHandler(cfg.Booking))
	r.Post("/appointments/{id}/pay", payAppointmentHandler(cfg.Booking, cfg.Ledger))

	// Billing endpoints
	r.Get("/patients/{id}/billing", billingHandler(cfg.Ledger))
	r.Post("/patients/{id}/billing/pay", payBillingHandler(cfg.Ledger))
	r.Post("/patients/{id}/invoices", openInvoiceHandler(cfg.Ledger))
	r.Get("/invoices/{id}", getInvoiceHandler(cfg.Ledger))
	r.Post("/invoices/{id}/payments", payInvoiceHandler(cfg.Ledger))

	// Room endpoints
	r.Get("/rooms", listRoomsHandler(cfg.Rooms))
	r.Get("/rooms/{id}", getRoomHandler(cfg.Rooms))
	r.Post("/rooms/{id}/assign", assignRoomHandler(cfg.Rooms))
	r.Post("/rooms/{id}/release", releaseRoomHandler(cfg.Rooms))
	r.Post("/rooms/{id}/capacity", setCapacityHandler(cfg.Rooms))

	return r
}
