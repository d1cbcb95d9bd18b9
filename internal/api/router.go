package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/Daninc24/healthtech/internal/appointment"
	"github.com/Daninc24/healthtech/internal/availability"
	"github.com/Daninc24/healthtech/internal/schedule"
)

type RouterConfig struct {
	Availability *availability.Store
	Scheduling   *schedule.Service
	PgPool       *pgxpool.Pool
	Redis        *redis.Client
	Env          string
	Version      string
	Logger       zerolog.Logger
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(RequestIDMiddleware)
	r.Use(LoggingMiddleware(cfg.Logger))

	health := NewHealthHandler(cfg.PgPool, cfg.Redis, cfg.Env, cfg.Version)
	r.Get("/health/live", health.Liveness)
	r.Get("/health/ready", health.Readiness)

	r.Route("/providers/{providerID}", func(r chi.Router) {
		r.Get("/availability", getAvailabilityHandler(cfg.Availability))
		r.Put("/availability", setAvailabilityHandler(cfg.Availability))
		r.Get("/slots", listSlotsHandler(cfg.Scheduling))
	})

	r.Route("/appointments", func(r chi.Router) {
		r.Post("/", bookAppointmentHandler(cfg.Scheduling))
		r.Get("/{id}", getAppointmentHandler(cfg.Scheduling))
		r.Post("/{id}/confirm", transitionHandler(func(req *http.Request, id uuid.UUID, actor appointment.Actor) (appointment.Appointment, error) {
			return cfg.Scheduling.Confirm(req.Context(), id, actor)
		}))
		r.Post("/{id}/cancel", transitionHandler(func(req *http.Request, id uuid.UUID, actor appointment.Actor) (appointment.Appointment, error) {
			return cfg.Scheduling.Cancel(req.Context(), id, actor)
		}))
		r.Post("/{id}/complete", transitionHandler(func(req *http.Request, id uuid.UUID, actor appointment.Actor) (appointment.Appointment, error) {
			return cfg.Scheduling.Complete(req.Context(), id, actor)
		}))
	})

	return r
}
