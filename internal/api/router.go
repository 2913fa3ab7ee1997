package api

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/hackgods/studio-booking/internal/auth"
	"github.com/hackgods/studio-booking/internal/availability"
	"github.com/hackgods/studio-booking/internal/booking"
	"github.com/hackgods/studio-booking/internal/leads"
	"github.com/hackgods/studio-booking/internal/voice"
	"github.com/hackgods/studio-booking/pkg/logging"
)

type BookingService interface {
	FetchSlots(ctx context.Context, date string) (booking.SlotList, error)
	SubmitAppointment(ctx context.Context, req booking.Request) (*booking.Appointment, error)
	ListAppointments(ctx context.Context) ([]booking.Appointment, error)
}

type AvailabilityService interface {
	Reconcile(ctx context.Context) ([]availability.Rule, error)
	Save(ctx context.Context, rules []availability.Rule) ([]availability.Rule, error)
}

type IntakeService interface {
	CreateLead(ctx context.Context, in leads.LeadInput) (*leads.Lead, error)
	CreateProjectLead(ctx context.Context, in leads.ProjectLeadInput) (*leads.ProjectLead, error)
	SubmitForm(ctx context.Context, formType leads.FormType, userID *uuid.UUID, raw []byte) (*leads.FormSubmission, error)
	ListLeads(ctx context.Context) ([]leads.Lead, error)
	ListProjectLeads(ctx context.Context) ([]leads.ProjectLead, error)
	ListForms(ctx context.Context) ([]leads.FormSubmission, error)
}

type VoiceService interface {
	Provision(ctx context.Context, agentID string) (*voice.WebCall, error)
}

// Limiter guards the public write endpoints.
type Limiter interface {
	Middleware(next http.Handler) http.Handler
}

type RouterConfig struct {
	Booking      BookingService
	Availability AvailabilityService
	Intake       IntakeService
	Voice        VoiceService
	Auth         *auth.Middleware
	Health       *HealthHandler
	Metrics      http.Handler
	RateLimiter  Limiter
	CORSOrigins  []string
	Logger       *logging.Logger
}

// NewAuthMiddleware builds the auth middleware with this package's error responses.
func NewAuthMiddleware(verifier *auth.Verifier, cfg auth.Config, logger *logging.Logger) *auth.Middleware {
	return auth.NewMiddleware(verifier, cfg, writeError, logger)
}

func NewRouter(cfg RouterConfig) http.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}

	r := chi.NewRouter()

	r.Use(chimw.RealIP)
	r.Use(RequestIDMiddleware)
	r.Use(LoggingMiddleware(logger))
	r.Use(chimw.Recoverer)
	r.Use(CORS(cfg.CORSOrigins))

	// Health endpoints
	if cfg.Health != nil {
		r.Get("/health/live", cfg.Health.Liveness)
		r.Get("/health/ready", cfg.Health.Readiness)
	}
	if cfg.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", cfg.Metrics)
	}

	r.Get("/availability/slots", listSlotsHandler(cfg.Booking))

	// Public writes
	r.Group(func(r chi.Router) {
		if cfg.RateLimiter != nil {
			r.Use(cfg.RateLimiter.Middleware)
		}
		r.Post("/appointments", createAppointmentHandler(cfg.Booking))
		r.Post("/leads", createLeadHandler(cfg.Intake))
		r.Post("/project-leads", createProjectLeadHandler(cfg.Intake))
		r.Post("/forms/contact", submitContactFormHandler(cfg.Intake))
		r.Post("/api/create-web-call", createWebCallHandler(cfg.Voice, logger))
	})

	// Signed-in users
	r.Group(func(r chi.Router) {
		r.Use(cfg.Auth.RequireUser)
		r.Post("/forms/{type}", submitFormHandler(cfg.Intake))
	})

	r.Route("/admin", func(r chi.Router) {
		r.Use(cfg.Auth.RequireAdmin)
		r.Get("/dashboard", dashboardHandler(cfg, logger))
		r.Get("/availability", getAvailabilityHandler(cfg.Availability))
		r.Put("/availability", saveAvailabilityHandler(cfg.Availability))
		r.Get("/appointments", listAppointmentsHandler(cfg.Booking))
		r.Get("/leads", listLeadsHandler(cfg.Intake))
		r.Get("/project-leads", listProjectLeadsHandler(cfg.Intake))
		r.Get("/forms", listFormsHandler(cfg.Intake))
	})

	return r
}
