package api

import (
	"context"
	"errors"
	"net/http"

	"golang.org/x/sync/errgroup"

	"github.com/hackgods/studio-booking/internal/availability"
	"github.com/hackgods/studio-booking/internal/db"
	"github.com/hackgods/studio-booking/pkg/logging"
)

// dashboardHandler loads every section concurrently. A section that fails is logged
// and returned empty so the rest of the dashboard still renders.
func dashboardHandler(cfg RouterConfig, logger *logging.Logger) http.HandlerFunc {
	logger = logger.Named("dashboard")
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		var resp DashboardResponse
		var g errgroup.Group

		load := func(section string, fn func(ctx context.Context) error) {
			g.Go(func() error {
				if err := fn(ctx); err != nil {
					logger.Error("dashboard section failed", "section", section, "error", err)
				}
				return nil
			})
		}

		load("leads", func(ctx context.Context) (err error) {
			resp.Leads, err = cfg.Intake.ListLeads(ctx)
			return err
		})
		load("project_leads", func(ctx context.Context) (err error) {
			resp.ProjectLeads, err = cfg.Intake.ListProjectLeads(ctx)
			return err
		})
		load("forms", func(ctx context.Context) (err error) {
			resp.Forms, err = cfg.Intake.ListForms(ctx)
			return err
		})
		load("appointments", func(ctx context.Context) (err error) {
			resp.Appointments, err = cfg.Booking.ListAppointments(ctx)
			return err
		})
		load("availability", func(ctx context.Context) (err error) {
			resp.Availability, err = cfg.Availability.Reconcile(ctx)
			return err
		})
		_ = g.Wait()

		resp.Leads = emptyIfNil(resp.Leads)
		resp.ProjectLeads = emptyIfNil(resp.ProjectLeads)
		resp.Forms = emptyIfNil(resp.Forms)
		resp.Appointments = emptyIfNil(resp.Appointments)
		resp.Availability = emptyIfNil(resp.Availability)

		writeJSON(w, http.StatusOK, resp)
	}
}

func getAvailabilityHandler(svc AvailabilityService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rules, err := svc.Reconcile(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal_error", db.Message(err))
			return
		}
		writeJSON(w, http.StatusOK, emptyIfNil(rules))
	}
}

func saveAvailabilityHandler(svc AvailabilityService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req SaveAvailabilityRequest
		if !decodeJSON(w, r, &req, false) {
			return
		}

		rules, err := svc.Save(r.Context(), req.Rules)
		if err != nil {
			switch {
			case errors.Is(err, availability.ErrInvalidWeekday),
				errors.Is(err, availability.ErrDuplicateWeekday),
				errors.Is(err, availability.ErrInvalidWindow):
				writeError(w, http.StatusBadRequest, "invalid_availability", err.Error())
			default:
				writeError(w, http.StatusInternalServerError, "internal_error", db.Message(err))
			}
			return
		}
		writeJSON(w, http.StatusOK, rules)
	}
}

func listAppointmentsHandler(svc BookingService) http.HandlerFunc {
	return listHandler(svc.ListAppointments)
}

func listLeadsHandler(svc IntakeService) http.HandlerFunc {
	return listHandler(svc.ListLeads)
}

func listProjectLeadsHandler(svc IntakeService) http.HandlerFunc {
	return listHandler(svc.ListProjectLeads)
}

func listFormsHandler(svc IntakeService) http.HandlerFunc {
	return listHandler(svc.ListForms)
}

func listHandler[T any](list func(ctx context.Context) ([]T, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		items, err := list(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal_error", db.Message(err))
			return
		}
		writeJSON(w, http.StatusOK, emptyIfNil(items))
	}
}
