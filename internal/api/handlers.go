package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/hackgods/studio-booking/internal/auth"
	"github.com/hackgods/studio-booking/internal/booking"
	"github.com/hackgods/studio-booking/internal/db"
	"github.com/hackgods/studio-booking/internal/leads"
	"github.com/hackgods/studio-booking/internal/voice"
	"github.com/hackgods/studio-booking/pkg/logging"
)

func listSlotsHandler(svc BookingService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		date := r.URL.Query().Get("date")
		if date == "" {
			writeError(w, http.StatusBadRequest, "missing_date", "date query parameter is required (YYYY-MM-DD)")
			return
		}

		list, err := svc.FetchSlots(r.Context(), date)
		if err != nil {
			if errors.Is(err, booking.ErrInvalidDate) {
				writeError(w, http.StatusBadRequest, "invalid_date", err.Error())
				return
			}
			writeError(w, http.StatusInternalServerError, "internal_error", db.Message(err))
			return
		}

		writeJSON(w, http.StatusOK, list)
	}
}

func createAppointmentHandler(svc BookingService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req booking.Request
		if !decodeJSON(w, r, &req, false) {
			return
		}

		appt, err := svc.SubmitAppointment(r.Context(), req)
		if err != nil {
			handleBookingError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, appt)
	}
}

func handleBookingError(w http.ResponseWriter, err error) {
	switch {
	case booking.IsValidation(err):
		writeError(w, http.StatusBadRequest, "validation_error", err.Error())
	case errors.Is(err, booking.ErrSlotUnavailable):
		writeError(w, http.StatusConflict, "slot_unavailable", err.Error())
	case errors.Is(err, booking.ErrSlotBeingBooked):
		writeError(w, http.StatusConflict, "slot_being_booked", "slot is currently being booked, please retry shortly")
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", db.Message(err))
	}
}

func createLeadHandler(svc IntakeService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in leads.LeadInput
		if !decodeJSON(w, r, &in, false) {
			return
		}
		lead, err := svc.CreateLead(r.Context(), in)
		if err != nil {
			handleIntakeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, lead)
	}
}

func createProjectLeadHandler(svc IntakeService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in leads.ProjectLeadInput
		if !decodeJSON(w, r, &in, false) {
			return
		}
		lead, err := svc.CreateProjectLead(r.Context(), in)
		if err != nil {
			handleIntakeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, lead)
	}
}

func submitContactFormHandler(svc IntakeService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		raw, ok := readBody(w, r)
		if !ok {
			return
		}
		sub, err := svc.SubmitForm(r.Context(), leads.FormContact, nil, raw)
		if err != nil {
			handleIntakeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, sub)
	}
}

func submitFormHandler(svc IntakeService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		formType, err := leads.ParseFormType(chi.URLParam(r, "type"))
		if err != nil {
			handleIntakeError(w, err)
			return
		}
		raw, ok := readBody(w, r)
		if !ok {
			return
		}

		var userID *uuid.UUID
		if id, ok := auth.IdentityFromContext(r.Context()); ok {
			userID = &id.UserID
		}

		sub, err := svc.SubmitForm(r.Context(), formType, userID, raw)
		if err != nil {
			handleIntakeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, sub)
	}
}

func readBody(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request_body", "could not read body")
		return nil, false
	}
	return raw, true
}

func handleIntakeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, leads.ErrValidation):
		writeError(w, http.StatusBadRequest, "validation_error", err.Error())
	case errors.Is(err, leads.ErrAuthRequired):
		writeError(w, http.StatusUnauthorized, "unauthorized", err.Error())
	case errors.Is(err, leads.ErrUnknownFormType):
		writeError(w, http.StatusNotFound, "unknown_form_type", err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", db.Message(err))
	}
}

func createWebCallHandler(svc VoiceService, logger *logging.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		// An unreadable body is treated as {} so the default agent is used.
		var req CreateWebCallRequest
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
			req = CreateWebCallRequest{}
		}

		call, err := svc.Provision(r.Context(), req.AgentID)
		if err != nil {
			switch {
			case errors.Is(err, voice.ErrMissingAgentID):
				writeJSON(w, http.StatusBadRequest, WebCallErrorResponse{Error: err.Error(), Code: "missing_agent_id"})
			case errors.Is(err, voice.ErrMissingAPIKey):
				writeJSON(w, http.StatusInternalServerError, WebCallErrorResponse{Error: err.Error(), Code: "voice_not_configured"})
			default:
				logger.Warn("web call failed, client should use fallback greeting", "error", err)
				writeJSON(w, http.StatusInternalServerError, WebCallErrorResponse{
					Error:            voice.ErrCallFailed.Error(),
					Code:             "call_failed",
					FallbackGreeting: voice.FallbackGreeting,
				})
			}
			return
		}

		writeJSON(w, http.StatusOK, call)
	}
}
