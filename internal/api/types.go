package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/hackgods/studio-booking/internal/availability"
	"github.com/hackgods/studio-booking/internal/booking"
	"github.com/hackgods/studio-booking/internal/leads"
)

const maxBodyBytes = 1 << 20

type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

type CreateWebCallRequest struct {
	AgentID string `json:"agent_id"`
}

// WebCallErrorResponse keeps the browser contract of the web-call route: error holds the
// human message, code the slug.
type WebCallErrorResponse struct {
	Error            string `json:"error"`
	Code             string `json:"code"`
	FallbackGreeting string `json:"fallback_greeting,omitempty"`
}

type SaveAvailabilityRequest struct {
	Rules []availability.Rule `json:"rules"`
}

type DashboardResponse struct {
	Leads        []leads.Lead           `json:"leads"`
	ProjectLeads []leads.ProjectLead    `json:"project_leads"`
	Forms        []leads.FormSubmission `json:"forms"`
	Appointments []booking.Appointment  `json:"appointments"`
	Availability []availability.Rule    `json:"availability"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, details string) {
	writeJSON(w, status, ErrorResponse{Error: code, Details: details})
}

// decodeJSON reads a single JSON object. An empty body decodes to the zero value when
// allowEmpty is set.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any, allowEmpty bool) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		if allowEmpty && errors.Is(err, io.EOF) {
			return true
		}
		writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
		return false
	}
	return true
}

func emptyIfNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
