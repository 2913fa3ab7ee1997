package leads

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

const StatusNew = "new"

// Lead is a short contact inquiry.
type Lead struct {
	ID             uuid.UUID `json:"id"`
	CreatedAt      time.Time `json:"created_at"`
	Name           string    `json:"name"`
	Email          string    `json:"email"`
	ProjectDetails string    `json:"project_details"`
	Status         string    `json:"status"`
}

type LeadInput struct {
	Name           string `json:"name"`
	Email          string `json:"email"`
	ProjectDetails string `json:"project_details"`
}

type Attachment struct {
	Name string `json:"name"`
	Size int64  `json:"size"`
	Type string `json:"type"`
	URL  string `json:"url"`
}

// ProjectLead is a "start a project" intake. ProjectType, Budget and Timeline hold the
// stored enum values, never the labels shown on the form.
type ProjectLead struct {
	ID          uuid.UUID    `json:"id"`
	CreatedAt   time.Time    `json:"created_at"`
	FullName    string       `json:"full_name"`
	Email       string       `json:"email"`
	Phone       string       `json:"phone,omitempty"`
	CompanyName string       `json:"company_name,omitempty"`
	ProjectType string       `json:"project_type"`
	Description string       `json:"description"`
	Features    []string     `json:"features"`
	Budget      string       `json:"budget"`
	Timeline    string       `json:"timeline"`
	ExistingURL string       `json:"existing_url,omitempty"`
	Status      string       `json:"status"`
	Attachments []Attachment `json:"attachments"`
}

// ProjectLeadInput accepts either the form labels or the enum values for
// project_type, budget and timeline.
type ProjectLeadInput struct {
	FullName    string       `json:"full_name"`
	Email       string       `json:"email"`
	Phone       string       `json:"phone,omitempty"`
	CompanyName string       `json:"company_name,omitempty"`
	ProjectType string       `json:"project_type"`
	Description string       `json:"description"`
	Features    []string     `json:"features"`
	Budget      string       `json:"budget"`
	Timeline    string       `json:"timeline"`
	ExistingURL string       `json:"existing_url,omitempty"`
	Attachments []Attachment `json:"attachments,omitempty"`
}

type FormType string

const (
	FormContact FormType = "contact"
	FormA       FormType = "form_a"
	FormB       FormType = "form_b"
)

// RequiresUser reports whether the form may only be submitted by a signed-in user.
func (t FormType) RequiresUser() bool {
	return t == FormA || t == FormB
}

func ParseFormType(s string) (FormType, error) {
	switch t := FormType(s); t {
	case FormContact, FormA, FormB:
		return t, nil
	default:
		return "", ErrUnknownFormType
	}
}

type FormSubmission struct {
	ID        uuid.UUID       `json:"id"`
	CreatedAt time.Time       `json:"created_at"`
	UserID    *uuid.UUID      `json:"user_id"`
	FormType  FormType        `json:"form_type"`
	FormData  json.RawMessage `json:"form_data"`
}

type ContactForm struct {
	FullName string `json:"full_name"`
	Email    string `json:"email"`
	Message  string `json:"message"`
}

type FormAData struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Priority    string `json:"priority,omitempty"`
}

type FormBData struct {
	Department string `json:"department,omitempty"`
	Notes      string `json:"notes"`
	Clearance  bool   `json:"clearance"`
}
