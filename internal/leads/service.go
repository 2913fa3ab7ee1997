package leads

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/hackgods/studio-booking/internal/observability/metrics"
	"github.com/hackgods/studio-booking/pkg/logging"
)

var tracer = otel.Tracer("studio.internal.leads")

var (
	ErrValidation      = errors.New("validation failed")
	ErrUnknownFormType = errors.New("unknown form type")
	ErrAuthRequired    = errors.New("form requires a signed-in user")
)

func required(field string) error {
	return fmt.Errorf("%w: %s is required", ErrValidation, field)
}

type Service struct {
	repo    Repository
	logger  *logging.Logger
	metrics *metrics.Metrics
}

func NewService(repo Repository, logger *logging.Logger, m *metrics.Metrics) *Service {
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{
		repo:    repo,
		logger:  logger.Named("leads"),
		metrics: m,
	}
}

func validEmail(field, email string) error {
	if email == "" {
		return required(field)
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return fmt.Errorf("%w: %s is not a valid address", ErrValidation, field)
	}
	return nil
}

func (s *Service) observe(kind string, err error) {
	switch {
	case err == nil:
		s.metrics.ObserveLead(kind, "ok")
	case errors.Is(err, ErrValidation), errors.Is(err, ErrAuthRequired), errors.Is(err, ErrUnknownFormType):
		s.metrics.ObserveLead(kind, "invalid")
	default:
		s.metrics.ObserveLead(kind, "error")
	}
}

func (s *Service) CreateLead(ctx context.Context, in LeadInput) (lead *Lead, err error) {
	ctx, span := tracer.Start(ctx, "leads.create_lead")
	defer span.End()
	defer func() { s.observe("lead", err) }()

	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.TrimSpace(in.Email)
	in.ProjectDetails = strings.TrimSpace(in.ProjectDetails)
	if in.Name == "" {
		return nil, required("name")
	}
	if err := validEmail("email", in.Email); err != nil {
		return nil, err
	}

	lead, err = s.repo.CreateLead(ctx, in)
	if err != nil {
		return nil, fmt.Errorf("create lead: %w", err)
	}
	s.logger.Info("lead created", "lead_id", lead.ID)
	return lead, nil
}

// CreateProjectLead maps form labels to their stored codes, falling back to
// other/unknown/flexible, and stores the intake with status "new".
func (s *Service) CreateProjectLead(ctx context.Context, in ProjectLeadInput) (lead *ProjectLead, err error) {
	ctx, span := tracer.Start(ctx, "leads.create_project_lead")
	defer span.End()
	defer func() { s.observe("project_lead", err) }()

	p := ProjectLead{
		FullName:    strings.TrimSpace(in.FullName),
		Email:       strings.TrimSpace(in.Email),
		Phone:       strings.TrimSpace(in.Phone),
		CompanyName: strings.TrimSpace(in.CompanyName),
		ProjectType: ProjectTypeCode(in.ProjectType),
		Description: strings.TrimSpace(in.Description),
		Features:    cleanList(in.Features),
		Budget:      BudgetCode(in.Budget),
		Timeline:    TimelineCode(in.Timeline),
		ExistingURL: strings.TrimSpace(in.ExistingURL),
		Status:      StatusNew,
		Attachments: nonNilAttachments(in.Attachments),
	}
	if p.FullName == "" {
		return nil, required("full_name")
	}
	if err := validEmail("email", p.Email); err != nil {
		return nil, err
	}
	for _, a := range p.Attachments {
		if a.Name == "" || a.URL == "" {
			return nil, fmt.Errorf("%w: attachments need a name and url", ErrValidation)
		}
	}
	span.SetAttributes(
		attribute.String("lead.project_type", p.ProjectType),
		attribute.String("lead.budget", p.Budget),
	)

	lead, err = s.repo.CreateProjectLead(ctx, p)
	if err != nil {
		return nil, fmt.Errorf("create project lead: %w", err)
	}
	s.logger.Info("project lead created", "lead_id", lead.ID, "project_type", lead.ProjectType)
	return lead, nil
}

// SubmitForm validates raw against the schema of formType and stores it as form_data.
// userID must be set for forms that require a signed-in user.
func (s *Service) SubmitForm(ctx context.Context, formType FormType, userID *uuid.UUID, raw []byte) (sub *FormSubmission, err error) {
	ctx, span := tracer.Start(ctx, "leads.submit_form")
	defer span.End()
	span.SetAttributes(attribute.String("form.type", string(formType)))
	defer func() { s.observe("form_"+string(formType), err) }()

	if _, err := ParseFormType(string(formType)); err != nil {
		return nil, err
	}
	if formType.RequiresUser() && userID == nil {
		return nil, ErrAuthRequired
	}

	data, err := normalizeForm(formType, raw)
	if err != nil {
		return nil, err
	}
	if formType == FormContact {
		userID = nil
	}

	sub, err = s.repo.CreateForm(ctx, formType, userID, data)
	if err != nil {
		return nil, fmt.Errorf("create form submission: %w", err)
	}
	s.logger.Info("form submitted", "form_id", sub.ID, "form_type", formType)
	return sub, nil
}

func normalizeForm(formType FormType, raw []byte) ([]byte, error) {
	var v any
	switch formType {
	case FormContact:
		var f ContactForm
		if err := decodeStrict(raw, &f); err != nil {
			return nil, err
		}
		f.FullName = strings.TrimSpace(f.FullName)
		f.Email = strings.TrimSpace(f.Email)
		f.Message = strings.TrimSpace(f.Message)
		if f.FullName == "" {
			return nil, required("full_name")
		}
		if err := validEmail("email", f.Email); err != nil {
			return nil, err
		}
		if f.Message == "" {
			return nil, required("message")
		}
		v = f
	case FormA:
		var f FormAData
		if err := decodeStrict(raw, &f); err != nil {
			return nil, err
		}
		f.Title = strings.TrimSpace(f.Title)
		f.Description = strings.TrimSpace(f.Description)
		if f.Title == "" {
			return nil, required("title")
		}
		if f.Description == "" {
			return nil, required("description")
		}
		v = f
	case FormB:
		var f FormBData
		if err := decodeStrict(raw, &f); err != nil {
			return nil, err
		}
		f.Notes = strings.TrimSpace(f.Notes)
		if f.Notes == "" {
			return nil, required("notes")
		}
		if !f.Clearance {
			return nil, required("clearance")
		}
		v = f
	default:
		return nil, ErrUnknownFormType
	}
	return json.Marshal(v)
}

func decodeStrict(raw []byte, dst any) error {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}
	return nil
}

func (s *Service) ListLeads(ctx context.Context) ([]Lead, error) {
	return s.repo.ListLeads(ctx)
}

func (s *Service) ListProjectLeads(ctx context.Context) ([]ProjectLead, error) {
	return s.repo.ListProjectLeads(ctx)
}

func (s *Service) ListForms(ctx context.Context) ([]FormSubmission, error) {
	return s.repo.ListForms(ctx)
}

func cleanList(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
