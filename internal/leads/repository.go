package leads

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	CreateLead(ctx context.Context, in LeadInput) (*Lead, error)
	ListLeads(ctx context.Context) ([]Lead, error)

	CreateProjectLead(ctx context.Context, p ProjectLead) (*ProjectLead, error)
	ListProjectLeads(ctx context.Context) ([]ProjectLead, error)

	CreateForm(ctx context.Context, formType FormType, userID *uuid.UUID, data []byte) (*FormSubmission, error)
	ListForms(ctx context.Context) ([]FormSubmission, error)
}
