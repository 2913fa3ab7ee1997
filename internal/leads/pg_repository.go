package leads

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/hackgods/studio-booking/internal/db"
)

const (
	leadColumns        = `id, created_at, name, email, project_details, status`
	projectLeadColumns = `id, created_at, full_name, email, COALESCE(phone, ''), COALESCE(company_name, ''),
		project_type, description, features, budget, timeline, COALESCE(existing_url, ''), status, attachments::text`
	formColumns = `id, created_at, COALESCE(user_id::text, ''), form_type, form_data::text`
)

type PgRepository struct {
	conn db.Conn
}

func NewPgRepository(conn db.Conn) *PgRepository {
	return &PgRepository{conn: conn}
}

func scanLead(row pgx.Row) (*Lead, error) {
	var l Lead
	if err := row.Scan(&l.ID, &l.CreatedAt, &l.Name, &l.Email, &l.ProjectDetails, &l.Status); err != nil {
		return nil, err
	}
	return &l, nil
}

func scanProjectLead(row pgx.Row) (*ProjectLead, error) {
	var (
		p           ProjectLead
		attachments string
	)
	err := row.Scan(
		&p.ID,
		&p.CreatedAt,
		&p.FullName,
		&p.Email,
		&p.Phone,
		&p.CompanyName,
		&p.ProjectType,
		&p.Description,
		&p.Features,
		&p.Budget,
		&p.Timeline,
		&p.ExistingURL,
		&p.Status,
		&attachments,
	)
	if err != nil {
		return nil, err
	}
	if p.Features == nil {
		p.Features = []string{}
	}
	p.Attachments = []Attachment{}
	if attachments != "" {
		if err := json.Unmarshal([]byte(attachments), &p.Attachments); err != nil {
			return nil, fmt.Errorf("decode attachments: %w", err)
		}
	}
	return &p, nil
}

func scanForm(row pgx.Row) (*FormSubmission, error) {
	var (
		f        FormSubmission
		userID   string
		formType string
		data     string
	)
	if err := row.Scan(&f.ID, &f.CreatedAt, &userID, &formType, &data); err != nil {
		return nil, err
	}
	if userID != "" {
		id, err := uuid.Parse(userID)
		if err != nil {
			return nil, fmt.Errorf("decode user_id: %w", err)
		}
		f.UserID = &id
	}
	f.FormType = FormType(formType)
	f.FormData = json.RawMessage(data)
	return &f, nil
}

func (r *PgRepository) CreateLead(ctx context.Context, in LeadInput) (*Lead, error) {
	row := r.conn.QueryRow(ctx, `
		INSERT INTO leads (name, email, project_details)
		VALUES ($1, $2, $3)
		RETURNING `+leadColumns,
		in.Name, in.Email, in.ProjectDetails)
	return scanLead(row)
}

func (r *PgRepository) ListLeads(ctx context.Context) ([]Lead, error) {
	rows, err := r.conn.Query(ctx, `
		SELECT `+leadColumns+`
		FROM leads
		ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Lead
	for rows.Next() {
		l, err := scanLead(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *l)
	}
	return result, rows.Err()
}

func (r *PgRepository) CreateProjectLead(ctx context.Context, p ProjectLead) (*ProjectLead, error) {
	attachments, err := json.Marshal(nonNilAttachments(p.Attachments))
	if err != nil {
		return nil, fmt.Errorf("encode attachments: %w", err)
	}
	features := p.Features
	if features == nil {
		features = []string{}
	}

	row := r.conn.QueryRow(ctx, `
		INSERT INTO project_leads (
			full_name, email, phone, company_name, project_type, description,
			features, budget, timeline, existing_url, status, attachments
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12::jsonb)
		RETURNING `+projectLeadColumns,
		p.FullName,
		p.Email,
		nullableString(p.Phone),
		nullableString(p.CompanyName),
		p.ProjectType,
		p.Description,
		features,
		p.Budget,
		p.Timeline,
		nullableString(p.ExistingURL),
		p.Status,
		string(attachments),
	)
	return scanProjectLead(row)
}

func (r *PgRepository) ListProjectLeads(ctx context.Context) ([]ProjectLead, error) {
	rows, err := r.conn.Query(ctx, `
		SELECT `+projectLeadColumns+`
		FROM project_leads
		ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []ProjectLead
	for rows.Next() {
		p, err := scanProjectLead(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *p)
	}
	return result, rows.Err()
}

func (r *PgRepository) CreateForm(ctx context.Context, formType FormType, userID *uuid.UUID, data []byte) (*FormSubmission, error) {
	var uid *string
	if userID != nil {
		s := userID.String()
		uid = &s
	}
	row := r.conn.QueryRow(ctx, `
		INSERT INTO form_submissions (user_id, form_type, form_data)
		VALUES ($1::uuid, $2, $3::jsonb)
		RETURNING `+formColumns,
		uid, string(formType), string(data))
	return scanForm(row)
}

func (r *PgRepository) ListForms(ctx context.Context) ([]FormSubmission, error) {
	rows, err := r.conn.Query(ctx, `
		SELECT `+formColumns+`
		FROM form_submissions
		ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []FormSubmission
	for rows.Next() {
		f, err := scanForm(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *f)
	}
	return result, rows.Err()
}

func nonNilAttachments(a []Attachment) []Attachment {
	if a == nil {
		return []Attachment{}
	}
	return a
}

func nullableString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
