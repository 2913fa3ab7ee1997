package api

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/hackgods/studio-booking/internal/availability"
	"github.com/hackgods/studio-booking/internal/booking"
	"github.com/hackgods/studio-booking/internal/leads"
	"github.com/hackgods/studio-booking/internal/voice"
)

type fakeBooking struct {
	slots     booking.SlotList
	fetchErr  error
	submitErr error
	listErr   error
	submitted []booking.Request
}

func (f *fakeBooking) FetchSlots(ctx context.Context, date string) (booking.SlotList, error) {
	if f.fetchErr != nil {
		return booking.SlotList{}, f.fetchErr
	}
	list := f.slots
	list.Date = date
	return list, nil
}

func (f *fakeBooking) SubmitAppointment(ctx context.Context, req booking.Request) (*booking.Appointment, error) {
	f.submitted = append(f.submitted, req)
	if f.submitErr != nil {
		return nil, f.submitErr
	}
	start := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	return &booking.Appointment{
		ID:        uuid.New(),
		Name:      req.Name,
		Email:     req.Email,
		StartTime: start,
		EndTime:   start.Add(30 * time.Minute),
		Status:    booking.StatusConfirmed,
	}, nil
}

func (f *fakeBooking) ListAppointments(ctx context.Context) ([]booking.Appointment, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return []booking.Appointment{{ID: uuid.New(), Name: "Jane Doe", Status: booking.StatusConfirmed}}, nil
}

type fakeAvailability struct {
	err   error
	saved []availability.Rule
}

func (f *fakeAvailability) Reconcile(ctx context.Context) ([]availability.Rule, error) {
	if f.err != nil {
		return nil, f.err
	}
	rules := make([]availability.Rule, 0, availability.DaysPerWeek)
	for d := time.Sunday; d <= time.Saturday; d++ {
		rules = append(rules, availability.DefaultRule(d))
	}
	return rules, nil
}

func (f *fakeAvailability) Save(ctx context.Context, rules []availability.Rule) ([]availability.Rule, error) {
	if err := availability.ValidateRules(rules); err != nil {
		return nil, err
	}
	f.saved = rules
	return f.Reconcile(ctx)
}

type fakeIntake struct {
	mu       sync.Mutex
	leadsErr error
	forms    []formCall
}

type formCall struct {
	formType leads.FormType
	userID   *uuid.UUID
	raw      string
}

func (f *fakeIntake) CreateLead(ctx context.Context, in leads.LeadInput) (*leads.Lead, error) {
	if in.Name == "" {
		return nil, errors.Join(leads.ErrValidation, errors.New("name is required"))
	}
	return &leads.Lead{ID: uuid.New(), Name: in.Name, Email: in.Email, Status: leads.StatusNew}, nil
}

func (f *fakeIntake) CreateProjectLead(ctx context.Context, in leads.ProjectLeadInput) (*leads.ProjectLead, error) {
	return &leads.ProjectLead{ID: uuid.New(), FullName: in.FullName, ProjectType: leads.ProjectTypeCode(in.ProjectType), Status: leads.StatusNew}, nil
}

func (f *fakeIntake) SubmitForm(ctx context.Context, formType leads.FormType, userID *uuid.UUID, raw []byte) (*leads.FormSubmission, error) {
	f.mu.Lock()
	f.forms = append(f.forms, formCall{formType: formType, userID: userID, raw: string(raw)})
	f.mu.Unlock()
	return &leads.FormSubmission{ID: uuid.New(), FormType: formType, UserID: userID, FormData: raw}, nil
}

func (f *fakeIntake) ListLeads(ctx context.Context) ([]leads.Lead, error) {
	if f.leadsErr != nil {
		return nil, f.leadsErr
	}
	return []leads.Lead{{ID: uuid.New(), Name: "Lead"}}, nil
}

func (f *fakeIntake) ListProjectLeads(ctx context.Context) ([]leads.ProjectLead, error) {
	return nil, nil
}

func (f *fakeIntake) ListForms(ctx context.Context) ([]leads.FormSubmission, error) {
	return []leads.FormSubmission{{ID: uuid.New(), FormType: leads.FormA}}, nil
}

type fakeVoice struct {
	err       error
	requested []string
}

func (f *fakeVoice) Provision(ctx context.Context, agentID string) (*voice.WebCall, error) {
	f.requested = append(f.requested, agentID)
	if f.err != nil {
		return nil, f.err
	}
	return &voice.WebCall{AccessToken: "tok", CallID: "call_1", AgentID: agentID}, nil
}

type fakePinger struct{ err error }

func (p fakePinger) Ping(ctx context.Context) error { return p.err }
