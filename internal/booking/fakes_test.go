package booking

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/hackgods/studio-booking/internal/availability"
	"github.com/hackgods/studio-booking/internal/notify"
)

// memoryRepo rejects overlapping non-cancelled rows the way the exclusion constraint does.
type memoryRepo struct {
	mu          sync.Mutex
	appts       []Appointment
	createCalls int
	listErr     error
	createErr   error
	updateErr   error
}

func (m *memoryRepo) ListByRange(ctx context.Context, from, to time.Time) ([]Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.listErr != nil {
		return nil, m.listErr
	}
	var out []Appointment
	for _, a := range m.appts {
		if a.Status != StatusCancelled && a.StartTime.Before(to) && a.EndTime.After(from) {
			out = append(out, a)
		}
	}
	return out, nil
}

func (m *memoryRepo) ListAll(ctx context.Context) ([]Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := append([]Appointment(nil), m.appts...)
	sort.Slice(out, func(i, j int) bool { return out[i].StartTime.Before(out[j].StartTime) })
	return out, nil
}

func (m *memoryRepo) Create(ctx context.Context, a NewAppointment) (*Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.createCalls++
	if m.createErr != nil {
		return nil, m.createErr
	}
	for _, existing := range m.appts {
		if existing.Status != StatusCancelled && a.StartTime.Before(existing.EndTime) && existing.StartTime.Before(a.EndTime) {
			return nil, &pgconn.PgError{Code: "23P01", Message: "conflicting key value violates exclusion constraint"}
		}
	}
	appt := Appointment{
		ID:        uuid.New(),
		CreatedAt: time.Now(),
		Name:      a.Name,
		Email:     a.Email,
		Message:   a.Message,
		StartTime: a.StartTime,
		EndTime:   a.EndTime,
		Status:    StatusConfirmed,
	}
	m.appts = append(m.appts, appt)
	return &appt, nil
}

func (m *memoryRepo) ListEndedConfirmed(ctx context.Context, now time.Time) ([]Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Appointment
	for _, a := range m.appts {
		if a.Status == StatusConfirmed && a.EndTime.Before(now) {
			out = append(out, a)
		}
	}
	return out, nil
}

func (m *memoryRepo) UpdateStatus(ctx context.Context, id uuid.UUID, from, to Status) (*Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.updateErr != nil {
		return nil, m.updateErr
	}
	for i := range m.appts {
		if m.appts[i].ID == id && m.appts[i].Status == from {
			m.appts[i].Status = to
			a := m.appts[i]
			return &a, nil
		}
	}
	return nil, ErrAppointmentNotFound
}

type staticRules struct {
	rules []availability.Rule
	err   error
}

func (s staticRules) Week(ctx context.Context) (availability.Week, error) {
	if s.err != nil {
		return availability.Week{}, s.err
	}
	return availability.NewWeek(s.rules), nil
}

type recordingSender struct {
	mu      sync.Mutex
	sent    []notify.EmailMessage
	ctxErrs []error
	err     error
	// block, when set, holds each Send until it is closed.
	block chan struct{}
}

func (r *recordingSender) Send(ctx context.Context, msg notify.EmailMessage) error {
	if r.block != nil {
		<-r.block
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, msg)
	r.ctxErrs = append(r.ctxErrs, ctx.Err())
	return r.err
}

func mondayNineToFive() availability.Rule {
	return availability.Rule{
		ID:      uuid.New(),
		Weekday: time.Monday,
		Start:   availability.DefaultStart,
		End:     availability.DefaultEnd,
		Active:  true,
	}
}

// 2026-03-02 is a Monday.
const testMonday = "2026-03-02"

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func at(date string, hh, mm int) time.Time {
	day, _ := time.ParseInLocation(DateLayout, date, time.UTC)
	return time.Date(day.Year(), day.Month(), day.Day(), hh, mm, 0, 0, time.UTC)
}

func uuidFor(i int) uuid.UUID {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(fmt.Sprintf("appointment-%d", i)))
}

func conflictErr() error {
	return &pgconn.PgError{Code: "23P01", Message: "conflicting key value violates exclusion constraint \"appointments_no_overlap\""}
}
