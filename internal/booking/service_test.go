package booking

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hackgods/studio-booking/internal/availability"
	redisclient "github.com/hackgods/studio-booking/internal/redis"
)

func newTestService(repo *memoryRepo, rules staticRules, sender *recordingSender) *Service {
	settings := Settings{
		Location:     time.UTC,
		SlotDuration: 30 * time.Minute,
		AdminEmail:   "owner@studio.test",
		Now:          func() time.Time { return testNow },
	}
	if sender == nil {
		return NewService(repo, rules, redisclient.NoopLocker{}, nil, settings, nil, nil)
	}
	return NewService(repo, rules, redisclient.NoopLocker{}, sender, settings, nil, nil)
}

func janeDoe(date, clock string) Request {
	return Request{
		Details: Details{Name: "Jane Doe", Email: "jane@x.com"},
		Date:    date,
		Time:    clock,
	}
}

func TestFetchSlots_FullDay(t *testing.T) {
	svc := newTestService(&memoryRepo{}, staticRules{rules: []availability.Rule{mondayNineToFive()}}, nil)

	list, err := svc.FetchSlots(context.Background(), testMonday)
	require.NoError(t, err)

	require.Len(t, list.Slots, 16)
	assert.Equal(t, "09:00", list.Slots[0])
	assert.Equal(t, "16:30", list.Slots[15])
	assert.Equal(t, testMonday, list.Date)
	assert.Equal(t, "UTC", list.Timezone)
	assert.Empty(t, list.Reason)
}

func TestFetchSlots_ExcludesBookedSlot(t *testing.T) {
	repo := &memoryRepo{appts: []Appointment{{
		StartTime: at(testMonday, 10, 0),
		EndTime:   at(testMonday, 10, 30),
		Status:    StatusConfirmed,
	}}}
	svc := newTestService(repo, staticRules{rules: []availability.Rule{mondayNineToFive()}}, nil)

	list, err := svc.FetchSlots(context.Background(), testMonday)
	require.NoError(t, err)

	assert.Len(t, list.Slots, 15)
	assert.NotContains(t, list.Slots, "10:00")
	assert.Contains(t, list.Slots, "10:30")
}

func TestFetchSlots_CancelledDoesNotBlock(t *testing.T) {
	repo := &memoryRepo{appts: []Appointment{{
		StartTime: at(testMonday, 10, 0),
		EndTime:   at(testMonday, 10, 30),
		Status:    StatusCancelled,
	}}}
	svc := newTestService(repo, staticRules{rules: []availability.Rule{mondayNineToFive()}}, nil)

	list, err := svc.FetchSlots(context.Background(), testMonday)
	require.NoError(t, err)
	assert.Contains(t, list.Slots, "10:00")
}

func TestFetchSlots_NoAvailability(t *testing.T) {
	tests := []struct {
		name  string
		rules []availability.Rule
	}{
		{name: "no stored rule", rules: nil},
		{name: "inactive rule", rules: []availability.Rule{availability.DefaultRule(time.Monday)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newTestService(&memoryRepo{}, staticRules{rules: tt.rules}, nil)

			list, err := svc.FetchSlots(context.Background(), testMonday)
			require.NoError(t, err)
			assert.Empty(t, list.Slots)
			assert.NotNil(t, list.Slots)
			assert.Equal(t, NoAvailabilityReason, list.Reason)
		})
	}
}

func TestFetchSlots_FullyBooked(t *testing.T) {
	repo := &memoryRepo{appts: []Appointment{{
		StartTime: at(testMonday, 9, 0),
		EndTime:   at(testMonday, 17, 0),
		Status:    StatusConfirmed,
	}}}
	svc := newTestService(repo, staticRules{rules: []availability.Rule{mondayNineToFive()}}, nil)

	list, err := svc.FetchSlots(context.Background(), testMonday)
	require.NoError(t, err)
	assert.Empty(t, list.Slots)
	assert.Equal(t, FullyBookedReason, list.Reason)
}

func TestFetchSlots_Errors(t *testing.T) {
	rules := staticRules{rules: []availability.Rule{mondayNineToFive()}}

	_, err := newTestService(&memoryRepo{}, rules, nil).FetchSlots(context.Background(), "03/02/2026")
	assert.ErrorIs(t, err, ErrInvalidDate)

	_, err = newTestService(&memoryRepo{}, staticRules{err: errors.New("db down")}, nil).FetchSlots(context.Background(), testMonday)
	assert.EqualError(t, err, "db down")

	_, err = newTestService(&memoryRepo{listErr: errors.New("timeout")}, rules, nil).FetchSlots(context.Background(), testMonday)
	assert.ErrorContains(t, err, "timeout")
}

func TestSubmitAppointment_BooksSlot(t *testing.T) {
	repo := &memoryRepo{}
	sender := &recordingSender{}
	svc := newTestService(repo, staticRules{rules: []availability.Rule{mondayNineToFive()}}, sender)

	appt, err := svc.SubmitAppointment(context.Background(), janeDoe(testMonday, "09:00"))
	require.NoError(t, err)

	assert.Equal(t, at(testMonday, 9, 0), appt.StartTime)
	assert.Equal(t, at(testMonday, 9, 30), appt.EndTime)
	assert.Equal(t, StatusConfirmed, appt.Status)
	assert.Equal(t, "Jane Doe", appt.Name)
	require.Len(t, repo.appts, 1)

	svc.Wait()
	require.Len(t, sender.sent, 1)
	assert.Equal(t, "owner@studio.test", sender.sent[0].To)
	assert.Contains(t, sender.sent[0].Body, "jane@x.com")
	assert.Contains(t, sender.sent[0].HTML, "jane@x.com")

	list, err := svc.FetchSlots(context.Background(), testMonday)
	require.NoError(t, err)
	assert.NotContains(t, list.Slots, "09:00")
	assert.Len(t, list.Slots, 15)
}

func TestSubmitAppointment_NotificationFailureStillBooks(t *testing.T) {
	repo := &memoryRepo{}
	sender := &recordingSender{err: errors.New("sendgrid 401")}
	svc := newTestService(repo, staticRules{rules: []availability.Rule{mondayNineToFive()}}, sender)

	_, err := svc.SubmitAppointment(context.Background(), janeDoe(testMonday, "09:30"))
	require.NoError(t, err)
	assert.Len(t, repo.appts, 1)

	svc.Wait()
	assert.Len(t, sender.sent, 1)
}

func TestSubmitAppointment_NotificationEscapesVisitorInput(t *testing.T) {
	sender := &recordingSender{}
	svc := newTestService(&memoryRepo{}, staticRules{rules: []availability.Rule{mondayNineToFive()}}, sender)

	req := janeDoe(testMonday, "10:00")
	req.Name = `<img src=x onerror=alert(1)>`
	req.Message = "<b>hi</b>"
	_, err := svc.SubmitAppointment(context.Background(), req)
	require.NoError(t, err)

	svc.Wait()
	require.Len(t, sender.sent, 1)
	html := sender.sent[0].HTML
	assert.NotContains(t, html, "<img")
	assert.NotContains(t, html, "<b>")
	assert.Contains(t, html, "&lt;img src=x onerror=alert(1)&gt;")
	assert.Contains(t, html, "&lt;jane@x.com")
}

func TestSubmitAppointment_NotificationDoesNotBlockOrInheritCancel(t *testing.T) {
	release := make(chan struct{})
	sender := &recordingSender{block: release}
	svc := newTestService(&memoryRepo{}, staticRules{rules: []availability.Rule{mondayNineToFive()}}, sender)

	ctx, cancel := context.WithCancel(context.Background())
	appt, err := svc.SubmitAppointment(ctx, janeDoe(testMonday, "11:00"))
	require.NoError(t, err)
	require.NotNil(t, appt)
	cancel()

	close(release)
	svc.Wait()
	require.Len(t, sender.sent, 1)
	assert.NoError(t, sender.ctxErrs[0], "send must not see the request's cancellation")
}

func TestSubmitAppointment_Validation(t *testing.T) {
	tests := []struct {
		name string
		req  Request
		want error
	}{
		{name: "missing name", req: Request{Details: Details{Email: "a@b.c"}, Date: testMonday, Time: "09:00"}, want: ErrNameRequired},
		{name: "blank name", req: Request{Details: Details{Name: "  ", Email: "a@b.c"}, Date: testMonday, Time: "09:00"}, want: ErrNameRequired},
		{name: "missing email", req: Request{Details: Details{Name: "A"}, Date: testMonday, Time: "09:00"}, want: ErrEmailRequired},
		{name: "bad email", req: Request{Details: Details{Name: "A", Email: "nope"}, Date: testMonday, Time: "09:00"}, want: ErrInvalidEmail},
		{name: "missing date", req: Request{Details: Details{Name: "A", Email: "a@b.c"}, Time: "09:00"}, want: ErrDateRequired},
		{name: "missing time", req: Request{Details: Details{Name: "A", Email: "a@b.c"}, Date: testMonday}, want: ErrTimeRequired},
		{name: "bad date", req: janeDoe("2026-13-40", "09:00"), want: ErrInvalidDate},
		{name: "bad time", req: janeDoe(testMonday, "9am"), want: ErrInvalidTime},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &memoryRepo{}
			svc := newTestService(repo, staticRules{rules: []availability.Rule{mondayNineToFive()}}, nil)

			_, err := svc.SubmitAppointment(context.Background(), tt.req)
			assert.ErrorIs(t, err, tt.want)
			assert.True(t, IsValidation(err))
			assert.Zero(t, repo.createCalls)
		})
	}
}

func TestSubmitAppointment_SlotNoLongerOffered(t *testing.T) {
	tests := []struct {
		name  string
		clock string
	}{
		{name: "already booked", clock: "10:00"},
		{name: "outside window", clock: "17:00"},
		{name: "off grid", clock: "09:15"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &memoryRepo{appts: []Appointment{{
				StartTime: at(testMonday, 10, 0),
				EndTime:   at(testMonday, 10, 30),
				Status:    StatusConfirmed,
			}}}
			svc := newTestService(repo, staticRules{rules: []availability.Rule{mondayNineToFive()}}, nil)

			_, err := svc.SubmitAppointment(context.Background(), janeDoe(testMonday, tt.clock))
			assert.ErrorIs(t, err, ErrSlotUnavailable)
			assert.Zero(t, repo.createCalls)
		})
	}
}

func TestSubmitAppointment_InsertConflictMapsToUnavailable(t *testing.T) {
	repo := &memoryRepo{createErr: fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23P01"})}
	svc := newTestService(repo, staticRules{rules: []availability.Rule{mondayNineToFive()}}, nil)

	_, err := svc.SubmitAppointment(context.Background(), janeDoe(testMonday, "09:00"))
	assert.ErrorIs(t, err, ErrSlotUnavailable)
}

func TestSubmitAppointment_DatastoreErrorSurfaced(t *testing.T) {
	repo := &memoryRepo{createErr: fmt.Errorf("insert: %w", errors.New("boom"))}
	svc := newTestService(repo, staticRules{rules: []availability.Rule{mondayNineToFive()}}, nil)

	_, err := svc.SubmitAppointment(context.Background(), janeDoe(testMonday, "09:00"))
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrSlotUnavailable)
	assert.False(t, IsValidation(err))
	assert.ErrorContains(t, err, "boom")
}

func TestSubmitAppointment_ConcurrentSameSlot(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	repo := &memoryRepo{}
	svc := NewService(repo, staticRules{rules: []availability.Rule{mondayNineToFive()}},
		redisclient.NewRedisSlotLocker(client, 5*time.Second), nil,
		Settings{Location: time.UTC, SlotDuration: 30 * time.Minute, Now: func() time.Time { return testNow }},
		nil, nil)

	const workers = 8
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		success int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.SubmitAppointment(context.Background(), janeDoe(testMonday, "11:00"))
			if err == nil {
				mu.Lock()
				success++
				mu.Unlock()
				return
			}
			assert.True(t, errors.Is(err, ErrSlotUnavailable) || errors.Is(err, ErrSlotBeingBooked), "unexpected error: %v", err)
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, success)
	assert.Len(t, repo.appts, 1)
}

type brokenLocker struct{}

func (brokenLocker) WithSlotLock(ctx context.Context, _ time.Time, _ func(context.Context) error) error {
	return errors.New("acquire slot lock: dial tcp: connection refused")
}

func TestSubmitAppointment_LockBackendDownFallsBack(t *testing.T) {
	repo := &memoryRepo{}
	svc := NewService(repo, staticRules{rules: []availability.Rule{mondayNineToFive()}},
		brokenLocker{}, nil,
		Settings{Location: time.UTC, Now: func() time.Time { return testNow }},
		nil, nil)

	appt, err := svc.SubmitAppointment(context.Background(), janeDoe(testMonday, "12:00"))
	require.NoError(t, err)
	assert.Equal(t, at(testMonday, 12, 0), appt.StartTime)
}

func TestSubmitAppointment_BusinessTimezone(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	repo := &memoryRepo{}
	svc := NewService(repo, staticRules{rules: []availability.Rule{mondayNineToFive()}},
		nil, nil,
		Settings{Location: loc, Now: func() time.Time { return testNow }},
		nil, nil)

	appt, err := svc.SubmitAppointment(context.Background(), janeDoe(testMonday, "09:00"))
	require.NoError(t, err)
	// EST is UTC-5 on 2026-03-02.
	assert.Equal(t, time.Date(2026, 3, 2, 14, 0, 0, 0, time.UTC), appt.StartTime.UTC())
}

func TestCompletePast(t *testing.T) {
	repo := &memoryRepo{appts: []Appointment{
		{StartTime: at("2026-02-23", 9, 0), EndTime: at("2026-02-23", 9, 30), Status: StatusConfirmed},
		{StartTime: at("2026-02-24", 9, 0), EndTime: at("2026-02-24", 9, 30), Status: StatusCancelled},
		{StartTime: at(testMonday, 9, 0), EndTime: at(testMonday, 9, 30), Status: StatusConfirmed},
	}}
	for i := range repo.appts {
		repo.appts[i].ID = uuidFor(i)
	}
	svc := newTestService(repo, staticRules{}, nil)

	n, err := svc.CompletePast(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, n)
	assert.Equal(t, StatusCompleted, repo.appts[0].Status)
	assert.Equal(t, StatusCancelled, repo.appts[1].Status)
	assert.Equal(t, StatusConfirmed, repo.appts[2].Status)
}

func TestCompletePast_UpdateErrorsAreSkipped(t *testing.T) {
	repo := &memoryRepo{
		appts: []Appointment{
			{ID: uuidFor(0), StartTime: at("2026-02-23", 9, 0), EndTime: at("2026-02-23", 9, 30), Status: StatusConfirmed},
		},
		updateErr: errors.New("deadlock detected"),
	}
	svc := newTestService(repo, staticRules{}, nil)

	n, err := svc.CompletePast(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestListAppointments(t *testing.T) {
	repo := &memoryRepo{appts: []Appointment{
		{Name: "late", StartTime: at(testMonday, 15, 0)},
		{Name: "early", StartTime: at(testMonday, 9, 0)},
	}}
	svc := newTestService(repo, staticRules{}, nil)

	appts, err := svc.ListAppointments(context.Background())
	require.NoError(t, err)
	require.Len(t, appts, 2)
	assert.Equal(t, "early", appts[0].Name)
}
