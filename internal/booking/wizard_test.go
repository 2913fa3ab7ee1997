package booking

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hackgods/studio-booking/internal/availability"
)

type countingSubmitter struct {
	mu    sync.Mutex
	calls int
	err   error
	next  Submitter
}

func (c *countingSubmitter) SubmitAppointment(ctx context.Context, req Request) (*Appointment, error) {
	c.mu.Lock()
	c.calls++
	err := c.err
	c.mu.Unlock()
	if err != nil {
		return nil, err
	}
	return c.next.SubmitAppointment(ctx, req)
}

func (c *countingSubmitter) Calls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}

// gatedFetcher holds each FetchSlots call until its date is released.
type gatedFetcher struct {
	mu      sync.Mutex
	gates   map[string]chan struct{}
	started chan string
	lists   map[string]SlotList
}

func newGatedFetcher(lists map[string]SlotList) *gatedFetcher {
	g := &gatedFetcher{gates: map[string]chan struct{}{}, started: make(chan string, 4), lists: lists}
	for date := range lists {
		g.gates[date] = make(chan struct{})
	}
	return g
}

func (g *gatedFetcher) FetchSlots(ctx context.Context, date string) (SlotList, error) {
	g.mu.Lock()
	gate := g.gates[date]
	g.mu.Unlock()
	g.started <- date
	<-gate
	return g.lists[date], nil
}

func (g *gatedFetcher) release(date string) { close(g.gates[date]) }

func TestWizard_EndToEnd(t *testing.T) {
	repo := &memoryRepo{}
	svc := newTestService(repo, staticRules{rules: []availability.Rule{mondayNineToFive()}}, nil)
	w := NewWizard(svc, svc)
	ctx := context.Background()

	assert.Equal(t, StepDateSelection, w.State().Step)

	list, err := w.SelectDate(ctx, testMonday)
	require.NoError(t, err)
	require.Len(t, list.Slots, 16)

	require.NoError(t, w.SelectTime("09:00"))
	assert.Equal(t, StepDetailsEntry, w.State().Step)

	appt, err := w.Submit(ctx, Details{Name: "Jane Doe", Email: "jane@x.com"})
	require.NoError(t, err)

	state := w.State()
	assert.Equal(t, StepConfirmed, state.Step)
	assert.Equal(t, appt, state.Appointment)

	require.Len(t, repo.appts, 1)
	stored := repo.appts[0]
	assert.Equal(t, at(testMonday, 9, 0), stored.StartTime)
	assert.Equal(t, at(testMonday, 9, 30), stored.EndTime)
	assert.Equal(t, StatusConfirmed, stored.Status)

	_, err = w.SelectDate(ctx, testMonday)
	assert.ErrorIs(t, err, ErrBookingConfirmed)

	w.Reset()
	assert.Equal(t, StepDateSelection, w.State().Step)
	assert.Nil(t, w.State().Appointment)

	list, err = w.SelectDate(ctx, testMonday)
	require.NoError(t, err)
	assert.Len(t, list.Slots, 15)
	assert.NotContains(t, list.Slots, "09:00")
}

func TestWizard_RejectsUnofferedTimeWithoutRemoteCall(t *testing.T) {
	repo := &memoryRepo{appts: []Appointment{{
		StartTime: at(testMonday, 10, 0),
		EndTime:   at(testMonday, 10, 30),
		Status:    StatusConfirmed,
	}}}
	svc := newTestService(repo, staticRules{rules: []availability.Rule{mondayNineToFive()}}, nil)
	sub := &countingSubmitter{next: svc}
	w := NewWizard(svc, sub)
	ctx := context.Background()

	_, err := w.SelectDate(ctx, testMonday)
	require.NoError(t, err)

	assert.ErrorIs(t, w.SelectTime("10:00"), ErrSlotNotOffered)
	assert.ErrorIs(t, w.SelectTime("08:30"), ErrSlotNotOffered)
	assert.Equal(t, StepDateSelection, w.State().Step)

	// No time selected yet.
	_, err = w.Submit(ctx, Details{Name: "Jane Doe", Email: "jane@x.com"})
	assert.ErrorIs(t, err, ErrTimeRequired)
	assert.Zero(t, sub.Calls())
}

func TestWizard_MissingDetailsRejectedLocally(t *testing.T) {
	svc := newTestService(&memoryRepo{}, staticRules{rules: []availability.Rule{mondayNineToFive()}}, nil)
	sub := &countingSubmitter{next: svc}
	w := NewWizard(svc, sub)
	ctx := context.Background()

	_, err := w.SelectDate(ctx, testMonday)
	require.NoError(t, err)
	require.NoError(t, w.SelectTime("9:30"))
	assert.Equal(t, "09:30", w.State().SelectedTime)

	_, err = w.Submit(ctx, Details{Email: "jane@x.com"})
	assert.ErrorIs(t, err, ErrNameRequired)
	_, err = w.Submit(ctx, Details{Name: "Jane"})
	assert.ErrorIs(t, err, ErrEmailRequired)

	assert.Zero(t, sub.Calls())
	state := w.State()
	assert.Equal(t, StepDetailsEntry, state.Step)
	assert.Equal(t, ErrEmailRequired.Error(), state.Error)
}

func TestWizard_SubmitFailureStaysInDetails(t *testing.T) {
	svc := newTestService(&memoryRepo{}, staticRules{rules: []availability.Rule{mondayNineToFive()}}, nil)
	sub := &countingSubmitter{err: errors.New("duplicate key value violates unique constraint")}
	w := NewWizard(svc, sub)
	ctx := context.Background()

	_, err := w.SelectDate(ctx, testMonday)
	require.NoError(t, err)
	require.NoError(t, w.SelectTime("09:00"))

	_, err = w.Submit(ctx, Details{Name: "Jane Doe", Email: "jane@x.com"})
	require.Error(t, err)

	state := w.State()
	assert.Equal(t, StepDetailsEntry, state.Step)
	assert.Equal(t, "duplicate key value violates unique constraint", state.Error)
	assert.Equal(t, 1, sub.Calls())
}

func TestWizard_StaleFetchDiscarded(t *testing.T) {
	first := SlotList{Date: "2026-03-02", Slots: []string{"09:00"}}
	second := SlotList{Date: "2026-03-03", Slots: []string{"14:00"}}
	fetcher := newGatedFetcher(map[string]SlotList{first.Date: first, second.Date: second})
	w := NewWizard(fetcher, &countingSubmitter{})
	ctx := context.Background()

	firstDone := make(chan error, 1)
	go func() {
		_, err := w.SelectDate(ctx, first.Date)
		firstDone <- err
	}()
	<-fetcher.started

	secondDone := make(chan error, 1)
	go func() {
		_, err := w.SelectDate(ctx, second.Date)
		secondDone <- err
	}()
	<-fetcher.started

	fetcher.release(second.Date)
	require.NoError(t, <-secondDone)

	fetcher.release(first.Date)
	assert.ErrorIs(t, <-firstDone, ErrStaleSlots)

	state := w.State()
	assert.Equal(t, second.Date, state.Date)
	assert.Equal(t, []string{"14:00"}, state.Slots.Slots)
	assert.ErrorIs(t, w.SelectTime("09:00"), ErrSlotNotOffered)
	assert.NoError(t, w.SelectTime("14:00"))
}

func TestCheckSelection(t *testing.T) {
	list := SlotList{Date: testMonday, Slots: []string{"09:00", "09:30"}}

	assert.NoError(t, CheckSelection(list, janeDoe(testMonday, "09:30")))
	assert.ErrorIs(t, CheckSelection(list, janeDoe(testMonday, "10:00")), ErrSlotNotOffered)
	assert.ErrorIs(t, CheckSelection(list, janeDoe("2026-03-03", "09:00")), ErrSlotNotOffered)
	assert.ErrorIs(t, CheckSelection(list, Request{Date: testMonday, Time: "09:00"}), ErrNameRequired)
}
