package booking

import (
	"context"
	"errors"
	"sync"
)

type Step string

const (
	StepDateSelection Step = "date-selection"
	StepDetailsEntry  Step = "details-entry"
	StepConfirmed     Step = "confirmed"
)

var (
	ErrSlotNotOffered   = errors.New("selected time is not in the offered slots")
	ErrStaleSlots       = errors.New("slot list was superseded by a newer date selection")
	ErrBookingConfirmed = errors.New("booking already confirmed, reset to book again")
	ErrSubmitInProgress = errors.New("a submission is already in progress")
)

// SlotFetcher and Submitter are implemented by *Service and by the HTTP client.
type SlotFetcher interface {
	FetchSlots(ctx context.Context, date string) (SlotList, error)
}

type Submitter interface {
	SubmitAppointment(ctx context.Context, req Request) (*Appointment, error)
}

// WizardState is a copy of the wizard's current state.
type WizardState struct {
	Step         Step         `json:"step"`
	Date         string       `json:"date,omitempty"`
	Slots        SlotList     `json:"slots"`
	SelectedTime string       `json:"selected_time,omitempty"`
	Appointment  *Appointment `json:"appointment,omitempty"`
	Error        string       `json:"error,omitempty"`
}

// Wizard drives the three-step booking flow: pick a date, pick one of its offered
// times and enter details, then confirmed. Only the most recent date selection's
// slot list is ever applied.
type Wizard struct {
	fetcher   SlotFetcher
	submitter Submitter

	mu          sync.Mutex
	seq         uint64
	step        Step
	date        string
	slots       SlotList
	selected    string
	appointment *Appointment
	lastErr     string
	submitting  bool
}

func NewWizard(fetcher SlotFetcher, submitter Submitter) *Wizard {
	return &Wizard{
		fetcher:   fetcher,
		submitter: submitter,
		step:      StepDateSelection,
	}
}

// SelectDate fetches the slots for date. If another SelectDate started meanwhile,
// the result is discarded and ErrStaleSlots returned.
func (w *Wizard) SelectDate(ctx context.Context, date string) (SlotList, error) {
	w.mu.Lock()
	if w.step == StepConfirmed {
		w.mu.Unlock()
		return SlotList{}, ErrBookingConfirmed
	}
	w.seq++
	seq := w.seq
	w.step = StepDateSelection
	w.date = date
	w.slots = SlotList{}
	w.selected = ""
	w.lastErr = ""
	w.mu.Unlock()

	list, err := w.fetcher.FetchSlots(ctx, date)

	w.mu.Lock()
	defer w.mu.Unlock()
	if seq != w.seq {
		return SlotList{}, ErrStaleSlots
	}
	if err != nil {
		w.lastErr = err.Error()
		return SlotList{}, err
	}
	w.slots = list
	return list, nil
}

// SelectTime picks one of the times offered for the selected date.
func (w *Wizard) SelectTime(clock string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.step == StepConfirmed {
		return ErrBookingConfirmed
	}
	label, ok := normalizeClock(clock)
	if !ok || !w.slots.Offers(w.date, label) {
		return ErrSlotNotOffered
	}
	w.selected = label
	w.step = StepDetailsEntry
	w.lastErr = ""
	return nil
}

// Submit books the selected slot. Missing details or a time outside the last fetched
// list are rejected without calling the submitter. On failure the wizard stays in
// details entry with the error recorded.
func (w *Wizard) Submit(ctx context.Context, details Details) (*Appointment, error) {
	w.mu.Lock()
	if w.step == StepConfirmed {
		w.mu.Unlock()
		return nil, ErrBookingConfirmed
	}
	if w.submitting {
		w.mu.Unlock()
		return nil, ErrSubmitInProgress
	}
	req := Request{Details: details, Date: w.date, Time: w.selected}
	req.Normalize()
	if err := CheckSelection(w.slots, req); err != nil {
		w.lastErr = err.Error()
		w.mu.Unlock()
		return nil, err
	}
	w.submitting = true
	seq := w.seq
	w.mu.Unlock()

	appt, err := w.submitter.SubmitAppointment(ctx, req)

	w.mu.Lock()
	defer w.mu.Unlock()
	w.submitting = false
	if err != nil {
		w.lastErr = err.Error()
		return nil, err
	}
	if seq == w.seq {
		w.step = StepConfirmed
		w.appointment = appt
	}
	return appt, nil
}

// Reset returns to date selection and clears everything, including the confirmation.
func (w *Wizard) Reset() {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.seq++
	w.step = StepDateSelection
	w.date = ""
	w.slots = SlotList{}
	w.selected = ""
	w.appointment = nil
	w.lastErr = ""
}

func (w *Wizard) State() WizardState {
	w.mu.Lock()
	defer w.mu.Unlock()

	slots := w.slots
	slots.Slots = append([]string(nil), w.slots.Slots...)
	return WizardState{
		Step:         w.step,
		Date:         w.date,
		Slots:        slots,
		SelectedTime: w.selected,
		Appointment:  w.appointment,
		Error:        w.lastErr,
	}
}

// CheckSelection validates req locally against the slot list it was chosen from.
func CheckSelection(list SlotList, req Request) error {
	if err := req.Validate(); err != nil {
		return err
	}
	if !list.Offers(req.Date, req.Time) {
		return ErrSlotNotOffered
	}
	return nil
}
