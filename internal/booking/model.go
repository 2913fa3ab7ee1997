package booking

import (
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusConfirmed Status = "confirmed"
	StatusCancelled Status = "cancelled"
	StatusCompleted Status = "completed"
)

const (
	DateLayout = "2006-01-02"

	NoAvailabilityReason = "No availability for this day"
	FullyBookedReason    = "No open slots left for this day"
)

type Appointment struct {
	ID        uuid.UUID `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Message   string    `json:"message,omitempty"`
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
	Status    Status    `json:"status"`
}

// NewAppointment is the row written on a successful booking. Status is left to the
// column default.
type NewAppointment struct {
	Name      string
	Email     string
	Message   string
	StartTime time.Time
	EndTime   time.Time
}

// Details is what the visitor types in the details-entry step.
type Details struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Message string `json:"message,omitempty"`
}

// Request is a booking submission. Date is YYYY-MM-DD and Time is HH:MM, both in the
// business location, as returned by FetchSlots.
type Request struct {
	Details
	Date string `json:"date"`
	Time string `json:"time"`
}

func (r *Request) Normalize() {
	r.Name = strings.TrimSpace(r.Name)
	r.Email = strings.TrimSpace(r.Email)
	r.Message = strings.TrimSpace(r.Message)
	r.Date = strings.TrimSpace(r.Date)
	r.Time = strings.TrimSpace(r.Time)
}

// Validate checks required fields only; it never touches the datastore.
func (r Request) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return ErrNameRequired
	}
	if strings.TrimSpace(r.Email) == "" {
		return ErrEmailRequired
	}
	if _, err := mail.ParseAddress(strings.TrimSpace(r.Email)); err != nil {
		return ErrInvalidEmail
	}
	if strings.TrimSpace(r.Date) == "" {
		return ErrDateRequired
	}
	if strings.TrimSpace(r.Time) == "" {
		return ErrTimeRequired
	}
	return nil
}

// SlotList is the result of a slot lookup. An empty list with a Reason means
// "no availability", not an error.
type SlotList struct {
	Date     string   `json:"date"`
	Timezone string   `json:"timezone"`
	Slots    []string `json:"slots"`
	Reason   string   `json:"reason,omitempty"`
}

func (l SlotList) Available() bool {
	return len(l.Slots) > 0
}

// Offers reports whether date/time was part of this list.
func (l SlotList) Offers(date, clock string) bool {
	if l.Date != strings.TrimSpace(date) {
		return false
	}
	label, ok := normalizeClock(clock)
	if !ok {
		return false
	}
	for _, s := range l.Slots {
		if s == label {
			return true
		}
	}
	return false
}
