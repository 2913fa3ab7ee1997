package booking

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrAppointmentNotFound = errors.New("appointment not found")
)

// Repository contains the appointments queries.
type Repository interface {
	// ListByRange returns non-cancelled appointments overlapping [from, to).
	ListByRange(ctx context.Context, from, to time.Time) ([]Appointment, error)
	// ListAll returns every appointment, earliest start first.
	ListAll(ctx context.Context) ([]Appointment, error)
	Create(ctx context.Context, a NewAppointment) (*Appointment, error)

	// Completion worker
	ListEndedConfirmed(ctx context.Context, now time.Time) ([]Appointment, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, from, to Status) (*Appointment, error)
}
