package booking

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/hackgods/studio-booking/internal/availability"
	"github.com/hackgods/studio-booking/internal/db"
	"github.com/hackgods/studio-booking/internal/notify"
	"github.com/hackgods/studio-booking/internal/observability/metrics"
	redisclient "github.com/hackgods/studio-booking/internal/redis"
	"github.com/hackgods/studio-booking/pkg/logging"
)

var tracer = otel.Tracer("studio.internal.booking")

var (
	ErrNameRequired    = errors.New("name is required")
	ErrEmailRequired   = errors.New("email is required")
	ErrInvalidEmail    = errors.New("email is not a valid address")
	ErrDateRequired    = errors.New("date is required")
	ErrTimeRequired    = errors.New("time is required")
	ErrInvalidDate     = errors.New("date must be YYYY-MM-DD")
	ErrInvalidTime     = errors.New("time must be HH:MM")
	ErrSlotUnavailable = errors.New("slot is no longer available")
	ErrSlotBeingBooked = errors.New("slot is currently being booked, please retry")
)

// IsValidation reports whether err was caused by bad input rather than the datastore.
func IsValidation(err error) bool {
	for _, target := range []error{
		ErrNameRequired, ErrEmailRequired, ErrInvalidEmail,
		ErrDateRequired, ErrTimeRequired, ErrInvalidDate, ErrInvalidTime,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// RuleSource provides the stored weekly availability.
type RuleSource interface {
	Week(ctx context.Context) (availability.Week, error)
}

type Settings struct {
	Location     *time.Location
	SlotDuration time.Duration
	// AdminEmail receives a notification for each confirmed booking. Empty disables it.
	AdminEmail string
	// NotifyTimeout bounds one notification send. Defaults to 10s.
	NotifyTimeout time.Duration
	Now           func() time.Time
}

type Service struct {
	repo     Repository
	rules    RuleSource
	locker   redisclient.Locker
	notifier notify.EmailSender
	settings Settings
	logger   *logging.Logger
	metrics  *metrics.Metrics

	notifications sync.WaitGroup
}

func NewService(
	repo Repository,
	rules RuleSource,
	locker redisclient.Locker,
	notifier notify.EmailSender,
	settings Settings,
	logger *logging.Logger,
	m *metrics.Metrics,
) *Service {
	if logger == nil {
		logger = logging.Default()
	}
	if locker == nil {
		locker = redisclient.NoopLocker{}
	}
	if settings.Location == nil {
		settings.Location = time.UTC
	}
	if settings.SlotDuration <= 0 {
		settings.SlotDuration = 30 * time.Minute
	}
	if settings.NotifyTimeout <= 0 {
		settings.NotifyTimeout = 10 * time.Second
	}
	if settings.Now == nil {
		settings.Now = time.Now
	}
	return &Service{
		repo:     repo,
		rules:    rules,
		locker:   locker,
		notifier: notifier,
		settings: settings,
		logger:   logger.Named("booking"),
		metrics:  m,
	}
}

// ParseDate reads a YYYY-MM-DD calendar date as midnight in loc.
func ParseDate(date string, loc *time.Location) (time.Time, error) {
	day, err := time.ParseInLocation(DateLayout, strings.TrimSpace(date), loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, date)
	}
	return day, nil
}

func normalizeClock(s string) (string, bool) {
	c, err := availability.ParseClock(strings.TrimSpace(s))
	if err != nil {
		return "", false
	}
	return c.HHMM(), true
}

// FetchSlots lists the open 30-minute start times for date. A day with no active
// rule yields an empty list with NoAvailabilityReason.
func (s *Service) FetchSlots(ctx context.Context, date string) (SlotList, error) {
	ctx, span := tracer.Start(ctx, "booking.fetch_slots")
	defer span.End()
	span.SetAttributes(attribute.String("booking.date", date))

	loc := s.settings.Location
	day, err := ParseDate(date, loc)
	if err != nil {
		s.metrics.ObserveSlotFetch("invalid")
		return SlotList{}, err
	}

	list := SlotList{
		Date:     day.Format(DateLayout),
		Timezone: loc.String(),
		Slots:    []string{},
	}

	week, err := s.rules.Week(ctx)
	if err != nil {
		s.metrics.ObserveSlotFetch("error")
		span.SetStatus(codes.Error, err.Error())
		return SlotList{}, err
	}
	rule := week.Rule(day.Weekday())
	if !rule.Active {
		s.metrics.ObserveSlotFetch("unavailable")
		list.Reason = NoAvailabilityReason
		return list, nil
	}

	from := rule.Start.On(day, loc)
	to := rule.End.On(day, loc)
	existing, err := s.repo.ListByRange(ctx, from, to)
	if err != nil {
		s.metrics.ObserveSlotFetch("error")
		span.SetStatus(codes.Error, err.Error())
		return SlotList{}, fmt.Errorf("list appointments: %w", err)
	}

	busy := make([]availability.Interval, 0, len(existing))
	for _, a := range existing {
		busy = append(busy, availability.Interval{Start: a.StartTime, End: a.EndTime})
	}

	for _, slot := range availability.DeriveSlots(rule, day, loc, s.settings.SlotDuration, busy, s.settings.Now()) {
		list.Slots = append(list.Slots, slot.In(loc).Format("15:04"))
	}
	span.SetAttributes(attribute.Int("booking.slots", len(list.Slots)))

	if len(list.Slots) == 0 {
		s.metrics.ObserveSlotFetch("full")
		list.Reason = FullyBookedReason
		return list, nil
	}
	s.metrics.ObserveSlotFetch("ok")
	return list, nil
}

// SubmitAppointment books req.Date/req.Time. The open slots are derived again under the
// slot lock, so a slot taken after the visitor fetched the list is rejected with
// ErrSlotUnavailable.
func (s *Service) SubmitAppointment(ctx context.Context, req Request) (*Appointment, error) {
	ctx, span := tracer.Start(ctx, "booking.submit")
	defer span.End()

	started := time.Now()
	appt, err := s.submit(ctx, req)
	s.metrics.ObserveBooking(bookingResult(err), time.Since(started).Seconds())
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	span.SetAttributes(attribute.String("appointment.id", appt.ID.String()))

	s.notifyAdmin(ctx, appt)
	return appt, nil
}

func (s *Service) submit(ctx context.Context, req Request) (*Appointment, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	loc := s.settings.Location
	day, err := ParseDate(req.Date, loc)
	if err != nil {
		return nil, err
	}
	clock, err := availability.ParseClock(req.Time)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidTime, req.Time)
	}
	start := clock.On(day, loc)
	end := start.Add(s.settings.SlotDuration)

	var (
		created *Appointment
		ran     bool
	)
	book := func(lockCtx context.Context) error {
		ran = true
		list, err := s.FetchSlots(lockCtx, req.Date)
		if err != nil {
			return err
		}
		if !list.Offers(list.Date, clock.HHMM()) {
			return ErrSlotUnavailable
		}

		appt, err := s.repo.Create(lockCtx, NewAppointment{
			Name:      req.Name,
			Email:     req.Email,
			Message:   req.Message,
			StartTime: start,
			EndTime:   end,
		})
		if err != nil {
			if db.IsConflict(err) {
				return ErrSlotUnavailable
			}
			return fmt.Errorf("create appointment: %w", err)
		}
		created = appt
		return nil
	}

	err = s.locker.WithSlotLock(ctx, start, book)
	switch {
	case err == nil:
	case errors.Is(err, redisclient.ErrLockNotAcquired):
		return nil, ErrSlotBeingBooked
	case !ran:
		// Lock backend unreachable; the exclusion constraint still guards the insert.
		s.logger.Warn("slot lock unavailable, booking without it", "slot", start, "error", err)
		if err := book(ctx); err != nil {
			return nil, err
		}
	default:
		return nil, err
	}

	s.logger.Info("appointment booked",
		"appointment_id", created.ID,
		"start_time", created.StartTime,
	)
	return created, nil
}

func bookingResult(err error) string {
	switch {
	case err == nil:
		return "confirmed"
	case IsValidation(err):
		return "invalid"
	case errors.Is(err, ErrSlotUnavailable), errors.Is(err, ErrSlotBeingBooked):
		return "conflict"
	default:
		return "error"
	}
}

// notifyAdmin emails the admin in the background. The send outlives the request
// but is bounded by NotifyTimeout.
func (s *Service) notifyAdmin(ctx context.Context, appt *Appointment) {
	if s.notifier == nil || s.settings.AdminEmail == "" {
		return
	}
	local := appt.StartTime.In(s.settings.Location)
	msg, err := notify.BookingNotice{
		Name:     appt.Name,
		Email:    appt.Email,
		Message:  appt.Message,
		Date:     local.Format(DateLayout),
		Time:     local.Format("15:04"),
		Timezone: s.settings.Location.String(),
	}.Message(s.settings.AdminEmail)
	if err != nil {
		s.logger.Error("failed to render booking notification", "appointment_id", appt.ID, "error", err)
		return
	}

	sendCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.settings.NotifyTimeout)
	s.notifications.Add(1)
	go func() {
		defer s.notifications.Done()
		defer cancel()
		if err := s.notifier.Send(sendCtx, msg); err != nil {
			s.logger.Warn("failed to send booking notification", "appointment_id", appt.ID, "error", err)
		}
	}()
}

// Wait blocks until pending booking notifications have been sent or timed out.
func (s *Service) Wait() {
	s.notifications.Wait()
}

func (s *Service) ListAppointments(ctx context.Context) ([]Appointment, error) {
	appts, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list appointments: %w", err)
	}
	return appts, nil
}

// CompletePast marks confirmed appointments whose end time has passed as completed.
// Rows that fail to update are logged and skipped.
func (s *Service) CompletePast(ctx context.Context) (int, error) {
	ctx, span := tracer.Start(ctx, "booking.complete_past")
	defer span.End()

	ended, err := s.repo.ListEndedConfirmed(ctx, s.settings.Now())
	if err != nil {
		return 0, fmt.Errorf("list ended appointments: %w", err)
	}

	completed := 0
	for _, a := range ended {
		if _, err := s.repo.UpdateStatus(ctx, a.ID, StatusConfirmed, StatusCompleted); err != nil {
			if errors.Is(err, ErrAppointmentNotFound) {
				continue
			}
			s.logger.Error("failed to complete appointment", "appointment_id", a.ID, "error", err)
			continue
		}
		completed++
	}
	span.SetAttributes(attribute.Int("booking.completed", completed))
	return completed, nil
}
