package availability

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/hackgods/studio-booking/internal/observability/metrics"
	"github.com/hackgods/studio-booking/pkg/logging"
)

var tracer = otel.Tracer("studio.internal.availability")

var (
	ErrInvalidWeekday   = errors.New("day_of_week must be between 0 and 6")
	ErrDuplicateWeekday = errors.New("day_of_week listed more than once")
	ErrInvalidWindow    = errors.New("start_time must be before end_time")
)

type Service struct {
	repo    Repository
	logger  *logging.Logger
	metrics *metrics.Metrics
}

func NewService(repo Repository, logger *logging.Logger, m *metrics.Metrics) *Service {
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{
		repo:    repo,
		logger:  logger.Named("availability"),
		metrics: m,
	}
}

// Reconcile makes sure every weekday has a stored rule. Missing weekdays get the
// inactive 09:00-17:00 default, written in a single batch. If that write fails the
// rows that were already stored are returned on their own.
func (s *Service) Reconcile(ctx context.Context) ([]Rule, error) {
	ctx, span := tracer.Start(ctx, "availability.reconcile")
	defer span.End()

	existing, err := s.repo.ListRules(ctx)
	if err != nil {
		return nil, fmt.Errorf("list availability: %w", err)
	}

	missing := NewWeek(existing).Missing()
	span.SetAttributes(attribute.Int("availability.missing_days", len(missing)))
	if len(missing) == 0 {
		return sortRules(existing), nil
	}

	defaults := make([]Rule, 0, len(missing))
	for _, day := range missing {
		defaults = append(defaults, DefaultRule(day))
	}

	inserted, err := s.repo.InsertRules(ctx, defaults)
	if err != nil {
		s.logger.Warn("failed to insert default availability", "missing", len(missing), "error", err)
		return sortRules(existing), nil
	}
	s.metrics.AddReconcileInserts(len(inserted))
	s.logger.Info("inserted default availability", "days", len(inserted))

	merged := make([]Rule, 0, len(existing)+len(inserted))
	merged = append(merged, existing...)
	merged = append(merged, inserted...)
	return sortRules(merged), nil
}

// Save replaces the stored windows with rules and returns the reconciled week.
func (s *Service) Save(ctx context.Context, rules []Rule) ([]Rule, error) {
	ctx, span := tracer.Start(ctx, "availability.save")
	defer span.End()

	if err := ValidateRules(rules); err != nil {
		return nil, err
	}
	if err := s.repo.UpsertRules(ctx, rules); err != nil {
		return nil, fmt.Errorf("save availability: %w", err)
	}
	s.logger.Info("availability saved", "days", len(rules))
	return s.Reconcile(ctx)
}

// Week loads the stored rules without writing anything.
func (s *Service) Week(ctx context.Context) (Week, error) {
	rules, err := s.repo.ListRules(ctx)
	if err != nil {
		return Week{}, fmt.Errorf("list availability: %w", err)
	}
	return NewWeek(rules), nil
}

func ValidateRules(rules []Rule) error {
	var seen [DaysPerWeek]bool
	for _, r := range rules {
		if r.Weekday < time.Sunday || r.Weekday > time.Saturday {
			return fmt.Errorf("%w: got %d", ErrInvalidWeekday, r.Weekday)
		}
		if seen[r.Weekday] {
			return fmt.Errorf("%w: %d", ErrDuplicateWeekday, r.Weekday)
		}
		seen[r.Weekday] = true
		if r.Start >= r.End {
			return fmt.Errorf("%w: day %d has %s-%s", ErrInvalidWindow, r.Weekday, r.Start.HHMM(), r.End.HHMM())
		}
	}
	return nil
}

func sortRules(rules []Rule) []Rule {
	sort.SliceStable(rules, func(i, j int) bool {
		return rules[i].Weekday < rules[j].Weekday
	})
	return rules
}
