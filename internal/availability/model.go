package availability

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

const DaysPerWeek = 7

var (
	DefaultStart = ClockTime(9 * 60)
	DefaultEnd   = ClockTime(17 * 60)
)

// ClockTime is a wall-clock time of day in minutes after midnight.
// 24:00 is allowed so a window can run to the end of the day.
type ClockTime int

// ParseClock accepts "HH:MM" and "HH:MM:SS". Seconds are dropped.
func ParseClock(s string) (ClockTime, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) != 2 && len(parts) != 3 {
		return 0, fmt.Errorf("invalid clock time %q", s)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 24 {
		return 0, fmt.Errorf("invalid hour in %q", s)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 {
		return 0, fmt.Errorf("invalid minute in %q", s)
	}
	if len(parts) == 3 {
		sec, err := strconv.Atoi(parts[2])
		if err != nil || sec < 0 || sec > 59 {
			return 0, fmt.Errorf("invalid second in %q", s)
		}
	}
	if h == 24 && m != 0 {
		return 0, fmt.Errorf("invalid clock time %q", s)
	}
	return ClockTime(h*60 + m), nil
}

func (c ClockTime) Hour() int   { return int(c) / 60 }
func (c ClockTime) Minute() int { return int(c) % 60 }

// String renders the database form, HH:MM:SS.
func (c ClockTime) String() string {
	return fmt.Sprintf("%02d:%02d:00", c.Hour(), c.Minute())
}

// HHMM renders the short form used for slot labels.
func (c ClockTime) HHMM() string {
	return fmt.Sprintf("%02d:%02d", c.Hour(), c.Minute())
}

// On returns the instant this clock time falls on for the given calendar day in loc.
func (c ClockTime) On(day time.Time, loc *time.Location) time.Time {
	y, m, d := day.Date()
	return time.Date(y, m, d, c.Hour(), c.Minute(), 0, 0, loc)
}

func (c ClockTime) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.String())
}

func (c *ClockTime) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("clock time must be a string: %w", err)
	}
	parsed, err := ParseClock(s)
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// Rule is one weekday's working window. Weekday 0 is Sunday.
type Rule struct {
	ID      uuid.UUID    `json:"id"`
	Weekday time.Weekday `json:"day_of_week"`
	Start   ClockTime    `json:"start_time"`
	End     ClockTime    `json:"end_time"`
	Active  bool         `json:"is_active"`
}

// DefaultRule is what a missing weekday is filled with: 09:00-17:00, inactive.
func DefaultRule(day time.Weekday) Rule {
	return Rule{
		Weekday: day,
		Start:   DefaultStart,
		End:     DefaultEnd,
		Active:  false,
	}
}

// Week indexes rules by weekday. Nil entries are weekdays without a stored row.
type Week [DaysPerWeek]*Rule

func NewWeek(rules []Rule) Week {
	var w Week
	for i := range rules {
		day := rules[i].Weekday
		if day < time.Sunday || day > time.Saturday {
			continue
		}
		r := rules[i]
		w[day] = &r
	}
	return w
}

// Rule always returns a rule; weekdays without a row get the inactive default.
func (w Week) Rule(day time.Weekday) Rule {
	if r := w[day]; r != nil {
		return *r
	}
	return DefaultRule(day)
}

// Missing lists weekdays without a stored row, ascending.
func (w Week) Missing() []time.Weekday {
	var out []time.Weekday
	for day := time.Sunday; day <= time.Saturday; day++ {
		if w[day] == nil {
			out = append(out, day)
		}
	}
	return out
}

// Rules returns the stored rules ordered by weekday.
func (w Week) Rules() []Rule {
	out := make([]Rule, 0, DaysPerWeek)
	for _, r := range w {
		if r != nil {
			out = append(out, *r)
		}
	}
	return out
}
