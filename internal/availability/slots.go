package availability

import "time"

type Interval struct {
	Start time.Time
	End   time.Time
}

// DeriveSlots partitions the rule's window on day into back-to-back slots of the given
// duration and drops those that overlap a busy interval or start before now.
// day only contributes its calendar date; the window is placed in loc.
func DeriveSlots(rule Rule, day time.Time, loc *time.Location, duration time.Duration, busy []Interval, now time.Time) []time.Time {
	if !rule.Active || duration <= 0 {
		return nil
	}
	windowStart := rule.Start.On(day, loc)
	windowEnd := rule.End.On(day, loc)
	if !windowEnd.After(windowStart) {
		return nil
	}

	var slots []time.Time
	for t := windowStart; !t.Add(duration).After(windowEnd); t = t.Add(duration) {
		if t.Before(now) {
			continue
		}
		if overlapsAny(t, t.Add(duration), busy) {
			continue
		}
		slots = append(slots, t)
	}
	return slots
}

// Half-open intervals: [start,end) overlaps [b.Start,b.End) iff start < b.End && b.Start < end.
func overlapsAny(start, end time.Time, busy []Interval) bool {
	for _, b := range busy {
		if start.Before(b.End) && b.Start.Before(end) {
			return true
		}
	}
	return false
}
