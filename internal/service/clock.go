package service

import (
	"fmt"
	"time"

	"habit-tracker/internal/model"
)

// Clock supplies "now" and the zone calendar dates are computed in.
type Clock struct {
	Now func() time.Time
	Loc *time.Location
}

// SystemClock is the wall clock in loc.
func SystemClock(loc *time.Location) Clock {
	return Clock{Now: time.Now, Loc: loc}
}

// FixedClock always returns t; used by tests and manual replays.
func FixedClock(t time.Time) Clock {
	return Clock{Now: func() time.Time { return t }, Loc: t.Location()}
}

// Location is the configured zone, falling back to time.Local.
func (c Clock) Location() *time.Location {
	if c.Loc == nil {
		return time.Local
	}
	return c.Loc
}

// LocalNow is Now in the configured zone.
func (c Clock) LocalNow() time.Time {
	return c.Now().In(c.Location())
}

// Today is the current calendar date in the configured zone.
func (c Clock) Today() model.Date {
	return model.DateOf(c.LocalNow())
}

// DayBounds returns [start, end) of d in the configured zone.
func (c Clock) DayBounds(d model.Date) (time.Time, time.Time) {
	start := d.In(c.Location())
	return start, start.AddDate(0, 0, 1)
}

// DateOf is the calendar date of t in the configured zone.
func (c Clock) DateOf(t time.Time) model.Date {
	return model.DateOf(t.In(c.Location()))
}

// DueLabel renders how far a due date is from today:
// "3d overdue", "Today", "Tomorrow", "5d left", or "" without a due date.
func DueLabel(due *time.Time, today model.Date, loc *time.Location) string {
	if due == nil {
		return ""
	}
	days := model.DateOf(due.In(loc)).DaysSince(today)
	switch {
	case days < 0:
		return fmt.Sprintf("%dd overdue", -days)
	case days == 0:
		return "Today"
	case days == 1:
		return "Tomorrow"
	default:
		return fmt.Sprintf("%dd left", days)
	}
}
