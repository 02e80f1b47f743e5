package policy

import (
	"fmt"
	"strings"
	"time"

	"servicehub/models"
)

const (
	dateLayout    = "2-1-2006"
	clockLayout12 = "3:04 PM"
	clockLayout24 = "15:04"
)

// ParseSchedule combines a "DD-MM-YYYY" date and a 12-hour "h:mm AM" start time
// into one instant in loc. A 24-hour "HH:MM" clock is accepted as well.
func ParseSchedule(date, clock string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	d, err := time.ParseInLocation(dateLayout, strings.TrimSpace(date), loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: date %q", ErrInvalidSchedule, date)
	}

	c := strings.ToUpper(strings.Join(strings.Fields(clock), " "))
	if strings.HasSuffix(c, "AM") || strings.HasSuffix(c, "PM") {
		// "10:30AM" and "10:30 AM" are both seen in slot data.
		c = strings.TrimSpace(c[:len(c)-2]) + " " + c[len(c)-2:]
	}
	t, err := time.Parse(clockLayout12, c)
	if err != nil {
		if t, err = time.Parse(clockLayout24, c); err != nil {
			return time.Time{}, fmt.Errorf("%w: time %q", ErrInvalidSchedule, clock)
		}
	}

	return time.Date(d.Year(), d.Month(), d.Day(), t.Hour(), t.Minute(), 0, 0, loc), nil
}

// SlotStart parses the start of a booking's time slot.
func SlotStart(slot *models.TimeSlot, loc *time.Location) (time.Time, error) {
	if slot == nil {
		return time.Time{}, fmt.Errorf("%w: booking has no time slot", ErrInvalidSchedule)
	}
	return ParseSchedule(slot.Date, slot.StartTime, loc)
}

// HoursUntil returns the fractional number of hours from now until scheduled.
// It is negative once the scheduled instant has passed.
func HoursUntil(scheduled, now time.Time) float64 {
	return scheduled.Sub(now).Hours()
}

// SameDay reports whether a and b fall on the same calendar day in a's location.
func SameDay(a, b time.Time) bool {
	b = b.In(a.Location())
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
