package campaign

import "time"

// Send window constants, all in the lead's local time
const (
	SendHour          = 10 // preferred send time for scheduled steps
	BusinessStartHour = 9
	BusinessEndHour   = 18
	DefaultTimezone   = "America/Chicago"
)

// NextSendTime computes when the step at dayOffset should go out for a lead
// enrolled at enrolledAt in the given IANA timezone. Pure function.
//
// The raw target is enrolledAt + dayOffset days pinned to 10:00 local. Weekends
// always roll forward to Monday, and anything landing outside [9:00, 18:00) is
// normalized back into the window. A same-day step whose pinned time already
// passed falls back to the enrollment clock time so it can go out immediately.
func NextSendTime(dayOffset int, enrolledAt time.Time, timezone string) time.Time {
	loc := loadLocation(timezone)
	local := enrolledAt.In(loc)

	target := local.AddDate(0, 0, dayOffset)
	target = time.Date(target.Year(), target.Month(), target.Day(), SendHour, 0, 0, 0, loc)

	// Day-0 enrollment after the pinned hour: send from the enrollment moment,
	// not from a time already in the past.
	if target.Before(local) {
		target = local
	}

	target = rollOffWeekend(target)

	if target.Hour() < BusinessStartHour {
		target = time.Date(target.Year(), target.Month(), target.Day(), BusinessStartHour, 0, 0, 0, loc)
	} else if target.Hour() >= BusinessEndHour {
		target = target.AddDate(0, 0, 1)
		target = time.Date(target.Year(), target.Month(), target.Day(), BusinessStartHour, 0, 0, 0, loc)
		target = rollOffWeekend(target)
	}

	return target
}

// WithinBusinessHours reports whether t is a weekday inside the send window.
// The scheduler gates every tick on this.
func WithinBusinessHours(t time.Time, timezone string) bool {
	local := t.In(loadLocation(timezone))
	if local.Weekday() == time.Saturday || local.Weekday() == time.Sunday {
		return false
	}
	return local.Hour() >= BusinessStartHour && local.Hour() < BusinessEndHour
}

func rollOffWeekend(t time.Time) time.Time {
	switch t.Weekday() {
	case time.Saturday:
		return t.AddDate(0, 0, 2)
	case time.Sunday:
		return t.AddDate(0, 0, 1)
	}
	return t
}

func loadLocation(timezone string) *time.Location {
	if timezone != "" {
		if loc, err := time.LoadLocation(timezone); err == nil {
			return loc
		}
	}
	loc, err := time.LoadLocation(DefaultTimezone)
	if err != nil {
		return time.UTC
	}
	return loc
}
