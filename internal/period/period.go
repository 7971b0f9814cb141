// Package period maps the UI's review windows (today, 3days, week, month)
// to concrete time ranges anchored at local midnight.
package period

import "time"

type Range struct {
	Start time.Time
	End   time.Time
	Days  int
}

// Resolve returns the range for a period name at the given instant. The
// start is midnight of the window's first day in loc; the end is now.
// Unknown names resolve to "today", as the original UI treats any other
// value.
func Resolve(name string, now time.Time, loc *time.Location) Range {
	local := now.In(loc)
	midnight := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)

	days := 1
	switch name {
	case "3days":
		days = 3
	case "week":
		days = 7
	case "month":
		days = 30
	}

	return Range{
		Start: midnight.AddDate(0, 0, -(days - 1)),
		End:   now,
		Days:  days,
	}
}

// Normalize returns the canonical period name, defaulting to "today".
func Normalize(name string) string {
	switch name {
	case "3days", "week", "month":
		return name
	default:
		return "today"
	}
}
