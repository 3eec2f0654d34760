package window

import "time"

// Windows are daily [start, end) intervals in "HH:MM" wall-clock notation.
// A window whose end is at or before its start wraps past midnight, e.g.
// 22:00–02:00. A window with start == end never opens.

// IsOpen reports whether now's time of day falls inside [start, end).
func IsOpen(start, end string, now time.Time) bool {
	s, okS := minuteOfDay(start)
	e, okE := minuteOfDay(end)
	if !okS || !okE || s == e {
		return false
	}
	n := now.Hour()*60 + now.Minute()
	if e > s {
		return n >= s && n < e
	}
	// wraps midnight
	return n >= s || n < e
}

// EndOn returns the instant the window configured by start/end closes for
// the window that opens on day. For wrapping windows the close falls on the
// following calendar day.
func EndOn(day time.Time, start, end string) time.Time {
	s, okS := minuteOfDay(start)
	e, okE := minuteOfDay(end)
	if !okS || !okE {
		return day
	}
	closes := time.Date(day.Year(), day.Month(), day.Day(), e/60, e%60, 0, 0, day.Location())
	if e <= s {
		closes = closes.AddDate(0, 0, 1)
	}
	return closes
}

// Valid reports whether s parses as "HH:MM".
func Valid(s string) bool {
	_, ok := minuteOfDay(s)
	return ok
}

func minuteOfDay(s string) (int, bool) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, false
	}
	return t.Hour()*60 + t.Minute(), true
}
