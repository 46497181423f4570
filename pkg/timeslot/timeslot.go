// Package timeslot handles the calendar-date and wall-clock strings the
// booking API speaks. Dates are "YYYY-MM-DD", times are 24h "HH:MM"; both
// are compared as local wall-clock values, never as instants.
package timeslot

import (
	"fmt"
	"time"
)

const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04"
)

// DailySlots is the fixed hourly grid the shop offers. Changing the grid is
// a deployment concern, not a runtime one.
var DailySlots = []string{
	"09:00", "10:00", "11:00", "12:00", "13:00", "14:00",
	"15:00", "16:00", "17:00", "18:00", "19:00",
}

// ParseDate parses a "YYYY-MM-DD" string into a local-midnight time.
func ParseDate(date string) (time.Time, error) {
	t, err := time.ParseInLocation(DateLayout, date, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: want YYYY-MM-DD", date)
	}
	return t, nil
}

// ParseMinutes converts "HH:MM" to minutes since midnight.
func ParseMinutes(clock string) (int, error) {
	t, err := time.Parse(TimeLayout, clock)
	if err != nil {
		return 0, fmt.Errorf("invalid time %q: want HH:MM", clock)
	}
	return t.Hour()*60 + t.Minute(), nil
}

// Hour returns the hour component of an "HH:MM" string.
func Hour(clock string) (int, error) {
	minutes, err := ParseMinutes(clock)
	if err != nil {
		return 0, err
	}
	return minutes / 60, nil
}

// StartOfDay zeroes the time-of-day component. Date comparisons use this
// instead of string comparison to stay correct across the midnight boundary.
func StartOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// SameDay reports whether two instants fall on the same calendar day.
func SameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// FormatDate renders an instant as the calendar-date string for its day.
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// MinutesOfDay returns an instant's minutes since its local midnight.
func MinutesOfDay(t time.Time) int {
	return t.Hour()*60 + t.Minute()
}
