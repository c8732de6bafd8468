package clock

import "time"

// Clock provides time-related functions that can be mocked for testing
type Clock interface {
	Now() time.Time
}

// RealClock implements Clock using actual system time
type RealClock struct{}

// Now returns the current system time in UTC
func (RealClock) Now() time.Time {
	return time.Now().UTC()
}

// Fixed is a Clock frozen at a single instant
type Fixed time.Time

// Now returns the frozen instant
func (f Fixed) Now() time.Time {
	return time.Time(f)
}

// StartOfDay truncates t to midnight UTC
func StartOfDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// EndOfDay returns the last millisecond of t's UTC day
func EndOfDay(t time.Time) time.Time {
	return StartOfDay(t).Add(24*time.Hour - time.Millisecond)
}

// StartOfMonth truncates t to the first day of its UTC month
func StartOfMonth(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}
