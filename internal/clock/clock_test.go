package clock

import (
	"testing"
	"time"
)

func TestDayBoundaries(t *testing.T) {
	ts := time.Date(2026, 1, 15, 13, 45, 12, 0, time.FixedZone("CET", 3600))

	start := StartOfDay(ts)
	if got := start.Format(time.RFC3339Nano); got != "2026-01-15T00:00:00Z" {
		t.Errorf("StartOfDay = %s", got)
	}

	end := EndOfDay(ts)
	if got := end.Format(time.RFC3339Nano); got != "2026-01-15T23:59:59.999Z" {
		t.Errorf("EndOfDay = %s", got)
	}

	month := StartOfMonth(ts)
	if got := month.Format("2006-01-02"); got != "2026-01-01" {
		t.Errorf("StartOfMonth = %s", got)
	}
}

func TestFixed(t *testing.T) {
	ts := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	var c Clock = Fixed(ts)
	if !c.Now().Equal(ts) {
		t.Errorf("Fixed.Now() = %v, want %v", c.Now(), ts)
	}
}
