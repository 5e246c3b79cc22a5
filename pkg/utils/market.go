package utils

import (
	"fmt"
	"sync"
	"time"
	_ "time/tzdata"

	"github.com/danielweickdag/kairo-quantum-sub006/internal/models"
)

var (
	locMu     sync.RWMutex
	locations = map[string]*time.Location{}
)

// Location resolves a timezone name, caching the result. Unknown names fall back to UTC.
func Location(name string) *time.Location {
	if name == "" || name == "UTC" {
		return time.UTC
	}

	locMu.RLock()
	loc, ok := locations[name]
	locMu.RUnlock()
	if ok {
		return loc
	}

	loc, err := time.LoadLocation(name)
	if err != nil {
		loc = time.UTC
	}
	locMu.Lock()
	locations[name] = loc
	locMu.Unlock()
	return loc
}

// parseClock parses "HH:MM" into minutes after midnight.
func parseClock(s string) (int, error) {
	var h, m int
	if _, err := fmt.Sscanf(s, "%d:%d", &h, &m); err != nil {
		return 0, fmt.Errorf("invalid session time %q: %w", s, err)
	}
	if h < 0 || h > 24 || m < 0 || m > 59 {
		return 0, fmt.Errorf("invalid session time %q", s)
	}
	return h*60 + m, nil
}

// IsSessionOpen reports whether at falls inside the session window on a weekday.
// An unbounded window is always open.
func IsSessionOpen(hours models.TradingHours, at time.Time) bool {
	if hours.Always() {
		return true
	}

	local := at.In(Location(hours.Timezone))
	if local.Weekday() == time.Saturday || local.Weekday() == time.Sunday {
		return false
	}

	start, err := parseClock(hours.Start)
	if err != nil {
		return false
	}
	end, err := parseClock(hours.End)
	if err != nil {
		return false
	}

	minutes := local.Hour()*60 + local.Minute()
	if start <= end {
		return minutes >= start && minutes < end
	}
	// Session wraps midnight (e.g. futures 18:00-17:00).
	return minutes >= start || minutes < end
}

// SessionClose returns the close of the trading day that contains at.
// For an unbounded window the trading day ends at the next UTC midnight.
func SessionClose(hours models.TradingHours, at time.Time) time.Time {
	if hours.Always() {
		y, m, d := at.UTC().Date()
		return time.Date(y, m, d+1, 0, 0, 0, 0, time.UTC)
	}

	loc := Location(hours.Timezone)
	local := at.In(loc)
	end, err := parseClock(hours.End)
	if err != nil {
		end = 24 * 60
	}
	y, m, d := local.Date()
	close := time.Date(y, m, d, end/60, end%60, 0, 0, loc)
	// After the close, the order belongs to the next session.
	if !close.After(local) {
		close = close.AddDate(0, 0, 1)
	}
	return close
}

// NextSessionOpen returns the next weekday session open at or after at.
func NextSessionOpen(hours models.TradingHours, at time.Time) time.Time {
	if hours.Always() {
		return at
	}

	loc := Location(hours.Timezone)
	local := at.In(loc)
	start, err := parseClock(hours.Start)
	if err != nil {
		return at
	}

	y, m, d := local.Date()
	next := time.Date(y, m, d, start/60, start%60, 0, 0, loc)
	if local.After(next) {
		next = next.AddDate(0, 0, 1)
	}
	for next.Weekday() == time.Saturday || next.Weekday() == time.Sunday {
		next = next.AddDate(0, 0, 1)
	}
	return next
}
