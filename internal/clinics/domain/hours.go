// Package domain holds the pure clinic scheduling rules.
package domain

import (
	"fmt"
	"time"
)

// OpeningWindow is one weekday's opening hours in the clinic's local time.
// Opens and Closes are minutes since midnight; Closes is exclusive.
type OpeningWindow struct {
	Weekday time.Weekday
	Opens   int
	Closes  int
}

// ParseClock converts an "HH:MM" string to minutes since midnight.
func ParseClock(s string) (int, error) {
	var h, m int
	if _, err := fmt.Sscanf(s, "%d:%d", &h, &m); err != nil {
		return 0, fmt.Errorf("invalid clock value %q: %w", s, err)
	}
	if h < 0 || h > 23 || m < 0 || m > 59 {
		return 0, fmt.Errorf("invalid clock value %q", s)
	}
	return h*60 + m, nil
}

// IsOpen reports whether t falls inside any window for its weekday. A weekday
// with no window is closed.
func IsOpen(windows []OpeningWindow, t time.Time) bool {
	minutes := t.Hour()*60 + t.Minute()
	for _, w := range windows {
		if w.Weekday != t.Weekday() {
			continue
		}
		if minutes >= w.Opens && minutes < w.Closes {
			return true
		}
	}
	return false
}
