package domain

import (
	"testing"
	"time"
)

func TestParseClock(t *testing.T) {
	cases := []struct {
		in      string
		want    int
		wantErr bool
	}{
		{"09:00", 540, false},
		{"18:30", 1110, false},
		{"00:00", 0, false},
		{"23:59", 1439, false},
		{"24:00", 0, true},
		{"09:60", 0, true},
		{"abc", 0, true},
	}
	for _, tc := range cases {
		got, err := ParseClock(tc.in)
		if tc.wantErr {
			if err == nil {
				t.Fatalf("ParseClock(%q): expected error", tc.in)
			}
			continue
		}
		if err != nil {
			t.Fatalf("ParseClock(%q): %v", tc.in, err)
		}
		if got != tc.want {
			t.Fatalf("ParseClock(%q) = %d, want %d", tc.in, got, tc.want)
		}
	}
}

func TestIsOpen(t *testing.T) {
	windows := []OpeningWindow{
		{Weekday: time.Monday, Opens: 9 * 60, Closes: 18 * 60},
		{Weekday: time.Saturday, Opens: 9 * 60, Closes: 12 * 60},
	}

	// 2026-08-24 is a Monday.
	monday := func(h, m int) time.Time {
		return time.Date(2026, 8, 24, h, m, 0, 0, time.UTC)
	}

	if !IsOpen(windows, monday(9, 0)) {
		t.Fatal("opening minute must count as open")
	}
	if !IsOpen(windows, monday(17, 59)) {
		t.Fatal("last minute before close must count as open")
	}
	if IsOpen(windows, monday(18, 0)) {
		t.Fatal("closing minute is exclusive")
	}
	if IsOpen(windows, monday(8, 59)) {
		t.Fatal("before opening must be closed")
	}

	sunday := time.Date(2026, 8, 23, 10, 0, 0, 0, time.UTC)
	if IsOpen(windows, sunday) {
		t.Fatal("a weekday without a window is closed")
	}
}
