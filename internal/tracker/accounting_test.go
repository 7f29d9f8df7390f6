package tracker

import (
	"testing"
	"time"
)

func TestElapsedSeconds(t *testing.T) {
	start := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	tests := []struct {
		name        string
		now         time.Time
		totalPaused int
		expected    int
	}{
		{"no pauses", start.Add(90 * time.Second), 0, 90},
		{"excludes completed pauses", start.Add(50 * time.Second), 30, 20},
		{"zero at start", start, 0, 0},
		{"sub-second truncated", start.Add(1500 * time.Millisecond), 0, 1},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := ElapsedSeconds(tc.now, start, tc.totalPaused)
			if got != tc.expected {
				t.Errorf("Expected %d, got %d", tc.expected, got)
			}
		})
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		seconds  int
		expected string
	}{
		{0, "00:00:00"},
		{59, "00:00:59"},
		{60, "00:01:00"},
		{3599, "00:59:59"},
		{3661, "01:01:01"},
		{36000, "10:00:00"},
	}

	for _, tc := range tests {
		got := FormatDuration(tc.seconds)
		if got != tc.expected {
			t.Errorf("FormatDuration(%d): expected %q, got %q", tc.seconds, tc.expected, got)
		}
	}
}

func TestProgressPercent(t *testing.T) {
	target := 25

	tests := []struct {
		name     string
		elapsed  int
		target   *int
		expected float64
	}{
		{"no target", 600, nil, 0},
		{"halfway", 750, &target, 50},
		{"capped at 100", 3000, &target, 100},
		{"exactly done", 1500, &target, 100},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := ProgressPercent(tc.elapsed, tc.target)
			if got != tc.expected {
				t.Errorf("Expected %v, got %v", tc.expected, got)
			}
		})
	}
}

func TestSessionHours(t *testing.T) {
	tests := []struct {
		seconds  int
		expected float64
	}{
		{5400, 1.5},
		{3600, 1},
		{900, 0.25},
		{0, 0},
		{4500, 1.25},
		{30, 0.01},
	}

	for _, tc := range tests {
		got := SessionHours(tc.seconds)
		if got != tc.expected {
			t.Errorf("SessionHours(%d): expected %v, got %v", tc.seconds, tc.expected, got)
		}
	}
}
