package repository

import (
	"testing"
	"time"

	"studytrack-backend/internal/models"
)

func TestSplitHours(t *testing.T) {
	tests := []struct {
		track string
		hours float64
		fe    float64
		scada float64
	}{
		{models.TrackFE, 2, 2, 0},
		{models.TrackSCADA, 1.5, 0, 1.5},
		{models.TrackBoth, 3, 1.5, 1.5},
	}

	for _, tc := range tests {
		fe, scada := splitHours(tc.track, tc.hours)
		if fe != tc.fe || scada != tc.scada {
			t.Errorf("splitHours(%s, %v): expected (%v, %v), got (%v, %v)",
				tc.track, tc.hours, tc.fe, tc.scada, fe, scada)
		}
	}
}

func TestStampedNotes(t *testing.T) {
	at := time.Date(2026, 3, 14, 9, 26, 0, 0, time.UTC)
	note := "reviewed shear diagrams"
	existing := "[07:10] morning fluids drill"
	empty := ""

	tests := []struct {
		name     string
		existing *string
		notes    *string
		expected *string
	}{
		{"no notes keeps existing", &existing, nil, &existing},
		{"empty notes keeps existing", &existing, &empty, &existing},
		{"first note of the day", nil, &note, strPtr("[09:26] reviewed shear diagrams")},
		{"appends under existing", &existing, &note, strPtr("[07:10] morning fluids drill\n[09:26] reviewed shear diagrams")},
		{"blank existing is replaced", &empty, &note, strPtr("[09:26] reviewed shear diagrams")},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := stampedNotes(tc.existing, models.StudyLogInput{Date: at, Notes: tc.notes})
			switch {
			case got == nil && tc.expected != nil:
				t.Errorf("Expected %q, got nil", *tc.expected)
			case got != nil && tc.expected == nil:
				t.Errorf("Expected nil, got %q", *got)
			case got != nil && *got != *tc.expected:
				t.Errorf("Expected %q, got %q", *tc.expected, *got)
			}
		})
	}
}

func strPtr(s string) *string { return &s }
