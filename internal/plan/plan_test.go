package plan

import "testing"

func TestWeeks(t *testing.T) {
	weeks, err := Weeks()
	if err != nil {
		t.Fatalf("Weeks failed: %v", err)
	}

	if len(weeks) != 10 {
		t.Fatalf("Expected 10 weeks, got %d", len(weeks))
	}

	for i, week := range weeks {
		if week.Week != i+1 {
			t.Errorf("Expected week number %d, got %d", i+1, week.Week)
		}
		if week.Theme == "" || week.Goal == "" {
			t.Errorf("Week %d missing theme or goal", week.Week)
		}
		if len(week.Days) == 0 {
			t.Errorf("Week %d has no days", week.Week)
		}
	}

	// Study weeks carry track focuses, the project week carries tasks, the
	// final week carries deliverables.
	if weeks[0].Days[0].FEFocus == "" {
		t.Error("Expected week 1 to have FE focuses")
	}
	if weeks[8].Days[0].Task == "" {
		t.Error("Expected week 9 to have project tasks")
	}
	if weeks[9].Days[0].Deliverable == "" {
		t.Error("Expected week 10 to have deliverables")
	}
}
