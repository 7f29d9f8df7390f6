package models

import "encoding/json"

// PlanDay is one day of the weekly study plan. The plan data is
// heterogeneous: study weeks carry FE/SCADA focuses plus an integration
// task, the project week carries a single task, and the exam-prep week
// carries a focus and a deliverable.
type PlanDay struct {
	Day             string `json:"day"`
	FEFocus         string `json:"fe_focus,omitempty"`
	SCADAFocus      string `json:"scada_focus,omitempty"`
	IntegrationTask string `json:"integration_task,omitempty"`
	Task            string `json:"task,omitempty"`
	Focus           string `json:"focus,omitempty"`
	Deliverable     string `json:"deliverable,omitempty"`
}

// PlanWeek is one themed week of the study plan.
type PlanWeek struct {
	Week  int       `json:"week"`
	Theme string    `json:"theme"`
	Goal  string    `json:"goal"`
	Days  []PlanDay `json:"daily_goals"`
}

// PlanProgress tracks the learn/apply/reinforce checkboxes for one plan day.
type PlanProgress struct {
	Week      int  `json:"week"`
	Day       int  `json:"day"`
	Learn     bool `json:"learn"`
	Apply     bool `json:"apply"`
	Reinforce bool `json:"reinforce"`
}

// DaysJSON returns the week's days serialised for storage.
func (w *PlanWeek) DaysJSON() ([]byte, error) {
	return json.Marshal(w.Days)
}
