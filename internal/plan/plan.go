// Package plan embeds the canonical ten-week FE/SCADA study plan. The plan
// ships with the binary and is seeded into the database on startup so the
// API serves it like any other data.
package plan

import (
	_ "embed"
	"encoding/json"

	"studytrack-backend/internal/models"
)

//go:embed plan.json
var planJSON []byte

// Weeks decodes the embedded plan.
func Weeks() ([]models.PlanWeek, error) {
	var weeks []models.PlanWeek
	if err := json.Unmarshal(planJSON, &weeks); err != nil {
		return nil, err
	}
	return weeks, nil
}
