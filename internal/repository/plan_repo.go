package repository

import (
	"context"
	"encoding/json"

	"github.com/jackc/pgx/v5/pgxpool"

	"studytrack-backend/internal/models"
)

type PlanRepo struct {
	pool *pgxpool.Pool
}

func NewPlanRepo(pool *pgxpool.Pool) *PlanRepo {
	return &PlanRepo{pool: pool}
}

// SeedWeeks loads the canonical plan into plan_weeks. Existing rows are
// replaced so plan edits ship with the binary.
func (r *PlanRepo) SeedWeeks(ctx context.Context, weeks []models.PlanWeek) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	for _, week := range weeks {
		days, err := week.DaysJSON()
		if err != nil {
			return err
		}
		_, err = tx.Exec(ctx, `INSERT INTO plan_weeks (week, theme, goal, days)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (week) DO UPDATE SET theme = $2, goal = $3, days = $4`,
			week.Week, week.Theme, week.Goal, days)
		if err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

func (r *PlanRepo) ListWeeks(ctx context.Context) ([]models.PlanWeek, error) {
	rows, err := r.pool.Query(ctx, `SELECT week, theme, goal, days FROM plan_weeks ORDER BY week`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	weeks := []models.PlanWeek{}
	for rows.Next() {
		var week models.PlanWeek
		var days []byte
		if err := rows.Scan(&week.Week, &week.Theme, &week.Goal, &days); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(days, &week.Days); err != nil {
			return nil, err
		}
		weeks = append(weeks, week)
	}
	return weeks, rows.Err()
}

func (r *PlanRepo) ListProgress(ctx context.Context) ([]models.PlanProgress, error) {
	rows, err := r.pool.Query(ctx, `SELECT week, day, learn, apply, reinforce
		FROM plan_progress ORDER BY week, day`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	progress := []models.PlanProgress{}
	for rows.Next() {
		p := models.PlanProgress{}
		if err := rows.Scan(&p.Week, &p.Day, &p.Learn, &p.Apply, &p.Reinforce); err != nil {
			return nil, err
		}
		progress = append(progress, p)
	}
	return progress, rows.Err()
}

func (r *PlanRepo) UpsertProgress(ctx context.Context, p models.PlanProgress) error {
	_, err := r.pool.Exec(ctx, `INSERT INTO plan_progress (week, day, learn, apply, reinforce)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (week, day) DO UPDATE SET learn = $3, apply = $4, reinforce = $5`,
		p.Week, p.Day, p.Learn, p.Apply, p.Reinforce)
	return err
}
