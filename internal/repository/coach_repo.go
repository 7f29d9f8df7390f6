package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"studytrack-backend/internal/models"
)

type CoachRepo struct {
	pool *pgxpool.Pool
}

func NewCoachRepo(pool *pgxpool.Pool) *CoachRepo {
	return &CoachRepo{pool: pool}
}

func (r *CoachRepo) AddTurn(ctx context.Context, turn *models.CoachConversation) error {
	query := `INSERT INTO coach_conversations (role, content, context)
		VALUES ($1, $2, $3) RETURNING id, created_at`

	return r.pool.QueryRow(ctx, query, turn.Role, turn.Content, turn.Context).
		Scan(&turn.ID, &turn.CreatedAt)
}

// ListTurns returns the most recent turns in chronological order.
func (r *CoachRepo) ListTurns(ctx context.Context, limit int) ([]models.CoachConversation, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}

	query := `SELECT id, role, content, context, created_at FROM (
			SELECT id, role, content, context, created_at
			FROM coach_conversations ORDER BY id DESC LIMIT $1
		) recent ORDER BY id ASC`

	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	turns := []models.CoachConversation{}
	for rows.Next() {
		t := models.CoachConversation{}
		if err := rows.Scan(&t.ID, &t.Role, &t.Content, &t.Context, &t.CreatedAt); err != nil {
			return nil, err
		}
		turns = append(turns, t)
	}
	return turns, rows.Err()
}

func (r *CoachRepo) Clear(ctx context.Context) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM coach_conversations`)
	return err
}

// Prune keeps only the newest keep turns.
func (r *CoachRepo) Prune(ctx context.Context, keep int) (int64, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM coach_conversations
		WHERE id NOT IN (SELECT id FROM coach_conversations ORDER BY id DESC LIMIT $1)`, keep)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
