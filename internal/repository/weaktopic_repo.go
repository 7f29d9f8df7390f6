package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"studytrack-backend/internal/models"
)

type WeakTopicRepo struct {
	pool *pgxpool.Pool
}

func NewWeakTopicRepo(pool *pgxpool.Pool) *WeakTopicRepo {
	return &WeakTopicRepo{pool: pool}
}

func (r *WeakTopicRepo) Add(ctx context.Context, wt *models.WeakTopic) error {
	query := `INSERT INTO weak_topics (topic, track, priority)
		VALUES ($1, $2, $3) RETURNING id, created_at`

	return r.pool.QueryRow(ctx, query, wt.Topic, wt.Track, wt.Priority).
		Scan(&wt.ID, &wt.CreatedAt)
}

func (r *WeakTopicRepo) List(ctx context.Context) ([]models.WeakTopic, error) {
	return r.list(ctx, `SELECT id, topic, track, priority, created_at
		FROM weak_topics ORDER BY priority DESC, created_at DESC`)
}

// ListWeakest returns the highest-priority topics the coach should push.
func (r *WeakTopicRepo) ListWeakest(ctx context.Context, minPriority, limit int) ([]models.WeakTopic, error) {
	return r.list(ctx, `SELECT id, topic, track, priority, created_at
		FROM weak_topics WHERE priority >= $1
		ORDER BY priority DESC, created_at DESC LIMIT $2`, minPriority, limit)
}

func (r *WeakTopicRepo) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM weak_topics WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *WeakTopicRepo) list(ctx context.Context, query string, args ...interface{}) ([]models.WeakTopic, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	topics := []models.WeakTopic{}
	for rows.Next() {
		wt := models.WeakTopic{}
		if err := rows.Scan(&wt.ID, &wt.Topic, &wt.Track, &wt.Priority, &wt.CreatedAt); err != nil {
			return nil, err
		}
		topics = append(topics, wt)
	}
	return topics, rows.Err()
}
