package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"studytrack-backend/internal/models"
)

// ErrLiveSessionExists is returned when an insert collides with the partial
// unique index that allows at most one active or paused session.
var ErrLiveSessionExists = errors.New("another session is already active or paused")

const sessionColumns = `id, start_time, end_time, paused_at, total_paused, track, topic, status,
		notes, question_count, accuracy, breaks_taken, target_minutes, version, created_at`

type SessionRepo struct {
	pool *pgxpool.Pool
}

func NewSessionRepo(pool *pgxpool.Pool) *SessionRepo {
	return &SessionRepo{pool: pool}
}

func (r *SessionRepo) Create(ctx context.Context, s *models.StudySession) error {
	query := `INSERT INTO study_sessions (start_time, end_time, paused_at, total_paused, track, topic, status,
			notes, question_count, accuracy, breaks_taken, target_minutes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id, version, created_at`

	err := r.pool.QueryRow(ctx, query,
		s.StartTime, s.EndTime, s.PausedAt, s.TotalPaused, s.Track, s.Topic, s.Status,
		s.Notes, s.QuestionCount, s.Accuracy, s.BreaksTaken, s.TargetMinutes,
	).Scan(&s.ID, &s.Version, &s.CreatedAt)

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return ErrLiveSessionExists
	}
	return err
}

// GetActive returns the single active or paused session, or nil when every
// session is completed.
func (r *SessionRepo) GetActive(ctx context.Context) (*models.StudySession, error) {
	query := fmt.Sprintf(`SELECT %s FROM study_sessions
		WHERE status IN ($1, $2)
		ORDER BY start_time DESC LIMIT 1`, sessionColumns)

	s, err := r.scanOne(r.pool.QueryRow(ctx, query, models.StatusActive, models.StatusPaused))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return s, err
}

func (r *SessionRepo) GetByID(ctx context.Context, id int64) (*models.StudySession, error) {
	query := fmt.Sprintf(`SELECT %s FROM study_sessions WHERE id = $1`, sessionColumns)
	return r.scanOne(r.pool.QueryRow(ctx, query, id))
}

// List returns sessions newest first, optionally filtered by status.
func (r *SessionRepo) List(ctx context.Context, status string, limit int) ([]models.StudySession, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	query := fmt.Sprintf(`SELECT %s FROM study_sessions`, sessionColumns)
	args := []interface{}{}
	if status != "" {
		query += ` WHERE status = $1`
		args = append(args, status)
	}
	query += fmt.Sprintf(` ORDER BY start_time DESC LIMIT %d`, limit)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	sessions := []models.StudySession{}
	for rows.Next() {
		s, err := r.scanOne(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, *s)
	}
	return sessions, rows.Err()
}

// Update applies the patch fields that are present. A patch carrying a
// version stamp lower than the stored version is a late write from a
// superseded save: it is discarded and the current row returned unchanged.
func (r *SessionRepo) Update(ctx context.Context, id int64, patch models.SessionPatch) (*models.StudySession, error) {
	sets := []string{}
	args := []interface{}{}
	argIdx := 1

	add := func(column string, value interface{}) {
		sets = append(sets, fmt.Sprintf("%s = $%d", column, argIdx))
		args = append(args, value)
		argIdx++
	}

	if patch.EndTimeSet {
		add("end_time", patch.EndTime)
	}
	if patch.PausedAtSet {
		add("paused_at", patch.PausedAt)
	}
	if patch.TotalPaused != nil {
		add("total_paused", *patch.TotalPaused)
	}
	if patch.Track != nil {
		add("track", *patch.Track)
	}
	if patch.Status != nil {
		add("status", *patch.Status)
	}
	if patch.TopicSet {
		add("topic", patch.Topic)
	}
	if patch.NotesSet {
		add("notes", patch.Notes)
	}
	if patch.QuestionCountSet {
		add("question_count", patch.QuestionCount)
	}
	if patch.AccuracySet {
		add("accuracy", patch.Accuracy)
	}
	if patch.BreaksTaken != nil {
		add("breaks_taken", *patch.BreaksTaken)
	}
	if patch.TargetMinutesSet {
		add("target_minutes", patch.TargetMinutes)
	}

	if len(sets) == 0 {
		return r.GetByID(ctx, id)
	}

	query := fmt.Sprintf(`UPDATE study_sessions SET %s WHERE id = $%d`,
		strings.Join(sets, ", "), argIdx)
	args = append(args, id)
	argIdx++

	if patch.Version != nil {
		// One placeholder serves both the guard and the new stored value.
		query += fmt.Sprintf(" AND version <= $%d", argIdx)
		query = strings.Replace(query, "SET ", fmt.Sprintf("SET version = $%d, ", argIdx), 1)
		args = append(args, *patch.Version)
	} else {
		query = strings.Replace(query, "SET ", "SET version = version + 1, ", 1)
	}

	query += fmt.Sprintf(" RETURNING %s", sessionColumns)

	s, err := r.scanOne(r.pool.QueryRow(ctx, query, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		// Either the id is unknown or the write was stale. Distinguish by
		// reading the row back.
		return r.GetByID(ctx, id)
	}
	return s, err
}

// CountCompletedSince reports how many sessions finished on or after the
// given instant.
func (r *SessionRepo) CountCompletedSince(ctx context.Context, since time.Time) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM study_sessions
		WHERE status = $1 AND end_time >= $2`, models.StatusCompleted, since).Scan(&count)
	return count, err
}

func (r *SessionRepo) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM study_sessions WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *SessionRepo) scanOne(row pgx.Row) (*models.StudySession, error) {
	s := &models.StudySession{}
	err := row.Scan(
		&s.ID, &s.StartTime, &s.EndTime, &s.PausedAt, &s.TotalPaused, &s.Track,
		&s.Topic, &s.Status, &s.Notes, &s.QuestionCount, &s.Accuracy,
		&s.BreaksTaken, &s.TargetMinutes, &s.Version, &s.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return s, nil
}
