package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"studytrack-backend/internal/models"
)

const studyLogColumns = `id, date, topic_fe, topic_scada, hours_fe, hours_scada,
		questions_fe, accuracy_fe, notes, created_at`

type StudyLogRepo struct {
	pool *pgxpool.Pool
}

func NewStudyLogRepo(pool *pgxpool.Pool) *StudyLogRepo {
	return &StudyLogRepo{pool: pool}
}

// UpsertDaily folds a completed session's contribution into the log row for
// its calendar day, creating the row when the day has none yet. Hours
// accumulate per track and a "Both" session splits evenly. FE question
// counts are summed while FE accuracy reflects only the latest session.
// Notes append under a time-of-day marker.
func (r *StudyLogRepo) UpsertDaily(ctx context.Context, input models.StudyLogInput) (*models.StudyLog, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	day := input.Date.Format("2006-01-02")

	existing := &models.StudyLog{}
	query := fmt.Sprintf(`SELECT %s FROM study_logs WHERE date = $1 FOR UPDATE`, studyLogColumns)
	err = tx.QueryRow(ctx, query, day).Scan(
		&existing.ID, &existing.Date, &existing.TopicFE, &existing.TopicSCADA,
		&existing.HoursFE, &existing.HoursSCADA, &existing.QuestionsFE,
		&existing.AccuracyFE, &existing.Notes, &existing.CreatedAt,
	)

	var log *models.StudyLog
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		log, err = r.insert(ctx, tx, day, input)
	case err == nil:
		log, err = r.merge(ctx, tx, existing, input)
	}
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return log, nil
}

func (r *StudyLogRepo) insert(ctx context.Context, tx pgx.Tx, day string, input models.StudyLogInput) (*models.StudyLog, error) {
	hoursFE, hoursSCADA := splitHours(input.Track, input.Hours)

	topicFE, topicSCADA := "", ""
	if input.Topic != nil {
		if input.Track == models.TrackFE || input.Track == models.TrackBoth {
			topicFE = *input.Topic
		}
		if input.Track == models.TrackSCADA || input.Track == models.TrackBoth {
			topicSCADA = *input.Topic
		}
	}

	questions := 0
	accuracy := 0.0
	if input.Track != models.TrackSCADA {
		if input.QuestionCount != nil {
			questions = *input.QuestionCount
		}
		if input.Accuracy != nil {
			accuracy = *input.Accuracy
		}
	}

	query := fmt.Sprintf(`INSERT INTO study_logs
			(date, topic_fe, topic_scada, hours_fe, hours_scada, questions_fe, accuracy_fe, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING %s`, studyLogColumns)

	return scanStudyLog(tx.QueryRow(ctx, query,
		day, topicFE, topicSCADA, hoursFE, hoursSCADA, questions, accuracy,
		stampedNotes(nil, input),
	))
}

func (r *StudyLogRepo) merge(ctx context.Context, tx pgx.Tx, existing *models.StudyLog, input models.StudyLogInput) (*models.StudyLog, error) {
	hoursFE, hoursSCADA := splitHours(input.Track, input.Hours)

	questions := existing.QuestionsFE
	accuracy := existing.AccuracyFE
	if input.Track != models.TrackSCADA {
		if input.QuestionCount != nil {
			questions += *input.QuestionCount
		}
		if input.Accuracy != nil {
			accuracy = *input.Accuracy
		}
	}

	query := fmt.Sprintf(`UPDATE study_logs
		SET hours_fe = hours_fe + $1,
			hours_scada = hours_scada + $2,
			questions_fe = $3,
			accuracy_fe = $4,
			notes = $5
		WHERE id = $6
		RETURNING %s`, studyLogColumns)

	return scanStudyLog(tx.QueryRow(ctx, query,
		hoursFE, hoursSCADA, questions, accuracy,
		stampedNotes(existing.Notes, input), existing.ID,
	))
}

// List returns log rows newest first. Zero times mean an unbounded side.
func (r *StudyLogRepo) List(ctx context.Context, from, to string, limit int) ([]models.StudyLog, error) {
	if limit <= 0 || limit > 365 {
		limit = 90
	}

	query := fmt.Sprintf(`SELECT %s FROM study_logs`, studyLogColumns)
	args := []interface{}{}
	where := []string{}
	if from != "" {
		where = append(where, fmt.Sprintf("date >= $%d", len(args)+1))
		args = append(args, from)
	}
	if to != "" {
		where = append(where, fmt.Sprintf("date <= $%d", len(args)+1))
		args = append(args, to)
	}
	for i, clause := range where {
		if i == 0 {
			query += " WHERE " + clause
		} else {
			query += " AND " + clause
		}
	}
	query += fmt.Sprintf(" ORDER BY date DESC LIMIT %d", limit)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	logs := []models.StudyLog{}
	for rows.Next() {
		log, err := scanStudyLog(rows)
		if err != nil {
			return nil, err
		}
		logs = append(logs, *log)
	}
	return logs, rows.Err()
}

// Totals aggregates hours, FE accuracy and row count across all log rows.
func (r *StudyLogRepo) Totals(ctx context.Context) (feHours, scadaHours, avgAccuracy float64, days int, err error) {
	query := `SELECT COALESCE(SUM(hours_fe), 0), COALESCE(SUM(hours_scada), 0),
			COALESCE(AVG(accuracy_fe) FILTER (WHERE accuracy_fe > 0), 0), COUNT(*)
		FROM study_logs`
	err = r.pool.QueryRow(ctx, query).Scan(&feHours, &scadaHours, &avgAccuracy, &days)
	return
}

func splitHours(track string, hours float64) (fe, scada float64) {
	switch track {
	case models.TrackFE:
		return hours, 0
	case models.TrackSCADA:
		return 0, hours
	default:
		return hours / 2, hours / 2
	}
}

// stampedNotes appends the session's notes under a time-of-day marker so a
// day with several sessions keeps each contribution readable.
func stampedNotes(existing *string, input models.StudyLogInput) *string {
	if input.Notes == nil || *input.Notes == "" {
		return existing
	}

	stamped := fmt.Sprintf("[%s] %s", input.Date.Format("15:04"), *input.Notes)
	if existing != nil && *existing != "" {
		stamped = *existing + "\n" + stamped
	}
	return &stamped
}

func scanStudyLog(row pgx.Row) (*models.StudyLog, error) {
	log := &models.StudyLog{}
	err := row.Scan(
		&log.ID, &log.Date, &log.TopicFE, &log.TopicSCADA, &log.HoursFE,
		&log.HoursSCADA, &log.QuestionsFE, &log.AccuracyFE, &log.Notes,
		&log.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return log, nil
}
