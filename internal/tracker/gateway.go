package tracker

import (
	"context"

	"studytrack-backend/internal/models"
)

// Gateway is the persistence boundary for the tracker. Every call except
// Create is fire-and-forget from the engine's perspective: failures are
// logged and swallowed, and the in-memory state stays authoritative for the
// life of the process. Create is the exception because its returned id gates
// all subsequent updates.
type Gateway interface {
	LoadActive(ctx context.Context) (*models.StudySession, error)
	Create(ctx context.Context, sess *models.StudySession) (*models.StudySession, error)
	Update(ctx context.Context, id int64, patch models.SessionPatch) (*models.StudySession, error)
	Delete(ctx context.Context, id int64) error
	CreateLogEntry(ctx context.Context, entry models.StudyLogInput) (*models.StudyLog, error)
}

// Notifier is the optional desktop notification and audio side channel.
// Absence is a normal variant: callers check Available before use and every
// failure is ignored.
type Notifier interface {
	Available() bool
	Notify(title, body string) error
	Beep() error
}

// NoopNotifier is used when no notification capability exists.
type NoopNotifier struct{}

func (NoopNotifier) Available() bool            { return false }
func (NoopNotifier) Notify(_, _ string) error   { return nil }
func (NoopNotifier) Beep() error                { return nil }
