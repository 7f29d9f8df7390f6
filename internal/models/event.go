package models

import (
	"encoding/json"

	"github.com/google/uuid"
)

// Session lifecycle event types published to the websocket feed.
const (
	EventSessionStarted   = "session.started"
	EventSessionPaused    = "session.paused"
	EventSessionResumed   = "session.resumed"
	EventSessionCompleted = "session.completed"
	EventSessionUpdated   = "session.updated"
	EventSessionDeleted   = "session.deleted"
	EventLogUpserted      = "log.upserted"
)

// SessionEvent is the payload broadcast to dashboard clients whenever a
// session or log changes.
type SessionEvent struct {
	Type    string        `json:"type"`
	Session *StudySession `json:"session,omitempty"`
	Log     *StudyLog     `json:"log,omitempty"`
}

// Background job types consumed by the worker pool.
const (
	JobRefreshStats       = "refresh_stats"
	JobPruneConversations = "prune_conversations"
)

// Job is a queued unit of background work.
type Job struct {
	ID      uuid.UUID       `json:"id"`
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}
