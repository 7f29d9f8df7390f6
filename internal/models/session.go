package models

import (
	"encoding/json"
	"time"
)

// Track classifies a study session by topic area.
const (
	TrackFE    = "FE"
	TrackSCADA = "SCADA"
	TrackBoth  = "Both"
)

// Session lifecycle statuses. Completed is terminal.
const (
	StatusActive    = "active"
	StatusPaused    = "paused"
	StatusCompleted = "completed"
)

// ValidTrack reports whether t is one of the known tracks.
func ValidTrack(t string) bool {
	return t == TrackFE || t == TrackSCADA || t == TrackBoth
}

// ValidStatus reports whether s is a known session status.
func ValidStatus(s string) bool {
	return s == StatusActive || s == StatusPaused || s == StatusCompleted
}

// StudySession is one continuous (with pauses) block of tracked study time.
// While active, elapsed seconds = (now - StartTime) - TotalPaused. PausedAt
// is present only while the session is paused and records when the current
// pause began; TotalPaused accumulates completed pause intervals only.
type StudySession struct {
	ID            int64      `json:"id"`
	StartTime     time.Time  `json:"startTime"`
	EndTime       *time.Time `json:"endTime"`
	PausedAt      *time.Time `json:"pausedAt"`
	TotalPaused   int        `json:"totalPaused"`
	Track         string     `json:"track"`
	Topic         *string    `json:"topic"`
	Status        string     `json:"status"`
	Notes         *string    `json:"notes"`
	QuestionCount *int       `json:"questionCount"`
	Accuracy      *float64   `json:"accuracy"`
	BreaksTaken   int        `json:"breaksTaken"`
	TargetMinutes *int       `json:"targetMinutes"`
	Version       int        `json:"version"`
	CreatedAt     time.Time  `json:"createdAt"`
}

// SessionPatch is a partial update to a session. Each nullable field
// distinguishes "absent" (leave untouched) from an explicit null (clear the
// field); the *Set flags record presence in the request body. Track, status
// and the counters are never cleared, so a null there is treated as absent.
// Version, when present, is a monotonic write stamp: the persistence layer
// discards patches whose version is lower than the stored one.
type SessionPatch struct {
	EndTime    *time.Time
	EndTimeSet bool

	PausedAt    *time.Time
	PausedAtSet bool

	TotalPaused *int
	Track       *string
	Status      *string

	Topic    *string
	TopicSet bool

	Notes    *string
	NotesSet bool

	QuestionCount    *int
	QuestionCountSet bool

	Accuracy    *float64
	AccuracySet bool

	BreaksTaken *int

	TargetMinutes    *int
	TargetMinutesSet bool

	Version *int
}

// Empty reports whether the patch carries no field changes at all.
func (p *SessionPatch) Empty() bool {
	return !p.EndTimeSet && !p.PausedAtSet && p.TotalPaused == nil &&
		p.Track == nil && p.Status == nil && !p.TopicSet && !p.NotesSet &&
		!p.QuestionCountSet && !p.AccuracySet && p.BreaksTaken == nil &&
		!p.TargetMinutesSet
}

func (p *SessionPatch) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	isNull := func(v json.RawMessage) bool { return string(v) == "null" }

	if v, ok := raw["endTime"]; ok {
		p.EndTimeSet = true
		if !isNull(v) {
			var t time.Time
			if err := json.Unmarshal(v, &t); err != nil {
				return err
			}
			p.EndTime = &t
		}
	}
	if v, ok := raw["pausedAt"]; ok {
		p.PausedAtSet = true
		if !isNull(v) {
			var t time.Time
			if err := json.Unmarshal(v, &t); err != nil {
				return err
			}
			p.PausedAt = &t
		}
	}
	if v, ok := raw["totalPaused"]; ok && !isNull(v) {
		if err := json.Unmarshal(v, &p.TotalPaused); err != nil {
			return err
		}
	}
	if v, ok := raw["track"]; ok && !isNull(v) {
		if err := json.Unmarshal(v, &p.Track); err != nil {
			return err
		}
	}
	if v, ok := raw["status"]; ok && !isNull(v) {
		if err := json.Unmarshal(v, &p.Status); err != nil {
			return err
		}
	}
	if v, ok := raw["topic"]; ok {
		p.TopicSet = true
		if !isNull(v) {
			if err := json.Unmarshal(v, &p.Topic); err != nil {
				return err
			}
		}
	}
	if v, ok := raw["notes"]; ok {
		p.NotesSet = true
		if !isNull(v) {
			if err := json.Unmarshal(v, &p.Notes); err != nil {
				return err
			}
		}
	}
	if v, ok := raw["questionCount"]; ok {
		p.QuestionCountSet = true
		if !isNull(v) {
			if err := json.Unmarshal(v, &p.QuestionCount); err != nil {
				return err
			}
		}
	}
	if v, ok := raw["accuracy"]; ok {
		p.AccuracySet = true
		if !isNull(v) {
			if err := json.Unmarshal(v, &p.Accuracy); err != nil {
				return err
			}
		}
	}
	if v, ok := raw["breaksTaken"]; ok && !isNull(v) {
		if err := json.Unmarshal(v, &p.BreaksTaken); err != nil {
			return err
		}
	}
	if v, ok := raw["targetMinutes"]; ok {
		p.TargetMinutesSet = true
		if !isNull(v) {
			if err := json.Unmarshal(v, &p.TargetMinutes); err != nil {
				return err
			}
		}
	}
	if v, ok := raw["version"]; ok && !isNull(v) {
		if err := json.Unmarshal(v, &p.Version); err != nil {
			return err
		}
	}

	return nil
}

func (p SessionPatch) MarshalJSON() ([]byte, error) {
	out := make(map[string]interface{})

	if p.EndTimeSet {
		out["endTime"] = p.EndTime
	}
	if p.PausedAtSet {
		out["pausedAt"] = p.PausedAt
	}
	if p.TotalPaused != nil {
		out["totalPaused"] = *p.TotalPaused
	}
	if p.Track != nil {
		out["track"] = *p.Track
	}
	if p.Status != nil {
		out["status"] = *p.Status
	}
	if p.TopicSet {
		out["topic"] = p.Topic
	}
	if p.NotesSet {
		out["notes"] = p.Notes
	}
	if p.QuestionCountSet {
		out["questionCount"] = p.QuestionCount
	}
	if p.AccuracySet {
		out["accuracy"] = p.Accuracy
	}
	if p.BreaksTaken != nil {
		out["breaksTaken"] = *p.BreaksTaken
	}
	if p.TargetMinutesSet {
		out["targetMinutes"] = p.TargetMinutes
	}
	if p.Version != nil {
		out["version"] = *p.Version
	}

	return json.Marshal(out)
}

// CreateSessionRequest is the POST /sessions body.
type CreateSessionRequest struct {
	StartTime     *time.Time `json:"startTime"`
	Track         string     `json:"track"`
	Topic         *string    `json:"topic"`
	Status        string     `json:"status"`
	TargetMinutes *int       `json:"targetMinutes"`
	Notes         *string    `json:"notes"`
}
