package models

import "time"

// CoachConversation is one stored turn of the coach chat history.
type CoachConversation struct {
	ID        int64     `json:"id"`
	Role      string    `json:"role"` // "user" or "assistant"
	Content   string    `json:"content"`
	Context   *string   `json:"context"`
	CreatedAt time.Time `json:"createdAt"`
}

// CoachStats summarises the student's recorded progress for the coach.
type CoachStats struct {
	TotalHours     float64  `json:"totalHours"`
	FEHours        float64  `json:"feHours"`
	SCADAHours     float64  `json:"scadaHours"`
	AvgAccuracy    int      `json:"avgAccuracy"`
	WeakTopics     []string `json:"weakTopics"`
	RecentSessions int      `json:"recentSessions"`
}

// WeakTopic is a topic flagged for extra practice. Higher priority means
// weaker; the coach surfaces topics with priority >= 3.
type WeakTopic struct {
	ID        int64     `json:"id"`
	Topic     string    `json:"topic"`
	Track     string    `json:"track"`
	Priority  int       `json:"priority"`
	CreatedAt time.Time `json:"createdAt"`
}

// ChatRequest is the POST /coach/chat body.
type ChatRequest struct {
	Message string      `json:"message"`
	Stats   *CoachStats `json:"stats"`
}

// QuickActionRequest is the POST /coach/quick-action body.
type QuickActionRequest struct {
	Action string      `json:"action"`
	Stats  *CoachStats `json:"stats"`
}
