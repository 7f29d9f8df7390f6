package models

import "time"

// StudyLog is the daily aggregate row derived from completed sessions.
// There is at most one row per calendar day; FE and SCADA hours accumulate
// in separate columns and a "Both" session splits its hours evenly.
type StudyLog struct {
	ID          int64     `json:"id"`
	Date        time.Time `json:"date"`
	TopicFE     string    `json:"topicFE"`
	TopicSCADA  string    `json:"topicSCADA"`
	HoursFE     float64   `json:"hoursFE"`
	HoursSCADA  float64   `json:"hoursSCADA"`
	QuestionsFE int       `json:"questionsFE"`
	AccuracyFE  float64   `json:"accuracyFE"`
	Notes       *string   `json:"notes"`
	CreatedAt   time.Time `json:"createdAt"`
}

// StudyLogInput is the POST /study-logs body: the derived fields a
// completed session contributes to today's log row.
type StudyLogInput struct {
	Date          time.Time `json:"date"`
	Track         string    `json:"track"`
	Hours         float64   `json:"hours"`
	Topic         *string   `json:"topic"`
	Notes         *string   `json:"notes"`
	QuestionCount *int      `json:"questionCount"`
	Accuracy      *float64  `json:"accuracy"`
}
