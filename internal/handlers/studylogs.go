package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"studytrack-backend/internal/models"
	"studytrack-backend/internal/repository"
	"studytrack-backend/internal/services"
)

type StudyLogHandler struct {
	logRepo *repository.StudyLogRepo
	events  *services.EventPublisher
}

func NewStudyLogHandler(logRepo *repository.StudyLogRepo, events *services.EventPublisher) *StudyLogHandler {
	return &StudyLogHandler{logRepo: logRepo, events: events}
}

func (h *StudyLogHandler) List(w http.ResponseWriter, r *http.Request) {
	from := r.URL.Query().Get("from")
	to := r.URL.Query().Get("to")
	for name, value := range map[string]string{"from": from, "to": to} {
		if value == "" {
			continue
		}
		if _, err := time.Parse("2006-01-02", value); err != nil {
			writeJSON(w, http.StatusBadRequest, errorRespWithFields("VALIDATION_ERROR",
				"Validation failed", map[string]string{name: "Dates use YYYY-MM-DD"}, r))
			return
		}
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	logs, err := h.logRepo.List(r.Context(), from, to, limit)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"logs": logs})
}

// Create folds a completed session's contribution into that day's log row.
// The response carries the merged row, so 201 covers both the first entry
// of the day and later merges.
func (h *StudyLogHandler) Create(w http.ResponseWriter, r *http.Request) {
	var input models.StudyLogInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	fields := map[string]string{}
	if !models.ValidTrack(input.Track) {
		fields["track"] = "Track must be FE, SCADA or Both"
	}
	if input.Hours < 0 {
		fields["hours"] = "Hours cannot be negative"
	}
	if input.Accuracy != nil && (*input.Accuracy < 0 || *input.Accuracy > 100) {
		fields["accuracy"] = "Accuracy is a percentage from 0 to 100"
	}
	if input.QuestionCount != nil && *input.QuestionCount < 0 {
		fields["questionCount"] = "Question count cannot be negative"
	}
	if len(fields) > 0 {
		writeJSON(w, http.StatusBadRequest, errorRespWithFields("VALIDATION_ERROR", "Validation failed", fields, r))
		return
	}

	if input.Date.IsZero() {
		input.Date = time.Now()
	}

	log, err := h.logRepo.UpsertDaily(r.Context(), input)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	h.events.Publish(r.Context(), models.SessionEvent{Type: models.EventLogUpserted, Log: log})
	h.events.Enqueue(r.Context(), models.JobRefreshStats, nil)

	writeJSON(w, http.StatusCreated, map[string]interface{}{"log": log})
}
