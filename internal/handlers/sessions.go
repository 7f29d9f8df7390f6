package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5"

	"studytrack-backend/internal/models"
	"studytrack-backend/internal/repository"
	"studytrack-backend/internal/services"
)

type SessionHandler struct {
	sessionRepo *repository.SessionRepo
	events      *services.EventPublisher
}

func NewSessionHandler(sessionRepo *repository.SessionRepo, events *services.EventPublisher) *SessionHandler {
	return &SessionHandler{sessionRepo: sessionRepo, events: events}
}

func (h *SessionHandler) List(w http.ResponseWriter, r *http.Request) {
	status := r.URL.Query().Get("status")
	if status != "" && !models.ValidStatus(status) {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Unknown status filter", r))
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	sessions, err := h.sessionRepo.List(r.Context(), status, limit)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"sessions": sessions})
}

// Active returns the current live session, or null when every session is
// completed.
func (h *SessionHandler) Active(w http.ResponseWriter, r *http.Request) {
	sess, err := h.sessionRepo.GetActive(r.Context())
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"session": sess})
}

func (h *SessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := sessionID(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid session id", r))
		return
	}

	sess, err := h.sessionRepo.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, errorResp("NOT_FOUND", "Session not found", r))
			return
		}
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"session": sess})
}

func (h *SessionHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req models.CreateSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	fields := map[string]string{}
	if !models.ValidTrack(req.Track) {
		fields["track"] = "Track must be FE, SCADA or Both"
	}
	if req.Status != "" && req.Status != models.StatusActive {
		fields["status"] = "New sessions start active"
	}
	if req.TargetMinutes != nil && *req.TargetMinutes <= 0 {
		fields["targetMinutes"] = "Target must be positive"
	}
	if len(fields) > 0 {
		writeJSON(w, http.StatusBadRequest, errorRespWithFields("VALIDATION_ERROR", "Validation failed", fields, r))
		return
	}

	startTime := time.Now()
	if req.StartTime != nil {
		startTime = *req.StartTime
	}

	sess := &models.StudySession{
		StartTime:     startTime,
		Track:         req.Track,
		Topic:         req.Topic,
		Status:        models.StatusActive,
		Notes:         req.Notes,
		TargetMinutes: req.TargetMinutes,
	}

	if err := h.sessionRepo.Create(r.Context(), sess); err != nil {
		if errors.Is(err, repository.ErrLiveSessionExists) {
			writeJSON(w, http.StatusConflict, errorResp("CONFLICT",
				"A session is already active or paused. Stop it before starting another.", r))
			return
		}
		handleServiceError(w, r, err)
		return
	}

	h.events.Publish(r.Context(), models.SessionEvent{Type: models.EventSessionStarted, Session: sess})

	writeJSON(w, http.StatusCreated, map[string]interface{}{"session": sess})
}

func (h *SessionHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := sessionID(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid session id", r))
		return
	}

	var patch models.SessionPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	fields := map[string]string{}
	if patch.Track != nil && !models.ValidTrack(*patch.Track) {
		fields["track"] = "Track must be FE, SCADA or Both"
	}
	if patch.Status != nil && !models.ValidStatus(*patch.Status) {
		fields["status"] = "Unknown status"
	}
	if len(fields) > 0 {
		writeJSON(w, http.StatusBadRequest, errorRespWithFields("VALIDATION_ERROR", "Validation failed", fields, r))
		return
	}

	sess, err := h.sessionRepo.Update(r.Context(), id, patch)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, errorResp("NOT_FOUND", "Session not found", r))
			return
		}
		handleServiceError(w, r, err)
		return
	}

	h.events.Publish(r.Context(), models.SessionEvent{Type: transitionEvent(patch), Session: sess})

	if patch.Status != nil && *patch.Status == models.StatusCompleted {
		h.events.Enqueue(r.Context(), models.JobRefreshStats, nil)
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"session": sess})
}

func (h *SessionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := sessionID(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid session id", r))
		return
	}

	if err := h.sessionRepo.Delete(r.Context(), id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, errorResp("NOT_FOUND", "Session not found", r))
			return
		}
		handleServiceError(w, r, err)
		return
	}

	h.events.Publish(r.Context(), models.SessionEvent{Type: models.EventSessionDeleted,
		Session: &models.StudySession{ID: id}})

	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true})
}

func sessionID(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
}

// transitionEvent maps the status carried by a patch to the event the
// dashboard feed should see.
func transitionEvent(patch models.SessionPatch) string {
	if patch.Status == nil {
		return models.EventSessionUpdated
	}

	switch *patch.Status {
	case models.StatusPaused:
		return models.EventSessionPaused
	case models.StatusActive:
		return models.EventSessionResumed
	case models.StatusCompleted:
		return models.EventSessionCompleted
	default:
		return models.EventSessionUpdated
	}
}
