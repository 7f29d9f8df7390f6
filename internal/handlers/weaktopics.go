package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5"

	"studytrack-backend/internal/models"
	"studytrack-backend/internal/repository"
)

type WeakTopicHandler struct {
	weakRepo *repository.WeakTopicRepo
}

func NewWeakTopicHandler(weakRepo *repository.WeakTopicRepo) *WeakTopicHandler {
	return &WeakTopicHandler{weakRepo: weakRepo}
}

func (h *WeakTopicHandler) List(w http.ResponseWriter, r *http.Request) {
	topics, err := h.weakRepo.List(r.Context())
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"topics": topics})
}

func (h *WeakTopicHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Topic    string `json:"topic"`
		Track    string `json:"track"`
		Priority int    `json:"priority"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	fields := map[string]string{}
	if req.Topic == "" {
		fields["topic"] = "Topic is required"
	}
	if req.Track != "" && !models.ValidTrack(req.Track) {
		fields["track"] = "Track must be FE, SCADA or Both"
	}
	if req.Priority < 1 || req.Priority > 5 {
		fields["priority"] = "Priority must be between 1 and 5"
	}
	if len(fields) > 0 {
		writeJSON(w, http.StatusBadRequest, errorRespWithFields("VALIDATION_ERROR", "Validation failed", fields, r))
		return
	}

	if req.Track == "" {
		req.Track = models.TrackFE
	}

	wt := &models.WeakTopic{Topic: req.Topic, Track: req.Track, Priority: req.Priority}
	if err := h.weakRepo.Add(r.Context(), wt); err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{"topic": wt})
}

func (h *WeakTopicHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid topic id", r))
		return
	}

	if err := h.weakRepo.Delete(r.Context(), id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, errorResp("NOT_FOUND", "Weak topic not found", r))
			return
		}
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true})
}
