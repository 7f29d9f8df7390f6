package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"studytrack-backend/internal/models"
	"studytrack-backend/internal/services"
)

type CoachHandler struct {
	coach  *services.CoachService
	events *services.EventPublisher
}

func NewCoachHandler(coach *services.CoachService, events *services.EventPublisher) *CoachHandler {
	return &CoachHandler{coach: coach, events: events}
}

func (h *CoachHandler) Chat(w http.ResponseWriter, r *http.Request) {
	var req models.ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	response, err := h.coach.Chat(r.Context(), req)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	// Keep the stored history bounded.
	h.events.Enqueue(r.Context(), models.JobPruneConversations, nil)

	writeJSON(w, http.StatusOK, map[string]interface{}{"response": response})
}

func (h *CoachHandler) QuickAction(w http.ResponseWriter, r *http.Request) {
	var req models.QuickActionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	response, err := h.coach.QuickAction(r.Context(), req)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"response": response})
}

func (h *CoachHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.coach.Stats(r.Context())
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"stats": stats})
}

func (h *CoachHandler) Conversations(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	turns, err := h.coach.History(r.Context(), limit)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"conversations": turns})
}

func (h *CoachHandler) ClearConversations(w http.ResponseWriter, r *http.Request) {
	if err := h.coach.ClearHistory(r.Context()); err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true})
}
