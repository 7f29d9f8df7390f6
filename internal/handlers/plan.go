package handlers

import (
	"encoding/json"
	"net/http"

	"studytrack-backend/internal/models"
	"studytrack-backend/internal/repository"
)

type PlanHandler struct {
	planRepo *repository.PlanRepo
}

func NewPlanHandler(planRepo *repository.PlanRepo) *PlanHandler {
	return &PlanHandler{planRepo: planRepo}
}

func (h *PlanHandler) Get(w http.ResponseWriter, r *http.Request) {
	weeks, err := h.planRepo.ListWeeks(r.Context())
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	progress, err := h.planRepo.ListProgress(r.Context())
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"weeks":    weeks,
		"progress": progress,
	})
}

func (h *PlanHandler) UpdateProgress(w http.ResponseWriter, r *http.Request) {
	var p models.PlanProgress
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	fields := map[string]string{}
	if p.Week < 1 {
		fields["week"] = "Week must be positive"
	}
	if p.Day < 1 || p.Day > 7 {
		fields["day"] = "Day must be between 1 and 7"
	}
	if len(fields) > 0 {
		writeJSON(w, http.StatusBadRequest, errorRespWithFields("VALIDATION_ERROR", "Validation failed", fields, r))
		return
	}

	if err := h.planRepo.UpsertProgress(r.Context(), p); err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true})
}
