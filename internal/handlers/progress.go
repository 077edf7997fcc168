package handlers

import (
	"encoding/json"
	"net/http"

	"roadsafe-quiz/internal/models"
)

// UpdateLessonProgress records the caller's completion, time and score on a
// lesson.
func (h *CatalogHandler) UpdateLessonProgress(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var req models.ProgressUpdate
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}
	if (req.TimeSpent != nil && *req.TimeSpent < 0) || (req.Score != nil && (*req.Score < 0 || *req.Score > 100)) {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "time_spent must be positive and score between 0 and 100", r))
		return
	}

	progress, err := h.api.UpdateLessonProgress(r.Context(), id, req)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, progress)
}

func (h *CatalogHandler) ListProgress(w http.ResponseWriter, r *http.Request) {
	progress, err := h.api.ListProgress(r.Context())
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	if progress == nil {
		progress = []models.UserProgress{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"progress": progress})
}

func (h *CatalogHandler) CourseProgress(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	progress, err := h.api.GetCourseProgress(r.Context(), id)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, progress)
}

func (h *CatalogHandler) Enroll(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	enrollment, err := h.api.Enroll(r.Context(), id)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, enrollment)
}

func (h *CatalogHandler) ListEnrollments(w http.ResponseWriter, r *http.Request) {
	enrollments, err := h.api.ListEnrollments(r.Context())
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	if enrollments == nil {
		enrollments = []models.CourseEnrollment{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"enrollments": enrollments})
}
