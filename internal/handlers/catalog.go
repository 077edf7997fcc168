package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"roadsafe-quiz/internal/middleware"
	"roadsafe-quiz/internal/models"
	"roadsafe-quiz/internal/services"
)

// CatalogHandler proxies the course catalog and speech synthesis, filling in
// the learner's language where the caller did not choose one.
type CatalogHandler struct {
	api *services.APIClient
}

func NewCatalogHandler(api *services.APIClient) *CatalogHandler {
	return &CatalogHandler{api: api}
}

func (h *CatalogHandler) ListCourses(w http.ResponseWriter, r *http.Request) {
	f := models.CourseFilter{
		Language: middleware.GetAuth(r).Language,
		Category: r.URL.Query().Get("category"),
	}

	courses, err := h.api.ListCourses(r.Context(), f)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	if courses == nil {
		courses = []models.Course{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"courses": courses})
}

func (h *CatalogHandler) GetCourse(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	course, err := h.api.GetCourse(r.Context(), id)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, course)
}

func (h *CatalogHandler) ListModules(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	modules, err := h.api.ListModules(r.Context(), id)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	if modules == nil {
		modules = []models.Module{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"modules": modules})
}

func (h *CatalogHandler) ListLessons(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	lessons, err := h.api.ListLessons(r.Context(), id)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	if lessons == nil {
		lessons = []models.Lesson{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"lessons": lessons})
}

func (h *CatalogHandler) GetLesson(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	lesson, err := h.api.GetLesson(r.Context(), id)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, lesson)
}

func (h *CatalogHandler) Speech(w http.ResponseWriter, r *http.Request) {
	var req models.TTSRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Text is required", r))
		return
	}

	resp, err := h.api.SynthesizeSpeech(r.Context(), req)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}
