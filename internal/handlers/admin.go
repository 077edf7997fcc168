package handlers

import (
	"encoding/json"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"roadsafe-quiz/internal/auth"
	"roadsafe-quiz/internal/models"
	"roadsafe-quiz/internal/services"
)

const maxUploadBytes = 10 << 20

type AdminHandler struct {
	api *services.APIClient
}

func NewAdminHandler(api *services.APIClient) *AdminHandler {
	return &AdminHandler{api: api}
}

// UploadPDF stores the multipart "file" in a temp file, pre-flights it and
// forwards it to the backend's lesson ingestion.
func (h *AdminHandler) UploadPDF(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes+1<<20)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "File too large or invalid form", r))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "File is required", r))
		return
	}
	defer file.Close()

	name := filepath.Base(header.Filename)
	if !strings.EqualFold(filepath.Ext(name), ".pdf") {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Only PDF files are accepted", r))
		return
	}

	dir, err := os.MkdirTemp("", "pdf-upload-*")
	if err != nil {
		log.Printf("Failed to create upload dir: %v", err)
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to store upload", r))
		return
	}
	defer os.RemoveAll(dir)

	path := filepath.Join(dir, name)
	dst, err := os.Create(path)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to store upload", r))
		return
	}
	if _, err := io.Copy(dst, file); err != nil {
		dst.Close()
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to store upload", r))
		return
	}
	dst.Close()

	result, err := h.api.UploadPDF(r.Context(), path)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, result)
}

// ── Users ───────────────────────────────────────────────────────────────────

func (h *AdminHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.api.ListUsers(r.Context())
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	if users == nil {
		users = []models.User{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"users": users})
}

func (h *AdminHandler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var req models.UserUpdate
	if !decodeBody(w, r, &req) {
		return
	}
	if !normalizeLanguage(req.PreferredLanguage) {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Unsupported language", r))
		return
	}

	user, err := h.api.UpdateUser(r.Context(), id, req)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (h *AdminHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.api.DeleteUser(r.Context(), id); err != nil {
		handleServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ── Analytics ───────────────────────────────────────────────────────────────

func (h *AdminHandler) DashboardStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.api.DashboardStats(r.Context())
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (h *AdminHandler) UserAnalytics(w http.ResponseWriter, r *http.Request) {
	days := services.DefaultAnalyticsDays
	if v := r.URL.Query().Get("days"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 || n > 365 {
			writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "days must be between 1 and 365", r))
			return
		}
		days = n
	}

	stats, err := h.api.UserAnalytics(r.Context(), days)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (h *AdminHandler) CourseAnalytics(w http.ResponseWriter, r *http.Request) {
	stats, err := h.api.CourseAnalytics(r.Context())
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (h *AdminHandler) QuizAnalytics(w http.ResponseWriter, r *http.Request) {
	stats, err := h.api.QuizAnalytics(r.Context())
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (h *AdminHandler) UserCount(w http.ResponseWriter, r *http.Request) {
	n, err := h.api.UserCount(r.Context())
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, models.UserCount{TotalUsers: n})
}

// ── Course authoring ────────────────────────────────────────────────────────

func (h *AdminHandler) CreateCourse(w http.ResponseWriter, r *http.Request) {
	var req models.CourseInput
	if !decodeBody(w, r, &req) {
		return
	}
	if blank(req.Title) || blank(req.Language) {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Title and language are required", r))
		return
	}
	if !normalizeLanguage(req.Language) {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Unsupported language", r))
		return
	}

	course, err := h.api.CreateCourse(r.Context(), req)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, course)
}

func (h *AdminHandler) UpdateCourse(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req models.CourseInput
	if !decodeBody(w, r, &req) {
		return
	}
	if !normalizeLanguage(req.Language) {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Unsupported language", r))
		return
	}

	course, err := h.api.UpdateCourse(r.Context(), id, req)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, course)
}

func (h *AdminHandler) DeleteCourse(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.api.DeleteCourse(r.Context(), id); err != nil {
		handleServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *AdminHandler) CreateModule(w http.ResponseWriter, r *http.Request) {
	courseID, ok := pathID(w, r)
	if !ok {
		return
	}
	var req models.ModuleInput
	if !decodeBody(w, r, &req) {
		return
	}
	if blank(req.Title) || req.OrderIndex == nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Title and order_index are required", r))
		return
	}

	module, err := h.api.CreateModule(r.Context(), courseID, req)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, module)
}

func (h *AdminHandler) UpdateModule(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req models.ModuleInput
	if !decodeBody(w, r, &req) {
		return
	}

	module, err := h.api.UpdateModule(r.Context(), id, req)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, module)
}

func (h *AdminHandler) CreateLesson(w http.ResponseWriter, r *http.Request) {
	moduleID, ok := pathID(w, r)
	if !ok {
		return
	}
	var req models.LessonInput
	if !decodeBody(w, r, &req) {
		return
	}
	if blank(req.Title) || blank(req.Content) || blank(req.Language) || req.OrderIndex == nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Title, content, language and order_index are required", r))
		return
	}
	if !normalizeLanguage(req.Language) {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Unsupported language", r))
		return
	}

	lesson, err := h.api.CreateLesson(r.Context(), moduleID, req)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, lesson)
}

func (h *AdminHandler) UpdateLesson(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req models.LessonInput
	if !decodeBody(w, r, &req) {
		return
	}
	if !normalizeLanguage(req.Language) {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Unsupported language", r))
		return
	}

	lesson, err := h.api.UpdateLesson(r.Context(), id, req)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, lesson)
}

func (h *AdminHandler) DeleteLesson(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.api.DeleteLesson(r.Context(), id); err != nil {
		handleServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return false
	}
	return true
}

func blank(s *string) bool {
	return s == nil || strings.TrimSpace(*s) == ""
}

// normalizeLanguage rewrites a set language to its backend code. An unset
// one is left alone.
func normalizeLanguage(lang *string) bool {
	if lang == nil {
		return true
	}
	code, ok := auth.NormalizeLanguage(*lang)
	if ok {
		*lang = code
	}
	return ok
}
