package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"roadsafe-quiz/internal/auth"
	"roadsafe-quiz/internal/middleware"
	"roadsafe-quiz/internal/models"
	"roadsafe-quiz/internal/services"
)

// QuizHandler lists what can be played. Question lists are not exposed here:
// they carry the correct answers and only reach learners through a session.
type QuizHandler struct {
	api *services.APIClient
}

func NewQuizHandler(api *services.APIClient) *QuizHandler {
	return &QuizHandler{api: api}
}

func (h *QuizHandler) List(w http.ResponseWriter, r *http.Request) {
	f := models.QuizFilter{
		Language: middleware.GetAuth(r).Language,
		Skip:     queryInt(r, "skip", 0),
		Limit:    queryInt(r, "limit", 100),
	}
	if lang := r.URL.Query().Get("language"); lang != "" {
		code, ok := auth.NormalizeLanguage(lang)
		if !ok {
			writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Unsupported language", r))
			return
		}
		f.Language = code
	}

	quizzes, err := h.api.ListQuizzes(r.Context(), f)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	if quizzes == nil {
		quizzes = []models.Quiz{}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"quizzes": quizzes,
		"total":   len(quizzes),
	})
}

func (h *QuizHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	q, err := h.api.GetQuiz(r.Context(), id)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, q)
}

func queryInt(r *http.Request, key string, def int) int {
	v, err := strconv.Atoi(r.URL.Query().Get(key))
	if err != nil || v < 0 {
		return def
	}
	return v
}

func pathID(w http.ResponseWriter, r *http.Request) (int, bool) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil || id <= 0 {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid ID", r))
		return 0, false
	}
	return id, true
}
