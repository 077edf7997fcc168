package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"

	"roadsafe-quiz/internal/models"
	"roadsafe-quiz/internal/quiz"
	"roadsafe-quiz/internal/services"
	"roadsafe-quiz/internal/session"
)

// AuthHandler proxies account calls to the backend so presentation clients
// talk to a single origin.
type AuthHandler struct {
	api *services.APIClient
}

func NewAuthHandler(api *services.APIClient) *AuthHandler {
	return &AuthHandler{api: api}
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}
	if strings.TrimSpace(req.Email) == "" || req.Password == "" {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Email and password are required", r))
		return
	}

	tokens, err := h.api.Login(r.Context(), req)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, tokens)
}

func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, err := h.api.CurrentUser(r.Context())
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, user)
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func errorResp(code, message string, r *http.Request) models.ErrorResponse {
	return models.ErrorResponse{
		Error: models.APIError{
			Code:      code,
			Message:   message,
			RequestID: r.Header.Get("X-Request-ID"),
		},
	}
}

// handleServiceError maps session, controller and backend errors onto the
// adapter's error envelope.
func handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var apiErr *services.APIError

	switch {
	case errors.Is(err, session.ErrSessionNotFound):
		writeJSON(w, http.StatusNotFound, errorResp("NOT_FOUND", "Session not found", r))
	case errors.Is(err, session.ErrInvalidMode), errors.Is(err, quiz.ErrAnswerOutOfRange):
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", err.Error(), r))
	case errors.Is(err, session.ErrModeUnavailable):
		writeJSON(w, http.StatusServiceUnavailable, errorResp("UNAVAILABLE", err.Error(), r))
	case isUnplayable(err):
		writeJSON(w, http.StatusUnprocessableEntity, errorResp("VALIDATION_ERROR", err.Error(), r))
	case isControllerError(err):
		writeJSON(w, http.StatusConflict, errorResp("CONFLICT", err.Error(), r))
	case errors.Is(err, services.ErrUnauthorized):
		writeJSON(w, http.StatusUnauthorized, errorResp("UNAUTHORIZED", "Backend rejected the access token", r))
	case errors.Is(err, services.ErrNotPDF), errors.Is(err, services.ErrPDFEmpty), errors.Is(err, services.ErrPDFNoText):
		writeJSON(w, http.StatusUnprocessableEntity, errorResp("VALIDATION_ERROR", err.Error(), r))
	case errors.As(err, &apiErr):
		switch apiErr.StatusCode {
		case http.StatusNotFound:
			writeJSON(w, http.StatusNotFound, errorResp("NOT_FOUND", apiErr.Message, r))
			return
		case http.StatusForbidden:
			writeJSON(w, http.StatusForbidden, errorResp("FORBIDDEN", apiErr.Message, r))
			return
		}
		writeJSON(w, http.StatusBadGateway, errorResp("UPSTREAM_ERROR", apiErr.Message, r))
	default:
		log.Printf("Request %s failed: %v", r.Header.Get("X-Request-ID"), err)
		writeJSON(w, http.StatusBadGateway, errorResp("UPSTREAM_ERROR", "The quiz backend could not be reached", r))
	}
}

// isUnplayable reports a quiz that cannot start: no questions, or questions
// that fail validation.
func isUnplayable(err error) bool {
	for _, target := range []error{
		quiz.ErrEmptyQuiz,
		quiz.ErrQuestionMismatch,
		models.ErrTooFewOptions,
		models.ErrCorrectIndexInvalid,
		models.ErrPointsInvalid,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

func isControllerError(err error) bool {
	for _, target := range []error{
		quiz.ErrNoSelection,
		quiz.ErrAlreadyRevealed,
		quiz.ErrNotRevealed,
		quiz.ErrNotInProgress,
		quiz.ErrAlreadyStarted,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
