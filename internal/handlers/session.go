package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"roadsafe-quiz/internal/middleware"
	"roadsafe-quiz/internal/quiz"
	"roadsafe-quiz/internal/session"
	"roadsafe-quiz/internal/websocket"
)

type SessionHandler struct {
	manager *session.Manager
	hub     *websocket.Hub
}

func NewSessionHandler(manager *session.Manager, hub *websocket.Hub) *SessionHandler {
	return &SessionHandler{manager: manager, hub: hub}
}

type createSessionRequest struct {
	QuizID int          `json:"quiz_id"`
	Mode   session.Mode `json:"mode"`
}

type selectRequest struct {
	AnswerIndex *int `json:"answer_index"`
}

func (h *SessionHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}
	if req.QuizID <= 0 {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "quiz_id is required", r))
		return
	}
	if req.Mode == "" {
		req.Mode = session.ModeRequest
	}

	s, err := h.manager.Create(r.Context(), middleware.GetAuth(r), req.QuizID, req.Mode)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, s.View())
}

func (h *SessionHandler) List(w http.ResponseWriter, r *http.Request) {
	sessions := h.manager.List(middleware.GetAuth(r))
	views := make([]session.View, 0, len(sessions))
	for _, s := range sessions {
		views = append(views, s.View())
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"sessions": views})
}

func (h *SessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	s, err := h.manager.Get(middleware.GetAuth(r), chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, s.View())
}

func (h *SessionHandler) Select(w http.ResponseWriter, r *http.Request) {
	var req selectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}
	if req.AnswerIndex == nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "answer_index is required", r))
		return
	}

	st, err := h.manager.Select(middleware.GetAuth(r), chi.URLParam(r, "id"), *req.AnswerIndex)
	h.respond(w, r, st, err)
}

func (h *SessionHandler) Submit(w http.ResponseWriter, r *http.Request) {
	ac := middleware.GetAuth(r)
	id := chi.URLParam(r, "id")

	// An answer_index in the body selects and submits in one call.
	var req selectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}
	if req.AnswerIndex != nil {
		if _, err := h.manager.Select(ac, id, *req.AnswerIndex); err != nil {
			handleServiceError(w, r, err)
			return
		}
	}

	st, err := h.manager.Submit(ac, id)
	h.respond(w, r, st, err)
}

func (h *SessionHandler) Advance(w http.ResponseWriter, r *http.Request) {
	st, err := h.manager.Advance(middleware.GetAuth(r), chi.URLParam(r, "id"))
	h.respond(w, r, st, err)
}

func (h *SessionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.manager.Close(middleware.GetAuth(r), chi.URLParam(r, "id")); err != nil {
		handleServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// WebSocket streams the session's state to a presentation client.
func (h *SessionHandler) WebSocket(w http.ResponseWriter, r *http.Request) {
	ac := middleware.GetAuth(r)
	id := chi.URLParam(r, "id")
	s, err := h.manager.Get(ac, id)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	h.hub.HandleWebSocket(w, r, id, s.State(), func() bool {
		_, err := h.manager.Get(ac, id)
		return err == nil
	})
}

func (h *SessionHandler) respond(w http.ResponseWriter, r *http.Request, st quiz.State, err error) {
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}
