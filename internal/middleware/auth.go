package middleware

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"roadsafe-quiz/internal/auth"
	"roadsafe-quiz/internal/models"
)

// Auth attaches an auth.Context to every request. Tokens are optional:
// anonymous learners can play quizzes, and the backend decides what a token
// may do. A token that is present must at least be well formed and unexpired.
type Auth struct {
	DefaultLanguage string
	now             func() time.Time
}

func NewAuth(defaultLanguage string) *Auth {
	return &Auth{DefaultLanguage: defaultLanguage, now: time.Now}
}

func (a *Auth) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		lang := auth.NegotiateLanguage(r.URL.Query().Get("lang"), r.Header.Get("Accept-Language"), a.DefaultLanguage)

		token, err := bearerToken(r)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", err.Error(), r)
			return
		}

		ac, err := auth.FromToken(token, lang)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Invalid token", r)
			return
		}
		if ac.Expired(a.now()) {
			writeError(w, http.StatusUnauthorized, "TOKEN_EXPIRED", "Token has expired", r)
			return
		}

		next.ServeHTTP(w, r.WithContext(auth.WithContext(r.Context(), ac)))
	})
}

// RequireAuth rejects anonymous requests.
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !GetAuth(r).Authorized() {
			writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Missing authorization header", r)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireAdmin rejects requests whose token does not carry the admin claim.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ac := GetAuth(r)
		if !ac.Authorized() {
			writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Missing authorization header", r)
			return
		}
		if !ac.IsAdmin {
			writeError(w, http.StatusForbidden, "FORBIDDEN", "Admin access required", r)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// GetAuth returns the request's auth context, or an anonymous English one
// when the middleware did not run.
func GetAuth(r *http.Request) auth.Context {
	if ac, ok := auth.From(r.Context()); ok {
		return ac
	}
	return auth.Anonymous("")
}

func bearerToken(r *http.Request) (string, error) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		// Browsers cannot set headers on websocket upgrades.
		return r.URL.Query().Get("token"), nil
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
		return "", errors.New("Invalid authorization format")
	}
	return parts[1], nil
}

func writeError(w http.ResponseWriter, status int, code, message string, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(models.ErrorResponse{
		Error: models.APIError{
			Code:      code,
			Message:   message,
			RequestID: r.Header.Get("X-Request-ID"),
		},
	})
}
