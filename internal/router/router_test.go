package router

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"roadsafe-quiz/internal/auth"
	"roadsafe-quiz/internal/handlers"
	"roadsafe-quiz/internal/middleware"
	"roadsafe-quiz/internal/services"
	"roadsafe-quiz/internal/session"
	"roadsafe-quiz/internal/websocket"
)

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()

	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/quiz/1":
			w.Write([]byte(`{"id":1,"title":"Signs","language":"english","is_active":true}`))
		case "/api/quiz/1/questions":
			w.Write([]byte(`[{"id":1,"quiz_id":1,"question_text":"Stop?","options":["Yes","No"],"correct_answer_index":0,"points":1}]`))
		case "/api/analytics/user-count":
			w.Write([]byte(`{"total_users":7}`))
		case "/courses/progress":
			w.Write([]byte(`[{"id":1,"lesson_id":3,"completed":true}]`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(backend.Close)

	api := services.NewAPIClient(backend.URL, auth.Anonymous(""))
	hub := websocket.NewHub()
	manager := session.NewManager(api, session.Options{TimerTick: time.Hour, Listener: hub})
	t.Cleanup(manager.CloseAll)

	limiter := middleware.NewRateLimiter(1, time.Minute)
	t.Cleanup(limiter.Stop)

	return New(middleware.NewAuth("english"), Handlers{
		Auth:    handlers.NewAuthHandler(api),
		Quiz:    handlers.NewQuizHandler(api),
		Session: handlers.NewSessionHandler(manager, hub),
		Catalog: handlers.NewCatalogHandler(api),
		Admin:   handlers.NewAdminHandler(api),
	}, limiter, "http://localhost:3000")
}

func token(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("secret"))
	if err != nil {
		t.Fatalf("Failed to sign token: %v", err)
	}
	return s
}

func TestHealth(t *testing.T) {
	r := newTestRouter(t)

	for _, path := range []string{"/health", "/api/v1/health"} {
		rr := httptest.NewRecorder()
		r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, path, nil))

		if rr.Code != http.StatusOK {
			t.Errorf("%s: expected 200, got %d", path, rr.Code)
		}
		if rr.Header().Get("X-Request-ID") == "" {
			t.Errorf("%s: expected a request id", path)
		}
	}
}

func TestCORSPreflight(t *testing.T) {
	r := newTestRouter(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/sessions", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	if rr.Code != http.StatusNoContent {
		t.Fatalf("Expected 204, got %d", rr.Code)
	}
	if got := rr.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:3000" {
		t.Errorf("Unexpected allowed origin %q", got)
	}
}

func TestMalformedTokenRejected(t *testing.T) {
	r := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/quizzes", nil)
	req.Header.Set("Authorization", "Bearer nope")
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Errorf("Expected 401, got %d", rr.Code)
	}
}

func TestSessionCreationIsRateLimited(t *testing.T) {
	r := newTestRouter(t)

	codes := make([]int, 0, 2)
	for i := 0; i < 2; i++ {
		rr := httptest.NewRecorder()
		r.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/v1/sessions", strings.NewReader(`{"quiz_id":1}`)))
		codes = append(codes, rr.Code)
	}

	if codes[0] != http.StatusCreated || codes[1] != http.StatusTooManyRequests {
		t.Errorf("Expected [201 429], got %v", codes)
	}

	// Reads are not limited.
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/v1/sessions", nil))
	if rr.Code != http.StatusOK {
		t.Errorf("Expected 200 listing sessions, got %d", rr.Code)
	}
}

func TestAdminRoutes(t *testing.T) {
	r := newTestRouter(t)

	upload := func(bearer string) *httptest.ResponseRecorder {
		var body bytes.Buffer
		mw := multipart.NewWriter(&body)
		fw, _ := mw.CreateFormFile("file", "notes.txt")
		fw.Write([]byte("not a pdf"))
		mw.Close()

		req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/pdf", &body)
		req.Header.Set("Content-Type", mw.FormDataContentType())
		if bearer != "" {
			req.Header.Set("Authorization", "Bearer "+bearer)
		}
		rr := httptest.NewRecorder()
		r.ServeHTTP(rr, req)
		return rr
	}

	tests := []struct {
		name   string
		token  string
		status int
	}{
		{"anonymous", "", http.StatusUnauthorized},
		{"learner", token(t, jwt.MapClaims{"user_id": "2"}), http.StatusForbidden},
		{"admin with wrong file type", token(t, jwt.MapClaims{"user_id": "1", "is_admin": true}), http.StatusBadRequest},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if rr := upload(tc.token); rr.Code != tc.status {
				t.Errorf("Expected %d, got %d: %s", tc.status, rr.Code, rr.Body.String())
			}
		})
	}
}

func TestAnalyticsAndProgressRoutes(t *testing.T) {
	r := newTestRouter(t)
	admin := token(t, jwt.MapClaims{"user_id": "1", "is_admin": true})
	learner := token(t, jwt.MapClaims{"user_id": "2"})

	tests := []struct {
		name   string
		path   string
		token  string
		status int
		body   string
	}{
		{"user count as admin", "/api/v1/admin/analytics/user-count", admin, http.StatusOK, `"total_users":7`},
		{"user count as learner", "/api/v1/admin/analytics/user-count", learner, http.StatusForbidden, "FORBIDDEN"},
		{"bad analytics window", "/api/v1/admin/analytics/users?days=0", admin, http.StatusBadRequest, "VALIDATION_ERROR"},
		{"progress as learner", "/api/v1/progress", learner, http.StatusOK, `"lesson_id":3`},
		{"progress anonymous", "/api/v1/progress", "", http.StatusUnauthorized, "UNAUTHORIZED"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tc.path, nil)
			if tc.token != "" {
				req.Header.Set("Authorization", "Bearer "+tc.token)
			}
			rr := httptest.NewRecorder()
			r.ServeHTTP(rr, req)

			if rr.Code != tc.status {
				t.Fatalf("Expected %d, got %d: %s", tc.status, rr.Code, rr.Body.String())
			}
			if !strings.Contains(rr.Body.String(), tc.body) {
				t.Errorf("Expected body to contain %s, got %s", tc.body, rr.Body.String())
			}
		})
	}
}
