package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"roadsafe-quiz/internal/auth"
	"roadsafe-quiz/internal/models"
)

func signed(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("backend-secret"))
	if err != nil {
		t.Fatalf("Failed to sign token: %v", err)
	}
	return tok
}

func captureAuth(got *auth.Context) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*got = GetAuth(r)
		w.WriteHeader(http.StatusNoContent)
	})
}

func TestAuthMiddleware(t *testing.T) {
	valid := signed(t, jwt.MapClaims{"user_id": "42", "email": "a@b.rw", "exp": time.Now().Add(time.Hour).Unix()})
	expired := signed(t, jwt.MapClaims{"user_id": "42", "exp": time.Now().Add(-time.Hour).Unix()})

	tests := []struct {
		name       string
		header     string
		query      string
		acceptLang string
		wantStatus int
		wantCode   string
		wantUser   string
		wantLang   string
	}{
		{"anonymous", "", "", "", http.StatusNoContent, "", "", models.LanguageEnglish},
		{"bearer token", "Bearer " + valid, "", "", http.StatusNoContent, "", "42", models.LanguageEnglish},
		{"query token", "", "?token=" + valid, "", http.StatusNoContent, "", "42", models.LanguageEnglish},
		{"lang query wins", "", "?lang=fr", "rw", http.StatusNoContent, "", "", models.LanguageFrench},
		{"accept-language", "", "", "rw-RW,en;q=0.5", http.StatusNoContent, "", "", models.LanguageKinyarwanda},
		{"bad scheme", "Basic abc", "", "", http.StatusUnauthorized, "UNAUTHORIZED", "", ""},
		{"garbage token", "Bearer not.a.jwt", "", "", http.StatusUnauthorized, "UNAUTHORIZED", "", ""},
		{"expired token", "Bearer " + expired, "", "", http.StatusUnauthorized, "TOKEN_EXPIRED", "", ""},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var got auth.Context
			h := NewAuth("english").Middleware(captureAuth(&got))

			req := httptest.NewRequest(http.MethodGet, "/api/v1/quizzes"+tc.query, nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			if tc.acceptLang != "" {
				req.Header.Set("Accept-Language", tc.acceptLang)
			}
			rr := httptest.NewRecorder()
			h.ServeHTTP(rr, req)

			if rr.Code != tc.wantStatus {
				t.Fatalf("Expected status %d, got %d", tc.wantStatus, rr.Code)
			}
			if tc.wantCode != "" {
				var body models.ErrorResponse
				json.NewDecoder(rr.Body).Decode(&body)
				if body.Error.Code != tc.wantCode {
					t.Errorf("Expected code %s, got %s", tc.wantCode, body.Error.Code)
				}
				return
			}
			if got.UserID != tc.wantUser {
				t.Errorf("Expected user %q, got %q", tc.wantUser, got.UserID)
			}
			if got.Language != tc.wantLang {
				t.Errorf("Expected language %q, got %q", tc.wantLang, got.Language)
			}
		})
	}
}

func TestRequireAdmin(t *testing.T) {
	admin := signed(t, jwt.MapClaims{"user_id": "1", "is_admin": true})
	learner := signed(t, jwt.MapClaims{"user_id": "2"})

	tests := []struct {
		name   string
		token  string
		status int
	}{
		{"anonymous", "", http.StatusUnauthorized},
		{"learner", learner, http.StatusForbidden},
		{"admin", admin, http.StatusNoContent},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var got auth.Context
			h := NewAuth("").Middleware(RequireAdmin(captureAuth(&got)))

			req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/pdf", nil)
			if tc.token != "" {
				req.Header.Set("Authorization", "Bearer "+tc.token)
			}
			rr := httptest.NewRecorder()
			h.ServeHTTP(rr, req)

			if rr.Code != tc.status {
				t.Errorf("Expected %d, got %d", tc.status, rr.Code)
			}
		})
	}
}

func TestRequireAuth(t *testing.T) {
	h := NewAuth("").Middleware(RequireAuth(captureAuth(new(auth.Context))))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/progress", nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusUnauthorized {
		t.Errorf("Expected 401 for anonymous, got %d", rr.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/v1/progress", nil)
	req.Header.Set("Authorization", "Bearer "+signed(t, jwt.MapClaims{"user_id": "2"}))
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusNoContent {
		t.Errorf("Expected 204 for learner, got %d", rr.Code)
	}
}

func TestRateLimiter(t *testing.T) {
	rl := NewRateLimiter(2, time.Minute)
	defer rl.Stop()

	h := rl.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	}))

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/sessions", nil)
		req.RemoteAddr = "10.0.0.1:" + string(rune('1'+i)) + "000"
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		codes = append(codes, rr.Code)
		if rr.Code == http.StatusTooManyRequests && rr.Header().Get("Retry-After") != "60" {
			t.Errorf("Expected Retry-After 60, got %q", rr.Header().Get("Retry-After"))
		}
	}

	want := []int{http.StatusCreated, http.StatusCreated, http.StatusTooManyRequests}
	for i := range want {
		if codes[i] != want[i] {
			t.Fatalf("Expected %v, got %v", want, codes)
		}
	}
}

func TestRequestID(t *testing.T) {
	h := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-Request-ID") == "" {
			t.Errorf("Expected request id on the request")
		}
	}))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rr.Header().Get("X-Request-ID") == "" {
		t.Errorf("Expected generated request id on the response")
	}

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Request-ID", "abc")
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if got := rr.Header().Get("X-Request-ID"); got != "abc" {
		t.Errorf("Expected caller's request id, got %q", got)
	}
}

func TestCORS(t *testing.T) {
	h := CORS("http://localhost:5173")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/sessions", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if rr.Code != http.StatusNoContent {
		t.Errorf("Expected preflight 204, got %d", rr.Code)
	}
	if rr.Header().Get("Access-Control-Allow-Origin") != "http://localhost:5173" {
		t.Errorf("Expected origin to be allowed")
	}

	req = httptest.NewRequest(http.MethodGet, "/api/v1/sessions", nil)
	req.Header.Set("Origin", "http://evil.example")
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Header().Get("Access-Control-Allow-Origin") != "" {
		t.Errorf("Expected foreign origin to be refused")
	}
}
