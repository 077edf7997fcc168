package services

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"roadsafe-quiz/internal/models"
)

func TestLearningCalls_HitBackendRoutes(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		name   string
		method string
		path   string
		body   string
		call   func(c *APIClient) error
	}{
		{"lesson progress", http.MethodPost, "/courses/lessons/4/progress", `{"id":1,"lesson_id":4,"completed":true}`,
			func(c *APIClient) error {
				p, err := c.UpdateLessonProgress(ctx, 4, models.ProgressUpdate{Completed: true})
				if err == nil && (!p.Completed || p.LessonID != 4) {
					t.Errorf("Unexpected progress %+v", p)
				}
				return err
			}},
		{"progress list", http.MethodGet, "/courses/progress", `[{"id":1,"lesson_id":4}]`,
			func(c *APIClient) error {
				p, err := c.ListProgress(ctx)
				if err == nil && len(p) != 1 {
					t.Errorf("Expected 1 progress row, got %d", len(p))
				}
				return err
			}},
		{"course progress", http.MethodGet, "/courses/2/progress", `{"course_id":2,"total_lessons":10,"completed_lessons":5,"progress_percentage":50,"enrolled_at":"2024-01-01T00:00:00Z"}`,
			func(c *APIClient) error {
				p, err := c.GetCourseProgress(ctx, 2)
				if err == nil && p.ProgressPercentage != 50 {
					t.Errorf("Expected 50%%, got %v", p.ProgressPercentage)
				}
				return err
			}},
		{"enroll", http.MethodPost, "/courses/2/enroll", `{"id":9,"course_id":2,"enrolled_at":"2024-01-01T00:00:00Z"}`,
			func(c *APIClient) error {
				e, err := c.Enroll(ctx, 2)
				if err == nil && e.CourseID != 2 {
					t.Errorf("Unexpected enrollment %+v", e)
				}
				return err
			}},
		{"enrollments", http.MethodGet, "/courses/enrollments", `[]`,
			func(c *APIClient) error {
				_, err := c.ListEnrollments(ctx)
				return err
			}},
		{"users", http.MethodGet, "/api/users", `[{"id":1,"email":"a@b.rw","is_admin":true}]`,
			func(c *APIClient) error {
				u, err := c.ListUsers(ctx)
				if err == nil && (len(u) != 1 || !u[0].IsAdmin) {
					t.Errorf("Unexpected users %+v", u)
				}
				return err
			}},
		{"delete user", http.MethodDelete, "/api/users/5", ``,
			func(c *APIClient) error { return c.DeleteUser(ctx, 5) }},
		{"dashboard", http.MethodGet, "/api/analytics/dashboard-stats", `{"users":{"total":12,"active":10,"admins":1},"recent_activity":{"enrollments_7_days":3}}`,
			func(c *APIClient) error {
				s, err := c.DashboardStats(ctx)
				if err == nil && (s.Users.Total != 12 || s.RecentActivity.Enrollments7Days != 3) {
					t.Errorf("Unexpected stats %+v", s)
				}
				return err
			}},
		{"course analytics", http.MethodGet, "/api/analytics/course-analytics", `{"popular_courses":[{"id":1,"title":"Signs","enrollment_count":4}]}`,
			func(c *APIClient) error {
				s, err := c.CourseAnalytics(ctx)
				if err == nil && len(s.PopularCourses) != 1 {
					t.Errorf("Unexpected course analytics %+v", s)
				}
				return err
			}},
		{"quiz analytics", http.MethodGet, "/api/analytics/quiz-analytics", `{"overall_stats":{"total_responses":20,"correct_responses":15,"overall_accuracy":75}}`,
			func(c *APIClient) error {
				s, err := c.QuizAnalytics(ctx)
				if err == nil && s.OverallStats.OverallAccuracy != 75 {
					t.Errorf("Unexpected quiz analytics %+v", s)
				}
				return err
			}},
		{"user count", http.MethodGet, "/api/analytics/user-count", `{"total_users":42}`,
			func(c *APIClient) error {
				n, err := c.UserCount(ctx)
				if err == nil && n != 42 {
					t.Errorf("Expected 42 users, got %d", n)
				}
				return err
			}},
		{"delete lesson", http.MethodDelete, "/lessons/8", ``,
			func(c *APIClient) error { return c.DeleteLesson(ctx, 8) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				if r.Method != tt.method || r.URL.Path != tt.path {
					t.Errorf("Unexpected %s %s", r.Method, r.URL.Path)
				}
				if got := r.Header.Get("Authorization"); got != "Bearer tok" {
					t.Errorf("Expected bearer token, got %q", got)
				}
				if tt.body == "" {
					w.WriteHeader(http.StatusNoContent)
					return
				}
				w.Write([]byte(tt.body))
			})
			if err := tt.call(client); err != nil {
				t.Fatalf("Call failed: %v", err)
			}
		})
	}
}

func TestUserAnalytics_DefaultsWindow(t *testing.T) {
	days := make(chan string, 2)
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		days <- r.URL.Query().Get("days")
		w.Write([]byte(`{"registration_trend":[{"date":"2024-01-01","count":2}],"active_users":{"last_7_days":3,"last_30_days":9}}`))
	})

	stats, err := client.UserAnalytics(context.Background(), 0)
	if err != nil {
		t.Fatalf("UserAnalytics failed: %v", err)
	}
	if stats.ActiveUsers.Last30Days != 9 || len(stats.RegistrationTrend) != 1 {
		t.Fatalf("Unexpected analytics %+v", stats)
	}
	if _, err := client.UserAnalytics(context.Background(), 7); err != nil {
		t.Fatalf("UserAnalytics failed: %v", err)
	}
	if first, second := <-days, <-days; first != "30" || second != "7" {
		t.Fatalf("Expected days 30 then 7, got %s and %s", first, second)
	}
}

func TestUpdateCourse_SendsOnlySetFields(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut || r.URL.Path != "/courses/3" {
			t.Errorf("Unexpected %s %s", r.Method, r.URL.Path)
		}
		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("Failed to decode body: %v", err)
		}
		if len(body) != 1 || body["is_active"] != false {
			t.Errorf("Expected only is_active=false, got %v", body)
		}
		w.Write([]byte(`{"id":3,"title":"Signs","is_active":false}`))
	})

	inactive := false
	course, err := client.UpdateCourse(context.Background(), 3, models.CourseInput{IsActive: &inactive})
	if err != nil {
		t.Fatalf("UpdateCourse failed: %v", err)
	}
	if course.IsActive {
		t.Fatal("Expected the course to be inactive")
	}
}

func TestAdminCalls_ForbiddenIsAnAPIError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"detail":"Not enough permissions"}`))
	})

	_, err := client.ListUsers(context.Background())
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.StatusCode != http.StatusForbidden || apiErr.Message != "Not enough permissions" {
		t.Fatalf("Expected 403 APIError, got %v", err)
	}
}
