package services

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"roadsafe-quiz/internal/models"
)

// DefaultAnalyticsDays is the registration trend window the backend uses
// when none is given.
const DefaultAnalyticsDays = 30

// ── Users ───────────────────────────────────────────────────────────────────

func (c *APIClient) ListUsers(ctx context.Context) ([]models.User, error) {
	var users []models.User
	if err := c.getJSON(ctx, "/api/users", nil, &users); err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

func (c *APIClient) UpdateUser(ctx context.Context, userID int, u models.UserUpdate) (*models.User, error) {
	var user models.User
	if err := c.putJSON(ctx, fmt.Sprintf("/api/users/%d", userID), u, &user); err != nil {
		return nil, fmt.Errorf("failed to update user %d: %w", userID, err)
	}
	return &user, nil
}

func (c *APIClient) DeleteUser(ctx context.Context, userID int) error {
	if err := c.deleteJSON(ctx, fmt.Sprintf("/api/users/%d", userID)); err != nil {
		return fmt.Errorf("failed to delete user %d: %w", userID, err)
	}
	return nil
}

// ── Analytics ───────────────────────────────────────────────────────────────

func (c *APIClient) DashboardStats(ctx context.Context) (*models.DashboardStats, error) {
	var stats models.DashboardStats
	if err := c.getJSON(ctx, "/api/analytics/dashboard-stats", nil, &stats); err != nil {
		return nil, fmt.Errorf("failed to get dashboard stats: %w", err)
	}
	return &stats, nil
}

// UserAnalytics reports registrations over the last days. Non-positive days
// fall back to DefaultAnalyticsDays.
func (c *APIClient) UserAnalytics(ctx context.Context, days int) (*models.UserAnalytics, error) {
	if days <= 0 {
		days = DefaultAnalyticsDays
	}
	q := url.Values{}
	q.Set("days", strconv.Itoa(days))

	var stats models.UserAnalytics
	if err := c.getJSON(ctx, "/api/analytics/user-analytics", q, &stats); err != nil {
		return nil, fmt.Errorf("failed to get user analytics: %w", err)
	}
	return &stats, nil
}

func (c *APIClient) CourseAnalytics(ctx context.Context) (*models.CourseAnalytics, error) {
	var stats models.CourseAnalytics
	if err := c.getJSON(ctx, "/api/analytics/course-analytics", nil, &stats); err != nil {
		return nil, fmt.Errorf("failed to get course analytics: %w", err)
	}
	return &stats, nil
}

func (c *APIClient) QuizAnalytics(ctx context.Context) (*models.QuizAnalytics, error) {
	var stats models.QuizAnalytics
	if err := c.getJSON(ctx, "/api/analytics/quiz-analytics", nil, &stats); err != nil {
		return nil, fmt.Errorf("failed to get quiz analytics: %w", err)
	}
	return &stats, nil
}

func (c *APIClient) UserCount(ctx context.Context) (int, error) {
	var count models.UserCount
	if err := c.getJSON(ctx, "/api/analytics/user-count", nil, &count); err != nil {
		return 0, fmt.Errorf("failed to get user count: %w", err)
	}
	return count.TotalUsers, nil
}

// ── Course authoring ────────────────────────────────────────────────────────

func (c *APIClient) CreateCourse(ctx context.Context, in models.CourseInput) (*models.Course, error) {
	var course models.Course
	if err := c.postJSON(ctx, "/courses", in, &course); err != nil {
		return nil, fmt.Errorf("failed to create course: %w", err)
	}
	return &course, nil
}

func (c *APIClient) UpdateCourse(ctx context.Context, courseID int, in models.CourseInput) (*models.Course, error) {
	var course models.Course
	if err := c.putJSON(ctx, fmt.Sprintf("/courses/%d", courseID), in, &course); err != nil {
		return nil, fmt.Errorf("failed to update course %d: %w", courseID, err)
	}
	return &course, nil
}

func (c *APIClient) DeleteCourse(ctx context.Context, courseID int) error {
	if err := c.deleteJSON(ctx, fmt.Sprintf("/courses/%d", courseID)); err != nil {
		return fmt.Errorf("failed to delete course %d: %w", courseID, err)
	}
	return nil
}

func (c *APIClient) CreateModule(ctx context.Context, courseID int, in models.ModuleInput) (*models.Module, error) {
	var module models.Module
	if err := c.postJSON(ctx, fmt.Sprintf("/courses/%d/modules", courseID), in, &module); err != nil {
		return nil, fmt.Errorf("failed to create module in course %d: %w", courseID, err)
	}
	return &module, nil
}

func (c *APIClient) UpdateModule(ctx context.Context, moduleID int, in models.ModuleInput) (*models.Module, error) {
	var module models.Module
	if err := c.putJSON(ctx, fmt.Sprintf("/courses/modules/%d", moduleID), in, &module); err != nil {
		return nil, fmt.Errorf("failed to update module %d: %w", moduleID, err)
	}
	return &module, nil
}

func (c *APIClient) CreateLesson(ctx context.Context, moduleID int, in models.LessonInput) (*models.Lesson, error) {
	var lesson models.Lesson
	if err := c.postJSON(ctx, fmt.Sprintf("/courses/modules/%d/lessons", moduleID), in, &lesson); err != nil {
		return nil, fmt.Errorf("failed to create lesson in module %d: %w", moduleID, err)
	}
	return &lesson, nil
}

func (c *APIClient) UpdateLesson(ctx context.Context, lessonID int, in models.LessonInput) (*models.Lesson, error) {
	var lesson models.Lesson
	if err := c.putJSON(ctx, fmt.Sprintf("/courses/lessons/%d", lessonID), in, &lesson); err != nil {
		return nil, fmt.Errorf("failed to update lesson %d: %w", lessonID, err)
	}
	return &lesson, nil
}

func (c *APIClient) DeleteLesson(ctx context.Context, lessonID int) error {
	if err := c.deleteJSON(ctx, fmt.Sprintf("/lessons/%d", lessonID)); err != nil {
		return fmt.Errorf("failed to delete lesson %d: %w", lessonID, err)
	}
	return nil
}
