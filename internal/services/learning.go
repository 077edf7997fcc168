package services

import (
	"context"
	"fmt"

	"roadsafe-quiz/internal/models"
)

// ── Progress ────────────────────────────────────────────────────────────────

func (c *APIClient) UpdateLessonProgress(ctx context.Context, lessonID int, u models.ProgressUpdate) (*models.UserProgress, error) {
	var progress models.UserProgress
	if err := c.postJSON(ctx, fmt.Sprintf("/courses/lessons/%d/progress", lessonID), u, &progress); err != nil {
		return nil, fmt.Errorf("failed to update progress for lesson %d: %w", lessonID, err)
	}
	return &progress, nil
}

func (c *APIClient) ListProgress(ctx context.Context) ([]models.UserProgress, error) {
	var progress []models.UserProgress
	if err := c.getJSON(ctx, "/courses/progress", nil, &progress); err != nil {
		return nil, fmt.Errorf("failed to list progress: %w", err)
	}
	return progress, nil
}

func (c *APIClient) GetCourseProgress(ctx context.Context, courseID int) (*models.CourseProgress, error) {
	var progress models.CourseProgress
	if err := c.getJSON(ctx, fmt.Sprintf("/courses/%d/progress", courseID), nil, &progress); err != nil {
		return nil, fmt.Errorf("failed to get progress for course %d: %w", courseID, err)
	}
	return &progress, nil
}

// ── Enrollments ─────────────────────────────────────────────────────────────

func (c *APIClient) Enroll(ctx context.Context, courseID int) (*models.CourseEnrollment, error) {
	var enrollment models.CourseEnrollment
	if err := c.postJSON(ctx, fmt.Sprintf("/courses/%d/enroll", courseID), nil, &enrollment); err != nil {
		return nil, fmt.Errorf("failed to enroll in course %d: %w", courseID, err)
	}
	return &enrollment, nil
}

func (c *APIClient) ListEnrollments(ctx context.Context) ([]models.CourseEnrollment, error) {
	var enrollments []models.CourseEnrollment
	if err := c.getJSON(ctx, "/courses/enrollments", nil, &enrollments); err != nil {
		return nil, fmt.Errorf("failed to list enrollments: %w", err)
	}
	return enrollments, nil
}
