package models

import "time"

// UserProgress is the learner's state on one lesson.
type UserProgress struct {
	ID             int        `json:"id"`
	UserID         int        `json:"user_id"`
	LessonID       int        `json:"lesson_id"`
	Completed      bool       `json:"completed"`
	CompletionDate *time.Time `json:"completion_date,omitempty"`
	TimeSpent      *int       `json:"time_spent,omitempty"`
	Score          *int       `json:"score,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      *time.Time `json:"updated_at,omitempty"`
}

type ProgressUpdate struct {
	Completed bool `json:"completed"`
	TimeSpent *int `json:"time_spent,omitempty"`
	Score     *int `json:"score,omitempty"`
}

type CourseEnrollment struct {
	ID                 int        `json:"id"`
	UserID             int        `json:"user_id"`
	CourseID           int        `json:"course_id"`
	EnrolledAt         time.Time  `json:"enrolled_at"`
	CompletedAt        *time.Time `json:"completed_at,omitempty"`
	ProgressPercentage float64    `json:"progress_percentage"`
	CertificateIssued  bool       `json:"certificate_issued"`
	CertificateURL     *string    `json:"certificate_url,omitempty"`
}

type CourseProgress struct {
	CourseID           int       `json:"course_id"`
	TotalLessons       int       `json:"total_lessons"`
	CompletedLessons   int       `json:"completed_lessons"`
	ProgressPercentage float64   `json:"progress_percentage"`
	EnrolledAt         time.Time `json:"enrolled_at"`
}
