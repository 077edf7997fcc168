package models

import (
	"errors"
	"fmt"
	"time"
)

type Quiz struct {
	ID              int        `json:"id"`
	Title           string     `json:"title"`
	Description     *string    `json:"description,omitempty"`
	Language        string     `json:"language"`
	DifficultyLevel string     `json:"difficulty_level"`
	IsActive        bool       `json:"is_active"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       *time.Time `json:"updated_at,omitempty"`
}

// Question is one multiple-choice item. Options are kept in the order the
// backend sent them; CorrectAnswerIndex points into that order.
type Question struct {
	ID                 int       `json:"id"`
	QuizID             int       `json:"quiz_id"`
	QuestionText       string    `json:"question_text"`
	Options            []string  `json:"options"`
	CorrectAnswerIndex int       `json:"correct_answer_index"`
	Explanation        *string   `json:"explanation,omitempty"`
	Points             int       `json:"points"`
	Position           int       `json:"position,omitempty"`
	IsActive           bool      `json:"is_active"`
	CreatedAt          time.Time `json:"created_at"`
}

var (
	ErrTooFewOptions       = errors.New("question needs at least two options")
	ErrCorrectIndexInvalid = errors.New("correct answer index out of range")
	ErrPointsInvalid       = errors.New("question points must be positive")
)

func (q *Question) Validate() error {
	if len(q.Options) < 2 {
		return fmt.Errorf("question %d: %w", q.ID, ErrTooFewOptions)
	}
	if q.CorrectAnswerIndex < 0 || q.CorrectAnswerIndex >= len(q.Options) {
		return fmt.Errorf("question %d: %w", q.ID, ErrCorrectIndexInvalid)
	}
	if q.Points <= 0 {
		return fmt.Errorf("question %d: %w", q.ID, ErrPointsInvalid)
	}
	return nil
}

// ExplanationText returns the explanation or "" when none was provided.
func (q *Question) ExplanationText() string {
	if q.Explanation == nil {
		return ""
	}
	return *q.Explanation
}

type QuizFilter struct {
	Language string
	Skip     int
	Limit    int
}

// AnswerSubmission is the body of POST /api/quiz/submit.
type AnswerSubmission struct {
	QuestionID      int  `json:"question_id"`
	UserAnswerIndex int  `json:"user_answer_index"`
	ResponseTime    *int `json:"response_time,omitempty"`
}

// AnswerRecord is the backend's verdict for a stored submission.
type AnswerRecord struct {
	ID              int       `json:"id"`
	QuestionID      int       `json:"question_id"`
	UserAnswerIndex int       `json:"user_answer_index"`
	IsCorrect       bool      `json:"is_correct"`
	ResponseTime    *int      `json:"response_time,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}
