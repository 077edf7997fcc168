package models

import "time"

// SubmissionJob is a queued answer submission awaiting delivery to the backend.
type SubmissionJob struct {
	SessionID  string           `json:"session_id"`
	Submission AnswerSubmission `json:"submission"`
	RetryCount int              `json:"retry_count"`
	EnqueuedAt time.Time        `json:"enqueued_at"`
}
