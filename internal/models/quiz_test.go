package models

import (
	"errors"
	"testing"
)

func TestQuestionValidate(t *testing.T) {
	tests := []struct {
		name     string
		question Question
		wantErr  error
	}{
		{"valid", Question{ID: 1, Options: []string{"Stop", "Go"}, CorrectAnswerIndex: 0, Points: 1}, nil},
		{"one option", Question{ID: 2, Options: []string{"Stop"}, Points: 1}, ErrTooFewOptions},
		{"negative index", Question{ID: 3, Options: []string{"A", "B"}, CorrectAnswerIndex: -1, Points: 1}, ErrCorrectIndexInvalid},
		{"index past end", Question{ID: 4, Options: []string{"A", "B"}, CorrectAnswerIndex: 2, Points: 1}, ErrCorrectIndexInvalid},
		{"zero points", Question{ID: 5, Options: []string{"A", "B"}, Points: 0}, ErrPointsInvalid},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.question.Validate()
			if !errors.Is(err, tc.wantErr) {
				t.Errorf("Expected %v, got %v", tc.wantErr, err)
			}
		})
	}
}

func TestExplanationText(t *testing.T) {
	q := Question{}
	if q.ExplanationText() != "" {
		t.Errorf("Expected empty explanation")
	}
	exp := "Red means stop."
	q.Explanation = &exp
	if q.ExplanationText() != exp {
		t.Errorf("Expected %q, got %q", exp, q.ExplanationText())
	}
}
