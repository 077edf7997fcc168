package quiz

import "roadsafe-quiz/internal/models"

// QuestionView is what the learner sees of a question. The correct answer
// and explanation are only filled in once the question is revealed.
type QuestionView struct {
	ID           int      `json:"id"`
	Text         string   `json:"question_text"`
	Options      []string `json:"options"`
	Points       int      `json:"points"`
	CorrectIndex *int     `json:"correct_answer_index,omitempty"`
	Explanation  string   `json:"explanation,omitempty"`
}

// State is a point-in-time copy of a controller, safe to hand to other
// goroutines.
type State struct {
	QuizID        int           `json:"quiz_id"`
	QuizTitle     string        `json:"quiz_title"`
	Phase         Phase         `json:"phase"`
	Position      int           `json:"position"`
	Total         int           `json:"total"`
	Question      *QuestionView `json:"question,omitempty"`
	Selected      *int          `json:"selected"`
	Revealed      bool          `json:"revealed"`
	Remaining     int           `json:"remaining"`
	TimeLimit     int           `json:"time_limit"`
	Score         int           `json:"score"`
	MaxScore      int           `json:"max_score"`
	LastResult    *Result       `json:"last_result,omitempty"`
	Results       []Result      `json:"results"`
	CorrectCount  int           `json:"correct_count"`
	AnsweredCount int           `json:"answered_count"`
}

func (c *Controller) Snapshot() State {
	s := State{
		QuizID:    c.quiz.ID,
		QuizTitle: c.quiz.Title,
		Phase:     c.phase,
		Position:  c.position,
		Total:     len(c.questions),
		Revealed:  c.phase == PhaseRevealed,
		Remaining: c.remaining,
		TimeLimit: c.timeLimit,
		Score:     c.score,
		MaxScore:  c.maxScore,
		Results:   append([]Result(nil), c.results...),
	}

	for _, r := range c.results {
		s.AnsweredCount++
		if r.Correct {
			s.CorrectCount++
		}
	}

	if c.selected != nil {
		sel := *c.selected
		s.Selected = &sel
	}

	if c.phase == PhaseInProgress || c.phase == PhaseRevealed {
		s.Question = viewOf(c.questions[c.position], s.Revealed)
	}
	if s.Revealed && len(c.results) > 0 {
		last := c.results[len(c.results)-1]
		s.LastResult = &last
	}
	return s
}

func viewOf(q models.Question, revealed bool) *QuestionView {
	v := &QuestionView{
		ID:      q.ID,
		Text:    q.QuestionText,
		Options: append([]string(nil), q.Options...),
		Points:  q.Points,
	}
	if revealed {
		idx := q.CorrectAnswerIndex
		v.CorrectIndex = &idx
		v.Explanation = q.ExplanationText()
	}
	return v
}
