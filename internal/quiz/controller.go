package quiz

import (
	"errors"
	"fmt"
	"sort"

	"roadsafe-quiz/internal/models"
)

// DefaultTimeLimit is the per-question budget in time units.
const DefaultTimeLimit = 30

var (
	ErrEmptyQuiz        = errors.New("quiz has no questions")
	ErrQuestionMismatch = errors.New("question does not belong to quiz")
	ErrNoSelection      = errors.New("no answer selected")
	ErrAnswerOutOfRange = errors.New("answer index out of range")
	ErrAlreadyRevealed  = errors.New("answer already revealed")
	ErrNotRevealed      = errors.New("answer not revealed yet")
	ErrNotInProgress    = errors.New("quiz session is not in progress")
	ErrAlreadyStarted   = errors.New("quiz session already started")
)

// Phase is where a session is in its lifecycle.
type Phase int

const (
	PhaseLoading    Phase = iota // Waiting for quiz data
	PhaseInProgress              // Question shown, timer running
	PhaseRevealed                // Correct answer and explanation shown
	PhaseFinished                // Last question acknowledged
	PhaseErrored                 // Could not start
)

func (p Phase) String() string {
	switch p {
	case PhaseLoading:
		return "loading"
	case PhaseInProgress:
		return "in_progress"
	case PhaseRevealed:
		return "revealed"
	case PhaseFinished:
		return "finished"
	case PhaseErrored:
		return "errored"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

func (p Phase) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

func (p *Phase) UnmarshalText(text []byte) error {
	for _, candidate := range []Phase{PhaseLoading, PhaseInProgress, PhaseRevealed, PhaseFinished, PhaseErrored} {
		if candidate.String() == string(text) {
			*p = candidate
			return nil
		}
	}
	return fmt.Errorf("unknown phase %q", text)
}

// Terminal reports whether no further transitions are possible.
func (p Phase) Terminal() bool {
	return p == PhaseFinished || p == PhaseErrored
}

// Result is the verdict for one question.
type Result struct {
	QuestionID int  `json:"question_id"`
	Position   int  `json:"position"`
	Selected   *int `json:"selected"`
	Correct    bool `json:"correct"`
	TimedOut   bool `json:"timed_out"`
	Points     int  `json:"points"`

	// ResponseTime is the number of time units used before submitting.
	ResponseTime int `json:"response_time"`
}

// Reporter is told about session milestones. Calls happen synchronously
// inside the controller operation, so implementations must not block.
type Reporter interface {
	QuizStarted(quiz models.Quiz, questions int)
	AnswerSubmitted(q models.Question, r Result)
	QuizFinished(score, maxScore int)
}

type Options struct {
	TimeLimit int
	Reporter  Reporter
}

// Controller drives one quiz attempt. It is not safe for concurrent use:
// callers serialise user actions and timer ticks themselves.
type Controller struct {
	timeLimit int
	reporter  Reporter

	quiz      models.Quiz
	questions []models.Question
	phase     Phase
	position  int
	selected  *int
	remaining int
	score     int
	maxScore  int
	results   []Result
}

func NewController(opts Options) *Controller {
	if opts.TimeLimit <= 0 {
		opts.TimeLimit = DefaultTimeLimit
	}
	return &Controller{
		timeLimit: opts.TimeLimit,
		reporter:  opts.Reporter,
		phase:     PhaseLoading,
	}
}

// Start fixes the question order and shows the first question. An empty or
// invalid question list leaves the controller in PhaseErrored, from which
// Start may be called again.
func (c *Controller) Start(quiz models.Quiz, questions []models.Question) error {
	if c.phase != PhaseLoading && c.phase != PhaseErrored {
		return ErrAlreadyStarted
	}

	if err := validateQuestions(quiz, questions); err != nil {
		c.phase = PhaseErrored
		return err
	}

	ordered := make([]models.Question, len(questions))
	copy(ordered, questions)
	for i := range ordered {
		ordered[i].Options = append([]string(nil), ordered[i].Options...)
	}
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Position < ordered[j].Position
	})

	maxScore := 0
	for _, q := range ordered {
		maxScore += q.Points
	}

	c.quiz = quiz
	c.questions = ordered
	c.position = 0
	c.selected = nil
	c.remaining = c.timeLimit
	c.score = 0
	c.maxScore = maxScore
	c.results = make([]Result, 0, len(ordered))
	c.phase = PhaseInProgress

	if c.reporter != nil {
		c.reporter.QuizStarted(quiz, len(ordered))
	}
	return nil
}

func validateQuestions(quiz models.Quiz, questions []models.Question) error {
	if len(questions) == 0 {
		return ErrEmptyQuiz
	}
	for i := range questions {
		q := &questions[i]
		if q.QuizID != 0 && quiz.ID != 0 && q.QuizID != quiz.ID {
			return fmt.Errorf("%w: question %d has quiz %d, want %d", ErrQuestionMismatch, q.ID, q.QuizID, quiz.ID)
		}
		if err := q.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// SelectAnswer records the learner's current choice; a later call replaces it.
func (c *Controller) SelectAnswer(index int) error {
	switch c.phase {
	case PhaseInProgress:
	case PhaseRevealed:
		return ErrAlreadyRevealed
	default:
		return ErrNotInProgress
	}

	q := c.questions[c.position]
	if index < 0 || index >= len(q.Options) {
		return fmt.Errorf("%w: %d not in [0,%d)", ErrAnswerOutOfRange, index, len(q.Options))
	}

	c.selected = &index
	return nil
}

// Submit is the learner-initiated submission. Without a selection it fails
// with ErrNoSelection and changes nothing; only timer expiry submits blank.
func (c *Controller) Submit() (Result, error) {
	switch c.phase {
	case PhaseInProgress:
	case PhaseRevealed:
		return Result{}, ErrAlreadyRevealed
	default:
		return Result{}, ErrNotInProgress
	}

	if c.selected == nil {
		return Result{}, ErrNoSelection
	}
	return c.reveal(false), nil
}

// Tick advances the countdown by one unit. When it reaches zero the current
// question is submitted with whatever is selected, possibly nothing. Tick
// returns true when it caused that submission.
func (c *Controller) Tick() bool {
	if c.phase != PhaseInProgress {
		return false
	}

	if c.remaining > 0 {
		c.remaining--
	}
	if c.remaining > 0 {
		return false
	}

	c.reveal(true)
	return true
}

func (c *Controller) reveal(timedOut bool) Result {
	q := c.questions[c.position]

	r := Result{
		QuestionID:   q.ID,
		Position:     c.position,
		TimedOut:     timedOut,
		ResponseTime: c.timeLimit - c.remaining,
	}
	if c.selected != nil {
		sel := *c.selected
		r.Selected = &sel
		r.Correct = sel == q.CorrectAnswerIndex
	}
	if r.Correct {
		r.Points = q.Points
		c.score += q.Points
	}

	c.results = append(c.results, r)
	c.phase = PhaseRevealed

	if c.reporter != nil {
		c.reporter.AnswerSubmitted(q, r)
	}
	return r
}

// Advance moves past a revealed question, or finishes after the last one.
func (c *Controller) Advance() error {
	switch c.phase {
	case PhaseRevealed:
	case PhaseInProgress:
		return ErrNotRevealed
	default:
		return ErrNotInProgress
	}

	if c.position+1 >= len(c.questions) {
		c.phase = PhaseFinished
		if c.reporter != nil {
			c.reporter.QuizFinished(c.score, c.maxScore)
		}
		return nil
	}

	c.position++
	c.selected = nil
	c.remaining = c.timeLimit
	c.phase = PhaseInProgress
	return nil
}

func (c *Controller) Phase() Phase { return c.phase }

func (c *Controller) Score() int { return c.score }

// Quiz returns the quiz the session was started with.
func (c *Controller) Quiz() models.Quiz { return c.quiz }
