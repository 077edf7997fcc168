package session

import (
	"log"
	"sync"

	"roadsafe-quiz/internal/auth"
	"roadsafe-quiz/internal/channel"
	"roadsafe-quiz/internal/models"
	"roadsafe-quiz/internal/quiz"
	"roadsafe-quiz/internal/worker"
)

// Enqueuer accepts submissions for background delivery. *worker.Pool
// satisfies it.
type Enqueuer interface {
	Enqueue(job worker.Job) bool
}

// APIReporter queues every answered question for POST /api/quiz/submit.
// Questions that timed out with nothing selected have no answer to record
// and are skipped.
type APIReporter struct {
	sessionID string
	auth      auth.Context
	queue     Enqueuer
}

func NewAPIReporter(sessionID string, ac auth.Context, queue Enqueuer) *APIReporter {
	return &APIReporter{sessionID: sessionID, auth: ac, queue: queue}
}

func (r *APIReporter) QuizStarted(q models.Quiz, questions int) {
	log.Printf("Session %s: started quiz %d (%d questions)", r.sessionID, q.ID, questions)
}

func (r *APIReporter) AnswerSubmitted(q models.Question, res quiz.Result) {
	if res.Selected == nil {
		log.Printf("Session %s: question %d timed out unanswered", r.sessionID, q.ID)
		return
	}

	rt := res.ResponseTime
	r.queue.Enqueue(worker.Job{
		SubmissionJob: models.SubmissionJob{
			SessionID: r.sessionID,
			Submission: models.AnswerSubmission{
				QuestionID:      q.ID,
				UserAnswerIndex: *res.Selected,
				ResponseTime:    &rt,
			},
		},
		Auth: r.auth,
	})
}

func (r *APIReporter) QuizFinished(score, maxScore int) {
	log.Printf("Session %s: finished with %d/%d", r.sessionID, score, maxScore)
}

// MessageChannel is the part of *channel.Channel a session uses.
type MessageChannel interface {
	Subscribe(h channel.InboundHandler) []channel.Subscription
	StartQuiz(quizID int) error
	SubmitAnswer(questionID, answerIndex int, responseTime *int) error
	Disconnect()
}

// ChannelReporter mirrors the session over the message channel. The local
// verdict stays authoritative; backend verdicts that disagree are logged.
type ChannelReporter struct {
	sessionID string
	ch        MessageChannel

	mu        sync.Mutex
	verdict   map[int]bool
	disagreed []int
}

func NewChannelReporter(sessionID string, ch MessageChannel) *ChannelReporter {
	r := &ChannelReporter{sessionID: sessionID, ch: ch, verdict: make(map[int]bool)}
	ch.Subscribe(inbound{r})
	return r
}

func (r *ChannelReporter) QuizStarted(q models.Quiz, _ int) {
	if err := r.ch.StartQuiz(q.ID); err != nil {
		log.Printf("Session %s: start_quiz not sent: %v", r.sessionID, err)
	}
}

func (r *ChannelReporter) AnswerSubmitted(q models.Question, res quiz.Result) {
	if res.Selected == nil {
		return
	}

	r.mu.Lock()
	r.verdict[q.ID] = res.Correct
	r.mu.Unlock()

	rt := res.ResponseTime
	if err := r.ch.SubmitAnswer(q.ID, *res.Selected, &rt); err != nil {
		log.Printf("Session %s: submit_answer for question %d not sent: %v", r.sessionID, q.ID, err)
	}
}

func (r *ChannelReporter) QuizFinished(score, maxScore int) {
	log.Printf("Session %s: finished with %d/%d", r.sessionID, score, maxScore)
}

// disagreements returns the question ids whose backend verdict differed.
func (r *ChannelReporter) disagreements() []int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]int(nil), r.disagreed...)
}

// inbound receives server messages for a ChannelReporter. It is a separate
// type because quiz.Reporter and channel.InboundHandler share method names.
type inbound struct{ r *ChannelReporter }

func (in inbound) QuizStarted(m channel.QuizStarted) {
	log.Printf("Session %s: backend acknowledged quiz %d", in.r.sessionID, m.QuizID)
}

func (in inbound) AnswerResult(m channel.AnswerResult) {
	r := in.r
	r.mu.Lock()
	local, ok := r.verdict[m.QuestionID]
	if ok && local != m.IsCorrect {
		r.disagreed = append(r.disagreed, m.QuestionID)
	}
	r.mu.Unlock()

	if ok && local != m.IsCorrect {
		log.Printf("Session %s: backend verdict for question %d is %v, local verdict was %v", r.sessionID, m.QuestionID, m.IsCorrect, local)
	}
}

func (in inbound) Question(channel.QuestionMessage) {}

func (in inbound) Error(m channel.ErrorMessage) {
	log.Printf("Session %s: message channel error: %s", in.r.sessionID, m.Message)
}
