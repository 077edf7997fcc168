package worker

import (
	"context"
	"errors"
	"log"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"roadsafe-quiz/internal/auth"
	"roadsafe-quiz/internal/models"
	"roadsafe-quiz/internal/services"
)

const maxAttempts = 3

// Submitter delivers one answer to the backend. *services.APIClient
// satisfies it.
type Submitter interface {
	SubmitAnswer(ctx context.Context, sub models.AnswerSubmission) (*models.AnswerRecord, error)
}

// Job is one submission plus the learner it is sent on behalf of.
type Job struct {
	models.SubmissionJob
	Auth auth.Context
}

// DeliveryFunc is told about every job that reached a final outcome.
type DeliveryFunc func(job Job, rec *models.AnswerRecord, err error)

type Options struct {
	Workers     int
	QueueSize   int
	RetryBase   time.Duration
	Timeout     time.Duration
	OnDelivered DeliveryFunc
}

type Stats struct {
	Enqueued  int64 `json:"enqueued"`
	Delivered int64 `json:"delivered"`
	Retried   int64 `json:"retried"`
	Failed    int64 `json:"failed"`
	Dropped   int64 `json:"dropped"`
}

// Pool delivers answer submissions in the background so a slow backend
// never holds up a quiz session.
type Pool struct {
	submitter Submitter
	opts      Options
	jobs      chan Job
	stopChan  chan struct{}
	wg        sync.WaitGroup

	mu      sync.Mutex
	started bool
	stopped bool

	enqueued  atomic.Int64
	delivered atomic.Int64
	retried   atomic.Int64
	failed    atomic.Int64
	dropped   atomic.Int64
}

func NewPool(submitter Submitter, opts Options) *Pool {
	if opts.Workers <= 0 {
		opts.Workers = 2
	}
	if opts.QueueSize <= 0 {
		opts.QueueSize = 256
	}
	if opts.RetryBase <= 0 {
		opts.RetryBase = time.Second
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 15 * time.Second
	}
	return &Pool{
		submitter: submitter,
		opts:      opts,
		jobs:      make(chan Job, opts.QueueSize),
		stopChan:  make(chan struct{}),
	}
}

func (p *Pool) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.started || p.stopped {
		return
	}
	p.started = true

	for i := 0; i < p.opts.Workers; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}

	log.Printf("Started %d submission workers", p.opts.Workers)
}

// Stop signals the workers and waits for in-flight deliveries. Queued jobs
// that have not been picked up are discarded.
func (p *Pool) Stop() {
	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		return
	}
	p.stopped = true
	close(p.stopChan)
	p.mu.Unlock()

	p.wg.Wait()
}

// Enqueue never blocks. It returns false when the job was dropped because
// the queue is full or the pool is stopped.
func (p *Pool) Enqueue(job Job) bool {
	if job.EnqueuedAt.IsZero() {
		job.EnqueuedAt = time.Now()
	}
	if !p.push(job) {
		p.dropped.Add(1)
		log.Printf("Submission queue full, dropping answer for question %d (session %s)", job.Submission.QuestionID, job.SessionID)
		return false
	}
	p.enqueued.Add(1)
	return true
}

func (p *Pool) push(job Job) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.stopped {
		return false
	}
	select {
	case p.jobs <- job:
		return true
	default:
		return false
	}
}

func (p *Pool) Stats() Stats {
	return Stats{
		Enqueued:  p.enqueued.Load(),
		Delivered: p.delivered.Load(),
		Retried:   p.retried.Load(),
		Failed:    p.failed.Load(),
		Dropped:   p.dropped.Load(),
	}
}

// Drain waits until every enqueued job has been delivered or has failed for
// good, or until ctx is done.
func (p *Pool) Drain(ctx context.Context) error {
	t := time.NewTicker(50 * time.Millisecond)
	defer t.Stop()

	for {
		if p.enqueued.Load() <= p.delivered.Load()+p.failed.Load() {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
		}
	}
}

func (p *Pool) worker(id int) {
	defer p.wg.Done()
	for {
		select {
		case <-p.stopChan:
			log.Printf("Submission worker %d shutting down", id)
			return
		case job := <-p.jobs:
			p.process(job)
		}
	}
}

func (p *Pool) process(job Job) {
	ctx, cancel := context.WithTimeout(auth.WithContext(context.Background(), job.Auth), p.opts.Timeout)
	defer cancel()

	rec, err := p.submitter.SubmitAnswer(ctx, job.Submission)
	if err != nil {
		p.handleFailure(job, err)
		return
	}

	p.delivered.Add(1)
	if p.opts.OnDelivered != nil {
		p.opts.OnDelivered(job, rec, nil)
	}
}

func (p *Pool) handleFailure(job Job, err error) {
	job.RetryCount++

	if job.RetryCount < maxAttempts && retryable(err) {
		backoff := time.Duration(1<<uint(job.RetryCount)) * p.opts.RetryBase
		log.Printf("Submission for question %d failed (attempt %d): %v, retrying in %v", job.Submission.QuestionID, job.RetryCount, err, backoff)
		p.retried.Add(1)

		time.AfterFunc(backoff, func() {
			if !p.push(job) {
				p.markFailed(job, err)
			}
		})
		return
	}

	p.markFailed(job, err)
}

func (p *Pool) markFailed(job Job, err error) {
	p.failed.Add(1)
	log.Printf("Submission for question %d failed permanently: %v", job.Submission.QuestionID, err)
	if p.opts.OnDelivered != nil {
		p.opts.OnDelivered(job, nil, err)
	}
}

// retryable reports whether a later attempt could succeed. Rejected tokens
// and other client errors will not change on retry.
func retryable(err error) bool {
	if errors.Is(err, services.ErrUnauthorized) {
		return false
	}
	var apiErr *services.APIError
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.StatusCode == http.StatusTooManyRequests, apiErr.StatusCode == http.StatusRequestTimeout:
			return true
		case apiErr.StatusCode >= 400 && apiErr.StatusCode < 500:
			return false
		}
	}
	return true
}
