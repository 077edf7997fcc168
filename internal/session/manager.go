package session

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"roadsafe-quiz/internal/auth"
	"roadsafe-quiz/internal/channel"
	"roadsafe-quiz/internal/quiz"
	"roadsafe-quiz/internal/services"
)

var (
	ErrSessionNotFound = errors.New("quiz session not found")
	ErrInvalidMode     = errors.New("unknown session mode")
	ErrModeUnavailable = errors.New("session mode is not available")
)

// Listener observes every session. Calls are made with the session lock
// held, so implementations must not block or call back into the session.
type Listener interface {
	SessionChanged(id string, st quiz.State)
	SessionClosed(id string)
}

// ChannelFactory opens a message channel for one learner. The session owns
// the returned channel and disconnects it on close.
type ChannelFactory func(ctx context.Context, ac auth.Context) (MessageChannel, error)

// DefaultIdleTimeout is how long a session may go without an adapter call
// before it is discarded.
const DefaultIdleTimeout = 15 * time.Minute

type Options struct {
	TimeLimit   int
	TimerTick   time.Duration
	IdleTimeout time.Duration
	Submissions Enqueuer
	Channels    ChannelFactory
	Listener    Listener
}

type Manager struct {
	source services.QuizSource
	opts   Options

	mu       sync.RWMutex
	sessions map[string]*Session
}

func NewManager(source services.QuizSource, opts Options) *Manager {
	if opts.TimeLimit <= 0 {
		opts.TimeLimit = quiz.DefaultTimeLimit
	}
	if opts.TimerTick <= 0 {
		opts.TimerTick = time.Second
	}
	if opts.IdleTimeout <= 0 {
		opts.IdleTimeout = DefaultIdleTimeout
	}
	return &Manager{
		source:   source,
		opts:     opts,
		sessions: make(map[string]*Session),
	}
}

// Create loads the quiz and its questions, then starts a session on them.
// A session that fails to start is never registered.
func (m *Manager) Create(ctx context.Context, ac auth.Context, quizID int, mode Mode) (*Session, error) {
	if !mode.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidMode, mode)
	}
	if mode == ModeChannel && m.opts.Channels == nil {
		return nil, fmt.Errorf("%w: %s", ErrModeUnavailable, mode)
	}

	ctx = auth.WithContext(ctx, ac)
	q, err := m.source.GetQuiz(ctx, quizID)
	if err != nil {
		return nil, err
	}
	questions, err := m.source.GetQuizQuestions(ctx, quizID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	s := &Session{
		ID:         uuid.NewString(),
		QuizID:     quizID,
		Mode:       mode,
		CreatedAt:  now,
		owner:      ac.UserID,
		lastActive: now,
		stop:       make(chan struct{}),
		done:       make(chan struct{}),
	}
	id := s.ID
	if l := m.opts.Listener; l != nil {
		s.onState = func(st quiz.State) { l.SessionChanged(id, st) }
	}
	s.onIdle = func() {
		if m.discard(id) {
			log.Printf("Session %s expired after %v idle", id, m.opts.IdleTimeout)
		}
	}

	var reporter quiz.Reporter
	switch mode {
	case ModeChannel:
		ch, err := m.opts.Channels(ctx, ac)
		if err != nil {
			return nil, fmt.Errorf("failed to open message channel: %w", err)
		}
		s.cleanup = append(s.cleanup, ch.Disconnect)
		reporter = NewChannelReporter(s.ID, ch)
	default:
		if m.opts.Submissions != nil {
			reporter = NewAPIReporter(s.ID, ac, m.opts.Submissions)
		}
	}

	s.ctrl = quiz.NewController(quiz.Options{TimeLimit: m.opts.TimeLimit, Reporter: reporter})
	if err := s.ctrl.Start(*q, questions); err != nil {
		for _, fn := range s.cleanup {
			fn()
		}
		return nil, fmt.Errorf("failed to start quiz %d: %w", quizID, err)
	}

	m.mu.Lock()
	m.sessions[s.ID] = s
	m.mu.Unlock()

	s.emit(s.ctrl.Snapshot())
	go s.run(m.opts.TimerTick, m.opts.IdleTimeout)

	log.Printf("Session %s created for quiz %d (%s)", s.ID, quizID, mode)
	return s, nil
}

// Get returns the session if ac may see it. Sessions owned by another
// learner are reported as not found.
func (m *Manager) Get(ac auth.Context, id string) (*Session, error) {
	m.mu.RLock()
	s, ok := m.sessions[id]
	m.mu.RUnlock()

	if !ok || !s.visibleTo(ac) {
		return nil, ErrSessionNotFound
	}
	return s, nil
}

func (m *Manager) Select(ac auth.Context, id string, index int) (quiz.State, error) {
	s, err := m.Get(ac, id)
	if err != nil {
		return quiz.State{}, err
	}
	return s.Select(index)
}

func (m *Manager) Submit(ac auth.Context, id string) (quiz.State, error) {
	s, err := m.Get(ac, id)
	if err != nil {
		return quiz.State{}, err
	}
	return s.Submit()
}

// Advance moves the session on. Once the last question is acknowledged the
// finished state is published and the session is discarded.
func (m *Manager) Advance(ac auth.Context, id string) (quiz.State, error) {
	s, err := m.Get(ac, id)
	if err != nil {
		return quiz.State{}, err
	}
	st, err := s.Advance()
	if err == nil && st.Phase == quiz.PhaseFinished {
		if m.discard(id) {
			log.Printf("Session %s finished and discarded", id)
		}
	}
	return st, err
}

// List returns the sessions owned by ac, oldest first. Anonymous callers own
// nothing.
func (m *Manager) List(ac auth.Context) []*Session {
	if ac.UserID == "" {
		return []*Session{}
	}
	out := make([]*Session, 0)
	for _, s := range m.all() {
		if s.owner == ac.UserID {
			out = append(out, s)
		}
	}
	return out
}

// Close discards a session, stopping its timer and channel.
func (m *Manager) Close(ac auth.Context, id string) error {
	if _, err := m.Get(ac, id); err != nil {
		return err
	}
	if !m.discard(id) {
		return ErrSessionNotFound
	}
	log.Printf("Session %s closed", id)
	return nil
}

func (m *Manager) CloseAll() {
	for _, s := range m.all() {
		m.discard(s.ID)
	}
}

// discard unregisters and releases a session. It reports false when the
// session was already gone.
func (m *Manager) discard(id string) bool {
	m.mu.Lock()
	s, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()

	if !ok {
		return false
	}

	s.close()
	if m.opts.Listener != nil {
		m.opts.Listener.SessionClosed(id)
	}
	return true
}

func (m *Manager) all() []*Session {
	m.mu.RLock()
	out := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		out = append(out, s)
	}
	m.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// DialChannels opens one *channel.Channel per session, carrying that
// session's learner identity.
func DialChannels(opts channel.Options, endpoint string) ChannelFactory {
	return func(ctx context.Context, ac auth.Context) (MessageChannel, error) {
		o := opts
		o.Auth = ac
		ch := channel.New(o)
		if err := ch.Connect(ctx, endpoint); err != nil {
			return nil, err
		}
		return ch, nil
	}
}
