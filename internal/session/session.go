package session

import (
	"sync"
	"time"

	"roadsafe-quiz/internal/auth"
	"roadsafe-quiz/internal/quiz"
)

type Mode string

const (
	// ModeRequest reports answers to the backend over plain HTTP.
	ModeRequest Mode = "request"
	// ModeChannel reports answers over the realtime message channel.
	ModeChannel Mode = "channel"
)

func (m Mode) Valid() bool {
	return m == ModeRequest || m == ModeChannel
}

// View is the adapter-facing description of a session.
type View struct {
	ID        string     `json:"id"`
	QuizID    int        `json:"quiz_id"`
	Mode      Mode       `json:"mode"`
	CreatedAt time.Time  `json:"created_at"`
	State     quiz.State `json:"state"`
}

// Session wraps one controller. Adapter calls and timer ticks are
// serialised on mu, and every change is passed to the listener while mu is
// held so observers see states in order.
type Session struct {
	ID        string
	QuizID    int
	Mode      Mode
	CreatedAt time.Time

	// owner is the learner's user id; empty for anonymous sessions.
	owner string

	mu         sync.Mutex
	ctrl       *quiz.Controller
	onState    func(quiz.State)
	lastActive time.Time

	// onIdle runs on its own goroutine once the session has seen no adapter
	// call for the idle timeout.
	onIdle func()

	stop      chan struct{}
	done      chan struct{}
	closeOnce sync.Once
	cleanup   []func()
}

func (s *Session) State() quiz.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ctrl.Snapshot()
}

func (s *Session) View() View {
	return View{ID: s.ID, QuizID: s.QuizID, Mode: s.Mode, CreatedAt: s.CreatedAt, State: s.State()}
}

func (s *Session) Select(index int) (quiz.State, error) {
	return s.apply(func(c *quiz.Controller) error { return c.SelectAnswer(index) })
}

func (s *Session) Submit() (quiz.State, error) {
	return s.apply(func(c *quiz.Controller) error {
		_, err := c.Submit()
		return err
	})
}

func (s *Session) Advance() (quiz.State, error) {
	return s.apply(func(c *quiz.Controller) error { return c.Advance() })
}

// visibleTo reports whether ac may see the session. Anonymous sessions are
// reachable by anyone holding the id.
func (s *Session) visibleTo(ac auth.Context) bool {
	return s.owner == "" || s.owner == ac.UserID
}

func (s *Session) apply(op func(*quiz.Controller) error) (quiz.State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.lastActive = time.Now()
	if err := op(s.ctrl); err != nil {
		return s.ctrl.Snapshot(), err
	}
	st := s.ctrl.Snapshot()
	s.emit(st)
	return st, nil
}

func (s *Session) emit(st quiz.State) {
	if s.onState != nil {
		s.onState(st)
	}
}

type tickResult int

const (
	tickContinue tickResult = iota
	tickIdle
)

// tick runs one countdown step. Sessions that are not in progress keep
// ticking only to notice when they have gone idle.
func (s *Session) tick(idle time.Duration) tickResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	if idle > 0 && time.Since(s.lastActive) >= idle {
		return tickIdle
	}
	if s.ctrl.Phase() != quiz.PhaseInProgress {
		return tickContinue
	}

	s.ctrl.Tick()
	s.emit(s.ctrl.Snapshot())
	return tickContinue
}

func (s *Session) run(interval, idle time.Duration) {
	defer close(s.done)

	t := time.NewTicker(interval)
	defer t.Stop()

	for {
		select {
		case <-s.stop:
			return
		case <-t.C:
			if s.tick(idle) == tickIdle {
				if s.onIdle != nil {
					go s.onIdle()
				}
				return
			}
		}
	}
}

// close stops the timer and releases per-session resources. Safe to call
// more than once.
func (s *Session) close() {
	s.closeOnce.Do(func() {
		close(s.stop)
		<-s.done
		for _, fn := range s.cleanup {
			fn()
		}
	})
}
