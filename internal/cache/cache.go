package cache

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"roadsafe-quiz/internal/models"
	"roadsafe-quiz/internal/services"
)

// Entry is everything a session needs to start one quiz.
type Entry struct {
	Quiz      models.Quiz       `json:"quiz"`
	Questions []models.Question `json:"questions"`
	CachedAt  time.Time         `json:"cached_at"`
}

type QuizCache interface {
	Get(ctx context.Context, quizID int) (*Entry, bool)
	Set(ctx context.Context, e Entry) error
}

// CachedSource is a read-through QuizSource. Cache failures are logged and
// fall through to the backend.
type CachedSource struct {
	source services.QuizSource
	cache  QuizCache
}

func NewCachedSource(source services.QuizSource, cache QuizCache) *CachedSource {
	return &CachedSource{source: source, cache: cache}
}

// Load returns the quiz and its questions, fetching both on a miss.
func (s *CachedSource) Load(ctx context.Context, quizID int) (*Entry, error) {
	if e, ok := s.cache.Get(ctx, quizID); ok {
		return e, nil
	}

	quiz, err := s.source.GetQuiz(ctx, quizID)
	if err != nil {
		return nil, err
	}
	questions, err := s.source.GetQuizQuestions(ctx, quizID)
	if err != nil {
		return nil, err
	}

	e := Entry{Quiz: *quiz, Questions: questions, CachedAt: time.Now()}
	if err := s.cache.Set(ctx, e); err != nil {
		log.Printf("Failed to cache quiz %d: %v", quizID, err)
	}
	return &e, nil
}

func (s *CachedSource) GetQuiz(ctx context.Context, quizID int) (*models.Quiz, error) {
	e, err := s.Load(ctx, quizID)
	if err != nil {
		return nil, err
	}
	quiz := e.Quiz
	return &quiz, nil
}

func (s *CachedSource) GetQuizQuestions(ctx context.Context, quizID int) ([]models.Question, error) {
	e, err := s.Load(ctx, quizID)
	if err != nil {
		return nil, err
	}
	return append([]models.Question(nil), e.Questions...), nil
}

var errZeroQuiz = errors.New("cannot cache a quiz without an id")

// MemoryQuizCache keeps up to MaxEntries quizzes in process, evicting the
// oldest entry when full.
type MemoryQuizCache struct {
	ttl        time.Duration
	maxEntries int
	now        func() time.Time

	mu      sync.Mutex
	entries map[int]Entry
	order   []int
}

func NewMemoryQuizCache(ttl time.Duration, maxEntries int) *MemoryQuizCache {
	if maxEntries <= 0 {
		maxEntries = 128
	}
	return &MemoryQuizCache{
		ttl:        ttl,
		maxEntries: maxEntries,
		now:        time.Now,
		entries:    make(map[int]Entry),
	}
}

func (c *MemoryQuizCache) Get(_ context.Context, quizID int) (*Entry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[quizID]
	if !ok {
		return nil, false
	}
	if c.ttl > 0 && c.now().Sub(e.CachedAt) >= c.ttl {
		c.remove(quizID)
		return nil, false
	}
	e.Questions = append([]models.Question(nil), e.Questions...)
	return &e, true
}

func (c *MemoryQuizCache) Set(_ context.Context, e Entry) error {
	if e.Quiz.ID == 0 {
		return errZeroQuiz
	}
	if e.CachedAt.IsZero() {
		e.CachedAt = c.now()
	}
	e.Questions = append([]models.Question(nil), e.Questions...)

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[e.Quiz.ID]; exists {
		c.remove(e.Quiz.ID)
	}
	for len(c.order) >= c.maxEntries {
		c.remove(c.order[0])
	}
	c.entries[e.Quiz.ID] = e
	c.order = append(c.order, e.Quiz.ID)
	return nil
}

func (c *MemoryQuizCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *MemoryQuizCache) remove(quizID int) {
	delete(c.entries, quizID)
	for i, id := range c.order {
		if id == quizID {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
}

func cacheKey(quizID int) string {
	return fmt.Sprintf("quiz:%d", quizID)
}
