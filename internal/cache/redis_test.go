package cache

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"roadsafe-quiz/internal/database"
	"roadsafe-quiz/internal/models"
)

func TestRedisQuizCache_RoundTrip(t *testing.T) {
	url := os.Getenv("TEST_REDIS_URL")
	if url == "" {
		t.Skip("TEST_REDIS_URL not set")
	}

	client, err := database.NewRedisClient(url)
	require.NoError(t, err)
	defer client.Close()

	ctx := context.Background()
	c := NewRedisQuizCache(client, time.Minute)
	const id = 987654
	defer c.Invalidate(ctx, id)

	_, ok := c.Get(ctx, id)
	assert.False(t, ok)

	require.NoError(t, c.Set(ctx, Entry{
		Quiz:      models.Quiz{ID: id, Title: "Roundabouts"},
		Questions: []models.Question{{ID: 1, QuizID: id, Options: []string{"a", "b"}, Points: 5}},
	}))

	e, ok := c.Get(ctx, id)
	require.True(t, ok)
	assert.Equal(t, "Roundabouts", e.Quiz.Title)
	assert.Len(t, e.Questions, 1)

	ttl, err := client.TTL(ctx, cacheKey(id)).Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0))

	require.NoError(t, c.Invalidate(ctx, id))
	_, ok = c.Get(ctx, id)
	assert.False(t, ok)
}
