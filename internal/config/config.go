package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// Server
	Port string
	Env  string

	// Backend endpoints
	APIURL     string
	WSURL      string
	WSEndpoint string

	// Redis (empty disables the quiz cache)
	RedisURL         string
	QuizCacheTTLSecs int

	// Quiz sessions
	QuestionTimeLimit int
	TimerTickMs       int
	SessionIdleSecs   int

	// Message channel
	WSReconnectDelayMs     int
	WSMaxReconnectAttempts int
	WSWriteTimeoutMs       int

	// Submission delivery
	SubmissionWorkers int

	// Language
	DefaultLanguage string

	// Terminal client
	AccessToken string

	// Frontend
	FrontendURL string
}

func Load() *Config {
	// Load .env file if it exists
	godotenv.Load()

	cfg := &Config{
		Port:                   getEnvOrDefault("PORT", "8080"),
		Env:                    getEnvOrDefault("ENV", "development"),
		APIURL:                 strings.TrimRight(getEnvOrDefault("API_URL", "http://localhost:8000"), "/"),
		WSURL:                  strings.TrimRight(getEnvOrDefault("WS_URL", "ws://localhost:8000/ws"), "/"),
		WSEndpoint:             strings.Trim(getEnvOrDefault("WS_ENDPOINT", "quiz"), "/"),
		RedisURL:               getEnvOrDefault("REDIS_URL", ""),
		QuizCacheTTLSecs:       getEnvAsIntOrDefault("QUIZ_CACHE_TTL_SECONDS", 300),
		QuestionTimeLimit:      getEnvAsIntOrDefault("QUESTION_TIME_LIMIT", 30),
		TimerTickMs:            getEnvAsIntOrDefault("TIMER_TICK_MS", 1000),
		SessionIdleSecs:        getEnvAsIntOrDefault("SESSION_IDLE_TIMEOUT_SECONDS", 900),
		WSReconnectDelayMs:     getEnvAsIntOrDefault("WS_RECONNECT_DELAY_MS", 1000),
		WSMaxReconnectAttempts: getEnvAsIntOrDefault("WS_MAX_RECONNECT_ATTEMPTS", 5),
		WSWriteTimeoutMs:       getEnvAsIntOrDefault("WS_WRITE_TIMEOUT_MS", 10000),
		SubmissionWorkers:      getEnvAsIntOrDefault("SUBMISSION_WORKERS", 2),
		DefaultLanguage:        getEnvOrDefault("DEFAULT_LANGUAGE", "english"),
		AccessToken:            getEnvOrDefault("ACCESS_TOKEN", ""),
		FrontendURL:            getEnvOrDefault("FRONTEND_URL", "http://localhost:5173"),
	}

	return cfg
}

// TimerTick is the duration of one countdown unit.
func (c *Config) TimerTick() time.Duration {
	return time.Duration(c.TimerTickMs) * time.Millisecond
}

func (c *Config) ReconnectDelay() time.Duration {
	return time.Duration(c.WSReconnectDelayMs) * time.Millisecond
}

// SessionIdleTimeout is how long a session may sit without input before it
// is discarded.
func (c *Config) SessionIdleTimeout() time.Duration {
	return time.Duration(c.SessionIdleSecs) * time.Second
}

func (c *Config) WriteTimeout() time.Duration {
	return time.Duration(c.WSWriteTimeoutMs) * time.Millisecond
}

func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.QuizCacheTTLSecs) * time.Second
}

// ChannelURL is the full message channel address, e.g. ws://localhost:8000/ws/quiz.
func (c *Config) ChannelURL() string {
	if c.WSEndpoint == "" {
		return c.WSURL
	}
	return c.WSURL + "/" + c.WSEndpoint
}

func getEnvOrDefault(key, defaultVal string) string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func getEnvAsIntOrDefault(key string, defaultVal int) int {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}
	return n
}
