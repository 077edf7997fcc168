package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"roadsafe-quiz/internal/auth"
	"roadsafe-quiz/internal/cache"
	"roadsafe-quiz/internal/channel"
	"roadsafe-quiz/internal/config"
	"roadsafe-quiz/internal/database"
	"roadsafe-quiz/internal/handlers"
	"roadsafe-quiz/internal/middleware"
	"roadsafe-quiz/internal/models"
	"roadsafe-quiz/internal/router"
	"roadsafe-quiz/internal/services"
	"roadsafe-quiz/internal/session"
	"roadsafe-quiz/internal/websocket"
	"roadsafe-quiz/internal/worker"
)

func main() {
	log.Println("🚀 Starting Road Safety Quiz adapter...")

	// ──── Step 1: Load Environment Variables ────
	cfg := config.Load()
	log.Println("✓ Environment variables loaded")

	// ──── Step 2: Quiz Cache (Redis when configured) ────
	var quizCache cache.QuizCache
	if cfg.RedisURL != "" {
		rdb, err := database.NewRedisClient(cfg.RedisURL)
		if err != nil {
			log.Fatalf("✗ Redis connection failed: %v", err)
		}
		defer rdb.Close()
		quizCache = cache.NewRedisQuizCache(rdb, cfg.CacheTTL())
		log.Println("✓ Redis connected, quiz cache enabled")
	} else {
		quizCache = cache.NewMemoryQuizCache(cfg.CacheTTL(), 0)
		log.Println("✓ In-memory quiz cache enabled")
	}

	// ──── Step 3: Backend Client ────
	api := services.NewAPIClient(cfg.APIURL, auth.Anonymous(cfg.DefaultLanguage))
	source := cache.NewCachedSource(api, quizCache)
	log.Printf("✓ Backend client ready (%s)", cfg.APIURL)

	// ──── Step 4: Start Submission Worker Pool ────
	submissions := worker.NewPool(api, worker.Options{
		Workers: cfg.SubmissionWorkers,
		OnDelivered: func(job worker.Job, rec *models.AnswerRecord, err error) {
			if err != nil {
				log.Printf("Answer for question %d in session %s lost: %v",
					job.Submission.QuestionID, job.SessionID, err)
			}
		},
	})
	submissions.Start()
	log.Printf("✓ Submission pool started (%d goroutines)", cfg.SubmissionWorkers)

	// ──── Step 5: Start WebSocket Hub ────
	wsHub := websocket.NewHub()
	log.Println("✓ WebSocket hub started")

	// ──── Step 6: Session Manager ────
	sessions := session.NewManager(source, session.Options{
		TimeLimit:   cfg.QuestionTimeLimit,
		TimerTick:   cfg.TimerTick(),
		IdleTimeout: cfg.SessionIdleTimeout(),
		Submissions: submissions,
		Channels: session.DialChannels(channel.Options{
			BaseURL:      cfg.WSURL,
			BaseDelay:    cfg.ReconnectDelay(),
			MaxAttempts:  cfg.WSMaxReconnectAttempts,
			WriteTimeout: cfg.WriteTimeout(),
		}, cfg.WSEndpoint),
		Listener: wsHub,
	})
	log.Printf("✓ Session manager ready (%d units per question, channel at %s)", cfg.QuestionTimeLimit, cfg.ChannelURL())

	// ──── Step 7: Start HTTP Server ────
	sessionLimiter := middleware.NewRateLimiter(30, time.Minute)
	r := router.New(
		middleware.NewAuth(cfg.DefaultLanguage),
		router.Handlers{
			Auth:    handlers.NewAuthHandler(api),
			Quiz:    handlers.NewQuizHandler(api),
			Session: handlers.NewSessionHandler(sessions, wsHub),
			Catalog: handlers.NewCatalogHandler(api),
			Admin:   handlers.NewAdminHandler(api),
		},
		sessionLimiter,
		cfg.FrontendURL,
	)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Println("Shutting down...")
		sessions.CloseAll()
		submissions.Stop()
		sessionLimiter.Stop()

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		server.Shutdown(ctx)
	}()

	log.Printf("✓ Quiz adapter ready on http://localhost:%s", cfg.Port)
	log.Printf("  API: http://localhost:%s/api/v1", cfg.Port)
	log.Printf("  WS:  ws://localhost:%s/api/v1/sessions/{id}/ws", cfg.Port)

	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		log.Fatalf("Server error: %v", err)
	}
}
