package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"roadsafe-quiz/internal/handlers"
	"roadsafe-quiz/internal/middleware"
)

type Handlers struct {
	Auth    *handlers.AuthHandler
	Quiz    *handlers.QuizHandler
	Session *handlers.SessionHandler
	Catalog *handlers.CatalogHandler
	Admin   *handlers.AdminHandler
}

func New(authMW *middleware.Auth, h Handlers, sessionLimiter *middleware.RateLimiter, frontendURL string) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.CORS(frontendURL))

	if sessionLimiter == nil {
		// Session creation rate limiter (30 req/min per IP)
		sessionLimiter = middleware.NewRateLimiter(30, time.Minute)
	}

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(authMW.Middleware)

		r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"status":"ok"}`))
		})

		// ──── Account ────
		r.Route("/auth", func(r chi.Router) {
			r.Post("/login", h.Auth.Login)
			r.Get("/me", h.Auth.Me)
		})

		// ──── Quizzes ────
		r.Route("/quizzes", func(r chi.Router) {
			r.Get("/", h.Quiz.List)
			r.Get("/{id}", h.Quiz.Get)
		})

		// ──── Sessions ────
		r.Route("/sessions", func(r chi.Router) {
			r.With(sessionLimiter.Middleware).Post("/", h.Session.Create)
			r.Get("/", h.Session.List)
			r.Get("/{id}", h.Session.Get)
			r.Post("/{id}/select", h.Session.Select)
			r.Post("/{id}/submit", h.Session.Submit)
			r.Post("/{id}/advance", h.Session.Advance)
			r.Delete("/{id}", h.Session.Delete)
			r.Get("/{id}/ws", h.Session.WebSocket)
		})

		// ──── Catalog ────
		r.Route("/courses", func(r chi.Router) {
			r.Get("/", h.Catalog.ListCourses)
			r.Get("/{id}", h.Catalog.GetCourse)
			r.Get("/{id}/modules", h.Catalog.ListModules)
			r.With(middleware.RequireAuth).Post("/{id}/enroll", h.Catalog.Enroll)
			r.With(middleware.RequireAuth).Get("/{id}/progress", h.Catalog.CourseProgress)
		})
		r.Get("/modules/{id}/lessons", h.Catalog.ListLessons)
		r.Get("/lessons/{id}", h.Catalog.GetLesson)
		r.Post("/tts", h.Catalog.Speech)

		// ──── Progress ────
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAuth)
			r.Post("/lessons/{id}/progress", h.Catalog.UpdateLessonProgress)
			r.Get("/progress", h.Catalog.ListProgress)
			r.Get("/enrollments", h.Catalog.ListEnrollments)
		})

		// ──── Admin ────
		r.Route("/admin", func(r chi.Router) {
			r.Use(middleware.RequireAdmin)
			r.Post("/pdf", h.Admin.UploadPDF)

			r.Get("/users", h.Admin.ListUsers)
			r.Put("/users/{id}", h.Admin.UpdateUser)
			r.Delete("/users/{id}", h.Admin.DeleteUser)

			r.Route("/analytics", func(r chi.Router) {
				r.Get("/dashboard", h.Admin.DashboardStats)
				r.Get("/users", h.Admin.UserAnalytics)
				r.Get("/courses", h.Admin.CourseAnalytics)
				r.Get("/quizzes", h.Admin.QuizAnalytics)
				r.Get("/user-count", h.Admin.UserCount)
			})

			r.Post("/courses", h.Admin.CreateCourse)
			r.Put("/courses/{id}", h.Admin.UpdateCourse)
			r.Delete("/courses/{id}", h.Admin.DeleteCourse)
			r.Post("/courses/{id}/modules", h.Admin.CreateModule)
			r.Put("/modules/{id}", h.Admin.UpdateModule)
			r.Post("/modules/{id}/lessons", h.Admin.CreateLesson)
			r.Put("/lessons/{id}", h.Admin.UpdateLesson)
			r.Delete("/lessons/{id}", h.Admin.DeleteLesson)
		})
	})

	return r
}
