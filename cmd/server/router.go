package main

import (
	"database/sql"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/AhmedMotwaly/taskapp-3tier/internal/config"
	"github.com/AhmedMotwaly/taskapp-3tier/internal/handlers"
	"github.com/AhmedMotwaly/taskapp-3tier/internal/middleware"
	"github.com/AhmedMotwaly/taskapp-3tier/internal/repo"
	"github.com/AhmedMotwaly/taskapp-3tier/internal/session"
	"github.com/AhmedMotwaly/taskapp-3tier/internal/web"
)

// newRouter wires repositories, session manager, and handlers into the full
// route tree. Tests build the same router against a mock store.
func newRouter(db *sql.DB, cfg config.Config) chi.Router {
	sessions := session.NewManager(cfg.SessionSecret)
	userRepo := repo.NewUserRepo(db)
	taskRepo := repo.NewTaskRepo(db)

	authHandler := &handlers.AuthHandler{Users: userRepo, Sessions: sessions}
	pageHandler := &handlers.PageHandler{Sessions: sessions}
	taskHandler := &handlers.TaskHandler{Repo: taskRepo}
	healthHandler := &handlers.HealthHandler{DB: db}

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(middleware.RequestLog)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Prometheus)
	r.Use(middleware.SecurityHeaders(false))
	r.Use(middleware.CORS(cfg.CORSAllowedOrigins))

	// Operational endpoints (no auth)
	r.Get("/health", healthHandler.Health)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	// Public pages
	r.Get("/", authHandler.Index)
	r.Get("/login", authHandler.LoginForm)
	loginLimiter := middleware.LoginRateLimiter()
	r.With(loginLimiter.Middleware).Post("/login", authHandler.LoginSubmit)
	r.Get("/logout", authHandler.Logout)

	// Protected pages: missing session redirects to /login
	r.Group(func(r chi.Router) {
		r.Use(sessions.RequirePage)
		r.Get("/dashboard", pageHandler.Dashboard)
	})

	// JSON API: missing session gets 401, not a redirect
	r.Route("/api", func(r chi.Router) {
		r.Use(sessions.RequireAPI)
		r.Use(middleware.MaxBytes(middleware.DefaultMaxBodyBytes))
		r.Get("/tasks", taskHandler.ListTasks)
		r.Post("/tasks", taskHandler.CreateTask)
		r.Put("/tasks/{id}", taskHandler.UpdateTask)
		r.Delete("/tasks/{id}", taskHandler.DeleteTask)
		r.Get("/stats", taskHandler.GetStats)
	})

	r.NotFound(web.NotFound)

	return r
}
