package handlers

import (
	"net/http"
	"time"

	"taskMaster/internal/middleware"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
)

type RouterConfig struct {
	AllowedOrigins []string
	RateLimit      int
}

type Handlers struct {
	Tasks    *TaskHandler
	Projects *ProjectHandler
	Auth     *AuthHandler
	Live     *LiveHandler
	Health   *HealthHandler
}

func NewRouter(cfg RouterConfig, h Handlers) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Logging)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", middleware.RequestIDHeader},
		ExposedHeaders:   []string{middleware.RequestIDHeader},
		AllowCredentials: false,
		MaxAge:           int((5 * time.Minute).Seconds()),
	}))
	r.Use(middleware.RateLimit(cfg.RateLimit))

	r.Get("/health", h.Health.HealthCheck)
	r.Route("/tasks", h.Tasks.Routes)
	r.Route("/projects", h.Projects.Routes)
	r.Route("/auth", h.Auth.Routes)
	r.Get("/live/{collection}/{query}", h.Live.Stream)
	r.Get("/query/{collection}/{query}", h.Live.Query)

	return r
}
