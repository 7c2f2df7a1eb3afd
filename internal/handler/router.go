package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"

	"nextstep-polls/internal/container"
	"nextstep-polls/internal/middleware"
	"nextstep-polls/pkg/errors"
)

// NewRouter configures the HTTP API on top of the container's services
func NewRouter(c *container.Container) *chi.Mux {
	cfg := c.GetConfig()
	log := c.GetLogger()

	r := chi.NewRouter()

	r.Use(middleware.CORS(cfg.AllowedOrigins))
	r.Use(middleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(middleware.RequestLogger(log, c.Metrics))
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Compress(5))
	r.Use(chiMiddleware.Timeout(60 * time.Second))

	healthHandler := NewHealthHandler(c)
	pollHandler := NewPollHandler(c)
	votingHandler := NewVotingHandler(c)

	r.Get("/health", healthHandler.Check)
	r.Method(http.MethodGet, "/metrics", c.Metrics.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Route("/polls", func(r chi.Router) {
			pollHandler.RegisterRoutes(r)
			votingHandler.RegisterRoutes(r)
		})
		r.Post("/reset", pollHandler.Reset)
	})

	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		respondError(w, req, log, errors.NewNotFoundError("Endpoint not found"))
	})

	log.Info("Router configured successfully")
	return r
}
