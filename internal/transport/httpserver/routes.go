package httpserver

import (
	"net/http"
	"time"

	"mess-manager-go/internal/auth"
	"mess-manager-go/internal/config"
	"mess-manager-go/internal/transport/httpserver/handler"
	authmw "mess-manager-go/internal/transport/httpserver/middleware"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func NewRouter(cfg config.Config, handlers *handler.Handlers, tokens *auth.JWTManager) http.Handler {
	registry := prometheus.NewRegistry()
	metrics := authmw.NewMetrics(registry)

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(30 * time.Second))
	r.Use(authmw.NewCORS(cfg.CORSOrigins))
	r.Use(metrics.Middleware)

	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", handlers.Health)

		r.Route("/v1", func(r chi.Router) {
			r.Post("/auth/register", handlers.Register)
			r.Post("/auth/login", handlers.Login)

			jwtAuth := authmw.NewJWTAuth(tokens)
			r.Group(func(r chi.Router) {
				r.Use(jwtAuth.Middleware)

				r.Post("/mess/create", handlers.CreateMess)
				r.Post("/mess/join", handlers.JoinMess)
				r.Post("/mess/details", handlers.MessDetails)
				r.Post("/mess/meal", handlers.SetMeal)
				r.Post("/mess/expense", handlers.AddExpense)
				r.Post("/mess/deposit", handlers.AddDeposit)
				r.Get("/mess/summary", handlers.MessSummary)
			})
		})
	})

	return r
}
