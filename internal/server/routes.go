package server

import (
	"github.com/Lutefd/currency-data/internal/handler"
	"github.com/Lutefd/currency-data/internal/metrics"
	api_middleware "github.com/Lutefd/currency-data/internal/middleware"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

func (s *Server) registerRoutes(deps Dependencies) {
	router := chi.NewRouter()
	router.Use(middleware.Recoverer)
	router.Use(api_middleware.RequestLogger)
	router.Use(metrics.InstrumentHandler)

	router.Get("/healthz", handler.HandlerReadiness)
	router.Handle("/metrics", metrics.Handler())

	healthHandler := handler.NewHealthHandler(deps.HealthService)
	router.Get("/health-check", healthHandler.HealthCheck)

	limiter := api_middleware.NewRateLimiter(s.config.RateLimitRPS)
	currencyHandler := handler.NewCurrencyHandler(deps.CurrencyService)
	router.Route("/currency-data", func(r chi.Router) {
		r.Use(limiter.Middleware)
		r.Post("/add", currencyHandler.AddCurrencyData)
		r.Delete("/remove", currencyHandler.RemoveCurrencyData)
		r.Get("/getInformation", currencyHandler.GetCurrencyData)
	})
	s.router = router
}
