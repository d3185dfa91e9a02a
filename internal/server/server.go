package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/Lutefd/currency-data/internal/commons"
	"github.com/Lutefd/currency-data/internal/logger"
	"github.com/Lutefd/currency-data/internal/service"
)

// Dependencies are the services the HTTP layer delegates to.
type Dependencies struct {
	CurrencyService service.CurrencyServiceInterface
	HealthService   service.HealthServiceInterface
}

type Server struct {
	port   int
	router http.Handler
	config Config
}

func NewServer(config Config, deps Dependencies) *Server {
	server := &Server{
		port:   int(config.ServerPort),
		config: config,
	}
	server.registerRoutes(deps)
	return server
}

// Handler exposes the routed handler, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	logger.Infof("Starting server on port %d", s.port)
	ch := make(chan error, 1)
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.port),
		Handler:      s.router,
		IdleTimeout:  commons.ServerIdleTimeout,
		ReadTimeout:  commons.ServerReadTimeout,
		WriteTimeout: commons.ServerWriteTimeout,
	}

	go func() {
		err := server.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			ch <- fmt.Errorf("failed to start server: %w", err)
		}
		close(ch)
	}()

	select {
	case err := <-ch:
		return err
	case <-ctx.Done():
		logger.Info("Shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), commons.ServerShutdownTimeout)
		defer cancel()

		return server.Shutdown(shutdownCtx)
	}
}
