package server_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Lutefd/currency-data/internal/model"
	"github.com/Lutefd/currency-data/internal/server"
	"github.com/Lutefd/currency-data/internal/service"
	"github.com/Lutefd/currency-data/internal/validator"
	"github.com/stretchr/testify/assert"
)

type stubCurrencyService struct{}

func (stubCurrencyService) AddCurrencyData(ctx context.Context, entries []validator.Entry) (service.AddResult, error) {
	return service.AddResult{Inserted: len(entries)}, nil
}

func (stubCurrencyService) RemoveCurrencyData(ctx context.Context, date time.Time) (int64, error) {
	return 0, nil
}

func (stubCurrencyService) GetCurrencyData(ctx context.Context, date *time.Time) ([]model.CurrencyObject, error) {
	return []model.CurrencyObject{}, nil
}

type stubHealthService bool

func (s stubHealthService) Healthy(ctx context.Context) bool {
	return bool(s)
}

func TestRoutes(t *testing.T) {
	srv := server.NewServer(server.Config{ServerPort: 8080, RateLimitRPS: 100}, server.Dependencies{
		CurrencyService: stubCurrencyService{},
		HealthService:   stubHealthService(true),
	})

	tests := []struct {
		name           string
		method         string
		target         string
		body           string
		expectedStatus int
	}{
		{"Liveness", http.MethodGet, "/healthz", "", http.StatusOK},
		{"Health check", http.MethodGet, "/health-check", "", http.StatusOK},
		{"Metrics", http.MethodGet, "/metrics", "", http.StatusOK},
		{"Add", http.MethodPost, "/currency-data/add", `[{"Date": "2022-01-01"}]`, http.StatusCreated},
		{"Remove", http.MethodDelete, "/currency-data/remove?date=2022-01-01", "", http.StatusOK},
		{"Get", http.MethodGet, "/currency-data/getInformation", "", http.StatusOK},
		{"Wrong method", http.MethodGet, "/currency-data/add", "", http.StatusMethodNotAllowed},
		{"Unknown route", http.MethodGet, "/currency", "", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.target, strings.NewReader(tt.body))
			rr := httptest.NewRecorder()
			srv.Handler().ServeHTTP(rr, req)

			assert.Equal(t, tt.expectedStatus, rr.Code)
		})
	}
}

func TestStart_ShutsDownOnCancel(t *testing.T) {
	srv := server.NewServer(server.Config{ServerPort: 0, RateLimitRPS: 1}, server.Dependencies{})
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() {
		done <- srv.Start(ctx)
	}()
	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
