package service

import (
	"context"
	"time"

	"github.com/Lutefd/currency-data/internal/model"
	"github.com/Lutefd/currency-data/internal/validator"
)

type CurrencyServiceInterface interface {
	AddCurrencyData(ctx context.Context, entries []validator.Entry) (AddResult, error)
	RemoveCurrencyData(ctx context.Context, date time.Time) (int64, error)
	GetCurrencyData(ctx context.Context, date *time.Time) ([]model.CurrencyObject, error)
}

type HealthServiceInterface interface {
	Healthy(ctx context.Context) bool
}
