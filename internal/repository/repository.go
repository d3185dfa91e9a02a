package repository

import (
	"context"
	"time"

	"github.com/Lutefd/currency-data/internal/model"
)

type CurrencyRepository interface {
	InsertMany(ctx context.Context, records []model.CurrencyObject) (InsertResult, error)
	DeleteByDate(ctx context.Context, date time.Time) (int64, error)
	Find(ctx context.Context, date *time.Time, limit int64) ([]model.CurrencyObject, error)
	ExistsByDate(ctx context.Context, date time.Time) (bool, error)
	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}

type LogRepository interface {
	SaveLog(ctx context.Context, log model.Log) error
	DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error)
	Close() error
}

// InsertResult reports how a bulk insert went. Duplicates lists the dates
// rejected by the unique index on Date.
type InsertResult struct {
	Inserted   int
	Duplicates []time.Time
}
