package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/Lutefd/currency-data/internal/cache"
	"github.com/Lutefd/currency-data/internal/logger"
	"github.com/Lutefd/currency-data/internal/metrics"
	"github.com/Lutefd/currency-data/internal/model"
	"github.com/Lutefd/currency-data/internal/repository"
	"github.com/Lutefd/currency-data/internal/validator"
	"go.mongodb.org/mongo-driver/bson"
)

const (
	DefaultLimit    = 5
	previewSize     = 5
	latestCacheKey  = "currency-data:latest"
	dateCachePrefix = "currency-data:date:"
)

type Options struct {
	CheckDuplicates bool
	CacheTTL        time.Duration
}

type AddResult struct {
	Inserted int
	Rejected int
}

type CurrencyService struct {
	repo      repository.CurrencyRepository
	cache     cache.Cache
	validator *validator.Validator
	cacheTTL  time.Duration

	// generation is bumped by every write so a read that overlapped one
	// does not repopulate the cache with what it saw before the write.
	generation atomic.Uint64
}

func NewCurrencyService(repo repository.CurrencyRepository, c cache.Cache, opts Options) *CurrencyService {
	var lookup validator.DateLookup
	if opts.CheckDuplicates && repo != nil {
		lookup = repo
	}
	if c == nil {
		c = cache.NoopCache{}
	}
	return &CurrencyService{
		repo:      repo,
		cache:     c,
		validator: validator.New(lookup),
		cacheTTL:  opts.CacheTTL,
	}
}

// AddCurrencyData validates entries and inserts the valid ones. Rejected
// entries are logged and counted, never returned as an error.
func (s *CurrencyService) AddCurrencyData(ctx context.Context, entries []validator.Entry) (AddResult, error) {
	if s.repo == nil {
		return AddResult{}, model.ErrConnection
	}

	result, err := s.validator.Validate(ctx, entries)
	if err != nil {
		return AddResult{}, fmt.Errorf("failed to validate currency data: %w", err)
	}
	for _, rejected := range result.Rejected {
		logger.Errorf("rejected currency data: %v", rejected)
	}
	metrics.RecordsRejected(len(result.Rejected))

	if len(result.Valid) == 0 {
		logger.Info("No valid documents to insert.")
		return AddResult{Rejected: len(result.Rejected)}, nil
	}

	keys := []string{latestCacheKey}
	for _, record := range result.Valid {
		keys = append(keys, dateCacheKey(record.Date))
	}

	inserted, err := s.repo.InsertMany(ctx, result.Valid)
	if err != nil {
		// an unordered insert may have written part of the batch
		s.invalidate(ctx, keys...)
		return AddResult{}, fmt.Errorf("failed to add currency data: %w", err)
	}
	for _, date := range inserted.Duplicates {
		logger.Errorf("Date %s is already in the database", date.Format(time.RFC3339))
	}
	metrics.RecordsInserted(inserted.Inserted)
	metrics.RecordsRejected(len(inserted.Duplicates))
	logger.Infof("Inserted %d documents into the collection.", inserted.Inserted)

	s.invalidate(ctx, keys...)

	return AddResult{
		Inserted: inserted.Inserted,
		Rejected: len(result.Rejected) + len(inserted.Duplicates),
	}, nil
}

func (s *CurrencyService) RemoveCurrencyData(ctx context.Context, date time.Time) (int64, error) {
	if s.repo == nil {
		return 0, model.ErrConnection
	}

	date = model.NormalizeDate(date)
	deleted, err := s.repo.DeleteByDate(ctx, date)
	if err != nil {
		s.invalidate(ctx, latestCacheKey, dateCacheKey(date))
		return 0, fmt.Errorf("failed to remove currency data: %w", err)
	}
	logger.Infof("Deleted %d documents.", deleted)

	s.invalidate(ctx, latestCacheKey, dateCacheKey(date))
	return deleted, nil
}

// GetCurrencyData returns the snapshots for date, or the DefaultLimit most
// recent ones when date is nil.
func (s *CurrencyService) GetCurrencyData(ctx context.Context, date *time.Time) ([]model.CurrencyObject, error) {
	if s.repo == nil {
		return nil, model.ErrConnection
	}

	key := latestCacheKey
	if date != nil {
		normalized := model.NormalizeDate(*date)
		date = &normalized
		key = dateCacheKey(normalized)
	}

	if records, ok := s.cached(ctx, key); ok {
		return records, nil
	}

	generation := s.generation.Load()
	records, err := s.repo.Find(ctx, date, DefaultLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to get currency data: %w", err)
	}
	logger.Infof("Found %d documents.", len(records))
	for _, record := range records {
		logger.Infof("%s: %s", record.Date.Format(time.DateOnly), preview(record))
	}

	s.store(ctx, key, records, generation)
	return records, nil
}

func (s *CurrencyService) Healthy(ctx context.Context) bool {
	if s.repo == nil {
		logger.Error("MongoDB connection error: database is not initialised")
		return false
	}
	if err := s.repo.Ping(ctx); err != nil {
		logger.Errorf("MongoDB connection error: %v", err)
		return false
	}
	return true
}

type cachedRecords struct {
	Records []model.CurrencyObject `bson:"records"`
}

func (s *CurrencyService) cached(ctx context.Context, key string) ([]model.CurrencyObject, bool) {
	data, err := s.cache.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, cache.ErrCacheMiss) {
			logger.Errorf("failed to read cache key %s: %v", key, err)
		}
		return nil, false
	}

	var entry cachedRecords
	if err := bson.Unmarshal(data, &entry); err != nil {
		logger.Errorf("failed to decode cache key %s: %v", key, err)
		return nil, false
	}
	if entry.Records == nil {
		entry.Records = []model.CurrencyObject{}
	}
	return entry.Records, true
}

// store caches records read at generation, unless a write has happened since.
func (s *CurrencyService) store(ctx context.Context, key string, records []model.CurrencyObject, generation uint64) {
	if s.generation.Load() != generation {
		return
	}
	data, err := bson.Marshal(cachedRecords{Records: records})
	if err != nil {
		logger.Errorf("failed to encode cache key %s: %v", key, err)
		return
	}
	if err := s.cache.Set(ctx, key, data, s.cacheTTL); err != nil {
		logger.Errorf("failed to update cache key %s: %v", key, err)
		return
	}
	// a write that invalidated between the check and the Set wins
	if s.generation.Load() != generation {
		if err := s.cache.Delete(ctx, key); err != nil {
			logger.Errorf("failed to invalidate cache key %s: %v", key, err)
		}
	}
}

func (s *CurrencyService) invalidate(ctx context.Context, keys ...string) {
	s.generation.Add(1)
	if err := s.cache.Delete(ctx, keys...); err != nil {
		logger.Errorf("failed to invalidate cache: %v", err)
	}
}

func dateCacheKey(date time.Time) string {
	return dateCachePrefix + date.Format(time.DateOnly)
}

func preview(record model.CurrencyObject) string {
	codes := record.Codes()
	if len(codes) > previewSize {
		codes = codes[:previewSize]
	}
	parts := make([]string, 0, len(codes))
	for _, code := range codes {
		pair := record.Rates[code]
		parts = append(parts, fmt.Sprintf("%s AUDPerUnit=%s UnitsPerAUD=%s", code, pair.AUDPerUnit, pair.UnitsPerAUD))
	}
	return strings.Join(parts, "; ")
}
