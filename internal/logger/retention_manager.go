package logger

import (
	"context"
	"time"

	"github.com/Lutefd/currency-data/internal/repository"
	"github.com/robfig/cron/v3"
)

const retentionSchedule = "0 3 * * *"

// RetentionManager deletes persisted log entries older than the retention
// window, once at start and then daily.
type RetentionManager struct {
	repo      repository.LogRepository
	cron      *cron.Cron
	retention time.Duration
	now       func() time.Time
}

func NewRetentionManager(repo repository.LogRepository, retentionDays int) *RetentionManager {
	c := cron.New()
	rm := &RetentionManager{
		repo:      repo,
		cron:      c,
		retention: time.Duration(retentionDays) * 24 * time.Hour,
		now:       time.Now,
	}

	_, err := c.AddFunc(retentionSchedule, rm.pruneWrapper)
	if err != nil {
		Errorf("failed to add cron job: %v", err)
	}

	return rm
}

func (rm *RetentionManager) Start(ctx context.Context) error {
	if err := rm.prune(ctx); err != nil {
		Errorf("failed to prune logs: %s", err)
	}

	rm.cron.Start()

	go func() {
		<-ctx.Done()
		rm.cron.Stop()
	}()

	return nil
}

func (rm *RetentionManager) prune(ctx context.Context) error {
	cutoff := rm.now().Add(-rm.retention)
	deleted, err := rm.repo.DeleteBefore(ctx, cutoff)
	if err != nil {
		return err
	}
	Infof("pruned %d log entries older than %s", deleted, cutoff.Format(time.RFC3339))
	return nil
}

func (rm *RetentionManager) pruneWrapper() {
	if err := rm.prune(context.Background()); err != nil {
		Errorf("failed to prune logs: %v", err)
	}
}
