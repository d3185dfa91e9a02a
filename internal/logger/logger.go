package logger

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/Lutefd/currency-data/internal/model"
	"github.com/Lutefd/currency-data/internal/repository"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const logSource = "application"

var (
	Log                 *logrus.Logger
	loggerBufferSize    = 1000
	LoggerSleepDuration = 100 * time.Millisecond

	mu     sync.RWMutex
	active *sink
)

// sink persists log entries in the background through a LogRepository.
type sink struct {
	ch   chan model.Log
	repo repository.LogRepository
	done chan struct{}
}

func init() {
	Log = logrus.New()
	Log.SetOutput(os.Stdout)
	Log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
}

// SetLevel changes the minimum level written by Log.
func SetLevel(level string) error {
	parsed, err := logrus.ParseLevel(level)
	if err != nil {
		return err
	}
	Log.SetLevel(parsed)
	return nil
}

// InitLogger starts persisting entries through repo. A previously started
// sink stops receiving entries but still flushes what it has queued.
func InitLogger(repo repository.LogRepository) {
	s := &sink{
		ch:   make(chan model.Log, loggerBufferSize),
		repo: repo,
		done: make(chan struct{}),
	}

	mu.Lock()
	if active != nil {
		close(active.ch)
	}
	active = s
	mu.Unlock()

	go s.process()
}

func (s *sink) process() {
	defer close(s.done)
	for logEntry := range s.ch {
		if err := s.repo.SaveLog(context.Background(), logEntry); err != nil {
			Log.Errorf("failed to save log: %v", err)
		}
	}
}

func logAsync(level model.LogLevel, message string) {
	if level == model.LogLevelInfo {
		Log.WithField("source", logSource).Info(message)
	} else {
		Log.WithField("source", logSource).Error(message)
	}

	mu.RLock()
	defer mu.RUnlock()
	if active == nil {
		return
	}

	logEntry := model.Log{
		ID:        uuid.New(),
		Level:     level,
		Message:   message,
		Timestamp: time.Now().UTC(),
		Source:    logSource,
	}
	select {
	case active.ch <- logEntry:
	default:
		Log.Errorf("log channel full. Dropping log: %s", message)
	}
}

func Info(v ...interface{}) {
	logAsync(model.LogLevelInfo, fmt.Sprint(v...))
}

func Infof(format string, v ...interface{}) {
	logAsync(model.LogLevelInfo, fmt.Sprintf(format, v...))
}

func Error(v ...interface{}) {
	logAsync(model.LogLevelError, fmt.Sprint(v...))
}

func Errorf(format string, v ...interface{}) {
	logAsync(model.LogLevelError, fmt.Sprintf(format, v...))
}

// Shutdown stops accepting entries, waits for the queue to drain and closes
// the repository.
func Shutdown(ctx context.Context) error {
	mu.Lock()
	s := active
	active = nil
	if s != nil {
		close(s.ch)
	}
	mu.Unlock()

	if s == nil {
		return nil
	}

	select {
	case <-s.done:
		return s.repo.Close()
	case <-ctx.Done():
		return ctx.Err()
	}
}
