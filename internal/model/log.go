package model

import (
	"time"

	"github.com/google/uuid"
)

type LogLevel string

const (
	LogLevelInfo  LogLevel = "INFO"
	LogLevelError LogLevel = "ERROR"
)

type Log struct {
	ID        uuid.UUID `bson:"_id" json:"id"`
	Level     LogLevel  `bson:"level" json:"level"`
	Message   string    `bson:"message" json:"message"`
	Timestamp time.Time `bson:"timestamp" json:"timestamp"`
	Source    string    `bson:"source" json:"source"`
}
