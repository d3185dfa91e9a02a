package commons

import "time"

const (
	AllowedRPS             = 10
	RateLimiterIdleTimeout = 3 * time.Minute
	CacheExpiration        = 1 * time.Hour
	LogRetentionDays       = 30
	ServerIdleTimeout      = time.Minute
	ServerReadTimeout      = 10 * time.Second
	ServerWriteTimeout     = 30 * time.Second
	ServerShutdownTimeout  = 10 * time.Second
	MaxPayloadBytes        = 10 << 20
)
