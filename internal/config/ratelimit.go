package config

import "time"

// RateLimitConfig holds configuration for request pacing. Calls are spaced,
// never retried: a failed fetch ends the run.
type RateLimitConfig struct {
	// RequestsPerSecond is the number of requests allowed per second per API
	RequestsPerSecond float64
}

// Interval returns the minimum spacing between two calls, 0 when unpaced
func (c RateLimitConfig) Interval() time.Duration {
	if c.RequestsPerSecond <= 0 {
		return 0
	}
	return time.Duration(float64(time.Second) / c.RequestsPerSecond)
}

var (
	// DefaultRateLimitConfig provides default values for rate limiting
	DefaultRateLimitConfig = RateLimitConfig{
		RequestsPerSecond: 5.0,
	}
)
