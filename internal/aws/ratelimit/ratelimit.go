// Package ratelimit spaces calls to AWS APIs. It never retries: an error from
// the operation is returned to the caller unchanged.
package ratelimit

import (
	"context"
	"sync"
	"time"

	"ddbreport/internal/logging"
)

// Default rate limits
const defaultRequestsPerSecond = 5

// ServiceConfig holds configuration for a service's rate limits
type ServiceConfig struct {
	// Default requests per second for APIs not explicitly configured
	DefaultRequestsPerSecond float64
	// Specific API rate limits, overrides default
	APILimits map[string]float64
}

// DefaultServiceConfig returns a default configuration for a service
func DefaultServiceConfig() ServiceConfig {
	return ServiceConfig{
		DefaultRequestsPerSecond: defaultRequestsPerSecond,
		APILimits: map[string]float64{
			// DescribeTable is a control plane call with a lower account limit
			"DescribeTable": 2,
		},
	}
}

// ServiceLimiter paces the calls of a specific AWS service per API
type ServiceLimiter struct {
	mu       sync.Mutex
	nextCall map[string]time.Time
	config   ServiceConfig
	now      func() time.Time
}

// NewServiceLimiter creates a new ServiceLimiter with optional configuration
func NewServiceLimiter(configs ...ServiceConfig) *ServiceLimiter {
	config := DefaultServiceConfig()
	if len(configs) > 0 {
		config = configs[0]
	}

	return &ServiceLimiter{
		nextCall: make(map[string]time.Time),
		config:   config,
		now:      time.Now,
	}
}

// interval returns the minimum interval between requests for a given API
func (l *ServiceLimiter) interval(apiName string) time.Duration {
	rps := l.config.DefaultRequestsPerSecond
	if limit, ok := l.config.APILimits[apiName]; ok {
		rps = limit
	}
	if rps <= 0 {
		return 0
	}
	return time.Duration(float64(time.Second) / rps)
}

// reserve claims the next free slot for apiName and returns how long the
// caller has to wait for it
func (l *ServiceLimiter) reserve(apiName string) time.Duration {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	slot := l.nextCall[apiName]
	if slot.Before(now) {
		slot = now
	}
	l.nextCall[apiName] = slot.Add(l.interval(apiName))
	return slot.Sub(now)
}

// Execute waits for the API's next slot and runs operation once
func (l *ServiceLimiter) Execute(ctx context.Context, apiName string, operation func() error) error {
	if wait := l.reserve(apiName); wait > 0 {
		logging.Debug("Pacing request", map[string]interface{}{
			"api":   apiName,
			"delay": wait.String(),
		})
		timer := time.NewTimer(wait)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}
	}

	if err := ctx.Err(); err != nil {
		return err
	}
	return operation()
}
