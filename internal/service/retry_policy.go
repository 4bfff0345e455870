package service

import (
	"time"

	"github.com/mansoorceksport/repsync/internal/config"
)

// RetryPolicy controls how the write queue spaces and bounds delivery attempts
type RetryPolicy struct {
	BaseDelay   time.Duration
	MaxDelay    time.Duration
	MaxAttempts int
}

// DefaultRetryPolicy yields 5s, 15s, 45s, 135s, then 300s for every later attempt
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		BaseDelay:   5 * time.Second,
		MaxDelay:    300 * time.Second,
		MaxAttempts: 10,
	}
}

// RetryPolicyFromConfig fills unset fields from DefaultRetryPolicy
func RetryPolicyFromConfig(cfg config.SyncConfig) RetryPolicy {
	p := DefaultRetryPolicy()
	if cfg.BaseDelay > 0 {
		p.BaseDelay = cfg.BaseDelay
	}
	if cfg.MaxDelay > 0 {
		p.MaxDelay = cfg.MaxDelay
	}
	if cfg.MaxAttempts > 0 {
		p.MaxAttempts = cfg.MaxAttempts
	}
	return p
}

// Backoff returns min(BaseDelay * 3^attempts, MaxDelay)
func (p RetryPolicy) Backoff(attempts int) time.Duration {
	if attempts < 0 {
		attempts = 0
	}
	delay := p.BaseDelay
	for i := 0; i < attempts; i++ {
		if delay >= p.MaxDelay {
			return p.MaxDelay
		}
		delay *= 3
	}
	if delay > p.MaxDelay {
		return p.MaxDelay
	}
	return delay
}
