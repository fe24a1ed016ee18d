package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// RetryConfig holds retry configuration
type RetryConfig struct {
	MaxRetries     int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	BackoffFactor  float64
}

// DefaultRetryConfig returns default retry configuration
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:     3,
		InitialBackoff: 1 * time.Second,
		MaxBackoff:     30 * time.Second,
		BackoffFactor:  2.0,
	}
}

// NoRetry performs a single attempt
func NoRetry() RetryConfig {
	return RetryConfig{}
}

// Backoff returns the delay before retry number attempt (zero based)
func (rc RetryConfig) Backoff(attempt int) time.Duration {
	backoff := rc.InitialBackoff
	for i := 0; i < attempt; i++ {
		backoff = time.Duration(float64(backoff) * rc.BackoffFactor)
		if rc.MaxBackoff > 0 && backoff > rc.MaxBackoff {
			return rc.MaxBackoff
		}
	}
	return backoff
}

// ShouldRetry determines if a request should be retried
func ShouldRetry(statusCode int, err error) bool {
	if err != nil {
		return !errors.Is(err, context.Canceled)
	}

	switch statusCode {
	case http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	}

	return false
}

// RetryableError wraps an error with retry information
type RetryableError struct {
	Err        error
	StatusCode int
	Attempt    int
	MaxRetries int
}

func (e *RetryableError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("request failed (attempt %d/%d): %v", e.Attempt, e.MaxRetries, e.Err)
	}
	return fmt.Sprintf("request failed with status %d (attempt %d/%d)", e.StatusCode, e.Attempt, e.MaxRetries)
}

func (e *RetryableError) Unwrap() error {
	return e.Err
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
