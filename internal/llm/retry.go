package llm

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/personalityai/personality/internal/models"
)

// RetryConfig defines retry behavior for completion calls.
type RetryConfig struct {
	// MaxAttempts is the total number of attempts, first call included.
	MaxAttempts int
	// Delay is the fixed pause between attempts.
	Delay time.Duration
}

// DefaultRetryConfig returns the policy applied to persona completions:
// retry after three minutes on transient failures, stop after six attempts.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts: 6,
		Delay:       3 * time.Minute,
	}
}

// CompleteFunc is a completion attempt that can be retried.
type CompleteFunc func() (*models.CompletionResponse, error)

// CompleteWithRetry executes fn under the given retry policy. Transient
// failures are reattempted after the fixed delay until the attempts are
// exhausted, then the last failure is returned. Fatal failures and context
// cancellation stop the loop immediately.
func CompleteWithRetry(ctx context.Context, config RetryConfig, logger *logrus.Logger, fn CompleteFunc) (*models.CompletionResponse, error) {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	if config.MaxAttempts < 1 {
		config.MaxAttempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= config.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("completion cancelled before attempt %d: %w", attempt, err)
		}

		resp, err := fn()
		if err == nil {
			return resp, nil
		}
		lastErr = err

		if !IsRetryableError(err) {
			return nil, err
		}
		if attempt == config.MaxAttempts {
			break
		}

		logger.Warnf("completion attempt %d/%d failed, retrying in %s: %v",
			attempt, config.MaxAttempts, config.Delay, err)

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("completion cancelled during backoff: %w", ctx.Err())
		case <-time.After(config.Delay):
		}
	}

	return nil, fmt.Errorf("all %d attempts failed: %w", config.MaxAttempts, lastErr)
}
