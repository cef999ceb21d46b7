// Package llm defines the completion contract the persona engine depends on,
// together with the error taxonomy and the bounded retry policy applied to
// transient completion failures.
package llm

import (
	"context"

	"github.com/personalityai/personality/internal/models"
)

// Provider is the external completion capability. Implementations accept an
// ordered message list plus sampling parameters and return one text
// completion. Failures that are transient (rate limits, token limits,
// server errors) should be reported as retryable so the persona layer can
// reattempt them.
type Provider interface {
	Complete(ctx context.Context, req *models.CompletionRequest) (*models.CompletionResponse, error)
	HealthCheck(ctx context.Context) error
}
