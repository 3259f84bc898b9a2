// Package reasoning talks to the external language-model service that turns
// metric payloads into advisory text.
package reasoning

import (
	"context"
	"errors"

	"github.com/medstock/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

var (
	// ErrUpstreamUnavailable is returned when the service cannot be reached,
	// rejects the request or answers with an unusable payload
	ErrUpstreamUnavailable = errors.New("reasoning service unavailable")
	// ErrNotConfigured is returned by the disabled reasoner
	ErrNotConfigured = errors.New("reasoning service not configured")
	// ErrEmptyResponse is returned when the service answers without any text
	ErrEmptyResponse = errors.New("reasoning service returned no content")
)

// Prompt is a single system + user exchange
type Prompt struct {
	System string
	User   string
}

// Reasoner completes a prompt and returns the raw text answer
type Reasoner interface {
	Complete(ctx context.Context, prompt Prompt) (string, error)
}

// Disabled is the Reasoner used when no endpoint is configured.
// Every call fails with ErrUpstreamUnavailable so callers take their local fallback.
type Disabled struct{}

// Complete implements Reasoner
func (Disabled) Complete(context.Context, Prompt) (string, error) {
	return "", errors.Join(ErrUpstreamUnavailable, ErrNotConfigured)
}

// New returns an HTTP client for cfg, or Disabled when cfg has no endpoint
func New(cfg config.ReasoningConfig, logger *zap.Logger, opts ...ClientOption) Reasoner {
	if !cfg.Enabled() {
		logger.Info("Reasoning service not configured, insights will use local summaries")
		return Disabled{}
	}
	return NewClient(cfg, logger, opts...)
}

var (
	_ Reasoner = Disabled{}
	_ Reasoner = (*Client)(nil)
)
