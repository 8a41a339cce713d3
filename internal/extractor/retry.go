package extractor

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/avast/retry-go/v4"

	"itinera/internal/domain"
	"itinera/internal/port"
)

// RetryingExtractor retries transient provider failures with exponential
// backoff. Rate limits and unsupported input are returned immediately so the
// fallback chain can react to them.
type RetryingExtractor struct {
	inner    port.Extractor
	name     string
	attempts uint
	delay    time.Duration
	logger   *slog.Logger
}

// NewRetryingExtractor wraps inner; maxRetries is the number of retries after
// the first attempt.
func NewRetryingExtractor(inner port.Extractor, name string, maxRetries int, logger *slog.Logger) *RetryingExtractor {
	if maxRetries < 0 {
		maxRetries = 0
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &RetryingExtractor{
		inner:    inner,
		name:     name,
		attempts: uint(maxRetries) + 1,
		delay:    500 * time.Millisecond,
		logger:   logger,
	}
}

// WithDelay overrides the base backoff delay.
func (r *RetryingExtractor) WithDelay(d time.Duration) *RetryingExtractor {
	r.delay = d
	return r
}

func (r *RetryingExtractor) Extract(ctx context.Context, input port.ExtractInput) (*port.ExtractOutput, error) {
	return retry.DoWithData(
		func() (*port.ExtractOutput, error) { return r.inner.Extract(ctx, input) },
		r.options(ctx, "Extract")...,
	)
}

func (r *RetryingExtractor) Transcribe(ctx context.Context, input port.TranscribeInput) (*port.TranscribeOutput, error) {
	return retry.DoWithData(
		func() (*port.TranscribeOutput, error) { return r.inner.Transcribe(ctx, input) },
		r.options(ctx, "Transcribe")...,
	)
}

func (r *RetryingExtractor) options(ctx context.Context, op string) []retry.Option {
	return []retry.Option{
		retry.Context(ctx),
		retry.Attempts(r.attempts),
		retry.Delay(r.delay),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.RetryIf(retryable),
		retry.OnRetry(func(n uint, err error) {
			r.logger.Warn("extractor.RetryingExtractor: retrying",
				"provider", r.name, "op", op, "attempt", n+1, "error", err)
		}),
	}
}

func retryable(err error) bool {
	var rlErr *RateLimitError
	switch {
	case errors.As(err, &rlErr):
		return false
	case errors.Is(err, domain.ErrUnsupportedInput):
		return false
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return false
	}
	return true
}
