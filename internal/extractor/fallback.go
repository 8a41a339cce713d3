package extractor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"itinera/internal/domain"
	"itinera/internal/port"
)

// circuitState tracks rate-limit backoff for a single extractor.
type circuitState struct {
	mu      sync.RWMutex
	resetAt time.Time // zero value = closed (healthy)
}

func (c *circuitState) isOpenWithReset(now time.Time) (time.Time, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.resetAt, !c.resetAt.IsZero() && now.Before(c.resetAt)
}

func (c *circuitState) open(resetAt time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.resetAt = resetAt
}

// FallbackExtractor tries extractors in order, skipping those with open circuits.
// It implements port.Extractor.
type FallbackExtractor struct {
	extractors []port.Extractor
	circuits   []*circuitState
	names      []string
	logger     *slog.Logger
	now        func() time.Time
}

// NewFallbackExtractor creates a FallbackExtractor from an ordered list of extractors and their names.
func NewFallbackExtractor(extractors []port.Extractor, names []string, logger *slog.Logger) *FallbackExtractor {
	if logger == nil {
		logger = slog.Default()
	}
	circuits := make([]*circuitState, len(extractors))
	for i := range circuits {
		circuits[i] = &circuitState{}
	}
	return &FallbackExtractor{
		extractors: extractors,
		circuits:   circuits,
		names:      names,
		logger:     logger,
		now:        time.Now,
	}
}

func (f *FallbackExtractor) Extract(ctx context.Context, input port.ExtractInput) (*port.ExtractOutput, error) {
	return runFallback(f, "Extract", func(e port.Extractor) (*port.ExtractOutput, error) {
		return e.Extract(ctx, input)
	})
}

// Transcribe tries each extractor that can read binary documents. Extractors
// answering domain.ErrUnsupportedInput are passed over without counting as failures.
func (f *FallbackExtractor) Transcribe(ctx context.Context, input port.TranscribeInput) (*port.TranscribeOutput, error) {
	return runFallback(f, "Transcribe", func(e port.Extractor) (*port.TranscribeOutput, error) {
		return e.Transcribe(ctx, input)
	})
}

func runFallback[T any](f *FallbackExtractor, op string, call func(port.Extractor) (*T, error)) (*T, error) {
	now := f.now()
	var lastErr error
	allRateLimited := true
	unsupported := 0
	var earliestReset time.Time

	for i, e := range f.extractors {
		if resetAt, open := f.circuits[i].isOpenWithReset(now); open {
			f.logger.Info("extractor.FallbackExtractor: skipping provider, circuit open",
				"op", op, "provider", f.names[i], "until", resetAt.Format(time.RFC3339))
			if earliestReset.IsZero() || resetAt.Before(earliestReset) {
				earliestReset = resetAt
			}
			continue
		}

		out, err := call(e)
		if err == nil {
			return out, nil
		}
		if errors.Is(err, domain.ErrUnsupportedInput) {
			unsupported++
			continue
		}

		f.logger.Warn("extractor.FallbackExtractor: provider failed", "op", op, "provider", f.names[i], "error", err)
		lastErr = err

		var rlErr *RateLimitError
		if errors.As(err, &rlErr) {
			resetAt := now.Add(rlErr.RetryAfter)
			f.circuits[i].open(resetAt)
			if earliestReset.IsZero() || resetAt.Before(earliestReset) {
				earliestReset = resetAt
			}
		} else {
			allRateLimited = false
		}
	}

	if lastErr == nil && earliestReset.IsZero() {
		if unsupported > 0 {
			return nil, fmt.Errorf("no extractor supports %s: %w", op, domain.ErrUnsupportedInput)
		}
		return nil, fmt.Errorf("no extractors configured")
	}

	if lastErr == nil || allRateLimited {
		retryAfter := earliestReset.Sub(now)
		if retryAfter < time.Second {
			retryAfter = time.Second
		}
		return nil, NewRateLimitError("all", fmt.Errorf("all extractors rate limited"), int(retryAfter.Seconds()))
	}

	return nil, fmt.Errorf("all extractors failed: %w", lastErr)
}
