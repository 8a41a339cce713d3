package extractor_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"itinera/internal/domain"
	"itinera/internal/extractor"
	"itinera/internal/port"
	"itinera/mocks"
)

func TestRetryingExtractor_RetriesTransientErrors(t *testing.T) {
	inner := new(mocks.MockExtractor)
	inner.On("Extract", mock.Anything, extractInput).Return(nil, errors.New("connection reset")).Twice()
	inner.On("Extract", mock.Anything, extractInput).Return(extractOutput("claude"), nil).Once()

	re := extractor.NewRetryingExtractor(inner, "claude", 2, nil).WithDelay(time.Millisecond)

	out, err := re.Extract(context.Background(), extractInput)

	require.NoError(t, err)
	assert.Equal(t, "claude", out.ModelUsed)
	inner.AssertNumberOfCalls(t, "Extract", 3)
}

func TestRetryingExtractor_GivesUpAfterMaxRetries(t *testing.T) {
	inner := new(mocks.MockExtractor)
	inner.On("Extract", mock.Anything, extractInput).Return(nil, errors.New("bad gateway"))

	re := extractor.NewRetryingExtractor(inner, "claude", 1, nil).WithDelay(time.Millisecond)

	_, err := re.Extract(context.Background(), extractInput)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad gateway")
	inner.AssertNumberOfCalls(t, "Extract", 2)
}

func TestRetryingExtractor_DoesNotRetryRateLimit(t *testing.T) {
	inner := new(mocks.MockExtractor)
	inner.On("Extract", mock.Anything, extractInput).Return(nil, extractor.NewRateLimitError("claude", errors.New("429"), 5))

	re := extractor.NewRetryingExtractor(inner, "claude", 3, nil).WithDelay(time.Millisecond)

	_, err := re.Extract(context.Background(), extractInput)

	var rlErr *extractor.RateLimitError
	require.ErrorAs(t, err, &rlErr)
	inner.AssertNumberOfCalls(t, "Extract", 1)
}

func TestRetryingExtractor_DoesNotRetryUnsupportedInput(t *testing.T) {
	input := port.TranscribeInput{FileBytes: []byte("x"), ContentType: domain.MimePDF}
	inner := new(mocks.MockExtractor)
	inner.On("Transcribe", mock.Anything, input).Return(nil, domain.ErrUnsupportedInput)

	re := extractor.NewRetryingExtractor(inner, "openai", 3, nil).WithDelay(time.Millisecond)

	_, err := re.Transcribe(context.Background(), input)

	assert.ErrorIs(t, err, domain.ErrUnsupportedInput)
	inner.AssertNumberOfCalls(t, "Transcribe", 1)
}

func TestRetryingExtractor_StopsOnCancelledContext(t *testing.T) {
	inner := new(mocks.MockExtractor)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	inner.On("Extract", mock.Anything, extractInput).Return(nil, context.Canceled)

	re := extractor.NewRetryingExtractor(inner, "claude", 3, nil).WithDelay(time.Millisecond)

	_, err := re.Extract(ctx, extractInput)

	require.Error(t, err)
	assert.LessOrEqual(t, len(inner.Calls), 1)
}
