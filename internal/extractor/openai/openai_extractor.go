package openai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"itinera/internal/config"
	"itinera/internal/domain"
	"itinera/internal/extractor"
	"itinera/internal/port"
)

const defaultModel = "gpt-4o-mini"

// Extractor implements port.Extractor using the OpenAI Chat Completions API.
// It reads text only; Transcribe reports domain.ErrUnsupportedInput.
type Extractor struct {
	client openai.Client
	model  string
}

// New creates an OpenAI-based extractor.
func New(cfg *config.ExtractorProviderConfig) *Extractor {
	return newExtractor(cfg, "")
}

// NewWithEndpoint creates an extractor pointing at a custom API base URL (for testing).
func NewWithEndpoint(cfg *config.ExtractorProviderConfig, baseURL string) *Extractor {
	return newExtractor(cfg, baseURL)
}

// Factory adapts New to extractor.ProviderFactory.
func Factory(cfg *config.ExtractorProviderConfig) (port.Extractor, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openai: api key is required")
	}
	return New(cfg), nil
}

func newExtractor(cfg *config.ExtractorProviderConfig, baseURL string) *Extractor {
	model := cfg.DefaultModel
	if model == "" {
		model = defaultModel
	}
	timeout := time.Duration(cfg.TimeoutSecs) * time.Second
	if timeout == 0 {
		timeout = 120 * time.Second
	}

	// Retries are owned by extractor.RetryingExtractor.
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithHTTPClient(&http.Client{Timeout: timeout}),
		option.WithMaxRetries(0),
	}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}

	return &Extractor{client: openai.NewClient(opts...), model: model}
}

func (e *Extractor) Extract(ctx context.Context, input port.ExtractInput) (*port.ExtractOutput, error) {
	prompt := extractor.BuildBookingPrompt(input.Schema)

	resp, err := e.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(e.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(prompt),
			openai.UserMessage(input.Text),
		},
		Temperature: openai.Float(0),
	})
	if err != nil {
		return nil, mapError(err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("empty response from openai")
	}
	if resp.Choices[0].FinishReason == "length" {
		return nil, fmt.Errorf("output truncated (finish_reason: length): response exceeded output token limit")
	}

	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	if text == "" {
		return nil, fmt.Errorf("empty response from openai")
	}
	return &port.ExtractOutput{Raw: text, ModelUsed: e.model, PromptUsed: prompt}, nil
}

func (e *Extractor) Transcribe(_ context.Context, input port.TranscribeInput) (*port.TranscribeOutput, error) {
	return nil, fmt.Errorf("openai: %s: %w", input.ContentType, domain.ErrUnsupportedInput)
}

func mapError(err error) error {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		baseErr := fmt.Errorf("openai API error (status %d): %s", apiErr.StatusCode, apiErr.Message)
		if apiErr.StatusCode == http.StatusTooManyRequests {
			retryAfter := 0
			if apiErr.Response != nil {
				retryAfter = extractor.ParseRetryAfterHeader(apiErr.Response.Header.Get("Retry-After"))
			}
			return extractor.NewRateLimitError("openai", baseErr, retryAfter)
		}
		return baseErr
	}
	return fmt.Errorf("calling openai API: %w", err)
}
