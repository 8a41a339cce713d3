package gemini

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"google.golang.org/genai"

	"itinera/internal/config"
	"itinera/internal/domain"
	"itinera/internal/extractor"
	"itinera/internal/port"
)

const defaultModel = "gemini-2.5-flash"

// Extractor implements port.Extractor using Google Gemini.
type Extractor struct {
	client *genai.Client
	model  string
}

// New creates a Gemini-based extractor.
func New(ctx context.Context, cfg *config.ExtractorProviderConfig) (*Extractor, error) {
	return newExtractor(ctx, cfg, "")
}

// NewWithEndpoint creates an extractor pointing at a custom API base URL (for testing).
func NewWithEndpoint(ctx context.Context, cfg *config.ExtractorProviderConfig, baseURL string) (*Extractor, error) {
	return newExtractor(ctx, cfg, baseURL)
}

// Factory adapts New to extractor.ProviderFactory.
func Factory(cfg *config.ExtractorProviderConfig) (port.Extractor, error) {
	return New(context.Background(), cfg)
}

func newExtractor(ctx context.Context, cfg *config.ExtractorProviderConfig, baseURL string) (*Extractor, error) {
	model := cfg.DefaultModel
	if model == "" {
		model = defaultModel
	}
	timeout := time.Duration(cfg.TimeoutSecs) * time.Second
	if timeout == 0 {
		timeout = 120 * time.Second
	}

	clientCfg := &genai.ClientConfig{
		APIKey:     cfg.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: &http.Client{Timeout: timeout},
	}
	if baseURL != "" {
		clientCfg.HTTPOptions = genai.HTTPOptions{BaseURL: baseURL}
	}

	client, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		return nil, fmt.Errorf("creating gemini client: %w", err)
	}
	return &Extractor{client: client, model: model}, nil
}

func (e *Extractor) Extract(ctx context.Context, input port.ExtractInput) (*port.ExtractOutput, error) {
	prompt := extractor.BuildBookingPrompt(input.Schema)
	parts := []*genai.Part{{Text: prompt}, {Text: input.Text}}

	text, err := e.generate(ctx, parts, "application/json")
	if err != nil {
		return nil, err
	}
	return &port.ExtractOutput{Raw: text, ModelUsed: e.model, PromptUsed: prompt}, nil
}

func (e *Extractor) Transcribe(ctx context.Context, input port.TranscribeInput) (*port.TranscribeOutput, error) {
	if input.ContentType != domain.MimePDF {
		return nil, fmt.Errorf("gemini: %s: %w", input.ContentType, domain.ErrUnsupportedInput)
	}
	parts := []*genai.Part{
		{InlineData: &genai.Blob{MIMEType: domain.MimePDF, Data: input.FileBytes}},
		{Text: extractor.BuildTranscribePrompt()},
	}

	text, err := e.generate(ctx, parts, "")
	if err != nil {
		return nil, err
	}
	return &port.TranscribeOutput{Text: text, ModelUsed: e.model}, nil
}

func (e *Extractor) generate(ctx context.Context, parts []*genai.Part, responseMIME string) (string, error) {
	temp := float32(0)
	cfg := &genai.GenerateContentConfig{Temperature: &temp}
	if responseMIME != "" {
		cfg.ResponseMIMEType = responseMIME
	}

	result, err := e.client.Models.GenerateContent(ctx, e.model,
		[]*genai.Content{{Role: "user", Parts: parts}},
		cfg,
	)
	if err != nil {
		return "", mapError(err)
	}
	if result == nil {
		return "", fmt.Errorf("gemini returned nil result")
	}

	text := strings.TrimSpace(result.Text())
	if text == "" {
		return "", fmt.Errorf("empty response from gemini")
	}
	return text, nil
}

func mapError(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		baseErr := fmt.Errorf("gemini API error (status %d): %s", apiErr.Code, apiErr.Message)
		if apiErr.Code == http.StatusTooManyRequests {
			return extractor.NewRateLimitError("gemini", baseErr, 0)
		}
		return baseErr
	}
	return fmt.Errorf("calling gemini API: %w", err)
}
