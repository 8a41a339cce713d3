package extractor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"itinera/internal/domain"
	"itinera/internal/port"
	"itinera/internal/validator"
)

// MergeExtractor runs two extractors in parallel and unions their candidate
// records. Duplicates across the two are resolved later by the validator's
// in-batch dedupe, which keeps the higher-confidence copy.
type MergeExtractor struct {
	primary   port.Extractor
	secondary port.Extractor
	logger    *slog.Logger
}

// NewMergeExtractor creates a MergeExtractor from primary and secondary extractors.
func NewMergeExtractor(primary, secondary port.Extractor, logger *slog.Logger) *MergeExtractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &MergeExtractor{primary: primary, secondary: secondary, logger: logger}
}

func (m *MergeExtractor) Extract(ctx context.Context, input port.ExtractInput) (*port.ExtractOutput, error) {
	var (
		g          errgroup.Group
		pOut, sOut *port.ExtractOutput
		pErr, sErr error
	)
	g.Go(func() error {
		pOut, pErr = m.primary.Extract(ctx, input)
		return nil
	})
	g.Go(func() error {
		sOut, sErr = m.secondary.Extract(ctx, input)
		return nil
	})
	_ = g.Wait()

	switch {
	case pErr != nil && sErr != nil:
		return nil, fmt.Errorf("both extractors failed: primary: %v; secondary: %w", pErr, sErr)
	case pErr != nil:
		m.logger.Warn("extractor.MergeExtractor: primary failed, using secondary only", "error", pErr)
		return sOut, nil
	case sErr != nil:
		m.logger.Warn("extractor.MergeExtractor: secondary failed, using primary only", "error", sErr)
		return pOut, nil
	}

	return mergeOutputs(pOut, sOut, m.logger), nil
}

// Transcribe uses the primary and falls back to the secondary; transcripts are
// not merged.
func (m *MergeExtractor) Transcribe(ctx context.Context, input port.TranscribeInput) (*port.TranscribeOutput, error) {
	out, err := m.primary.Transcribe(ctx, input)
	if err == nil {
		return out, nil
	}
	if !errors.Is(err, domain.ErrUnsupportedInput) {
		m.logger.Warn("extractor.MergeExtractor: primary transcription failed", "error", err)
	}
	return m.secondary.Transcribe(ctx, input)
}

func mergeOutputs(primary, secondary *port.ExtractOutput, logger *slog.Logger) *port.ExtractOutput {
	pItems, pErr := validator.DecodeCandidates(primary.Raw)
	sItems, sErr := validator.DecodeCandidates(secondary.Raw)
	switch {
	case pErr != nil && sErr != nil:
		return primary
	case pErr != nil:
		logger.Warn("extractor.MergeExtractor: primary output unparsable, using secondary", "error", pErr)
		return secondary
	case sErr != nil:
		logger.Warn("extractor.MergeExtractor: secondary output unparsable, using primary", "error", sErr)
		return primary
	}

	union := make([]json.RawMessage, 0, len(pItems)+len(sItems))
	union = append(union, pItems...)
	union = append(union, sItems...)
	raw, err := json.Marshal(struct {
		Bookings []json.RawMessage `json:"bookings"`
	}{Bookings: union})
	if err != nil {
		return primary
	}

	return &port.ExtractOutput{
		Raw:        string(raw),
		ModelUsed:  primary.ModelUsed + "+" + secondary.ModelUsed,
		PromptUsed: primary.PromptUsed,
	}
}
