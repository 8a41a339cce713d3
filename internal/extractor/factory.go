// Package extractor builds the language-model collaborators behind
// port.Extractor and composes them into fallback, merge and retry chains.
package extractor

import (
	"fmt"
	"log/slog"

	"itinera/internal/config"
	"itinera/internal/port"
)

// ProviderFactory is a function that creates an Extractor from a provider config.
type ProviderFactory func(cfg *config.ExtractorProviderConfig) (port.Extractor, error)

// registry of extractor provider factories, populated by RegisterProvider at startup.
var providers = map[string]ProviderFactory{}

// RegisterProvider registers an extractor provider factory by name.
func RegisterProvider(name string, factory ProviderFactory) {
	providers[name] = factory
}

// NewExtractor creates an Extractor from a provider config using the registered factory.
func NewExtractor(cfg *config.ExtractorProviderConfig) (port.Extractor, error) {
	factory, ok := providers[cfg.Provider]
	if !ok {
		return nil, fmt.Errorf("unknown extractor provider: %s", cfg.Provider)
	}
	return factory(cfg)
}

// Build assembles the configured providers. Each provider is wrapped in a
// RetryingExtractor; in merge mode the primary and secondary run
// concurrently, otherwise all providers form a fallback chain.
func Build(cfg *config.ExtractorConfig, logger *slog.Logger) (port.Extractor, error) {
	if logger == nil {
		logger = slog.Default()
	}

	provCfgs := cfg.ProviderConfigs()
	extractors := make([]port.Extractor, 0, len(provCfgs))
	names := make([]string, 0, len(provCfgs))
	for _, pc := range provCfgs {
		ex, err := NewExtractor(pc)
		if err != nil {
			return nil, fmt.Errorf("creating %s extractor: %w", pc.Provider, err)
		}
		extractors = append(extractors, NewRetryingExtractor(ex, pc.Provider, pc.MaxRetries, logger))
		names = append(names, pc.Provider)
	}

	if cfg.Mode == "merge" {
		if len(extractors) < 2 {
			return nil, fmt.Errorf("merge mode requires a secondary extractor provider")
		}
		logger.Info("extractor.Build: merge mode", "primary", names[0], "secondary", names[1])
		return NewMergeExtractor(extractors[0], extractors[1], logger), nil
	}

	if len(extractors) == 1 {
		logger.Info("extractor.Build: single provider", "provider", names[0])
		return extractors[0], nil
	}
	logger.Info("extractor.Build: fallback chain", "providers", names)
	return NewFallbackExtractor(extractors, names, logger), nil
}
