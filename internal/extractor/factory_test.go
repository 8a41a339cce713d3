package extractor_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"itinera/internal/config"
	"itinera/internal/extractor"
	"itinera/internal/port"
	"itinera/mocks"
)

func registerStub(name string) {
	extractor.RegisterProvider(name, func(cfg *config.ExtractorProviderConfig) (port.Extractor, error) {
		return new(mocks.MockExtractor), nil
	})
}

func TestNewExtractor_UnknownProvider(t *testing.T) {
	_, err := extractor.NewExtractor(&config.ExtractorProviderConfig{Provider: "nope"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown extractor provider")
}

func TestBuild_SingleProvider(t *testing.T) {
	registerStub("stub-a")

	ex, err := extractor.Build(&config.ExtractorConfig{
		Mode:    "fallback",
		Primary: config.ExtractorProviderConfig{Provider: "stub-a"},
	}, nil)

	require.NoError(t, err)
	assert.IsType(t, &extractor.RetryingExtractor{}, ex)
}

func TestBuild_FallbackChain(t *testing.T) {
	registerStub("stub-a")
	registerStub("stub-b")

	ex, err := extractor.Build(&config.ExtractorConfig{
		Mode:      "fallback",
		Primary:   config.ExtractorProviderConfig{Provider: "stub-a"},
		Secondary: config.ExtractorProviderConfig{Provider: "stub-b"},
	}, nil)

	require.NoError(t, err)
	assert.IsType(t, &extractor.FallbackExtractor{}, ex)
}

func TestBuild_MergeMode(t *testing.T) {
	registerStub("stub-a")
	registerStub("stub-b")

	ex, err := extractor.Build(&config.ExtractorConfig{
		Mode:      "merge",
		Primary:   config.ExtractorProviderConfig{Provider: "stub-a"},
		Secondary: config.ExtractorProviderConfig{Provider: "stub-b"},
	}, nil)

	require.NoError(t, err)
	assert.IsType(t, &extractor.MergeExtractor{}, ex)
}

func TestBuild_MergeModeNeedsSecondary(t *testing.T) {
	registerStub("stub-a")

	_, err := extractor.Build(&config.ExtractorConfig{
		Mode:    "merge",
		Primary: config.ExtractorProviderConfig{Provider: "stub-a"},
	}, nil)

	require.Error(t, err)
}
