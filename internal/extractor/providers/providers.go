// Package providers registers every built-in extractor provider.
package providers

import (
	"itinera/internal/extractor"
	"itinera/internal/extractor/claude"
	"itinera/internal/extractor/gemini"
	"itinera/internal/extractor/openai"
)

// RegisterAll makes claude, gemini and openai available to extractor.Build.
func RegisterAll() {
	extractor.RegisterProvider("claude", claude.Factory)
	extractor.RegisterProvider("gemini", gemini.Factory)
	extractor.RegisterProvider("openai", openai.Factory)
}
