package noop

import (
	"context"
	"log/slog"

	"itinera/internal/domain"
	"itinera/internal/email"
	"itinera/internal/port"
)

type noopSender struct {
	frontendURL string
	logger      *slog.Logger
}

// NewNoopSender creates a Notifier that logs summaries instead of sending them.
func NewNoopSender(frontendURL string, logger *slog.Logger) port.Notifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &noopSender{frontendURL: frontendURL, logger: logger}
}

func (s *noopSender) SendIngestionSummary(_ context.Context, toEmail, subject string, result *domain.IngestionResult) error {
	summary := email.RenderSummary(subject, result, s.frontendURL)
	s.logger.Info("noop email: ingestion summary",
		"to", toEmail,
		"subject", summary.Subject,
		"trips", len(result.Trips),
		"body", summary.Text,
	)
	return nil
}
