package port

import (
	"context"

	"itinera/internal/domain"
)

// Notifier tells a traveler what an ingestion run did with their email.
type Notifier interface {
	SendIngestionSummary(ctx context.Context, toEmail, subject string, result *domain.IngestionResult) error
}
