package port

import (
	"context"

	"github.com/google/uuid"

	"itinera/internal/domain"
)

// IngestedDocumentRepository records one audit row per ingestion run.
type IngestedDocumentRepository interface {
	Create(ctx context.Context, doc *domain.IngestedDocument) error
	ListArchived(ctx context.Context, ownerID uuid.UUID, offset, limit int) ([]domain.IngestedDocument, error)
}
