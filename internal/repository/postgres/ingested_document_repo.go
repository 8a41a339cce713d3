package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"itinera/internal/domain"
	"itinera/internal/port"
)

type ingestedDocumentRepo struct {
	db *sqlx.DB
}

// NewIngestedDocumentRepo creates a new PostgreSQL-backed IngestedDocumentRepository.
func NewIngestedDocumentRepo(db *sqlx.DB) port.IngestedDocumentRepository {
	return &ingestedDocumentRepo{db: db}
}

func (r *ingestedDocumentRepo) Create(ctx context.Context, doc *domain.IngestedDocument) error {
	if doc.ID == uuid.Nil {
		doc.ID = uuid.New()
	}
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = time.Now().UTC()
	}

	query := `INSERT INTO ingested_documents (
		id, owner_id, channel, mime_type, fingerprint, archive_key, subject,
		status, message, extractor_model,
		bookings_found, bookings_skipped, trips_created, trips_merged, created_at
	) VALUES (
		:id, :owner_id, :channel, :mime_type, :fingerprint, :archive_key, :subject,
		:status, :message, :extractor_model,
		:bookings_found, :bookings_skipped, :trips_created, :trips_merged, :created_at
	)`

	if _, err := r.db.NamedExecContext(ctx, query, doc); err != nil {
		return fmt.Errorf("ingestedDocumentRepo.Create: %w", err)
	}
	return nil
}

func (r *ingestedDocumentRepo) ListArchived(ctx context.Context, ownerID uuid.UUID, offset, limit int) ([]domain.IngestedDocument, error) {
	var docs []domain.IngestedDocument
	err := r.db.SelectContext(ctx, &docs,
		`SELECT * FROM ingested_documents
		 WHERE owner_id = $1 AND archive_key <> ''
		 ORDER BY created_at, id LIMIT $2 OFFSET $3`,
		ownerID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("ingestedDocumentRepo.ListArchived: %w", err)
	}
	return docs, nil
}
