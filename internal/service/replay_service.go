package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"itinera/internal/domain"
	"itinera/internal/port"
)

const replayPageSize = 50

// ReplaySummary counts what a replay did.
type ReplaySummary struct {
	Documents    int
	Failed       int
	Bookings     int
	TripsCreated int
	TripsMerged  int
}

// ReplayService re-ingests archived sources. Ingestion is idempotent, so a
// replay only adds bookings that were missed the first time.
type ReplayService struct {
	ingest  IngestionService
	docs    port.IngestedDocumentRepository
	sources port.SourceArchive
	logger  *slog.Logger
}

// NewReplayService creates a ReplayService.
func NewReplayService(ingest IngestionService, docs port.IngestedDocumentRepository, sources port.SourceArchive, logger *slog.Logger) *ReplayService {
	if logger == nil {
		logger = slog.Default()
	}
	return &ReplayService{ingest: ingest, docs: docs, sources: sources, logger: logger}
}

// ReplayOwner re-ingests up to limit archived documents of one owner, or all
// of them when limit <= 0. Documents are processed in batches.
func (s *ReplayService) ReplayOwner(ctx context.Context, ownerID uuid.UUID, limit int) (*ReplaySummary, error) {
	summary := &ReplaySummary{}
	seen := map[string]bool{}

	for offset := 0; ; offset += replayPageSize {
		rows, err := s.docs.ListArchived(ctx, ownerID, offset, replayPageSize)
		if err != nil {
			return summary, fmt.Errorf("service.ReplayOwner: listing archived documents: %w", err)
		}
		if len(rows) == 0 {
			break
		}

		var batch []*domain.InboundDocument
		for i := range rows {
			row := &rows[i]
			if seen[row.ArchiveKey] {
				continue
			}
			seen[row.ArchiveKey] = true
			if limit > 0 && summary.Documents+len(batch) >= limit {
				break
			}

			doc, err := s.load(ctx, row)
			if err != nil {
				s.logger.Warn("service.ReplayOwner: loading archived source failed", "key", row.ArchiveKey, "error", err)
				summary.Failed++
				continue
			}
			batch = append(batch, doc)
		}

		for _, item := range s.ingest.IngestBatch(ctx, batch) {
			summary.Documents++
			if item.Err != nil {
				summary.Failed++
				continue
			}
			summary.Bookings += item.Result.BookingsFound - item.Result.BookingsSkipped
			summary.TripsCreated += item.Result.TripsCreated
			summary.TripsMerged += item.Result.TripsMerged
		}

		if len(rows) < replayPageSize || (limit > 0 && summary.Documents >= limit) {
			break
		}
	}

	s.logger.Info("service.ReplayOwner: completed",
		"owner_id", ownerID, "documents", summary.Documents, "failed", summary.Failed,
		"bookings", summary.Bookings, "trips_created", summary.TripsCreated, "trips_merged", summary.TripsMerged)
	return summary, nil
}

func (s *ReplayService) load(ctx context.Context, row *domain.IngestedDocument) (*domain.InboundDocument, error) {
	data, err := s.sources.Get(ctx, row.ArchiveKey)
	if err != nil {
		return nil, err
	}
	doc := &domain.InboundDocument{
		MimeType: row.MimeType,
		OwnerID:  row.OwnerID,
		Channel:  domain.ChannelReplay,
		Subject:  row.Subject,
	}
	switch row.MimeType {
	case domain.MimePDF:
		doc.SourceBytes = data
	case domain.MimeTextHTML:
		doc.RawHTML = string(data)
	default:
		doc.RawText = string(data)
	}
	return doc, nil
}
