package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"mime"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"itinera/internal/classifier"
	"itinera/internal/consolidator"
	"itinera/internal/domain"
	"itinera/internal/normalizer"
	"itinera/internal/pdfcheck"
	"itinera/internal/port"
	"itinera/internal/validator"
)

// Result messages returned to callers.
const (
	msgNotBooking    = "No booking detected in this document."
	msgNoBookings    = "No bookings extracted from this document."
	msgNotSaved      = "No bookings extracted: trips could not be saved. Please try again later."
	msgAlreadyStored = "All %d booking(s) in this document are already on your trips."
	msgCompleted     = "Found %d booking(s): %d trip(s) created, %d trip(s) updated."
)

// IngestionConfig bounds a single ingestion run.
type IngestionConfig struct {
	MaxDocumentBytes  int64
	MaxPDFPages       int
	ExtractionTimeout time.Duration
	TranscribeTimeout time.Duration
	BatchConcurrency  int
	ArchiveSources    bool
}

// IngestionDeps are the collaborators of the ingestion pipeline. Storage and
// Notifier are optional.
type IngestionDeps struct {
	Extractor    port.Extractor
	Validator    *validator.Engine
	Classifier   *classifier.Classifier
	Consolidator *consolidator.Consolidator
	Documents    port.IngestedDocumentRepository
	Archive      port.SourceArchive
	Notifier     port.Notifier
	Logger       *slog.Logger
}

// BatchItem is the outcome of one document in a batch.
type BatchItem struct {
	Result *domain.IngestionResult
	Err    error
}

// IngestionService turns inbound documents into bookings and trips.
type IngestionService interface {
	Ingest(ctx context.Context, doc *domain.InboundDocument) (*domain.IngestionResult, error)
	IngestBatch(ctx context.Context, docs []*domain.InboundDocument) []BatchItem
}

type ingestionService struct {
	cfg          IngestionConfig
	extractor    port.Extractor
	validator    *validator.Engine
	classifier   *classifier.Classifier
	consolidator *consolidator.Consolidator
	docs         port.IngestedDocumentRepository
	sources      port.SourceArchive
	notifier     port.Notifier
	logger       *slog.Logger
	schema       string
	pageCheck    func(data []byte, maxPages int) (int, error)
}

// NewIngestionService creates a new IngestionService implementation.
func NewIngestionService(cfg IngestionConfig, deps IngestionDeps) IngestionService {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.BatchConcurrency <= 0 {
		cfg.BatchConcurrency = 4
	}
	return &ingestionService{
		cfg:          cfg,
		extractor:    deps.Extractor,
		validator:    deps.Validator,
		classifier:   deps.Classifier,
		consolidator: deps.Consolidator,
		docs:         deps.Documents,
		sources:      deps.Archive,
		notifier:     deps.Notifier,
		logger:       logger,
		schema:       string(validator.ResponseSchema),
		pageCheck:    pdfcheck.Check,
	}
}

// Ingest runs one document through the pipeline. Only input rejections are
// returned as errors; every later failure degrades to a result with zero
// bookings and a descriptive message.
func (s *ingestionService) Ingest(ctx context.Context, doc *domain.InboundDocument) (*domain.IngestionResult, error) {
	if err := s.checkInput(doc); err != nil {
		return nil, fmt.Errorf("service.Ingest: %w", err)
	}

	run := &domain.IngestedDocument{
		ID:          uuid.New(),
		OwnerID:     doc.OwnerID,
		Channel:     doc.Channel,
		MimeType:    doc.MimeType,
		Fingerprint: Fingerprint(doc.Payload()),
		Subject:     doc.Subject,
		CreatedAt:   time.Now().UTC(),
	}
	run.ArchiveKey = s.archive(ctx, doc, run)

	result := s.process(ctx, doc, run)
	result.DocumentID = run.ID

	run.Message = result.Message
	run.BookingsFound = result.BookingsFound
	run.BookingsSkipped = result.BookingsSkipped
	run.TripsCreated = result.TripsCreated
	run.TripsMerged = result.TripsMerged
	if err := s.docs.Create(ctx, run); err != nil {
		s.logger.Warn("service.Ingest: recording ingestion failed", "document_id", run.ID, "error", err)
	}

	s.notify(ctx, doc, result)

	s.logger.Info("service.Ingest: completed",
		"document_id", run.ID, "owner_id", doc.OwnerID, "channel", doc.Channel,
		"status", run.Status, "bookings", result.BookingsFound,
		"trips_created", result.TripsCreated, "trips_merged", result.TripsMerged)
	return result, nil
}

// IngestBatch ingests documents concurrently, bounded by BatchConcurrency.
// Items are returned in input order; one failure never cancels the others.
func (s *ingestionService) IngestBatch(ctx context.Context, docs []*domain.InboundDocument) []BatchItem {
	items := make([]BatchItem, len(docs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.BatchConcurrency)
	for i, doc := range docs {
		g.Go(func() error {
			res, err := s.Ingest(gctx, doc)
			items[i] = BatchItem{Result: res, Err: err}
			return nil
		})
	}
	_ = g.Wait()
	return items
}

func (s *ingestionService) process(ctx context.Context, doc *domain.InboundDocument, run *domain.IngestedDocument) *domain.IngestionResult {
	text, ok := s.documentText(ctx, doc, run)
	if !ok {
		run.Status = domain.IngestStatusFailed
		return emptyResult(msgNoBookings)
	}

	verdict := s.classifier.Classify(text)
	if !verdict.Likely {
		s.logger.Info("service.Ingest: not a booking",
			"document_id", run.ID, "score", verdict.Score, "signals", verdict.Signals)
		run.Status = domain.IngestStatusNotBooking
		return emptyResult(msgNotBooking)
	}

	bookings, ok := s.extract(ctx, text, run)
	if !ok {
		run.Status = domain.IngestStatusFailed
		return emptyResult(msgNoBookings)
	}
	if len(bookings) == 0 {
		run.Status = domain.IngestStatusExtractionEmpty
		return emptyResult(msgNoBookings)
	}

	batch := consolidator.Batch{OwnerID: doc.OwnerID, DocumentID: &run.ID, Source: doc.Channel.TripSource()}
	outcome, err := s.consolidator.Consolidate(ctx, batch, bookings)
	if err != nil {
		s.logger.Error("service.Ingest: consolidation failed", "document_id", run.ID, "error", err)
		run.Status = domain.IngestStatusFailed
		res := emptyResult(msgNotSaved)
		res.Bookings = bookings
		res.BookingsFound = len(bookings)
		return res
	}

	run.Status = domain.IngestStatusCompleted
	return summarize(bookings, outcome)
}

// documentText returns the normalized text of doc, transcribing PDFs first.
func (s *ingestionService) documentText(ctx context.Context, doc *domain.InboundDocument, run *domain.IngestedDocument) (string, bool) {
	if doc.MimeType != domain.MimePDF {
		return normalizer.NormalizeDocument(doc), true
	}

	tctx, cancel := withTimeout(ctx, s.cfg.TranscribeTimeout)
	defer cancel()
	out, err := s.extractor.Transcribe(tctx, port.TranscribeInput{FileBytes: doc.SourceBytes, ContentType: domain.MimePDF})
	if err != nil {
		s.logger.Warn("service.Ingest: transcription failed", "document_id", run.ID, "error", err)
		return "", false
	}
	run.ExtractorModel = out.ModelUsed
	return normalizer.Normalize(out.Text, domain.MimeTextPlain), true
}

// extract calls the extractor under the extraction timeout and validates its
// output. ok is false when the extractor failed or returned no JSON payload.
func (s *ingestionService) extract(ctx context.Context, text string, run *domain.IngestedDocument) ([]domain.ParsedBooking, bool) {
	ectx, cancel := withTimeout(ctx, s.cfg.ExtractionTimeout)
	defer cancel()

	out, err := s.extractor.Extract(ectx, port.ExtractInput{Text: text, Schema: s.schema})
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			s.logger.Warn("service.Ingest: extraction timed out", "document_id", run.ID, "timeout", s.cfg.ExtractionTimeout)
		} else {
			s.logger.Warn("service.Ingest: extraction failed", "document_id", run.ID, "error", err)
		}
		return nil, false
	}
	run.ExtractorModel = out.ModelUsed

	report, err := s.validator.ValidateRaw(ctx, out.Raw)
	if err != nil {
		s.logger.Warn("service.Ingest: extractor output unparsable", "document_id", run.ID, "error", err)
		return nil, false
	}
	for _, rej := range report.Rejected {
		s.logger.Debug("service.Ingest: record rejected",
			"document_id", run.ID, "index", rej.Index, "rule", rej.RuleKey, "reason", rej.Message)
	}
	return report.Accepted, true
}

func (s *ingestionService) checkInput(doc *domain.InboundDocument) error {
	if doc == nil {
		return domain.ErrEmptyDocument
	}
	if doc.OwnerID == uuid.Nil {
		return domain.ErrMissingOwner
	}

	populated := 0
	for _, set := range []bool{doc.RawText != "", doc.RawHTML != "", len(doc.SourceBytes) > 0} {
		if set {
			populated++
		}
	}
	switch {
	case populated == 0:
		return domain.ErrEmptyDocument
	case populated > 1:
		return domain.ErrAmbiguousDocument
	}

	mt, err := normalizeMimeType(doc)
	if err != nil {
		return err
	}
	doc.MimeType = mt
	if doc.Channel == "" {
		doc.Channel = domain.ChannelUpload
	}

	if s.cfg.MaxDocumentBytes > 0 && int64(doc.Size()) > s.cfg.MaxDocumentBytes {
		return fmt.Errorf("%w: %d bytes (limit %d)", domain.ErrDocumentTooLarge, doc.Size(), s.cfg.MaxDocumentBytes)
	}

	if mt == domain.MimePDF {
		if _, err := s.pageCheck(doc.SourceBytes, s.cfg.MaxPDFPages); err != nil {
			return err
		}
		return nil
	}
	if strings.TrimSpace(string(doc.Payload())) == "" {
		return domain.ErrEmptyDocument
	}
	return nil
}

// normalizeMimeType strips parameters and infers a type from the populated
// field when none is given. PDFs must arrive as bytes.
func normalizeMimeType(doc *domain.InboundDocument) (string, error) {
	mt := strings.ToLower(strings.TrimSpace(doc.MimeType))
	if mt != "" {
		parsed, _, err := mime.ParseMediaType(mt)
		if err != nil {
			return "", fmt.Errorf("%w: %q", domain.ErrUnsupportedMimeType, doc.MimeType)
		}
		mt = parsed
	}
	if mt == "" {
		switch {
		case doc.RawHTML != "":
			mt = domain.MimeTextHTML
		case doc.RawText != "":
			mt = domain.MimeTextPlain
		case bytes.HasPrefix(doc.SourceBytes, []byte("%PDF-")):
			mt = domain.MimePDF
		}
	}
	if !domain.ValidMimeTypes[mt] {
		return "", fmt.Errorf("%w: %q", domain.ErrUnsupportedMimeType, doc.MimeType)
	}
	if mt == domain.MimePDF && len(doc.SourceBytes) == 0 {
		return "", domain.ErrAmbiguousDocument
	}
	return mt, nil
}

// archive stores the raw source and returns its key, or "" when archiving is
// disabled or fails. Replays are never re-archived.
func (s *ingestionService) archive(ctx context.Context, doc *domain.InboundDocument, run *domain.IngestedDocument) string {
	if !s.cfg.ArchiveSources || s.sources == nil || doc.Channel == domain.ChannelReplay {
		return ""
	}
	key := ArchiveKey(doc.OwnerID, run.Fingerprint, doc.MimeType)
	err := s.sources.Put(ctx, port.ArchivedSource{
		Key:         key,
		Payload:     doc.Payload(),
		ContentType: doc.MimeType,
		OwnerID:     doc.OwnerID.String(),
		DocumentID:  run.ID.String(),
		Channel:     string(doc.Channel),
	})
	if err != nil {
		s.logger.Warn("service.Ingest: archiving source failed", "document_id", run.ID, "key", key, "error", err)
		return ""
	}
	return key
}

func (s *ingestionService) notify(ctx context.Context, doc *domain.InboundDocument, result *domain.IngestionResult) {
	if s.notifier == nil || doc.Channel != domain.ChannelEmail || doc.ReplyTo == "" {
		return
	}
	if err := s.notifier.SendIngestionSummary(ctx, doc.ReplyTo, doc.Subject, result); err != nil {
		s.logger.Warn("service.Ingest: sending summary failed", "to", doc.ReplyTo, "error", err)
	}
}

// Fingerprint returns the hex xxhash64 of a document payload.
func Fingerprint(payload []byte) string {
	return fmt.Sprintf("%016x", xxhash.Sum64(payload))
}

// ArchiveKey builds the object key of an archived source:
// sources/{owner}/{fingerprint}.{ext}
func ArchiveKey(ownerID uuid.UUID, fingerprint, mimeType string) string {
	ext := "txt"
	switch mimeType {
	case domain.MimePDF:
		ext = "pdf"
	case domain.MimeTextHTML:
		ext = "html"
	}
	return fmt.Sprintf("sources/%s/%s.%s", ownerID, fingerprint, ext)
}

// withTimeout applies d when positive.
func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}

func emptyResult(msg string) *domain.IngestionResult {
	return &domain.IngestionResult{
		Message:  msg,
		Bookings: []domain.ParsedBooking{},
		Trips:    []domain.TripSummary{},
	}
}

func summarize(bookings []domain.ParsedBooking, outcome *consolidator.Outcome) *domain.IngestionResult {
	res := &domain.IngestionResult{
		Success:         true,
		BookingsFound:   len(bookings),
		BookingsSkipped: outcome.BookingsSkipped,
		TripsCreated:    outcome.TripsCreated,
		TripsMerged:     outcome.TripsMerged,
		Bookings:        bookings,
		Trips:           make([]domain.TripSummary, 0, len(outcome.Trips)),
	}
	for _, tr := range outcome.Trips {
		res.Trips = append(res.Trips, domain.TripSummary{
			ID:           tr.Trip.ID,
			Name:         tr.Trip.Name,
			Destination:  tr.Trip.Destination,
			StartDate:    tr.Trip.DateRange.Start,
			EndDate:      tr.Trip.DateRange.End,
			BookingCount: len(tr.Bookings),
			Merged:       tr.Merged,
		})
	}

	if outcome.BookingsInserted == 0 {
		res.Message = fmt.Sprintf(msgAlreadyStored, len(bookings))
	} else {
		res.Message = fmt.Sprintf(msgCompleted, len(bookings), outcome.TripsCreated, outcome.TripsMerged)
	}
	return res
}
