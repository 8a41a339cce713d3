package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/google/uuid"
)

// Column limits of the trips and bookings tables, in characters.
const (
	MaxTripNameLen     = 120
	MaxPlaceLen        = 255
	MaxConfirmationLen = 100
)

// BookingKey is the natural key of a booking within one owner's data.
type BookingKey struct {
	Type               BookingType
	ConfirmationNumber string
}

// ParsedBooking is one validated reservation. It is immutable once the
// validator has produced it.
type ParsedBooking struct {
	Type               BookingType `json:"type"`
	ConfirmationNumber string      `json:"confirmation_number,omitempty"`
	StartDate          Date        `json:"start_date"`
	EndDate            Date        `json:"end_date"`
	Origin             string      `json:"origin,omitempty"`
	Destination        string      `json:"destination,omitempty"`
	ProviderName       string      `json:"provider_name,omitempty"`
	Price              *Money      `json:"price,omitempty"`
	RawSourceExcerpt   string      `json:"raw_source_excerpt,omitempty"`
	Confidence         float64     `json:"confidence"`
}

// Key returns the (type, confirmation number) natural key.
func (b ParsedBooking) Key() BookingKey {
	return BookingKey{Type: b.Type, ConfirmationNumber: b.ConfirmationNumber}
}

// HasKey reports whether the booking can be matched by natural key.
func (b ParsedBooking) HasKey() bool {
	return b.ConfirmationNumber != ""
}

// StorageKey is the per-owner idempotence key. Bookings without a
// confirmation number get a key derived from their dates and places.
func (b ParsedBooking) StorageKey() BookingKey {
	if b.HasKey() {
		return b.Key()
	}
	fields := strings.Join([]string{
		b.StartDate.String(), b.EndDate.String(),
		strings.ToUpper(b.Origin), strings.ToUpper(b.Destination), strings.ToUpper(b.ProviderName),
	}, "|")
	return BookingKey{Type: b.Type, ConfirmationNumber: fmt.Sprintf("auto:%016x", xxhash.Sum64String(fields))}
}

// Range returns the booking's date span.
func (b ParsedBooking) Range() DateRange {
	return DateRange{Start: b.StartDate, End: b.EndDate}
}

// TripDraft is a transient cluster of bookings produced by one ingestion run.
type TripDraft struct {
	DateRange   DateRange       `json:"date_range"`
	Destination string          `json:"destination,omitempty"`
	Name        string          `json:"name"`
	Bookings    []ParsedBooking `json:"bookings"`
}

// StoredTrip is a trip owned by the persistence layer.
type StoredTrip struct {
	ID          uuid.UUID      `json:"id"`
	OwnerID     uuid.UUID      `json:"owner_id"`
	DateRange   DateRange      `json:"date_range"`
	Name        string         `json:"name"`
	NameSource  TripNameSource `json:"name_source"`
	Destination string         `json:"destination,omitempty"`
	Source      TripSource     `json:"source"`
	BookingRefs []uuid.UUID    `json:"booking_refs"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// HasName reports whether the trip already carries a user- or import-assigned name.
func (t *StoredTrip) HasName() bool {
	return t.Name != ""
}

// BookingRecord is a persisted booking attached to a trip.
type BookingRecord struct {
	ParsedBooking
	ID         uuid.UUID  `json:"id"`
	OwnerID    uuid.UUID  `json:"owner_id"`
	TripID     uuid.UUID  `json:"trip_id"`
	DocumentID *uuid.UUID `json:"document_id,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
}

// TripWithBookings is the read model served to the itinerary view.
type TripWithBookings struct {
	StoredTrip
	Bookings []BookingRecord `json:"bookings"`
}

// InboundDocument is one document delivered for ingestion. Exactly one of
// RawText, RawHTML and SourceBytes is populated.
type InboundDocument struct {
	RawText     string        `json:"raw_text,omitempty"`
	RawHTML     string        `json:"raw_html,omitempty"`
	SourceBytes []byte        `json:"-"`
	MimeType    string        `json:"mime_type"`
	OwnerID     uuid.UUID     `json:"owner_id"`
	Channel     IngestChannel `json:"channel"`
	Subject     string        `json:"subject,omitempty"`
	ReplyTo     string        `json:"reply_to,omitempty"`
	Filename    string        `json:"filename,omitempty"`
}

// Size returns the payload size in bytes.
func (d *InboundDocument) Size() int {
	return len(d.RawText) + len(d.RawHTML) + len(d.SourceBytes)
}

// Payload returns the raw bytes of whichever content field is populated.
func (d *InboundDocument) Payload() []byte {
	switch {
	case len(d.SourceBytes) > 0:
		return d.SourceBytes
	case d.RawHTML != "":
		return []byte(d.RawHTML)
	default:
		return []byte(d.RawText)
	}
}

// TripSummary is the per-trip entry of an ingestion result.
type TripSummary struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	Destination  string    `json:"destination,omitempty"`
	StartDate    Date      `json:"start_date"`
	EndDate      Date      `json:"end_date"`
	BookingCount int       `json:"booking_count"`
	Merged       bool      `json:"merged"`
}

// IngestionResult is returned to the caller of one ingestion run.
type IngestionResult struct {
	Success         bool            `json:"success"`
	Message         string          `json:"message"`
	DocumentID      uuid.UUID       `json:"document_id"`
	BookingsFound   int             `json:"bookings_found"`
	BookingsSkipped int             `json:"bookings_skipped"`
	TripsCreated    int             `json:"trips_created"`
	TripsMerged     int             `json:"trips_merged"`
	Bookings        []ParsedBooking `json:"bookings"`
	Trips           []TripSummary   `json:"trips"`
}

// IngestedDocument is the audit row written for every ingestion run.
type IngestedDocument struct {
	ID              uuid.UUID     `db:"id" json:"id"`
	OwnerID         uuid.UUID     `db:"owner_id" json:"owner_id"`
	Channel         IngestChannel `db:"channel" json:"channel"`
	MimeType        string        `db:"mime_type" json:"mime_type"`
	Fingerprint     string        `db:"fingerprint" json:"fingerprint"`
	ArchiveKey      string        `db:"archive_key" json:"archive_key"`
	Subject         string        `db:"subject" json:"subject"`
	Status          IngestStatus  `db:"status" json:"status"`
	Message         string        `db:"message" json:"message"`
	ExtractorModel  string        `db:"extractor_model" json:"extractor_model"`
	BookingsFound   int           `db:"bookings_found" json:"bookings_found"`
	BookingsSkipped int           `db:"bookings_skipped" json:"bookings_skipped"`
	TripsCreated    int           `db:"trips_created" json:"trips_created"`
	TripsMerged     int           `db:"trips_merged" json:"trips_merged"`
	CreatedAt       time.Time     `db:"created_at" json:"created_at"`
}

// Airport is one entry of the airport directory.
type Airport struct {
	IATACode string `db:"iata_code" json:"iata_code"`
	Name     string `db:"name" json:"name"`
	City     string `db:"city" json:"city"`
	Country  string `db:"country" json:"country"`
}
