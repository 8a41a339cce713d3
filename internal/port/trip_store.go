package port

import (
	"context"

	"github.com/google/uuid"

	"itinera/internal/domain"
)

// TripUpsert describes a trip write produced by reconciliation. A nil TripID
// creates a new trip; otherwise the trip's range is extended to the union.
// Name is only applied to new trips or trips that have no name yet.
type TripUpsert struct {
	TripID      *uuid.UUID
	DateRange   domain.DateRange
	Name        string
	Destination string
	Source      domain.TripSource
}

// TripStore is the persistence gateway used by the consolidator.
// All methods are scoped to one owner.
type TripStore interface {
	FindTripsOverlapping(ctx context.Context, ownerID uuid.UUID, r domain.DateRange) ([]domain.StoredTrip, error)
	ExistingBookingKeys(ctx context.Context, ownerID uuid.UUID, keys []domain.BookingKey) (map[domain.BookingKey]bool, error)
	CreateOrExtendTrip(ctx context.Context, ownerID uuid.UUID, upsert TripUpsert) (*domain.StoredTrip, error)
	UpsertBooking(ctx context.Context, ownerID, tripID uuid.UUID, documentID *uuid.UUID, booking domain.ParsedBooking) (domain.UpsertOutcome, error)
}

// TripReader serves the itinerary read side.
type TripReader interface {
	ListTrips(ctx context.Context, ownerID uuid.UUID, offset, limit int) ([]domain.StoredTrip, int, error)
	GetTrip(ctx context.Context, ownerID, tripID uuid.UUID) (*domain.StoredTrip, error)
	ListBookings(ctx context.Context, ownerID, tripID uuid.UUID) ([]domain.BookingRecord, error)
	RenameTrip(ctx context.Context, ownerID, tripID uuid.UUID, name string) error
}

// TripRepository combines the write gateway and the read side.
type TripRepository interface {
	TripStore
	TripReader
}
