// Package consolidatortest provides an in-memory port.TripRepository for
// tests that exercise the consolidator end to end.
package consolidatortest

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"itinera/internal/domain"
	"itinera/internal/port"
)

// Store is a thread-safe in-memory trip and booking store.
type Store struct {
	mu       sync.Mutex
	trips    map[uuid.UUID]*domain.StoredTrip
	bookings map[uuid.UUID]*domain.BookingRecord
	keys     map[uuid.UUID]map[domain.BookingKey]uuid.UUID
	now      func() time.Time
}

var _ port.TripRepository = (*Store)(nil)

// NewStore creates an empty Store.
func NewStore() *Store {
	return &Store{
		trips:    make(map[uuid.UUID]*domain.StoredTrip),
		bookings: make(map[uuid.UUID]*domain.BookingRecord),
		keys:     make(map[uuid.UUID]map[domain.BookingKey]uuid.UUID),
		now:      time.Now,
	}
}

// AddTrip seeds a stored trip and returns it.
func (s *Store) AddTrip(ownerID uuid.UUID, r domain.DateRange, name string, nameSource domain.TripNameSource) *domain.StoredTrip {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := &domain.StoredTrip{
		ID:         uuid.New(),
		OwnerID:    ownerID,
		DateRange:  r,
		Name:       name,
		NameSource: nameSource,
		Source:     domain.TripSourceManual,
		CreatedAt:  s.now(),
		UpdatedAt:  s.now(),
	}
	s.trips[t.ID] = t
	cp := *t
	return &cp
}

// Trips returns the owner's trips ordered by start date.
func (s *Store) Trips(ownerID uuid.UUID) []domain.StoredTrip {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tripsLocked(ownerID)
}

// Bookings returns every booking stored for the owner.
func (s *Store) Bookings(ownerID uuid.UUID) []domain.BookingRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.BookingRecord
	for _, b := range s.bookings {
		if b.OwnerID == ownerID {
			out = append(out, *b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartDate.Before(out[j].StartDate) })
	return out
}

func (s *Store) tripsLocked(ownerID uuid.UUID) []domain.StoredTrip {
	var out []domain.StoredTrip
	for _, t := range s.trips {
		if t.OwnerID == ownerID {
			out = append(out, *t)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].DateRange.Start.Before(out[j].DateRange.Start)
	})
	return out
}

func (s *Store) FindTripsOverlapping(_ context.Context, ownerID uuid.UUID, r domain.DateRange) ([]domain.StoredTrip, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.StoredTrip
	for _, t := range s.tripsLocked(ownerID) {
		if t.DateRange.Overlaps(r) {
			out = append(out, t)
		}
	}
	return out, nil
}

func (s *Store) ExistingBookingKeys(_ context.Context, ownerID uuid.UUID, keys []domain.BookingKey) (map[domain.BookingKey]bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[domain.BookingKey]bool)
	for _, k := range keys {
		if _, ok := s.keys[ownerID][k]; ok {
			out[k] = true
		}
	}
	return out, nil
}

func (s *Store) CreateOrExtendTrip(_ context.Context, ownerID uuid.UUID, upsert port.TripUpsert) (*domain.StoredTrip, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	if upsert.TripID == nil {
		t := &domain.StoredTrip{
			ID:          uuid.New(),
			OwnerID:     ownerID,
			DateRange:   upsert.DateRange,
			Name:        upsert.Name,
			NameSource:  domain.TripNameGenerated,
			Destination: upsert.Destination,
			Source:      upsert.Source,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		s.trips[t.ID] = t
		cp := *t
		return &cp, nil
	}

	t, ok := s.trips[*upsert.TripID]
	if !ok || t.OwnerID != ownerID {
		return nil, domain.ErrTripNotFound
	}
	t.DateRange = t.DateRange.Union(upsert.DateRange)
	if !t.HasName() {
		t.Name = upsert.Name
		t.NameSource = domain.TripNameGenerated
	}
	if t.Destination == "" {
		t.Destination = upsert.Destination
	}
	t.UpdatedAt = now
	cp := *t
	return &cp, nil
}

func (s *Store) UpsertBooking(_ context.Context, ownerID, tripID uuid.UUID, documentID *uuid.UUID, b domain.ParsedBooking) (domain.UpsertOutcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.keys[ownerID][b.StorageKey()]; ok {
		return domain.UpsertSkipped, nil
	}
	t, ok := s.trips[tripID]
	if !ok || t.OwnerID != ownerID {
		return "", domain.ErrTripNotFound
	}
	rec := &domain.BookingRecord{
		ParsedBooking: b,
		ID:            uuid.New(),
		OwnerID:       ownerID,
		TripID:        tripID,
		DocumentID:    documentID,
		CreatedAt:     s.now(),
	}
	s.bookings[rec.ID] = rec
	t.BookingRefs = append(t.BookingRefs, rec.ID)
	if s.keys[ownerID] == nil {
		s.keys[ownerID] = make(map[domain.BookingKey]uuid.UUID)
	}
	s.keys[ownerID][b.StorageKey()] = rec.ID
	return domain.UpsertInserted, nil
}

func (s *Store) ListTrips(_ context.Context, ownerID uuid.UUID, offset, limit int) ([]domain.StoredTrip, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	all := s.tripsLocked(ownerID)
	total := len(all)
	if offset >= total {
		return []domain.StoredTrip{}, total, nil
	}
	end := offset + limit
	if limit <= 0 || end > total {
		end = total
	}
	return all[offset:end], total, nil
}

func (s *Store) GetTrip(_ context.Context, ownerID, tripID uuid.UUID) (*domain.StoredTrip, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.trips[tripID]
	if !ok || t.OwnerID != ownerID {
		return nil, domain.ErrTripNotFound
	}
	cp := *t
	return &cp, nil
}

func (s *Store) ListBookings(_ context.Context, ownerID, tripID uuid.UUID) ([]domain.BookingRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.BookingRecord
	for _, b := range s.bookings {
		if b.OwnerID == ownerID && b.TripID == tripID {
			out = append(out, *b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartDate.Before(out[j].StartDate) })
	return out, nil
}

func (s *Store) RenameTrip(_ context.Context, ownerID, tripID uuid.UUID, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.trips[tripID]
	if !ok || t.OwnerID != ownerID {
		return domain.ErrTripNotFound
	}
	t.Name = name
	t.NameSource = domain.TripNameUser
	t.UpdatedAt = s.now()
	return nil
}
