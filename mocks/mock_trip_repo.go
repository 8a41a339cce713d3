package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"itinera/internal/domain"
	"itinera/internal/port"
)

// MockTripRepository is a mock implementation of port.TripRepository.
type MockTripRepository struct {
	mock.Mock
}

func (m *MockTripRepository) FindTripsOverlapping(ctx context.Context, ownerID uuid.UUID, r domain.DateRange) ([]domain.StoredTrip, error) {
	args := m.Called(ctx, ownerID, r)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.StoredTrip), args.Error(1)
}

func (m *MockTripRepository) ExistingBookingKeys(ctx context.Context, ownerID uuid.UUID, keys []domain.BookingKey) (map[domain.BookingKey]bool, error) {
	args := m.Called(ctx, ownerID, keys)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[domain.BookingKey]bool), args.Error(1)
}

func (m *MockTripRepository) CreateOrExtendTrip(ctx context.Context, ownerID uuid.UUID, upsert port.TripUpsert) (*domain.StoredTrip, error) {
	args := m.Called(ctx, ownerID, upsert)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.StoredTrip), args.Error(1)
}

func (m *MockTripRepository) UpsertBooking(ctx context.Context, ownerID, tripID uuid.UUID, documentID *uuid.UUID, booking domain.ParsedBooking) (domain.UpsertOutcome, error) {
	args := m.Called(ctx, ownerID, tripID, documentID, booking)
	return args.Get(0).(domain.UpsertOutcome), args.Error(1)
}

func (m *MockTripRepository) ListTrips(ctx context.Context, ownerID uuid.UUID, offset, limit int) ([]domain.StoredTrip, int, error) {
	args := m.Called(ctx, ownerID, offset, limit)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]domain.StoredTrip), args.Int(1), args.Error(2)
}

func (m *MockTripRepository) GetTrip(ctx context.Context, ownerID, tripID uuid.UUID) (*domain.StoredTrip, error) {
	args := m.Called(ctx, ownerID, tripID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.StoredTrip), args.Error(1)
}

func (m *MockTripRepository) ListBookings(ctx context.Context, ownerID, tripID uuid.UUID) ([]domain.BookingRecord, error) {
	args := m.Called(ctx, ownerID, tripID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.BookingRecord), args.Error(1)
}

func (m *MockTripRepository) RenameTrip(ctx context.Context, ownerID, tripID uuid.UUID, name string) error {
	args := m.Called(ctx, ownerID, tripID, name)
	return args.Error(0)
}
