package mocks

import (
	"context"
	"io"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"itinera/internal/domain"
)

// MockTripService is a mock implementation of service.TripService.
type MockTripService struct {
	mock.Mock
}

func (m *MockTripService) List(ctx context.Context, ownerID uuid.UUID, offset, limit int) ([]domain.StoredTrip, int, error) {
	args := m.Called(ctx, ownerID, offset, limit)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]domain.StoredTrip), args.Int(1), args.Error(2)
}

func (m *MockTripService) Get(ctx context.Context, ownerID, tripID uuid.UUID) (*domain.TripWithBookings, error) {
	args := m.Called(ctx, ownerID, tripID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.TripWithBookings), args.Error(1)
}

func (m *MockTripService) Rename(ctx context.Context, ownerID, tripID uuid.UUID, name string) (*domain.StoredTrip, error) {
	args := m.Called(ctx, ownerID, tripID, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.StoredTrip), args.Error(1)
}

func (m *MockTripService) Export(ctx context.Context, ownerID uuid.UUID, w io.Writer) error {
	args := m.Called(ctx, ownerID, w)
	return args.Error(0)
}
