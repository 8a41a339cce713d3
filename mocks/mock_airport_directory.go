package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"itinera/internal/domain"
)

// MockAirportRepository is a mock implementation of port.AirportRepository.
type MockAirportRepository struct {
	mock.Mock
}

func (m *MockAirportRepository) Lookup(ctx context.Context, iataCode string) (*domain.Airport, error) {
	args := m.Called(ctx, iataCode)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Airport), args.Error(1)
}

func (m *MockAirportRepository) UpsertMany(ctx context.Context, airports []domain.Airport) (int, error) {
	args := m.Called(ctx, airports)
	return args.Int(0), args.Error(1)
}
