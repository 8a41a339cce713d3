package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"itinera/internal/port"
)

// MockSourceArchive is a mock implementation of port.SourceArchive.
type MockSourceArchive struct {
	mock.Mock
}

func (m *MockSourceArchive) Put(ctx context.Context, src port.ArchivedSource) error {
	return m.Called(ctx, src).Error(0)
}

func (m *MockSourceArchive) Get(ctx context.Context, key string) ([]byte, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}
