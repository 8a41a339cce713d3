package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"itinera/internal/domain"
)

// MockNotifier is a mock implementation of port.Notifier.
type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) SendIngestionSummary(ctx context.Context, toEmail, subject string, result *domain.IngestionResult) error {
	args := m.Called(ctx, toEmail, subject, result)
	return args.Error(0)
}
