package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"itinera/internal/domain"
)

// MockIngestedDocumentRepo is a mock implementation of port.IngestedDocumentRepository.
type MockIngestedDocumentRepo struct {
	mock.Mock
}

func (m *MockIngestedDocumentRepo) Create(ctx context.Context, doc *domain.IngestedDocument) error {
	args := m.Called(ctx, doc)
	return args.Error(0)
}

func (m *MockIngestedDocumentRepo) ListArchived(ctx context.Context, ownerID uuid.UUID, offset, limit int) ([]domain.IngestedDocument, error) {
	args := m.Called(ctx, ownerID, offset, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.IngestedDocument), args.Error(1)
}
