package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"itinera/internal/domain"
	"itinera/internal/service"
)

// MockIngestionService is a mock implementation of service.IngestionService.
type MockIngestionService struct {
	mock.Mock
}

func (m *MockIngestionService) Ingest(ctx context.Context, doc *domain.InboundDocument) (*domain.IngestionResult, error) {
	args := m.Called(ctx, doc)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.IngestionResult), args.Error(1)
}

func (m *MockIngestionService) IngestBatch(ctx context.Context, docs []*domain.InboundDocument) []service.BatchItem {
	args := m.Called(ctx, docs)
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).([]service.BatchItem)
}
