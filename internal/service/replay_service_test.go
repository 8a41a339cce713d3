package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"itinera/internal/domain"
	"itinera/internal/port"
	"itinera/internal/service"
)

func TestReplayService_ReplayOwner(t *testing.T) {
	s := newIngestionSetup(t, defaultIngestionConfig())
	owner := uuid.New()
	s.extractor.On("Extract", mock.Anything, mock.Anything).Return(&port.ExtractOutput{Raw: londonExtraction}, nil)

	rows := []domain.IngestedDocument{
		{ID: uuid.New(), OwnerID: owner, MimeType: domain.MimeTextPlain, ArchiveKey: "sources/a.txt"},
		{ID: uuid.New(), OwnerID: owner, MimeType: domain.MimeTextPlain, ArchiveKey: "sources/a.txt"},
		{ID: uuid.New(), OwnerID: owner, MimeType: domain.MimeTextHTML, ArchiveKey: "sources/b.html"},
		{ID: uuid.New(), OwnerID: owner, MimeType: domain.MimeTextPlain, ArchiveKey: "sources/missing.txt"},
	}
	s.docs.On("ListArchived", mock.Anything, owner, 0, 50).Return(rows, nil)
	s.archive.On("Get", mock.Anything, "sources/a.txt").Return([]byte(londonEmail), nil)
	s.archive.On("Get", mock.Anything, "sources/b.html").Return([]byte("<html><body><p>"+londonEmail+"</p></body></html>"), nil)
	s.archive.On("Get", mock.Anything, "sources/missing.txt").Return(nil, errors.New("NoSuchKey"))

	replay := service.NewReplayService(s.svc, s.docs, s.archive, nil)
	summary, err := replay.ReplayOwner(context.Background(), owner, 0)

	require.NoError(t, err)
	assert.Equal(t, 2, summary.Documents)
	assert.Equal(t, 1, summary.Failed)
	assert.Equal(t, 2, summary.Bookings)
	assert.Equal(t, 1, summary.TripsCreated)
	assert.Len(t, s.store.Bookings(owner), 2)
	s.archive.AssertNotCalled(t, "Put", mock.Anything, mock.Anything)
}

func TestReplayService_ListError(t *testing.T) {
	s := newIngestionSetup(t, defaultIngestionConfig())
	owner := uuid.New()
	s.docs.On("ListArchived", mock.Anything, owner, 0, 50).Return(nil, errors.New("db down"))

	_, err := service.NewReplayService(s.svc, s.docs, s.archive, nil).ReplayOwner(context.Background(), owner, 0)

	require.Error(t, err)
}
