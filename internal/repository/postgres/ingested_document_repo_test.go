package postgres_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"itinera/internal/domain"
	"itinera/internal/repository/postgres"
)

func TestIngestedDocumentRepo_Create(t *testing.T) {
	db, mock := newMockDB(t)
	repo := postgres.NewIngestedDocumentRepo(db)
	owner := uuid.New()

	doc := &domain.IngestedDocument{
		OwnerID:       owner,
		Channel:       domain.ChannelEmail,
		MimeType:      domain.MimeTextHTML,
		Fingerprint:   "00000000deadbeef",
		ArchiveKey:    "sources/x/00000000deadbeef.html",
		Status:        domain.IngestStatusCompleted,
		BookingsFound: 2,
	}

	mock.ExpectExec("INSERT INTO ingested_documents").
		WithArgs(sqlmock.AnyArg(), owner, domain.ChannelEmail, domain.MimeTextHTML, "00000000deadbeef",
			"sources/x/00000000deadbeef.html", "", domain.IngestStatusCompleted, "", "",
			2, 0, 0, 0, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Create(context.Background(), doc))
	assert.NotEqual(t, uuid.Nil, doc.ID)
	assert.False(t, doc.CreatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIngestedDocumentRepo_Create_KeepsAssignedID(t *testing.T) {
	db, mock := newMockDB(t)
	repo := postgres.NewIngestedDocumentRepo(db)
	id := uuid.New()

	mock.ExpectExec("INSERT INTO ingested_documents").
		WillReturnError(errors.New("unique violation"))

	err := repo.Create(context.Background(), &domain.IngestedDocument{ID: id, OwnerID: uuid.New()})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ingestedDocumentRepo.Create")
}

func TestIngestedDocumentRepo_ListArchived(t *testing.T) {
	db, mock := newMockDB(t)
	repo := postgres.NewIngestedDocumentRepo(db)
	owner := uuid.New()
	now := time.Now().UTC()

	cols := []string{
		"id", "owner_id", "channel", "mime_type", "fingerprint", "archive_key", "subject",
		"status", "message", "extractor_model",
		"bookings_found", "bookings_skipped", "trips_created", "trips_merged", "created_at",
	}
	mock.ExpectQuery("SELECT \\* FROM ingested_documents").
		WithArgs(owner, 50, 0).
		WillReturnRows(sqlmock.NewRows(cols).AddRow(
			uuid.New().String(), owner.String(), "upload", "application/pdf", "0123456789abcdef",
			"sources/o/0123456789abcdef.pdf", "", "completed", "Found 1 booking(s)", "claude",
			1, 0, 1, 0, now))

	docs, err := repo.ListArchived(context.Background(), owner, 0, 50)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, domain.ChannelUpload, docs[0].Channel)
	assert.Equal(t, "sources/o/0123456789abcdef.pdf", docs[0].ArchiveKey)
	assert.Equal(t, 1, docs[0].TripsCreated)
	assert.NoError(t, mock.ExpectationsWereMet())
}
