package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"itinera/internal/domain"
	"itinera/internal/port"
)

const tripColumns = `id, owner_id, name, name_source, destination, source,
	start_date, end_date, created_at, updated_at`

const bookingColumns = `id, owner_id, trip_id, document_id, type, confirmation_number,
	storage_key, start_date, end_date, origin, destination, provider_name,
	price_cents, price_currency, raw_source_excerpt, confidence, created_at`

type tripRow struct {
	ID          uuid.UUID             `db:"id"`
	OwnerID     uuid.UUID             `db:"owner_id"`
	Name        string                `db:"name"`
	NameSource  domain.TripNameSource `db:"name_source"`
	Destination string                `db:"destination"`
	Source      domain.TripSource     `db:"source"`
	StartDate   domain.Date           `db:"start_date"`
	EndDate     domain.Date           `db:"end_date"`
	CreatedAt   time.Time             `db:"created_at"`
	UpdatedAt   time.Time             `db:"updated_at"`
}

func (r tripRow) toDomain() domain.StoredTrip {
	return domain.StoredTrip{
		ID:          r.ID,
		OwnerID:     r.OwnerID,
		DateRange:   domain.DateRange{Start: r.StartDate, End: r.EndDate},
		Name:        r.Name,
		NameSource:  r.NameSource,
		Destination: r.Destination,
		Source:      r.Source,
		BookingRefs: []uuid.UUID{},
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}

type bookingRow struct {
	ID                 uuid.UUID          `db:"id"`
	OwnerID            uuid.UUID          `db:"owner_id"`
	TripID             uuid.UUID          `db:"trip_id"`
	DocumentID         *uuid.UUID         `db:"document_id"`
	Type               domain.BookingType `db:"type"`
	ConfirmationNumber string             `db:"confirmation_number"`
	StorageKey         string             `db:"storage_key"`
	StartDate          domain.Date        `db:"start_date"`
	EndDate            domain.Date        `db:"end_date"`
	Origin             string             `db:"origin"`
	Destination        string             `db:"destination"`
	ProviderName       string             `db:"provider_name"`
	PriceCents         sql.NullInt64      `db:"price_cents"`
	PriceCurrency      string             `db:"price_currency"`
	RawSourceExcerpt   string             `db:"raw_source_excerpt"`
	Confidence         float64            `db:"confidence"`
	CreatedAt          time.Time          `db:"created_at"`
}

func (r bookingRow) toDomain() domain.BookingRecord {
	rec := domain.BookingRecord{
		ParsedBooking: domain.ParsedBooking{
			Type:               r.Type,
			ConfirmationNumber: r.ConfirmationNumber,
			StartDate:          r.StartDate,
			EndDate:            r.EndDate,
			Origin:             r.Origin,
			Destination:        r.Destination,
			ProviderName:       r.ProviderName,
			RawSourceExcerpt:   r.RawSourceExcerpt,
			Confidence:         r.Confidence,
		},
		ID:         r.ID,
		OwnerID:    r.OwnerID,
		TripID:     r.TripID,
		DocumentID: r.DocumentID,
		CreatedAt:  r.CreatedAt,
	}
	if r.PriceCents.Valid {
		rec.Price = &domain.Money{Cents: r.PriceCents.Int64, Currency: r.PriceCurrency}
	}
	return rec
}

type tripRepo struct {
	db *sqlx.DB
}

// NewTripRepo creates a new PostgreSQL-backed TripRepository.
func NewTripRepo(db *sqlx.DB) port.TripRepository {
	return &tripRepo{db: db}
}

func (r *tripRepo) FindTripsOverlapping(ctx context.Context, ownerID uuid.UUID, dr domain.DateRange) ([]domain.StoredTrip, error) {
	var rows []tripRow
	err := r.db.SelectContext(ctx, &rows,
		`SELECT `+tripColumns+` FROM trips
		 WHERE owner_id = $1 AND start_date <= $3 AND end_date >= $2
		 ORDER BY start_date, id`,
		ownerID, dr.Start, dr.End)
	if err != nil {
		return nil, fmt.Errorf("tripRepo.FindTripsOverlapping: %w", err)
	}
	trips := make([]domain.StoredTrip, len(rows))
	for i, row := range rows {
		trips[i] = row.toDomain()
	}
	return trips, nil
}

func (r *tripRepo) ExistingBookingKeys(ctx context.Context, ownerID uuid.UUID, keys []domain.BookingKey) (map[domain.BookingKey]bool, error) {
	out := make(map[domain.BookingKey]bool)
	if len(keys) == 0 {
		return out, nil
	}
	storageKeys := make([]string, 0, len(keys))
	wanted := make(map[domain.BookingKey]bool, len(keys))
	for _, k := range keys {
		storageKeys = append(storageKeys, k.ConfirmationNumber)
		wanted[k] = true
	}

	var found []struct {
		Type       domain.BookingType `db:"type"`
		StorageKey string             `db:"storage_key"`
	}
	err := r.db.SelectContext(ctx, &found,
		`SELECT type, storage_key FROM bookings
		 WHERE owner_id = $1 AND storage_key = ANY($2)`,
		ownerID, pq.Array(storageKeys))
	if err != nil {
		return nil, fmt.Errorf("tripRepo.ExistingBookingKeys: %w", err)
	}
	for _, f := range found {
		k := domain.BookingKey{Type: f.Type, ConfirmationNumber: f.StorageKey}
		if wanted[k] {
			out[k] = true
		}
	}
	return out, nil
}

func (r *tripRepo) CreateOrExtendTrip(ctx context.Context, ownerID uuid.UUID, upsert port.TripUpsert) (*domain.StoredTrip, error) {
	now := time.Now().UTC()
	var row tripRow

	if upsert.TripID == nil {
		err := r.db.GetContext(ctx, &row,
			`INSERT INTO trips (id, owner_id, name, name_source, destination, source,
				start_date, end_date, created_at, updated_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $9)
			 RETURNING `+tripColumns,
			uuid.New(), ownerID, upsert.Name, domain.TripNameGenerated, upsert.Destination,
			upsert.Source, upsert.DateRange.Start, upsert.DateRange.End, now)
		if err != nil {
			return nil, fmt.Errorf("tripRepo.CreateOrExtendTrip insert: %w", err)
		}
		trip := row.toDomain()
		return &trip, nil
	}

	// A name already on the trip, generated or user-assigned, is kept.
	err := r.db.GetContext(ctx, &row,
		`UPDATE trips SET
			start_date = LEAST(start_date, $3),
			end_date = GREATEST(end_date, $4),
			name = CASE WHEN name = '' THEN $5 ELSE name END,
			destination = CASE WHEN destination = '' THEN $6 ELSE destination END,
			updated_at = $7
		 WHERE id = $1 AND owner_id = $2
		 RETURNING `+tripColumns,
		*upsert.TripID, ownerID, upsert.DateRange.Start, upsert.DateRange.End,
		upsert.Name, upsert.Destination, now)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrTripNotFound
		}
		return nil, fmt.Errorf("tripRepo.CreateOrExtendTrip update: %w", err)
	}
	trip := row.toDomain()
	return &trip, nil
}

func (r *tripRepo) UpsertBooking(ctx context.Context, ownerID, tripID uuid.UUID, documentID *uuid.UUID, b domain.ParsedBooking) (domain.UpsertOutcome, error) {
	var cents sql.NullInt64
	var currency string
	if b.Price != nil {
		cents = sql.NullInt64{Int64: b.Price.Cents, Valid: true}
		currency = b.Price.Currency
	}

	res, err := r.db.ExecContext(ctx,
		`INSERT INTO bookings (`+bookingColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
		 ON CONFLICT (owner_id, type, storage_key) DO NOTHING`,
		uuid.New(), ownerID, tripID, documentID, b.Type, b.ConfirmationNumber,
		b.StorageKey().ConfirmationNumber, b.StartDate, b.EndDate, b.Origin, b.Destination,
		b.ProviderName, cents, currency, b.RawSourceExcerpt, b.Confidence, time.Now().UTC())
	if err != nil {
		return "", fmt.Errorf("tripRepo.UpsertBooking: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return "", fmt.Errorf("tripRepo.UpsertBooking rows affected: %w", err)
	}
	if n == 0 {
		return domain.UpsertSkipped, nil
	}
	return domain.UpsertInserted, nil
}

func (r *tripRepo) ListTrips(ctx context.Context, ownerID uuid.UUID, offset, limit int) ([]domain.StoredTrip, int, error) {
	var total int
	err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM trips WHERE owner_id = $1", ownerID)
	if err != nil {
		return nil, 0, fmt.Errorf("tripRepo.ListTrips count: %w", err)
	}

	var rows []tripRow
	err = r.db.SelectContext(ctx, &rows,
		`SELECT `+tripColumns+` FROM trips WHERE owner_id = $1
		 ORDER BY start_date, id LIMIT $2 OFFSET $3`,
		ownerID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("tripRepo.ListTrips: %w", err)
	}

	trips := make([]domain.StoredTrip, len(rows))
	ids := make([]string, len(rows))
	index := make(map[uuid.UUID]int, len(rows))
	for i, row := range rows {
		trips[i] = row.toDomain()
		ids[i] = row.ID.String()
		index[row.ID] = i
	}
	if len(trips) == 0 {
		return trips, total, nil
	}

	var refs []struct {
		ID     uuid.UUID `db:"id"`
		TripID uuid.UUID `db:"trip_id"`
	}
	err = r.db.SelectContext(ctx, &refs,
		`SELECT id, trip_id FROM bookings
		 WHERE owner_id = $1 AND trip_id = ANY($2::uuid[])
		 ORDER BY start_date, id`,
		ownerID, pq.Array(ids))
	if err != nil {
		return nil, 0, fmt.Errorf("tripRepo.ListTrips refs: %w", err)
	}
	for _, ref := range refs {
		if i, ok := index[ref.TripID]; ok {
			trips[i].BookingRefs = append(trips[i].BookingRefs, ref.ID)
		}
	}
	return trips, total, nil
}

func (r *tripRepo) GetTrip(ctx context.Context, ownerID, tripID uuid.UUID) (*domain.StoredTrip, error) {
	var row tripRow
	err := r.db.GetContext(ctx, &row,
		`SELECT `+tripColumns+` FROM trips WHERE id = $1 AND owner_id = $2`, tripID, ownerID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrTripNotFound
		}
		return nil, fmt.Errorf("tripRepo.GetTrip: %w", err)
	}
	trip := row.toDomain()

	var refs []uuid.UUID
	err = r.db.SelectContext(ctx, &refs,
		`SELECT id FROM bookings WHERE owner_id = $1 AND trip_id = $2 ORDER BY start_date, id`,
		ownerID, tripID)
	if err != nil {
		return nil, fmt.Errorf("tripRepo.GetTrip refs: %w", err)
	}
	if refs != nil {
		trip.BookingRefs = refs
	}
	return &trip, nil
}

func (r *tripRepo) ListBookings(ctx context.Context, ownerID, tripID uuid.UUID) ([]domain.BookingRecord, error) {
	var rows []bookingRow
	err := r.db.SelectContext(ctx, &rows,
		`SELECT `+bookingColumns+` FROM bookings
		 WHERE owner_id = $1 AND trip_id = $2
		 ORDER BY start_date, end_date, id`,
		ownerID, tripID)
	if err != nil {
		return nil, fmt.Errorf("tripRepo.ListBookings: %w", err)
	}
	out := make([]domain.BookingRecord, len(rows))
	for i, row := range rows {
		out[i] = row.toDomain()
	}
	return out, nil
}

func (r *tripRepo) RenameTrip(ctx context.Context, ownerID, tripID uuid.UUID, name string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE trips SET name = $1, name_source = $2, updated_at = $3
		 WHERE id = $4 AND owner_id = $5`,
		name, domain.TripNameUser, time.Now().UTC(), tripID, ownerID)
	if err != nil {
		return fmt.Errorf("tripRepo.RenameTrip: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("tripRepo.RenameTrip rows affected: %w", err)
	}
	if n == 0 {
		return domain.ErrTripNotFound
	}
	return nil
}
