package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"itinera/internal/domain"
	"itinera/internal/port"
)

type airportRepo struct {
	db *sqlx.DB
}

// NewAirportRepo creates a new PostgreSQL-backed AirportRepository.
func NewAirportRepo(db *sqlx.DB) port.AirportRepository {
	return &airportRepo{db: db}
}

func (r *airportRepo) Lookup(ctx context.Context, iataCode string) (*domain.Airport, error) {
	var a domain.Airport
	err := r.db.GetContext(ctx, &a,
		"SELECT iata_code, name, city, country FROM airports WHERE iata_code = $1",
		strings.ToUpper(iataCode))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("airportRepo.Lookup: %w", err)
	}
	return &a, nil
}

// UpsertMany writes all airports in one transaction and returns how many rows were written.
func (r *airportRepo) UpsertMany(ctx context.Context, airports []domain.Airport) (int, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("airportRepo.UpsertMany begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PreparexContext(ctx,
		`INSERT INTO airports (iata_code, name, city, country, updated_at)
		 VALUES ($1, $2, $3, $4, NOW())
		 ON CONFLICT (iata_code) DO UPDATE SET
			name = EXCLUDED.name, city = EXCLUDED.city,
			country = EXCLUDED.country, updated_at = NOW()`)
	if err != nil {
		return 0, fmt.Errorf("airportRepo.UpsertMany prepare: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	n := 0
	for _, a := range airports {
		code := strings.ToUpper(strings.TrimSpace(a.IATACode))
		if _, err := stmt.ExecContext(ctx, code, a.Name, a.City, a.Country); err != nil {
			return 0, fmt.Errorf("airportRepo.UpsertMany %s: %w", code, err)
		}
		n++
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("airportRepo.UpsertMany commit: %w", err)
	}
	return n, nil
}
