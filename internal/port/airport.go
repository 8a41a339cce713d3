package port

import (
	"context"

	"itinera/internal/domain"
)

// AirportDirectory resolves IATA codes. Lookup returns domain.ErrNotFound for
// unknown codes.
type AirportDirectory interface {
	Lookup(ctx context.Context, iataCode string) (*domain.Airport, error)
}

// AirportRepository is the writable backing store of the directory.
type AirportRepository interface {
	AirportDirectory
	UpsertMany(ctx context.Context, airports []domain.Airport) (int, error)
}
