// Package airport resolves IATA codes to display names for trip naming.
package airport

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"itinera/internal/cache"
	"itinera/internal/domain"
	"itinera/internal/port"
)

// CachedDirectory decorates a port.AirportDirectory with a TTL cache. Misses
// are cached too so unknown codes do not hit the backing store repeatedly.
type CachedDirectory struct {
	inner  port.AirportDirectory
	cache  cache.Cache[string, *domain.Airport]
	logger *slog.Logger
}

// NewCachedDirectory wraps inner with c.
func NewCachedDirectory(inner port.AirportDirectory, c cache.Cache[string, *domain.Airport], logger *slog.Logger) *CachedDirectory {
	if logger == nil {
		logger = slog.Default()
	}
	return &CachedDirectory{inner: inner, cache: c, logger: logger}
}

// Lookup returns the airport for code, or domain.ErrNotFound.
func (d *CachedDirectory) Lookup(ctx context.Context, code string) (*domain.Airport, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if a, ok := d.cache.Get(code); ok {
		if a == nil {
			return nil, domain.ErrNotFound
		}
		return a, nil
	}

	a, err := d.inner.Lookup(ctx, code)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		d.cache.Set(code, nil)
		return nil, domain.ErrNotFound
	case err != nil:
		d.logger.Warn("airport.CachedDirectory.Lookup: backing store failed", "code", code, "error", err)
		return nil, err
	}
	d.cache.Set(code, a)
	return a, nil
}

// DisplayName returns the city (or airport name) for an IATA-looking
// destination and the input unchanged otherwise.
func DisplayName(ctx context.Context, dir port.AirportDirectory, destination string) string {
	if dir == nil || !IsIATACode(destination) {
		return destination
	}
	a, err := dir.Lookup(ctx, destination)
	if err != nil || a == nil {
		return destination
	}
	switch {
	case a.City != "":
		return a.City
	case a.Name != "":
		return a.Name
	}
	return destination
}

// IsIATACode reports whether s is exactly three ASCII letters.
func IsIATACode(s string) bool {
	if len(s) != 3 {
		return false
	}
	for i := 0; i < 3; i++ {
		c := s[i] | 0x20
		if c < 'a' || c > 'z' {
			return false
		}
	}
	return true
}
