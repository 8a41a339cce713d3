package airport_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"itinera/internal/airport"
	"itinera/internal/cache"
	"itinera/internal/domain"
	"itinera/mocks"
)

func newDirectory(repo *mocks.MockAirportRepository) *airport.CachedDirectory {
	return airport.NewCachedDirectory(repo, cache.NewTTL[string, *domain.Airport](100, time.Hour), nil)
}

func TestCachedDirectory_CachesHits(t *testing.T) {
	repo := new(mocks.MockAirportRepository)
	lhr := &domain.Airport{IATACode: "LHR", Name: "Heathrow", City: "London", Country: "GB"}
	repo.On("Lookup", mock.Anything, "LHR").Return(lhr, nil).Once()
	dir := newDirectory(repo)

	for i := 0; i < 3; i++ {
		a, err := dir.Lookup(context.Background(), "lhr")
		require.NoError(t, err)
		assert.Equal(t, "London", a.City)
	}
	repo.AssertNumberOfCalls(t, "Lookup", 1)
}

func TestCachedDirectory_CachesMisses(t *testing.T) {
	repo := new(mocks.MockAirportRepository)
	repo.On("Lookup", mock.Anything, "ZZZ").Return(nil, domain.ErrNotFound).Once()
	dir := newDirectory(repo)

	_, err := dir.Lookup(context.Background(), "ZZZ")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = dir.Lookup(context.Background(), "ZZZ")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	repo.AssertNumberOfCalls(t, "Lookup", 1)
}

func TestCachedDirectory_DoesNotCacheStoreErrors(t *testing.T) {
	repo := new(mocks.MockAirportRepository)
	repo.On("Lookup", mock.Anything, "CDG").Return(nil, errors.New("db down")).Once()
	repo.On("Lookup", mock.Anything, "CDG").Return(&domain.Airport{IATACode: "CDG", City: "Paris"}, nil).Once()
	dir := newDirectory(repo)

	_, err := dir.Lookup(context.Background(), "CDG")
	require.Error(t, err)

	a, err := dir.Lookup(context.Background(), "CDG")
	require.NoError(t, err)
	assert.Equal(t, "Paris", a.City)
}

func TestDisplayName(t *testing.T) {
	repo := new(mocks.MockAirportRepository)
	repo.On("Lookup", mock.Anything, "LHR").Return(&domain.Airport{IATACode: "LHR", City: "London"}, nil)
	repo.On("Lookup", mock.Anything, "XXX").Return(nil, domain.ErrNotFound)
	dir := newDirectory(repo)
	ctx := context.Background()

	assert.Equal(t, "London", airport.DisplayName(ctx, dir, "LHR"))
	assert.Equal(t, "XXX", airport.DisplayName(ctx, dir, "XXX"))
	assert.Equal(t, "Paris", airport.DisplayName(ctx, dir, "Paris"))
	assert.Equal(t, "LHR", airport.DisplayName(ctx, nil, "LHR"))
}

func TestIsIATACode(t *testing.T) {
	assert.True(t, airport.IsIATACode("JFK"))
	assert.True(t, airport.IsIATACode("jfk"))
	assert.False(t, airport.IsIATACode("JF1"))
	assert.False(t, airport.IsIATACode("Rome"))
	assert.False(t, airport.IsIATACode(""))
}
