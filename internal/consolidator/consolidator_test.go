package consolidator_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"itinera/internal/consolidator"
	"itinera/internal/consolidator/consolidatortest"
	"itinera/internal/domain"
	"itinera/mocks"
)

func emailBatch(owner uuid.UUID) consolidator.Batch {
	return consolidator.Batch{OwnerID: owner, Source: domain.TripSourceEmail}
}

func TestConsolidate_CreatesTrip(t *testing.T) {
	store := consolidatortest.NewStore()
	owner := uuid.New()
	c := consolidator.New(store)

	out, err := c.Consolidate(context.Background(), emailBatch(owner), []domain.ParsedBooking{
		booking(domain.BookingTypeFlight, "ABC123", domain.NewDate(2026, 3, 1), domain.NewDate(2026, 3, 1), "LHR"),
		booking(domain.BookingTypeHotel, "GP77", domain.NewDate(2026, 3, 1), domain.NewDate(2026, 3, 5), "London"),
	})

	require.NoError(t, err)
	assert.Equal(t, 1, out.TripsCreated)
	assert.Equal(t, 0, out.TripsMerged)
	assert.Equal(t, 2, out.BookingsInserted)

	trips := store.Trips(owner)
	require.Len(t, trips, 1)
	assert.Equal(t, "London Trip", trips[0].Name)
	assert.Equal(t, "2026-03-01", trips[0].DateRange.Start.String())
	assert.Equal(t, "2026-03-05", trips[0].DateRange.End.String())
	assert.Equal(t, domain.TripSourceEmail, trips[0].Source)
	assert.Len(t, store.Bookings(owner), 2)
}

func TestReconcile_MergesWithinGap_CreatesBeyond(t *testing.T) {
	store := consolidatortest.NewStore()
	owner := uuid.New()
	existing := store.AddTrip(owner, domain.DateRange{Start: day(10), End: day(15)}, "Tokyo Trip", domain.TripNameGenerated)
	c := consolidator.New(store)

	out, err := c.Consolidate(context.Background(), emailBatch(owner), []domain.ParsedBooking{
		booking(domain.BookingTypeActivity, "TOUR1", day(16), day(16), "Kyoto"),
	})
	require.NoError(t, err)
	assert.Equal(t, 1, out.TripsMerged)
	assert.Equal(t, 0, out.TripsCreated)
	assert.Equal(t, existing.ID, out.Trips[0].Trip.ID)
	assert.Equal(t, day(16), out.Trips[0].Trip.DateRange.End)
	assert.Equal(t, "Tokyo Trip", out.Trips[0].Trip.Name)

	out, err = c.Consolidate(context.Background(), emailBatch(owner), []domain.ParsedBooking{
		booking(domain.BookingTypeActivity, "TOUR2", day(25), day(25), "Osaka"),
	})
	require.NoError(t, err)
	assert.Equal(t, 1, out.TripsCreated)
	assert.Len(t, store.Trips(owner), 2)
}

func TestReconcile_NeverRenamesUserTrip(t *testing.T) {
	store := consolidatortest.NewStore()
	owner := uuid.New()
	store.AddTrip(owner, domain.DateRange{Start: day(1), End: day(3)}, "Honeymoon", domain.TripNameUser)
	c := consolidator.New(store)

	out, err := c.Consolidate(context.Background(), emailBatch(owner), []domain.ParsedBooking{
		booking(domain.BookingTypeHotel, "H1", day(2), day(6), "Bali"),
	})

	require.NoError(t, err)
	trip := out.Trips[0].Trip
	assert.Equal(t, "Honeymoon", trip.Name)
	assert.Equal(t, domain.TripNameUser, trip.NameSource)
	assert.Equal(t, day(6), trip.DateRange.End)
}

func TestReconcile_Idempotent(t *testing.T) {
	store := consolidatortest.NewStore()
	owner := uuid.New()
	c := consolidator.New(store)
	bookings := []domain.ParsedBooking{
		booking(domain.BookingTypeFlight, "ABC123", day(1), day(1), "LHR"),
		booking(domain.BookingTypeHotel, "GP77", day(1), day(5), "London"),
	}

	_, err := c.Consolidate(context.Background(), emailBatch(owner), bookings)
	require.NoError(t, err)
	second, err := c.Consolidate(context.Background(), emailBatch(owner), bookings)
	require.NoError(t, err)

	assert.Equal(t, 0, second.TripsCreated)
	assert.Equal(t, 0, second.TripsMerged)
	assert.Equal(t, 2, second.BookingsSkipped)
	assert.Empty(t, second.Trips)
	assert.Len(t, store.Trips(owner), 1)
	assert.Len(t, store.Bookings(owner), 2)
}

func TestReconcile_PartialRedeliveryRebuildsDraft(t *testing.T) {
	store := consolidatortest.NewStore()
	owner := uuid.New()
	c := consolidator.New(store)

	_, err := c.Consolidate(context.Background(), emailBatch(owner), []domain.ParsedBooking{
		booking(domain.BookingTypeHotel, "H1", day(1), day(4), "Madrid"),
	})
	require.NoError(t, err)

	out, err := c.Consolidate(context.Background(), emailBatch(owner), []domain.ParsedBooking{
		booking(domain.BookingTypeHotel, "H1", day(1), day(4), "Madrid"),
		booking(domain.BookingTypeCar, "CAR9", day(5), day(7), "Seville"),
	})

	require.NoError(t, err)
	assert.Equal(t, 1, out.BookingsSkipped)
	assert.Equal(t, 1, out.BookingsInserted)
	assert.Equal(t, 1, out.TripsMerged)
	trips := store.Trips(owner)
	require.Len(t, trips, 1)
	assert.Equal(t, day(7), trips[0].DateRange.End)
	assert.Equal(t, "Madrid", trips[0].Destination)
}

func TestReconcile_BookingsWithoutConfirmationAreKept(t *testing.T) {
	store := consolidatortest.NewStore()
	owner := uuid.New()
	c := consolidator.New(store)

	out, err := c.Consolidate(context.Background(), emailBatch(owner), []domain.ParsedBooking{
		booking(domain.BookingTypeOther, "", domain.NewDate(2026, 5, 2), domain.NewDate(2026, 5, 2), ""),
	})

	require.NoError(t, err)
	require.Len(t, out.Trips, 1)
	assert.Equal(t, "Trip on May 2, 2026", out.Trips[0].Trip.Name)
}

func TestReconcile_KeylessRedeliveryIsSkipped(t *testing.T) {
	store := consolidatortest.NewStore()
	owner := uuid.New()
	c := consolidator.New(store)
	keyless := []domain.ParsedBooking{
		booking(domain.BookingTypeActivity, "", day(3), day(3), "Vienna"),
		booking(domain.BookingTypeActivity, "", day(3), day(3), "Salzburg"),
	}

	_, err := c.Consolidate(context.Background(), emailBatch(owner), keyless)
	require.NoError(t, err)
	out, err := c.Consolidate(context.Background(), emailBatch(owner), keyless)
	require.NoError(t, err)

	assert.Equal(t, 2, out.BookingsSkipped)
	assert.Len(t, store.Bookings(owner), 2)
}

func TestReconcile_PrefersOverlappingTrip(t *testing.T) {
	store := consolidatortest.NewStore()
	owner := uuid.New()
	store.AddTrip(owner, domain.DateRange{Start: day(1), End: day(8)}, "Near", domain.TripNameGenerated)
	overlapping := store.AddTrip(owner, domain.DateRange{Start: day(11), End: day(14)}, "Overlap", domain.TripNameGenerated)
	c := consolidator.New(store)

	out, err := c.Consolidate(context.Background(), emailBatch(owner), []domain.ParsedBooking{
		booking(domain.BookingTypeCar, "C1", day(10), day(11), ""),
	})

	require.NoError(t, err)
	assert.Equal(t, overlapping.ID, out.Trips[0].Trip.ID)
}

func TestReconcile_StoreErrorsPropagate(t *testing.T) {
	repo := new(mocks.MockTripRepository)
	owner := uuid.New()
	repo.On("ExistingBookingKeys", mock.Anything, owner, mock.Anything).Return(nil, errors.New("connection refused"))
	c := consolidator.New(repo)

	_, err := c.Consolidate(context.Background(), emailBatch(owner), []domain.ParsedBooking{
		booking(domain.BookingTypeFlight, "X1", day(1), day(1), ""),
	})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "consolidator.Reconcile")
}

func TestReconcile_CountsRaceSkips(t *testing.T) {
	repo := new(mocks.MockTripRepository)
	owner := uuid.New()
	trip := &domain.StoredTrip{ID: uuid.New(), OwnerID: owner, DateRange: domain.DateRange{Start: day(1), End: day(1)}}
	repo.On("ExistingBookingKeys", mock.Anything, owner, mock.Anything).Return(map[domain.BookingKey]bool{}, nil)
	repo.On("FindTripsOverlapping", mock.Anything, owner, mock.Anything).Return([]domain.StoredTrip{}, nil)
	repo.On("CreateOrExtendTrip", mock.Anything, owner, mock.Anything).Return(trip, nil)
	repo.On("UpsertBooking", mock.Anything, owner, trip.ID, (*uuid.UUID)(nil), mock.Anything).Return(domain.UpsertSkipped, nil)
	c := consolidator.New(repo)

	out, err := c.Consolidate(context.Background(), emailBatch(owner), []domain.ParsedBooking{
		booking(domain.BookingTypeFlight, "X1", day(1), day(1), ""),
	})

	require.NoError(t, err)
	assert.Equal(t, 1, out.BookingsSkipped)
	assert.Equal(t, 0, out.BookingsInserted)
}

func TestConsolidate_ConcurrentSameOwner_NoDuplicateTrips(t *testing.T) {
	store := consolidatortest.NewStore()
	owner := uuid.New()
	c := consolidator.New(store)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := c.Consolidate(context.Background(), emailBatch(owner), []domain.ParsedBooking{
				booking(domain.BookingTypeActivity, fmt.Sprintf("T%d", i), day(1+i%2), day(1+i%2), "Oslo"),
			})
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	assert.Len(t, store.Trips(owner), 1)
	assert.Len(t, store.Bookings(owner), 8)
}

func TestOwnerLocks_ReleasesEntries(t *testing.T) {
	locks := consolidator.NewOwnerLocks()
	owner := uuid.New()

	unlock := locks.Lock(owner)
	assert.Equal(t, 1, locks.Len())

	acquired := make(chan struct{})
	go func() {
		u := locks.Lock(owner)
		close(acquired)
		u()
	}()

	select {
	case <-acquired:
		t.Fatal("second lock acquired while first is held")
	case <-time.After(20 * time.Millisecond):
	}

	unlock()
	unlock()
	<-acquired
	assert.Eventually(t, func() bool { return locks.Len() == 0 }, time.Second, 5*time.Millisecond)
}
