package csvexport

import (
	"bytes"
	"encoding/csv"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"itinera/internal/domain"
)

func readAll(t *testing.T, buf *bytes.Buffer) [][]string {
	t.Helper()
	rows, err := csv.NewReader(buf).ReadAll()
	require.NoError(t, err)
	return rows
}

func TestWriteHeader(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	require.NoError(t, w.WriteHeader())
	w.Flush()
	require.NoError(t, w.Error())

	rows := readAll(t, &buf)
	require.Len(t, rows, 1)
	assert.Len(t, rows[0], 16)
	assert.Equal(t, "Trip Name", rows[0][0])
	assert.Equal(t, "Added At", rows[0][15])
}

func TestWriteTrips_OneRowPerBooking(t *testing.T) {
	added := time.Date(2026, 2, 10, 9, 30, 0, 0, time.UTC)
	trip := domain.TripWithBookings{
		StoredTrip: domain.StoredTrip{
			ID:          uuid.New(),
			Name:        "London Trip",
			NameSource:  domain.TripNameGenerated,
			Destination: "London",
			DateRange:   domain.DateRange{Start: domain.NewDate(2026, 3, 1), End: domain.NewDate(2026, 3, 5)},
		},
		Bookings: []domain.BookingRecord{
			{
				ParsedBooking: domain.ParsedBooking{
					Type:               domain.BookingTypeFlight,
					ConfirmationNumber: "ABC123",
					StartDate:          domain.NewDate(2026, 3, 1),
					EndDate:            domain.NewDate(2026, 3, 1),
					Origin:             "JFK",
					Destination:        "LHR",
					ProviderName:       "Oceanic",
					Price:              &domain.Money{Cents: 123450, Currency: "USD"},
					Confidence:         0.95,
				},
				CreatedAt: added,
			},
			{
				ParsedBooking: domain.ParsedBooking{
					Type:        domain.BookingTypeHotel,
					StartDate:   domain.NewDate(2026, 3, 1),
					EndDate:     domain.NewDate(2026, 3, 5),
					Destination: "London",
					Confidence:  0.8,
				},
			},
		},
	}

	var buf bytes.Buffer
	w := NewWriter(&buf)
	require.NoError(t, w.WriteTrips([]domain.TripWithBookings{trip}))
	w.Flush()

	rows := readAll(t, &buf)
	require.Len(t, rows, 2)
	assert.Equal(t, []string{
		"London Trip", "London", "2026-03-01", "2026-03-05", "generated",
		"flight", "ABC123", "2026-03-01", "2026-03-01", "JFK", "LHR", "Oceanic",
		"1234.50", "USD", "0.95", "2026-02-10T09:30:00Z",
	}, rows[0])
	assert.Equal(t, "hotel", rows[1][5])
	assert.Equal(t, "", rows[1][12])
	assert.Equal(t, "", rows[1][15])
}

func TestWriteTrips_TripWithoutBookings(t *testing.T) {
	trip := domain.TripWithBookings{StoredTrip: domain.StoredTrip{
		Name:       "Honeymoon",
		NameSource: domain.TripNameUser,
		DateRange:  domain.DateRange{Start: domain.NewDate(2026, 6, 1), End: domain.NewDate(2026, 6, 9)},
	}}

	var buf bytes.Buffer
	w := NewWriter(&buf)
	require.NoError(t, w.WriteTrips([]domain.TripWithBookings{trip}))
	w.Flush()

	rows := readAll(t, &buf)
	require.Len(t, rows, 1)
	assert.Equal(t, "Honeymoon", rows[0][0])
	assert.Equal(t, "user", rows[0][4])
	assert.Equal(t, "", rows[0][5])
}

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"simple", "Summer in Lisbon", "Summer_in_Lisbon"},
		{"special chars", "Tokyo / Kyoto (Mar–Apr)", "Tokyo_Kyoto_Mar_Apr"},
		{"unicode", "東京 Trip", "Trip"},
		{"hyphens and underscores preserved", "my-trips_2026", "my-trips_2026"},
		{"consecutive underscores collapsed", "trip___export", "trip_export"},
		{"leading/trailing cleaned", "  hello  ", "hello"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, SanitizeFilename(tt.input))
		})
	}
}

func TestBuildFilename(t *testing.T) {
	today := time.Now().Format("2006-01-02")
	assert.Equal(t, "My_Trips_"+today+".csv", BuildFilename("My Trips"))
	assert.Equal(t, "trips_"+today+".csv", BuildFilename("***"))
}
