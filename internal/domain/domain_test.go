package domain_test

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"itinera/internal/domain"
)

func d(day int) domain.Date { return domain.NewDate(2026, time.March, day) }

func TestDate_JSON(t *testing.T) {
	b, err := json.Marshal(d(5))
	require.NoError(t, err)
	assert.Equal(t, `"2026-03-05"`, string(b))

	var got domain.Date
	require.NoError(t, json.Unmarshal([]byte(`"2026-03-05"`), &got))
	assert.True(t, got.Equal(d(5)))

	require.NoError(t, json.Unmarshal([]byte(`null`), &got))
	assert.True(t, got.IsZero())

	assert.Error(t, json.Unmarshal([]byte(`"05/03/2026"`), &got))
}

func TestDate_Scan(t *testing.T) {
	var got domain.Date
	require.NoError(t, got.Scan(time.Date(2026, time.March, 5, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, "2026-03-05", got.String())

	require.NoError(t, got.Scan([]byte("2026-03-06")))
	assert.Equal(t, "2026-03-06", got.String())

	require.NoError(t, got.Scan(nil))
	assert.True(t, got.IsZero())

	assert.Error(t, got.Scan(42))
}

func TestDate_DaysUntil(t *testing.T) {
	assert.Equal(t, 4, d(1).DaysUntil(d(5)))
	assert.Equal(t, -4, d(5).DaysUntil(d(1)))
	assert.Equal(t, "2026-04-01", d(31).AddDays(1).String())
}

func TestDateRange(t *testing.T) {
	a := domain.DateRange{Start: d(10), End: d(15)}
	b := domain.DateRange{Start: d(16), End: d(18)}
	c := domain.DateRange{Start: d(25), End: d(26)}

	assert.False(t, a.Overlaps(b))
	assert.True(t, a.Overlaps(domain.DateRange{Start: d(15), End: d(20)}))
	assert.Equal(t, 1, a.Gap(b))
	assert.Equal(t, 1, b.Gap(a))
	assert.True(t, a.WithinGap(b, 3))
	assert.False(t, a.WithinGap(c, 3))
	assert.Equal(t, domain.DateRange{Start: d(10), End: d(26)}, a.Union(c))
	assert.Equal(t, domain.DateRange{Start: d(7), End: d(18)}, a.Expand(3))
	assert.Equal(t, 6, a.Days())
}

func TestMoney(t *testing.T) {
	m := domain.Money{Cents: 123450, Currency: "USD"}
	assert.Equal(t, "1234.50", m.Amount())
	assert.Equal(t, "1234.50 USD", m.String())
	assert.Equal(t, "-0.05", domain.Money{Cents: -5}.Amount())

	b, err := json.Marshal(m)
	require.NoError(t, err)
	assert.JSONEq(t, `{"amount":"1234.50","currency":"USD"}`, string(b))
}

func TestParsedBooking_StorageKey(t *testing.T) {
	withCode := domain.ParsedBooking{Type: domain.BookingTypeFlight, ConfirmationNumber: "ABC123"}
	assert.Equal(t, withCode.Key(), withCode.StorageKey())

	a := domain.ParsedBooking{Type: domain.BookingTypeHotel, StartDate: d(1), EndDate: d(5), Destination: "London"}
	b := a
	b.Destination = "london"
	c := a
	c.EndDate = d(6)

	assert.True(t, strings.HasPrefix(a.StorageKey().ConfirmationNumber, "auto:"))
	assert.Equal(t, a.StorageKey(), b.StorageKey())
	assert.NotEqual(t, a.StorageKey(), c.StorageKey())
}

func TestIsInputRejection(t *testing.T) {
	assert.True(t, domain.IsInputRejection(domain.ErrTooManyPages))
	assert.False(t, domain.IsInputRejection(domain.ErrTripNotFound))
}
