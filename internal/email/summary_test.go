package email_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"itinera/internal/domain"
	"itinera/internal/email"
)

func TestRenderSummary(t *testing.T) {
	result := &domain.IngestionResult{
		Success: true,
		Message: "Found 2 booking(s): 1 trip(s) created, 1 trip(s) updated.",
		Trips: []domain.TripSummary{
			{Name: "London Trip", StartDate: domain.NewDate(2026, time.May, 10), EndDate: domain.NewDate(2026, time.May, 15), BookingCount: 1},
			{Name: "Tom & Jerry <3", StartDate: domain.NewDate(2026, time.June, 1), EndDate: domain.NewDate(2026, time.June, 2), BookingCount: 1, Merged: true},
		},
	}

	s := email.RenderSummary("Fwd: Your booking", result, "https://app.itinera.test/")

	assert.Equal(t, "Re: Fwd: Your booking", s.Subject)
	assert.Contains(t, s.Text, "- New trip: London Trip (2026-05-10 to 2026-05-15), 1 booking(s) added")
	assert.Contains(t, s.Text, "- Updated: Tom & Jerry <3")
	assert.Contains(t, s.Text, "https://app.itinera.test/trips")
	assert.Contains(t, s.HTML, "Tom &amp; Jerry &lt;3")
	assert.NotContains(t, s.HTML, "Jerry <3")
}

func TestRenderSummary_NoSubjectNoTrips(t *testing.T) {
	result := &domain.IngestionResult{Message: "No booking detected in this document."}

	s := email.RenderSummary("", result, "http://localhost:3000")

	assert.Equal(t, "Itinera: No booking detected in this document.", s.Subject)
	assert.NotContains(t, s.HTML, "<ul>")
	assert.Contains(t, s.Text, "View your trips: http://localhost:3000/trips")
}
