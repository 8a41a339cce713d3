// Package consolidator groups validated bookings into trips and reconciles
// them with the trips an owner already has.
package consolidator

import (
	"context"
	"sort"
	"strings"
	"unicode/utf8"

	"itinera/internal/airport"
	"itinera/internal/domain"
)

// DefaultGapDays is the number of days between bookings still treated as the
// same trip.
const DefaultGapDays = 3

// Cluster sorts bookings chronologically and merges them into drafts in a
// single interval pass. The input slice is not modified.
func (c *Consolidator) Cluster(ctx context.Context, bookings []domain.ParsedBooking) []domain.TripDraft {
	if len(bookings) == 0 {
		return nil
	}

	sorted := make([]domain.ParsedBooking, len(bookings))
	copy(sorted, bookings)
	sortBookings(sorted)

	var groups [][]domain.ParsedBooking
	var current []domain.ParsedBooking
	var clusterEnd domain.Date
	for _, b := range sorted {
		if len(current) > 0 && b.StartDate.After(clusterEnd.AddDays(c.gapDays)) {
			groups = append(groups, current)
			current = nil
		}
		if len(current) == 0 || b.EndDate.After(clusterEnd) {
			clusterEnd = b.EndDate
		}
		current = append(current, b)
	}
	groups = append(groups, current)

	drafts := make([]domain.TripDraft, 0, len(groups))
	for _, g := range groups {
		drafts = append(drafts, c.draftOf(ctx, g))
	}
	return drafts
}

// draftOf builds a draft from chronologically ordered bookings.
func (c *Consolidator) draftOf(ctx context.Context, bookings []domain.ParsedBooking) domain.TripDraft {
	r := bookings[0].Range()
	for _, b := range bookings[1:] {
		r = r.Union(b.Range())
	}
	dest := ResolveDestination(bookings)
	return domain.TripDraft{
		DateRange:   r,
		Destination: dest,
		Name:        TripName(airport.DisplayName(ctx, c.airports, dest), r.Start),
		Bookings:    bookings,
	}
}

func sortBookings(bs []domain.ParsedBooking) {
	sort.SliceStable(bs, func(i, j int) bool {
		a, b := bs[i], bs[j]
		if c := a.StartDate.Compare(b.StartDate); c != 0 {
			return c < 0
		}
		if c := a.EndDate.Compare(b.EndDate); c != 0 {
			return c < 0
		}
		if a.Type != b.Type {
			return a.Type < b.Type
		}
		return a.ConfirmationNumber < b.ConfirmationNumber
	})
}

// ResolveDestination picks a cluster's destination: the first hotel with a
// destination, else the first flight's arrival, else the first non-empty
// destination. Bookings must be in chronological order.
func ResolveDestination(bookings []domain.ParsedBooking) string {
	for _, b := range bookings {
		if b.Type == domain.BookingTypeHotel && b.Destination != "" {
			return b.Destination
		}
	}
	for _, b := range bookings {
		if b.Type == domain.BookingTypeFlight && b.Destination != "" {
			return b.Destination
		}
	}
	for _, b := range bookings {
		if b.Destination != "" {
			return b.Destination
		}
	}
	return ""
}

const tripSuffix = " Trip"

// TripName returns "{destination} Trip", or a date-qualified name when no
// destination is known. Long destinations are cut so the name fits
// domain.MaxTripNameLen.
func TripName(destination string, start domain.Date) string {
	if destination != "" {
		limit := domain.MaxTripNameLen - utf8.RuneCountInString(tripSuffix)
		if runes := []rune(destination); len(runes) > limit {
			destination = strings.TrimSpace(string(runes[:limit]))
		}
		return destination + tripSuffix
	}
	if start.IsZero() {
		return "Trip"
	}
	return "Trip on " + start.Format("Jan 2, 2006")
}
