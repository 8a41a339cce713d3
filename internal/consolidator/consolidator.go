package consolidator

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/google/uuid"

	"itinera/internal/domain"
	"itinera/internal/port"
)

// Batch identifies the ingestion run whose bookings are being consolidated.
type Batch struct {
	OwnerID    uuid.UUID
	DocumentID *uuid.UUID
	Source     domain.TripSource
}

// TripResult is one trip touched by a run.
type TripResult struct {
	Trip     *domain.StoredTrip
	Merged   bool
	Bookings []domain.ParsedBooking // bookings inserted by this run
}

// Outcome summarizes a reconciliation.
type Outcome struct {
	Trips            []TripResult
	BookingsInserted int
	BookingsSkipped  int
	TripsCreated     int
	TripsMerged      int
}

// Consolidator clusters bookings and reconciles the clusters with stored
// trips under a per-owner lock.
type Consolidator struct {
	store    port.TripStore
	airports port.AirportDirectory
	locks    *OwnerLocks
	gapDays  int
	logger   *slog.Logger
}

// Option configures a Consolidator.
type Option func(*Consolidator)

// WithGapDays sets the same-trip tolerance in days.
func WithGapDays(days int) Option {
	return func(c *Consolidator) {
		if days >= 0 {
			c.gapDays = days
		}
	}
}

// WithAirportDirectory enables display names for IATA destinations.
func WithAirportDirectory(dir port.AirportDirectory) Option {
	return func(c *Consolidator) { c.airports = dir }
}

// WithOwnerLocks shares a lock table with other consolidators in the process.
func WithOwnerLocks(l *OwnerLocks) Option {
	return func(c *Consolidator) { c.locks = l }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Consolidator) { c.logger = l }
}

// New creates a Consolidator backed by store.
func New(store port.TripStore, opts ...Option) *Consolidator {
	c := &Consolidator{
		store:   store,
		locks:   NewOwnerLocks(),
		gapDays: DefaultGapDays,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// GapDays returns the configured same-trip tolerance.
func (c *Consolidator) GapDays() int { return c.gapDays }

// Consolidate clusters bookings and reconciles the clusters.
func (c *Consolidator) Consolidate(ctx context.Context, batch Batch, bookings []domain.ParsedBooking) (*Outcome, error) {
	return c.Reconcile(ctx, batch, c.Cluster(ctx, bookings))
}

// Reconcile writes drafts to the store while holding the owner's lock.
// Bookings whose storage key already exists for the owner are discarded
// first; each remaining draft then extends the best matching stored trip or
// becomes a new trip.
func (c *Consolidator) Reconcile(ctx context.Context, batch Batch, drafts []domain.TripDraft) (*Outcome, error) {
	out := &Outcome{}
	if len(drafts) == 0 {
		return out, nil
	}

	unlock := c.locks.Lock(batch.OwnerID)
	defer unlock()

	existing, err := c.existingKeys(ctx, batch.OwnerID, drafts)
	if err != nil {
		return nil, err
	}

	for _, d := range drafts {
		fresh := make([]domain.ParsedBooking, 0, len(d.Bookings))
		for _, b := range d.Bookings {
			if existing[b.StorageKey()] {
				out.BookingsSkipped++
				continue
			}
			fresh = append(fresh, b)
		}
		if len(fresh) == 0 {
			continue
		}
		if len(fresh) != len(d.Bookings) {
			d = c.draftOf(ctx, fresh)
		}

		res, err := c.reconcileDraft(ctx, batch, d)
		if err != nil {
			return nil, err
		}
		out.BookingsSkipped += len(d.Bookings) - len(res.Bookings)
		out.BookingsInserted += len(res.Bookings)
		if res.Merged {
			out.TripsMerged++
		} else {
			out.TripsCreated++
		}
		out.Trips = append(out.Trips, *res)
	}
	return out, nil
}

func (c *Consolidator) existingKeys(ctx context.Context, ownerID uuid.UUID, drafts []domain.TripDraft) (map[domain.BookingKey]bool, error) {
	var keys []domain.BookingKey
	for _, d := range drafts {
		for _, b := range d.Bookings {
			keys = append(keys, b.StorageKey())
		}
	}
	existing, err := c.store.ExistingBookingKeys(ctx, ownerID, keys)
	if err != nil {
		return nil, fmt.Errorf("consolidator.Reconcile: existing keys: %w", err)
	}
	return existing, nil
}

func (c *Consolidator) reconcileDraft(ctx context.Context, batch Batch, d domain.TripDraft) (*TripResult, error) {
	candidates, err := c.store.FindTripsOverlapping(ctx, batch.OwnerID, d.DateRange.Expand(c.gapDays))
	if err != nil {
		return nil, fmt.Errorf("consolidator.Reconcile: find trips: %w", err)
	}

	upsert := port.TripUpsert{
		DateRange:   d.DateRange,
		Name:        d.Name,
		Destination: d.Destination,
		Source:      batch.Source,
	}
	match := c.bestMatch(candidates, d.DateRange)
	if match != nil {
		id := match.ID
		upsert.TripID = &id
		upsert.DateRange = match.DateRange.Union(d.DateRange)
		if match.Destination != "" {
			upsert.Destination = match.Destination
		}
	}

	trip, err := c.store.CreateOrExtendTrip(ctx, batch.OwnerID, upsert)
	if err != nil {
		return nil, fmt.Errorf("consolidator.Reconcile: write trip: %w", err)
	}

	res := &TripResult{Trip: trip, Merged: match != nil}
	for _, b := range d.Bookings {
		outcome, err := c.store.UpsertBooking(ctx, batch.OwnerID, trip.ID, batch.DocumentID, b)
		if err != nil {
			return nil, fmt.Errorf("consolidator.Reconcile: write booking: %w", err)
		}
		if outcome == domain.UpsertSkipped {
			c.logger.Debug("consolidator.Reconcile: booking already stored",
				"owner_id", batch.OwnerID, "type", b.Type, "confirmation", b.ConfirmationNumber)
			continue
		}
		res.Bookings = append(res.Bookings, b)
	}

	c.logger.Info("consolidator.Reconcile: trip written",
		"owner_id", batch.OwnerID, "trip_id", trip.ID, "merged", res.Merged,
		"range", trip.DateRange.String(), "bookings", len(res.Bookings))
	return res, nil
}

// bestMatch picks the stored trip a draft should join: overlapping trips
// first, then the smallest gap, then the earliest start, then the lowest ID.
func (c *Consolidator) bestMatch(trips []domain.StoredTrip, r domain.DateRange) *domain.StoredTrip {
	var eligible []domain.StoredTrip
	for _, t := range trips {
		if t.DateRange.WithinGap(r, c.gapDays) {
			eligible = append(eligible, t)
		}
	}
	if len(eligible) == 0 {
		return nil
	}
	sort.SliceStable(eligible, func(i, j int) bool {
		a, b := eligible[i], eligible[j]
		ao, bo := a.DateRange.Overlaps(r), b.DateRange.Overlaps(r)
		if ao != bo {
			return ao
		}
		if ag, bg := a.DateRange.Gap(r), b.DateRange.Gap(r); ag != bg {
			return ag < bg
		}
		if cmp := a.DateRange.Start.Compare(b.DateRange.Start); cmp != 0 {
			return cmp < 0
		}
		return a.ID.String() < b.ID.String()
	})
	return &eligible[0]
}
