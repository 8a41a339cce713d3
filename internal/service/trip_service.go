package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"itinera/internal/csvexport"
	"itinera/internal/domain"
	"itinera/internal/port"
)

const (
	exportPageLimit = 100
)

// TripService defines the itinerary read and edit contract.
type TripService interface {
	List(ctx context.Context, ownerID uuid.UUID, offset, limit int) ([]domain.StoredTrip, int, error)
	Get(ctx context.Context, ownerID, tripID uuid.UUID) (*domain.TripWithBookings, error)
	Rename(ctx context.Context, ownerID, tripID uuid.UUID, name string) (*domain.StoredTrip, error)
	Export(ctx context.Context, ownerID uuid.UUID, w io.Writer) error
}

type tripService struct {
	trips  port.TripReader
	logger *slog.Logger
}

// NewTripService creates a new TripService implementation.
func NewTripService(trips port.TripReader, logger *slog.Logger) TripService {
	if logger == nil {
		logger = slog.Default()
	}
	return &tripService{trips: trips, logger: logger}
}

func (s *tripService) List(ctx context.Context, ownerID uuid.UUID, offset, limit int) ([]domain.StoredTrip, int, error) {
	trips, total, err := s.trips.ListTrips(ctx, ownerID, offset, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("service.TripService.List: %w", err)
	}
	return trips, total, nil
}

func (s *tripService) Get(ctx context.Context, ownerID, tripID uuid.UUID) (*domain.TripWithBookings, error) {
	trip, err := s.trips.GetTrip(ctx, ownerID, tripID)
	if err != nil {
		return nil, fmt.Errorf("service.TripService.Get: %w", err)
	}
	bookings, err := s.trips.ListBookings(ctx, ownerID, tripID)
	if err != nil {
		return nil, fmt.Errorf("service.TripService.Get: bookings: %w", err)
	}
	if bookings == nil {
		bookings = []domain.BookingRecord{}
	}
	return &domain.TripWithBookings{StoredTrip: *trip, Bookings: bookings}, nil
}

// Rename sets a user-chosen name. Ingestion never overwrites it afterwards.
func (s *tripService) Rename(ctx context.Context, ownerID, tripID uuid.UUID, name string) (*domain.StoredTrip, error) {
	name = strings.TrimSpace(name)
	if name == "" || utf8.RuneCountInString(name) > domain.MaxTripNameLen {
		return nil, domain.ErrInvalidTripName
	}
	if err := s.trips.RenameTrip(ctx, ownerID, tripID, name); err != nil {
		return nil, fmt.Errorf("service.TripService.Rename: %w", err)
	}
	trip, err := s.trips.GetTrip(ctx, ownerID, tripID)
	if err != nil {
		return nil, fmt.Errorf("service.TripService.Rename: %w", err)
	}
	s.logger.Info("service.TripService.Rename: trip renamed", "owner_id", ownerID, "trip_id", tripID)
	return trip, nil
}

// Export writes every trip of the owner, with its bookings, as CSV.
func (s *tripService) Export(ctx context.Context, ownerID uuid.UUID, w io.Writer) error {
	if _, err := w.Write(csvexport.BOM); err != nil {
		return fmt.Errorf("service.TripService.Export: %w", err)
	}
	cw := csvexport.NewWriter(w)
	if err := cw.WriteHeader(); err != nil {
		return fmt.Errorf("service.TripService.Export: %w", err)
	}

	for offset := 0; ; offset += exportPageLimit {
		trips, total, err := s.trips.ListTrips(ctx, ownerID, offset, exportPageLimit)
		if err != nil {
			return fmt.Errorf("service.TripService.Export: listing trips: %w", err)
		}

		page := make([]domain.TripWithBookings, 0, len(trips))
		for i := range trips {
			bookings, err := s.trips.ListBookings(ctx, ownerID, trips[i].ID)
			if err != nil {
				return fmt.Errorf("service.TripService.Export: listing bookings: %w", err)
			}
			page = append(page, domain.TripWithBookings{StoredTrip: trips[i], Bookings: bookings})
		}
		if err := cw.WriteTrips(page); err != nil {
			return fmt.Errorf("service.TripService.Export: %w", err)
		}

		if len(trips) == 0 || offset+len(trips) >= total {
			break
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("service.TripService.Export: %w", err)
	}
	return nil
}
