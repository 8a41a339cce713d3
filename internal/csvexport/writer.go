package csvexport

import (
	"encoding/csv"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
	"time"

	"itinera/internal/domain"
)

// UTF-8 BOM bytes for Excel compatibility on Windows.
var BOM = []byte{0xEF, 0xBB, 0xBF}

// columns defines the CSV header row (16 columns).
var columns = []string{
	"Trip Name",
	"Trip Destination",
	"Trip Start",
	"Trip End",
	"Name Source",
	"Booking Type",
	"Confirmation Number",
	"Start Date",
	"End Date",
	"Origin",
	"Destination",
	"Provider",
	"Amount",
	"Currency",
	"Confidence",
	"Added At",
}

// Writer wraps csv.Writer for exporting trips as CSV.
type Writer struct {
	csv *csv.Writer
}

// NewWriter creates a Writer that writes CSV to w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{csv: csv.NewWriter(w)}
}

// WriteHeader writes the 16-column header row.
func (w *Writer) WriteHeader() error {
	return w.csv.Write(columns)
}

// WriteTrips writes one row per booking. A trip without bookings still gets
// a row with the booking columns left empty.
func (w *Writer) WriteTrips(trips []domain.TripWithBookings) error {
	for i := range trips {
		for _, row := range tripToRows(&trips[i]) {
			if err := w.csv.Write(row); err != nil {
				return err
			}
		}
	}
	return nil
}

// Flush flushes the underlying csv.Writer buffer.
func (w *Writer) Flush() {
	w.csv.Flush()
}

// Error returns any error from the underlying csv.Writer.
func (w *Writer) Error() error {
	return w.csv.Error()
}

func tripToRows(trip *domain.TripWithBookings) [][]string {
	base := make([]string, len(columns))
	base[0] = trip.Name
	base[1] = trip.Destination
	base[2] = trip.DateRange.Start.String()
	base[3] = trip.DateRange.End.String()
	base[4] = string(trip.NameSource)

	if len(trip.Bookings) == 0 {
		return [][]string{base}
	}

	rows := make([][]string, 0, len(trip.Bookings))
	for i := range trip.Bookings {
		b := &trip.Bookings[i]
		row := make([]string, len(columns))
		copy(row, base)
		row[5] = string(b.Type)
		row[6] = b.ConfirmationNumber
		row[7] = b.StartDate.String()
		row[8] = b.EndDate.String()
		row[9] = b.Origin
		row[10] = b.Destination
		row[11] = b.ProviderName
		if b.Price != nil {
			row[12] = b.Price.Amount()
			row[13] = b.Price.Currency
		}
		row[14] = strconv.FormatFloat(b.Confidence, 'f', 2, 64)
		row[15] = formatTime(b.CreatedAt)
		rows = append(rows, row)
	}
	return rows
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

// nonAlphanumeric matches characters that are not alphanumeric, hyphen, or underscore.
var nonAlphanumeric = regexp.MustCompile(`[^a-zA-Z0-9_-]+`)

// multiUnderscore matches consecutive underscores.
var multiUnderscore = regexp.MustCompile(`_{2,}`)

// SanitizeFilename cleans a name for use in Content-Disposition.
// Replaces non-alphanumeric chars (except - _) with _, collapses consecutive
// underscores, and truncates to 100 chars.
func SanitizeFilename(name string) string {
	s := nonAlphanumeric.ReplaceAllString(name, "_")
	s = multiUnderscore.ReplaceAllString(s, "_")
	s = strings.Trim(s, "_")
	if len(s) > 100 {
		s = s[:100]
	}
	return s
}

// BuildFilename returns a sanitized filename for Content-Disposition header.
// Format: {sanitized_name}_{YYYY-MM-DD}.csv
func BuildFilename(name string) string {
	sanitized := SanitizeFilename(name)
	if sanitized == "" {
		sanitized = "trips"
	}
	date := time.Now().Format("2006-01-02")
	return fmt.Sprintf("%s_%s.csv", sanitized, date)
}
