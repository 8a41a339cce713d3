// Command seedairports loads the airport reference workbook into the airports
// table. The first sheet must carry a header row with the columns
// iata_code, name, city and country, in any order.
// Usage: go run ./cmd/seedairports [path/to/airports.xlsx]
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/xuri/excelize/v2"

	"itinera/internal/config"
	"itinera/internal/domain"
	"itinera/internal/repository/postgres"
)

const (
	defaultPath = "db/seeds/airports.xlsx"
	batchSize   = 500
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	path := defaultPath
	if len(os.Args) > 1 {
		path = os.Args[1]
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		return fmt.Errorf("open Excel file: %w", err)
	}
	defer func() { _ = f.Close() }()

	airports, skipped, err := parseAirports(f)
	if err != nil {
		return fmt.Errorf("parse airports: %w", err)
	}
	log.Printf("parsed %d airports (%d rows skipped)", len(airports), skipped)

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	db, err := postgres.NewDB(&cfg.DB)
	if err != nil {
		return fmt.Errorf("connecting to database: %w", err)
	}
	defer func() { _ = db.Close() }()

	repo := postgres.NewAirportRepo(db)
	ctx := context.Background()
	total := 0
	for i := 0; i < len(airports); i += batchSize {
		end := min(i+batchSize, len(airports))
		n, err := repo.UpsertMany(ctx, airports[i:end])
		if err != nil {
			return fmt.Errorf("upsert batch at offset %d: %w", i, err)
		}
		total += n
	}

	log.Printf("upserted %d airports", total)
	return nil
}

// parseAirports reads the first sheet. Rows without a three-letter code are
// skipped; a code seen twice keeps its first row.
func parseAirports(f *excelize.File) ([]domain.Airport, int, error) {
	rows, err := f.GetRows(f.GetSheetName(0))
	if err != nil {
		return nil, 0, err
	}
	if len(rows) == 0 {
		return nil, 0, fmt.Errorf("sheet is empty")
	}

	cols := map[string]int{}
	for i, h := range rows[0] {
		cols[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, required := range []string{"iata_code", "name", "city", "country"} {
		if _, ok := cols[required]; !ok {
			return nil, 0, fmt.Errorf("missing column %q", required)
		}
	}

	seen := make(map[string]bool)
	var airports []domain.Airport
	skipped := 0
	for _, row := range rows[1:] {
		code := strings.ToUpper(strings.TrimSpace(cellVal(row, cols["iata_code"])))
		if !isIATACode(code) || seen[code] {
			skipped++
			continue
		}
		seen[code] = true
		airports = append(airports, domain.Airport{
			IATACode: code,
			Name:     strings.TrimSpace(cellVal(row, cols["name"])),
			City:     strings.TrimSpace(cellVal(row, cols["city"])),
			Country:  strings.TrimSpace(cellVal(row, cols["country"])),
		})
	}
	return airports, skipped, nil
}

func isIATACode(s string) bool {
	if len(s) != 3 {
		return false
	}
	for _, c := range s {
		if c < 'A' || c > 'Z' {
			return false
		}
	}
	return true
}

func cellVal(row []string, idx int) string {
	if idx < len(row) {
		return row[idx]
	}
	return ""
}
