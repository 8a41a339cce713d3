package validator

import (
	"fmt"
	"strings"
	"time"

	"github.com/araddon/dateparse"

	"itinera/internal/domain"
)

var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006/01/02",
	"Jan 2, 2006",
	"January 2, 2006",
	"Mon, Jan 2, 2006",
	"Monday, January 2, 2006",
	"2 Jan 2006",
	"02 Jan 2006",
	"2 January 2006",
	"Mon 2 Jan 2006",
	"Monday 2 January 2006",
}

// parseDate accepts ISO dates and timestamps plus common written forms. A
// timestamp resolves to its calendar date in its own offset. Slash dates
// where day and month cannot be told apart are refused rather than guessed.
func parseDate(s string) (domain.Date, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return domain.Date{}, fmt.Errorf("empty date")
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return domain.DateOf(t), nil
		}
	}
	t, err := dateparse.ParseStrict(s)
	if err != nil {
		return domain.Date{}, fmt.Errorf("unparseable date %q: %w", s, err)
	}
	return domain.DateOf(t), nil
}
