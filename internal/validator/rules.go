package validator

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"itinera/internal/domain"
)

// Defaults for Options.
const (
	DefaultMinConfidence = 0.6
	DefaultMaxExcerptLen = 500
)

// Options tunes the builtin rules.
type Options struct {
	MinConfidence float64
	MaxExcerptLen int
}

func (o Options) withDefaults() Options {
	if o.MinConfidence <= 0 {
		o.MinConfidence = DefaultMinConfidence
	}
	if o.MaxExcerptLen <= 0 {
		o.MaxExcerptLen = DefaultMaxExcerptLen
	}
	return o
}

// BuiltinRules returns the extraction contract rules in application order.
func BuiltinRules(opts Options) ([]Rule, error) {
	opts = opts.withDefaults()
	schema, err := CompileRecordSchema()
	if err != nil {
		return nil, err
	}
	return []Rule{
		&shapeRule{schema: schema},
		&typeRule{},
		&dateRule{},
		&confidenceRule{min: opts.MinConfidence},
		&priceRule{},
		&textRule{maxExcerpt: opts.MaxExcerptLen},
	}, nil
}

// shapeRule checks the record against RecordSchema and decodes it.
type shapeRule struct {
	schema *jsonschema.Schema
}

func (r *shapeRule) RuleKey() string  { return "shape.schema" }
func (r *shapeRule) RuleName() string { return "Shape: record schema" }

func (r *shapeRule) Apply(_ context.Context, rec *Record) error {
	var doc any
	if err := json.Unmarshal(rec.Raw, &doc); err != nil {
		return reject("record is not valid JSON: %v", err)
	}
	if err := r.schema.Validate(doc); err != nil {
		return reject("record does not match schema: %v", err)
	}
	if err := json.Unmarshal(rec.Raw, &rec.Candidate); err != nil {
		return reject("decoding record: %v", err)
	}
	return nil
}

// typeRule requires a booking type; unknown values fall back to other.
type typeRule struct{}

func (r *typeRule) RuleKey() string  { return "required.type" }
func (r *typeRule) RuleName() string { return "Required: booking type" }

func (r *typeRule) Apply(_ context.Context, rec *Record) error {
	raw := strings.ToLower(rec.Candidate.Type.String())
	if raw == "" {
		return reject("type is missing")
	}
	bt := domain.BookingType(raw)
	if !domain.ValidBookingTypes[bt] {
		bt = bookingTypeAliases[raw]
		if bt == "" {
			bt = domain.BookingTypeOther
		}
	}
	rec.Booking.Type = bt
	return nil
}

var bookingTypeAliases = map[string]domain.BookingType{
	"air":            domain.BookingTypeFlight,
	"airline":        domain.BookingTypeFlight,
	"plane":          domain.BookingTypeFlight,
	"lodging":        domain.BookingTypeHotel,
	"accommodation":  domain.BookingTypeHotel,
	"stay":           domain.BookingTypeHotel,
	"rental":         domain.BookingTypeCar,
	"car rental":     domain.BookingTypeCar,
	"car_rental":     domain.BookingTypeCar,
	"tour":           domain.BookingTypeActivity,
	"event":          domain.BookingTypeActivity,
	"excursion":      domain.BookingTypeActivity,
	"activity/tour":  domain.BookingTypeActivity,
	"experience":     domain.BookingTypeActivity,
	"ticketed event": domain.BookingTypeActivity,
}

// dateRule parses the date range. A missing end collapses to the start; an
// unparsable end or an end before the start rejects the record.
type dateRule struct{}

func (r *dateRule) RuleKey() string  { return "date.range" }
func (r *dateRule) RuleName() string { return "Date: valid range" }

func (r *dateRule) Apply(_ context.Context, rec *Record) error {
	startRaw := rec.Candidate.StartDate.String()
	if startRaw == "" {
		return reject("startDate is missing")
	}
	start, err := parseDate(startRaw)
	if err != nil {
		return reject("startDate: %v", err)
	}

	end := start
	if endRaw := rec.Candidate.EndDate.String(); endRaw != "" {
		end, err = parseDate(endRaw)
		if err != nil {
			return reject("endDate: %v", err)
		}
	}
	if end.Before(start) {
		return reject("endDate %s is before startDate %s", end, start)
	}

	rec.Booking.StartDate = start
	rec.Booking.EndDate = end
	return nil
}

// confidenceRule enforces the acceptance floor.
type confidenceRule struct {
	min float64
}

func (r *confidenceRule) RuleKey() string  { return "confidence.floor" }
func (r *confidenceRule) RuleName() string { return "Confidence: minimum" }

func (r *confidenceRule) Apply(_ context.Context, rec *Record) error {
	c := rec.Candidate.Confidence
	if c == nil {
		return reject("confidence is missing")
	}
	if *c < 0 || *c > 1 {
		return reject("confidence %v is outside [0,1]", *c)
	}
	if *c < r.min {
		return reject("confidence %.2f is below minimum %.2f", *c, r.min)
	}
	rec.Booking.Confidence = *c
	return nil
}

// priceRule coerces the price; it never rejects.
type priceRule struct{}

func (r *priceRule) RuleKey() string  { return "price.coerce" }
func (r *priceRule) RuleName() string { return "Price: two-decimal amount" }

func (r *priceRule) Apply(_ context.Context, rec *Record) error {
	rec.Booking.Price = coercePrice(rec.Candidate.Price, rec.Candidate.Currency.String())
	return nil
}

var iataPattern = regexp.MustCompile(`^[A-Za-z]{3}$`)

// textRule canonicalizes free-text fields and bounds them to their column sizes.
type textRule struct {
	maxExcerpt int
}

func (r *textRule) RuleKey() string  { return "text.canonical" }
func (r *textRule) RuleName() string { return "Text: canonical fields" }

func (r *textRule) Apply(_ context.Context, rec *Record) error {
	c := &rec.Candidate
	b := &rec.Booking

	b.ConfirmationNumber = NormalizeConfirmation(c.ConfirmationNumber.String())
	if n := utf8.RuneCountInString(b.ConfirmationNumber); n > domain.MaxConfirmationLen {
		return reject("confirmation number has %d characters (max %d)", n, domain.MaxConfirmationLen)
	}
	b.ProviderName = truncateRunes(c.ProviderName.String(), domain.MaxPlaceLen)
	b.Origin = truncateRunes(canonicalPlace(c.Origin.String(), b.Type), domain.MaxPlaceLen)
	b.Destination = truncateRunes(canonicalPlace(c.Destination.String(), b.Type), domain.MaxPlaceLen)
	b.RawSourceExcerpt = truncateRunes(c.RawSourceExcerpt.String(), r.maxExcerpt)
	return nil
}

// NormalizeConfirmation trims, removes inner whitespace and a leading '#', and
// upper-cases a confirmation number.
func NormalizeConfirmation(s string) string {
	s = strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
	s = strings.TrimLeft(s, "#")
	return strings.ToUpper(s)
}

// canonicalPlace upper-cases three-letter airport codes on flights.
func canonicalPlace(s string, bt domain.BookingType) string {
	if bt == domain.BookingTypeFlight && iataPattern.MatchString(s) {
		return strings.ToUpper(s)
	}
	return s
}

func truncateRunes(s string, limit int) string {
	if limit <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}

// ruleError labels a non-rejection failure with the rule that raised it.
func ruleError(rule Rule, err error) error {
	return fmt.Errorf("validator.%s: %w", rule.RuleKey(), err)
}
