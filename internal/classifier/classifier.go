// Package classifier decides cheaply whether normalized text is likely a
// travel booking confirmation, before any extractor call is spent on it.
package classifier

import (
	"regexp"
	"strings"
)

// DefaultThreshold favours precision: a confirmation word plus a date clears it,
// a date plus travel nouns alone does not.
const DefaultThreshold = 5

const (
	weightConfirmation = 3
	weightCode         = 1
	weightDate         = 2
	weightTravelNoun   = 1
	maxTravelNouns     = 3
	weightMarketing    = -1
	maxMarketing       = 2
)

// Result is the scored outcome of one classification.
type Result struct {
	Score   int      `json:"score"`
	Likely  bool     `json:"likely"`
	Signals []string `json:"signals"`
}

// Classifier scores text with a weighted keyword heuristic.
type Classifier struct {
	threshold int
}

// New returns a Classifier; a non-positive threshold selects DefaultThreshold.
func New(threshold int) *Classifier {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	return &Classifier{threshold: threshold}
}

// Threshold returns the score at which text is considered a booking.
func (c *Classifier) Threshold() int { return c.threshold }

var (
	confirmationPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\b(booking (is )?confirmed|reservation (is )?confirmed|confirmation (number|code)|booking (reference|number|code)|reservation (number|code)|record locator|itinerary (number|receipt)|e-?ticket( number)?|pnr|(booking|reservation|trip) (is|has been) confirmed)\b`),
		// Labels such as "Confirmation: X" or "Booking ref #X".
		regexp.MustCompile(`(?i)\b(confirmation|conf\.|confirmation no\.?|booking ref\.?|reservation|reference)\s*[:#]`),
	}

	codeAnchorPattern = regexp.MustCompile(`(?i)\b(confirmation|booking|reservation|reference|locator|pnr|ticket)\b`)
	codeTokenPattern  = regexp.MustCompile(`\b[A-Z0-9]{5,10}\b`)

	datePatterns = []*regexp.Regexp{
		regexp.MustCompile(`\b\d{4}-\d{2}-\d{2}\b`),
		regexp.MustCompile(`\b\d{1,2}/\d{1,2}/\d{2,4}\b`),
		regexp.MustCompile(`(?i)\b(jan|feb|mar|apr|may|jun|jul|aug|sep|sept|oct|nov|dec)[a-z]*\.? \d{1,2}(st|nd|rd|th)?,? \d{4}\b`),
		regexp.MustCompile(`(?i)\b\d{1,2}(st|nd|rd|th)? (jan|feb|mar|apr|may|jun|jul|aug|sep|sept|oct|nov|dec)[a-z]*\.?,? \d{4}\b`),
	}

	travelNouns = []string{
		"flight", "departure", "arrival", "boarding", "gate", "seat", "airline",
		"hotel", "check-in", "check-out", "room", "guest", "nights",
		"rental", "pick-up", "pickup", "drop-off", "vehicle",
		"tour", "tickets", "admission", "itinerary", "passenger", "terminal",
	}

	marketingSignals = []string{
		"unsubscribe", "limited time", "% off", "sale ends", "deal of the day",
		"special offer", "book now", "save up to", "newsletter", "promo code",
	}
)

// Classify scores text and reports which signals fired.
func (c *Classifier) Classify(text string) Result {
	res := Result{}
	if strings.TrimSpace(text) == "" {
		return res
	}
	lower := strings.ToLower(text)

	if m := findConfirmation(text); m != "" {
		res.Score += weightConfirmation
		res.Signals = append(res.Signals, "confirmation:"+strings.ToLower(m))
		if hasCode(text) {
			res.Score += weightCode
			res.Signals = append(res.Signals, "code")
		}
	}

	for _, p := range datePatterns {
		if p.MatchString(text) {
			res.Score += weightDate
			res.Signals = append(res.Signals, "date")
			break
		}
	}

	nouns := 0
	for _, noun := range travelNouns {
		if nouns == maxTravelNouns {
			break
		}
		if containsWord(lower, noun) {
			nouns++
			res.Score += weightTravelNoun
			res.Signals = append(res.Signals, "travel:"+noun)
		}
	}

	marketing := 0
	for _, sig := range marketingSignals {
		if marketing == maxMarketing {
			break
		}
		if strings.Contains(lower, sig) {
			marketing++
			res.Score += weightMarketing
			res.Signals = append(res.Signals, "marketing:"+sig)
		}
	}

	res.Likely = res.Score >= c.threshold
	return res
}

// IsLikelyBooking reports whether text clears the threshold.
func (c *Classifier) IsLikelyBooking(text string) bool {
	return c.Classify(text).Likely
}

func findConfirmation(text string) string {
	for _, p := range confirmationPatterns {
		if m := p.FindString(text); m != "" {
			return m
		}
	}
	return ""
}

// codeWindow is how far after confirmation vocabulary a code may appear.
const codeWindow = 40

// hasCode looks for an upper-case alphanumeric code with at least one digit
// shortly after confirmation vocabulary.
func hasCode(text string) bool {
	for _, loc := range codeAnchorPattern.FindAllStringIndex(text, -1) {
		end := loc[1] + codeWindow
		if end > len(text) {
			end = len(text)
		}
		for _, tok := range codeTokenPattern.FindAllString(text[loc[1]:end], -1) {
			if strings.ContainsAny(tok, "0123456789") {
				return true
			}
		}
	}
	return false
}

func containsWord(lower, word string) bool {
	idx := 0
	for {
		i := strings.Index(lower[idx:], word)
		if i < 0 {
			return false
		}
		start := idx + i
		end := start + len(word)
		if isBoundary(lower, start-1) && isBoundary(lower, end) {
			return true
		}
		idx = end
	}
}

func isBoundary(s string, i int) bool {
	if i < 0 || i >= len(s) {
		return true
	}
	ch := s[i]
	return !(ch >= 'a' && ch <= 'z' || ch >= '0' && ch <= '9')
}
