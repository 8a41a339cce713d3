package validator

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode"

	"itinera/internal/domain"
)

var currencySymbols = map[string]string{
	"$": "USD", "€": "EUR", "£": "GBP", "¥": "JPY", "₹": "INR", "₩": "KRW", "CHF": "CHF",
}

// symbolOrder fixes the lookup order of currencySymbols.
var symbolOrder = []string{"€", "£", "¥", "₹", "₩", "CHF", "$"}

// Known ISO 4217 currency codes (common subset), matched in this order.
var knownCurrencies = []string{
	"USD", "EUR", "GBP", "JPY", "AUD", "CAD",
	"CHF", "CNY", "SGD", "AED", "HKD", "INR",
	"NZD", "SEK", "NOK", "DKK", "MXN", "BRL",
	"ZAR", "THB", "KRW",
}

// maxUnits keeps units*100 + 99 within int64.
const maxUnits = (math.MaxInt64 - 99) / 100

// coercePrice turns an extractor price into Money. The value may be a JSON
// number, a string carrying symbols and separators, or an object with amount
// and currency. Anything unparsable or negative yields nil.
func coercePrice(raw json.RawMessage, currencyHint string) *domain.Money {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil
	}

	var amount, currency string
	switch raw[0] {
	case '{':
		var obj struct {
			Amount   json.RawMessage `json:"amount"`
			Value    json.RawMessage `json:"value"`
			Currency string          `json:"currency"`
		}
		if err := json.Unmarshal(raw, &obj); err != nil {
			return nil
		}
		inner := obj.Amount
		if len(inner) == 0 {
			inner = obj.Value
		}
		return coercePrice(inner, firstNonEmpty(obj.Currency, currencyHint))
	case '"':
		if err := json.Unmarshal(raw, &amount); err != nil {
			return nil
		}
	default:
		dec := json.NewDecoder(bytes.NewReader(raw))
		dec.UseNumber()
		var n json.Number
		if err := dec.Decode(&n); err != nil {
			return nil
		}
		amount = n.String()
		if strings.ContainsAny(amount, "eE") {
			f, err := n.Float64()
			if err != nil {
				return nil
			}
			amount = strconv.FormatFloat(f, 'f', -1, 64)
		}
	}

	amount, currency = splitCurrency(amount)
	cents, err := parseCents(amount)
	if err != nil || cents < 0 {
		return nil
	}
	return &domain.Money{Cents: cents, Currency: normalizeCurrency(firstNonEmpty(currencyHint, currency))}
}

// splitCurrency removes currency symbols or codes from s and reports the
// currency they denote. The first code in knownCurrencies order wins, then
// the first symbol.
func splitCurrency(s string) (string, string) {
	s = strings.TrimSpace(s)
	currency := ""
	upper := strings.ToUpper(s)
	for _, code := range knownCurrencies {
		if strings.Contains(upper, code) {
			if currency == "" {
				currency = code
			}
			upper = strings.ReplaceAll(upper, code, "")
		}
	}
	for _, sym := range symbolOrder {
		if strings.Contains(upper, sym) {
			code := currencySymbols[sym]
			if currency == "" {
				currency = code
			}
			upper = strings.ReplaceAll(upper, sym, "")
		}
	}
	return strings.TrimSpace(upper), currency
}

// parseCents parses a decimal amount with optional thousands separators into
// integer cents, rounding half up beyond two decimals.
func parseCents(s string) (int64, error) {
	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9', r == '.', r == ',', r == '-':
			b.WriteRune(r)
		case r == ' ', r == '\'', r == '\u00a0', unicode.IsLetter(r):
			// grouping or unit words
		default:
			return 0, fmt.Errorf("unexpected character %q in amount", r)
		}
	}
	s = b.String()
	if strings.IndexFunc(s, unicode.IsDigit) < 0 {
		return 0, fmt.Errorf("no digits in amount")
	}

	negative := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")
	if strings.Contains(s, "-") {
		return 0, fmt.Errorf("misplaced sign")
	}

	intPart, fracPart := splitDecimal(s)
	if intPart == "" {
		intPart = "0"
	}
	units, err := strconv.ParseInt(intPart, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parsing amount: %w", err)
	}
	if units > maxUnits {
		return 0, fmt.Errorf("amount %s is out of range", intPart)
	}

	var frac int64
	if fracPart != "" {
		padded := fracPart + "00"
		frac, _ = strconv.ParseInt(padded[:2], 10, 64)
		if len(fracPart) > 2 && fracPart[2] >= '5' {
			frac++
		}
	}

	cents := units*100 + frac
	if negative {
		cents = -cents
	}
	return cents, nil
}

// splitDecimal decides which separator, if any, is the decimal point.
func splitDecimal(s string) (string, string) {
	lastDot := strings.LastIndexByte(s, '.')
	lastComma := strings.LastIndexByte(s, ',')

	var sep byte
	switch {
	case lastDot >= 0 && lastComma >= 0:
		sep = '.'
		if lastComma > lastDot {
			sep = ','
		}
	case lastDot >= 0:
		if strings.Count(s, ".") == 1 {
			sep = '.'
		}
	case lastComma >= 0:
		// "12,50" is a decimal comma; "1,250" is grouping.
		if strings.Count(s, ",") == 1 && len(s)-lastComma-1 <= 2 {
			sep = ','
		}
	}

	if sep == 0 {
		return stripSeparators(s), ""
	}
	idx := strings.LastIndexByte(s, sep)
	return stripSeparators(s[:idx]), stripSeparators(s[idx+1:])
}

func stripSeparators(s string) string {
	return strings.NewReplacer(".", "", ",", "").Replace(s)
}

func normalizeCurrency(c string) string {
	c = strings.ToUpper(strings.TrimSpace(c))
	if code, ok := currencySymbols[c]; ok {
		return code
	}
	if len(c) == 3 {
		return c
	}
	return ""
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
