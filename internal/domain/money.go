package domain

import (
	"encoding/json"
	"fmt"
)

// Money is a price held as integer minor units with two implied decimals.
type Money struct {
	Cents    int64  `json:"-"`
	Currency string `json:"-"`
}

// Amount renders the value with exactly two decimals, e.g. "1234.50".
func (m Money) Amount() string {
	sign := ""
	cents := m.Cents
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s%d.%02d", sign, cents/100, cents%100)
}

func (m Money) String() string {
	if m.Currency == "" {
		return m.Amount()
	}
	return m.Amount() + " " + m.Currency
}

func (m Money) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Amount   string `json:"amount"`
		Currency string `json:"currency,omitempty"`
	}{Amount: m.Amount(), Currency: m.Currency})
}
