// Package validator enforces the extraction contract: it locates the JSON
// payload in raw extractor output, checks each record's shape and fields, and
// turns surviving records into canonical bookings.
package validator

import (
	"context"
	"encoding/json"
	"fmt"

	"itinera/internal/domain"
)

// Rule is one step of the extraction contract. A rule may normalize the
// record in place or reject it by returning a *RejectError.
type Rule interface {
	Apply(ctx context.Context, rec *Record) error
	RuleKey() string
	RuleName() string
}

// Record is a single extractor candidate moving through the rule chain.
type Record struct {
	Index     int
	Raw       json.RawMessage
	Candidate Candidate
	Booking   domain.ParsedBooking
}

// Rejection describes why a candidate was dropped.
type Rejection struct {
	Index   int    `json:"index"`
	RuleKey string `json:"rule_key"`
	Message string `json:"message"`
}

// RejectError is returned by a rule to drop the record it was applied to.
type RejectError struct {
	Message string
}

func (e *RejectError) Error() string { return e.Message }

func reject(format string, args ...any) error {
	return &RejectError{Message: fmt.Sprintf(format, args...)}
}

// Report is the outcome of validating one extractor response.
type Report struct {
	Accepted   []domain.ParsedBooking `json:"accepted"`
	Rejected   []Rejection            `json:"rejected"`
	Duplicates int                    `json:"duplicates"`
}
