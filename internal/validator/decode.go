package validator

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"itinera/internal/domain"
)

// Candidate is the loosely typed form of one extractor record.
type Candidate struct {
	Type               flexString      `json:"type"`
	ConfirmationNumber flexString      `json:"confirmationNumber"`
	StartDate          flexString      `json:"startDate"`
	EndDate            flexString      `json:"endDate"`
	Origin             flexString      `json:"origin"`
	Destination        flexString      `json:"destination"`
	ProviderName       flexString      `json:"providerName"`
	Price              json.RawMessage `json:"price"`
	Currency           flexString      `json:"currency"`
	RawSourceExcerpt   flexString      `json:"rawSourceExcerpt"`
	Confidence         *float64        `json:"confidence"`
}

// flexString accepts a JSON string, number or null.
type flexString string

func (f *flexString) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case bytes.Equal(b, []byte("null")):
		*f = ""
		return nil
	case len(b) > 0 && b[0] == '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = flexString(s)
		return nil
	default:
		var n json.Number
		if err := json.Unmarshal(b, &n); err != nil {
			return fmt.Errorf("expected string or number, got %s", b)
		}
		*f = flexString(n.String())
		return nil
	}
}

func (f flexString) String() string { return strings.TrimSpace(string(f)) }

// DecodeCandidates locates the JSON payload in raw extractor output and splits
// it into per-record documents. Accepted shapes are a bare array, an object
// with a "bookings" array, or a single record object. Prose and markdown code
// fences around the payload are tolerated.
func DecodeCandidates(raw string) ([]json.RawMessage, error) {
	payload, err := locateJSON(raw)
	if err != nil {
		return nil, err
	}

	trimmed := bytes.TrimSpace(payload)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var items []json.RawMessage
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrUnparsableExtraction, err)
		}
		return items, nil
	}

	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &envelope); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrUnparsableExtraction, err)
	}
	if inner, ok := envelope["bookings"]; ok {
		if bytes.Equal(bytes.TrimSpace(inner), []byte("null")) {
			return []json.RawMessage{}, nil
		}
		var items []json.RawMessage
		if err := json.Unmarshal(inner, &items); err != nil {
			return nil, fmt.Errorf("%w: bookings is not an array", domain.ErrUnparsableExtraction)
		}
		return items, nil
	}
	if _, ok := envelope["type"]; ok {
		return []json.RawMessage{trimmed}, nil
	}
	return nil, fmt.Errorf("%w: no bookings array in payload", domain.ErrUnparsableExtraction)
}

// locateJSON tries the raw text, then the body of a code fence, then the
// widest brace- or bracket-delimited span.
func locateJSON(content string) (json.RawMessage, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, fmt.Errorf("%w: empty output", domain.ErrUnparsableExtraction)
	}

	candidates := []string{content}
	if stripped := stripCodeFences(content); stripped != "" && stripped != content {
		candidates = append(candidates, stripped)
	}
	if extracted := extractJSONCandidate(content); extracted != "" && extracted != content {
		candidates = append(candidates, extracted)
	}

	for _, candidate := range candidates {
		if json.Valid([]byte(candidate)) {
			return json.RawMessage(candidate), nil
		}
	}
	return nil, domain.ErrUnparsableExtraction
}

func stripCodeFences(content string) string {
	start := strings.Index(content, "```")
	if start < 0 {
		return ""
	}
	body := content[start+3:]
	if nl := strings.IndexByte(body, '\n'); nl >= 0 {
		body = body[nl+1:]
	}
	if end := strings.Index(body, "```"); end >= 0 {
		body = body[:end]
	}
	return strings.TrimSpace(body)
}

func extractJSONCandidate(content string) string {
	objectStart := strings.Index(content, "{")
	arrayStart := strings.Index(content, "[")

	start, closeChar := -1, ""
	switch {
	case objectStart >= 0 && (arrayStart < 0 || objectStart < arrayStart):
		start, closeChar = objectStart, "}"
	case arrayStart >= 0:
		start, closeChar = arrayStart, "]"
	default:
		return ""
	}

	end := strings.LastIndex(content, closeChar)
	if end < start {
		return ""
	}
	return strings.TrimSpace(content[start : end+1])
}
