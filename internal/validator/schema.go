package validator

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// RecordSchema is the shape of one booking record in extractor output.
// Field-level semantics (date formats, confidence floor, price coercion) are
// enforced by rules, so the schema stays permissive about scalar kinds.
var RecordSchema = json.RawMessage(`{
  "type": "object",
  "properties": {
    "type": {"type": "string", "description": "flight, hotel, car, activity or other"},
    "confirmationNumber": {"type": ["string", "number", "null"]},
    "startDate": {"type": ["string", "null"], "description": "YYYY-MM-DD"},
    "endDate": {"type": ["string", "null"], "description": "YYYY-MM-DD"},
    "origin": {"type": ["string", "null"]},
    "destination": {"type": ["string", "null"]},
    "providerName": {"type": ["string", "null"]},
    "price": {"type": ["number", "string", "object", "null"]},
    "currency": {"type": ["string", "null"]},
    "rawSourceExcerpt": {"type": ["string", "null"]},
    "confidence": {"type": ["number", "null"], "description": "0 to 1"}
  },
  "required": ["type", "startDate"]
}`)

// ResponseSchema wraps RecordSchema in the envelope requested from extractors.
var ResponseSchema = json.RawMessage(`{
  "type": "object",
  "properties": {
    "bookings": {"type": "array", "items": ` + string(RecordSchema) + `}
  },
  "required": ["bookings"]
}`)

// CompileRecordSchema compiles RecordSchema for validating decoded records.
func CompileRecordSchema() (*jsonschema.Schema, error) {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("record.json", bytes.NewReader(RecordSchema)); err != nil {
		return nil, fmt.Errorf("loading record schema: %w", err)
	}
	schema, err := compiler.Compile("record.json")
	if err != nil {
		return nil, fmt.Errorf("compiling record schema: %w", err)
	}
	return schema, nil
}
