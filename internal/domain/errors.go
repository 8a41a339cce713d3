package domain

import "errors"

var (
	ErrNotFound     = errors.New("resource not found")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")

	// Input rejection: returned to the caller before the pipeline runs.
	ErrUnsupportedMimeType = errors.New("unsupported document mime type")
	ErrDocumentTooLarge    = errors.New("document exceeds maximum allowed size")
	ErrEmptyDocument       = errors.New("document has no content")
	ErrAmbiguousDocument   = errors.New("document must carry exactly one of text, html or binary content")
	ErrMissingOwner        = errors.New("document owner is required")
	ErrInvalidPDF          = errors.New("document is not a readable PDF")
	ErrTooManyPages        = errors.New("PDF exceeds maximum allowed page count")

	// Extraction contract.
	ErrUnparsableExtraction = errors.New("extractor output is not a JSON booking payload")
	ErrUnsupportedInput     = errors.New("extractor does not support this input")

	ErrTripNotFound    = errors.New("trip not found")
	ErrInvalidTripName = errors.New("trip name must be between 1 and 120 characters")
)

// IsInputRejection reports whether err belongs to the input-rejected category.
func IsInputRejection(err error) bool {
	for _, target := range []error{
		ErrUnsupportedMimeType, ErrDocumentTooLarge, ErrEmptyDocument,
		ErrAmbiguousDocument, ErrMissingOwner, ErrInvalidPDF, ErrTooManyPages,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
