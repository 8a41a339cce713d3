package port

import "context"

// ExtractInput carries normalized document text and the target record schema.
type ExtractInput struct {
	Text   string
	Schema string
}

// ExtractOutput holds the raw extractor response. Raw may wrap the JSON
// payload in prose or code fences; locating it is the validator's job.
type ExtractOutput struct {
	Raw        string
	ModelUsed  string
	PromptUsed string
}

// TranscribeInput carries a binary document to be turned into text.
type TranscribeInput struct {
	FileBytes   []byte
	ContentType string
}

// TranscribeOutput holds the plain text read from a binary document.
type TranscribeOutput struct {
	Text      string
	ModelUsed string
}

// Extractor abstracts the language-model collaborator that pulls booking
// records out of text and reads text out of binary documents.
type Extractor interface {
	Extract(ctx context.Context, input ExtractInput) (*ExtractOutput, error)
	Transcribe(ctx context.Context, input TranscribeInput) (*TranscribeOutput, error)
}
