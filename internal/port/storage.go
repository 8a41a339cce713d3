package port

import "context"

// ArchivedSource is one raw inbound document as written to the archive.
type ArchivedSource struct {
	Key         string
	Payload     []byte
	ContentType string
	OwnerID     string
	DocumentID  string
	Channel     string
}

// SourceArchive keeps raw inbound documents so they can be replayed.
// Get returns domain.ErrNotFound for unknown keys.
type SourceArchive interface {
	Put(ctx context.Context, src ArchivedSource) error
	Get(ctx context.Context, key string) ([]byte, error)
}
