package s3_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"itinera/internal/config"
	"itinera/internal/domain"
	"itinera/internal/port"
	s3storage "itinera/internal/storage/s3"
)

// fakeBucket serves path-style PUT and GET for a single bucket.
type fakeBucket struct {
	mu      sync.Mutex
	objects map[string][]byte
	owners  map[string]string
}

func (f *fakeBucket) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := strings.TrimPrefix(r.URL.Path, "/itinera-sources/")
	switch r.Method {
	case http.MethodPut:
		body, _ := io.ReadAll(r.Body)
		f.objects[key] = body
		f.owners[key] = r.Header.Get("X-Amz-Meta-Owner-Id")
		w.Header().Set("ETag", `"etag-1"`)
		w.WriteHeader(http.StatusOK)
	case http.MethodGet:
		body, ok := f.objects[key]
		if !ok {
			w.Header().Set("Content-Type", "application/xml")
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`<?xml version="1.0" encoding="UTF-8"?><Error><Code>NoSuchKey</Code><Message>missing</Message></Error>`))
			return
		}
		_, _ = w.Write(body)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (f *fakeBucket) object(key string) []byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.objects[key]
}

func (f *fakeBucket) owner(key string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.owners[key]
}

func newArchive(t *testing.T) (port.SourceArchive, *fakeBucket) {
	t.Helper()
	bucket := &fakeBucket{objects: make(map[string][]byte), owners: make(map[string]string)}
	srv := httptest.NewServer(bucket)
	t.Cleanup(srv.Close)

	client, err := s3storage.NewSourceArchive(&config.S3Config{
		Region:    "us-east-1",
		Bucket:    "itinera-sources",
		Endpoint:  srv.URL,
		AccessKey: "test",
		SecretKey: "test",
	})
	require.NoError(t, err)
	return client, bucket
}

func TestSourceArchive_PutAndGet(t *testing.T) {
	archive, bucket := newArchive(t)
	payload := []byte("<html>Booking ABC123</html>")
	key := "sources/owner/0123456789abcdef.html"

	err := archive.Put(context.Background(), port.ArchivedSource{
		Key:         key,
		Payload:     payload,
		ContentType: domain.MimeTextHTML,
		OwnerID:     "7b0c1f9e-8d7a-4a51-9a57-5f0f2d1c9b11",
		Channel:     string(domain.ChannelEmail),
	})
	require.NoError(t, err)
	assert.Equal(t, payload, bucket.object(key))
	assert.Equal(t, "7b0c1f9e-8d7a-4a51-9a57-5f0f2d1c9b11", bucket.owner(key))

	got, err := archive.Get(context.Background(), key)
	require.NoError(t, err)
	assert.Equal(t, payload, got)
}

func TestSourceArchive_GetMissing(t *testing.T) {
	archive, _ := newArchive(t)

	_, err := archive.Get(context.Background(), "sources/owner/missing.pdf")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestNewSourceArchive_RequiresBucket(t *testing.T) {
	_, err := s3storage.NewSourceArchive(&config.S3Config{Region: "us-east-1"})
	assert.Error(t, err)
}
