package s3

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"itinera/internal/config"
	"itinera/internal/domain"
	"itinera/internal/port"
)

// Object metadata written next to every archived source.
const (
	metaOwnerID    = "owner-id"
	metaDocumentID = "document-id"
	metaChannel    = "channel"
)

type sourceArchive struct {
	client   *s3.Client
	uploader *manager.Uploader
	bucket   string
}

// NewSourceArchive returns a port.SourceArchive backed by one S3 bucket.
// A custom endpoint switches to path-style addressing (MinIO, localstack).
func NewSourceArchive(cfg *config.S3Config) (port.SourceArchive, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("s3: bucket is required")
	}

	loadOpts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(cfg.Region)}
	if cfg.AccessKey != "" && cfg.SecretKey != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(), loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("s3: loading aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})
	return &sourceArchive{
		client:   client,
		uploader: manager.NewUploader(client),
		bucket:   cfg.Bucket,
	}, nil
}

func (a *sourceArchive) Put(ctx context.Context, src port.ArchivedSource) error {
	meta := map[string]string{}
	for k, v := range map[string]string{
		metaOwnerID:    src.OwnerID,
		metaDocumentID: src.DocumentID,
		metaChannel:    src.Channel,
	} {
		if v != "" {
			meta[k] = v
		}
	}

	_, err := a.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(src.Key),
		Body:        bytes.NewReader(src.Payload),
		ContentType: aws.String(src.ContentType),
		Metadata:    meta,
	})
	if err != nil {
		return fmt.Errorf("s3.Put %s: %w", src.Key, err)
	}
	return nil
}

func (a *sourceArchive) Get(ctx context.Context, key string) ([]byte, error) {
	out, err := a.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(a.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var noKey *types.NoSuchKey
		if errors.As(err, &noKey) {
			return nil, fmt.Errorf("s3.Get %s: %w", key, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("s3.Get %s: %w", key, err)
	}
	defer func() { _ = out.Body.Close() }()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("s3.Get %s: reading body: %w", key, err)
	}
	return data, nil
}
