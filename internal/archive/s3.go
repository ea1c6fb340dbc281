// Package archive uploads saved transcripts to an S3-compatible object
// store as a secondary copy. Best-effort: archival failures are logged and
// never fail the save that triggered them.
package archive

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog"

	"github.com/snarg/yt-scribe/internal/store"
)

// Config holds S3 connection settings.
type Config struct {
	Bucket    string
	Prefix    string
	Region    string
	Endpoint  string // non-empty for S3-compatible stores (MinIO, R2)
	AccessKey string
	SecretKey string
}

// Archiver writes saved transcripts to S3.
type Archiver struct {
	client *s3.Client
	bucket string
	prefix string
	log    zerolog.Logger
}

// New creates an S3 archiver from config.
func New(cfg Config, log zerolog.Logger) (*Archiver, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}
	if cfg.AccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(), opts...)
	if err != nil {
		return nil, fmt.Errorf("aws config: %w", err)
	}

	var s3Opts []func(*s3.Options)
	if cfg.Endpoint != "" {
		s3Opts = append(s3Opts, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		})
	}

	return &Archiver{
		client: s3.NewFromConfig(awsCfg, s3Opts...),
		bucket: cfg.Bucket,
		prefix: cfg.Prefix,
		log:    log.With().Str("component", "archive").Logger(),
	}, nil
}

// HeadBucket checks that the bucket exists and credentials are valid.
func (a *Archiver) HeadBucket(ctx context.Context) error {
	_, err := a.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: &a.bucket})
	return err
}

// Upload writes one saved transcript as <prefix>/<id>.json.
func (a *Archiver) Upload(ctx context.Context, rec store.SavedTranscript) error {
	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("encode transcript: %w", err)
	}

	key := a.objectKey(rec.ID)
	contentType := "application/json"
	_, err = a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      &a.bucket,
		Key:         &key,
		Body:        bytes.NewReader(data),
		ContentType: &contentType,
	})
	if err != nil {
		return fmt.Errorf("put %s: %w", key, err)
	}

	a.log.Debug().Str("key", key).Msg("transcript archived")
	return nil
}

// Delete removes an archived transcript, mirroring a store delete.
func (a *Archiver) Delete(ctx context.Context, id string) error {
	key := a.objectKey(id)
	_, err := a.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: &a.bucket,
		Key:    &key,
	})
	if err != nil {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}

func (a *Archiver) objectKey(id string) string {
	if a.prefix == "" {
		return id + ".json"
	}
	return a.prefix + "/" + id + ".json"
}
