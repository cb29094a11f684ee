package storage

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog"
	"github.com/vocably/speech-engine/internal/config"
)

// S3Store talks to any S3-compatible object store. MinIO needs path-style
// addressing, hence BaseEndpoint + UsePathStyle.
type S3Store struct {
	client  *s3.Client
	bucket  string
	baseURL string // scheme://endpoint
	log     zerolog.Logger
}

// NewS3Store creates the store from config and verifies bucket access.
func NewS3Store(cfg config.S3Config, log zerolog.Logger) (*S3Store, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(),
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("aws config: %w", err)
	}

	endpoint := fmt.Sprintf("%s://%s", cfg.Scheme(), cfg.Endpoint)
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(endpoint)
		o.UsePathStyle = true
	})

	store := &S3Store{
		client:  client,
		bucket:  cfg.Bucket,
		baseURL: endpoint,
		log:     log.With().Str("component", "s3-store").Logger(),
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := store.headBucket(ctx); err != nil {
		return nil, fmt.Errorf("%w: bucket %q at %q: %v", ErrStorage, cfg.Bucket, cfg.Endpoint, err)
	}
	store.log.Info().Str("bucket", cfg.Bucket).Str("endpoint", cfg.Endpoint).Msg("object store connected")

	return store, nil
}

func (s *S3Store) headBucket(ctx context.Context) error {
	_, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: &s.bucket})
	return err
}

// HealthCheck probes bucket access with a short timeout.
func (s *S3Store) HealthCheck(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return s.headBucket(ctx)
}

func (s *S3Store) Exists(ctx context.Context, key string) bool {
	_, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: &s.bucket,
		Key:    &key,
	})
	return err == nil
}

func (s *S3Store) Save(ctx context.Context, key string, data []byte, contentType string) error {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      &s.bucket,
		Key:         &key,
		Body:        bytes.NewReader(data),
		ContentType: &contentType,
	})
	if err != nil {
		return fmt.Errorf("%w: put %q: %v", ErrStorage, key, err)
	}
	return nil
}

func (s *S3Store) List(ctx context.Context, prefix string) ([]Object, error) {
	var out []Object
	p := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: &s.bucket,
		Prefix: &prefix,
	})
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("%w: list %q: %v", ErrStorage, prefix, err)
		}
		for _, obj := range page.Contents {
			o := Object{Key: aws.ToString(obj.Key), Size: aws.ToInt64(obj.Size)}
			if obj.LastModified != nil {
				o.LastModified = *obj.LastModified
			}
			out = append(out, o)
		}
	}
	return out, nil
}

func (s *S3Store) Remove(ctx context.Context, key string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: &s.bucket,
		Key:    &key,
	})
	if err != nil {
		return fmt.Errorf("%w: delete %q: %v", ErrStorage, key, err)
	}
	return nil
}

// PublicURL builds {scheme}://{endpoint}/{bucket}/{key}.
func (s *S3Store) PublicURL(key string) string {
	escaped := (&url.URL{Path: key}).EscapedPath()
	return fmt.Sprintf("%s/%s/%s", s.baseURL, s.bucket, escaped)
}
