// Package storage provides object storage publication for finished PDFs.
package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"go.uber.org/zap"

	infraconfig "github.com/offerdesk/backend/internal/infrastructure/config"
)

const pdfContentType = "application/pdf"

// PublishResult describes the outcome of one publish attempt. Publication
// is best-effort: a failed publish never fails the generation run, it is
// reported here instead.
type PublishResult struct {
	Success bool   `json:"success"`
	URL     string `json:"url,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Publisher pushes a finished PDF to remote storage
type Publisher interface {
	// Publish uploads the PDF under the given object key and returns the
	// public URL it is reachable at
	Publish(ctx context.Context, key string, data []byte) (*PublishResult, error)
}

// S3Publisher implements Publisher using AWS S3 SDK v2.
// It is compatible with any S3-compatible storage (AWS S3, MinIO, Supabase
// Storage, etc.)
type S3Publisher struct {
	client           *s3.Client
	presignClient    *s3.PresignClient
	bucket           string
	endpoint         string
	publicBaseURL    string
	presignDownloads bool
	logger           *zap.Logger
}

// S3PublisherOption is a functional option for configuring S3Publisher
type S3PublisherOption func(*S3Publisher)

// WithLogger sets a custom logger for S3Publisher
func WithLogger(logger *zap.Logger) S3PublisherOption {
	return func(p *S3Publisher) {
		p.logger = logger
	}
}

// NewS3Publisher creates a publisher from configuration
func NewS3Publisher(cfg *infraconfig.StorageConfig, opts ...S3PublisherOption) (*S3Publisher, error) {
	if cfg == nil {
		return nil, errors.New("storage configuration is required")
	}
	if cfg.Bucket == "" {
		return nil, errors.New("storage bucket is required")
	}
	if cfg.AccessKey == "" {
		return nil, errors.New("storage access key is required")
	}
	if cfg.SecretKey == "" {
		return nil, errors.New("storage secret key is required")
	}

	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = "http://localhost:9000" // MinIO default
	}
	if !strings.HasPrefix(endpoint, "http://") && !strings.HasPrefix(endpoint, "https://") {
		if cfg.UseSSL {
			endpoint = "https://" + endpoint
		} else {
			endpoint = "http://" + endpoint
		}
	}
	if _, err := url.Parse(endpoint); err != nil {
		return nil, fmt.Errorf("invalid storage endpoint: %w", err)
	}

	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}

	awsCfg, err := config.LoadDefaultConfig(context.Background(),
		config.WithRegion(region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKey,
			cfg.SecretKey,
			"", // session token (not used for static credentials)
		)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.UsePathStyle
		o.BaseEndpoint = aws.String(endpoint)
	})

	publisher := &S3Publisher{
		client:           client,
		presignClient:    s3.NewPresignClient(client),
		bucket:           cfg.Bucket,
		endpoint:         endpoint,
		publicBaseURL:    strings.TrimRight(cfg.PublicBaseURL, "/"),
		presignDownloads: cfg.PresignDownloads,
		logger:           zap.NewNop(),
	}

	for _, opt := range opts {
		opt(publisher)
	}

	return publisher, nil
}

// EnsureBucket creates the bucket if it doesn't exist.
// Call this during application startup to ensure the bucket is ready.
func (p *S3Publisher) EnsureBucket(ctx context.Context) error {
	_, err := p.client.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(p.bucket),
	})
	if err == nil {
		return nil
	}

	var notFound *types.NotFound
	var noSuchBucket *types.NoSuchBucket
	if !errors.As(err, &notFound) && !errors.As(err, &noSuchBucket) {
		return fmt.Errorf("failed to check bucket existence: %w", err)
	}

	p.logger.Info("Creating storage bucket", zap.String("bucket", p.bucket))
	_, err = p.client.CreateBucket(ctx, &s3.CreateBucketInput{
		Bucket: aws.String(p.bucket),
	})
	if err != nil {
		// Ignore "BucketAlreadyOwnedByYou" error (startup race)
		var alreadyOwned *types.BucketAlreadyOwnedByYou
		if errors.As(err, &alreadyOwned) {
			return nil
		}
		return fmt.Errorf("failed to create bucket: %w", err)
	}

	return nil
}

// Publish uploads the PDF, overwriting any previous object under the same
// key, and returns its download URL. For buckets that are not publicly
// readable, presign_downloads switches the result to a presigned URL.
func (p *S3Publisher) Publish(ctx context.Context, key string, data []byte) (*PublishResult, error) {
	if key == "" {
		return nil, errors.New("object key is required")
	}
	if len(data) == 0 {
		return nil, errors.New("refusing to publish empty PDF")
	}

	_, err := p.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(p.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(pdfContentType),
	})
	if err != nil {
		return &PublishResult{Success: false, Error: err.Error()},
			fmt.Errorf("failed to upload object: %w", err)
	}

	downloadURL := p.PublicURL(key)
	if p.presignDownloads {
		presigned, _, presignErr := p.GenerateDownloadURL(ctx, key, 0)
		if presignErr != nil {
			p.logger.Warn("Failed to presign download URL, falling back to public URL",
				zap.String("key", key), zap.Error(presignErr))
		} else {
			downloadURL = presigned
		}
	}

	p.logger.Info("PDF published",
		zap.String("bucket", p.bucket),
		zap.String("key", key),
		zap.Int("bytes", len(data)))

	return &PublishResult{Success: true, URL: downloadURL}, nil
}

// PublicURL returns the URL the object is publicly reachable at. When a
// public base URL is configured it wins; otherwise the path-style
// endpoint URL is used.
func (p *S3Publisher) PublicURL(key string) string {
	if p.publicBaseURL != "" {
		return p.publicBaseURL + "/" + key
	}
	return p.endpoint + "/" + p.bucket + "/" + key
}

// GenerateDownloadURL generates a presigned URL for downloading a
// published PDF, for buckets that are not publicly readable.
func (p *S3Publisher) GenerateDownloadURL(ctx context.Context, key string, expiresIn time.Duration) (string, time.Time, error) {
	if key == "" {
		return "", time.Time{}, errors.New("object key is required")
	}
	if expiresIn <= 0 {
		expiresIn = 15 * time.Minute
	}

	presignReq, err := p.presignClient.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(p.bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(expiresIn))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to generate download URL: %w", err)
	}

	return presignReq.URL, time.Now().Add(expiresIn), nil
}

// GetBucket returns the bucket name
func (p *S3Publisher) GetBucket() string {
	return p.bucket
}

// Ensure S3Publisher implements Publisher
var _ Publisher = (*S3Publisher)(nil)
