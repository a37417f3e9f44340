package dataset

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"go.uber.org/zap"
)

// S3Config holds the settings for an S3-backed dataset. It works with
// any S3-compatible storage (AWS S3, MinIO, RustFS) via a custom
// endpoint and path-style addressing.
type S3Config struct {
	Bucket       string
	Key          string
	Region       string
	Endpoint     string
	AccessKey    string
	SecretKey    string
	UsePathStyle bool
	UseSSL       bool
}

// S3Source reads a dataset object from S3-compatible storage
type S3Source struct {
	client *s3.Client
	bucket string
	key    string
	logger *zap.Logger
}

// S3SourceOption is a functional option for S3Source configuration
type S3SourceOption func(*S3Source)

// WithS3Logger sets a custom logger for the source
func WithS3Logger(logger *zap.Logger) S3SourceOption {
	return func(s *S3Source) {
		s.logger = logger
	}
}

// NewS3Source creates a dataset source over an S3 object. Static
// credentials are used when both keys are set; otherwise the ambient
// AWS credential chain applies.
func NewS3Source(ctx context.Context, cfg S3Config, opts ...S3SourceOption) (*S3Source, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("s3 bucket is required")
	}
	if cfg.Key == "" {
		return nil, errors.New("s3 object key is required")
	}

	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}

	loadOpts := []func(*config.LoadOptions) error{
		config.WithRegion(region),
	}
	if cfg.AccessKey != "" && cfg.SecretKey != "" {
		loadOpts = append(loadOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.UsePathStyle
		if cfg.Endpoint != "" {
			endpoint := cfg.Endpoint
			if !strings.HasPrefix(endpoint, "http://") && !strings.HasPrefix(endpoint, "https://") {
				if cfg.UseSSL {
					endpoint = "https://" + endpoint
				} else {
					endpoint = "http://" + endpoint
				}
			}
			o.BaseEndpoint = aws.String(endpoint)
		}
	})

	src := &S3Source{
		client: client,
		bucket: cfg.Bucket,
		key:    cfg.Key,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(src)
	}
	return src, nil
}

// URI returns the s3 URI of the source
func (s *S3Source) URI() string {
	return fmt.Sprintf("s3://%s/%s", s.bucket, s.key)
}

// Fingerprint is the object ETag, which changes on every object write
func (s *S3Source) Fingerprint(ctx context.Context) (string, error) {
	head, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key),
	})
	if err != nil {
		return "", fmt.Errorf("failed to head dataset object: %w", err)
	}
	return aws.ToString(head.ETag), nil
}

// Open streams the dataset object body
func (s *S3Source) Open(ctx context.Context) (io.ReadCloser, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get dataset object: %w", err)
	}
	s.logger.Debug("dataset object opened",
		zap.String("bucket", s.bucket),
		zap.String("key", s.key),
	)
	return out.Body, nil
}
