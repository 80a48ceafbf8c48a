package storage

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"content-commerce/internal/domain/ports/adapter"
)

var (
	_ adapter.DownloadSigner = (*S3Signer)(nil)
	_ adapter.DownloadSigner = PassthroughSigner{}
)

type Config struct {
	Endpoint     string
	Region       string
	AccessKey    string
	SecretKey    string
	Bucket       string
	UsePathStyle bool
	PresignTTL   time.Duration
}

// S3Signer exchanges s3://bucket/key file URLs for presigned GET URLs.
// Any other URL is returned unchanged.
type S3Signer struct {
	cfg       Config
	presigner *s3.PresignClient
}

func NewS3Signer(cfg Config) (*S3Signer, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("s3 bucket is required")
	}
	if cfg.Region == "" {
		return nil, fmt.Errorf("s3 region is required")
	}
	if cfg.PresignTTL <= 0 {
		cfg.PresignTTL = 15 * time.Minute
	}

	options := s3.Options{
		Region:       cfg.Region,
		UsePathStyle: cfg.UsePathStyle,
	}
	if cfg.AccessKey != "" && cfg.SecretKey != "" {
		options.Credentials = credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")
	}
	if cfg.Endpoint != "" {
		options.BaseEndpoint = aws.String(cfg.Endpoint)
	}

	return &S3Signer{
		cfg:       cfg,
		presigner: s3.NewPresignClient(s3.New(options)),
	}, nil
}

func (s *S3Signer) SignDownloadURL(ctx context.Context, fileURL string) (string, error) {
	bucket, key, ok := parseS3URL(fileURL)
	if !ok {
		return fileURL, nil
	}
	if bucket != s.cfg.Bucket {
		return "", fmt.Errorf("file %q is outside bucket %q", fileURL, s.cfg.Bucket)
	}
	req, err := s.presigner.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(s.cfg.PresignTTL))
	if err != nil {
		return "", fmt.Errorf("presign s3 object: %w", err)
	}
	return req.URL, nil
}

func parseS3URL(u string) (bucket, key string, ok bool) {
	rest, found := strings.CutPrefix(u, "s3://")
	if !found {
		return "", "", false
	}
	bucket, key, found = strings.Cut(rest, "/")
	if !found || bucket == "" || key == "" {
		return "", "", false
	}
	return bucket, key, true
}

// PassthroughSigner hands out stored URLs as they are.
type PassthroughSigner struct{}

func (PassthroughSigner) SignDownloadURL(_ context.Context, fileURL string) (string, error) {
	return fileURL, nil
}
