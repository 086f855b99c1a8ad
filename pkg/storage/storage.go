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
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
	"github.com/formsnap/signup-api/pkg/logger"
	"github.com/formsnap/signup-api/pkg/metrics"
	"go.uber.org/zap"
)

const (
	defaultRegion              = "us-east-1"
	defaultCacheControlSeconds = 3600
)

// ErrObjectExists is returned when a put targets a key that already exists.
var ErrObjectExists = errors.New("object already exists")

// Config holds the object storage connection settings
type Config struct {
	AccessKeyID         string
	SecretAccessKey     string
	BucketName          string
	Endpoint            string
	Region              string
	UsePathStyle        bool
	CacheControlSeconds int
}

// UploadResult describes a stored object
type UploadResult struct {
	Bucket string `json:"bucket"`
	Key    string `json:"key"`
	ETag   string `json:"etag,omitempty"`
	URL    string `json:"url"`
	Size   int64  `json:"size"`
}

// Client represents an S3-compatible object storage client
type Client struct {
	s3Client     *s3.Client
	bucketName   string
	endpoint     string
	region       string
	pathStyle    bool
	cacheControl string
}

// NewClient creates a new object storage client using the S3 SDK.
// httpClient may be nil to use the SDK default.
func NewClient(cfg Config, httpClient s3.HTTPClient) (*Client, error) {
	if cfg.BucketName == "" {
		return nil, fmt.Errorf("bucket name is required")
	}

	region := cfg.Region
	if region == "" {
		region = defaultRegion
	}

	cacheSeconds := cfg.CacheControlSeconds
	if cacheSeconds <= 0 {
		cacheSeconds = defaultCacheControlSeconds
	}

	opts := s3.Options{
		Region: region,
		Credentials: credentials.NewStaticCredentialsProvider(
			cfg.AccessKeyID,
			cfg.SecretAccessKey,
			"", // session token not needed
		),
		UsePathStyle: cfg.UsePathStyle,
		// Many S3-compatible stores reject the flexible checksum headers
		RequestChecksumCalculation: aws.RequestChecksumCalculationWhenRequired,
		ResponseChecksumValidation: aws.ResponseChecksumValidationWhenRequired,
		// A put is attempted exactly once; probes retry through pkg/retry
		Retryer: aws.NopRetryer{},
	}
	if cfg.Endpoint != "" {
		opts.BaseEndpoint = aws.String(cfg.Endpoint)
	}
	if httpClient != nil {
		opts.HTTPClient = httpClient
	}

	logger.Info("Object storage client initialized",
		zap.String("bucket", cfg.BucketName),
		zap.String("endpoint", cfg.Endpoint),
		zap.String("region", region),
		zap.Bool("path_style", cfg.UsePathStyle),
	)

	return &Client{
		s3Client:     s3.New(opts),
		bucketName:   cfg.BucketName,
		endpoint:     strings.TrimRight(cfg.Endpoint, "/"),
		region:       region,
		pathStyle:    cfg.UsePathStyle,
		cacheControl: fmt.Sprintf("max-age=%d", cacheSeconds),
	}, nil
}

// Bucket returns the destination bucket name
func (c *Client) Bucket() string {
	return c.bucketName
}

// Upload stores data under key without overwriting an existing object.
func (c *Client) Upload(ctx context.Context, key, contentType string, data []byte) (*UploadResult, error) {
	start := time.Now()
	operation := "putObject"

	out, err := c.s3Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(c.bucketName),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
		ContentType:   aws.String(contentType),
		CacheControl:  aws.String(c.cacheControl),
		IfNoneMatch:   aws.String("*"),
	})

	duration := metrics.MeasureDuration(start)

	if err != nil {
		metrics.StorageRequestDuration.WithLabelValues(operation, "error").Observe(duration)
		metrics.StorageRequestTotal.WithLabelValues(operation, "error").Inc()
		logger.LogAPICall(ctx, "object_storage", operation, "error", duration,
			zap.Error(err),
			zap.String("key", key),
		)
		if isPreconditionFailure(err) {
			return nil, fmt.Errorf("upload %q: %w", key, ErrObjectExists)
		}
		return nil, fmt.Errorf("failed to upload object %q: %w", key, err)
	}

	metrics.StorageRequestDuration.WithLabelValues(operation, "success").Observe(duration)
	metrics.StorageRequestTotal.WithLabelValues(operation, "success").Inc()
	logger.LogAPICall(ctx, "object_storage", operation, "success", duration,
		zap.String("key", key),
		zap.Int("size_bytes", len(data)),
	)

	return &UploadResult{
		Bucket: c.bucketName,
		Key:    key,
		ETag:   strings.Trim(aws.ToString(out.ETag), `"`),
		URL:    c.ObjectURL(key),
		Size:   int64(len(data)),
	}, nil
}

// CheckBucket verifies the bucket exists and is reachable with the configured credentials
func (c *Client) CheckBucket(ctx context.Context) error {
	start := time.Now()
	operation := "headBucket"

	_, err := c.s3Client.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(c.bucketName),
	})

	duration := metrics.MeasureDuration(start)
	if err != nil {
		metrics.StorageRequestDuration.WithLabelValues(operation, "error").Observe(duration)
		metrics.StorageRequestTotal.WithLabelValues(operation, "error").Inc()
		logger.LogAPICall(ctx, "object_storage", operation, "error", duration, zap.Error(err))
		return fmt.Errorf("bucket %q not reachable: %w", c.bucketName, err)
	}

	metrics.StorageRequestDuration.WithLabelValues(operation, "success").Observe(duration)
	metrics.StorageRequestTotal.WithLabelValues(operation, "success").Inc()
	return nil
}

// ObjectURL constructs the public URL of an object
func (c *Client) ObjectURL(key string) string {
	escaped := escapeKey(key)
	if c.endpoint == "" {
		// Format: https://{bucket}.s3.{region}.amazonaws.com/{key}
		return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", c.bucketName, c.region, escaped)
	}
	if c.pathStyle {
		return fmt.Sprintf("%s/%s/%s", c.endpoint, c.bucketName, escaped)
	}

	u, err := url.Parse(c.endpoint)
	if err != nil || u.Host == "" {
		return fmt.Sprintf("%s/%s/%s", c.endpoint, c.bucketName, escaped)
	}
	return fmt.Sprintf("%s://%s.%s/%s", u.Scheme, c.bucketName, u.Host, escaped)
}

func escapeKey(key string) string {
	segments := strings.Split(key, "/")
	for i, s := range segments {
		segments[i] = url.PathEscape(s)
	}
	return strings.Join(segments, "/")
}

func isPreconditionFailure(err error) bool {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "PreconditionFailed", "ConditionalRequestConflict":
			return true
		}
	}
	return false
}
