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
	"github.com/feeledger/backend/internal/domain/fee"
	infraconfig "github.com/feeledger/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

var _ fee.EvidenceStorage = (*S3EvidenceStorage)(nil)

// S3EvidenceStorage stores payment proofs in an S3-compatible bucket
// (AWS S3, MinIO, R2, RustFS).
type S3EvidenceStorage struct {
	client    *s3.Client
	bucket    string
	baseURL   string
	keyPrefix string
	policy    evidencePolicy
	now       func() time.Time
	logger    *zap.Logger
}

// S3EvidenceStorageOption is a functional option for configuring S3EvidenceStorage
type S3EvidenceStorageOption func(*S3EvidenceStorage)

// WithLogger sets a custom logger
func WithLogger(logger *zap.Logger) S3EvidenceStorageOption {
	return func(s *S3EvidenceStorage) {
		s.logger = logger
	}
}

// NewS3EvidenceStorage creates the storage from configuration
func NewS3EvidenceStorage(cfg *infraconfig.StorageConfig, opts ...S3EvidenceStorageOption) (*S3EvidenceStorage, error) {
	if cfg == nil {
		return nil, errors.New("storage configuration is required")
	}
	if cfg.Bucket == "" {
		return nil, errors.New("storage bucket is required")
	}
	if cfg.AccessKeyID == "" {
		return nil, errors.New("storage access key is required")
	}
	if cfg.SecretAccessKey == "" {
		return nil, errors.New("storage secret key is required")
	}

	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}

	awsCfg, err := config.LoadDefaultConfig(context.Background(),
		config.WithRegion(region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKeyID,
			cfg.SecretAccessKey,
			"",
		)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS config: %w", err)
	}

	var endpoint string
	if cfg.Endpoint != "" {
		endpoint = cfg.Endpoint
		if !strings.HasPrefix(endpoint, "http://") && !strings.HasPrefix(endpoint, "https://") {
			endpoint = "https://" + endpoint
		}
		if _, err := url.Parse(endpoint); err != nil {
			return nil, fmt.Errorf("invalid storage endpoint: %w", err)
		}
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.UsePathStyle
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
		}
	})

	baseURL := cfg.PublicBaseURL
	if baseURL == "" {
		if endpoint != "" {
			baseURL = strings.TrimSuffix(endpoint, "/") + "/" + cfg.Bucket
		} else {
			baseURL = fmt.Sprintf("https://%s.s3.%s.amazonaws.com", cfg.Bucket, region)
		}
	}

	s := &S3EvidenceStorage{
		client:    client,
		bucket:    cfg.Bucket,
		baseURL:   baseURL,
		keyPrefix: strings.Trim(cfg.KeyPrefix, "/"),
		policy:    evidencePolicy{maxSize: cfg.MaxEvidenceSize, maxImageWidth: cfg.MaxImageWidth},
		now:       time.Now,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// EnsureBucket creates the bucket if it doesn't exist
func (s *S3EvidenceStorage) EnsureBucket(ctx context.Context) error {
	_, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(s.bucket),
	})
	if err == nil {
		return nil
	}

	var notFound *types.NotFound
	var noSuchBucket *types.NoSuchBucket
	if !errors.As(err, &notFound) && !errors.As(err, &noSuchBucket) {
		return fmt.Errorf("failed to check bucket existence: %w", err)
	}

	s.logger.Info("Creating evidence bucket", zap.String("bucket", s.bucket))
	_, err = s.client.CreateBucket(ctx, &s3.CreateBucketInput{
		Bucket: aws.String(s.bucket),
	})
	if err != nil {
		var alreadyOwned *types.BucketAlreadyOwnedByYou
		if errors.As(err, &alreadyOwned) {
			return nil
		}
		return fmt.Errorf("failed to create bucket: %w", err)
	}
	return nil
}

// Store validates the upload and puts it in the bucket
func (s *S3EvidenceStorage) Store(ctx context.Context, upload fee.EvidenceUpload) (fee.Evidence, error) {
	prepared, err := s.policy.prepare(upload)
	if err != nil {
		return fee.Evidence{}, err
	}

	key := evidenceKey(s.keyPrefix, upload, prepared.Extension, s.now())
	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(prepared.Data),
		ContentType:   aws.String(prepared.ContentType),
		ContentLength: aws.Int64(int64(len(prepared.Data))),
		Metadata: map[string]string{
			"voucher-id": upload.VoucherID.String(),
			"branch-id":  upload.BranchID.String(),
		},
	})
	if err != nil {
		return fee.Evidence{}, fmt.Errorf("failed to upload evidence: %w", err)
	}

	s.logger.Debug("Stored payment evidence",
		zap.String("key", key),
		zap.String("content_type", prepared.ContentType),
		zap.Int("size", len(prepared.Data)),
	)
	return fee.Evidence{URL: publicURL(s.baseURL, key), StorageKey: key}, nil
}

// Delete removes a stored proof
func (s *S3EvidenceStorage) Delete(ctx context.Context, storageKey string) error {
	if storageKey == "" {
		return errors.New("storage key is required")
	}
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(storageKey),
	})
	if err != nil {
		return fmt.Errorf("failed to delete evidence: %w", err)
	}
	return nil
}

// GetBucket returns the bucket name
func (s *S3EvidenceStorage) GetBucket() string {
	return s.bucket
}
