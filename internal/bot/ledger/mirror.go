package ledger

import (
	"bytes"
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/dmitrijs2005/verifybot/internal/bot/config"
	"github.com/dmitrijs2005/verifybot/internal/logging"
)

// ObjectPutter is the part of the S3 client the mirror needs.
type ObjectPutter interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

var (
	loadDefaultAWSConfig = awsconfig.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}
)

// NewS3Client builds a client for the mirror bucket. A custom endpoint
// switches to path-style addressing for S3-compatible servers.
func NewS3Client(ctx context.Context, c config.S3) (*s3.Client, error) {
	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(c.Region)}
	if c.AccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(c.AccessKey, c.SecretKey, "")))
	}

	cfg, err := loadDefaultAWSConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("aws config: %w", err)
	}

	return newS3ClientFromConfig(cfg, func(o *s3.Options) {
		if c.Endpoint != "" {
			o.BaseEndpoint = aws.String(c.Endpoint)
			o.UsePathStyle = true
		}
	}), nil
}

// MirroredRepository uploads a full snapshot of the ledger to S3 after
// every insert. Upload failures are logged and never fail the insert.
type MirroredRepository struct {
	Repository
	putter ObjectPutter
	bucket string
	key    string
	logger logging.Logger
}

func NewMirroredRepository(inner Repository, putter ObjectPutter, bucket, key string, logger logging.Logger) *MirroredRepository {
	return &MirroredRepository{
		Repository: inner,
		putter:     putter,
		bucket:     bucket,
		key:        key,
		logger:     logger.With("bucket", bucket, "key", key),
	}
}

func (m *MirroredRepository) AppendIfAbsent(ctx context.Context, rec Record) (bool, error) {
	inserted, err := m.Repository.AppendIfAbsent(ctx, rec)
	if err != nil || !inserted {
		return inserted, err
	}
	if err := m.Upload(ctx); err != nil {
		m.logger.Warn(ctx, "ledger snapshot upload failed", "error", err)
	}
	return true, nil
}

// Upload writes the current ledger to the bucket.
func (m *MirroredRepository) Upload(ctx context.Context) error {
	records, err := m.Repository.ListAll(ctx)
	if err != nil {
		return err
	}
	data, err := encodeRecords(records)
	if err != nil {
		return err
	}
	_, err = m.putter.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(m.bucket),
		Key:         aws.String(m.key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("put object: %w", err)
	}
	m.logger.Debug(ctx, "ledger snapshot uploaded", "records", len(records))
	return nil
}
