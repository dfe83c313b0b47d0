package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"AEOAuditor/internal/config"
	"AEOAuditor/internal/domain"
	"AEOAuditor/internal/ports"
)

// objectAPI is the subset of the S3 client the store needs.
type objectAPI interface {
	GetObject(ctx context.Context, in *s3.GetObjectInput, opts ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	PutObject(ctx context.Context, in *s3.PutObjectInput, opts ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Store keeps latest.json and history.json under a bucket prefix (AWS,
// MinIO or DigitalOcean Spaces).
type S3Store struct {
	mu     sync.Mutex
	client objectAPI
	bucket string
	prefix string
	limit  int
	logger *slog.Logger
}

var _ ports.RecordStore = (*S3Store)(nil)

// NewS3Store loads AWS configuration with static credentials when given.
func NewS3Store(ctx context.Context, cfg config.S3Config, limit int, logger *slog.Logger) (*S3Store, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("S3 bucket name is required")
	}
	if cfg.Region == "" {
		return nil, fmt.Errorf("S3 region is required")
	}

	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(cfg.Region)}
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.UsePathStyle
	})

	return newS3Store(client, cfg.Bucket, cfg.Prefix, limit, logger), nil
}

func newS3Store(client objectAPI, bucket, prefix string, limit int, logger *slog.Logger) *S3Store {
	limit = clampLimit(limit)
	if logger == nil {
		logger = slog.Default()
	}
	if prefix != "" && !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	return &S3Store{
		client: client,
		bucket: bucket,
		prefix: prefix,
		limit:  limit,
		logger: logger.With("component", "s3_store"),
	}
}

func (s *S3Store) latestKey() string  { return s.prefix + "latest.json" }
func (s *S3Store) historyKey() string { return s.prefix + "history.json" }

// SaveLatest overwrites latest.json.
func (s *S3Store) SaveLatest(ctx context.Context, record domain.AuditRecord) error {
	data, err := encodeRecord(record)
	if err != nil {
		return err
	}
	return s.put(ctx, s.latestKey(), data)
}

// AppendHistory rewrites history.json wholesale; concurrent writers from
// other processes can lose entries.
func (s *S3Store) AppendHistory(ctx context.Context, record domain.AuditRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	history, err := s.readHistory(ctx)
	if err != nil {
		return err
	}
	data, err := encodeHistory(trimHistory(append(history, record), s.limit))
	if err != nil {
		return err
	}
	return s.put(ctx, s.historyKey(), data)
}

// Latest returns nil when latest.json does not exist.
func (s *S3Store) Latest(ctx context.Context) (*domain.AuditRecord, error) {
	data, err := s.get(ctx, s.latestKey())
	if err != nil || data == nil {
		return nil, err
	}
	var record domain.AuditRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("decode %s: %w", s.latestKey(), err)
	}
	return &record, nil
}

// History returns entries oldest first.
func (s *S3Store) History(ctx context.Context) ([]domain.AuditRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.readHistory(ctx)
}

func (s *S3Store) readHistory(ctx context.Context) ([]domain.AuditRecord, error) {
	data, err := s.get(ctx, s.historyKey())
	if err != nil {
		return nil, err
	}
	return decodeHistory(data, s.logger, s.historyKey()), nil
}

func (s *S3Store) put(ctx context.Context, key string, data []byte) error {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("upload %s: %w", key, err)
	}
	return nil
}

// get returns nil data for a missing key.
func (s *S3Store) get(ctx context.Context, key string) ([]byte, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var missing *types.NoSuchKey
		if errors.As(err, &missing) {
			return nil, nil
		}
		return nil, fmt.Errorf("get %s: %w", key, err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", key, err)
	}
	return data, nil
}
