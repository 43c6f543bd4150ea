// Package s3 provides a cache store backed by an S3-compatible bucket, for
// sharing a warm cache between machines.
package s3

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsConfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"

	"github.com/marmos91/feedpager/internal/logger"
	"github.com/marmos91/feedpager/pkg/cachestore"
)

// maxDeleteBatch is the S3 limit for DeleteObjects.
const maxDeleteBatch = 1000

// Config configures an S3 cache store.
type Config struct {
	Bucket    string `mapstructure:"bucket" yaml:"bucket"`
	KeyPrefix string `mapstructure:"key_prefix" yaml:"key_prefix"`
	Region    string `mapstructure:"region" yaml:"region"`

	// Endpoint overrides the S3 endpoint (Localstack, MinIO).
	Endpoint     string `mapstructure:"endpoint" yaml:"endpoint,omitempty"`
	UsePathStyle bool   `mapstructure:"use_path_style" yaml:"use_path_style"`

	// Static credentials. When empty the default AWS credential chain is used.
	AccessKeyID     string `mapstructure:"access_key_id" yaml:"access_key_id,omitempty"`
	SecretAccessKey string `mapstructure:"secret_access_key" yaml:"secret_access_key,omitempty"`
}

// Store is a cachestore.Store backed by S3.
type Store struct {
	client *s3.Client
	config Config
}

// New creates a store using an existing client.
func New(client *s3.Client, config Config) *Store {
	return &Store{client: client, config: config}
}

// NewFromConfig builds an S3 client from config and creates a store.
func NewFromConfig(ctx context.Context, config Config) (*Store, error) {
	if config.Bucket == "" {
		return nil, errors.New("s3 cache store: bucket is required")
	}

	opts := []func(*awsConfig.LoadOptions) error{}
	if config.Region != "" {
		opts = append(opts, awsConfig.WithRegion(config.Region))
	}
	if config.AccessKeyID != "" {
		opts = append(opts, awsConfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(config.AccessKeyID, config.SecretAccessKey, ""),
		))
	}

	awsCfg, err := awsConfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if config.Endpoint != "" {
			o.BaseEndpoint = aws.String(config.Endpoint)
		}
		o.UsePathStyle = config.UsePathStyle
	})

	logger.Debug("S3 cache store configured",
		logger.StoreType(string(cachestore.TypeS3)),
		logger.Bucket(config.Bucket),
		"prefix", config.KeyPrefix)

	return New(client, config), nil
}

func (s *Store) objectKey(key string) string {
	return s.config.KeyPrefix + key
}

// Get downloads the object for key.
func (s *Store) Get(ctx context.Context, key string) (cachestore.Entry, bool, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.config.Bucket),
		Key:    aws.String(s.objectKey(key)),
	})
	if err != nil {
		if isNotFound(err) {
			return cachestore.Entry{}, false, nil
		}
		return cachestore.Entry{}, false, fmt.Errorf("failed to get cache object: %w", err)
	}
	defer out.Body.Close()

	value, err := io.ReadAll(out.Body)
	if err != nil {
		return cachestore.Entry{}, false, fmt.Errorf("failed to read cache object: %w", err)
	}

	return cachestore.Entry{
		Key:       key,
		Value:     value,
		UpdatedAt: aws.ToTime(out.LastModified),
	}, true, nil
}

// Set uploads value under key.
func (s *Store) Set(ctx context.Context, key string, value []byte) error {
	if err := cachestore.ValidateKey(key); err != nil {
		return err
	}

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.config.Bucket),
		Key:         aws.String(s.objectKey(key)),
		Body:        bytes.NewReader(value),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("failed to put cache object: %w", err)
	}
	return nil
}

// Delete removes the object for key.
func (s *Store) Delete(ctx context.Context, key string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.config.Bucket),
		Key:    aws.String(s.objectKey(key)),
	})
	if err != nil && !isNotFound(err) {
		return fmt.Errorf("failed to delete cache object: %w", err)
	}
	return nil
}

// DeleteByPrefix removes all objects with the given prefix.
func (s *Store) DeleteByPrefix(ctx context.Context, prefix string) (int, error) {
	infos, err := s.List(ctx, prefix)
	if err != nil {
		return 0, err
	}

	removed := 0
	for start := 0; start < len(infos); start += maxDeleteBatch {
		end := min(start+maxDeleteBatch, len(infos))

		objects := make([]types.ObjectIdentifier, 0, end-start)
		for _, info := range infos[start:end] {
			objects = append(objects, types.ObjectIdentifier{Key: aws.String(s.objectKey(info.Key))})
		}

		_, err := s.client.DeleteObjects(ctx, &s3.DeleteObjectsInput{
			Bucket: aws.String(s.config.Bucket),
			Delete: &types.Delete{Objects: objects, Quiet: aws.Bool(true)},
		})
		if err != nil {
			return removed, fmt.Errorf("failed to delete cache objects: %w", err)
		}
		removed += len(objects)
	}
	return removed, nil
}

// List describes all objects with the given prefix, in key order.
func (s *Store) List(ctx context.Context, prefix string) ([]cachestore.EntryInfo, error) {
	infos := make([]cachestore.EntryInfo, 0)

	paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.config.Bucket),
		Prefix: aws.String(s.objectKey(prefix)),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list cache objects: %w", err)
		}
		for _, obj := range page.Contents {
			infos = append(infos, cachestore.EntryInfo{
				Key:       strings.TrimPrefix(aws.ToString(obj.Key), s.config.KeyPrefix),
				Size:      aws.ToInt64(obj.Size),
				UpdatedAt: aws.ToTime(obj.LastModified),
			})
		}
	}

	sort.Slice(infos, func(i, j int) bool { return infos[i].Key < infos[j].Key })
	return infos, nil
}

// Close is a no-op; the S3 client holds no resources that need releasing.
func (s *Store) Close() error {
	return nil
}

// HealthCheck verifies the bucket is reachable.
func (s *Store) HealthCheck(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	_, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(s.config.Bucket),
	})
	if err != nil {
		return fmt.Errorf("healthcheck failed: %w", err)
	}
	return nil
}

func isNotFound(err error) bool {
	var nsk *types.NoSuchKey
	if errors.As(err, &nsk) {
		return true
	}
	var nf *types.NotFound
	if errors.As(err, &nf) {
		return true
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		code := apiErr.ErrorCode()
		return code == "NoSuchKey" || code == "NotFound"
	}
	return false
}

var _ cachestore.Store = (*Store)(nil)
