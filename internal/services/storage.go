package services

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"strings"

	appconfig "naksha-backend/internal/config"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

// ImageStore persists uploaded images and returns the stored key.
type ImageStore interface {
	Put(ctx context.Context, filename, contentType string, data []byte) (string, error)
}

// S3ImageStore stores uploaded building photos in an S3 bucket under
// uploads/<uuid><ext>.
type S3ImageStore struct {
	client *s3.Client
	bucket string
}

// NewS3ImageStore creates an image store backed by the configured bucket.
func NewS3ImageStore(ctx context.Context, cfg appconfig.StorageConfig) (*S3ImageStore, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}
	if cfg.AccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	return &S3ImageStore{client: client, bucket: cfg.Bucket}, nil
}

// Put uploads the image and returns its object key.
func (s *S3ImageStore) Put(ctx context.Context, filename, contentType string, data []byte) (string, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	if ext == "" {
		ext = ".jpg"
	}
	key := fmt.Sprintf("uploads/%s%s", uuid.New().String(), ext)

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("failed to store image: %w", err)
	}

	return key, nil
}
