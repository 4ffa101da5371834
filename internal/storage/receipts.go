// Package storage holds the blob collaborator: receipt images live in a
// single bucket under {user_id}/{uuid}.{ext} keys and are served to clients
// through time-limited presigned URLs.
package storage

import (
	"bytes"
	"context"
	"errors"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/aws/transport/http"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"go.uber.org/zap"
)

// BlobStore is the object-store surface the record manager needs.
type BlobStore interface {
	Upload(ctx context.Context, key, contentType string, data []byte) error
	Delete(ctx context.Context, key string) error
	PresignGet(ctx context.Context, key string, ttl time.Duration) (string, error)
}

// ReceiptStore stores receipt images in one S3 bucket.
type ReceiptStore struct {
	client *s3.Client
	bucket *string
	logger *zap.Logger
}

func NewReceiptStore(client *s3.Client, bucket string, logger *zap.Logger) *ReceiptStore {
	return &ReceiptStore{client: client, bucket: aws.String(bucket), logger: logger}
}

// EnsureBucket creates the bucket if it does not exist yet. A 409 means
// another instance got there first.
func (s *ReceiptStore) EnsureBucket(ctx context.Context) error {
	_, err := s.client.CreateBucket(ctx, &s3.CreateBucketInput{Bucket: s.bucket})
	if err != nil {
		var respErr *http.ResponseError
		if errors.As(err, &respErr) && respErr.HTTPStatusCode() == 409 {
			s.logger.Info("bucket already exists", zap.String("bucket", *s.bucket))
			return nil
		}
		return err
	}
	return nil
}

func (s *ReceiptStore) Upload(ctx context.Context, key, contentType string, data []byte) error {
	input := &s3.PutObjectInput{
		Bucket: s.bucket,
		Key:    aws.String(key),
		Body:   bytes.NewReader(data),
	}
	if contentType != "" {
		input.ContentType = aws.String(contentType)
	}
	_, err := s.client.PutObject(ctx, input)
	return err
}

func (s *ReceiptStore) Delete(ctx context.Context, key string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: s.bucket,
		Key:    aws.String(key),
	})
	return err
}

// PresignGet returns a time-limited signed read URL for a stored image.
func (s *ReceiptStore) PresignGet(ctx context.Context, key string, ttl time.Duration) (string, error) {
	presigner := s3.NewPresignClient(s.client)
	req, err := presigner.PresignGetObject(ctx,
		&s3.GetObjectInput{
			Bucket: s.bucket,
			Key:    aws.String(key),
		},
		s3.WithPresignExpires(ttl),
	)
	if err != nil {
		return "", err
	}
	return req.URL, nil
}
