package catalog

import (
	"bytes"
	"context"
	"fmt"
	"time"

	sdkaws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	"github.com/quickbites/orderflow/internal/aws"
)

// ImageStore uploads product images and signs display URLs. Uploads are
// pass-through: bytes go to the bucket untouched.
type ImageStore struct {
	s3      aws.S3API
	presign aws.PresignAPI
	bucket  string
	ttl     time.Duration
}

// NewImageStore creates an ImageStore bound to a bucket.
func NewImageStore(s3Client aws.S3API, presign aws.PresignAPI, bucket string, ttl time.Duration) *ImageStore {
	return &ImageStore{s3: s3Client, presign: presign, bucket: bucket, ttl: ttl}
}

// Upload stores image bytes under a generated path and returns the path.
func (i *ImageStore) Upload(ctx context.Context, data []byte) (string, error) {
	path := uuid.NewString() + ".png"
	_, err := i.s3.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      sdkaws.String(i.bucket),
		Key:         sdkaws.String(path),
		Body:        bytes.NewReader(data),
		ContentType: sdkaws.String("image/png"),
	})
	if err != nil {
		return "", fmt.Errorf("upload image: %w", err)
	}
	return path, nil
}

// SignedURL returns a time-limited GET URL for a stored path. An empty
// path signs to an empty URL so callers can pass products without images
// straight through.
func (i *ImageStore) SignedURL(ctx context.Context, path string) (string, error) {
	if path == "" {
		return "", nil
	}
	req, err := i.presign.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: sdkaws.String(i.bucket),
		Key:    sdkaws.String(path),
	}, s3.WithPresignExpires(i.ttl))
	if err != nil {
		return "", fmt.Errorf("sign image url: %w", err)
	}
	return req.URL, nil
}

// Remove deletes a stored image. Used when an admin deletes a product.
func (i *ImageStore) Remove(ctx context.Context, path string) error {
	if path == "" {
		return nil
	}
	_, err := i.s3.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: sdkaws.String(i.bucket),
		Key:    sdkaws.String(path),
	})
	if err != nil {
		return fmt.Errorf("remove image: %w", err)
	}
	return nil
}
