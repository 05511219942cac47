package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/google/uuid"

	"github.com/vidshare/backend/internal/config"
	"github.com/vidshare/backend/internal/models"
)

// ErrEmptyKey is returned when an upload or delete has no usable object key.
var ErrEmptyKey = errors.New("s3 storage: empty key")

// S3Storage is the media asset gateway backed by an S3-compatible service.
// The object key doubles as the deletion handle handed back to callers.
type S3Storage struct {
	client   *s3.Client
	uploader *manager.Uploader
	bucket   string
	baseURL  string
}

// NewS3Storage configures a client and uploader targeting the provided object store.
func NewS3Storage(ctx context.Context, cfg config.ObjectStoreConfig) (*S3Storage, error) {
	if strings.TrimSpace(cfg.Bucket) == "" {
		return nil, fmt.Errorf("s3 storage: bucket is required")
	}

	loadOpts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if endpoint := strings.TrimSpace(cfg.Endpoint); endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
		}
		o.UsePathStyle = true
	})

	uploader := manager.NewUploader(client, func(u *manager.Uploader) {
		u.PartSize = 5 * 1024 * 1024
		u.LeavePartsOnError = false
	})

	return &S3Storage{
		client:   client,
		uploader: uploader,
		bucket:   cfg.Bucket,
		baseURL:  strings.TrimSuffix(cfg.PublicBaseURL, "/"),
	}, nil
}

// Upload stores the content under namespace with a generated key and returns
// its public URL together with the deletion handle.
func (s *S3Storage) Upload(ctx context.Context, namespace, filename, contentType string, r io.Reader) (models.Asset, error) {
	key := objectKey(namespace, filename)
	if key == "" {
		return models.Asset{}, ErrEmptyKey
	}

	input := &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
		Body:   manager.ReadSeekCloser(r),
		ACL:    s3types.ObjectCannedACLPublicRead,
	}
	if contentType != "" {
		input.ContentType = aws.String(contentType)
	}

	out, err := s.uploader.Upload(ctx, input)
	if err != nil {
		return models.Asset{}, fmt.Errorf("s3 storage upload %s: %w", key, err)
	}

	return models.Asset{URL: publicURL(s.baseURL, key, out.Location), Handle: key}, nil
}

// Delete removes the object identified by handle.
func (s *S3Storage) Delete(ctx context.Context, handle string) error {
	key := strings.TrimLeft(strings.TrimSpace(handle), "/")
	if key == "" {
		return ErrEmptyKey
	}

	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("s3 storage delete %s: %w", key, err)
	}
	return nil
}

func objectKey(namespace, filename string) string {
	namespace = strings.Trim(strings.TrimSpace(namespace), "/")
	if namespace == "" {
		return ""
	}
	return path.Join(namespace, uuid.NewString()+strings.ToLower(path.Ext(filename)))
}

func publicURL(baseURL, key, location string) string {
	if baseURL != "" {
		return fmt.Sprintf("%s/%s", baseURL, key)
	}
	if location != "" {
		return location
	}
	return key
}
