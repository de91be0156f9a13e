package minio

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/minio/minio-go/v7/pkg/encrypt"

	"s3gateway/internal/config"
	"s3gateway/internal/domain"
	"s3gateway/internal/port"
)

type minioClient struct {
	client *minio.Client
	bucket string
}

// NewMinioClient creates an ObjectStorage for S3-compatible stores (MinIO,
// Ceph RGW, R2). The region must be set so presigning stays offline.
func NewMinioClient(cfg *config.StorageConfig) (port.ObjectStorage, error) {
	endpoint, secure, err := normaliseEndpoint(cfg.Endpoint, cfg.UseSSL)
	if err != nil {
		return nil, fmt.Errorf("minio endpoint: %w", err)
	}

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: secure,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("creating minio client: %w", err)
	}

	return &minioClient{client: client, bucket: cfg.Bucket}, nil
}

// normaliseEndpoint accepts either "host:port" or "http(s)://host:port".
// A scheme overrides useSSL.
func normaliseEndpoint(raw string, useSSL bool) (endpoint string, secure bool, err error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", false, errors.New("empty endpoint")
	}

	if strings.Contains(raw, "://") {
		u, err := url.Parse(raw)
		if err != nil {
			return "", false, err
		}
		if u.Host == "" {
			return "", false, errors.New("invalid endpoint")
		}
		if u.Path != "" && u.Path != "/" {
			return "", false, errors.New("endpoint must not contain a path")
		}
		return u.Host, u.Scheme == "https", nil
	}

	return raw, useSSL, nil
}

func (c *minioClient) Put(ctx context.Context, input port.PutInput) (*port.PutOutput, error) {
	opts := minio.PutObjectOptions{ContentType: input.ContentType}
	if input.Encryption.Mode == domain.EncryptionModeKMS {
		sse, err := encrypt.NewSSEKMS(input.Encryption.KMSKeyID, nil)
		if err != nil {
			return nil, domain.NewStorageError("minio put", domain.ErrStorageInvalidRequest, err)
		}
		opts.ServerSideEncryption = sse
	}

	size := input.Size
	if size <= 0 {
		size = -1
	}

	info, err := c.client.PutObject(ctx, c.bucket, input.Key, input.Body, size, opts)
	if err != nil {
		return nil, domain.NewStorageError("minio put", ClassifyError(err), err)
	}
	return &port.PutOutput{ETag: info.ETag}, nil
}

func (c *minioClient) PresignGet(ctx context.Context, key string, expires time.Duration) (string, error) {
	u, err := c.client.PresignedGetObject(ctx, c.bucket, key, expires, nil)
	if err != nil {
		return "", domain.NewStorageError("minio presign", ClassifyError(err), err)
	}
	return u.String(), nil
}

func (c *minioClient) Delete(ctx context.Context, key string) error {
	if err := c.client.RemoveObject(ctx, c.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return domain.NewStorageError("minio delete", ClassifyError(err), err)
	}
	return nil
}

func (c *minioClient) Ping(ctx context.Context) error {
	exists, err := c.client.BucketExists(ctx, c.bucket)
	if err != nil {
		return domain.NewStorageError("minio bucket exists", ClassifyError(err), err)
	}
	if !exists {
		return domain.NewStorageError("minio bucket exists", domain.ErrStorageNotFound,
			fmt.Errorf("bucket does not exist: %s", c.bucket))
	}
	return nil
}

// ClassifyError maps a minio-go error onto a domain storage failure kind.
func ClassifyError(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return domain.ErrStorageUnavailable
	}

	resp := minio.ToErrorResponse(err)
	switch resp.Code {
	case "AccessDenied", "InvalidAccessKeyId", "SignatureDoesNotMatch", "ExpiredToken", "InvalidToken":
		return domain.ErrStorageAccessDenied
	case "NoSuchKey", "NoSuchBucket":
		return domain.ErrStorageNotFound
	case "InvalidArgument", "InvalidRequest", "InvalidBucketName", "KeyTooLongError",
		"XMinioInvalidObjectName", "EntityTooLarge", "NotImplemented":
		return domain.ErrStorageInvalidRequest
	case "SlowDown", "ServiceUnavailable", "InternalError", "RequestTimeout", "XMinioServerNotInitialized":
		return domain.ErrStorageUnavailable
	}

	switch status := resp.StatusCode; {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return domain.ErrStorageAccessDenied
	case status == http.StatusNotFound:
		return domain.ErrStorageNotFound
	case status == http.StatusTooManyRequests || status >= 500:
		return domain.ErrStorageUnavailable
	case status >= 400:
		return domain.ErrStorageInvalidRequest
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return domain.ErrStorageUnavailable
	}
	return domain.ErrStorageFailure
}
