package s3

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"

	"s3gateway/internal/config"
	"s3gateway/internal/domain"
	"s3gateway/internal/port"
)

type s3Client struct {
	client    *s3.Client
	presigner *s3.PresignClient
	uploader  *manager.Uploader
	bucket    string
}

// NewS3Client creates a new S3-backed ObjectStorage bound to cfg.Bucket.
// Static credentials are used when both keys are set, otherwise the default
// AWS credential chain applies.
func NewS3Client(ctx context.Context, cfg *config.StorageConfig) (port.ObjectStorage, error) {
	var opts []func(*awsconfig.LoadOptions) error
	opts = append(opts, awsconfig.WithRegion(cfg.Region))

	if cfg.AccessKey != "" && cfg.SecretKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("loading aws config: %w", err)
	}

	var s3Opts []func(*s3.Options)
	if cfg.Endpoint != "" {
		s3Opts = append(s3Opts, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		})
	}

	client := s3.NewFromConfig(awsCfg, s3Opts...)
	return &s3Client{
		client:    client,
		presigner: s3.NewPresignClient(client),
		uploader:  manager.NewUploader(client),
		bucket:    cfg.Bucket,
	}, nil
}

func (c *s3Client) Put(ctx context.Context, input port.PutInput) (*port.PutOutput, error) {
	params := &s3.PutObjectInput{
		Bucket:               aws.String(c.bucket),
		Key:                  aws.String(input.Key),
		Body:                 input.Body,
		ContentType:          aws.String(input.ContentType),
		ServerSideEncryption: types.ServerSideEncryption(input.Encryption.Mode),
	}
	if input.Size > 0 {
		params.ContentLength = aws.Int64(input.Size)
	}
	if input.Encryption.KMSKeyID != "" {
		params.SSEKMSKeyId = aws.String(input.Encryption.KMSKeyID)
	}

	result, err := c.uploader.Upload(ctx, params)
	if err != nil {
		return nil, domain.NewStorageError("s3 put", ClassifyError(err), err)
	}

	return &port.PutOutput{ETag: aws.ToString(result.ETag)}, nil
}

func (c *s3Client) PresignGet(ctx context.Context, key string, expires time.Duration) (string, error) {
	result, err := c.presigner.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(expires))
	if err != nil {
		return "", domain.NewStorageError("s3 presign", ClassifyError(err), err)
	}
	return result.URL, nil
}

func (c *s3Client) Delete(ctx context.Context, key string) error {
	_, err := c.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return domain.NewStorageError("s3 delete", ClassifyError(err), err)
	}
	return nil
}

func (c *s3Client) Ping(ctx context.Context) error {
	_, err := c.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(c.bucket)})
	if err != nil {
		return domain.NewStorageError("s3 head bucket", ClassifyError(err), err)
	}
	return nil
}

// ClassifyError maps an AWS SDK error onto a domain storage failure kind.
func ClassifyError(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return domain.ErrStorageUnavailable
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "AccessDenied", "AllAccessDisabled", "Forbidden", "InvalidAccessKeyId",
			"SignatureDoesNotMatch", "ExpiredToken", "InvalidToken",
			"KMS.AccessDeniedException", "KMS.DisabledException":
			return domain.ErrStorageAccessDenied
		case "NoSuchKey", "NoSuchBucket", "NotFound":
			return domain.ErrStorageNotFound
		case "InvalidArgument", "InvalidRequest", "InvalidBucketName", "KeyTooLongError",
			"MalformedXML", "EntityTooLarge", "KMS.NotFoundException":
			return domain.ErrStorageInvalidRequest
		case "SlowDown", "ServiceUnavailable", "InternalError", "RequestTimeout":
			return domain.ErrStorageUnavailable
		}
	}

	var respErr *awshttp.ResponseError
	if errors.As(err, &respErr) {
		status := respErr.HTTPStatusCode()
		switch {
		case status == http.StatusUnauthorized || status == http.StatusForbidden:
			return domain.ErrStorageAccessDenied
		case status == http.StatusNotFound:
			return domain.ErrStorageNotFound
		case status == http.StatusTooManyRequests || status >= 500:
			return domain.ErrStorageUnavailable
		case status >= 400:
			return domain.ErrStorageInvalidRequest
		}
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return domain.ErrStorageUnavailable
	}
	return domain.ErrStorageFailure
}
