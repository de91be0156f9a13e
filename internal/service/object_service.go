package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"s3gateway/internal/config"
	"s3gateway/internal/domain"
	"s3gateway/internal/port"
)

// UploadInput is the DTO for upload requests.
type UploadInput struct {
	Filename    string
	ContentType string
	Body        io.Reader
}

// ObjectService defines the upload, link and delete contract.
type ObjectService interface {
	Upload(ctx context.Context, input UploadInput) (*domain.UploadResult, error)
	DownloadLink(ctx context.Context, key string) (*domain.PresignedLink, error)
	Delete(ctx context.Context, key string) error
}

// Option configures the object service.
type Option func(*objectService)

// WithClock overrides the time source used for keys and link expiry.
func WithClock(now func() time.Time) Option {
	return func(s *objectService) { s.now = now }
}

type objectService struct {
	storage  port.ObjectStorage
	cfg      *config.StorageConfig
	maxBytes int64
	now      func() time.Time
}

// NewObjectService creates a new ObjectService implementation.
func NewObjectService(
	storage port.ObjectStorage,
	cfg *config.StorageConfig,
	upload *config.UploadConfig,
	opts ...Option,
) ObjectService {
	s := &objectService{
		storage:  storage,
		cfg:      cfg,
		maxBytes: upload.MaxBytes(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ObjectKey builds the storage key for an upload. Two uploads of the same
// filename within one millisecond produce the same key.
func ObjectKey(at time.Time, filename string) string {
	return fmt.Sprintf("%s%d-%s", domain.UploadKeyPrefix, at.UnixMilli(), filename)
}

func (s *objectService) Upload(ctx context.Context, input UploadInput) (*domain.UploadResult, error) {
	if input.Filename == "" || input.Body == nil {
		return nil, domain.ErrMissingFile
	}

	// Buffer one byte past the ceiling to detect oversize bodies.
	data, err := io.ReadAll(io.LimitReader(input.Body, s.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("reading upload: %w", err)
	}
	if int64(len(data)) > s.maxBytes {
		return nil, domain.ErrFileTooLarge
	}

	contentType := input.ContentType
	if contentType == "" {
		contentType = domain.DefaultContentType
	}

	key := ObjectKey(s.now(), input.Filename)

	slog.InfoContext(ctx, "objectService.Upload: uploading object",
		"key", key, "content_type", contentType, "size", len(data), "kms_key_id", s.cfg.KMSKeyID)

	out, err := s.storage.Put(ctx, port.PutInput{
		Key:         key,
		Body:        bytes.NewReader(data),
		Size:        int64(len(data)),
		ContentType: contentType,
		Encryption: domain.Encryption{
			Mode:     domain.EncryptionModeKMS,
			KMSKeyID: s.cfg.KMSKeyID,
		},
	})
	if err != nil {
		slog.ErrorContext(ctx, "objectService.Upload: storage put failed", "key", key, "error", err)
		return nil, err
	}

	return &domain.UploadResult{
		Key:         key,
		ContentType: contentType,
		Size:        int64(len(data)),
		ETag:        out.ETag,
	}, nil
}

// DownloadLink presigns a GET for key. Existence is not checked, so links for
// missing keys are issued and fail only when followed.
func (s *objectService) DownloadLink(ctx context.Context, key string) (*domain.PresignedLink, error) {
	if key == "" {
		return nil, domain.ErrMissingKey
	}

	issued := s.now()
	expires := s.cfg.PresignDuration()

	url, err := s.storage.PresignGet(ctx, key, expires)
	if err != nil {
		slog.ErrorContext(ctx, "objectService.DownloadLink: presign failed", "key", key, "error", err)
		return nil, err
	}

	return &domain.PresignedLink{
		URL:       url,
		Key:       key,
		ExpiresIn: expires,
		ExpiresAt: issued.Add(expires).UTC(),
	}, nil
}

func (s *objectService) Delete(ctx context.Context, key string) error {
	if key == "" {
		return domain.ErrMissingKey
	}

	slog.InfoContext(ctx, "objectService.Delete: deleting object", "key", key)

	if err := s.storage.Delete(ctx, key); err != nil {
		slog.ErrorContext(ctx, "objectService.Delete: storage delete failed", "key", key, "error", err)
		return err
	}
	return nil
}
