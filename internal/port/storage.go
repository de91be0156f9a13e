package port

import (
	"context"
	"io"
	"net/http"
	"time"

	"s3gateway/internal/domain"
)

// PutInput encapsulates the parameters needed to store an object.
type PutInput struct {
	Key         string
	Body        io.Reader
	Size        int64
	ContentType string
	Encryption  domain.Encryption
}

// PutOutput contains the result of a successful put.
type PutOutput struct {
	ETag string
}

// ObjectStorage abstracts a single bucket of an object storage backend.
// Failed calls return a *domain.StorageError.
type ObjectStorage interface {
	Put(ctx context.Context, input PutInput) (*PutOutput, error)
	PresignGet(ctx context.Context, key string, expires time.Duration) (string, error)
	Delete(ctx context.Context, key string) error
	Ping(ctx context.Context) error
}

// LinkServer is implemented by backends that serve their own presigned links.
// The router mounts it under MountPath.
type LinkServer interface {
	http.Handler
	MountPath() string
}
