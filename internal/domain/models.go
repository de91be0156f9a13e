package domain

import "time"

// EncryptionModeKMS is the server-side encryption mode applied to every upload.
const EncryptionModeKMS = "aws:kms"

// DefaultContentType is used when an upload declares no MIME type.
const DefaultContentType = "application/octet-stream"

// UploadKeyPrefix namespaces every generated object key.
const UploadKeyPrefix = "uploads/"

// Encryption describes the server-side encryption requested for an object.
// An empty KMSKeyID means the backend's default managed key.
type Encryption struct {
	Mode     string `json:"mode"`
	KMSKeyID string `json:"kms_key_id,omitempty"`
}

// StorageObject is an object held by the storage backend.
type StorageObject struct {
	Key         string     `json:"key"`
	Body        []byte     `json:"-"`
	ContentType string     `json:"content_type"`
	Encryption  Encryption `json:"encryption"`
}

// UploadResult is returned after a successful upload.
type UploadResult struct {
	Key         string `json:"key"`
	ContentType string `json:"content_type"`
	Size        int64  `json:"size"`
	ETag        string `json:"etag,omitempty"`
}

// PresignedLink is a time-boxed URL granting GET access to one object.
// Links cannot be renewed or revoked once issued.
type PresignedLink struct {
	URL       string        `json:"url"`
	Key       string        `json:"key"`
	ExpiresIn time.Duration `json:"-"`
	ExpiresAt time.Time     `json:"expires_at"`
}
