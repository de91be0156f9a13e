package memory

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/md5"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"s3gateway/internal/domain"
	"s3gateway/internal/port"
)

const amzDateFormat = "20060102T150405Z"

// Store is an in-process ObjectStorage. It keeps objects in a map and serves
// its own HMAC-signed presigned links, which makes it usable for local runs
// and for end-to-end tests without a cloud account.
type Store struct {
	mu      sync.RWMutex
	objects map[string]domain.StorageObject

	baseURL    *url.URL
	signingKey []byte
	now        func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the time source used for signing and expiry checks.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithSigningKey fixes the HMAC key. Without it a random key is generated,
// so links do not survive a restart.
func WithSigningKey(key []byte) Option {
	return func(s *Store) { s.signingKey = key }
}

var (
	_ port.ObjectStorage = (*Store)(nil)
	_ port.LinkServer    = (*Store)(nil)
)

// New creates a Store whose links are rooted at baseURL, e.g.
// "http://localhost:4000/objects". The URL must carry a path.
func New(baseURL string, opts ...Option) (*Store, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing memory base url: %w", err)
	}
	u.Path = strings.TrimSuffix(u.Path, "/")
	if u.Path == "" {
		return nil, fmt.Errorf("memory base url %q must include a path", baseURL)
	}

	s := &Store{
		objects: make(map[string]domain.StorageObject),
		baseURL: u,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if len(s.signingKey) == 0 {
		s.signingKey = make([]byte, 32)
		if _, err := rand.Read(s.signingKey); err != nil {
			return nil, fmt.Errorf("generating signing key: %w", err)
		}
	}
	return s, nil
}

func (s *Store) Put(ctx context.Context, input port.PutInput) (*port.PutOutput, error) {
	if err := ctx.Err(); err != nil {
		return nil, domain.NewStorageError("memory put", domain.ErrStorageUnavailable, err)
	}
	if input.Key == "" {
		return nil, domain.NewStorageError("memory put", domain.ErrStorageInvalidRequest, errors.New("InvalidArgument: empty key"))
	}

	body, err := io.ReadAll(input.Body)
	if err != nil {
		return nil, domain.NewStorageError("memory put", domain.ErrStorageFailure, err)
	}

	sum := md5.Sum(body)
	etag := `"` + hex.EncodeToString(sum[:]) + `"`

	s.mu.Lock()
	s.objects[input.Key] = domain.StorageObject{
		Key:         input.Key,
		Body:        body,
		ContentType: input.ContentType,
		Encryption:  input.Encryption,
	}
	s.mu.Unlock()

	return &port.PutOutput{ETag: etag}, nil
}

func (s *Store) PresignGet(ctx context.Context, key string, expires time.Duration) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", domain.NewStorageError("memory presign", domain.ErrStorageUnavailable, err)
	}
	if key == "" {
		return "", domain.NewStorageError("memory presign", domain.ErrStorageInvalidRequest, errors.New("InvalidArgument: empty key"))
	}

	date := s.now().UTC().Format(amzDateFormat)
	secs := strconv.FormatInt(int64(expires/time.Second), 10)

	q := url.Values{}
	q.Set("X-Amz-Date", date)
	q.Set("X-Amz-Expires", secs)
	q.Set("X-Amz-Signature", s.sign(key, date, secs))

	u := *s.baseURL
	u.Path = s.baseURL.Path + "/" + key
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// Delete removes key. Deleting a missing key succeeds.
func (s *Store) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return domain.NewStorageError("memory delete", domain.ErrStorageUnavailable, err)
	}
	s.mu.Lock()
	delete(s.objects, key)
	s.mu.Unlock()
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return domain.NewStorageError("memory ping", domain.ErrStorageUnavailable, err)
	}
	return nil
}

// Object returns a copy of the stored object.
func (s *Store) Object(key string) (domain.StorageObject, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	obj, ok := s.objects[key]
	if !ok {
		return domain.StorageObject{}, false
	}
	obj.Body = bytes.Clone(obj.Body)
	return obj, true
}

// Len returns the number of stored objects.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.objects)
}

// MountPath is the path prefix under which presigned links are served.
func (s *Store) MountPath() string {
	return s.baseURL.Path
}

// ServeHTTP answers presigned GET and HEAD requests.
func (s *Store) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		writeError(w, http.StatusMethodNotAllowed, "MethodNotAllowed", "The specified method is not allowed against this resource.")
		return
	}

	key := strings.TrimPrefix(r.URL.Path, s.MountPath()+"/")
	q := r.URL.Query()
	date, secs, sig := q.Get("X-Amz-Date"), q.Get("X-Amz-Expires"), q.Get("X-Amz-Signature")

	if date == "" || secs == "" || sig == "" ||
		!hmac.Equal([]byte(sig), []byte(s.sign(key, date, secs))) {
		writeError(w, http.StatusForbidden, "SignatureDoesNotMatch", "The request signature we calculated does not match the signature you provided.")
		return
	}

	issued, err := time.Parse(amzDateFormat, date)
	if err != nil {
		writeError(w, http.StatusForbidden, "AccessDenied", "X-Amz-Date must be in the ISO8601 Long Format.")
		return
	}
	n, err := strconv.ParseInt(secs, 10, 64)
	if err != nil || n <= 0 {
		writeError(w, http.StatusForbidden, "AccessDenied", "X-Amz-Expires must be a positive integer.")
		return
	}
	if s.now().After(issued.Add(time.Duration(n) * time.Second)) {
		writeError(w, http.StatusForbidden, "AccessDenied", "Request has expired")
		return
	}

	obj, ok := s.Object(key)
	if !ok {
		writeError(w, http.StatusNotFound, "NoSuchKey", "The specified key does not exist.")
		return
	}

	w.Header().Set("Content-Type", obj.ContentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(obj.Body)))
	if obj.Encryption.Mode != "" {
		w.Header().Set("X-Amz-Server-Side-Encryption", obj.Encryption.Mode)
	}
	if obj.Encryption.KMSKeyID != "" {
		w.Header().Set("X-Amz-Server-Side-Encryption-Aws-Kms-Key-Id", obj.Encryption.KMSKeyID)
	}
	w.WriteHeader(http.StatusOK)
	if r.Method == http.MethodGet {
		_, _ = w.Write(obj.Body)
	}
}

func (s *Store) sign(key, date, secs string) string {
	mac := hmac.New(sha256.New, s.signingKey)
	_, _ = io.WriteString(mac, key+"\n"+date+"\n"+secs)
	return hex.EncodeToString(mac.Sum(nil))
}

type errorBody struct {
	XMLName xml.Name `xml:"Error"`
	Code    string   `xml:"Code"`
	Message string   `xml:"Message"`
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	w.Header().Set("Content-Type", "application/xml")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, xml.Header)
	_ = xml.NewEncoder(w).Encode(errorBody{Code: code, Message: msg})
}
