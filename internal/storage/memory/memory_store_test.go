package memory_test

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"s3gateway/internal/domain"
	"s3gateway/internal/port"
	"s3gateway/internal/storage/memory"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time { return c.t }

func newStore(t *testing.T, clock *fakeClock) *memory.Store {
	t.Helper()
	s, err := memory.New("http://localhost:4000/objects",
		memory.WithClock(clock.Now),
		memory.WithSigningKey([]byte("test-signing-key")))
	require.NoError(t, err)
	return s
}

func put(t *testing.T, s *memory.Store, key, contentType string, body []byte) {
	t.Helper()
	_, err := s.Put(context.Background(), port.PutInput{
		Key:         key,
		Body:        bytes.NewReader(body),
		Size:        int64(len(body)),
		ContentType: contentType,
		Encryption:  domain.Encryption{Mode: domain.EncryptionModeKMS, KMSKeyID: "alias/test"},
	})
	require.NoError(t, err)
}

func fetch(t *testing.T, s *memory.Store, link string) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	s.ServeHTTP(w, httptest.NewRequest(http.MethodGet, link, nil))
	return w
}

func TestNew_RequiresPath(t *testing.T) {
	_, err := memory.New("http://localhost:4000")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "must include a path")
}

func TestStore_PutRecordsObject(t *testing.T) {
	s := newStore(t, &fakeClock{t: time.Now()})

	out, err := s.Put(context.Background(), port.PutInput{
		Key:         "uploads/1-a.txt",
		Body:        strings.NewReader("hello"),
		ContentType: "text/plain",
		Encryption:  domain.Encryption{Mode: domain.EncryptionModeKMS},
	})
	require.NoError(t, err)
	assert.Equal(t, `"5d41402abc4b2a76b9719d911017c592"`, out.ETag)

	obj, ok := s.Object("uploads/1-a.txt")
	require.True(t, ok)
	assert.Equal(t, []byte("hello"), obj.Body)
	assert.Equal(t, "text/plain", obj.ContentType)
	assert.Equal(t, domain.EncryptionModeKMS, obj.Encryption.Mode)
	assert.Equal(t, 1, s.Len())
}

func TestStore_PutRejectsEmptyKey(t *testing.T) {
	s := newStore(t, &fakeClock{t: time.Now()})

	_, err := s.Put(context.Background(), port.PutInput{Body: strings.NewReader("x")})
	assert.ErrorIs(t, err, domain.ErrStorageInvalidRequest)
}

func TestStore_PresignGet_RoundTrip(t *testing.T) {
	clock := &fakeClock{t: time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC)}
	s := newStore(t, clock)
	body := []byte{0x89, 'P', 'N', 'G', 0, 1, 2, 3}
	put(t, s, "uploads/1760788800000-photo 1.png", "image/png", body)

	link, err := s.PresignGet(context.Background(), "uploads/1760788800000-photo 1.png", time.Hour)
	require.NoError(t, err)

	u, err := url.Parse(link)
	require.NoError(t, err)
	assert.Equal(t, "/objects/uploads/1760788800000-photo 1.png", u.Path)
	assert.Equal(t, "3600", u.Query().Get("X-Amz-Expires"))
	assert.Equal(t, "20261018T120000Z", u.Query().Get("X-Amz-Date"))

	w := fetch(t, s, link)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, body, w.Body.Bytes())
	assert.Equal(t, "image/png", w.Header().Get("Content-Type"))
	assert.Equal(t, "aws:kms", w.Header().Get("X-Amz-Server-Side-Encryption"))
	assert.Equal(t, "alias/test", w.Header().Get("X-Amz-Server-Side-Encryption-Aws-Kms-Key-Id"))
}

func TestStore_PresignGet_MissingKeyStillIssuesLink(t *testing.T) {
	s := newStore(t, &fakeClock{t: time.Now()})

	link, err := s.PresignGet(context.Background(), "uploads/never-uploaded.txt", time.Hour)
	require.NoError(t, err)

	w := fetch(t, s, link)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "<Code>NoSuchKey</Code>")
}

func TestStore_LinkExpires(t *testing.T) {
	clock := &fakeClock{t: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	s := newStore(t, clock)
	put(t, s, "uploads/1-a.txt", "text/plain", []byte("a"))

	link, err := s.PresignGet(context.Background(), "uploads/1-a.txt", time.Hour)
	require.NoError(t, err)

	clock.t = clock.t.Add(time.Hour)
	assert.Equal(t, http.StatusOK, fetch(t, s, link).Code)

	clock.t = clock.t.Add(time.Second)
	w := fetch(t, s, link)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), "Request has expired")
}

func TestStore_TamperedLinkRejected(t *testing.T) {
	s := newStore(t, &fakeClock{t: time.Now()})
	put(t, s, "uploads/1-a.txt", "text/plain", []byte("a"))
	put(t, s, "uploads/2-b.txt", "text/plain", []byte("b"))

	link, err := s.PresignGet(context.Background(), "uploads/1-a.txt", time.Hour)
	require.NoError(t, err)

	tampered := strings.Replace(link, "1-a.txt", "2-b.txt", 1)
	w := fetch(t, s, tampered)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), "SignatureDoesNotMatch")

	longer := strings.Replace(link, "X-Amz-Expires=3600", "X-Amz-Expires=7200", 1)
	assert.Equal(t, http.StatusForbidden, fetch(t, s, longer).Code)
}

func TestStore_DeleteIsIdempotent(t *testing.T) {
	s := newStore(t, &fakeClock{t: time.Now()})
	put(t, s, "uploads/1-a.txt", "text/plain", []byte("a"))

	require.NoError(t, s.Delete(context.Background(), "uploads/1-a.txt"))
	require.NoError(t, s.Delete(context.Background(), "uploads/1-a.txt"))
	require.NoError(t, s.Delete(context.Background(), "uploads/never-existed"))

	_, ok := s.Object("uploads/1-a.txt")
	assert.False(t, ok)
}

func TestStore_HeadOmitsBody(t *testing.T) {
	s := newStore(t, &fakeClock{t: time.Now()})
	put(t, s, "uploads/1-a.txt", "text/plain", []byte("abc"))

	link, err := s.PresignGet(context.Background(), "uploads/1-a.txt", time.Hour)
	require.NoError(t, err)

	w := httptest.NewRecorder()
	s.ServeHTTP(w, httptest.NewRequest(http.MethodHead, link, nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "3", w.Header().Get("Content-Length"))
	body, _ := io.ReadAll(w.Body)
	assert.Empty(t, body)
}

func TestStore_CanceledContext(t *testing.T) {
	s := newStore(t, &fakeClock{t: time.Now()})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := s.Delete(ctx, "uploads/1-a.txt")
	assert.ErrorIs(t, err, domain.ErrStorageUnavailable)
	assert.ErrorIs(t, s.Ping(ctx), domain.ErrStorageUnavailable)
}
