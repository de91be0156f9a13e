package storage_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"s3gateway/internal/config"
	"s3gateway/internal/domain"
	"s3gateway/internal/port"
	"s3gateway/internal/storage"
	"s3gateway/internal/storage/memory"
	"s3gateway/mocks"
)

func TestNew_Memory(t *testing.T) {
	store, err := storage.New(context.Background(), &config.StorageConfig{
		Provider:         config.ProviderMemory,
		MemoryBaseURL:    "http://localhost:4000/objects",
		MemorySigningKey: "k",
	})
	require.NoError(t, err)

	ls, ok := store.(port.LinkServer)
	require.True(t, ok)
	assert.Equal(t, "/objects", ls.MountPath())
	assert.IsType(t, &memory.Store{}, store)
}

func TestNew_MemoryBadBaseURL(t *testing.T) {
	store, err := storage.New(context.Background(), &config.StorageConfig{
		Provider:      config.ProviderMemory,
		MemoryBaseURL: "http://localhost:4000",
	})
	require.Error(t, err)
	assert.Nil(t, store)
}

func TestNew_S3(t *testing.T) {
	store, err := storage.New(context.Background(), &config.StorageConfig{
		Provider:  config.ProviderS3,
		Region:    "us-east-1",
		Bucket:    "b",
		AccessKey: "AKIDEXAMPLE",
		SecretKey: "secret",
	})
	require.NoError(t, err)

	_, isLinkServer := store.(port.LinkServer)
	assert.False(t, isLinkServer)
}

func TestNew_Minio(t *testing.T) {
	store, err := storage.New(context.Background(), &config.StorageConfig{
		Provider:  config.ProviderMinio,
		Region:    "us-east-1",
		Bucket:    "b",
		Endpoint:  "localhost:9000",
		AccessKey: "minioadmin",
		SecretKey: "minioadmin",
	})
	require.NoError(t, err)
	assert.NotNil(t, store)
}

func TestNew_UnknownProvider(t *testing.T) {
	_, err := storage.New(context.Background(), &config.StorageConfig{Provider: "gcs"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown storage provider")
}

func TestInstrument_CountsOutcomes(t *testing.T) {
	reg := prometheus.NewRegistry()
	backend := new(mocks.MockObjectStorage)
	store := storage.Instrument(backend, storage.NewMetrics(reg))

	denied := domain.NewStorageError("s3 delete", domain.ErrStorageAccessDenied, errors.New("AccessDenied"))
	backend.On("Put", mock.Anything, mock.AnythingOfType("port.PutInput")).Return(&port.PutOutput{ETag: "e"}, nil)
	backend.On("Delete", mock.Anything, "uploads/1-a.txt").Return(denied)
	backend.On("PresignGet", mock.Anything, "uploads/1-a.txt", time.Hour).Return("https://example/link", nil)

	out, err := store.Put(context.Background(), port.PutInput{Key: "uploads/1-a.txt"})
	require.NoError(t, err)
	assert.Equal(t, "e", out.ETag)

	err = store.Delete(context.Background(), "uploads/1-a.txt")
	assert.Same(t, denied, err)

	link, err := store.PresignGet(context.Background(), "uploads/1-a.txt", time.Hour)
	require.NoError(t, err)
	assert.Equal(t, "https://example/link", link)

	expected := `
# HELP s3gateway_storage_operations_total Storage backend calls by operation and result
# TYPE s3gateway_storage_operations_total counter
s3gateway_storage_operations_total{op="delete",result="access_denied"} 1
s3gateway_storage_operations_total{op="presign_get",result="ok"} 1
s3gateway_storage_operations_total{op="put",result="ok"} 1
`
	assert.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "s3gateway_storage_operations_total"))
	backend.AssertExpectations(t)
}

func TestResultLabel(t *testing.T) {
	assert.Equal(t, "ok", storage.ResultLabel(nil))
	assert.Equal(t, "not_found", storage.ResultLabel(domain.NewStorageError("op", domain.ErrStorageNotFound, errors.New("x"))))
	assert.Equal(t, "invalid_request", storage.ResultLabel(domain.NewStorageError("op", domain.ErrStorageInvalidRequest, errors.New("x"))))
	assert.Equal(t, "unavailable", storage.ResultLabel(domain.NewStorageError("op", domain.ErrStorageUnavailable, errors.New("x"))))
	assert.Equal(t, "failure", storage.ResultLabel(errors.New("plain")))
}
