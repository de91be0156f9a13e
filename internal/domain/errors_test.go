package domain_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"s3gateway/internal/domain"
)

func TestStorageError_MatchesKindAndCause(t *testing.T) {
	cause := errors.New("AccessDenied: not allowed")
	err := domain.NewStorageError("s3 put", domain.ErrStorageAccessDenied, cause)

	assert.ErrorIs(t, err, domain.ErrStorageAccessDenied)
	assert.ErrorIs(t, err, cause)
	assert.NotErrorIs(t, err, domain.ErrStorageNotFound)
	assert.Equal(t, "s3 put: AccessDenied: not allowed", err.Error())
	assert.Equal(t, "AccessDenied: not allowed", err.Detail())
}

func TestStorageError_DefaultsToFailure(t *testing.T) {
	err := domain.NewStorageError("memory put", nil, errors.New("boom"))
	assert.ErrorIs(t, err, domain.ErrStorageFailure)
}

func TestStorageError_SurvivesWrapping(t *testing.T) {
	err := fmt.Errorf("uploading: %w", domain.NewStorageError("s3 delete", domain.ErrStorageUnavailable, errors.New("dial tcp: refused")))

	var se *domain.StorageError
	assert.True(t, errors.As(err, &se))
	assert.Equal(t, "s3 delete", se.Op)
	assert.ErrorIs(t, err, domain.ErrStorageUnavailable)
}

func TestStorageKind(t *testing.T) {
	assert.Equal(t, domain.ErrStorageNotFound,
		domain.StorageKind(fmt.Errorf("wrap: %w", domain.NewStorageError("op", domain.ErrStorageNotFound, errors.New("x")))))
	assert.Nil(t, domain.StorageKind(errors.New("plain")))
	assert.Nil(t, domain.StorageKind(nil))
}
