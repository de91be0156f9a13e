package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"s3gateway/internal/domain"
	"s3gateway/internal/service"
)

// MockObjectService is a mock implementation of service.ObjectService.
type MockObjectService struct {
	mock.Mock
}

func (m *MockObjectService) Upload(ctx context.Context, input service.UploadInput) (*domain.UploadResult, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.UploadResult), args.Error(1)
}

func (m *MockObjectService) DownloadLink(ctx context.Context, key string) (*domain.PresignedLink, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.PresignedLink), args.Error(1)
}

func (m *MockObjectService) Delete(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}
