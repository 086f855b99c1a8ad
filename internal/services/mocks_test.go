package services_test

import (
	"context"

	"github.com/formsnap/signup-api/pkg/storage"
	"github.com/stretchr/testify/mock"
)

// MockUploader is a mock implementation of Uploader
type MockUploader struct {
	mock.Mock
}

func (m *MockUploader) Upload(ctx context.Context, key, contentType string, data []byte) (*storage.UploadResult, error) {
	args := m.Called(ctx, key, contentType, data)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*storage.UploadResult), args.Error(1)
}

// blockingUploader holds every upload until release is closed
type blockingUploader struct {
	started chan struct{}
	release chan struct{}
}

func newBlockingUploader() *blockingUploader {
	return &blockingUploader{
		started: make(chan struct{}, 1),
		release: make(chan struct{}),
	}
}

func (u *blockingUploader) Upload(ctx context.Context, key, contentType string, data []byte) (*storage.UploadResult, error) {
	u.started <- struct{}{}
	select {
	case <-u.release:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	return &storage.UploadResult{Bucket: "forms-nextjs", Key: key, Size: int64(len(data))}, nil
}
