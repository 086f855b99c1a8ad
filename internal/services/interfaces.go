package services

import (
	"context"

	"github.com/formsnap/signup-api/internal/form"
	"github.com/formsnap/signup-api/internal/models"
	"github.com/formsnap/signup-api/pkg/storage"
)

// Uploader stores an avatar under a key
type Uploader interface {
	Upload(ctx context.Context, key, contentType string, data []byte) (*storage.UploadResult, error)
}

// SubmissionServiceInterface defines the interface for stateless form submissions
type SubmissionServiceInterface interface {
	Submit(ctx context.Context, in *form.Input) (*models.SubmitResult, error)
}

// DraftServiceInterface defines the interface for live draft forms
type DraftServiceInterface interface {
	Create(ctx context.Context) *models.DraftView
	Get(ctx context.Context, id string) (*models.DraftView, error)
	Update(ctx context.Context, id string, req *models.UpdateDraftRequest) (*models.DraftView, error)
	AppendTech(ctx context.Context, id string) (*models.DraftView, error)
	SetTech(ctx context.Context, id string, index int, title string) (*models.DraftView, error)
	RemoveTech(ctx context.Context, id string, index int) (*models.DraftView, error)
	Submit(ctx context.Context, id string, avatars []*form.File) (*models.SubmitResult, error)
}

// Ensure services implement their interfaces
var _ Uploader = (*storage.Client)(nil)
var _ SubmissionServiceInterface = (*SubmissionService)(nil)
var _ DraftServiceInterface = (*DraftService)(nil)
