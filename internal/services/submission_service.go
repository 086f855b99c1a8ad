package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/formsnap/signup-api/config"
	"github.com/formsnap/signup-api/internal/form"
	"github.com/formsnap/signup-api/internal/models"
	"github.com/formsnap/signup-api/pkg/logger"
	"github.com/formsnap/signup-api/pkg/metrics"
	"github.com/formsnap/signup-api/pkg/profiling"
	"github.com/formsnap/signup-api/pkg/storage"
	"github.com/formsnap/signup-api/pkg/tracing"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
)

// ErrUpload wraps any failure to store the avatar
var ErrUpload = errors.New("avatar upload failed")

// SubmissionService validates form values and stores the avatar of accepted submissions
type SubmissionService struct {
	uploader Uploader
	config   *config.Config
}

// NewSubmissionService creates a new submission service instance
func NewSubmissionService(uploader Uploader, cfg *config.Config) *SubmissionService {
	return &SubmissionService{
		uploader: uploader,
		config:   cfg,
	}
}

// Submit validates in and, when every field passes, uploads the avatar once.
// A failed validation returns *form.ValidationErrors and uploads nothing.
func (s *SubmissionService) Submit(ctx context.Context, in *form.Input) (*models.SubmitResult, error) {
	ctx, span := tracing.StartSpan(ctx, "SubmissionService.Submit")
	defer span.End()

	var (
		sub *form.Submission
		err error
	)
	profiling.Stage(ctx, profiling.StageValidate, func(context.Context) {
		sub, err = s.validate(in)
	})
	if err != nil {
		span.SetStatus(codes.Error, "validation failed")
		return nil, err
	}

	result, err := s.deliver(ctx, sub)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "upload failed")
		return nil, err
	}
	return result, nil
}

func (s *SubmissionService) validate(in *form.Input) (*form.Submission, error) {
	sub, err := form.Validate(*in)
	if err != nil {
		var verrs *form.ValidationErrors
		if errors.As(err, &verrs) {
			for _, fe := range verrs.All() {
				metrics.ValidationFailures.WithLabelValues(fieldLabel(fe.Path), fe.KindName()).Inc()
			}
			logger.Debug("Submission failed validation", zap.Strings("fields", verrs.Paths()))
		}
		metrics.SubmissionAttempts.WithLabelValues("invalid").Inc()
		return nil, err
	}
	return sub, nil
}

// deliver performs the single upload of an accepted submission and applies
// the configured upload failure policy.
func (s *SubmissionService) deliver(ctx context.Context, sub *form.Submission) (*models.SubmitResult, error) {
	output, err := json.MarshalIndent(sub, "", "  ")
	if err != nil {
		metrics.SubmissionAttempts.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("failed to render submission: %w", err)
	}

	result := &models.SubmitResult{
		Submission: sub,
		Output:     string(output),
	}

	var upload *storage.UploadResult
	profiling.Stage(ctx, profiling.StageUpload, func(ctx context.Context) {
		upload, err = s.upload(ctx, sub.Avatar)
	})
	if err != nil {
		metrics.AvatarUploads.WithLabelValues("error").Inc()
		logger.Error("Failed to upload avatar",
			zap.Error(err),
			zap.String("key", sub.Avatar.Name),
			zap.String("policy", s.config.Submission.UploadFailurePolicy))

		if s.config.UploadFailureIsFatal() {
			metrics.SubmissionAttempts.WithLabelValues("upload_failed").Inc()
			return nil, err
		}

		metrics.SubmissionAttempts.WithLabelValues("accepted_upload_failed").Inc()
		result.UploadError = err.Error()
		return result, nil
	}

	metrics.AvatarUploads.WithLabelValues("success").Inc()
	metrics.AvatarUploadBytes.Observe(float64(upload.Size))
	metrics.SubmissionAttempts.WithLabelValues("accepted").Inc()

	logger.Info("Submission accepted",
		zap.String("email", sub.Email),
		zap.Int("techs", len(sub.Techs)),
		zap.String("avatar_key", upload.Key))

	result.Upload = upload
	return result, nil
}

func (s *SubmissionService) upload(ctx context.Context, avatar *form.File) (*storage.UploadResult, error) {
	ctx, span := tracing.StartSpan(ctx, "SubmissionService.upload")
	defer span.End()
	span.SetAttributes(
		attribute.String("avatar.name", avatar.Name),
		attribute.Int64("avatar.size", avatar.Size),
		attribute.String("avatar.type", avatar.ContentType),
	)

	data, err := avatar.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %w", ErrUpload, avatar.Name, err)
	}

	res, err := s.uploader.Upload(ctx, avatar.Name, avatar.ContentType, data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUpload, err)
	}
	return res, nil
}

// fieldLabel collapses per-entry tech paths into one metric label.
func fieldLabel(path string) string {
	if strings.HasPrefix(path, form.PathTechs+".") {
		return form.PathTechs + ".title"
	}
	return path
}
