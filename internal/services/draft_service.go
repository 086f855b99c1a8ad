package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/formsnap/signup-api/internal/drafts"
	"github.com/formsnap/signup-api/internal/form"
	"github.com/formsnap/signup-api/internal/models"
	apperrors "github.com/formsnap/signup-api/pkg/errors"
	"github.com/formsnap/signup-api/pkg/logger"
	"github.com/formsnap/signup-api/pkg/metrics"
	"github.com/formsnap/signup-api/pkg/tracing"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// DraftService manages live, editable forms and their submit attempts
type DraftService struct {
	store       *drafts.Store
	submissions *SubmissionService
}

// NewDraftService creates a new draft service instance
func NewDraftService(store *drafts.Store, submissions *SubmissionService) *DraftService {
	return &DraftService{
		store:       store,
		submissions: submissions,
	}
}

// Create starts an empty draft
func (s *DraftService) Create(ctx context.Context) *models.DraftView {
	d := s.store.Create()
	metrics.DraftOperations.WithLabelValues("create", "success").Inc()
	logger.Debug("Draft created", zap.String("draft_id", d.ID))
	return draftView(d.Snapshot())
}

// Get returns the current view of a draft
func (s *DraftService) Get(ctx context.Context, id string) (*models.DraftView, error) {
	d, err := s.lookup("get", id)
	if err != nil {
		return nil, err
	}
	return draftView(d.Snapshot()), nil
}

// Update applies live edits to name, email and password
func (s *DraftService) Update(ctx context.Context, id string, req *models.UpdateDraftRequest) (*models.DraftView, error) {
	d, err := s.lookup("update", id)
	if err != nil {
		return nil, err
	}
	d.SetFields(drafts.Fields{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
	})
	metrics.DraftOperations.WithLabelValues("update", "success").Inc()
	return draftView(d.Snapshot()), nil
}

// AppendTech adds an empty technology entry at the end of the list
func (s *DraftService) AppendTech(ctx context.Context, id string) (*models.DraftView, error) {
	return s.editTechs("append_tech", id, func(techs *form.TechList) error {
		techs.Append()
		return nil
	})
}

// SetTech sets the title of the entry at index
func (s *DraftService) SetTech(ctx context.Context, id string, index int, title string) (*models.DraftView, error) {
	return s.editTechs("set_tech", id, func(techs *form.TechList) error {
		return techs.SetTitle(index, title)
	})
}

// RemoveTech deletes the entry at index; later entries shift down
func (s *DraftService) RemoveTech(ctx context.Context, id string, index int) (*models.DraftView, error) {
	return s.editTechs("remove_tech", id, func(techs *form.TechList) error {
		return techs.Remove(index)
	})
}

// Submit runs one submit attempt on the draft. Only one attempt per draft may
// be in flight; a concurrent call fails with form.ErrAttemptInFlight.
func (s *DraftService) Submit(ctx context.Context, id string, avatars []*form.File) (*models.SubmitResult, error) {
	ctx, span := tracing.StartSpan(ctx, "DraftService.Submit")
	defer span.End()
	span.SetAttributes(attribute.String("draft.id", id))

	d, err := s.lookup("submit", id)
	if err != nil {
		return nil, err
	}

	attempt := d.Attempt()
	if err := attempt.Begin(); err != nil {
		metrics.DraftOperations.WithLabelValues("submit", "in_flight").Inc()
		logger.Warn("Submit rejected, attempt in flight", zap.String("draft_id", id))
		return nil, fmt.Errorf("%w: %w", err, apperrors.ErrConflict)
	}

	snap := d.Snapshot()
	sub, err := s.submissions.validate(&form.Input{
		Name:     snap.Name,
		Email:    snap.Email,
		Password: snap.Password,
		Techs:    snap.Techs,
		Avatar:   avatars,
	})
	if err != nil {
		s.transition(id, attempt.Invalid)
		metrics.DraftOperations.WithLabelValues("submit", "invalid").Inc()
		return nil, err
	}

	s.transition(id, attempt.Uploading)

	result, err := s.submissions.deliver(ctx, sub)
	if err != nil {
		s.transition(id, attempt.Failed)
		metrics.DraftOperations.WithLabelValues("submit", "error").Inc()
		return nil, err
	}

	s.transition(id, attempt.Done)
	metrics.DraftOperations.WithLabelValues("submit", "success").Inc()
	return result, nil
}

func (s *DraftService) lookup(op, id string) (*drafts.Draft, error) {
	d, err := s.store.Get(id)
	if err != nil {
		status := "error"
		if errors.Is(err, apperrors.ErrNotFound) {
			status = "not_found"
		}
		metrics.DraftOperations.WithLabelValues(op, status).Inc()
		return nil, err
	}
	return d, nil
}

func (s *DraftService) editTechs(op, id string, fn func(techs *form.TechList) error) (*models.DraftView, error) {
	d, err := s.lookup(op, id)
	if err != nil {
		return nil, err
	}
	if err := d.Edit(fn); err != nil {
		metrics.DraftOperations.WithLabelValues(op, "error").Inc()
		return nil, err
	}
	metrics.DraftOperations.WithLabelValues(op, "success").Inc()
	return draftView(d.Snapshot()), nil
}

func (s *DraftService) transition(id string, step func() error) {
	if err := step(); err != nil {
		logger.Error("Unexpected attempt transition", zap.String("draft_id", id), zap.Error(err))
	}
}

func draftView(snap drafts.Snapshot) *models.DraftView {
	techs := make([]models.TechEntryView, len(snap.Techs))
	for i, t := range snap.Techs {
		techs[i] = models.TechEntryView{
			ID:    t.ID,
			Path:  form.TechPath(i),
			Title: t.Title,
		}
	}

	return &models.DraftView{
		ID:             snap.ID,
		Name:           snap.Name,
		Email:          snap.Email,
		PasswordStrong: form.PasswordStrong(snap.Password),
		Techs:          techs,
		State:          snap.State,
		Submitting:     snap.State == form.StateValidating || snap.State == form.StateUploading,
		CreatedAt:      snap.CreatedAt,
		UpdatedAt:      snap.UpdatedAt,
	}
}
