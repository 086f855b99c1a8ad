package models

import (
	"time"

	"github.com/formsnap/signup-api/internal/form"
)

// UpdateDraftRequest carries live field edits; omitted fields are left unchanged
type UpdateDraftRequest struct {
	Name     *string `json:"name"`
	Email    *string `json:"email"`
	Password *string `json:"password"`
}

// SetTechRequest sets the title of one technology entry
type SetTechRequest struct {
	Title string `json:"title"`
}

// TechEntryView is a technology entry as shown to the client
type TechEntryView struct {
	ID    string `json:"id"`
	Path  string `json:"path"`
	Title string `json:"title"`
}

// DraftView is the client-facing state of a draft form
type DraftView struct {
	ID             string            `json:"id"`
	Name           string            `json:"name"`
	Email          string            `json:"email"`
	PasswordStrong bool              `json:"passwordStrong"`
	Techs          []TechEntryView   `json:"techs"`
	State          form.AttemptState `json:"state"`
	Submitting     bool              `json:"submitting"`
	CreatedAt      time.Time         `json:"createdAt"`
	UpdatedAt      time.Time         `json:"updatedAt"`
}
