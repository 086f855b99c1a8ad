package models

import (
	"github.com/formsnap/signup-api/internal/form"
	"github.com/formsnap/signup-api/pkg/storage"
)

// SubmitFormRequest is the JSON variant of a stateless form submission.
// Field rules are enforced by the form schema so both transports report
// the same errors; the body size limit bounds the input.
type SubmitFormRequest struct {
	Name     string        `json:"name"`
	Email    string        `json:"email"`
	Password string        `json:"password"`
	Techs    []TechRequest `json:"techs"`
	Avatar   []AvatarData  `json:"avatar"`
}

// TechRequest is a single technology entry of a JSON submission
type TechRequest struct {
	Title string `json:"title"`
}

// AvatarData represents an avatar sent inline
type AvatarData struct {
	Image       string `json:"image"` // base64 encoded image
	FileName    string `json:"fileName"`
	ContentType string `json:"contentType"`
}

// SubmitResult is the outcome of an accepted submission
type SubmitResult struct {
	Submission *form.Submission      `json:"submission"`
	Output     string                `json:"output"`
	Upload     *storage.UploadResult `json:"upload,omitempty"`
	// UploadError is set when the avatar upload failed but the submission was still accepted.
	UploadError string `json:"uploadError,omitempty"`
}

// PasswordStrengthRequest asks for the advisory strength of a password
type PasswordStrengthRequest struct {
	Password string `json:"password"`
}

// PasswordStrengthResponse reports password strength. Strong is advisory only.
type PasswordStrengthResponse struct {
	Strong bool `json:"strong"`
	Valid  bool `json:"valid"`
}

// ValidationErrorResponse is returned when a submission fails validation
type ValidationErrorResponse struct {
	Error   string            `json:"error"`
	Details []ValidationError `json:"details"`
}

// ValidationError is a single field validation message
type ValidationError struct {
	Field   string `json:"field"`
	Kind    string `json:"kind,omitempty"`
	Message string `json:"message"`
}
