package form

import (
	"fmt"
)

const (
	// MaxAvatarBytes is the largest accepted avatar (5 MB).
	MaxAvatarBytes int64 = 5 * 1024 * 1024

	// MinTechs is the minimum number of technologies at submit time.
	MinTechs = 3

	// MinPasswordLength is the minimum password length in characters.
	MinPasswordLength = 6

	// EmailSuffix is the only accepted email provider.
	EmailSuffix = "@hotmail.com"
)

// AcceptedImageTypes lists the avatar MIME types the form accepts.
var AcceptedImageTypes = []string{"image/jpeg", "image/jpg", "image/png", "image/webp"}

// Field paths
const (
	PathName     = "name"
	PathEmail    = "email"
	PathPassword = "password"
	PathTechs    = "techs"
	PathAvatar   = "avatar"
)

// Input holds the raw form values of one submit attempt.
type Input struct {
	Name     string
	Email    string
	Password string
	Techs    []TechEntry
	// Avatar is the selected file list; exactly one file is accepted.
	Avatar []*File
}

// Tech is a canonical technology entry.
type Tech struct {
	Title string `json:"title"`
}

// Submission is the canonical, fully validated set of form values.
type Submission struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Techs    []Tech `json:"techs"`
	Avatar   *File  `json:"avatar"`
}

var (
	nameRules = []Rule[string]{
		Required(PathName, "Name is required"),
		Trim(),
		CapitalizeWords(),
	}

	emailRules = []Rule[string]{
		Required(PathEmail, "Email is required"),
		Email(PathEmail, "Invalid email format"),
		Lowercase(),
		HasSuffix(PathEmail, EmailSuffix, "Email must be a hotmail.com address"),
	}

	passwordRules = []Rule[string]{
		MinLength(PathPassword, MinPasswordLength, fmt.Sprintf("Password must be at least %d characters", MinPasswordLength)),
	}

	avatarRules = []Rule[*File]{
		MaxFileSize(PathAvatar, MaxAvatarBytes, "Maximum avatar size is 5MB"),
		AcceptedTypes(PathAvatar, AcceptedImageTypes, "Invalid image format. Allowed types: jpeg, jpg, png, webp"),
	}
)

// Validate checks every field of in and returns either the canonical
// Submission or a *ValidationErrors holding every failure, never both.
func Validate(in Input) (*Submission, error) {
	errs := &ValidationErrors{}
	collect := func(err error) {
		if fe, ok := err.(*FieldError); ok {
			errs.add(fe)
		}
	}

	name, err := Apply(in.Name, nameRules...)
	collect(err)

	email, err := Apply(in.Email, emailRules...)
	collect(err)

	password, err := Apply(in.Password, passwordRules...)
	collect(err)

	techs, techErrs := validateTechs(in.Techs)
	for _, fe := range techErrs {
		errs.add(fe)
	}

	avatar, err := validateAvatar(in.Avatar)
	collect(err)

	if !errs.Empty() {
		return nil, errs
	}

	return &Submission{
		Name:     name,
		Email:    email,
		Password: password,
		Techs:    techs,
		Avatar:   avatar,
	}, nil
}

// CanonicalEmail runs the email pipeline on its own.
func CanonicalEmail(raw string) (string, error) {
	return Apply(raw, emailRules...)
}

// CanonicalName runs the name pipeline on its own.
func CanonicalName(raw string) (string, error) {
	return Apply(raw, nameRules...)
}

func validateTechs(entries []TechEntry) ([]Tech, []*FieldError) {
	var errs []*FieldError
	techs := make([]Tech, 0, len(entries))

	for i, e := range entries {
		title, err := Apply(e.Title, Required(TechPath(i), "Technology name is required"))
		if err != nil {
			errs = append(errs, err.(*FieldError))
			continue
		}
		techs = append(techs, Tech{Title: title})
	}

	if len(entries) < MinTechs {
		errs = append(errs, newFieldError(PathTechs, ErrMinCount,
			fmt.Sprintf("At least %d technologies must be provided", MinTechs)))
	}

	return techs, errs
}

func validateAvatar(files []*File) (*File, error) {
	if len(files) != 1 || files[0] == nil {
		return nil, newFieldError(PathAvatar, ErrRequired, "Avatar image is required")
	}
	return Apply(files[0], avatarRules...)
}
