package form

import (
	"errors"
	"sort"
	"strings"
)

// Field validation failure kinds. FieldError wraps exactly one of these.
var (
	ErrRequired = errors.New("required")
	ErrFormat   = errors.New("invalid format")
	ErrDomain   = errors.New("domain not allowed")
	ErrLength   = errors.New("too short")
	ErrMinCount = errors.New("too few entries")
	ErrSize     = errors.New("file too large")
	ErrType     = errors.New("file type not accepted")
)

// FieldError is a single validation failure attributed to a field path
// such as "email" or "techs.2.title".
type FieldError struct {
	Path    string
	Kind    error
	Message string
}

func (e *FieldError) Error() string {
	return e.Path + ": " + e.Message
}

func (e *FieldError) Unwrap() error {
	return e.Kind
}

// KindName returns a short label for the failure kind, used in metrics.
func (e *FieldError) KindName() string {
	switch e.Kind {
	case ErrRequired:
		return "required"
	case ErrFormat:
		return "format"
	case ErrDomain:
		return "domain"
	case ErrLength:
		return "length"
	case ErrMinCount:
		return "min_count"
	case ErrSize:
		return "size"
	case ErrType:
		return "type"
	default:
		return "unknown"
	}
}

func newFieldError(path string, kind error, message string) *FieldError {
	return &FieldError{Path: path, Kind: kind, Message: message}
}

// ValidationErrors maps field paths to the failures collected for them.
type ValidationErrors struct {
	fields map[string][]*FieldError
}

func (v *ValidationErrors) add(fe *FieldError) {
	if v.fields == nil {
		v.fields = make(map[string][]*FieldError)
	}
	v.fields[fe.Path] = append(v.fields[fe.Path], fe)
}

// Empty reports whether no failures were collected.
func (v *ValidationErrors) Empty() bool {
	return v == nil || len(v.fields) == 0
}

// Paths returns the failing field paths in sorted order.
func (v *ValidationErrors) Paths() []string {
	if v == nil {
		return nil
	}
	paths := make([]string, 0, len(v.fields))
	for p := range v.fields {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// Get returns the failures for a single path.
func (v *ValidationErrors) Get(path string) []*FieldError {
	if v == nil {
		return nil
	}
	return v.fields[path]
}

// Messages returns the human-readable messages for a single path.
func (v *ValidationErrors) Messages(path string) []string {
	errs := v.Get(path)
	msgs := make([]string, 0, len(errs))
	for _, fe := range errs {
		msgs = append(msgs, fe.Message)
	}
	return msgs
}

// All returns every failure ordered by path.
func (v *ValidationErrors) All() []*FieldError {
	var all []*FieldError
	for _, p := range v.Paths() {
		all = append(all, v.fields[p]...)
	}
	return all
}

// Has reports whether the path failed with the given kind.
func (v *ValidationErrors) Has(path string, kind error) bool {
	for _, fe := range v.Get(path) {
		if errors.Is(fe, kind) {
			return true
		}
	}
	return false
}

func (v *ValidationErrors) Error() string {
	all := v.All()
	parts := make([]string, 0, len(all))
	for _, fe := range all {
		parts = append(parts, fe.Error())
	}
	return "validation failed: " + strings.Join(parts, "; ")
}
