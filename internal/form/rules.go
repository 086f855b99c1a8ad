package form

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
)

// Rule is a single validation or transform step. A rule returns the
// (possibly transformed) value, or an error that stops the field's pipeline.
type Rule[T any] func(T) (T, error)

// Apply runs rules left to right and stops at the first failure.
func Apply[T any](value T, rules ...Rule[T]) (T, error) {
	for _, rule := range rules {
		next, err := rule(value)
		if err != nil {
			return value, err
		}
		value = next
	}
	return value, nil
}

var validate = validator.New()

// Required fails when the value is empty or only whitespace.
func Required(path, message string) Rule[string] {
	return func(v string) (string, error) {
		if strings.TrimSpace(v) == "" {
			return v, newFieldError(path, ErrRequired, message)
		}
		return v, nil
	}
}

// Email fails when the value is not a syntactically valid address.
func Email(path, message string) Rule[string] {
	return func(v string) (string, error) {
		if err := validate.Var(v, "email"); err != nil {
			return v, newFieldError(path, ErrFormat, message)
		}
		return v, nil
	}
}

// Lowercase canonicalizes the value to lower case.
func Lowercase() Rule[string] {
	return func(v string) (string, error) {
		return strings.ToLower(v), nil
	}
}

// Trim removes leading and trailing whitespace.
func Trim() Rule[string] {
	return func(v string) (string, error) {
		return strings.TrimSpace(v), nil
	}
}

// HasSuffix fails when the value does not end with suffix.
func HasSuffix(path, suffix, message string) Rule[string] {
	return func(v string) (string, error) {
		if !strings.HasSuffix(v, suffix) {
			return v, newFieldError(path, ErrDomain, message)
		}
		return v, nil
	}
}

// MinLength fails when the value has fewer than n characters.
func MinLength(path string, n int, message string) Rule[string] {
	return func(v string) (string, error) {
		if utf8.RuneCountInString(v) < n {
			return v, newFieldError(path, ErrLength, message)
		}
		return v, nil
	}
}

// CapitalizeWords upper-cases the first character of every space-separated word
// and leaves the rest of each word unchanged.
func CapitalizeWords() Rule[string] {
	return func(v string) (string, error) {
		return capitalizeWords(v), nil
	}
}

func capitalizeWords(s string) string {
	words := strings.Split(s, " ")
	for i, w := range words {
		r, size := utf8.DecodeRuneInString(w)
		if size == 0 || r == utf8.RuneError {
			continue
		}
		words[i] = string(unicode.ToUpper(r)) + w[size:]
	}
	return strings.Join(words, " ")
}

// MaxFileSize fails when the file is larger than max bytes.
func MaxFileSize(path string, max int64, message string) Rule[*File] {
	return func(f *File) (*File, error) {
		if f.Size > max {
			return f, newFieldError(path, ErrSize, message)
		}
		return f, nil
	}
}

// AcceptedTypes fails when the file's declared MIME type is not in types.
// Comparison is case-insensitive.
func AcceptedTypes(path string, types []string, message string) Rule[*File] {
	allowed := make(map[string]bool, len(types))
	for _, t := range types {
		allowed[strings.ToLower(t)] = true
	}
	return func(f *File) (*File, error) {
		if !allowed[strings.ToLower(strings.TrimSpace(f.ContentType))] {
			return f, newFieldError(path, ErrType, message)
		}
		return f, nil
	}
}

// PasswordStrong is the advisory strength check shown next to the password
// input. It never affects validity.
func PasswordStrong(p string) bool {
	var lower, upper, digit, symbol bool
	for _, r := range p {
		switch {
		case r >= 'a' && r <= 'z':
			lower = true
		case r >= 'A' && r <= 'Z':
			upper = true
		case r >= '0' && r <= '9':
			digit = true
		default:
			symbol = true
		}
	}
	return lower && upper && digit && symbol && utf8.RuneCountInString(p) >= 8
}
