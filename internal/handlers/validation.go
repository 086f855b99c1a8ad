package handlers

import (
	"github.com/formsnap/signup-api/internal/form"
	"github.com/formsnap/signup-api/internal/models"
)

// FormValidationErrors flattens form errors in field path order
func FormValidationErrors(verrs *form.ValidationErrors) []models.ValidationError {
	all := verrs.All()
	errs := make([]models.ValidationError, 0, len(all))
	for _, fe := range all {
		errs = append(errs, models.ValidationError{
			Field:   fe.Path,
			Kind:    fe.KindName(),
			Message: fe.Message,
		})
	}
	return errs
}
