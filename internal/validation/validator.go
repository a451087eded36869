package validation

import (
	validatorv10 "github.com/go-playground/validator/v10"
)

// New returns a validator configured for request structs.
func New() *validatorv10.Validate {
	return validatorv10.New()
}
