package app

import (
	"fmt"
	"strings"

	"quizflow-service/internal/domain"
	"quizflow-service/internal/flow"
)

// ValidationError is returned by PublishVersion when the validator reports
// errors. It matches domain.ErrValidationFailed with errors.Is.
type ValidationError struct {
	Result flow.ValidationResult
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%v: %s", domain.ErrValidationFailed, strings.Join(e.Result.Errors, "; "))
}

func (e *ValidationError) Unwrap() error {
	return domain.ErrValidationFailed
}
