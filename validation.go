package logmerge

import (
	"fmt"

	"github.com/creastat/logmerge/core"
)

// ValidationError represents a validation error with context
type ValidationError struct {
	Message string
	Details string
}

func (e ValidationError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s", e.Message, e.Details)
	}
	return e.Message
}

// validateMerge rejects nil sources and a nil printer before any pull happens
func validateMerge[S any](sources []S, printer core.Printer) error {
	if printer == nil {
		return ValidationError{
			Message: "merge validation failed",
			Details: "printer is nil",
		}
	}

	for i, source := range sources {
		if any(source) == nil {
			return ValidationError{
				Message: "merge validation failed",
				Details: fmt.Sprintf("source %d is nil", i),
			}
		}
	}

	return nil
}
