/*
errors.go - Error types for the tax package

ERROR CATEGORIES:
  1. Input errors - Rejected at the boundary (negative or missing base)
  2. Parse errors - Unknown kind or category names
  3. Table errors - Malformed rate tables

Unknown state or activity codes are NOT errors. Lookups default to zero.

USAGE:
  if errors.Is(err, tax.ErrInvalidInput) {
      // report to caller
  }
*/
package tax

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrInvalidInput is returned when a calculation context fails validation.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnknownKind is returned when a tax kind name is not recognized.
	ErrUnknownKind = errors.New("unknown tax kind")

	// ErrUnknownCategory is returned when a category name is not recognized.
	ErrUnknownCategory = errors.New("unknown category")

	// ErrInvalidTables is returned when rate tables are malformed.
	ErrInvalidTables = errors.New("invalid rate tables")
)

// =============================================================================
// STRUCTURED ERRORS
// =============================================================================

// InvalidInputError describes which field of a request was rejected.
type InvalidInputError struct {
	Field  string
	Value  string
	Reason string
}

func (e *InvalidInputError) Error() string {
	if e.Value == "" {
		return fmt.Sprintf("invalid input: %s %s", e.Field, e.Reason)
	}
	return fmt.Sprintf("invalid input: %s %q %s", e.Field, e.Value, e.Reason)
}

func (e *InvalidInputError) Unwrap() error {
	return ErrInvalidInput
}

// IsClientError returns true if the error is due to invalid caller input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInvalidInput) ||
		errors.Is(err, ErrUnknownKind) ||
		errors.Is(err, ErrUnknownCategory)
}
