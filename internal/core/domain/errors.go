package domain

import (
	"errors"
	"fmt"
)

// Domain errors represent pipeline failures.
// These are distinct from infrastructure errors.
var (
	// ErrMissingToken indicates the GH_TOKEN credential is not set.
	// This is a fatal configuration error.
	ErrMissingToken = errors.New("GH_TOKEN env var required (PAT or GITHUB_TOKEN)")

	// ErrInvalidRepo indicates the repository slug is not owner/name.
	ErrInvalidRepo = errors.New("repository must be in owner/name form")

	// ErrMalformedRecord indicates a source record is missing required
	// fields. This should not occur against a well-formed API response.
	ErrMalformedRecord = errors.New("malformed source record")
)

// FetchError is a non-retryable API failure or exhausted retries.
// The run aborts and no output files are touched.
type FetchError struct {
	StatusCode int
	URL        string
	Attempts   int
}

func (e *FetchError) Error() string {
	if e.Attempts > 1 {
		return fmt.Sprintf("fetch failed with status %d after %d attempts: %s", e.StatusCode, e.Attempts, e.URL)
	}
	return fmt.Sprintf("fetch failed with status %d: %s", e.StatusCode, e.URL)
}

// NormalizationError wraps ErrMalformedRecord with the offending field.
type NormalizationError struct {
	Field string
	ID    string
}

func (e *NormalizationError) Error() string {
	return fmt.Sprintf("%v: missing %s (id=%s)", ErrMalformedRecord, e.Field, e.ID)
}

func (e *NormalizationError) Unwrap() error {
	return ErrMalformedRecord
}

// IsFetchError checks if the error is an API fetch failure.
func IsFetchError(err error) bool {
	var fe *FetchError
	return errors.As(err, &fe)
}
