package github

import (
	"errors"
	"fmt"

	gh "github.com/google/go-github/v68/github"

	"github.com/custodia-labs/ghindex/internal/core/domain"
)

// wrapError converts go-github errors to the pipeline's error types.
func wrapError(err error, operation string) error {
	if err == nil {
		return nil
	}

	var ghErr *gh.ErrorResponse
	if errors.As(err, &ghErr) && ghErr.Response != nil {
		fe := &domain.FetchError{StatusCode: ghErr.Response.StatusCode}
		if ghErr.Response.Request != nil && ghErr.Response.Request.URL != nil {
			fe.URL = ghErr.Response.Request.URL.String()
		}
		return fe
	}

	// Rate limit responses that survived the retry transport mean the
	// retries were exhausted.
	var rateErr *gh.RateLimitError
	if errors.As(err, &rateErr) {
		return &domain.FetchError{StatusCode: 429, Attempts: MaxAttempts}
	}
	var abuseErr *gh.AbuseRateLimitError
	if errors.As(err, &abuseErr) {
		return &domain.FetchError{StatusCode: 429, Attempts: MaxAttempts}
	}

	return fmt.Errorf("%s: %w", operation, err)
}

// IsNotFound checks if the error indicates a missing repository.
func IsNotFound(err error) bool {
	var fe *domain.FetchError
	return errors.As(err, &fe) && fe.StatusCode == 404
}
