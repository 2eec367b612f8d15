package github

import (
	"context"
	"strings"
	"time"

	"github.com/custodia-labs/ghindex/internal/core/domain"
)

// ParseRepo splits an owner/name slug.
func ParseRepo(slug string) (owner, name string, err error) {
	owner, name, ok := strings.Cut(slug, "/")
	if !ok || owner == "" || name == "" || strings.Contains(name, "/") {
		return "", "", domain.ErrInvalidRepo
	}
	return owner, name, nil
}

// Source binds a client to one repository and satisfies the pipeline's
// fetch contract.
type Source struct {
	client *Client
	owner  string
	name   string
}

// NewSource creates a fetch source for owner/name.
func NewSource(client *Client, owner, name string) *Source {
	return &Source{client: client, owner: owner, name: name}
}

// FetchIssues implements services.SourceFetcher.
func (s *Source) FetchIssues(ctx context.Context, since *time.Time, max int) ([]domain.Document, error) {
	return FetchIssues(ctx, s.client, s.owner, s.name, since, max)
}

// FetchDiscussions implements services.SourceFetcher.
func (s *Source) FetchDiscussions(ctx context.Context, since *time.Time, max int) ([]domain.Document, error) {
	return FetchDiscussions(ctx, s.client, s.owner, s.name, since, max)
}
