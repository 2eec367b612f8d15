package github

import (
	"context"
	"time"

	gh "github.com/google/go-github/v68/github"

	"github.com/custodia-labs/ghindex/internal/core/domain"
	"github.com/custodia-labs/ghindex/internal/logger"
)

// PageSize is the number of records requested per page.
const PageSize = 100

// FetchIssues retrieves issues from a repository, most recently updated
// first, excluding pull requests. A non-nil since constrains the
// listing server-side to items updated at or after the cutoff. A max
// greater than zero is a hard cap: fetching stops mid-page as soon as
// the running total reaches it.
func FetchIssues(
	ctx context.Context, client *Client, owner, name string, since *time.Time, max int,
) ([]domain.Document, error) {
	opts := &gh.IssueListByRepoOptions{
		State:     "all",
		Sort:      "updated",
		Direction: "desc",
		ListOptions: gh.ListOptions{
			PerPage: PageSize,
		},
	}
	if since != nil {
		opts.Since = *since
	}

	docs := make([]domain.Document, 0)

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		issues, resp, err := client.rest.Issues.ListByRepo(ctx, owner, name, opts)
		if err != nil {
			return nil, wrapError(err, "list issues")
		}
		if len(issues) == 0 {
			break
		}

		logger.Debug("issues page %d: %d records", opts.Page, len(issues))

		for _, issue := range issues {
			// Pull requests show up in the issues endpoint too.
			if issue.IsPullRequest() {
				continue
			}

			doc, err := NormalizeIssue(issue)
			if err != nil {
				return nil, err
			}
			docs = append(docs, doc)

			if max > 0 && len(docs) >= max {
				return docs, nil
			}
		}

		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	return docs, nil
}

// NormalizeIssue maps a REST issue record onto the Document shape.
// Records that lack the identity or timestamp fields are rejected.
func NormalizeIssue(issue *gh.Issue) (domain.Document, error) {
	switch {
	case issue.ID == nil:
		return domain.Document{}, &domain.NormalizationError{Field: "id"}
	case issue.Number == nil:
		return domain.Document{}, &domain.NormalizationError{Field: "number", ID: domain.IssueID(issue.GetID())}
	case issue.Title == nil:
		return domain.Document{}, &domain.NormalizationError{Field: "title", ID: domain.IssueID(issue.GetID())}
	case issue.HTMLURL == nil:
		return domain.Document{}, &domain.NormalizationError{Field: "html_url", ID: domain.IssueID(issue.GetID())}
	case issue.UpdatedAt == nil:
		return domain.Document{}, &domain.NormalizationError{Field: "updated_at", ID: domain.IssueID(issue.GetID())}
	}

	id := domain.IssueID(issue.GetID())
	docType := domain.TypeIssue
	if issue.IsPullRequest() {
		id = domain.PullRequestID(issue.GetID())
		docType = domain.TypePullRequest
	}

	labels := make([]string, 0, len(issue.Labels))
	for _, l := range issue.Labels {
		labels = append(labels, l.GetName())
	}

	return domain.Document{
		ID:        id,
		Type:      docType,
		Number:    issue.GetNumber(),
		Title:     issue.GetTitle(),
		URL:       issue.GetHTMLURL(),
		Labels:    labels,
		UpdatedAt: issue.GetUpdatedAt().Time.UTC(),
		Body:      issue.GetBody(),
	}, nil
}
