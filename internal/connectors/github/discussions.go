package github

import (
	"context"
	"fmt"
	"time"

	"github.com/shurcooL/githubv4"

	"github.com/custodia-labs/ghindex/internal/core/domain"
	"github.com/custodia-labs/ghindex/internal/logger"
)

// discussionNode is the GraphQL selection for one discussion.
type discussionNode struct {
	ID        string
	Number    int
	Title     string
	URL       string
	UpdatedAt time.Time
	BodyText  string
}

// FetchDiscussions retrieves discussions via cursor pagination, most
// recently updated first. The discussions connection has no server-side
// since filter, so with a non-nil cutoff the walk stops entirely at the
// first record strictly older than it: by the DESC ordering everything
// after is older too. A max greater than zero caps the result the same
// way FetchIssues does.
func FetchDiscussions(
	ctx context.Context, client *Client, owner, name string, since *time.Time, max int,
) ([]domain.Document, error) {
	var query struct {
		Repository struct {
			Discussions struct {
				Nodes    []discussionNode
				PageInfo struct {
					EndCursor   githubv4.String
					HasNextPage bool
				}
			} `graphql:"discussions(first: 100, after: $cursor, orderBy: $orderBy)"`
		} `graphql:"repository(owner: $owner, name: $name)"`
	}

	variables := map[string]interface{}{
		"owner":  githubv4.String(owner),
		"name":   githubv4.String(name),
		"cursor": (*githubv4.String)(nil),
		"orderBy": githubv4.DiscussionOrder{
			Field:     githubv4.DiscussionOrderFieldUpdatedAt,
			Direction: githubv4.OrderDirectionDesc,
		},
	}

	docs := make([]domain.Document, 0)
	page := 1

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		if err := client.graphql.Query(ctx, &query, variables); err != nil {
			return nil, fmt.Errorf("query discussions: %w", err)
		}

		logger.Debug("discussions page %d: %d records", page, len(query.Repository.Discussions.Nodes))

		for _, node := range query.Repository.Discussions.Nodes {
			// Ordered by updatedAt DESC: the first record older than the
			// cutoff means every remaining one is older as well.
			if since != nil && node.UpdatedAt.Before(*since) {
				return docs, nil
			}

			doc, err := NormalizeDiscussion(node)
			if err != nil {
				return nil, err
			}
			docs = append(docs, doc)

			if max > 0 && len(docs) >= max {
				return docs, nil
			}
		}

		if !query.Repository.Discussions.PageInfo.HasNextPage {
			break
		}
		variables["cursor"] = githubv4.NewString(query.Repository.Discussions.PageInfo.EndCursor)
		page++
	}

	return docs, nil
}

// NormalizeDiscussion maps a GraphQL discussion node onto the Document
// shape. Discussions carry no labels.
func NormalizeDiscussion(node discussionNode) (domain.Document, error) {
	switch {
	case node.ID == "":
		return domain.Document{}, &domain.NormalizationError{Field: "id"}
	case node.Title == "":
		return domain.Document{}, &domain.NormalizationError{Field: "title", ID: domain.DiscussionID(node.ID)}
	case node.URL == "":
		return domain.Document{}, &domain.NormalizationError{Field: "url", ID: domain.DiscussionID(node.ID)}
	case node.UpdatedAt.IsZero():
		return domain.Document{}, &domain.NormalizationError{Field: "updatedAt", ID: domain.DiscussionID(node.ID)}
	}

	return domain.Document{
		ID:        domain.DiscussionID(node.ID),
		Type:      domain.TypeDiscussion,
		Number:    node.Number,
		Title:     node.Title,
		URL:       node.URL,
		Labels:    []string{},
		UpdatedAt: node.UpdatedAt.UTC(),
		Body:      node.BodyText,
	}, nil
}
