package domain

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// DocType identifies the kind of source record a document came from.
type DocType string

const (
	// TypeIssue is a repository issue.
	TypeIssue DocType = "issue"

	// TypePullRequest is a pull request.
	TypePullRequest DocType = "pr"

	// TypeDiscussion is a repository discussion.
	TypeDiscussion DocType = "discussion"
)

// Document is the canonical representation of one indexable item.
// It is the unit of merging and indexing; ID is the sole merge key.
type Document struct {
	// ID is the type-prefixed source identifier, unique within a
	// repository's corpus ("I123" / "P123" / "D<node-id>").
	ID string `json:"id"`

	// Type is the source record kind.
	Type DocType `json:"type"`

	// Number is the human-facing sequence number. Not unique across types.
	Number int `json:"number"`

	// Title is the item title.
	Title string `json:"title"`

	// URL is the canonical link to the source item.
	URL string `json:"url"`

	// Labels are the item's label names. Empty for discussions.
	Labels []string `json:"labels"`

	// UpdatedAt orders documents and drives cutoff comparisons.
	UpdatedAt time.Time `json:"updated_at"`

	// Body is the raw text content. It only exists between fetch and
	// index build; the build step replaces it with Excerpt and it is
	// never persisted.
	Body string `json:"-"`

	// Excerpt is the whitespace-normalised, bounded prefix of Body.
	Excerpt string `json:"excerpt"`
}

// Corpus is the full mapping from document ID to Document, persisted
// as the merge basis for the next run.
type Corpus map[string]Document

// Documents returns the corpus values sorted by ID. Sorting keeps
// serialised output stable across runs.
func (c Corpus) Documents() []Document {
	docs := make([]Document, 0, len(c))
	for _, d := range c {
		docs = append(docs, d)
	}
	sort.Slice(docs, func(i, j int) bool { return docs[i].ID < docs[j].ID })
	return docs
}

// LatestUpdate returns the maximum UpdatedAt across the corpus, or the
// zero time if the corpus is empty.
func (c Corpus) LatestUpdate() time.Time {
	var latest time.Time
	for _, d := range c {
		if d.UpdatedAt.After(latest) {
			latest = d.UpdatedAt
		}
	}
	return latest
}

// IssueID builds the document ID for an issue by its source id.
func IssueID(id int64) string {
	return fmt.Sprintf("I%d", id)
}

// PullRequestID builds the document ID for a pull request by its source id.
func PullRequestID(id int64) string {
	return fmt.Sprintf("P%d", id)
}

// DiscussionID builds the document ID for a discussion node.
func DiscussionID(nodeID string) string {
	return "D" + nodeID
}

// LabelText renders labels as a single space-joined string for indexing.
func LabelText(labels []string) string {
	return strings.Join(labels, " ")
}
