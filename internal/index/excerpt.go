// Package index turns the merged corpus into the two published
// artifacts: the slimmed metadata collection and the lexical search
// index over title, excerpt and labels.
package index

import (
	"regexp"
	"strings"

	"github.com/custodia-labs/ghindex/internal/core/domain"
)

// ExcerptLength is the maximum excerpt length in runes.
const ExcerptLength = 400

var whitespaceRE = regexp.MustCompile(`\s+`)

// Excerpt collapses whitespace runs to single spaces, trims, and
// truncates to ExcerptLength runes.
func Excerpt(text string) string {
	text = strings.TrimSpace(whitespaceRE.ReplaceAllString(text, " "))
	runes := []rune(text)
	if len(runes) > ExcerptLength {
		runes = runes[:ExcerptLength]
	}
	return string(runes)
}

// Slim replaces the document's raw body with its excerpt. A document
// with no body (carried forward from a previous run, where the body was
// already dropped) keeps its persisted excerpt.
func Slim(doc domain.Document) domain.Document {
	if doc.Body != "" {
		doc.Excerpt = Excerpt(doc.Body)
	}
	doc.Body = ""
	return doc
}
