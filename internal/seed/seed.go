// Package seed provides cold-start corpus seeding from a previously
// published snapshot, so the first run on a fresh machine does not have
// to be a full crawl.
package seed

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/custodia-labs/ghindex/internal/core/domain"
	"github.com/custodia-labs/ghindex/internal/logger"
)

// Timeout bounds the snapshot request. Seeding is best effort and must
// not stall the pipeline.
const Timeout = 10 * time.Second

// SnapshotURL is the well-known location of the last published
// metadata collection for a repository.
func SnapshotURL(repoSlug string) string {
	return fmt.Sprintf("https://raw.githubusercontent.com/%s/gh-pages/latest/%s", repoSlug, "github-docs.json")
}

// Fetcher loads a published corpus snapshot over HTTP.
type Fetcher struct {
	client *http.Client
	url    string
}

// NewFetcher creates a seed fetcher for url. The client should share
// the pipeline's retrying transport.
func NewFetcher(client *http.Client, url string) *Fetcher {
	return &Fetcher{client: client, url: url}
}

// Fetch downloads and parses the snapshot. Every failure mode returns
// an empty corpus: a missing snapshot is a normal cold start.
func (f *Fetcher) Fetch(ctx context.Context) domain.Corpus {
	ctx, cancel := context.WithTimeout(ctx, Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.url, nil)
	if err != nil {
		return domain.Corpus{}
	}

	resp, err := f.client.Do(req)
	if err != nil {
		logger.Debug("seed fetch failed: %v", err)
		return domain.Corpus{}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		logger.Debug("seed fetch: status %d from %s", resp.StatusCode, f.url)
		return domain.Corpus{}
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return domain.Corpus{}
	}

	var docs []domain.Document
	if err := json.Unmarshal(data, &docs); err != nil {
		logger.Warn("seed snapshot is not valid JSON: %v", err)
		return domain.Corpus{}
	}

	corpus := make(domain.Corpus, len(docs))
	for _, d := range docs {
		corpus[d.ID] = d
	}
	logger.Info("seeded %d documents from %s", len(corpus), f.url)
	return corpus
}
