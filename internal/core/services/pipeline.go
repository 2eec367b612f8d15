// Package services holds the pipeline orchestration: the incremental
// crawl-merge-index run and the merge engine it is built on.
package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/custodia-labs/ghindex/internal/core/domain"
	"github.com/custodia-labs/ghindex/internal/logger"
)

// SourceFetcher retrieves fresh documents from the remote API.
// Both methods honour the same cutoff and cap semantics: a nil since
// fetches everything, a max greater than zero is a hard result cap.
type SourceFetcher interface {
	FetchIssues(ctx context.Context, since *time.Time, max int) ([]domain.Document, error)
	FetchDiscussions(ctx context.Context, since *time.Time, max int) ([]domain.Document, error)
}

// CorpusStore persists the merge basis between runs.
type CorpusStore interface {
	Load() domain.Corpus
	Save(domain.Corpus) error
}

// StateStore persists the run state between runs.
type StateStore interface {
	Load() domain.PipelineState
	Save(domain.PipelineState) error
}

// Seeder supplies a prior corpus when the local cache is empty.
type Seeder interface {
	Fetch(ctx context.Context) domain.Corpus
}

// Builder writes the output artifacts for a merged corpus and returns
// the slimmed documents to persist as the next merge basis.
type Builder func(outDir string, corpus domain.Corpus) ([]domain.Document, error)

// Options configure one pipeline run.
type Options struct {
	// OutDir receives the metadata and index artifacts.
	OutDir string

	// Full forces a non-incremental run, ignoring the cached cutoff.
	Full bool

	// Max caps the items fetched per source. Zero means no cap.
	Max int
}

// Summary reports what a successful run did.
type Summary struct {
	Prior       int
	Issues      int
	Discussions int
	Merged      int
	Since       *time.Time
}

// Pipeline coordinates one crawl-merge-index run. The two fetchers run
// concurrently and share no mutable state; a failure in either aborts
// the run before any output is written.
type Pipeline struct {
	fetcher     SourceFetcher
	corpusStore CorpusStore
	stateStore  StateStore
	seeder      Seeder
	build       Builder
	now         func() time.Time
}

// NewPipeline creates a pipeline. seeder may be nil to disable
// cold-start seeding.
func NewPipeline(
	fetcher SourceFetcher,
	corpusStore CorpusStore,
	stateStore StateStore,
	seeder Seeder,
	build Builder,
) *Pipeline {
	return &Pipeline{
		fetcher:     fetcher,
		corpusStore: corpusStore,
		stateStore:  stateStore,
		seeder:      seeder,
		build:       build,
		now:         time.Now,
	}
}

// Run executes one batch run to completion. Outputs and cached state
// are only written after both fetches and the merge succeed.
func (p *Pipeline) Run(ctx context.Context, opts Options) (Summary, error) {
	state := p.stateStore.Load()

	var since *time.Time
	if !opts.Full && state.HasSince() {
		t := state.Since.UTC()
		since = &t
	}

	// Prior documents: cache first, then published snapshot fallback.
	prior := p.corpusStore.Load()
	if len(prior) == 0 && p.seeder != nil {
		prior = p.seeder.Fetch(ctx)
	}
	logger.Info("prior corpus: %d documents, since=%s", len(prior), formatCutoff(since))

	issues, discussions, err := p.fetchBoth(ctx, since, opts.Max)
	if err != nil {
		return Summary{}, err
	}
	logger.Info("fetched: %d issues, %d discussions", len(issues), len(discussions))

	fresh := make([]domain.Document, 0, len(issues)+len(discussions))
	fresh = append(fresh, issues...)
	fresh = append(fresh, discussions...)

	merged := Merge(prior, fresh, since != nil)
	logger.Info("merged: %d documents", len(merged))

	slimmed, err := p.build(opts.OutDir, merged)
	if err != nil {
		return Summary{}, fmt.Errorf("build outputs: %w", err)
	}

	// Persist the slimmed snapshot as the next run's merge basis.
	next := make(domain.Corpus, len(slimmed))
	for _, d := range slimmed {
		next[d.ID] = d
	}
	if err := p.corpusStore.Save(next); err != nil {
		return Summary{}, fmt.Errorf("save corpus: %w", err)
	}

	// Advance the cutoff to the newest observed update; an empty run
	// leaves it untouched.
	if latest := next.LatestUpdate(); !latest.IsZero() {
		latest = latest.UTC()
		state.Since = &latest
	}
	runTime := p.now().UTC()
	state.LastRun = &runTime
	if err := p.stateStore.Save(state); err != nil {
		return Summary{}, fmt.Errorf("save state: %w", err)
	}

	return Summary{
		Prior:       len(prior),
		Issues:      len(issues),
		Discussions: len(discussions),
		Merged:      len(merged),
		Since:       state.Since,
	}, nil
}

// fetchBoth runs the two fetchers concurrently and waits for both.
// Either failure fails the run; there is no partial-success path.
func (p *Pipeline) fetchBoth(
	ctx context.Context, since *time.Time, max int,
) (issues, discussions []domain.Document, err error) {
	var wg sync.WaitGroup
	var issuesErr, discussionsErr error

	wg.Add(2)
	go func() {
		defer wg.Done()
		issues, issuesErr = p.fetcher.FetchIssues(ctx, since, max)
	}()
	go func() {
		defer wg.Done()
		discussions, discussionsErr = p.fetcher.FetchDiscussions(ctx, since, max)
	}()
	wg.Wait()

	if issuesErr != nil {
		return nil, nil, fmt.Errorf("fetch issues: %w", issuesErr)
	}
	if discussionsErr != nil {
		return nil, nil, fmt.Errorf("fetch discussions: %w", discussionsErr)
	}
	return issues, discussions, nil
}

func formatCutoff(since *time.Time) string {
	if since == nil {
		return "none"
	}
	return since.Format(time.RFC3339)
}
