package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/ghindex/internal/core/domain"
)

type fakeFetcher struct {
	issues         []domain.Document
	discussions    []domain.Document
	issuesErr      error
	discussionsErr error

	issuesSince      *time.Time
	discussionsSince *time.Time
	issuesMax        int
}

func (f *fakeFetcher) FetchIssues(_ context.Context, since *time.Time, max int) ([]domain.Document, error) {
	f.issuesSince = since
	f.issuesMax = max
	return f.issues, f.issuesErr
}

func (f *fakeFetcher) FetchDiscussions(_ context.Context, since *time.Time, _ int) ([]domain.Document, error) {
	f.discussionsSince = since
	return f.discussions, f.discussionsErr
}

type fakeCorpusStore struct {
	corpus  domain.Corpus
	saved   *domain.Corpus
	saveErr error
}

func (s *fakeCorpusStore) Load() domain.Corpus { return s.corpus }

func (s *fakeCorpusStore) Save(c domain.Corpus) error {
	if s.saveErr != nil {
		return s.saveErr
	}
	s.saved = &c
	return nil
}

type fakeStateStore struct {
	state domain.PipelineState
	saved *domain.PipelineState
}

func (s *fakeStateStore) Load() domain.PipelineState { return s.state }

func (s *fakeStateStore) Save(st domain.PipelineState) error {
	s.saved = &st
	return nil
}

type fakeSeeder struct {
	corpus domain.Corpus
	called bool
}

func (s *fakeSeeder) Fetch(context.Context) domain.Corpus {
	s.called = true
	return s.corpus
}

// passBuilder records the built corpus and returns its documents as the
// next merge basis, with bodies dropped the way the real builder does.
type passBuilder struct {
	outDir string
	corpus domain.Corpus
	err    error
	calls  int
}

func (b *passBuilder) build(outDir string, corpus domain.Corpus) ([]domain.Document, error) {
	b.calls++
	if b.err != nil {
		return nil, b.err
	}
	b.outDir = outDir
	b.corpus = corpus
	docs := corpus.Documents()
	for i := range docs {
		docs[i].Body = ""
	}
	return docs, nil
}

func mustTime(t *testing.T, value string) time.Time {
	t.Helper()
	parsed, err := time.Parse(time.RFC3339, value)
	require.NoError(t, err)
	return parsed
}

func newTestPipeline(
	fetcher *fakeFetcher,
	corpusStore *fakeCorpusStore,
	stateStore *fakeStateStore,
	seeder Seeder,
	builder *passBuilder,
) *Pipeline {
	p := NewPipeline(fetcher, corpusStore, stateStore, seeder, builder.build)
	p.now = func() time.Time { return time.Date(2024, 7, 1, 12, 0, 0, 0, time.UTC) }
	return p
}

func TestPipelineRun(t *testing.T) {
	t.Run("incremental run merges fresh over cached prior", func(t *testing.T) {
		since := mustTime(t, "2024-02-01T00:00:00Z")
		fetcher := &fakeFetcher{
			discussions: []domain.Document{doc("D9", "2024-06-01T00:00:00Z")},
		}
		corpusStore := &fakeCorpusStore{corpus: domain.Corpus{
			"I1": doc("I1", "2024-01-01T00:00:00Z"),
		}}
		stateStore := &fakeStateStore{state: domain.PipelineState{Since: &since}}
		builder := &passBuilder{}

		summary, err := newTestPipeline(fetcher, corpusStore, stateStore, nil, builder).
			Run(context.Background(), Options{OutDir: "out"})

		require.NoError(t, err)
		assert.Equal(t, 1, summary.Prior)
		assert.Equal(t, 0, summary.Issues)
		assert.Equal(t, 1, summary.Discussions)
		assert.Equal(t, 2, summary.Merged)

		require.NotNil(t, fetcher.issuesSince)
		assert.Equal(t, since, *fetcher.issuesSince)
		require.NotNil(t, fetcher.discussionsSince)

		assert.Equal(t, "out", builder.outDir)
		require.NotNil(t, corpusStore.saved)
		assert.Contains(t, *corpusStore.saved, "I1")
		assert.Contains(t, *corpusStore.saved, "D9")
	})

	t.Run("full run ignores the cached cutoff and replaces the corpus", func(t *testing.T) {
		since := mustTime(t, "2024-02-01T00:00:00Z")
		fetcher := &fakeFetcher{
			issues: []domain.Document{doc("I2", "2024-05-01T00:00:00Z")},
		}
		corpusStore := &fakeCorpusStore{corpus: domain.Corpus{
			"I1": doc("I1", "2024-01-01T00:00:00Z"),
		}}
		stateStore := &fakeStateStore{state: domain.PipelineState{Since: &since}}
		builder := &passBuilder{}

		summary, err := newTestPipeline(fetcher, corpusStore, stateStore, nil, builder).
			Run(context.Background(), Options{OutDir: "out", Full: true})

		require.NoError(t, err)
		assert.Nil(t, fetcher.issuesSince)
		assert.Equal(t, 1, summary.Merged)
		require.NotNil(t, corpusStore.saved)
		assert.NotContains(t, *corpusStore.saved, "I1")
		assert.Contains(t, *corpusStore.saved, "I2")
	})

	t.Run("first run with no state fetches everything", func(t *testing.T) {
		fetcher := &fakeFetcher{
			issues: []domain.Document{doc("I1", "2024-01-01T00:00:00Z")},
		}
		builder := &passBuilder{}

		_, err := newTestPipeline(fetcher, &fakeCorpusStore{}, &fakeStateStore{}, nil, builder).
			Run(context.Background(), Options{OutDir: "out"})

		require.NoError(t, err)
		assert.Nil(t, fetcher.issuesSince)
	})

	t.Run("cutoff advances to the newest merged update", func(t *testing.T) {
		since := mustTime(t, "2024-02-01T00:00:00Z")
		fetcher := &fakeFetcher{
			issues:      []domain.Document{doc("I2", "2024-05-01T00:00:00Z")},
			discussions: []domain.Document{doc("D9", "2024-06-01T00:00:00Z")},
		}
		corpusStore := &fakeCorpusStore{corpus: domain.Corpus{
			"I1": doc("I1", "2024-01-01T00:00:00Z"),
		}}
		stateStore := &fakeStateStore{state: domain.PipelineState{Since: &since}}
		builder := &passBuilder{}

		_, err := newTestPipeline(fetcher, corpusStore, stateStore, nil, builder).
			Run(context.Background(), Options{OutDir: "out"})

		require.NoError(t, err)
		require.NotNil(t, stateStore.saved)
		require.NotNil(t, stateStore.saved.Since)
		assert.Equal(t, mustTime(t, "2024-06-01T00:00:00Z"), *stateStore.saved.Since)
		require.NotNil(t, stateStore.saved.LastRun)
	})

	t.Run("empty merged corpus leaves the cutoff unchanged", func(t *testing.T) {
		since := mustTime(t, "2024-02-01T00:00:00Z")
		fetcher := &fakeFetcher{}
		stateStore := &fakeStateStore{state: domain.PipelineState{Since: &since}}
		builder := &passBuilder{}

		_, err := newTestPipeline(fetcher, &fakeCorpusStore{}, stateStore, nil, builder).
			Run(context.Background(), Options{OutDir: "out"})

		require.NoError(t, err)
		require.NotNil(t, stateStore.saved)
		require.NotNil(t, stateStore.saved.Since)
		assert.Equal(t, since, *stateStore.saved.Since)
		require.NotNil(t, stateStore.saved.LastRun)
	})

	t.Run("issue fetch failure aborts before any write", func(t *testing.T) {
		fetcher := &fakeFetcher{issuesErr: errors.New("boom")}
		corpusStore := &fakeCorpusStore{}
		stateStore := &fakeStateStore{}
		builder := &passBuilder{}

		_, err := newTestPipeline(fetcher, corpusStore, stateStore, nil, builder).
			Run(context.Background(), Options{OutDir: "out"})

		require.Error(t, err)
		assert.Contains(t, err.Error(), "fetch issues")
		assert.Zero(t, builder.calls)
		assert.Nil(t, corpusStore.saved)
		assert.Nil(t, stateStore.saved)
	})

	t.Run("discussion fetch failure aborts before any write", func(t *testing.T) {
		fetcher := &fakeFetcher{discussionsErr: errors.New("boom")}
		corpusStore := &fakeCorpusStore{}
		stateStore := &fakeStateStore{}
		builder := &passBuilder{}

		_, err := newTestPipeline(fetcher, corpusStore, stateStore, nil, builder).
			Run(context.Background(), Options{OutDir: "out"})

		require.Error(t, err)
		assert.Contains(t, err.Error(), "fetch discussions")
		assert.Zero(t, builder.calls)
		assert.Nil(t, stateStore.saved)
	})

	t.Run("build failure leaves cache and state untouched", func(t *testing.T) {
		fetcher := &fakeFetcher{
			issues: []domain.Document{doc("I1", "2024-01-01T00:00:00Z")},
		}
		corpusStore := &fakeCorpusStore{}
		stateStore := &fakeStateStore{}
		builder := &passBuilder{err: errors.New("disk full")}

		_, err := newTestPipeline(fetcher, corpusStore, stateStore, nil, builder).
			Run(context.Background(), Options{OutDir: "out"})

		require.Error(t, err)
		assert.Contains(t, err.Error(), "build outputs")
		assert.Nil(t, corpusStore.saved)
		assert.Nil(t, stateStore.saved)
	})

	t.Run("seeds the prior corpus when the cache is empty", func(t *testing.T) {
		fetcher := &fakeFetcher{
			issues: []domain.Document{doc("I2", "2024-05-01T00:00:00Z")},
		}
		seeder := &fakeSeeder{corpus: domain.Corpus{
			"I1": doc("I1", "2024-01-01T00:00:00Z"),
		}}
		since := mustTime(t, "2024-02-01T00:00:00Z")
		stateStore := &fakeStateStore{state: domain.PipelineState{Since: &since}}
		corpusStore := &fakeCorpusStore{}
		builder := &passBuilder{}

		summary, err := newTestPipeline(fetcher, corpusStore, stateStore, seeder, builder).
			Run(context.Background(), Options{OutDir: "out"})

		require.NoError(t, err)
		assert.True(t, seeder.called)
		assert.Equal(t, 1, summary.Prior)
		assert.Equal(t, 2, summary.Merged)
	})

	t.Run("cache wins over the seeder when both exist", func(t *testing.T) {
		fetcher := &fakeFetcher{}
		seeder := &fakeSeeder{corpus: domain.Corpus{
			"I9": doc("I9", "2024-01-01T00:00:00Z"),
		}}
		corpusStore := &fakeCorpusStore{corpus: domain.Corpus{
			"I1": doc("I1", "2024-01-01T00:00:00Z"),
		}}
		builder := &passBuilder{}

		_, err := newTestPipeline(fetcher, corpusStore, &fakeStateStore{}, seeder, builder).
			Run(context.Background(), Options{OutDir: "out"})

		require.NoError(t, err)
		assert.False(t, seeder.called)
	})

	t.Run("max cap is forwarded to the fetchers", func(t *testing.T) {
		fetcher := &fakeFetcher{}
		builder := &passBuilder{}

		_, err := newTestPipeline(fetcher, &fakeCorpusStore{}, &fakeStateStore{}, nil, builder).
			Run(context.Background(), Options{OutDir: "out", Max: 7})

		require.NoError(t, err)
		assert.Equal(t, 7, fetcher.issuesMax)
	})
}
