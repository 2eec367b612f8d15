package storage

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/custodia-labs/ghindex/internal/core/domain"
	"github.com/custodia-labs/ghindex/internal/logger"
)

// CorpusFileName is the cached document snapshot inside the cache
// directory. It is the merge basis for the next incremental run.
const CorpusFileName = "docs.json"

// CorpusStore persists the merged document set between runs.
type CorpusStore struct {
	path string
}

// NewCorpusStore creates a corpus store rooted at cacheDir.
func NewCorpusStore(cacheDir string) *CorpusStore {
	return &CorpusStore{path: filepath.Join(cacheDir, CorpusFileName)}
}

// Load reads the cached corpus. Missing or corrupt files load as an
// empty corpus.
func (s *CorpusStore) Load() domain.Corpus {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return domain.Corpus{}
	}

	var docs []domain.Document
	if err := json.Unmarshal(data, &docs); err != nil {
		logger.Warn("corpus cache %s is corrupt, starting empty: %v", s.path, err)
		return domain.Corpus{}
	}

	corpus := make(domain.Corpus, len(docs))
	for _, d := range docs {
		corpus[d.ID] = d
	}
	return corpus
}

// Save writes the corpus atomically as a compact JSON array sorted by
// document ID.
func (s *CorpusStore) Save(corpus domain.Corpus) error {
	data, err := json.Marshal(corpus.Documents())
	if err != nil {
		return err
	}
	return WriteFileAtomic(s.path, data)
}

// Path returns the corpus file location.
func (s *CorpusStore) Path() string {
	return s.path
}

// Dir returns the cache directory, creating it if needed.
func (s *CorpusStore) Dir() (string, error) {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	return dir, nil
}
