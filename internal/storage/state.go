// Package storage persists the pipeline's run state and document
// corpus as flat JSON files under the cache directory. Both stores
// treat missing or corrupt files as an empty starting point so the
// pipeline self-heals after corruption, and both write atomically.
package storage

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/custodia-labs/ghindex/internal/core/domain"
	"github.com/custodia-labs/ghindex/internal/logger"
)

// StateFileName is the run state file inside the cache directory.
const StateFileName = "state.json"

// StateStore persists PipelineState across runs.
type StateStore struct {
	path string
}

// NewStateStore creates a state store rooted at cacheDir.
func NewStateStore(cacheDir string) *StateStore {
	return &StateStore{path: filepath.Join(cacheDir, StateFileName)}
}

// Load reads the persisted state. A missing or unparseable file is a
// fresh start, never an error.
func (s *StateStore) Load() domain.PipelineState {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return domain.PipelineState{}
	}

	var state domain.PipelineState
	if err := json.Unmarshal(data, &state); err != nil {
		logger.Warn("state file %s is corrupt, starting fresh: %v", s.path, err)
		return domain.PipelineState{}
	}
	return state
}

// Save writes the state as indented, human-readable JSON.
func (s *StateStore) Save(state domain.PipelineState) error {
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return err
	}
	return WriteFileAtomic(s.path, data)
}
