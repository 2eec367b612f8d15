package index

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/custodia-labs/ghindex/internal/core/domain"
	"github.com/custodia-labs/ghindex/internal/storage"
)

const (
	// MetadataFileName is the published slimmed document collection.
	MetadataFileName = "github-docs.json"

	// IndexFileName is the published search index: an SQLite FTS5
	// database over title, excerpt and labels, keyed by document id.
	IndexFileName = "github-index.db"
)

// Build slims the corpus and writes both output artifacts into outDir,
// each as an atomic replacement. It returns the slimmed documents so
// the caller can persist them as the next run's merge basis.
//
// The index is a derived artifact: rebuilding it from the metadata file
// alone yields an equivalent index.
func Build(outDir string, corpus domain.Corpus) ([]domain.Document, error) {
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, err
	}

	docs := corpus.Documents()
	for i := range docs {
		docs[i] = Slim(docs[i])
	}

	data, err := json.Marshal(docs)
	if err != nil {
		return nil, err
	}
	if err := storage.WriteFileAtomic(filepath.Join(outDir, MetadataFileName), data); err != nil {
		return nil, fmt.Errorf("write metadata: %w", err)
	}

	if err := BuildIndexFile(filepath.Join(outDir, IndexFileName), docs); err != nil {
		return nil, fmt.Errorf("build search index: %w", err)
	}

	return docs, nil
}

// BuildIndexFile creates the FTS5 search index at path from slimmed
// documents. The index is built into a temp file and renamed over the
// target so a failed build leaves the previous index untouched.
func BuildIndexFile(path string, docs []domain.Document) error {
	tmp := path + ".tmp"
	if err := os.Remove(tmp); err != nil && !os.IsNotExist(err) {
		return err
	}

	if err := writeIndex(tmp, docs); err != nil {
		os.Remove(tmp)
		return err
	}

	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return err
	}
	return nil
}

func writeIndex(path string, docs []domain.Document) error {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return err
	}
	defer db.Close()

	// SQLite works best with a single connection.
	db.SetMaxOpenConns(1)

	// Porter tokenizer gives English stemming over the indexed fields.
	_, err = db.Exec(`
		CREATE VIRTUAL TABLE search USING fts5(
			id UNINDEXED, type UNINDEXED, title, excerpt, labels,
			tokenize='porter unicode61'
		)
	`)
	if err != nil {
		return fmt.Errorf("create fts5 table: %w", err)
	}

	tx, err := db.Begin()
	if err != nil {
		return err
	}
	stmt, err := tx.Prepare(
		"INSERT INTO search (id, type, title, excerpt, labels) VALUES (?, ?, ?, ?, ?)",
	)
	if err != nil {
		tx.Rollback()
		return err
	}
	defer stmt.Close()

	for _, d := range docs {
		if _, err := stmt.Exec(d.ID, string(d.Type), d.Title, d.Excerpt, domain.LabelText(d.Labels)); err != nil {
			tx.Rollback()
			return fmt.Errorf("index %s: %w", d.ID, err)
		}
	}

	return tx.Commit()
}

// RebuildFromMetadata reconstructs the search index from a metadata
// file, with no other input.
func RebuildFromMetadata(metadataPath, indexPath string) error {
	data, err := os.ReadFile(metadataPath)
	if err != nil {
		return err
	}
	var docs []domain.Document
	if err := json.Unmarshal(data, &docs); err != nil {
		return fmt.Errorf("parse metadata: %w", err)
	}
	return BuildIndexFile(indexPath, docs)
}
