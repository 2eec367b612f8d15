package services

import "github.com/custodia-labs/ghindex/internal/core/domain"

// Merge reconciles the prior corpus with freshly fetched documents.
//
// The merge key is identity, not recency: a fresh document always
// supersedes the prior one with the same ID regardless of timestamps.
// On a full run the result is exactly the fresh set, modelling a
// complete resync; prior documents not re-observed are dropped. On an
// incremental run prior documents are carried forward and only the
// re-observed IDs are overwritten.
func Merge(prior domain.Corpus, fresh []domain.Document, incremental bool) domain.Corpus {
	current := make(domain.Corpus, len(fresh))
	for _, d := range fresh {
		current[d.ID] = d
	}

	if !incremental {
		return current
	}

	merged := make(domain.Corpus, len(prior)+len(current))
	for id, d := range prior {
		merged[id] = d
	}
	for id, d := range current {
		merged[id] = d
	}
	return merged
}
