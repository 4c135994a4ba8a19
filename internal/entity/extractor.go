// Package entity detects named entities in tokenized documents. The
// Extractor interface keeps the aggregation side independent of the backend:
// the heuristic backend is deterministic and always available, the Claude
// backend degrades to an empty set when the API is unreachable.
package entity

import (
	"context"
	"errors"

	"github.com/sells-group/serp-brief/internal/model"
)

// ErrUnavailable signals that the extraction backend cannot be reached.
// Callers degrade to term-only signal and record a warning; the error is
// never fatal for the run.
var ErrUnavailable = errors.New("entity extraction unavailable")

// Extractor detects named entities in one document.
type Extractor interface {
	Extract(ctx context.Context, doc model.Document, tokens []model.Token) ([]model.Entity, error)
}

// filter drops candidates below the confidence threshold and deduplicates
// identical (text, category) pairs within the document, keeping the first
// span. Output order follows first appearance, so results are reproducible.
func filter(candidates []model.Entity, minConfidence float64) []model.Entity {
	type key struct {
		text     string
		category model.EntityCategory
	}
	seen := make(map[key]bool, len(candidates))
	out := make([]model.Entity, 0, len(candidates))
	for _, c := range candidates {
		if c.Confidence < minConfidence {
			continue
		}
		k := key{text: c.Text, category: c.Category}
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, c)
	}
	return out
}
