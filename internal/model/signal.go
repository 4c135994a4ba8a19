package model

// ScoredTerm is a corpus-level term with its summed tf-idf weight.
// SourceDocumentIDs is sorted so that encodings are reproducible.
type ScoredTerm struct {
	Term              string   `json:"term"`
	Weight            float64  `json:"tf_idf_weight"`
	DocumentFrequency int      `json:"document_frequency"`
	SourceDocumentIDs []string `json:"source_document_ids"`
}

// EntityCluster groups entity mentions across documents by
// (lowercased text, category).
type EntityCluster struct {
	Text       string         `json:"text"`
	Category   EntityCategory `json:"category"`
	Documents  []string       `json:"documents"`
	BestRank   int            `json:"best_rank"`
	Mentions   []Entity       `json:"mentions"`
	Confidence float64        `json:"confidence"`
}

// RankedEntity pairs an entity cluster with its combined coverage score.
type RankedEntity struct {
	Cluster EntityCluster `json:"cluster"`
	Score   float64       `json:"combined_score"`
}

// RankedTerm pairs a scored term with its corpus-normalized combined score.
type RankedTerm struct {
	Term  ScoredTerm `json:"term"`
	Score float64    `json:"combined_score"`
}

// GapKind distinguishes term gaps from entity gaps.
type GapKind string

const (
	GapTerm   GapKind = "term"
	GapEntity GapKind = "entity"
)

// Gap is signal present in enough competitor documents but absent from the
// designated target document.
type Gap struct {
	Kind      GapKind        `json:"kind"`
	Text      string         `json:"text"`
	Category  EntityCategory `json:"category,omitempty"`
	Coverage  int            `json:"coverage"`
	Documents []string       `json:"documents"`
}

// AggregatedSignal is the corpus-level ranked signal built once by the
// aggregator. It is immutable after construction; re-running on identical
// input produces identical ordering.
type AggregatedSignal struct {
	Entities []RankedEntity `json:"entities"`
	Terms    []RankedTerm   `json:"terms"`
	Gaps     []Gap          `json:"gaps"`
	// CorpusSize is the number of documents that contributed signal.
	CorpusSize int `json:"corpus_size"`
	// TargetID is the designated target document, empty when none.
	TargetID string `json:"target_id,omitempty"`
}
