package model

import "time"

// RunStatus tracks a persisted analysis run through its lifecycle.
type RunStatus string

const (
	RunStatusQueued    RunStatus = "queued"
	RunStatusAnalyzing RunStatus = "analyzing"
	RunStatusComplete  RunStatus = "complete"
	RunStatusFailed    RunStatus = "failed"
)

// Warning records a document that was excluded from (or degraded in) the
// analysis without aborting it.
type Warning struct {
	DocumentID string `json:"document_id"`
	Stage      string `json:"stage"`
	Reason     string `json:"reason"`
}

// Brief is the final (outline, schema, aggregated signal) triple returned to
// the caller. Field names are stable so storage and presentation layers can
// persist or render it without re-deriving any score.
type Brief struct {
	Keyword   string           `json:"keyword"`
	Signal    AggregatedSignal `json:"signal"`
	Outline   OutlineNode      `json:"outline"`
	Schema    *SchemaDocument  `json:"schema"`
	SchemaLD  string           `json:"schema_markup"`
	Warnings  []Warning        `json:"warnings"`
	Documents int              `json:"documents_analyzed"`
}

// Run is one persisted pipeline invocation.
type Run struct {
	ID        string    `json:"id"`
	Keyword   string    `json:"keyword"`
	Status    RunStatus `json:"status"`
	Brief     *Brief    `json:"brief,omitempty"`
	Error     string    `json:"error,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
