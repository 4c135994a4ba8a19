// Package pipeline orchestrates the SERP analysis stages: per-document
// tokenization, entity extraction and term counting run concurrently; the
// aggregator is the synchronization point; outline synthesis and schema
// building run single-threaded on the immutable aggregated signal.
package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/serp-brief/internal/aggregate"
	"github.com/sells-group/serp-brief/internal/config"
	"github.com/sells-group/serp-brief/internal/entity"
	"github.com/sells-group/serp-brief/internal/model"
	"github.com/sells-group/serp-brief/internal/outline"
	"github.com/sells-group/serp-brief/internal/schema"
	"github.com/sells-group/serp-brief/internal/terms"
	"github.com/sells-group/serp-brief/internal/text"
)

// Request is one analysis invocation: the keyword, the competitor corpus,
// and an optional target document id for gap analysis.
type Request struct {
	Keyword   string           `json:"keyword"`
	Documents []model.Document `json:"documents"`
	TargetID  string           `json:"target_id,omitempty"`
}

// Pipeline runs the full analysis. It holds no per-run state, so one
// Pipeline value is safe for concurrent runs over different keywords.
type Pipeline struct {
	cfg       config.AnalysisConfig
	extractor entity.Extractor
	scorer    *terms.Scorer
	synth     *outline.Synthesizer
}

// New wires the pipeline stages from configuration. The extractor is the
// polymorphic entity backend; stop is the stop list used by term scoring.
func New(cfg config.AnalysisConfig, extractor entity.Extractor, stop *text.Stopwords) *Pipeline {
	return &Pipeline{
		cfg:       cfg,
		extractor: extractor,
		scorer:    terms.NewScorer(cfg.NgramMin, cfg.NgramMax, cfg.MinTermWeight, stop),
		synth:     outline.New(cfg.MinHeadingCount, cfg.MaxHeadingCount, cfg.SimilarityThreshold),
	}
}

// docResult is the immutable per-document output of the concurrent stage.
type docResult struct {
	doc      model.Document
	entities []model.Entity
	terms    terms.DocumentTerms
	warning  *model.Warning
	excluded bool
}

// Run executes the analysis for one keyword. Per-document failures are
// recovered locally: the document is excluded and reported in the warnings
// list. The run only fails when the usable corpus is empty, configuration
// is invalid, or a deterministic tail stage cannot complete.
func (p *Pipeline) Run(ctx context.Context, req Request) (*model.Brief, error) {
	log := zap.L().With(zap.String("keyword", req.Keyword))
	log.Info("pipeline: starting analysis", zap.Int("documents", len(req.Documents)))
	start := time.Now()

	// Deterministic processing order regardless of caller ordering.
	docs := make([]model.Document, len(req.Documents))
	copy(docs, req.Documents)
	sort.SliceStable(docs, func(i, j int) bool {
		if docs[i].Rank != docs[j].Rank {
			return docs[i].Rank < docs[j].Rank
		}
		return docs[i].ID < docs[j].ID
	})

	results := make([]docResult, len(docs))
	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(p.cfg.WorkerConcurrency)
	for i, doc := range docs {
		g.Go(func() error {
			results[i] = p.processDocument(gCtx, doc)
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		// Cancelled mid-flight: no partially-aggregated state escapes.
		return nil, eris.Wrap(err, "pipeline: cancelled")
	}

	var (
		usable     []model.Document
		warnings   []model.Warning
		entities   = make(map[string][]model.Entity)
		termCounts []terms.DocumentTerms
	)
	for _, r := range results {
		if r.warning != nil {
			warnings = append(warnings, *r.warning)
			log.Warn("pipeline: document degraded",
				zap.String("document_id", r.warning.DocumentID),
				zap.String("stage", r.warning.Stage),
				zap.String("reason", r.warning.Reason),
			)
		}
		if r.excluded {
			continue
		}
		usable = append(usable, r.doc)
		entities[r.doc.ID] = r.entities
		termCounts = append(termCounts, r.terms)
	}

	if len(usable) == 0 {
		return nil, &EmptyCorpusError{Dropped: warnings}
	}

	scored := p.scorer.Score(termCounts)
	signal := aggregate.Build(aggregate.Input{
		Documents:    usable,
		Entities:     entities,
		Terms:        scored,
		TermCounts:   termCounts,
		TargetID:     req.TargetID,
		GapThreshold: p.cfg.GapThreshold,
	})

	tree := p.synth.Build(req.Keyword, signal)

	schemaDoc, err := schema.Build(tree, signal)
	if err != nil {
		// Structural failures in the deterministic tail surface verbatim.
		return nil, err
	}
	markup, err := json.Marshal(schemaDoc)
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: marshal schema")
	}

	brief := &model.Brief{
		Keyword:   req.Keyword,
		Signal:    signal,
		Outline:   tree,
		Schema:    schemaDoc,
		SchemaLD:  string(markup),
		Warnings:  warnings,
		Documents: len(usable),
	}

	log.Info("pipeline: analysis complete",
		zap.Int("documents_analyzed", len(usable)),
		zap.Int("warnings", len(warnings)),
		zap.Int("entity_clusters", len(signal.Entities)),
		zap.Int("terms", len(signal.Terms)),
		zap.Int("gaps", len(signal.Gaps)),
		zap.Int("sections", brief.Outline.SectionCount()),
		zap.Duration("elapsed", time.Since(start)),
	)
	return brief, nil
}

// processDocument runs the independent per-document stages under the
// per-document budget. It never returns an error: failures become warnings
// and mark the document excluded.
func (p *Pipeline) processDocument(ctx context.Context, doc model.Document) docResult {
	docCtx, cancel := context.WithTimeout(ctx, p.cfg.PerDocumentTimeout())
	defer cancel()

	tokens := text.Tokenize(doc.RawText)
	if len(tokens) == 0 {
		return docResult{
			doc:      doc,
			excluded: true,
			warning: &model.Warning{
				DocumentID: doc.ID,
				Stage:      "tokenize",
				Reason:     "no textual content",
			},
		}
	}
	if err := docCtx.Err(); err != nil {
		return timeoutResult(doc)
	}

	ents, err := p.extractor.Extract(docCtx, doc, tokens)
	switch {
	case err == nil:
	case errors.Is(err, context.DeadlineExceeded):
		return timeoutResult(doc)
	case errors.Is(err, entity.ErrUnavailable):
		return docResult{
			doc:      doc,
			excluded: true,
			warning: &model.Warning{
				DocumentID: doc.ID,
				Stage:      "entity_extraction",
				Reason:     "extraction backend unavailable",
			},
		}
	default:
		return docResult{
			doc:      doc,
			excluded: true,
			warning: &model.Warning{
				DocumentID: doc.ID,
				Stage:      "entity_extraction",
				Reason:     err.Error(),
			},
		}
	}

	return docResult{
		doc:      doc,
		entities: ents,
		terms:    p.scorer.CountDocument(doc.ID, tokens),
	}
}

func timeoutResult(doc model.Document) docResult {
	err := &DocumentTimeoutError{DocumentID: doc.ID}
	return docResult{
		doc:      doc,
		excluded: true,
		warning: &model.Warning{
			DocumentID: doc.ID,
			Stage:      "timeout",
			Reason:     err.Error(),
		},
	}
}
