package aggregate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/serp-brief/internal/model"
	"github.com/sells-group/serp-brief/internal/terms"
)

func ent(docID, text string, cat model.EntityCategory, conf float64) model.Entity {
	return model.Entity{Text: text, Category: cat, DocumentID: docID, Confidence: conf}
}

func docs(n int) []model.Document {
	out := make([]model.Document, n)
	for i := range out {
		out[i] = model.Document{ID: "doc-" + string(rune('1'+i)), Rank: i + 1}
	}
	return out
}

func TestBuild_EntityClusterCoverage(t *testing.T) {
	in := Input{
		Documents: docs(5),
		Entities: map[string][]model.Entity{
			"doc-1": {ent("doc-1", "Acme Corp", model.CategoryOrg, 0.9)},
			"doc-2": {ent("doc-2", "acme corp", model.CategoryOrg, 0.8)},
			"doc-4": {ent("doc-4", "ACME CORP", model.CategoryOrg, 0.7)},
			"doc-5": {ent("doc-5", "Globex", model.CategoryOrg, 0.9)},
		},
	}

	signal := Build(in)

	require.Len(t, signal.Entities, 2)
	top := signal.Entities[0]
	assert.Equal(t, "acme corp", top.Cluster.Text, "cluster text is lowercased")
	assert.Equal(t, model.CategoryOrg, top.Cluster.Category)
	assert.Equal(t, 3.0, top.Score, "score counts distinct documents")
	assert.Equal(t, []string{"doc-1", "doc-2", "doc-4"}, top.Cluster.Documents)
	assert.Equal(t, 1, top.Cluster.BestRank)
	assert.InDelta(t, 0.9, top.Cluster.Confidence, 1e-9, "cluster keeps the best mention confidence")
	assert.Len(t, top.Cluster.Mentions, 3)
}

func TestBuild_SameTextDifferentCategoryStaysSeparate(t *testing.T) {
	in := Input{
		Documents: docs(2),
		Entities: map[string][]model.Entity{
			"doc-1": {ent("doc-1", "Amazon", model.CategoryOrg, 0.9)},
			"doc-2": {ent("doc-2", "Amazon", model.CategoryLocation, 0.7)},
		},
	}

	signal := Build(in)

	assert.Len(t, signal.Entities, 2)
}

func TestBuild_RepeatMentionsInOneDocumentCountOnce(t *testing.T) {
	in := Input{
		Documents: docs(2),
		Entities: map[string][]model.Entity{
			"doc-1": {
				ent("doc-1", "Acme", model.CategoryOrg, 0.9),
				ent("doc-1", "Acme", model.CategoryOrg, 0.9),
			},
		},
	}

	signal := Build(in)

	require.Len(t, signal.Entities, 1)
	assert.Equal(t, 1.0, signal.Entities[0].Score)
	assert.Len(t, signal.Entities[0].Cluster.Mentions, 2)
}

func TestBuild_EntityTieBreaksByBestRank(t *testing.T) {
	in := Input{
		Documents: docs(3),
		Entities: map[string][]model.Entity{
			"doc-1": {ent("doc-1", "Alpha", model.CategoryOrg, 0.9)},
			"doc-3": {ent("doc-3", "Beta", model.CategoryOrg, 0.9)},
		},
	}

	signal := Build(in)

	require.Len(t, signal.Entities, 2)
	assert.Equal(t, "alpha", signal.Entities[0].Cluster.Text, "equal coverage ranks the earlier SERP rank first")
}

func TestBuild_TermScoreNormalizedByCorpusSize(t *testing.T) {
	in := Input{
		Documents: docs(4),
		Terms: []model.ScoredTerm{
			{Term: "crm software", Weight: 8.0, DocumentFrequency: 3, SourceDocumentIDs: []string{"doc-1", "doc-2", "doc-3"}},
		},
	}

	signal := Build(in)

	require.Len(t, signal.Terms, 1)
	assert.InDelta(t, 2.0, signal.Terms[0].Score, 1e-9)
	assert.Equal(t, 4, signal.CorpusSize)
}

func TestBuild_NoTargetMeansNoGaps(t *testing.T) {
	in := Input{
		Documents: docs(3),
		Terms: []model.ScoredTerm{
			{Term: "pricing", Weight: 5, DocumentFrequency: 3, SourceDocumentIDs: []string{"doc-1", "doc-2", "doc-3"}},
		},
	}

	signal := Build(in)

	assert.Empty(t, signal.Gaps)
}

func TestBuild_TermGapDetection(t *testing.T) {
	// Four competitors plus the target. "pricing" appears in three of four
	// competitors (majority) but not the target, so it is a gap; adding it
	// to the target removes the gap.
	termCounts := []terms.DocumentTerms{
		{DocumentID: "doc-1", Frequencies: map[string]int{"pricing": 2}},
		{DocumentID: "doc-2", Frequencies: map[string]int{"pricing": 1}},
		{DocumentID: "doc-3", Frequencies: map[string]int{"pricing": 1}},
		{DocumentID: "doc-4", Frequencies: map[string]int{"support": 1}},
		{DocumentID: "doc-5", Frequencies: map[string]int{"support": 1}},
	}
	in := Input{
		Documents: docs(5),
		TargetID:  "doc-5",
		Terms: []model.ScoredTerm{
			{Term: "pricing", Weight: 6, DocumentFrequency: 3, SourceDocumentIDs: []string{"doc-1", "doc-2", "doc-3"}},
			{Term: "support", Weight: 3, DocumentFrequency: 2, SourceDocumentIDs: []string{"doc-4", "doc-5"}},
		},
		TermCounts: termCounts,
	}

	signal := Build(in)

	require.Len(t, signal.Gaps, 1)
	gap := signal.Gaps[0]
	assert.Equal(t, model.GapTerm, gap.Kind)
	assert.Equal(t, "pricing", gap.Text)
	assert.Equal(t, 3, gap.Coverage)
	assert.Equal(t, []string{"doc-1", "doc-2", "doc-3"}, gap.Documents)

	// Covering the term in the target removes the gap.
	termCounts[4].Frequencies["pricing"] = 1
	signal = Build(in)
	assert.Empty(t, signal.Gaps)
}

func TestBuild_EntityGapDetection(t *testing.T) {
	in := Input{
		Documents: docs(4),
		TargetID:  "doc-4",
		Entities: map[string][]model.Entity{
			"doc-1": {ent("doc-1", "Acme", model.CategoryOrg, 0.9)},
			"doc-2": {ent("doc-2", "Acme", model.CategoryOrg, 0.9)},
			"doc-3": {ent("doc-3", "Acme", model.CategoryOrg, 0.9)},
			"doc-4": {ent("doc-4", "Globex", model.CategoryOrg, 0.9)},
		},
	}

	signal := Build(in)

	require.Len(t, signal.Gaps, 1)
	assert.Equal(t, model.GapEntity, signal.Gaps[0].Kind)
	assert.Equal(t, "acme", signal.Gaps[0].Text)

	// The same entity in the target removes the gap.
	in.Entities["doc-4"] = append(in.Entities["doc-4"], ent("doc-4", "ACME", model.CategoryOrg, 0.6))
	signal = Build(in)
	assert.Empty(t, signal.Gaps)
}

func TestBuild_BelowMajorityIsNotAGap(t *testing.T) {
	// Two of four competitors is below the majority threshold of three.
	in := Input{
		Documents: docs(5),
		TargetID:  "doc-5",
		Entities: map[string][]model.Entity{
			"doc-1": {ent("doc-1", "Acme", model.CategoryOrg, 0.9)},
			"doc-2": {ent("doc-2", "Acme", model.CategoryOrg, 0.9)},
		},
	}

	signal := Build(in)

	assert.Empty(t, signal.Gaps)
}

func TestBuild_ExplicitGapThreshold(t *testing.T) {
	in := Input{
		Documents:    docs(5),
		TargetID:     "doc-5",
		GapThreshold: 2,
		Entities: map[string][]model.Entity{
			"doc-1": {ent("doc-1", "Acme", model.CategoryOrg, 0.9)},
			"doc-2": {ent("doc-2", "Acme", model.CategoryOrg, 0.9)},
		},
	}

	signal := Build(in)

	require.Len(t, signal.Gaps, 1)
	assert.Equal(t, "acme", signal.Gaps[0].Text)
}

func TestBuild_GapOrdering(t *testing.T) {
	in := Input{
		Documents:    docs(4),
		TargetID:     "doc-4",
		GapThreshold: 2,
		Entities: map[string][]model.Entity{
			"doc-1": {ent("doc-1", "Acme", model.CategoryOrg, 0.9), ent("doc-1", "Globex", model.CategoryOrg, 0.9)},
			"doc-2": {ent("doc-2", "Acme", model.CategoryOrg, 0.9), ent("doc-2", "Globex", model.CategoryOrg, 0.9)},
			"doc-3": {ent("doc-3", "Acme", model.CategoryOrg, 0.9)},
		},
		Terms: []model.ScoredTerm{
			{Term: "pricing", Weight: 4, DocumentFrequency: 3, SourceDocumentIDs: []string{"doc-1", "doc-2", "doc-3"}},
		},
		TermCounts: []terms.DocumentTerms{
			{DocumentID: "doc-1", Frequencies: map[string]int{"pricing": 1}},
			{DocumentID: "doc-2", Frequencies: map[string]int{"pricing": 1}},
			{DocumentID: "doc-3", Frequencies: map[string]int{"pricing": 1}},
		},
	}

	signal := Build(in)

	require.Len(t, signal.Gaps, 3)
	// Coverage desc, entities before terms on ties, then text asc.
	assert.Equal(t, "acme", signal.Gaps[0].Text)
	assert.Equal(t, model.GapTerm, signal.Gaps[1].Kind)
	assert.Equal(t, "pricing", signal.Gaps[1].Text)
	assert.Equal(t, "globex", signal.Gaps[2].Text)
}

func TestBuild_Deterministic(t *testing.T) {
	in := Input{
		Documents: docs(3),
		Entities: map[string][]model.Entity{
			"doc-1": {ent("doc-1", "Acme", model.CategoryOrg, 0.9), ent("doc-1", "Austin", model.CategoryLocation, 0.6)},
			"doc-2": {ent("doc-2", "Acme", model.CategoryOrg, 0.8), ent("doc-2", "Globex", model.CategoryOrg, 0.9)},
			"doc-3": {ent("doc-3", "Austin", model.CategoryLocation, 0.6)},
		},
		Terms: []model.ScoredTerm{
			{Term: "pricing", Weight: 3, DocumentFrequency: 2, SourceDocumentIDs: []string{"doc-1", "doc-2"}},
			{Term: "support", Weight: 3, DocumentFrequency: 2, SourceDocumentIDs: []string{"doc-2", "doc-3"}},
		},
	}

	first := Build(in)
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, Build(in))
	}
}
