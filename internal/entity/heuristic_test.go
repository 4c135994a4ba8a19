package entity

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/serp-brief/internal/model"
	"github.com/sells-group/serp-brief/internal/text"
)

func extractFrom(t *testing.T, e *HeuristicExtractor, raw string) []model.Entity {
	t.Helper()
	doc := model.Document{ID: "doc-1", RawText: raw}
	entities, err := e.Extract(context.Background(), doc, text.Tokenize(raw))
	require.NoError(t, err)
	return entities
}

func TestHeuristic_OrgSuffix(t *testing.T) {
	e := NewHeuristic(0.5, nil)
	entities := extractFrom(t, e, "We reviewed Acme Corp and its pricing model.")

	require.Len(t, entities, 1)
	assert.Equal(t, "Acme Corp", entities[0].Text)
	assert.Equal(t, model.CategoryOrg, entities[0].Category)
	assert.InDelta(t, 0.9, entities[0].Confidence, 1e-9)
}

func TestHeuristic_PersonAfterHonorific(t *testing.T) {
	e := NewHeuristic(0.5, nil)
	entities := extractFrom(t, e, "The report quotes Dr. Jane Smith on adoption trends.")

	var person *model.Entity
	for i := range entities {
		if entities[i].Category == model.CategoryPerson {
			person = &entities[i]
		}
	}
	require.NotNil(t, person)
	assert.Equal(t, "Jane Smith", person.Text)
	assert.InDelta(t, 0.85, person.Confidence, 1e-9)
}

func TestHeuristic_LocationSuffix(t *testing.T) {
	e := NewHeuristic(0.5, nil)
	entities := extractFrom(t, e, "Teams expanded throughout Silicon Valley last year.")

	require.Len(t, entities, 1)
	assert.Equal(t, "Silicon Valley", entities[0].Text)
	assert.Equal(t, model.CategoryLocation, entities[0].Category)
}

func TestHeuristic_LocationAfterPreposition(t *testing.T) {
	e := NewHeuristic(0.5, nil)
	entities := extractFrom(t, e, "The firm operates mostly in Austin these days.")

	require.Len(t, entities, 1)
	assert.Equal(t, "Austin", entities[0].Text)
	assert.Equal(t, model.CategoryLocation, entities[0].Category)
	assert.InDelta(t, 0.6, entities[0].Confidence, 1e-9)
}

func TestHeuristic_ProductWithNumber(t *testing.T) {
	e := NewHeuristic(0.5, nil)
	entities := extractFrom(t, e, "Buyers compared the Model 3 against rivals.")

	require.Len(t, entities, 1)
	assert.Equal(t, "Model 3", entities[0].Text)
	assert.Equal(t, model.CategoryProduct, entities[0].Category)
}

func TestHeuristic_MultiTokenConcept(t *testing.T) {
	e := NewHeuristic(0.5, nil)
	entities := extractFrom(t, e, "Analysts track Customer Relationship Management closely.")

	require.Len(t, entities, 1)
	assert.Equal(t, "Customer Relationship Management", entities[0].Text)
	assert.Equal(t, model.CategoryConcept, entities[0].Category)
}

func TestHeuristic_SentenceOpenerExcluded(t *testing.T) {
	e := NewHeuristic(0.5, nil)
	entities := extractFrom(t, e, "Pricing varies widely. Support matters too.")

	assert.Empty(t, entities)
}

func TestHeuristic_SpansIndexRawText(t *testing.T) {
	raw := "<p>We compared <b>Acme Corp</b> with a local vendor.</p>"
	e := NewHeuristic(0.5, nil)
	doc := model.Document{ID: "doc-1", RawText: raw}
	entities, err := e.Extract(context.Background(), doc, text.Tokenize(raw))
	require.NoError(t, err)

	require.Len(t, entities, 1)
	assert.Equal(t, entities[0].Text, raw[entities[0].Start:entities[0].End])
}

func TestHeuristic_ConfidenceThreshold(t *testing.T) {
	// The single-token OTHER fallback scores 0.55 and must fall below 0.7.
	e := NewHeuristic(0.7, nil)
	entities := extractFrom(t, e, "Many teams adopted Kubernetes this quarter.")

	assert.Empty(t, entities)

	relaxed := NewHeuristic(0.5, nil)
	entities = extractFrom(t, relaxed, "Many teams adopted Kubernetes this quarter.")
	require.Len(t, entities, 1)
	assert.Equal(t, model.CategoryOther, entities[0].Category)
}

func TestHeuristic_DeduplicatesByTextAndCategory(t *testing.T) {
	e := NewHeuristic(0.5, nil)
	entities := extractFrom(t, e, "Acme Corp grew fast. Later, Acme Corp went public.")

	require.Len(t, entities, 1)
	assert.Equal(t, "Acme Corp", entities[0].Text)
}

func TestHeuristic_LexiconCueOverride(t *testing.T) {
	lex := &text.Lexicon{Cues: map[string][]string{"product": {"widgetizer"}}}
	e := NewHeuristic(0.5, lex)
	entities := extractFrom(t, e, "Everyone praised the Widgetizer at launch.")

	require.Len(t, entities, 1)
	assert.Equal(t, model.CategoryProduct, entities[0].Category)
	assert.InDelta(t, 0.8, entities[0].Confidence, 1e-9)
}

func TestHeuristic_Deterministic(t *testing.T) {
	raw := "Acme Corp hired Dr. Jane Smith in Austin to launch the Model 3."
	e := NewHeuristic(0.5, nil)

	first := extractFrom(t, e, raw)
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, extractFrom(t, e, raw))
	}
}
