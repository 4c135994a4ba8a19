package schema

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/serp-brief/internal/model"
)

func outlineWith(heading string, sections ...model.OutlineNode) model.OutlineNode {
	return model.OutlineNode{Heading: heading, Level: 0, Children: sections}
}

func section(heading string, terms ...string) model.OutlineNode {
	return model.OutlineNode{Heading: heading, Level: 1, Terms: terms}
}

func TestBuild_Article(t *testing.T) {
	root := outlineWith("Crm Software",
		model.OutlineNode{Heading: "Pricing Models", Level: 1, Terms: []string{"pricing tiers"}, Entities: []string{"salesforce"}},
		section("Migration Paths", "data migration"),
	)

	doc, err := Build(root, model.AggregatedSignal{})
	require.NoError(t, err)

	assert.Equal(t, model.SchemaArticle, doc.Type)
	assert.Equal(t, "Crm Software", doc.Get("headline"))
	assert.Equal(t, "pricing tiers, data migration", doc.Get("keywords"))

	about, ok := doc.Get("about").(*model.SchemaDocument)
	require.True(t, ok)
	assert.Equal(t, "salesforce", about.Get("name"))

	sections, ok := doc.Get("articleSection").([]any)
	require.True(t, ok)
	assert.Equal(t, []any{"Pricing Models", "Migration Paths"}, sections)
}

func TestBuild_Article_EntityKeywordFallback(t *testing.T) {
	// An outline with only entity signal still satisfies the keywords field.
	root := outlineWith("Crm Software",
		model.OutlineNode{Heading: "Salesforce", Level: 1, Entities: []string{"salesforce"}},
		model.OutlineNode{Heading: "Hubspot", Level: 1, Entities: []string{"hubspot"}},
	)

	doc, err := Build(root, model.AggregatedSignal{})
	require.NoError(t, err)
	assert.Equal(t, "salesforce, hubspot", doc.Get("keywords"))
}

func TestBuild_Article_EmptyOutlineIsIncomplete(t *testing.T) {
	_, err := Build(model.OutlineNode{}, model.AggregatedSignal{})

	var incomplete *IncompleteError
	require.ErrorAs(t, err, &incomplete)
	assert.Equal(t, model.SchemaArticle, incomplete.SchemaType)
}

func TestBuild_FAQPage(t *testing.T) {
	root := outlineWith("Crm Software",
		section("What Is Crm Software", "definition"),
		section("How Much Does Crm Cost", "pricing"),
		section("Which Crm Fits Small Teams", "small business"),
	)

	doc, err := Build(root, model.AggregatedSignal{})
	require.NoError(t, err)

	assert.Equal(t, model.SchemaFAQPage, doc.Type)
	questions, ok := doc.Get("mainEntity").([]*model.SchemaDocument)
	require.True(t, ok)
	require.Len(t, questions, 3)
	assert.Equal(t, model.SchemaType("Question"), questions[0].Type)
	assert.Equal(t, "What Is Crm Software", questions[0].Get("name"))

	answer, ok := questions[0].Get("acceptedAnswer").(*model.SchemaDocument)
	require.True(t, ok)
	assert.Equal(t, model.SchemaType("Answer"), answer.Type)
	assert.NotEmpty(t, answer.Get("text"))
}

func TestBuild_HowTo(t *testing.T) {
	root := outlineWith("How To Migrate Your Crm",
		section("Step 1 Export Your Data", "export"),
		section("Step 2 Map Your Fields", "field mapping"),
		section("Step 3 Validate The Import", "validation"),
	)

	doc, err := Build(root, model.AggregatedSignal{})
	require.NoError(t, err)

	assert.Equal(t, model.SchemaHowTo, doc.Type)
	steps, ok := doc.Get("step").([]*model.SchemaDocument)
	require.True(t, ok)
	require.Len(t, steps, 3)
	assert.Equal(t, 1, steps[0].Get("position"))
	assert.Equal(t, "Step 1 Export Your Data", steps[0].Get("name"))
	assert.Equal(t, 3, steps[2].Get("position"))
}

func TestChooseType(t *testing.T) {
	tests := []struct {
		name     string
		root     model.OutlineNode
		expected model.SchemaType
	}{
		{
			name:     "empty outline is an article",
			root:     outlineWith("Topic"),
			expected: model.SchemaArticle,
		},
		{
			name: "mixed headings are an article",
			root: outlineWith("Topic",
				section("Pricing"), section("Features"), section("Support")),
			expected: model.SchemaArticle,
		},
		{
			name: "majority questions make an faq",
			root: outlineWith("Topic",
				section("What Is It"), section("Why Use It"), section("Pricing")),
			expected: model.SchemaFAQPage,
		},
		{
			name: "single question stays an article",
			root: outlineWith("Topic",
				section("What Is It"), section("Pricing"), section("Features")),
			expected: model.SchemaArticle,
		},
		{
			name: "numbered headings make a howto",
			root: outlineWith("Topic",
				section("1. Install"), section("2. Configure"), section("Pricing")),
			expected: model.SchemaHowTo,
		},
		{
			name: "how-to keyword makes a howto",
			root: outlineWith("How To Pick A Vendor",
				section("Budget"), section("Shortlist"), section("Trial")),
			expected: model.SchemaHowTo,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, chooseType(tt.root))
		})
	}
}

func TestMarshal_ContextAndTypeFirst(t *testing.T) {
	root := outlineWith("Crm Software", section("Pricing Models", "pricing tiers"))

	doc, err := Build(root, model.AggregatedSignal{})
	require.NoError(t, err)

	raw, err := json.Marshal(doc)
	require.NoError(t, err)

	s := string(raw)
	assert.True(t, len(s) > 2 && s[0] == '{')
	assert.Contains(t, s, `"@context":"https://schema.org","@type":"Article"`)
	assert.Equal(t, 1, countOccurrences(s, `"@context"`), "nested documents omit the repeated @context")

	// Round-trips as ordinary JSON.
	var decoded map[string]any
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, "Article", decoded["@type"])
}

func TestMarshal_Deterministic(t *testing.T) {
	root := outlineWith("Crm Software",
		model.OutlineNode{Heading: "Pricing Models", Level: 1, Terms: []string{"pricing tiers"}, Entities: []string{"salesforce", "hubspot"}},
	)

	doc, err := Build(root, model.AggregatedSignal{})
	require.NoError(t, err)

	first, err := json.Marshal(doc)
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		again, err := json.Marshal(doc)
		require.NoError(t, err)
		assert.Equal(t, string(first), string(again))
	}
}

func countOccurrences(s, sub string) int {
	count := 0
	for i := 0; i+len(sub) <= len(s); i++ {
		if s[i:i+len(sub)] == sub {
			count++
		}
	}
	return count
}
