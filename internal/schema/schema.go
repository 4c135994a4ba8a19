// Package schema emits structured markup derived from a synthesized outline.
// The builder is deterministic: the same outline and signal always produce
// the same document, and it refuses to emit markup missing a required field.
package schema

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/sells-group/serp-brief/internal/model"
)

// IncompleteError reports that a required field of the chosen schema type
// could not be derived. The builder raises it instead of emitting invalid
// markup.
type IncompleteError struct {
	SchemaType model.SchemaType
	Field      string
}

func (e *IncompleteError) Error() string {
	return fmt.Sprintf("schema: %s document is missing required field %q", e.SchemaType, e.Field)
}

// requiredFields is the required-field set per supported schema type.
var requiredFields = map[model.SchemaType][]string{
	model.SchemaArticle: {"headline", "description", "keywords", "about"},
	model.SchemaFAQPage: {"name", "mainEntity"},
	model.SchemaHowTo:   {"name", "description", "step"},
}

var questionOpeners = map[string]bool{
	"what": true, "how": true, "why": true, "when": true, "where": true,
	"which": true, "who": true, "can": true, "do": true, "does": true,
	"is": true, "are": true, "should": true,
}

// Build maps an outline tree and its underlying signal to a schema document.
// The top-level type comes from a fixed decision table over the outline
// shape: mostly question-like headings produce an FAQ page, sequential
// headings produce a HowTo, anything else a generic Article.
func Build(root model.OutlineNode, signal model.AggregatedSignal) (*model.SchemaDocument, error) {
	schemaType := chooseType(root)

	var doc *model.SchemaDocument
	switch schemaType {
	case model.SchemaFAQPage:
		doc = buildFAQ(root)
	case model.SchemaHowTo:
		doc = buildHowTo(root)
	default:
		doc = buildArticle(root, signal)
	}

	for _, field := range requiredFields[schemaType] {
		if !doc.Has(field) {
			return nil, &IncompleteError{SchemaType: schemaType, Field: field}
		}
	}
	return doc, nil
}

// chooseType applies the decision table to the top-level headings.
func chooseType(root model.OutlineNode) model.SchemaType {
	if len(root.Children) == 0 {
		return model.SchemaArticle
	}

	questions, sequential := 0, 0
	for _, sec := range root.Children {
		if isQuestion(sec.Heading) {
			questions++
		}
		if isSequential(sec.Heading) {
			sequential++
		}
	}

	if questions*2 >= len(root.Children) && questions >= 2 {
		return model.SchemaFAQPage
	}
	if sequential*2 >= len(root.Children) || strings.HasPrefix(strings.ToLower(root.Heading), "how to") {
		return model.SchemaHowTo
	}
	return model.SchemaArticle
}

func isQuestion(heading string) bool {
	if strings.HasSuffix(strings.TrimSpace(heading), "?") {
		return true
	}
	fields := strings.Fields(strings.ToLower(heading))
	return len(fields) > 1 && questionOpeners[fields[0]]
}

func isSequential(heading string) bool {
	fields := strings.Fields(strings.ToLower(heading))
	if len(fields) == 0 {
		return false
	}
	if fields[0] == "step" {
		return true
	}
	lead := strings.TrimSuffix(fields[0], ".")
	_, err := strconv.Atoi(lead)
	return err == nil
}

func buildArticle(root model.OutlineNode, signal model.AggregatedSignal) *model.SchemaDocument {
	doc := model.NewSchemaDocument(model.SchemaArticle)
	doc.Set("headline", root.Heading)
	doc.Set("description", describe(root))

	keywords := collectTerms(root, 10)
	entities := collectEntities(root, 10)
	if len(keywords) == 0 {
		keywords = entities
	}
	doc.Set("keywords", strings.Join(keywords, ", "))
	if len(entities) > 0 {
		doc.Set("about", thing(entities[0]))
		if len(entities) > 1 {
			doc.Set("mentions", things(entities[1:]))
		}
	} else if root.Heading != "" {
		doc.Set("about", thing(root.Heading))
	}

	var sections []any
	for _, sec := range root.Children {
		sections = append(sections, sec.Heading)
	}
	if len(sections) > 0 {
		doc.Set("articleSection", sections)
	}
	return doc
}

func buildFAQ(root model.OutlineNode) *model.SchemaDocument {
	doc := model.NewSchemaDocument(model.SchemaFAQPage)
	doc.Set("name", root.Heading)

	var questions []*model.SchemaDocument
	for _, sec := range root.Children {
		q := model.NewSchemaDocument("Question")
		q.Set("name", sec.Heading)
		answer := model.NewSchemaDocument("Answer")
		answer.Set("text", describe(sec))
		q.Set("acceptedAnswer", answer)
		questions = append(questions, q)
	}
	doc.Set("mainEntity", questions)
	return doc
}

func buildHowTo(root model.OutlineNode) *model.SchemaDocument {
	doc := model.NewSchemaDocument(model.SchemaHowTo)
	doc.Set("name", root.Heading)
	doc.Set("description", describe(root))

	var steps []*model.SchemaDocument
	for i, sec := range root.Children {
		step := model.NewSchemaDocument("HowToStep")
		step.Set("position", i+1)
		step.Set("name", sec.Heading)
		steps = append(steps, step)
	}
	doc.Set("step", steps)
	return doc
}

// describe renders a deterministic one-line description of a node from its
// headings and assigned signal. No generative step happens here.
func describe(node model.OutlineNode) string {
	topics := append([]string{}, node.Entities...)
	topics = append(topics, node.Terms...)
	if len(topics) == 0 {
		for _, c := range node.Children {
			topics = append(topics, c.Heading)
		}
	}
	if len(topics) > 5 {
		topics = topics[:5]
	}
	if len(topics) == 0 {
		if node.Heading == "" {
			return ""
		}
		return node.Heading
	}
	return fmt.Sprintf("%s: covers %s", node.Heading, strings.Join(topics, ", "))
}

func collectTerms(root model.OutlineNode, limit int) []string {
	var out []string
	seen := make(map[string]bool)
	root.Walk(func(n *model.OutlineNode) {
		for _, t := range n.Terms {
			if !seen[t] && len(out) < limit {
				seen[t] = true
				out = append(out, t)
			}
		}
	})
	return out
}

func collectEntities(root model.OutlineNode, limit int) []string {
	var out []string
	seen := make(map[string]bool)
	root.Walk(func(n *model.OutlineNode) {
		for _, e := range n.Entities {
			if !seen[e] && len(out) < limit {
				seen[e] = true
				out = append(out, e)
			}
		}
	})
	return out
}

func thing(name string) *model.SchemaDocument {
	t := model.NewSchemaDocument("Thing")
	t.Set("name", name)
	return t
}

func things(names []string) []*model.SchemaDocument {
	out := make([]*model.SchemaDocument, len(names))
	for i, n := range names {
		out[i] = thing(n)
	}
	return out
}
