package pipeline

import (
	"fmt"
	"strings"

	"github.com/sells-group/serp-brief/internal/model"
)

// RenderPayload serializes a brief into the ordered textual representation
// handed to the external generation collaborator. The core never calls a
// model for prose; it only shapes this payload. Output is byte-identical
// for identical briefs.
func RenderPayload(brief *model.Brief) string {
	var b strings.Builder

	fmt.Fprintf(&b, "keyword: %s\n", brief.Keyword)
	fmt.Fprintf(&b, "documents_analyzed: %d\n", brief.Documents)

	b.WriteString("outline:\n")
	writeNode(&b, brief.Outline, 1)

	if len(brief.Signal.Gaps) > 0 {
		b.WriteString("competitor_gaps:\n")
		for _, g := range brief.Signal.Gaps {
			if g.Kind == model.GapEntity {
				fmt.Fprintf(&b, "  - %s (%s, coverage %d)\n", g.Text, g.Category, g.Coverage)
			} else {
				fmt.Fprintf(&b, "  - %s (coverage %d)\n", g.Text, g.Coverage)
			}
		}
	}

	b.WriteString("schema_markup:\n")
	b.WriteString("  " + brief.SchemaLD + "\n")
	return b.String()
}

func writeNode(b *strings.Builder, node model.OutlineNode, depth int) {
	indent := strings.Repeat("  ", depth)
	marker := ""
	if node.IsGap {
		marker = " [gap]"
	}
	if node.Level == 0 {
		fmt.Fprintf(b, "%stitle: %s\n", indent, node.Heading)
	} else {
		fmt.Fprintf(b, "%sh%d: %s%s\n", indent, node.Level+1, node.Heading, marker)
	}
	if len(node.Entities) > 0 {
		fmt.Fprintf(b, "%s  entities: %s\n", indent, strings.Join(node.Entities, ", "))
	}
	if len(node.Terms) > 0 {
		fmt.Fprintf(b, "%s  terms: %s\n", indent, strings.Join(node.Terms, ", "))
	}
	for _, child := range node.Children {
		writeNode(b, child, depth+1)
	}
}
