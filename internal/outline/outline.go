// Package outline converts aggregated signal into a hierarchical content
// skeleton. Everything here is single-threaded and deterministic; prose
// generation is delegated to an external collaborator.
package outline

import (
	"sort"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/sells-group/serp-brief/internal/model"
)

var titleCaser = cases.Title(language.English)

// Synthesizer builds outline trees within a heading budget.
type Synthesizer struct {
	minHeadings int
	maxHeadings int
	similarity  float64
}

// New creates a synthesizer. The budget is [minHeadings, maxHeadings]
// top-level sections; similarity is the minimum source-document Jaccard
// overlap for grouping two signal clusters under one section.
func New(minHeadings, maxHeadings int, similarity float64) *Synthesizer {
	return &Synthesizer{
		minHeadings: minHeadings,
		maxHeadings: maxHeadings,
		similarity:  similarity,
	}
}

// candidate is one signal cluster competing for a heading slot.
type candidate struct {
	label    string
	display  string
	isEntity bool
	isGap    bool
	score    float64
	coverage int
	docs     map[string]bool
}

// Build synthesizes the outline for a keyword. When grouping would leave
// fewer top-level sections than the minimum budget, grouped members are
// promoted back to sections of their own; when the signal itself yields too
// few distinct clusters the tree simply has fewer nodes, never filler.
func (s *Synthesizer) Build(keyword string, signal model.AggregatedSignal) model.OutlineNode {
	candidates := collect(signal, s.maxHeadings)

	// Greedy correlation grouping: each candidate either joins the first
	// existing section it overlaps enough with, or opens a new one.
	type section struct {
		dominant candidate
		members  []candidate
	}
	var sections []*section
	for _, c := range candidates {
		placed := false
		for _, sec := range sections {
			if jaccard(sec.dominant.docs, c.docs) >= s.similarity {
				sec.members = append(sec.members, c)
				placed = true
				break
			}
		}
		if !placed {
			if len(sections) >= s.maxHeadings {
				continue
			}
			sections = append(sections, &section{dominant: c})
		}
	}

	// Below the minimum budget, promote grouped members into sections of
	// their own. Headings are never invented, so a signal with too few
	// distinct clusters still comes up short.
	for len(sections) < s.minHeadings {
		donor := -1
		for i, sec := range sections {
			if len(sec.members) == 0 {
				continue
			}
			if donor == -1 || len(sec.members) > len(sections[donor].members) {
				donor = i
			}
		}
		if donor == -1 {
			break
		}
		sec := sections[donor]
		promoted := sec.members[0]
		sec.members = sec.members[1:]
		sections = append(sections, &section{dominant: promoted})
	}

	// Order by aggregate coverage, entity-bearing sections first on ties.
	sort.SliceStable(sections, func(i, j int) bool {
		a, b := sections[i], sections[j]
		ac, bc := aggregateCoverage(a.dominant, a.members), aggregateCoverage(b.dominant, b.members)
		if ac != bc {
			return ac > bc
		}
		ae, be := hasEntity(a.dominant, a.members), hasEntity(b.dominant, b.members)
		if ae != be {
			return ae
		}
		return a.dominant.label < b.dominant.label
	})

	root := model.OutlineNode{
		Heading: titleCaser.String(keyword),
		Level:   0,
	}
	for _, sec := range sections {
		node := model.OutlineNode{
			Heading: titleCaser.String(sec.dominant.display),
			Level:   1,
			IsGap:   sec.dominant.isGap,
		}
		assign(&node, sec.dominant)
		for _, m := range sec.members {
			child := model.OutlineNode{
				Heading: titleCaser.String(m.display),
				Level:   2,
				IsGap:   m.isGap,
			}
			assign(&child, m)
			assign(&node, m)
			node.Children = append(node.Children, child)
		}
		root.Children = append(root.Children, node)
	}
	return root
}

// collect merges ranked entities and terms into one deduplicated candidate
// list and keeps the top budget entries. Entities win ties because they
// carry more search signal than bare terms.
func collect(signal model.AggregatedSignal, budget int) []candidate {
	gapLabels := make(map[string]bool, len(signal.Gaps))
	for _, g := range signal.Gaps {
		gapLabels[g.Text] = true
	}

	seen := make(map[string]bool)
	var all []candidate
	for _, re := range signal.Entities {
		if seen[re.Cluster.Text] {
			continue
		}
		seen[re.Cluster.Text] = true
		all = append(all, candidate{
			label:    re.Cluster.Text,
			display:  re.Cluster.Text,
			isEntity: true,
			isGap:    gapLabels[re.Cluster.Text],
			score:    re.Score,
			coverage: len(re.Cluster.Documents),
			docs:     toSet(re.Cluster.Documents),
		})
	}
	for _, rt := range signal.Terms {
		if seen[rt.Term.Term] {
			continue
		}
		seen[rt.Term.Term] = true
		all = append(all, candidate{
			label:    rt.Term.Term,
			display:  rt.Term.Term,
			isGap:    gapLabels[rt.Term.Term],
			score:    rt.Score,
			coverage: rt.Term.DocumentFrequency,
			docs:     toSet(rt.Term.SourceDocumentIDs),
		})
	}

	sort.SliceStable(all, func(i, j int) bool {
		if all[i].score != all[j].score {
			return all[i].score > all[j].score
		}
		if all[i].isEntity != all[j].isEntity {
			return all[i].isEntity
		}
		return all[i].label < all[j].label
	})
	if len(all) > budget {
		all = all[:budget]
	}
	return all
}

func assign(node *model.OutlineNode, c candidate) {
	if c.isEntity {
		if !containsString(node.Entities, c.label) {
			node.Entities = append(node.Entities, c.label)
		}
		return
	}
	if !containsString(node.Terms, c.label) {
		node.Terms = append(node.Terms, c.label)
	}
}

func aggregateCoverage(dominant candidate, members []candidate) int {
	docs := make(map[string]bool, len(dominant.docs))
	for d := range dominant.docs {
		docs[d] = true
	}
	for _, m := range members {
		for d := range m.docs {
			docs[d] = true
		}
	}
	return len(docs)
}

func hasEntity(dominant candidate, members []candidate) bool {
	if dominant.isEntity {
		return true
	}
	for _, m := range members {
		if m.isEntity {
			return true
		}
	}
	return false
}

func jaccard(a, b map[string]bool) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	inter := 0
	for k := range a {
		if b[k] {
			inter++
		}
	}
	union := len(a) + len(b) - inter
	return float64(inter) / float64(union)
}

func toSet(ids []string) map[string]bool {
	set := make(map[string]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
