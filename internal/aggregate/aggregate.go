// Package aggregate merges per-document entity and term signal into one
// corpus-level ranked view with competitor-gap detection.
package aggregate

import (
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/sells-group/serp-brief/internal/model"
	"github.com/sells-group/serp-brief/internal/terms"
)

// Input carries everything the aggregator needs: the usable documents, the
// per-document extraction results, and the corpus-level scored terms. All of
// it is read-only.
type Input struct {
	Documents  []model.Document
	Entities   map[string][]model.Entity
	Terms      []model.ScoredTerm
	TermCounts []terms.DocumentTerms
	// TargetID designates the caller's own draft among Documents. Empty
	// means no gap analysis.
	TargetID string
	// GapThreshold is the minimum competitor coverage for a gap; zero means
	// majority of competitor documents.
	GapThreshold int
}

// Build constructs the aggregated signal. Re-running on identical input
// produces identical ordering: every sort below has a full tie-break chain.
func Build(in Input) model.AggregatedSignal {
	rankOf := make(map[string]int, len(in.Documents))
	for _, d := range in.Documents {
		rankOf[d.ID] = d.Rank
	}

	signal := model.AggregatedSignal{
		CorpusSize: len(in.Documents),
		TargetID:   in.TargetID,
		Entities:   rankEntities(in, rankOf),
		Terms:      rankTerms(in),
	}
	signal.Gaps = detectGaps(in, signal)

	zap.L().Debug("aggregate: signal built",
		zap.Int("entity_clusters", len(signal.Entities)),
		zap.Int("terms", len(signal.Terms)),
		zap.Int("gaps", len(signal.Gaps)),
	)
	return signal
}

type clusterKey struct {
	text     string
	category model.EntityCategory
}

// rankEntities clusters mentions by (lowercased text, category). The
// combined score is the distinct-document coverage of the cluster; ties are
// broken by the earliest SERP rank among contributing documents, then by
// text and category for full determinism.
func rankEntities(in Input, rankOf map[string]int) []model.RankedEntity {
	clusters := make(map[clusterKey]*model.EntityCluster)

	for _, doc := range in.Documents {
		for _, ent := range in.Entities[doc.ID] {
			key := clusterKey{text: strings.ToLower(ent.Text), category: ent.Category}
			c, ok := clusters[key]
			if !ok {
				c = &model.EntityCluster{
					Text:     key.text,
					Category: key.category,
					BestRank: doc.Rank,
				}
				clusters[key] = c
			}
			if !contains(c.Documents, doc.ID) {
				c.Documents = append(c.Documents, doc.ID)
			}
			if doc.Rank < c.BestRank {
				c.BestRank = doc.Rank
			}
			if ent.Confidence > c.Confidence {
				c.Confidence = ent.Confidence
			}
			c.Mentions = append(c.Mentions, ent)
		}
	}

	out := make([]model.RankedEntity, 0, len(clusters))
	for _, c := range clusters {
		sort.Strings(c.Documents)
		out = append(out, model.RankedEntity{
			Cluster: *c,
			Score:   float64(len(c.Documents)),
		})
	}

	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if a.Cluster.BestRank != b.Cluster.BestRank {
			return a.Cluster.BestRank < b.Cluster.BestRank
		}
		if a.Cluster.Text != b.Cluster.Text {
			return a.Cluster.Text < b.Cluster.Text
		}
		return a.Cluster.Category < b.Cluster.Category
	})
	return out
}

// rankTerms normalizes each term's summed weight by corpus size so scores
// stay comparable as the corpus grows.
func rankTerms(in Input) []model.RankedTerm {
	n := len(in.Documents)
	if n == 0 {
		return nil
	}
	out := make([]model.RankedTerm, 0, len(in.Terms))
	for _, t := range in.Terms {
		out = append(out, model.RankedTerm{
			Term:  t,
			Score: t.Weight / float64(n),
		})
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if a.Term.DocumentFrequency != b.Term.DocumentFrequency {
			return a.Term.DocumentFrequency > b.Term.DocumentFrequency
		}
		return a.Term.Term < b.Term.Term
	})
	return out
}

// detectGaps finds signal present in at least the threshold number of
// competitor documents but absent from the target document. Without a
// designated target the gap list is empty.
func detectGaps(in Input, signal model.AggregatedSignal) []model.Gap {
	if in.TargetID == "" {
		return nil
	}

	competitors := 0
	for _, d := range in.Documents {
		if d.ID != in.TargetID {
			competitors++
		}
	}
	threshold := in.GapThreshold
	if threshold <= 0 {
		threshold = competitors/2 + 1
	}

	targetTerms := make(map[string]bool)
	for _, dt := range in.TermCounts {
		if dt.DocumentID != in.TargetID {
			continue
		}
		for term := range dt.Frequencies {
			targetTerms[term] = true
		}
	}
	targetEntities := make(map[clusterKey]bool)
	for _, ent := range in.Entities[in.TargetID] {
		targetEntities[clusterKey{text: strings.ToLower(ent.Text), category: ent.Category}] = true
	}

	var gaps []model.Gap
	for _, re := range signal.Entities {
		key := clusterKey{text: re.Cluster.Text, category: re.Cluster.Category}
		coverage := coverageExcluding(re.Cluster.Documents, in.TargetID)
		if coverage >= threshold && !targetEntities[key] {
			gaps = append(gaps, model.Gap{
				Kind:      model.GapEntity,
				Text:      re.Cluster.Text,
				Category:  re.Cluster.Category,
				Coverage:  coverage,
				Documents: excludeID(re.Cluster.Documents, in.TargetID),
			})
		}
	}
	for _, rt := range signal.Terms {
		coverage := coverageExcluding(rt.Term.SourceDocumentIDs, in.TargetID)
		if coverage >= threshold && !targetTerms[rt.Term.Term] {
			gaps = append(gaps, model.Gap{
				Kind:      model.GapTerm,
				Text:      rt.Term.Term,
				Coverage:  coverage,
				Documents: excludeID(rt.Term.SourceDocumentIDs, in.TargetID),
			})
		}
	}

	sort.SliceStable(gaps, func(i, j int) bool {
		if gaps[i].Coverage != gaps[j].Coverage {
			return gaps[i].Coverage > gaps[j].Coverage
		}
		if gaps[i].Kind != gaps[j].Kind {
			return gaps[i].Kind == model.GapEntity
		}
		return gaps[i].Text < gaps[j].Text
	})
	return gaps
}

func coverageExcluding(ids []string, targetID string) int {
	n := 0
	for _, id := range ids {
		if id != targetID {
			n++
		}
	}
	return n
}

func excludeID(ids []string, targetID string) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id != targetID {
			out = append(out, id)
		}
	}
	return out
}

func contains(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
