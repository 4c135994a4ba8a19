// Package terms computes corpus-level tf-idf term importance over n-grams.
package terms

import (
	"math"
	"sort"
	"strings"

	"github.com/sells-group/serp-brief/internal/model"
	"github.com/sells-group/serp-brief/internal/text"
)

// DocumentTerms holds per-document n-gram frequencies, produced independently
// per document so the counting stage can run concurrently.
type DocumentTerms struct {
	DocumentID  string
	Frequencies map[string]int
}

// Scorer computes smoothed tf-idf weights across a corpus.
type Scorer struct {
	ngramMin  int
	ngramMax  int
	minWeight float64
	stop      *text.Stopwords
}

// NewScorer creates a scorer for n-grams of length [ngramMin, ngramMax].
// Terms whose summed weight falls below minWeight are discarded entirely.
func NewScorer(ngramMin, ngramMax int, minWeight float64, stop *text.Stopwords) *Scorer {
	return &Scorer{
		ngramMin:  ngramMin,
		ngramMax:  ngramMax,
		minWeight: minWeight,
		stop:      stop,
	}
}

// CountDocument extracts candidate n-gram frequencies from one document's
// token sequence. Stop-words and pure-numeric tokens are removed before
// n-grams are formed.
func (s *Scorer) CountDocument(docID string, tokens []model.Token) DocumentTerms {
	lemmas := make([]string, 0, len(tokens))
	for _, t := range tokens {
		if t.POS == model.POSNumber {
			continue
		}
		if s.stop.IsStop(t.Lemma) {
			continue
		}
		lemmas = append(lemmas, t.Lemma)
	}

	freqs := make(map[string]int)
	for n := s.ngramMin; n <= s.ngramMax; n++ {
		for i := 0; i+n <= len(lemmas); i++ {
			freqs[strings.Join(lemmas[i:i+n], " ")]++
		}
	}
	return DocumentTerms{DocumentID: docID, Frequencies: freqs}
}

// Score combines per-document frequencies into corpus-level scored terms.
// idf is smoothed as ln((N+1)/(df+1))+1 so it never divides by zero and
// never goes negative when a term appears in every document. Ordering is
// deterministic: weight desc, then document frequency desc, then term asc.
func (s *Scorer) Score(perDoc []DocumentTerms) []model.ScoredTerm {
	n := len(perDoc)
	if n == 0 {
		return nil
	}

	df := make(map[string]int)
	docIDs := make(map[string][]string)
	for _, doc := range perDoc {
		for term := range doc.Frequencies {
			df[term]++
			docIDs[term] = append(docIDs[term], doc.DocumentID)
		}
	}

	idf := func(term string) float64 {
		return math.Log(float64(n+1)/float64(df[term]+1)) + 1
	}

	weights := make(map[string]float64, len(df))
	for _, doc := range perDoc {
		for term, tf := range doc.Frequencies {
			weights[term] += float64(tf) * idf(term)
		}
	}

	out := make([]model.ScoredTerm, 0, len(weights))
	for term, w := range weights {
		if w < s.minWeight {
			continue
		}
		ids := docIDs[term]
		sort.Strings(ids)
		out = append(out, model.ScoredTerm{
			Term:              term,
			Weight:            w,
			DocumentFrequency: df[term],
			SourceDocumentIDs: ids,
		})
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Weight != out[j].Weight {
			return out[i].Weight > out[j].Weight
		}
		if out[i].DocumentFrequency != out[j].DocumentFrequency {
			return out[i].DocumentFrequency > out[j].DocumentFrequency
		}
		return out[i].Term < out[j].Term
	})
	return out
}

// IDF exposes the smoothed idf component for a document frequency within a
// corpus of n documents.
func IDF(df, n int) float64 {
	return math.Log(float64(n+1)/float64(df+1)) + 1
}
