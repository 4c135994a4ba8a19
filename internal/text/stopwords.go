package text

import "strings"

// defaultStopwords is the built-in English stop list applied before term
// scoring. The lexicon file can extend it but not shrink it.
var defaultStopwords = []string{
	"a", "about", "above", "after", "again", "against", "all", "also", "am",
	"an", "and", "any", "are", "as", "at", "be", "because", "been", "before",
	"being", "below", "between", "both", "but", "by", "can", "cannot", "could",
	"did", "do", "does", "doing", "down", "during", "each", "few", "for",
	"from", "further", "get", "had", "has", "have", "having", "he", "her",
	"here", "hers", "him", "his", "how", "i", "if", "in", "into", "is", "it",
	"its", "itself", "just", "like", "make", "many", "may", "me", "might",
	"more", "most", "much", "must", "my", "no", "nor", "not", "now", "of",
	"off", "on", "once", "one", "only", "or", "other", "our", "ours", "out",
	"over", "own", "same", "she", "should", "so", "some", "such", "than",
	"that", "the", "their", "theirs", "them", "then", "there", "these", "they",
	"this", "those", "through", "to", "too", "under", "until", "up", "use",
	"used", "very", "was", "we", "were", "what", "when", "where", "which",
	"while", "who", "whom", "why", "will", "with", "would", "you", "your",
	"yours",
}

// Stopwords answers membership queries against the stop list.
type Stopwords struct {
	set map[string]struct{}
}

// NewStopwords builds the default stop list plus any extra words.
func NewStopwords(extra ...string) *Stopwords {
	set := make(map[string]struct{}, len(defaultStopwords)+len(extra))
	for _, w := range defaultStopwords {
		set[w] = struct{}{}
	}
	for _, w := range extra {
		w = strings.ToLower(strings.TrimSpace(w))
		if w != "" {
			set[w] = struct{}{}
		}
	}
	return &Stopwords{set: set}
}

// IsStop reports whether the lemma is a stop-word.
func (s *Stopwords) IsStop(lemma string) bool {
	_, ok := s.set[lemma]
	return ok
}

// Len returns the stop list size.
func (s *Stopwords) Len() int {
	return len(s.set)
}
