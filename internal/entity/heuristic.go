package entity

import (
	"context"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/sells-group/serp-brief/internal/model"
	"github.com/sells-group/serp-brief/internal/text"
)

// Category cue words checked against run tokens. A trailing organization
// suffix is the strongest signal; the rest are weaker contextual cues.
var (
	orgSuffixes = map[string]bool{
		"inc": true, "corp": true, "llc": true, "ltd": true, "co": true,
		"company": true, "corporation": true, "group": true, "labs": true,
		"technologies": true, "software": true, "systems": true,
		"solutions": true, "agency": true, "partners": true, "bank": true,
		"studio": true, "studios": true, "enterprises": true,
		"holdings": true, "foundation": true, "institute": true,
	}
	honorifics = map[string]bool{
		"mr": true, "mrs": true, "ms": true, "dr": true, "prof": true,
		"professor": true, "sir": true,
	}
	locationPreps = map[string]bool{
		"in": true, "at": true, "near": true, "across": true,
	}
	locationSuffixes = map[string]bool{
		"city": true, "county": true, "valley": true, "coast": true,
		"island": true, "bay": true, "beach": true, "district": true,
	}
)

// HeuristicExtractor detects entities from capitalization patterns and cue
// dictionaries. It is fully deterministic and needs no external service.
type HeuristicExtractor struct {
	minConfidence float64
	cues          map[model.EntityCategory]map[string]bool
}

// NewHeuristic creates a heuristic extractor. Candidates scoring below
// minConfidence are dropped. The lexicon may add per-category cue words.
func NewHeuristic(minConfidence float64, lex *text.Lexicon) *HeuristicExtractor {
	cues := make(map[model.EntityCategory]map[string]bool)
	if lex != nil {
		for cat, words := range lex.Cues {
			set := make(map[string]bool, len(words))
			for _, w := range words {
				set[strings.ToLower(w)] = true
			}
			cues[model.EntityCategory(strings.ToUpper(cat))] = set
		}
	}
	return &HeuristicExtractor{minConfidence: minConfidence, cues: cues}
}

// Extract scans for runs of capitalized tokens and classifies each run.
func (e *HeuristicExtractor) Extract(_ context.Context, doc model.Document, tokens []model.Token) ([]model.Entity, error) {
	var candidates []model.Entity

	i := 0
	for i < len(tokens) {
		if !startsRun(doc.RawText, tokens, i) {
			i++
			continue
		}
		j := i + 1
		for j < len(tokens) && continuesRun(doc.RawText, tokens[j-1], tokens[j]) {
			j++
		}
		run := tokens[i:j]
		cand := e.classify(doc, tokens, i, run)
		if cand != nil {
			candidates = append(candidates, *cand)
		}
		i = j
	}

	return filter(candidates, e.minConfidence), nil
}

// startsRun reports whether a capitalized run may begin at index i.
// Sentence-initial capitalized words only qualify when followed by another
// capitalized token, which keeps ordinary sentence openers out.
func startsRun(raw string, tokens []model.Token, i int) bool {
	t := tokens[i]
	if t.POS == model.POSProper {
		return true
	}
	if t.POS != model.POSWord || !isCapitalized(t.Surface) {
		return false
	}
	return i+1 < len(tokens) &&
		tokens[i+1].POS == model.POSProper &&
		joinable(raw, t, tokens[i+1])
}

// continuesRun requires the next token to be capitalized (or a number, for
// product names like "Model 3") and textually joinable to the previous one.
func continuesRun(raw string, prev, next model.Token) bool {
	if !joinable(raw, prev, next) {
		return false
	}
	if next.POS == model.POSNumber {
		return true
	}
	return isCapitalized(next.Surface)
}

// joinable tolerates at most two whitespace bytes between run tokens, so runs
// never leap across clause punctuation, sentence ends, or stripped markup.
// A period is allowed only after an honorific ("Dr. Smith").
func joinable(raw string, prev, next model.Token) bool {
	if next.Start-prev.End > 2 {
		return false
	}
	for _, r := range raw[prev.End:next.Start] {
		if unicode.IsSpace(r) {
			continue
		}
		if r == '.' && honorifics[prev.Lemma] {
			continue
		}
		return false
	}
	return true
}

func isCapitalized(s string) bool {
	r, _ := utf8.DecodeRuneInString(s)
	return unicode.IsUpper(r)
}

func (e *HeuristicExtractor) classify(doc model.Document, tokens []model.Token, start int, run []model.Token) *model.Entity {
	// A leading honorific names the person but is not part of the name.
	honorific := start > 0 && honorifics[tokens[start-1].Lemma]
	if len(run) > 1 && honorifics[run[0].Lemma] {
		run = run[1:]
		honorific = true
	}
	first, last := run[0], run[len(run)-1]

	category := model.CategoryOther
	confidence := 0.55

	switch {
	case orgSuffixes[last.Lemma]:
		category, confidence = model.CategoryOrg, 0.9
	case honorific:
		category, confidence = model.CategoryPerson, 0.85
	case locationSuffixes[last.Lemma]:
		category, confidence = model.CategoryLocation, 0.75
	case start > 0 && locationPreps[tokens[start-1].Lemma] && len(run) == 1:
		category, confidence = model.CategoryLocation, 0.6
	case last.POS == model.POSNumber || hasDigit(last.Surface):
		category, confidence = model.CategoryProduct, 0.65
	case len(run) >= 2:
		category, confidence = model.CategoryConcept, 0.6
	}

	// Lexicon cues override the built-in tables.
	for cat, words := range e.cues {
		for _, t := range run {
			if words[t.Lemma] {
				category, confidence = cat, 0.8
			}
		}
	}

	if first.Start >= last.End || last.End > len(doc.RawText) {
		return nil
	}
	return &model.Entity{
		Text:       doc.RawText[first.Start:last.End],
		Category:   category,
		DocumentID: doc.ID,
		Start:      first.Start,
		End:        last.End,
		Confidence: confidence,
	}
}

func hasDigit(s string) bool {
	for _, r := range s {
		if unicode.IsDigit(r) {
			return true
		}
	}
	return false
}
