package text

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/sells-group/serp-brief/internal/model"
)

// markup containers whose entire content is dropped, not just the tags.
var droppedContainers = map[string]bool{
	"script":   true,
	"style":    true,
	"noscript": true,
	"svg":      true,
	"head":     true,
	"template": true,
	"iframe":   true,
}

// segment is a run of textual content inside the raw input. Offsets index
// into the original string so token spans stay valid against it.
type segment struct {
	start int
	end   int
}

// Tokenize cleans a document's raw text and returns its ordered token
// sequence. Markup is stripped, whitespace runs collapse into token breaks,
// and every token carries byte offsets into the original raw text. Empty or
// non-textual input yields an empty sequence. Pure function, no side effects.
func Tokenize(raw string) []model.Token {
	if strings.TrimSpace(raw) == "" {
		return nil
	}

	var tokens []model.Token
	sentenceStart := true
	for _, seg := range textSegments(raw) {
		i := seg.start
		for i < seg.end {
			r, size := utf8.DecodeRuneInString(raw[i:])
			if !isWordRune(r) {
				if isSentenceBreak(r) {
					sentenceStart = true
				}
				i += size
				continue
			}
			start := i
			for i < seg.end {
				r, size = utf8.DecodeRuneInString(raw[i:])
				if !isWordRune(r) && !isInnerRune(r, raw, i, seg.end) {
					break
				}
				i += size
			}
			surface := strings.Trim(raw[start:i], "'-’")
			if surface == "" {
				sentenceStart = false
				continue
			}
			// Re-anchor offsets after trimming edge punctuation.
			tokStart := start + strings.Index(raw[start:i], surface)
			tokens = append(tokens, model.Token{
				Surface: surface,
				Lemma:   lemma(surface),
				POS:     partOfSpeech(surface, sentenceStart),
				Start:   tokStart,
				End:     tokStart + len(surface),
			})
			sentenceStart = false
		}
		sentenceStart = true
	}
	return tokens
}

// textSegments walks raw input and returns the runs of textual content,
// skipping tags and the full content of script/style-like containers. Input
// offsets are preserved, which is why this does not go through an HTML
// tokenizer: parsed trees lose the byte positions the span invariant needs.
func textSegments(raw string) []segment {
	if !strings.ContainsRune(raw, '<') {
		return []segment{{start: 0, end: len(raw)}}
	}

	var segs []segment
	var dropUntil string // closing tag name that ends a dropped container
	textStart := -1
	i := 0
	for i < len(raw) {
		if raw[i] != '<' {
			if dropUntil == "" && textStart < 0 {
				textStart = i
			}
			i++
			continue
		}
		if dropUntil == "" && textStart >= 0 {
			segs = append(segs, segment{start: textStart, end: i})
			textStart = -1
		}

		// Comments skip to their terminator.
		if strings.HasPrefix(raw[i:], "<!--") {
			end := strings.Index(raw[i+4:], "-->")
			if end < 0 {
				break
			}
			i += 4 + end + 3
			continue
		}

		close := strings.IndexByte(raw[i:], '>')
		if close < 0 {
			// Unterminated tag: treat the rest as non-text.
			break
		}
		tag := raw[i+1 : i+close]
		name, closing := tagName(tag)
		if dropUntil != "" {
			if closing && name == dropUntil {
				dropUntil = ""
			}
		} else if !closing && droppedContainers[name] && !strings.HasSuffix(tag, "/") {
			dropUntil = name
		}
		i += close + 1
	}
	if dropUntil == "" && textStart >= 0 {
		segs = append(segs, segment{start: textStart, end: len(raw)})
	}
	return segs
}

func tagName(tag string) (name string, closing bool) {
	tag = strings.TrimSpace(tag)
	if strings.HasPrefix(tag, "/") {
		closing = true
		tag = tag[1:]
	}
	for i, r := range tag {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			tag = tag[:i]
			break
		}
	}
	return strings.ToLower(tag), closing
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}

// isInnerRune allows apostrophes and hyphens inside a token but not at its
// edges ("don't", "best-in-class").
func isInnerRune(r rune, raw string, i, end int) bool {
	if r != '\'' && r != '-' && r != '’' {
		return false
	}
	next := i + utf8.RuneLen(r)
	if next >= end {
		return false
	}
	nr, _ := utf8.DecodeRuneInString(raw[next:])
	return isWordRune(nr)
}

func isSentenceBreak(r rune) bool {
	switch r {
	case '.', '!', '?', '\n', ':', ';':
		return true
	}
	return false
}

// lemma lowercases the surface and trims possessive suffixes. Deeper
// stemming is deliberately absent: identical input must always produce the
// identical comparison form.
func lemma(surface string) string {
	l := strings.ToLower(surface)
	l = strings.TrimSuffix(l, "'s")
	l = strings.TrimSuffix(l, "’s")
	return strings.TrimSuffix(l, "'")
}

func partOfSpeech(surface string, sentenceStart bool) model.PartOfSpeech {
	if isNumeric(surface) {
		return model.POSNumber
	}
	first, _ := utf8.DecodeRuneInString(surface)
	if unicode.IsUpper(first) && !sentenceStart {
		return model.POSProper
	}
	return model.POSWord
}

// isNumeric reports whether the token is purely numeric (digits plus
// separators), which term scoring excludes.
func isNumeric(s string) bool {
	hasDigit := false
	for _, r := range s {
		switch {
		case unicode.IsDigit(r):
			hasDigit = true
		case r == '.' || r == ',' || r == '-':
		default:
			return false
		}
	}
	return hasDigit
}
