package text

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/serp-brief/internal/model"
)

func surfaces(tokens []model.Token) []string {
	out := make([]string, len(tokens))
	for i, t := range tokens {
		out[i] = t.Surface
	}
	return out
}

func TestTokenize_PlainText(t *testing.T) {
	tokens := Tokenize("The quick brown fox")

	assert.Equal(t, []string{"The", "quick", "brown", "fox"}, surfaces(tokens))
	assert.Equal(t, "the", tokens[0].Lemma)
}

func TestTokenize_Empty(t *testing.T) {
	assert.Nil(t, Tokenize(""))
	assert.Nil(t, Tokenize("   \n\t  "))
}

func TestTokenize_StripsMarkup(t *testing.T) {
	tokens := Tokenize(`<html><body><p class="intro">Hello <b>world</b></p></body></html>`)

	assert.Equal(t, []string{"Hello", "world"}, surfaces(tokens))
}

func TestTokenize_DropsScriptAndStyleContent(t *testing.T) {
	raw := `<p>visible</p><script>var hidden = "nope";</script><style>.x{color:red}</style><p>also visible</p>`
	tokens := Tokenize(raw)

	assert.Equal(t, []string{"visible", "also", "visible"}, surfaces(tokens))
}

func TestTokenize_DropsComments(t *testing.T) {
	tokens := Tokenize(`before <!-- a hidden comment --> after`)

	assert.Equal(t, []string{"before", "after"}, surfaces(tokens))
}

func TestTokenize_OffsetsIndexRawText(t *testing.T) {
	raw := `<p>Acme <b>Corp</b> ships widgets</p>`
	tokens := Tokenize(raw)

	require.NotEmpty(t, tokens)
	for _, tok := range tokens {
		assert.Equal(t, tok.Surface, raw[tok.Start:tok.End],
			"span for %q must slice the original input", tok.Surface)
	}
}

func TestTokenize_OffsetsSurviveUnicode(t *testing.T) {
	raw := `<p>café — naïve résumé</p>`
	tokens := Tokenize(raw)

	require.Len(t, tokens, 3)
	for _, tok := range tokens {
		assert.Equal(t, tok.Surface, raw[tok.Start:tok.End])
	}
}

func TestTokenize_InnerPunctuation(t *testing.T) {
	tokens := Tokenize("don't use best-in-class 'quoted'")

	assert.Equal(t, []string{"don't", "use", "best-in-class", "quoted"}, surfaces(tokens))
}

func TestTokenize_PossessiveLemma(t *testing.T) {
	tokens := Tokenize("Acme's widgets")

	require.Len(t, tokens, 2)
	assert.Equal(t, "acme", tokens[0].Lemma)
	assert.Equal(t, "Acme's", tokens[0].Surface)
}

func TestTokenize_PartOfSpeech(t *testing.T) {
	tokens := Tokenize("The Salesforce platform costs 25 dollars. Yesterday it rained.")

	byLemma := map[string]model.PartOfSpeech{}
	for _, tok := range tokens {
		byLemma[tok.Lemma] = tok.POS
	}

	// Sentence-initial capitals are not proper nouns.
	assert.Equal(t, model.POSWord, byLemma["the"])
	assert.Equal(t, model.POSWord, byLemma["yesterday"])
	assert.Equal(t, model.POSProper, byLemma["salesforce"])
	assert.Equal(t, model.POSNumber, byLemma["25"])
}

func TestTokenize_Deterministic(t *testing.T) {
	raw := `<h1>CRM Guide</h1><p>Compare CRM software: pricing, features, support.</p>`
	first := Tokenize(raw)
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, Tokenize(raw))
	}
}

func TestTokenize_MarkupOnly(t *testing.T) {
	assert.Empty(t, Tokenize(`<div><span></span></div>`))
	assert.Empty(t, Tokenize(`<script>only code here</script>`))
}

func TestTokenize_UnterminatedTag(t *testing.T) {
	tokens := Tokenize("text before <div unterminated")

	assert.Equal(t, []string{"text", "before"}, surfaces(tokens))
}

func TestTokenize_SelfClosingDroppedContainer(t *testing.T) {
	tokens := Tokenize(`before <iframe src="x"/> after`)

	assert.Equal(t, []string{"before", "after"}, surfaces(tokens))
}

func TestTokenize_LargeInput(t *testing.T) {
	raw := strings.Repeat("<p>repeated block of words </p>", 2000)
	tokens := Tokenize(raw)

	assert.Len(t, tokens, 8000)
}

func TestIsNumeric(t *testing.T) {
	assert.True(t, isNumeric("42"))
	assert.True(t, isNumeric("3.14"))
	assert.True(t, isNumeric("1,000"))
	assert.False(t, isNumeric("v2"))
	assert.False(t, isNumeric("abc"))
	assert.False(t, isNumeric("-"))
}
