package model

// Document is one competitor page supplied by the SERP-fetching collaborator.
// It is immutable once ingested; the pipeline only reads it.
type Document struct {
	ID        string `json:"id"`
	SourceURL string `json:"source_url"`
	RawText   string `json:"raw_text"`
	Rank      int    `json:"rank"`
}

// PartOfSpeech is a coarse word class assigned by the tokenizer.
type PartOfSpeech string

const (
	POSWord   PartOfSpeech = "word"
	POSProper PartOfSpeech = "proper"
	POSNumber PartOfSpeech = "number"
)

// Token is a normalized unit of text. Surface retains the original casing
// for display; Lemma is the lowercased comparison form. Start and End are
// byte offsets into the owning document's RawText.
type Token struct {
	Surface string
	Lemma   string
	POS     PartOfSpeech
	Start   int
	End     int
}
