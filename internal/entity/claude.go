package entity

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sells-group/serp-brief/internal/model"
	"github.com/sells-group/serp-brief/pkg/anthropic"
)

const claudeSystemPrompt = `You are a named-entity tagger. Given a document,
return a JSON array of objects with fields "text" (the exact entity string as
it appears), "category" (one of ORG, PERSON, PRODUCT, LOCATION, CONCEPT,
OTHER) and "confidence" (0 to 1). Return only the JSON array.`

// maxDocumentChars bounds how much raw text goes into a single request.
const maxDocumentChars = 12000

// ClaudeExtractor detects entities with a Claude model. Spans are anchored
// back into the document text; mentions the model invents are dropped. Any
// transport or API failure surfaces as ErrUnavailable so the pipeline can
// degrade to term-only signal.
type ClaudeExtractor struct {
	client        anthropic.Client
	model         string
	minConfidence float64
	limiter       *rate.Limiter
}

// NewClaude creates a Claude-backed extractor rate-limited to rps requests
// per second.
func NewClaude(client anthropic.Client, modelID string, minConfidence, rps float64) *ClaudeExtractor {
	if rps <= 0 {
		rps = 1
	}
	return &ClaudeExtractor{
		client:        client,
		model:         modelID,
		minConfidence: minConfidence,
		limiter:       rate.NewLimiter(rate.Limit(rps), 1),
	}
}

type claudeMention struct {
	Text       string  `json:"text"`
	Category   string  `json:"category"`
	Confidence float64 `json:"confidence"`
}

// Extract asks the model to tag the document and anchors each mention to its
// first occurrence in the raw text.
func (e *ClaudeExtractor) Extract(ctx context.Context, doc model.Document, _ []model.Token) ([]model.Entity, error) {
	if err := e.limiter.Wait(ctx); err != nil {
		return nil, eris.Wrap(err, "claude extractor: rate limit wait")
	}

	input := doc.RawText
	if len(input) > maxDocumentChars {
		input = input[:maxDocumentChars]
	}

	resp, err := e.client.CreateMessage(ctx, anthropic.MessageRequest{
		Model:     e.model,
		MaxTokens: 2048,
		System:    claudeSystemPrompt,
		Messages: []anthropic.Message{
			{Role: "user", Content: input},
		},
	})
	if err != nil {
		return nil, eris.Wrap(ErrUnavailable, err.Error())
	}

	mentions, err := parseMentions(resp.Text())
	if err != nil {
		zap.L().Warn("claude extractor: unparseable response",
			zap.String("document_id", doc.ID),
			zap.Error(err),
		)
		return nil, nil
	}

	var candidates []model.Entity
	for _, m := range mentions {
		if m.Text == "" {
			continue
		}
		idx := strings.Index(doc.RawText, m.Text)
		if idx < 0 {
			continue
		}
		candidates = append(candidates, model.Entity{
			Text:       m.Text,
			Category:   normalizeCategory(m.Category),
			DocumentID: doc.ID,
			Start:      idx,
			End:        idx + len(m.Text),
			Confidence: m.Confidence,
		})
	}
	return filter(candidates, e.minConfidence), nil
}

// parseMentions tolerates a fenced code block around the JSON array.
func parseMentions(raw string) ([]claudeMention, error) {
	raw = strings.TrimSpace(raw)
	raw = strings.TrimPrefix(raw, "```json")
	raw = strings.TrimPrefix(raw, "```")
	raw = strings.TrimSuffix(raw, "```")
	raw = strings.TrimSpace(raw)

	var mentions []claudeMention
	if err := json.Unmarshal([]byte(raw), &mentions); err != nil {
		return nil, eris.Wrap(err, "claude extractor: decode mentions")
	}
	return mentions, nil
}

func normalizeCategory(raw string) model.EntityCategory {
	cat := model.EntityCategory(strings.ToUpper(strings.TrimSpace(raw)))
	for _, known := range model.AllEntityCategories() {
		if cat == known {
			return cat
		}
	}
	return model.CategoryOther
}
