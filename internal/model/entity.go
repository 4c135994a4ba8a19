package model

// EntityCategory classifies a detected entity.
type EntityCategory string

const (
	CategoryOrg      EntityCategory = "ORG"
	CategoryPerson   EntityCategory = "PERSON"
	CategoryProduct  EntityCategory = "PRODUCT"
	CategoryLocation EntityCategory = "LOCATION"
	CategoryConcept  EntityCategory = "CONCEPT"
	CategoryOther    EntityCategory = "OTHER"
)

// AllEntityCategories returns the fixed category taxonomy.
func AllEntityCategories() []EntityCategory {
	return []EntityCategory{
		CategoryOrg,
		CategoryPerson,
		CategoryProduct,
		CategoryLocation,
		CategoryConcept,
		CategoryOther,
	}
}

// Entity is a named entity detected in one document. Start and End are byte
// offsets into the owning document's RawText and must reference a valid range.
type Entity struct {
	Text       string         `json:"text"`
	Category   EntityCategory `json:"category"`
	DocumentID string         `json:"document_id"`
	Start      int            `json:"start"`
	End        int            `json:"end"`
	Confidence float64        `json:"confidence"`
}
