package ai

// DocumentExtraction is the structured result of analyzing one document or
// document slice.
type DocumentExtraction struct {
	// PrimaryConcepts are the main thematic subjects, lowercase, 1-3 words.
	PrimaryConcepts []string

	// TechnicalTerms are domain vocabulary the document uses or defines.
	TechnicalTerms []string

	// Categories are broad subject-area assignments such as
	// "distributed systems" or "software engineering".
	Categories []string

	// Related maps a primary concept name to concepts the document
	// discusses alongside it.
	Related map[string][]string

	// Summary is a short prose abstract of the analyzed text.
	Summary string

	// Metadata holds bibliographic fields when the text exposes them.
	Metadata *DocumentMetadata
}

// DocumentMetadata captures bibliographic information found in a document.
type DocumentMetadata struct {
	Title      string
	Author     string
	Year       int
	Publisher  string
	Identifier string
}

// Expansion is the controlled-vocabulary neighborhood of a concept name.
type Expansion struct {
	Synonyms      []string
	BroaderTerms  []string
	NarrowerTerms []string
}

// IsEmpty reports whether the expansion carries no relations at all.
func (e *Expansion) IsEmpty() bool {
	return e == nil || (len(e.Synonyms) == 0 && len(e.BroaderTerms) == 0 && len(e.NarrowerTerms) == 0)
}
