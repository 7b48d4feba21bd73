package domain

import "time"

// Article is one legal article extracted from a source document, before
// chunking. Repealed provisions keep their text but are flagged as not in
// force so the index filter can exclude them.
type Article struct {
	LawTitle   string `json:"titulo"`
	Number     string `json:"numero"`
	Body       string `json:"conteudo"`
	InForce    bool   `json:"em_vigor"`
	SourceFile string `json:"arquivo_origem"`
	Position   int    `json:"posicao"`
}

// Passage is an index-ready unit of article text. ID is a fingerprint
// derived from the normalized text, so re-extraction of identical content
// produces the same ID and upserts overwrite instead of duplicating.
type Passage struct {
	ID            string    `json:"id"`
	DocumentID    string    `json:"document_id"`
	LawTitle      string    `json:"law_title"`
	ArticleNumber string    `json:"article_number"`
	ChunkIndex    int       `json:"chunk_index"`
	Text          string    `json:"text"`
	InForce       bool      `json:"in_force"`
	SourceFile    string    `json:"source_file"`
	ExtractedAt   time.Time `json:"extracted_at"`
}
