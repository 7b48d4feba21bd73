package domain

type SearchFilter struct {
	LawTitle    string
	OnlyInForce bool
}

type RetrievedPassage struct {
	PassageID     string  `json:"passage_id"`
	DocumentID    string  `json:"document_id"`
	LawTitle      string  `json:"law_title"`
	ArticleNumber string  `json:"article_number"`
	SourceFile    string  `json:"source_file"`
	ChunkIndex    int     `json:"chunk_index"`
	InForce       bool    `json:"in_force"`
	Text          string  `json:"text"`
	Score         float64 `json:"score"`
}

// StemHit is a similarity match against a previously persisted question stem.
type StemHit struct {
	RecordID string
	Topic    string
	Score    float64
}

// StemEmbedding is a cached stem vector used for novelty checks.
type StemEmbedding struct {
	RecordID string    `json:"record_id"`
	Vector   []float32 `json:"vector"`
}
