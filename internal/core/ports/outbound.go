package ports

import (
	"context"
	"io"

	"github.com/lbarbosa/questora/internal/core/domain"
)

// DocumentRepository persists and reads source-document state.
type DocumentRepository interface {
	Create(ctx context.Context, doc *domain.SourceDocument) error
	GetByID(ctx context.Context, id string) (*domain.SourceDocument, error)
	UpdateStatus(ctx context.Context, id string, status domain.DocumentStatus, errMessage string) error
	SaveIndexStats(ctx context.Context, id string, stats domain.IndexStats) error
}

// ObjectStorage stores the raw source files.
type ObjectStorage interface {
	Save(ctx context.Context, key string, data io.Reader) error
	Open(ctx context.Context, key string) (io.ReadCloser, error)
}

// MessageQueue publishes/consumes upload events for asynchronous indexing.
type MessageQueue interface {
	PublishDocumentUploaded(ctx context.Context, documentID string) error
	SubscribeDocumentUploaded(ctx context.Context, handler func(context.Context, string) error) error
}

// ArticleExtractor turns a stored source document into legal articles,
// including repealed ones (flagged, not dropped; filtering is a caller choice).
type ArticleExtractor interface {
	Extract(ctx context.Context, doc *domain.SourceDocument) ([]domain.Article, error)
}

// Chunker splits one article into index-ready passages with deterministic
// fingerprint IDs. Same article text always yields the same passages.
type Chunker interface {
	Split(article domain.Article) []domain.Passage
}

// Embedder builds vectors for passages and query text.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// PassageIndex upserts passages into the search store and queries them.
// Upserts are keyed by the passage fingerprint and therefore idempotent.
type PassageIndex interface {
	UpsertPassages(ctx context.Context, passages []domain.Passage, vectors [][]float32) error
	Search(ctx context.Context, queryVector []float32, limit int, filter domain.SearchFilter) ([]domain.RetrievedPassage, error)
	SearchLexical(ctx context.Context, queryText string, limit int, filter domain.SearchFilter) ([]domain.RetrievedPassage, error)
}

// StemIndex stores stem embeddings of persisted questions for novelty checks.
type StemIndex interface {
	IndexStem(ctx context.Context, record domain.QuestionRecord) error
	SearchStems(ctx context.Context, topic string, queryVector []float32, limit int) ([]domain.StemHit, error)
}

// QuestionModel invokes the generative model with domain-specific prompts
// and returns the raw completion text.
type QuestionModel interface {
	GenerateQuestions(ctx context.Context, spec domain.GenerationSpec) (string, error)
	GenerateAnswer(ctx context.Context, spec domain.AnswerSpec) (string, error)
}

// QuestionRepository is the append-only store for accepted questions.
type QuestionRepository interface {
	Save(ctx context.Context, record *domain.QuestionRecord) (string, error)
	ListRecentStems(ctx context.Context, topic string, limit int) ([]string, error)
}

// NoveltyCache keeps recent stem embeddings per topic so concurrent
// generators share dedup state. Best effort: losing a write race means a
// near-duplicate may slip through, which is acceptable.
type NoveltyCache interface {
	Recent(ctx context.Context, topic string, limit int) ([]domain.StemEmbedding, error)
	Remember(ctx context.Context, topic string, entry domain.StemEmbedding) error
}
