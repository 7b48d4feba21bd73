package ports

import (
	"context"
	"io"

	"github.com/lbarbosa/questora/internal/core/domain"
)

// DocumentIngestor is the inbound contract for source-document upload.
type DocumentIngestor interface {
	Upload(ctx context.Context, filename, mimeType string, body io.Reader) (*domain.SourceDocument, error)
}

// DocumentProcessor is the inbound contract for asynchronous indexing of a
// single uploaded document.
type DocumentProcessor interface {
	ProcessByID(ctx context.Context, documentID string) error
}

// FolderIndexer runs the offline batch pipeline over a folder of PDFs.
type FolderIndexer interface {
	IndexFolder(ctx context.Context, dir string) (*domain.BatchReport, error)
}

// DocumentReader is the inbound read model for document state.
type DocumentReader interface {
	GetByID(ctx context.Context, id string) (*domain.SourceDocument, error)
}

// QuestionService generates exam questions and answers submitted ones.
type QuestionService interface {
	Generate(ctx context.Context, req domain.GenerateQuestionsRequest) (*domain.GenerateQuestionsResult, error)
	Answer(ctx context.Context, req domain.AnswerRequest) (*domain.Answer, error)
}
