package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/lbarbosa/questora/internal/core/domain"
	"github.com/lbarbosa/questora/internal/core/ports"
)

type ProcessDocumentUseCase struct {
	repo      ports.DocumentRepository
	extractor ports.ArticleExtractor
	chunker   ports.Chunker
	embedder  ports.Embedder
	index     ports.PassageIndex

	// includeVetoed keeps out-of-force articles in the index (still flagged
	// em_vigor=false) instead of dropping them.
	includeVetoed bool
}

func NewProcessDocumentUseCase(
	repo ports.DocumentRepository,
	extractor ports.ArticleExtractor,
	chunker ports.Chunker,
	embedder ports.Embedder,
	index ports.PassageIndex,
	includeVetoed bool,
) *ProcessDocumentUseCase {
	return &ProcessDocumentUseCase{
		repo:          repo,
		extractor:     extractor,
		chunker:       chunker,
		embedder:      embedder,
		index:         index,
		includeVetoed: includeVetoed,
	}
}

func (uc *ProcessDocumentUseCase) ProcessByID(ctx context.Context, documentID string) error {
	_, err := uc.ProcessReturningStats(ctx, documentID)
	return err
}

func (uc *ProcessDocumentUseCase) ProcessReturningStats(ctx context.Context, documentID string) (domain.IndexStats, error) {
	if err := uc.repo.UpdateStatus(ctx, documentID, domain.StatusProcessing, ""); err != nil {
		return domain.IndexStats{}, fmt.Errorf("set status=processing: %w", err)
	}

	stats, err := uc.runPipeline(ctx, documentID)
	if err != nil {
		if failErr := uc.repo.UpdateStatus(ctx, documentID, domain.StatusFailed, err.Error()); failErr != nil {
			return domain.IndexStats{}, fmt.Errorf("%w; mark failed status: %v", err, failErr)
		}
		return domain.IndexStats{}, err
	}

	if err := uc.repo.SaveIndexStats(ctx, documentID, stats); err != nil {
		return domain.IndexStats{}, fmt.Errorf("save index stats: %w", err)
	}
	if err := uc.repo.UpdateStatus(ctx, documentID, domain.StatusIndexed, ""); err != nil {
		return domain.IndexStats{}, fmt.Errorf("set status=indexed: %w", err)
	}
	return stats, nil
}

func (uc *ProcessDocumentUseCase) runPipeline(ctx context.Context, documentID string) (domain.IndexStats, error) {
	doc, err := uc.repo.GetByID(ctx, documentID)
	if err != nil {
		return domain.IndexStats{}, fmt.Errorf("fetch document by id: %w", err)
	}

	articles, err := uc.extractor.Extract(ctx, doc)
	if err != nil {
		return domain.IndexStats{}, fmt.Errorf("extract articles: %w", err)
	}

	stats := domain.IndexStats{TotalArticles: len(articles)}
	if len(articles) > 0 {
		stats.LawTitle = articles[0].LawTitle
	}

	var passages []domain.Passage
	for _, article := range articles {
		if article.InForce {
			stats.InForce++
		} else {
			stats.Vetoed++
			if !uc.includeVetoed {
				continue
			}
		}
		for _, p := range uc.chunker.Split(article) {
			p.DocumentID = doc.ID
			passages = append(passages, p)
		}
	}
	if len(passages) == 0 {
		return domain.IndexStats{}, domain.WrapError(domain.ErrExtraction, "chunk articles", errors.New("no indexable passages"))
	}

	texts := make([]string, len(passages))
	for i, p := range passages {
		texts[i] = p.Text
	}
	vectors, err := uc.embedder.Embed(ctx, texts)
	if err != nil {
		return domain.IndexStats{}, fmt.Errorf("embed passages: %w", err)
	}
	if len(vectors) != len(passages) {
		return domain.IndexStats{}, domain.WrapError(
			domain.ErrEmbeddingUnavailable,
			"embed passages",
			fmt.Errorf("vectors/passages mismatch: %d/%d", len(vectors), len(passages)),
		)
	}

	if err := uc.index.UpsertPassages(ctx, passages, vectors); err != nil {
		return domain.IndexStats{}, fmt.Errorf("index passages: %w", err)
	}

	stats.PassagesStored = len(passages)
	return stats, nil
}
