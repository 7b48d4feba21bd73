package usecase

import (
	"context"
	"fmt"
	"math"

	"github.com/lbarbosa/questora/internal/core/domain"
	"github.com/lbarbosa/questora/internal/core/ports"
)

// Deduplicator rejects stems too similar to ones already accepted. It checks
// the shared novelty cache first (cheap, covers concurrent requests), then
// the durable stem index.
type Deduplicator struct {
	cache     ports.NoveltyCache
	stemIndex ports.StemIndex
	threshold float64
	cacheSize int
}

func NewDeduplicator(cache ports.NoveltyCache, stemIndex ports.StemIndex, threshold float64, cacheSize int) *Deduplicator {
	if threshold <= 0 || threshold > 1 {
		threshold = 0.95
	}
	if cacheSize <= 0 {
		cacheSize = 50
	}
	return &Deduplicator{
		cache:     cache,
		stemIndex: stemIndex,
		threshold: threshold,
		cacheSize: cacheSize,
	}
}

// Check returns an ErrDuplicateQuestion error when the stem vector is within
// the similarity threshold of a known stem, nil when it is novel.
func (d *Deduplicator) Check(ctx context.Context, topic string, stemVector []float32) error {
	if len(stemVector) == 0 {
		return nil
	}

	if d.cache != nil {
		recent, err := d.cache.Recent(ctx, topic, d.cacheSize)
		if err != nil {
			return fmt.Errorf("novelty cache lookup: %w", err)
		}
		for _, entry := range recent {
			if sim := cosineSimilarity(stemVector, entry.Vector); sim >= d.threshold {
				return domain.WrapError(domain.ErrDuplicateQuestion, "dedupe question",
					fmt.Errorf("similaridade %.3f com questão recente %s", sim, entry.RecordID))
			}
		}
	}

	if d.stemIndex != nil {
		hits, err := d.stemIndex.SearchStems(ctx, topic, stemVector, 5)
		if err != nil {
			return fmt.Errorf("stem index lookup: %w", err)
		}
		for _, hit := range hits {
			if hit.Score >= d.threshold {
				return domain.WrapError(domain.ErrDuplicateQuestion, "dedupe question",
					fmt.Errorf("similaridade %.3f com questão %s", hit.Score, hit.RecordID))
			}
		}
	}
	return nil
}

// Remember publishes an accepted stem vector to the shared cache. Best
// effort: an error here never fails the request.
func (d *Deduplicator) Remember(ctx context.Context, topic string, entry domain.StemEmbedding) error {
	if d.cache == nil {
		return nil
	}
	return d.cache.Remember(ctx, topic, entry)
}

func cosineSimilarity(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
