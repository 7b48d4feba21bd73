package usecase

import (
	"fmt"
	"sort"

	"github.com/lbarbosa/questora/internal/core/domain"
)

type fusedCandidate struct {
	passage domain.RetrievedPassage
	score   float64
}

func fuseCandidatesRRF(semantic, lexical []domain.RetrievedPassage, rrfK int) []domain.RetrievedPassage {
	if rrfK <= 0 {
		rrfK = 60
	}

	acc := make(map[string]fusedCandidate, len(semantic)+len(lexical))
	addList := func(passages []domain.RetrievedPassage) {
		for rank, passage := range passages {
			key := retrievalPassageKey(passage)
			candidate := acc[key]
			candidate.passage = preferRicherPassage(candidate.passage, passage)
			candidate.score += 1.0 / float64(rrfK+rank+1)
			acc[key] = candidate
		}
	}

	addList(semantic)
	addList(lexical)

	out := make([]domain.RetrievedPassage, 0, len(acc))
	for _, c := range acc {
		passage := c.passage
		passage.Score = c.score
		out = append(out, passage)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		if out[i].DocumentID != out[j].DocumentID {
			return out[i].DocumentID < out[j].DocumentID
		}
		if out[i].ChunkIndex != out[j].ChunkIndex {
			return out[i].ChunkIndex < out[j].ChunkIndex
		}
		return out[i].PassageID < out[j].PassageID
	})

	return out
}

func trimCandidates(passages []domain.RetrievedPassage, limit int) []domain.RetrievedPassage {
	if limit <= 0 || len(passages) <= limit {
		return passages
	}
	return passages[:limit]
}

func retrievalPassageKey(passage domain.RetrievedPassage) string {
	if passage.PassageID != "" {
		return passage.PassageID
	}
	return fmt.Sprintf("%s|%s|%d", passage.DocumentID, passage.ArticleNumber, passage.ChunkIndex)
}

func preferRicherPassage(current, candidate domain.RetrievedPassage) domain.RetrievedPassage {
	if current.PassageID == "" && current.Text == "" {
		return candidate
	}
	if current.Text == "" && candidate.Text != "" {
		current.Text = candidate.Text
	}
	if current.LawTitle == "" && candidate.LawTitle != "" {
		current.LawTitle = candidate.LawTitle
	}
	if current.ArticleNumber == "" && candidate.ArticleNumber != "" {
		current.ArticleNumber = candidate.ArticleNumber
	}
	if current.DocumentID == "" && candidate.DocumentID != "" {
		current.DocumentID = candidate.DocumentID
	}
	current.InForce = current.InForce || candidate.InForce
	return current
}
