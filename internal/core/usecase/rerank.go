package usecase

import (
	"sort"
	"strings"
	"unicode"

	"github.com/lbarbosa/questora/internal/core/domain"
)

func rerankHybridCandidates(query string, fused []domain.RetrievedPassage, topN int) []domain.RetrievedPassage {
	if len(fused) == 0 {
		return fused
	}
	if topN <= 0 || topN > len(fused) {
		topN = len(fused)
	}

	head := make([]domain.RetrievedPassage, topN)
	copy(head, fused[:topN])
	queryTokens := toTokenSet(query)

	minScore := head[0].Score
	maxScore := head[0].Score
	for _, passage := range head[1:] {
		if passage.Score < minScore {
			minScore = passage.Score
		}
		if passage.Score > maxScore {
			maxScore = passage.Score
		}
	}

	rangeScore := maxScore - minScore
	normalize := func(v float64) float64 {
		if rangeScore <= 0 {
			if v > 0 {
				return 1
			}
			return 0
		}
		return (v - minScore) / rangeScore
	}

	for i := range head {
		normalizedFused := normalize(head[i].Score)
		overlap := tokenOverlap(queryTokens, toTokenSet(head[i].Text))
		articleBoost := articleTokenHit(queryTokens, head[i].LawTitle, head[i].ArticleNumber)
		head[i].Score = 0.60*normalizedFused + 0.30*overlap + 0.10*articleBoost
	}

	sort.SliceStable(head, func(i, j int) bool {
		if head[i].Score != head[j].Score {
			return head[i].Score > head[j].Score
		}
		if head[i].DocumentID != head[j].DocumentID {
			return head[i].DocumentID < head[j].DocumentID
		}
		if head[i].ChunkIndex != head[j].ChunkIndex {
			return head[i].ChunkIndex < head[j].ChunkIndex
		}
		return head[i].PassageID < head[j].PassageID
	})

	if topN == len(fused) {
		return head
	}

	out := make([]domain.RetrievedPassage, 0, len(fused))
	out = append(out, head...)
	out = append(out, fused[topN:]...)
	return out
}

func tokenOverlap(query, passage map[string]struct{}) float64 {
	if len(query) == 0 || len(passage) == 0 {
		return 0
	}
	matches := 0
	for token := range query {
		if _, ok := passage[token]; ok {
			matches++
		}
	}
	return float64(matches) / float64(len(query))
}

func articleTokenHit(query map[string]struct{}, lawTitle, articleNumber string) float64 {
	if len(query) == 0 {
		return 0
	}
	haystack := strings.ToLower(lawTitle + " " + articleNumber)
	if haystack == " " {
		return 0
	}
	for token := range query {
		if token == "" {
			continue
		}
		if strings.Contains(haystack, token) {
			return 1
		}
	}
	return 0
}

func toTokenSet(s string) map[string]struct{} {
	tokens := splitAlphaNumLower(s)
	out := make(map[string]struct{}, len(tokens))
	for _, token := range tokens {
		out[token] = struct{}{}
	}
	return out
}

func splitAlphaNumLower(s string) []string {
	if s == "" {
		return nil
	}

	tokens := make([]string, 0, 16)
	var b strings.Builder
	for _, r := range s {
		r = unicode.ToLower(r)
		r = foldRune(r)
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
			continue
		}
		if b.Len() > 0 {
			tokens = append(tokens, b.String())
			b.Reset()
		}
	}
	if b.Len() > 0 {
		tokens = append(tokens, b.String())
	}
	return tokens
}

// foldRune maps the Portuguese accented vowels and cedilla onto their ASCII
// base so overlap scoring survives inconsistent accenting in queries.
func foldRune(r rune) rune {
	switch r {
	case 'á', 'à', 'â', 'ã', 'ä':
		return 'a'
	case 'é', 'ê', 'è', 'ë':
		return 'e'
	case 'í', 'ì', 'î', 'ï':
		return 'i'
	case 'ó', 'ô', 'õ', 'ò', 'ö':
		return 'o'
	case 'ú', 'ù', 'û', 'ü':
		return 'u'
	case 'ç':
		return 'c'
	default:
		return r
	}
}
