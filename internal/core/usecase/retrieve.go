package usecase

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/lbarbosa/questora/internal/core/domain"
	"github.com/lbarbosa/questora/internal/core/ports"
)

// lawSynonyms expands the shorthand candidates actually type into the names
// used inside statute headings, so lexical search still hits.
var lawSynonyms = map[string][]string{
	"lindb":             {"lei de introdução às normas do direito brasileiro", "decreto-lei 4.657"},
	"código civil":      {"lei 10.406"},
	"codigo civil":      {"lei 10.406"},
	"cf":                {"constituição federal", "constituição da república"},
	"cf/88":             {"constituição federal de 1988"},
	"estatuto":          {"lei 8.112", "regime jurídico dos servidores"},
	"lei de licitações": {"lei 14.133", "lei 8.666"},
	"improbidade":       {"lei 8.429"},
}

type RetrieverConfig struct {
	TopK           int
	TopKCeiling    int
	ScoreThreshold float64
	Candidates     int
	RRFK           int
	// ZeroContextPolicy "fallback" retries once with the threshold halved
	// when nothing clears it; "refuse" (default) does not.
	ZeroContextPolicy string
}

func (c RetrieverConfig) normalize() RetrieverConfig {
	out := c
	if out.TopK <= 0 {
		out.TopK = 5
	}
	if out.TopKCeiling <= 0 {
		out.TopKCeiling = 10
	}
	if out.TopK > out.TopKCeiling {
		out.TopK = out.TopKCeiling
	}
	if out.ScoreThreshold <= 0 {
		out.ScoreThreshold = 0.5
	}
	if out.Candidates <= 0 {
		out.Candidates = 30
	}
	if out.RRFK <= 0 {
		out.RRFK = 60
	}
	return out
}

// Retriever runs hybrid retrieval over the passage index: dense and lexical
// searches fused with reciprocal-rank fusion, reranked by token overlap, with
// in-force passages preferred over vetoed ones of equal standing.
type Retriever struct {
	embedder ports.Embedder
	index    ports.PassageIndex
	cfg      RetrieverConfig
}

func NewRetriever(embedder ports.Embedder, index ports.PassageIndex, cfg RetrieverConfig) *Retriever {
	return &Retriever{
		embedder: embedder,
		index:    index,
		cfg:      cfg.normalize(),
	}
}

func (r *Retriever) Retrieve(ctx context.Context, query string, topK int, filter domain.SearchFilter) ([]domain.RetrievedPassage, error) {
	if topK <= 0 {
		topK = r.cfg.TopK
	}
	if topK > r.cfg.TopKCeiling {
		topK = r.cfg.TopKCeiling
	}

	expanded := expandQuery(query)

	hits, err := r.search(ctx, expanded, filter, r.cfg.ScoreThreshold)
	if err != nil {
		return nil, err
	}
	if len(hits) == 0 && r.cfg.ZeroContextPolicy == "fallback" {
		hits, err = r.search(ctx, expanded, filter, r.cfg.ScoreThreshold/2)
		if err != nil {
			return nil, err
		}
	}

	hits = preferInForce(hits)
	return trimCandidates(hits, topK), nil
}

func (r *Retriever) search(ctx context.Context, query string, filter domain.SearchFilter, threshold float64) ([]domain.RetrievedPassage, error) {
	queryVector, err := r.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	dense, err := r.index.Search(ctx, queryVector, r.cfg.Candidates, filter)
	if err != nil {
		return nil, fmt.Errorf("dense search: %w", err)
	}
	dense = applyScoreThreshold(dense, threshold)
	if len(dense) == 0 {
		// The cosine threshold is the relevance gate. Sparse scores are not
		// comparable to it, so lexical matches alone do not establish context.
		return nil, nil
	}

	lexical, err := r.index.SearchLexical(ctx, query, r.cfg.Candidates, filter)
	if err != nil {
		return nil, fmt.Errorf("lexical search: %w", err)
	}

	fused := fuseCandidatesRRF(dense, lexical, r.cfg.RRFK)
	return rerankHybridCandidates(query, fused, len(fused)), nil
}

func applyScoreThreshold(hits []domain.RetrievedPassage, threshold float64) []domain.RetrievedPassage {
	if threshold <= 0 {
		return hits
	}
	out := hits[:0:0]
	for _, hit := range hits {
		if hit.Score >= threshold {
			out = append(out, hit)
		}
	}
	return out
}

// preferInForce stably moves in-force passages ahead of vetoed ones so a
// vetoed text only reaches the prompt when nothing current covers the topic.
func preferInForce(hits []domain.RetrievedPassage) []domain.RetrievedPassage {
	if len(hits) < 2 {
		return hits
	}
	out := make([]domain.RetrievedPassage, 0, len(hits))
	for _, h := range hits {
		if h.InForce {
			out = append(out, h)
		}
	}
	for _, h := range hits {
		if !h.InForce {
			out = append(out, h)
		}
	}
	return out
}

func expandQuery(query string) string {
	lowered := strings.ToLower(query)
	var extra []string
	for shorthand, expansions := range lawSynonyms {
		if strings.Contains(lowered, shorthand) {
			extra = append(extra, expansions...)
		}
	}
	if len(extra) == 0 {
		return query
	}
	sort.Strings(extra)
	return query + " " + strings.Join(extra, " ")
}
