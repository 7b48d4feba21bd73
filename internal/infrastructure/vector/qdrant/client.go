package qdrant

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/lbarbosa/questora/internal/core/domain"
)

const (
	denseVectorName  = "dense"
	sparseVectorName = "lexical"
)

// Client stores legislation passages in a Qdrant collection with a dense
// vector for semantic search and a sparse one for lexical search. Point IDs
// are the passage fingerprints, so re-indexing the same content overwrites
// instead of duplicating.
type Client struct {
	baseURL    string
	collection string
	httpClient *http.Client

	ensureMu          sync.Mutex
	ensuredCollection bool
	ensuredVectorSize int
}

func New(baseURL, collection string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		collection: collection,
		httpClient: &http.Client{Timeout: 60 * time.Second},
	}
}

func (c *Client) UpsertPassages(ctx context.Context, passages []domain.Passage, vectors [][]float32) error {
	if len(passages) == 0 || len(vectors) == 0 {
		return nil
	}
	if len(passages) != len(vectors) {
		return fmt.Errorf("passages/vectors mismatch: %d vs %d", len(passages), len(vectors))
	}

	if err := c.ensureCollection(ctx, len(vectors[0])); err != nil {
		return err
	}

	type point struct {
		ID      string         `json:"id"`
		Vector  map[string]any `json:"vector"`
		Payload map[string]any `json:"payload"`
	}

	points := make([]point, 0, len(passages))
	for i, p := range passages {
		points = append(points, point{
			ID: p.ID,
			Vector: map[string]any{
				denseVectorName:  vectors[i],
				sparseVectorName: encodeSparsePassage(p.Text, p.ArticleNumber),
			},
			Payload: map[string]any{
				"doc_id":         p.DocumentID,
				"law_title":      p.LawTitle,
				"article_number": p.ArticleNumber,
				"chunk_index":    p.ChunkIndex,
				"text":           p.Text,
				"em_vigor":       p.InForce,
				"source_file":    p.SourceFile,
			},
		})
	}

	reqBody := map[string]any{"points": points}
	body, err := json.Marshal(reqBody)
	if err != nil {
		return fmt.Errorf("marshal upsert body: %w", err)
	}

	url := fmt.Sprintf("%s/collections/%s/points?wait=true", c.baseURL, c.collection)
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create upsert request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("qdrant upsert request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("qdrant upsert status: %s: %s", resp.Status, strings.TrimSpace(string(raw)))
	}
	return nil
}

func (c *Client) Search(
	ctx context.Context,
	queryVector []float32,
	limit int,
	filter domain.SearchFilter,
) ([]domain.RetrievedPassage, error) {
	if len(queryVector) == 0 {
		return nil, nil
	}
	reqBody := map[string]any{
		"query":        queryVector,
		"using":        denseVectorName,
		"limit":        limit,
		"with_payload": true,
	}
	return c.queryPoints(ctx, reqBody, filter)
}

func (c *Client) SearchLexical(
	ctx context.Context,
	queryText string,
	limit int,
	filter domain.SearchFilter,
) ([]domain.RetrievedPassage, error) {
	sparse := encodeSparseQuery(queryText)
	if len(sparse.Indices) == 0 {
		return nil, nil
	}
	reqBody := map[string]any{
		"query":        sparse,
		"using":        sparseVectorName,
		"limit":        limit,
		"with_payload": true,
	}
	return c.queryPoints(ctx, reqBody, filter)
}

func (c *Client) queryPoints(ctx context.Context, reqBody map[string]any, filter domain.SearchFilter) ([]domain.RetrievedPassage, error) {
	if f := buildPassageFilter(filter); f != nil {
		reqBody["filter"] = f
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshal query body: %w", err)
	}

	url := fmt.Sprintf("%s/collections/%s/points/query", c.baseURL, c.collection)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create query request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("qdrant query request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return nil, fmt.Errorf("qdrant query status: %s: %s", resp.Status, strings.TrimSpace(string(raw)))
	}

	points, err := decodeQueryPoints(resp.Body)
	if err != nil {
		return nil, err
	}

	out := make([]domain.RetrievedPassage, 0, len(points))
	for _, p := range points {
		out = append(out, domain.RetrievedPassage{
			PassageID:     p.ID,
			DocumentID:    getStringPayload(p.Payload, "doc_id"),
			LawTitle:      getStringPayload(p.Payload, "law_title"),
			ArticleNumber: getStringPayload(p.Payload, "article_number"),
			SourceFile:    getStringPayload(p.Payload, "source_file"),
			ChunkIndex:    getIntPayload(p.Payload, "chunk_index"),
			InForce:       getBoolPayload(p.Payload, "em_vigor"),
			Text:          getStringPayload(p.Payload, "text"),
			Score:         p.Score,
		})
	}
	return out, nil
}

func buildPassageFilter(filter domain.SearchFilter) map[string]any {
	var must []map[string]any
	if filter.LawTitle != "" {
		must = append(must, map[string]any{
			"key": "law_title",
			"match": map[string]any{
				"value": filter.LawTitle,
			},
		})
	}
	if filter.OnlyInForce {
		must = append(must, map[string]any{
			"key": "em_vigor",
			"match": map[string]any{
				"value": true,
			},
		})
	}
	if len(must) == 0 {
		return nil
	}
	return map[string]any{"must": must}
}

func (c *Client) ensureCollection(ctx context.Context, vectorSize int) error {
	c.ensureMu.Lock()
	if c.ensuredCollection && c.ensuredVectorSize == vectorSize {
		c.ensureMu.Unlock()
		return nil
	}
	c.ensureMu.Unlock()

	reqBody := map[string]any{
		"vectors": map[string]any{
			denseVectorName: map[string]any{
				"size":     vectorSize,
				"distance": "Cosine",
			},
		},
		"sparse_vectors": map[string]any{
			sparseVectorName: map[string]any{},
		},
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return fmt.Errorf("marshal create collection body: %w", err)
	}

	url := fmt.Sprintf("%s/collections/%s", c.baseURL, c.collection)
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create collection request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("qdrant ensure collection request: %w", err)
	}
	defer resp.Body.Close()

	// 200/201 for create, 409 if already exists (depends on version/config).
	if resp.StatusCode == http.StatusConflict {
		c.markCollectionEnsured(vectorSize)
		return nil
	}
	if resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		if msg := strings.TrimSpace(string(raw)); msg != "" {
			return fmt.Errorf("qdrant ensure collection status: %s: %s", resp.Status, msg)
		}
		return fmt.Errorf("qdrant ensure collection status: %s", resp.Status)
	}
	c.markCollectionEnsured(vectorSize)
	return nil
}

func (c *Client) markCollectionEnsured(vectorSize int) {
	c.ensureMu.Lock()
	defer c.ensureMu.Unlock()
	c.ensuredCollection = true
	c.ensuredVectorSize = vectorSize
}

type queryPoint struct {
	ID      string
	Score   float64
	Payload map[string]any
}

func decodeQueryPoints(r io.Reader) ([]queryPoint, error) {
	var queryResp struct {
		Result struct {
			Points []struct {
				ID      any            `json:"id"`
				Score   float64        `json:"score"`
				Payload map[string]any `json:"payload"`
			} `json:"points"`
		} `json:"result"`
	}
	if err := json.NewDecoder(r).Decode(&queryResp); err != nil {
		return nil, fmt.Errorf("decode query response: %w", err)
	}

	out := make([]queryPoint, 0, len(queryResp.Result.Points))
	for _, p := range queryResp.Result.Points {
		out = append(out, queryPoint{
			ID:      fmt.Sprintf("%v", p.ID),
			Score:   p.Score,
			Payload: p.Payload,
		})
	}
	return out, nil
}

func getStringPayload(payload map[string]any, key string) string {
	v, ok := payload[key]
	if !ok {
		return ""
	}
	s, ok := v.(string)
	if ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}

func getIntPayload(payload map[string]any, key string) int {
	v, ok := payload[key]
	if !ok {
		return 0
	}
	switch n := v.(type) {
	case float64:
		return int(n)
	case int:
		return n
	default:
		return 0
	}
}

func getBoolPayload(payload map[string]any, key string) bool {
	v, ok := payload[key]
	if !ok {
		return false
	}
	b, ok := v.(bool)
	return ok && b
}
