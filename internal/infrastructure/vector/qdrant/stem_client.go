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

// StemClient keeps one dense vector per persisted question stem. The
// deduplicator queries it to reject near-identical questions across requests
// and restarts.
type StemClient struct {
	baseURL    string
	collection string
	httpClient *http.Client

	ensureMu          sync.Mutex
	ensuredCollection bool
	ensuredVectorSize int
}

func NewStemClient(baseURL, collection string) *StemClient {
	return &StemClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		collection: collection,
		httpClient: &http.Client{Timeout: 60 * time.Second},
	}
}

func (c *StemClient) IndexStem(ctx context.Context, record domain.QuestionRecord) error {
	if len(record.StemVector) == 0 {
		return nil
	}
	if err := c.ensureCollection(ctx, len(record.StemVector)); err != nil {
		return err
	}

	body, err := json.Marshal(map[string]any{
		"points": []map[string]any{
			{
				"id":     record.ID,
				"vector": record.StemVector,
				"payload": map[string]any{
					"record_id": record.ID,
					"topic":     record.Topic,
					"stem":      record.Stem,
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("marshal stem upsert body: %w", err)
	}

	url := fmt.Sprintf("%s/collections/%s/points?wait=true", c.baseURL, c.collection)
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create stem upsert request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("stem upsert request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("stem upsert status: %s: %s", resp.Status, strings.TrimSpace(string(raw)))
	}
	return nil
}

func (c *StemClient) SearchStems(
	ctx context.Context,
	topic string,
	queryVector []float32,
	limit int,
) ([]domain.StemHit, error) {
	if len(queryVector) == 0 {
		return nil, nil
	}
	if limit <= 0 {
		limit = 8
	}

	reqBody := map[string]any{
		"query":        queryVector,
		"limit":        limit,
		"with_payload": true,
	}
	if strings.TrimSpace(topic) != "" {
		reqBody["filter"] = map[string]any{
			"must": []map[string]any{
				{
					"key": "topic",
					"match": map[string]any{
						"value": topic,
					},
				},
			},
		}
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshal stem query body: %w", err)
	}
	url := fmt.Sprintf("%s/collections/%s/points/query", c.baseURL, c.collection)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create stem query request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("stem query request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return nil, fmt.Errorf("stem query status: %s: %s", resp.Status, strings.TrimSpace(string(raw)))
	}

	points, err := decodeQueryPoints(resp.Body)
	if err != nil {
		return nil, err
	}
	out := make([]domain.StemHit, 0, len(points))
	for _, p := range points {
		out = append(out, domain.StemHit{
			RecordID: getStringPayload(p.Payload, "record_id"),
			Topic:    getStringPayload(p.Payload, "topic"),
			Score:    p.Score,
		})
	}
	return out, nil
}

func (c *StemClient) ensureCollection(ctx context.Context, vectorSize int) error {
	c.ensureMu.Lock()
	if c.ensuredCollection && c.ensuredVectorSize == vectorSize {
		c.ensureMu.Unlock()
		return nil
	}
	c.ensureMu.Unlock()

	body, err := json.Marshal(map[string]any{
		"vectors": map[string]any{
			"size":     vectorSize,
			"distance": "Cosine",
		},
	})
	if err != nil {
		return fmt.Errorf("marshal stem ensure collection body: %w", err)
	}

	url := fmt.Sprintf("%s/collections/%s", c.baseURL, c.collection)
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create stem ensure collection request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("stem ensure collection request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 && resp.StatusCode != http.StatusConflict {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("stem ensure collection status: %s: %s", resp.Status, strings.TrimSpace(string(raw)))
	}

	c.ensureMu.Lock()
	c.ensuredCollection = true
	c.ensuredVectorSize = vectorSize
	c.ensureMu.Unlock()
	return nil
}
