package ollama

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/lbarbosa/questora/internal/core/domain"
	"github.com/lbarbosa/questora/internal/infrastructure/resilience"
)

type Client struct {
	baseURL    string
	genModel   string
	embedModel string
	httpClient *http.Client
	executor   *resilience.Executor
}

type ClientOptions struct {
	Timeout            time.Duration
	ResilienceExecutor *resilience.Executor
}

func New(baseURL, genModel, embedModel string) *Client {
	return NewWithOptions(baseURL, genModel, embedModel, ClientOptions{})
}

func NewWithOptions(baseURL, genModel, embedModel string, options ClientOptions) *Client {
	timeout := options.Timeout
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		genModel:   genModel,
		embedModel: embedModel,
		httpClient: &http.Client{Timeout: timeout},
		executor:   options.ResilienceExecutor,
	}
}

func (c *Client) GenModel() string { return c.genModel }

// Embedder builds passage and query vectors through /api/embed.
type Embedder struct {
	client *Client
}

func NewEmbedder(client *Client) *Embedder {
	return &Embedder{client: client}
}

func (e *Embedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	request := map[string]any{
		"model": e.client.embedModel,
		"input": texts,
	}

	var response struct {
		Embeddings [][]float32 `json:"embeddings"`
	}
	if err := e.client.call(ctx, "ollama.embed", "/api/embed", request, &response); err != nil {
		return nil, wrapEmbeddingUnavailable(err)
	}
	if len(response.Embeddings) != len(texts) {
		return nil, domain.WrapError(domain.ErrEmbeddingUnavailable, "ollama.embed",
			fmt.Errorf("expected %d vectors, got %d", len(texts), len(response.Embeddings)))
	}
	return response.Embeddings, nil
}

func (e *Embedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	vectors, err := e.Embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(vectors) == 0 {
		return nil, domain.WrapError(domain.ErrEmbeddingUnavailable, "ollama.embed", fmt.Errorf("empty embedding result"))
	}
	return vectors[0], nil
}

// Generator drives /api/generate with exam-board prompts and JSON output
// forced through Ollama's format option.
type Generator struct {
	client            *Client
	genTemperature    float64
	answerTemperature float64
}

func NewGenerator(client *Client, genTemperature, answerTemperature float64) *Generator {
	if genTemperature <= 0 {
		genTemperature = 0.7
	}
	if answerTemperature <= 0 {
		answerTemperature = 0.2
	}
	return &Generator{
		client:            client,
		genTemperature:    genTemperature,
		answerTemperature: answerTemperature,
	}
}

func (g *Generator) GenerateQuestions(ctx context.Context, spec domain.GenerationSpec) (string, error) {
	return g.client.generateJSON(ctx, buildQuestionPrompt(spec), g.genTemperature)
}

func (g *Generator) GenerateAnswer(ctx context.Context, spec domain.AnswerSpec) (string, error) {
	return g.client.generateJSON(ctx, buildAnswerPrompt(spec), g.answerTemperature)
}

func (c *Client) generateJSON(ctx context.Context, prompt string, temperature float64) (string, error) {
	reqBody := map[string]any{
		"model":  c.genModel,
		"prompt": prompt,
		"stream": false,
		"format": "json",
		"options": map[string]any{
			"temperature": temperature,
		},
	}

	var response struct {
		Response string `json:"response"`
	}
	if err := c.call(ctx, "ollama.generate", "/api/generate", reqBody, &response); err != nil {
		return "", wrapTemporaryIfNeeded("ollama.generate", err)
	}
	return strings.TrimSpace(response.Response), nil
}

func (c *Client) call(ctx context.Context, operation, path string, payload, out any) error {
	if c.executor == nil {
		return c.postJSON(ctx, path, payload, out, operation)
	}
	return c.executor.Execute(ctx, operation, func(callCtx context.Context) error {
		return c.postJSON(callCtx, path, payload, out, operation)
	}, classifyOllamaError)
}
