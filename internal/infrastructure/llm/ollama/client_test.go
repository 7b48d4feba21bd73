package ollama

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/lbarbosa/questora/internal/core/domain"
)

func TestGenerateQuestionsBuildsExamPrompt(t *testing.T) {
	var payload map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/generate" {
			http.NotFound(w, r)
			return
		}
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		_, _ = w.Write([]byte(`{"response":"{\"enunciado\":\"ok\"}"}`))
	}))
	defer server.Close()

	gen := NewGenerator(New(server.URL, "gen", "embed"), 0.7, 0.2)
	_, err := gen.GenerateQuestions(context.Background(), domain.GenerationSpec{
		Topic:      "licitações",
		Difficulty: domain.DifficultyHard,
		Passages: []domain.RetrievedPassage{
			{LawTitle: "Lei 14.133/2021", ArticleNumber: "Art. 5º", Text: "trecho da lei", Score: 0.88},
		},
		AvoidStems: []string{"enunciado anterior"},
	})
	if err != nil {
		t.Fatalf("GenerateQuestions() error = %v", err)
	}

	prompt, _ := payload["prompt"].(string)
	for _, want := range []string{"licitações", "trecho da lei", "DIFÍCIL", "enunciado anterior", "alternativas"} {
		if !strings.Contains(prompt, want) {
			t.Fatalf("prompt missing %q:\n%s", want, prompt)
		}
	}
	if payload["format"] != "json" {
		t.Fatalf("expected json format, got %v", payload["format"])
	}
	opts, _ := payload["options"].(map[string]any)
	if opts == nil || opts["temperature"] != 0.7 {
		t.Fatalf("expected creative temperature, got %v", payload["options"])
	}
}

func TestGenerateQuestionsStrictReprompt(t *testing.T) {
	var prompt string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var payload map[string]any
		_ = json.NewDecoder(r.Body).Decode(&payload)
		prompt, _ = payload["prompt"].(string)
		_, _ = w.Write([]byte(`{"response":"{}"}`))
	}))
	defer server.Close()

	gen := NewGenerator(New(server.URL, "gen", "embed"), 0.7, 0.2)
	_, err := gen.GenerateQuestions(context.Background(), domain.GenerationSpec{Topic: "atos administrativos", Strict: true})
	if err != nil {
		t.Fatalf("GenerateQuestions() error = %v", err)
	}
	if !strings.Contains(prompt, "APENAS com o objeto JSON") {
		t.Fatalf("expected strict instructions in prompt:\n%s", prompt)
	}
}

func TestGenerateAnswerUsesPreciseTemperature(t *testing.T) {
	var payload map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&payload)
		_, _ = w.Write([]byte(`{"response":"{\"resposta_correta\":\"B\"}"}`))
	}))
	defer server.Close()

	gen := NewGenerator(New(server.URL, "gen", "embed"), 0.7, 0.2)
	out, err := gen.GenerateAnswer(context.Background(), domain.AnswerSpec{
		Question:     "O que é autotutela?",
		Alternatives: []string{"A) poder de polícia", "B) revisão dos próprios atos"},
	})
	if err != nil {
		t.Fatalf("GenerateAnswer() error = %v", err)
	}
	if !strings.Contains(out, "resposta_correta") {
		t.Fatalf("unexpected output %q", out)
	}
	opts, _ := payload["options"].(map[string]any)
	if opts == nil || opts["temperature"] != 0.2 {
		t.Fatalf("expected precise temperature, got %v", payload["options"])
	}
	prompt, _ := payload["prompt"].(string)
	if !strings.Contains(prompt, "autotutela") || !strings.Contains(prompt, "poder de polícia") {
		t.Fatalf("prompt missing question or alternatives:\n%s", prompt)
	}
}

func TestEmbedReturnsEmbeddingKindOnFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model unavailable", http.StatusBadGateway)
	}))
	defer server.Close()

	embedder := NewEmbedder(New(server.URL, "gen", "embed"))
	_, err := embedder.Embed(context.Background(), []string{"hello"})
	if err == nil {
		t.Fatalf("expected error")
	}
	if !domain.IsKind(err, domain.ErrEmbeddingUnavailable) {
		t.Fatalf("expected embedding-unavailable kind, got %v", err)
	}
	if !strings.Contains(err.Error(), "model unavailable") {
		t.Fatalf("expected response body in error, got %v", err)
	}
}

func TestEmbedRejectsVectorCountMismatch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"embeddings":[[0.1,0.2]]}`))
	}))
	defer server.Close()

	embedder := NewEmbedder(New(server.URL, "gen", "embed"))
	_, err := embedder.Embed(context.Background(), []string{"a", "b"})
	if !domain.IsKind(err, domain.ErrEmbeddingUnavailable) {
		t.Fatalf("expected embedding-unavailable kind, got %v", err)
	}
}

func TestEmbedBatchesInput(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var payload struct {
			Input []string `json:"input"`
		}
		_ = json.NewDecoder(r.Body).Decode(&payload)
		vectors := make([][]float32, len(payload.Input))
		for i := range vectors {
			vectors[i] = []float32{float32(i), 1}
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"embeddings": vectors})
	}))
	defer server.Close()

	embedder := NewEmbedder(New(server.URL, "gen", "embed"))
	got, err := embedder.Embed(context.Background(), []string{"um", "dois", "três"})
	if err != nil {
		t.Fatalf("Embed() error = %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 vectors, got %d", len(got))
	}
}
