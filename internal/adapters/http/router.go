package httpadapter

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/lbarbosa/questora/internal/core/domain"
	"github.com/lbarbosa/questora/internal/core/ports"
	"github.com/lbarbosa/questora/internal/observability/metrics"
)

type RouterOptions struct {
	Metrics        *metrics.HTTPServerMetrics
	ServiceName    string
	RateLimitRPS   float64
	RateLimitBurst int
}

type Router struct {
	ingest    ports.DocumentIngestor
	questions ports.QuestionService
	documents ports.DocumentReader
	opts      RouterOptions
}

func NewRouter(
	ingest ports.DocumentIngestor,
	questions ports.QuestionService,
	documents ports.DocumentReader,
	opts RouterOptions,
) *Router {
	if opts.ServiceName == "" {
		opts.ServiceName = "questora-api"
	}
	return &Router{
		ingest:    ingest,
		questions: questions,
		documents: documents,
		opts:      opts,
	}
}

func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", rt.healthz)
	mux.HandleFunc("/v1/documents", rt.uploadDocument)
	mux.HandleFunc("/v1/documents/", rt.getDocumentByID)
	mux.HandleFunc("/v1/questoes", rt.generateQuestions)
	mux.HandleFunc("/v1/responder", rt.answerQuestion)
	if rt.opts.Metrics != nil {
		mux.Handle("/metrics", rt.opts.Metrics.Handler())
	}

	var handler http.Handler = mux
	handler = rateLimitMiddleware(rt.opts.RateLimitRPS, rt.opts.RateLimitBurst, handler)
	if rt.opts.Metrics != nil {
		handler = rt.opts.Metrics.Middleware(rt.opts.ServiceName, handler)
	}
	handler = accessLogMiddleware(handler)
	handler = requestIDMiddleware(handler)
	return handler
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (rt *Router) uploadDocument(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	file, fileHeader, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "multipart field 'file' is required"})
		return
	}
	defer file.Close()

	doc, err := rt.ingest.Upload(
		r.Context(),
		fileHeader.Filename,
		fileHeader.Header.Get("Content-Type"),
		file,
	)
	if err != nil {
		rt.writeError(w, r, "upload document", err)
		return
	}

	writeJSON(w, http.StatusAccepted, doc)
}

func (rt *Router) getDocumentByID(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	id := strings.TrimPrefix(r.URL.Path, "/v1/documents/")
	if id == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "document id is required"})
		return
	}

	doc, err := rt.documents.GetByID(r.Context(), id)
	if err != nil {
		rt.writeError(w, r, "get document", err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

type generateQuestionsBody struct {
	Topic      string `json:"tema"`
	Quantity   int    `json:"quantidade"`
	Difficulty string `json:"dificuldade"`
	Filter     struct {
		LawTitle    string `json:"lei"`
		OnlyInForce bool   `json:"somente_vigentes"`
	} `json:"filtro"`
}

func (rt *Router) generateQuestions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	var body generateQuestionsBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	if strings.TrimSpace(body.Topic) == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "tema is required"})
		return
	}

	start := time.Now()
	result, err := rt.questions.Generate(r.Context(), domain.GenerateQuestionsRequest{
		Topic:      body.Topic,
		Quantity:   body.Quantity,
		Difficulty: domain.Difficulty(body.Difficulty),
		Filter: domain.SearchFilter{
			LawTitle:    body.Filter.LawTitle,
			OnlyInForce: body.Filter.OnlyInForce,
		},
	})
	if err != nil {
		rt.writeError(w, r, "generate questions", err)
		return
	}

	if rt.opts.Metrics != nil {
		rt.opts.Metrics.RecordRetrievalObservation(rt.opts.ServiceName, "questoes", len(result.Sources))
		rt.opts.Metrics.RecordGenerationDuration(rt.opts.ServiceName, "questoes", time.Since(start))
	}
	writeJSON(w, http.StatusOK, result)
}

type answerQuestionBody struct {
	Question     string   `json:"questao"`
	Alternatives []string `json:"alternativas"`
	ExtraContext string   `json:"contexto"`
}

func (rt *Router) answerQuestion(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	var body answerQuestionBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	if strings.TrimSpace(body.Question) == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "questao is required"})
		return
	}

	start := time.Now()
	answer, err := rt.questions.Answer(r.Context(), domain.AnswerRequest{
		Question:     body.Question,
		Alternatives: body.Alternatives,
		ExtraContext: body.ExtraContext,
	})
	if err != nil {
		rt.writeError(w, r, "answer question", err)
		return
	}

	if rt.opts.Metrics != nil {
		rt.opts.Metrics.RecordGenerationDuration(rt.opts.ServiceName, "responder", time.Since(start))
	}
	writeJSON(w, http.StatusOK, answer)
}

func (rt *Router) writeError(w http.ResponseWriter, r *http.Request, operation string, err error) {
	status := mapErrorToHTTPStatus(err)
	if status >= 500 {
		slog.Error(operation,
			"request_id", requestIDFromContext(r.Context()),
			"status", status,
			"error", err,
		)
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
