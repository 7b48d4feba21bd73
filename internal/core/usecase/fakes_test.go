package usecase

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/lbarbosa/questora/internal/core/domain"
)

type statusCall struct {
	status domain.DocumentStatus
	errMsg string
}

type docRepoFake struct {
	mu          sync.Mutex
	docs        map[string]*domain.SourceDocument
	createErr   error
	getErr      error
	statusErr   error
	statsErr    error
	statusCalls []statusCall
	savedStats  map[string]domain.IndexStats
}

func newDocRepoFake() *docRepoFake {
	return &docRepoFake{
		docs:       make(map[string]*domain.SourceDocument),
		savedStats: make(map[string]domain.IndexStats),
	}
}

func (f *docRepoFake) Create(_ context.Context, doc *domain.SourceDocument) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	copyDoc := *doc
	f.docs[doc.ID] = &copyDoc
	return nil
}

func (f *docRepoFake) GetByID(_ context.Context, id string) (*domain.SourceDocument, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	doc, ok := f.docs[id]
	if !ok {
		return nil, domain.WrapError(domain.ErrDocumentNotFound, "get document", fmt.Errorf("id=%s", id))
	}
	copyDoc := *doc
	return &copyDoc, nil
}

func (f *docRepoFake) UpdateStatus(_ context.Context, id string, status domain.DocumentStatus, errMessage string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.statusCalls = append(f.statusCalls, statusCall{status: status, errMsg: errMessage})
	if f.statusErr != nil {
		return f.statusErr
	}
	if doc, ok := f.docs[id]; ok {
		doc.Status = status
		doc.Error = errMessage
	}
	return nil
}

func (f *docRepoFake) SaveIndexStats(_ context.Context, id string, stats domain.IndexStats) error {
	if f.statsErr != nil {
		return f.statsErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.savedStats[id] = stats
	return nil
}

type storageFake struct {
	mu    sync.Mutex
	saved map[string][]byte
	err   error
}

func newStorageFake() *storageFake {
	return &storageFake{saved: make(map[string][]byte)}
}

func (f *storageFake) Save(_ context.Context, key string, data io.Reader) error {
	if f.err != nil {
		return f.err
	}
	raw, err := io.ReadAll(data)
	if err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.saved[key] = raw
	return nil
}

func (f *storageFake) Open(_ context.Context, key string) (io.ReadCloser, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	raw, ok := f.saved[key]
	if !ok {
		return nil, fmt.Errorf("not found: %s", key)
	}
	return io.NopCloser(strings.NewReader(string(raw))), nil
}

type queueFake struct {
	published []string
	err       error
}

func (f *queueFake) PublishDocumentUploaded(_ context.Context, documentID string) error {
	if f.err != nil {
		return f.err
	}
	f.published = append(f.published, documentID)
	return nil
}

func (f *queueFake) SubscribeDocumentUploaded(context.Context, func(context.Context, string) error) error {
	return nil
}

type extractorFake struct {
	articles []domain.Article
	err      error
}

func (f *extractorFake) Extract(context.Context, *domain.SourceDocument) ([]domain.Article, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.articles, nil
}

type chunkerFake struct{}

func (chunkerFake) Split(article domain.Article) []domain.Passage {
	return []domain.Passage{{
		ID:            "fp-" + article.Number,
		LawTitle:      article.LawTitle,
		ArticleNumber: article.Number,
		Text:          article.Number + ": " + article.Body,
		InForce:       article.InForce,
		SourceFile:    article.SourceFile,
	}}
}

type embedderFake struct {
	mu       sync.Mutex
	err      error
	queryErr error
	vector   []float32
	calls    int
}

func (f *embedderFake) Embed(_ context.Context, texts []string) ([][]float32, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	out := make([][]float32, len(texts))
	for i := range out {
		out[i] = []float32{1, 0}
	}
	return out, nil
}

func (f *embedderFake) EmbedQuery(_ context.Context, _ string) ([]float32, error) {
	if f.queryErr != nil {
		return nil, f.queryErr
	}
	if f.vector != nil {
		return f.vector, nil
	}
	return []float32{1, 0}, nil
}

type passageIndexFake struct {
	mu         sync.Mutex
	upserted   []domain.Passage
	upsertErr  error
	dense      []domain.RetrievedPassage
	lexical    []domain.RetrievedPassage
	searchErr  error
	lexicalErr error
	searches   int
}

func (f *passageIndexFake) UpsertPassages(_ context.Context, passages []domain.Passage, _ [][]float32) error {
	if f.upsertErr != nil {
		return f.upsertErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.upserted = append(f.upserted, passages...)
	return nil
}

func (f *passageIndexFake) Search(context.Context, []float32, int, domain.SearchFilter) ([]domain.RetrievedPassage, error) {
	f.mu.Lock()
	f.searches++
	f.mu.Unlock()
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	return f.dense, nil
}

func (f *passageIndexFake) SearchLexical(context.Context, string, int, domain.SearchFilter) ([]domain.RetrievedPassage, error) {
	if f.lexicalErr != nil {
		return nil, f.lexicalErr
	}
	return f.lexical, nil
}

type stemIndexFake struct {
	mu      sync.Mutex
	indexed []domain.QuestionRecord
	hits    []domain.StemHit
	err     error
}

func (f *stemIndexFake) IndexStem(_ context.Context, record domain.QuestionRecord) error {
	if f.err != nil {
		return f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.indexed = append(f.indexed, record)
	return nil
}

func (f *stemIndexFake) SearchStems(context.Context, string, []float32, int) ([]domain.StemHit, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.hits, nil
}

type modelFake struct {
	mu       sync.Mutex
	outputs  []string
	err      error
	prompts  []domain.GenerationSpec
	answers  []string
	answerIn []domain.AnswerSpec
}

func (f *modelFake) GenerateQuestions(_ context.Context, spec domain.GenerationSpec) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.prompts = append(f.prompts, spec)
	if f.err != nil {
		return "", f.err
	}
	if len(f.outputs) == 0 {
		return "", fmt.Errorf("modelFake: no outputs queued")
	}
	out := f.outputs[0]
	f.outputs = f.outputs[1:]
	return out, nil
}

func (f *modelFake) GenerateAnswer(_ context.Context, spec domain.AnswerSpec) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.answerIn = append(f.answerIn, spec)
	if f.err != nil {
		return "", f.err
	}
	if len(f.answers) == 0 {
		return "", fmt.Errorf("modelFake: no answers queued")
	}
	out := f.answers[0]
	f.answers = f.answers[1:]
	return out, nil
}

type questionRepoFake struct {
	mu      sync.Mutex
	saved   []domain.QuestionRecord
	saveErr error
	stems   []string
	listErr error
	nextID  int
}

func (f *questionRepoFake) Save(_ context.Context, record *domain.QuestionRecord) (string, error) {
	if f.saveErr != nil {
		return "", f.saveErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	record.ID = fmt.Sprintf("q-%d", f.nextID)
	f.saved = append(f.saved, *record)
	return record.ID, nil
}

func (f *questionRepoFake) ListRecentStems(context.Context, string, int) ([]string, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.stems, nil
}

type noveltyCacheFake struct {
	mu      sync.Mutex
	entries map[string][]domain.StemEmbedding
	err     error
}

func newNoveltyCacheFake() *noveltyCacheFake {
	return &noveltyCacheFake{entries: make(map[string][]domain.StemEmbedding)}
}

func (f *noveltyCacheFake) Recent(_ context.Context, topic string, _ int) ([]domain.StemEmbedding, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.entries[topic], nil
}

func (f *noveltyCacheFake) Remember(_ context.Context, topic string, entry domain.StemEmbedding) error {
	if f.err != nil {
		return f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries[topic] = append([]domain.StemEmbedding{entry}, f.entries[topic]...)
	return nil
}

type retrieverFake struct {
	passages []domain.RetrievedPassage
	err      error
	queries  []string
}

func (f *retrieverFake) Retrieve(_ context.Context, query string, _ int, _ domain.SearchFilter) ([]domain.RetrievedPassage, error) {
	f.queries = append(f.queries, query)
	if f.err != nil {
		return nil, f.err
	}
	return f.passages, nil
}

type metricsFake struct {
	mu        sync.Mutex
	accepted  int
	rejected  map[string]int
	noContext int
}

func newMetricsFake() *metricsFake {
	return &metricsFake{rejected: make(map[string]int)}
}

func (f *metricsFake) QuestionAccepted(string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.accepted++
}

func (f *metricsFake) QuestionRejected(_ string, reason string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rejected[reason]++
}

func (f *metricsFake) NoContext(string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.noContext++
}
