package bootstrap

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/lbarbosa/questora/internal/config"
	"github.com/lbarbosa/questora/internal/core/ports"
	"github.com/lbarbosa/questora/internal/core/usecase"
	"github.com/lbarbosa/questora/internal/infrastructure/cache/redisnovelty"
	"github.com/lbarbosa/questora/internal/infrastructure/chunking"
	"github.com/lbarbosa/questora/internal/infrastructure/extractor/lawpdf"
	"github.com/lbarbosa/questora/internal/infrastructure/llm/ollama"
	"github.com/lbarbosa/questora/internal/infrastructure/queue/nats"
	"github.com/lbarbosa/questora/internal/infrastructure/repository/postgres"
	"github.com/lbarbosa/questora/internal/infrastructure/resilience"
	"github.com/lbarbosa/questora/internal/infrastructure/storage/localfs"
	"github.com/lbarbosa/questora/internal/infrastructure/vector/qdrant"
)

// Options carries dependencies the binaries wire in themselves. All fields
// are optional.
type Options struct {
	GenerationMetrics usecase.GenerationMetrics
}

type App struct {
	Config config.Config

	Queue        ports.MessageQueue
	DocumentRepo ports.DocumentRepository
	QuestionRepo ports.QuestionRepository

	IngestUC  ports.DocumentIngestor
	ProcessUC *usecase.ProcessDocumentUseCase
	IndexerUC ports.FolderIndexer
	Questions ports.QuestionService

	closeFn func()
}

func New(ctx context.Context, cfg config.Config, opts Options) (*App, error) {
	db, err := postgres.OpenDB(cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	docRepo := postgres.NewDocumentRepository(db)
	if err := docRepo.EnsureSchema(ctx); err != nil {
		return nil, fmt.Errorf("ensure documents schema: %w", err)
	}
	questionRepo := postgres.NewQuestionRepository(db)
	if err := questionRepo.EnsureSchema(ctx); err != nil {
		return nil, fmt.Errorf("ensure questions schema: %w", err)
	}

	storage, err := localfs.New(cfg.StoragePath)
	if err != nil {
		return nil, fmt.Errorf("init object storage: %w", err)
	}

	queue, err := nats.New(cfg.NATSURL, cfg.NATSSubject)
	if err != nil {
		return nil, fmt.Errorf("init message queue: %w", err)
	}

	executor := resilience.NewExecutor(resilience.Config{
		RetryMaxAttempts:    cfg.RetryMaxAttempts,
		RetryInitialBackoff: time.Duration(cfg.RetryBackoffMillis) * time.Millisecond,
		BreakerEnabled:      true,
	})
	ollamaClient := ollama.NewWithOptions(cfg.OllamaURL, cfg.OllamaGenModel, cfg.OllamaEmbedModel, ollama.ClientOptions{
		ResilienceExecutor: executor,
	})
	embedder := ollama.NewEmbedder(ollamaClient)
	generator := ollama.NewGenerator(ollamaClient, cfg.GenTemperature, cfg.AnswerTemperature)

	passageIndex := qdrant.New(cfg.QdrantURL, cfg.QdrantCollection)
	stemIndex := qdrant.NewStemClient(cfg.QdrantURL, cfg.QdrantStemCollection)

	chunker := chunking.NewSplitter(cfg.ChunkSize, cfg.ChunkOverlap)
	extractor := lawpdf.NewExtractor(storage)
	noveltyCache := redisnovelty.New(cfg.RedisAddr, cfg.RedisPassword, cfg.NoveltyCacheSize, 0)

	retriever := usecase.NewRetriever(embedder, passageIndex, usecase.RetrieverConfig{
		TopK:              cfg.RAGTopK,
		TopKCeiling:       cfg.RAGTopKCeiling,
		ScoreThreshold:    cfg.RAGScoreThreshold,
		Candidates:        cfg.RAGCandidates,
		RRFK:              cfg.RAGFusionRRFK,
		ZeroContextPolicy: cfg.ZeroContextPolicy,
	})
	dedupe := usecase.NewDeduplicator(noveltyCache, stemIndex, cfg.DedupThreshold, cfg.NoveltyCacheSize)

	ingestUC := usecase.NewIngestDocumentUseCase(docRepo, storage, queue)
	processUC := usecase.NewProcessDocumentUseCase(docRepo, extractor, chunker, embedder, passageIndex, cfg.IncludeVetoed)
	indexerUC := usecase.NewIndexFolderUseCase(docRepo, storage, processUC, cfg.IndexConcurrency)

	modelName, modelVersion := splitModelTag(cfg.OllamaGenModel)
	generateUC := usecase.NewGenerateQuestionsUseCase(
		retriever,
		generator,
		embedder,
		questionRepo,
		stemIndex,
		dedupe,
		opts.GenerationMetrics,
		usecase.GeneratorConfig{
			MaxStemLength: cfg.MaxStemLength,
			ModelName:     modelName,
			ModelVersion:  modelVersion,
		},
	)
	answerUC := usecase.NewAnswerQuestionUseCase(retriever, generator, opts.GenerationMetrics)
	questions := usecase.NewQuestionService(generateUC, answerUC)

	return &App{
		Config: cfg,

		Queue:        queue,
		DocumentRepo: docRepo,
		QuestionRepo: questionRepo,

		IngestUC:  ingestUC,
		ProcessUC: processUC,
		IndexerUC: indexerUC,
		Questions: questions,

		closeFn: func() {
			queue.Close()
			_ = noveltyCache.Close()
			_ = db.Close()
		},
	}, nil
}

func (a *App) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}

// splitModelTag separates an Ollama model reference like "llama3.2:3b" into
// name and tag, so persisted questions record which model build wrote them.
func splitModelTag(ref string) (name, version string) {
	if i := strings.LastIndexByte(ref, ':'); i > 0 {
		return ref[:i], ref[i+1:]
	}
	return ref, "latest"
}
