package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lbarbosa/questora/internal/core/domain"
	"github.com/lbarbosa/questora/internal/core/ports"
)

// passageRetriever is the retrieval slice the generators depend on.
type passageRetriever interface {
	Retrieve(ctx context.Context, query string, topK int, filter domain.SearchFilter) ([]domain.RetrievedPassage, error)
}

// GenerationMetrics receives generation outcomes. Implementations must be
// safe for concurrent use; a nil value disables reporting.
type GenerationMetrics interface {
	QuestionAccepted(topic string)
	QuestionRejected(topic, reason string)
	NoContext(topic string)
}

type GeneratorConfig struct {
	MaxQuestions  int
	MaxStemLength int
	// AvoidStems caps how many recent stems are pasted into the prompt.
	AvoidStems   int
	ModelName    string
	ModelVersion string
}

func (c GeneratorConfig) normalize() GeneratorConfig {
	out := c
	if out.MaxQuestions <= 0 {
		out.MaxQuestions = 20
	}
	if out.MaxStemLength <= 0 {
		out.MaxStemLength = 1200
	}
	if out.AvoidStems <= 0 {
		out.AvoidStems = 10
	}
	return out
}

// GenerateQuestionsUseCase runs the online question pipeline: retrieve
// grounding passages, prompt the model once per requested question, parse
// strictly with a single re-prompt on malformed output, validate, dedupe,
// and persist. Rejected drafts are reported, never silently dropped.
type GenerateQuestionsUseCase struct {
	retriever passageRetriever
	model     ports.QuestionModel
	embedder  ports.Embedder
	questions ports.QuestionRepository
	stems     ports.StemIndex
	dedupe    *Deduplicator
	metrics   GenerationMetrics
	cfg       GeneratorConfig
}

func NewGenerateQuestionsUseCase(
	retriever passageRetriever,
	model ports.QuestionModel,
	embedder ports.Embedder,
	questions ports.QuestionRepository,
	stems ports.StemIndex,
	dedupe *Deduplicator,
	metrics GenerationMetrics,
	cfg GeneratorConfig,
) *GenerateQuestionsUseCase {
	return &GenerateQuestionsUseCase{
		retriever: retriever,
		model:     model,
		embedder:  embedder,
		questions: questions,
		stems:     stems,
		dedupe:    dedupe,
		metrics:   metrics,
		cfg:       cfg.normalize(),
	}
}

func (uc *GenerateQuestionsUseCase) Generate(ctx context.Context, req domain.GenerateQuestionsRequest) (*domain.GenerateQuestionsResult, error) {
	topic := strings.TrimSpace(req.Topic)
	if topic == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "generate questions", errors.New("empty topic"))
	}
	quantity := req.Quantity
	if quantity <= 0 {
		quantity = 1
	}
	if quantity > uc.cfg.MaxQuestions {
		return nil, domain.WrapError(domain.ErrInvalidInput, "generate questions",
			fmt.Errorf("quantity %d above limit %d", quantity, uc.cfg.MaxQuestions))
	}
	difficulty, ok := domain.ParseDifficulty(string(req.Difficulty))
	if !ok {
		return nil, domain.WrapError(domain.ErrInvalidInput, "generate questions",
			fmt.Errorf("unknown difficulty %q", req.Difficulty))
	}

	passages, err := uc.retriever.Retrieve(ctx, topic, 0, req.Filter)
	if err != nil {
		return nil, fmt.Errorf("retrieve passages: %w", err)
	}
	if len(passages) == 0 {
		uc.reportNoContext(topic)
		return nil, domain.WrapError(domain.ErrNoContext, "generate questions",
			fmt.Errorf("no passages above threshold for topic %q", topic))
	}

	avoid, err := uc.questions.ListRecentStems(ctx, topic, uc.cfg.AvoidStems)
	if err != nil {
		return nil, fmt.Errorf("list recent stems: %w", err)
	}

	result := &domain.GenerateQuestionsResult{
		Topic:     topic,
		Requested: quantity,
		Sources:   passageIDs(passages),
	}
	var firstRejection error

	for i := 0; i < quantity; i++ {
		spec := domain.GenerationSpec{
			Topic:      topic,
			Quantity:   1,
			Difficulty: difficulty,
			Passages:   passages,
			AvoidStems: avoid,
		}

		draft, err := uc.generateDraft(ctx, spec)
		if err != nil {
			if !isRejection(err) {
				return nil, err
			}
			result.Rejected = append(result.Rejected, domain.RejectedDraft{Reason: err.Error()})
			uc.reportRejected(topic, "malformed")
			if firstRejection == nil {
				firstRejection = err
			}
			continue
		}

		if err := validateDraft(draft, uc.cfg.MaxStemLength); err != nil {
			result.Rejected = append(result.Rejected, domain.RejectedDraft{Stem: draft.Stem, Reason: err.Error()})
			uc.reportRejected(topic, "invalid")
			if firstRejection == nil {
				firstRejection = err
			}
			continue
		}

		stemVector, err := uc.embedder.EmbedQuery(ctx, draft.Stem)
		if err != nil {
			return nil, fmt.Errorf("embed stem: %w", err)
		}

		if err := uc.dedupe.Check(ctx, topic, stemVector); err != nil {
			if !domain.IsKind(err, domain.ErrDuplicateQuestion) {
				return nil, err
			}
			result.Rejected = append(result.Rejected, domain.RejectedDraft{Stem: draft.Stem, Reason: err.Error()})
			uc.reportRejected(topic, "duplicate")
			if firstRejection == nil {
				firstRejection = err
			}
			continue
		}

		record := domain.QuestionRecord{
			Topic:            topic,
			Stem:             strings.TrimSpace(draft.Stem),
			Options:          draft.Options,
			Explanation:      strings.TrimSpace(draft.Explanation),
			LegalBasis:       strings.TrimSpace(draft.LegalBasis),
			Difficulty:       difficulty,
			SourcePassageIDs: result.Sources,
			StemVector:       stemVector,
			ModelName:        uc.cfg.ModelName,
			ModelVersion:     uc.cfg.ModelVersion,
			CreatedAt:        time.Now().UTC(),
		}

		id, err := uc.questions.Save(ctx, &record)
		if err != nil {
			if !domain.IsKind(err, domain.ErrDuplicateQuestion) {
				return nil, err
			}
			result.Rejected = append(result.Rejected, domain.RejectedDraft{Stem: draft.Stem, Reason: err.Error()})
			uc.reportRejected(topic, "duplicate")
			if firstRejection == nil {
				firstRejection = err
			}
			continue
		}
		record.ID = id

		// Best effort: the question is already durable in Postgres; a
		// failed stem-index or cache write only weakens future dedup.
		_ = uc.stems.IndexStem(ctx, record)
		_ = uc.dedupe.Remember(ctx, topic, domain.StemEmbedding{RecordID: id, Vector: stemVector})

		avoid = append(avoid, record.Stem)
		result.Questions = append(result.Questions, record)
		uc.reportAccepted(topic)
	}

	if len(result.Questions) == 0 && firstRejection != nil {
		return nil, firstRejection
	}
	return result, nil
}

// generateDraft prompts once and, when the completion cannot be parsed,
// re-prompts a single time with the strict template before giving up.
func (uc *GenerateQuestionsUseCase) generateDraft(ctx context.Context, spec domain.GenerationSpec) (domain.QuestionDraft, error) {
	raw, err := uc.model.GenerateQuestions(ctx, spec)
	if err != nil {
		return domain.QuestionDraft{}, fmt.Errorf("generate question: %w", err)
	}

	draft, parseErr := parseQuestionDraft(raw)
	if parseErr == nil {
		return draft, nil
	}

	spec.Strict = true
	raw, err = uc.model.GenerateQuestions(ctx, spec)
	if err != nil {
		return domain.QuestionDraft{}, fmt.Errorf("strict re-prompt: %w", err)
	}
	return parseQuestionDraft(raw)
}

func isRejection(err error) bool {
	return domain.IsKind(err, domain.ErrMalformedGeneration) ||
		domain.IsKind(err, domain.ErrInvalidQuestion) ||
		domain.IsKind(err, domain.ErrDuplicateQuestion)
}

func passageIDs(passages []domain.RetrievedPassage) []string {
	out := make([]string, 0, len(passages))
	seen := make(map[string]struct{}, len(passages))
	for _, p := range passages {
		if p.PassageID == "" {
			continue
		}
		if _, ok := seen[p.PassageID]; ok {
			continue
		}
		seen[p.PassageID] = struct{}{}
		out = append(out, p.PassageID)
	}
	return out
}

func (uc *GenerateQuestionsUseCase) reportAccepted(topic string) {
	if uc.metrics != nil {
		uc.metrics.QuestionAccepted(topic)
	}
}

func (uc *GenerateQuestionsUseCase) reportRejected(topic, reason string) {
	if uc.metrics != nil {
		uc.metrics.QuestionRejected(topic, reason)
	}
}

func (uc *GenerateQuestionsUseCase) reportNoContext(topic string) {
	if uc.metrics != nil {
		uc.metrics.NoContext(topic)
	}
}
