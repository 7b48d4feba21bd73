package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/lbarbosa/questora/internal/core/domain"
	"github.com/lbarbosa/questora/internal/core/ports"
)

// AnswerQuestionUseCase answers a user-submitted question with a didactic
// explanation grounded on retrieved legislation.
type AnswerQuestionUseCase struct {
	retriever passageRetriever
	model     ports.QuestionModel
	metrics   GenerationMetrics
}

func NewAnswerQuestionUseCase(retriever passageRetriever, model ports.QuestionModel, metrics GenerationMetrics) *AnswerQuestionUseCase {
	return &AnswerQuestionUseCase{
		retriever: retriever,
		model:     model,
		metrics:   metrics,
	}
}

func (uc *AnswerQuestionUseCase) Answer(ctx context.Context, req domain.AnswerRequest) (*domain.Answer, error) {
	question := strings.TrimSpace(req.Question)
	if question == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "answer question", errors.New("empty question"))
	}

	query := question
	if req.ExtraContext != "" {
		query = question + " " + req.ExtraContext
	}

	passages, err := uc.retriever.Retrieve(ctx, query, 0, domain.SearchFilter{})
	if err != nil {
		return nil, fmt.Errorf("retrieve passages: %w", err)
	}
	if len(passages) == 0 {
		if uc.metrics != nil {
			uc.metrics.NoContext(question)
		}
		return nil, domain.WrapError(domain.ErrNoContext, "answer question",
			fmt.Errorf("no passages above threshold"))
	}

	raw, err := uc.model.GenerateAnswer(ctx, domain.AnswerSpec{
		Question:     question,
		Alternatives: req.Alternatives,
		ExtraContext: req.ExtraContext,
		Passages:     passages,
	})
	if err != nil {
		return nil, fmt.Errorf("generate answer: %w", err)
	}

	answer, err := parseAnswer(raw)
	if err != nil {
		return nil, err
	}
	return &answer, nil
}
