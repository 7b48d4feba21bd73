package usecase

import (
	"errors"
	"fmt"
	"strings"

	"github.com/lbarbosa/questora/internal/core/domain"
)

var expectedLetters = []string{"A", "B", "C", "D", "E"}

const (
	minOptions = 4
	maxOptions = 5
)

// validateDraft enforces the structural contract of a multiple-choice exam
// question: non-empty stem within the length cap, 4 or 5 alternatives
// lettered in order from A with pairwise distinct texts, exactly one marked
// correct, and a justification.
func validateDraft(draft domain.QuestionDraft, maxStemLength int) error {
	stem := strings.TrimSpace(draft.Stem)
	if stem == "" {
		return invalid("enunciado vazio")
	}
	if maxStemLength > 0 && len([]rune(stem)) > maxStemLength {
		return invalid(fmt.Sprintf("enunciado com %d caracteres excede o limite de %d", len([]rune(stem)), maxStemLength))
	}

	if len(draft.Options) < minOptions || len(draft.Options) > maxOptions {
		return invalid(fmt.Sprintf("%d alternativas, esperadas entre %d e %d", len(draft.Options), minOptions, maxOptions))
	}
	seen := make(map[string]struct{}, len(draft.Options))
	for i, opt := range draft.Options {
		letter := strings.ToUpper(strings.TrimSpace(opt.Letter))
		if letter != expectedLetters[i] {
			return invalid(fmt.Sprintf("alternativa %d com letra %q, esperada %q", i+1, opt.Letter, expectedLetters[i]))
		}
		text := strings.TrimSpace(opt.Text)
		if text == "" {
			return invalid(fmt.Sprintf("alternativa %s sem texto", expectedLetters[i]))
		}
		normalized := strings.ToLower(text)
		if _, dup := seen[normalized]; dup {
			return invalid(fmt.Sprintf("alternativa %s repete o texto de outra alternativa", expectedLetters[i]))
		}
		seen[normalized] = struct{}{}
	}

	if _, ok := draft.CorrectOption(); !ok {
		return invalid("deve haver exatamente uma alternativa correta")
	}

	if strings.TrimSpace(draft.Explanation) == "" {
		return invalid("justificativa vazia")
	}
	return nil
}

func invalid(reason string) error {
	return domain.WrapError(domain.ErrInvalidQuestion, "validate question", errors.New(reason))
}
