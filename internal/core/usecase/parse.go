package usecase

import (
	"encoding/json"
	"errors"
	"strings"

	"github.com/lbarbosa/questora/internal/core/domain"
)

// parseQuestionDraft decodes one model completion into a draft. Anything
// that is not a JSON object with the expected fields is a malformed
// generation; the caller decides whether to re-prompt.
func parseQuestionDraft(raw string) (domain.QuestionDraft, error) {
	payload := extractJSONObject(raw)
	if payload == "" {
		return domain.QuestionDraft{}, domain.WrapError(domain.ErrMalformedGeneration, "parse question", errors.New("no json object in output"))
	}

	var draft domain.QuestionDraft
	if err := json.Unmarshal([]byte(payload), &draft); err != nil {
		return domain.QuestionDraft{}, domain.WrapError(domain.ErrMalformedGeneration, "parse question", err)
	}
	if strings.TrimSpace(draft.Stem) == "" {
		return domain.QuestionDraft{}, domain.WrapError(domain.ErrMalformedGeneration, "parse question", errors.New("missing enunciado"))
	}
	if len(draft.Options) == 0 {
		return domain.QuestionDraft{}, domain.WrapError(domain.ErrMalformedGeneration, "parse question", errors.New("missing alternativas"))
	}
	draft.RawOutput = raw
	return draft, nil
}

func parseAnswer(raw string) (domain.Answer, error) {
	payload := extractJSONObject(raw)
	if payload == "" {
		return domain.Answer{}, domain.WrapError(domain.ErrMalformedGeneration, "parse answer", errors.New("no json object in output"))
	}

	var answer domain.Answer
	if err := json.Unmarshal([]byte(payload), &answer); err != nil {
		return domain.Answer{}, domain.WrapError(domain.ErrMalformedGeneration, "parse answer", err)
	}
	if strings.TrimSpace(answer.Explanation) == "" && strings.TrimSpace(answer.CorrectAnswer) == "" {
		return domain.Answer{}, domain.WrapError(domain.ErrMalformedGeneration, "parse answer", errors.New("empty answer object"))
	}
	return answer, nil
}

// extractJSONObject cuts the outermost {...} out of the completion. Models
// occasionally wrap the object in prose or code fences even when asked not to.
func extractJSONObject(raw string) string {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start < 0 || end <= start {
		return ""
	}
	return raw[start : end+1]
}
