package domain

import "time"

type Difficulty string

const (
	DifficultyEasy   Difficulty = "facil"
	DifficultyMedium Difficulty = "medio"
	DifficultyHard   Difficulty = "dificil"
)

func ParseDifficulty(raw string) (Difficulty, bool) {
	switch Difficulty(raw) {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
		return Difficulty(raw), true
	case "":
		return DifficultyMedium, true
	default:
		return "", false
	}
}

// Option is one alternative of a multiple-choice question.
type Option struct {
	Letter  string `json:"letra"`
	Text    string `json:"texto"`
	Correct bool   `json:"correta"`
}

// QuestionDraft is the parsed but not yet validated output of the model.
type QuestionDraft struct {
	Topic       string   `json:"tema"`
	Stem        string   `json:"enunciado"`
	Options     []Option `json:"alternativas"`
	Explanation string   `json:"justificativa"`
	LegalBasis  string   `json:"fonte_legal,omitempty"`
	RawOutput   string   `json:"-"`
}

// QuestionRecord is an accepted, persisted question. Records are append-only:
// once saved they are never mutated, only superseded by newer records.
type QuestionRecord struct {
	ID               string     `json:"id"`
	Topic            string     `json:"tema"`
	Stem             string     `json:"enunciado"`
	Options          []Option   `json:"alternativas"`
	Explanation      string     `json:"justificativa"`
	LegalBasis       string     `json:"fonte_legal,omitempty"`
	Difficulty       Difficulty `json:"dificuldade"`
	SourcePassageIDs []string   `json:"fontes"`
	StemVector       []float32  `json:"-"`
	ModelName        string     `json:"model_name"`
	ModelVersion     string     `json:"model_version,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
}

// CorrectOption returns the single correct option, if exactly one exists.
func (q QuestionDraft) CorrectOption() (Option, bool) {
	var found Option
	count := 0
	for _, opt := range q.Options {
		if opt.Correct {
			found = opt
			count++
		}
	}
	return found, count == 1
}

// Answer is a didactic explanation for a user-submitted question.
type Answer struct {
	CorrectAnswer string   `json:"resposta_correta"`
	Explanation   string   `json:"explicacao_detalhada"`
	LegalBasis    string   `json:"fundamento_legal"`
	StudyTips     []string `json:"dicas_estudo,omitempty"`
	References    []string `json:"referencias,omitempty"`
}
