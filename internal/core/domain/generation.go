package domain

// GenerationSpec carries everything the model adapter needs to build one
// question-generation prompt.
type GenerationSpec struct {
	Topic      string
	Quantity   int
	Difficulty Difficulty
	Passages   []RetrievedPassage
	AvoidStems []string
	// Strict switches to the re-prompt template used after a parse failure.
	Strict bool
}

// AnswerSpec carries the inputs for answering a user-submitted question.
type AnswerSpec struct {
	Question     string
	Alternatives []string
	ExtraContext string
	Passages     []RetrievedPassage
}

type GenerateQuestionsRequest struct {
	Topic      string
	Quantity   int
	Difficulty Difficulty
	Filter     SearchFilter
}

// RejectedDraft accounts for a draft that was generated but not persisted.
// Nothing is silently dropped: every rejection carries its reason.
type RejectedDraft struct {
	Stem   string `json:"enunciado"`
	Reason string `json:"motivo"`
}

type GenerateQuestionsResult struct {
	Topic     string           `json:"tema"`
	Requested int              `json:"quantidade_pedida"`
	Questions []QuestionRecord `json:"questoes"`
	Rejected  []RejectedDraft  `json:"rejeitadas,omitempty"`
	Sources   []string         `json:"fontes_consultadas,omitempty"`
}

type AnswerRequest struct {
	Question     string
	Alternatives []string
	ExtraContext string
}
