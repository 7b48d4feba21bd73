package usecase

// QuestionService bundles generation and answering behind the single
// inbound contract the HTTP layer consumes.
type QuestionService struct {
	*GenerateQuestionsUseCase
	*AnswerQuestionUseCase
}

func NewQuestionService(gen *GenerateQuestionsUseCase, ans *AnswerQuestionUseCase) *QuestionService {
	return &QuestionService{
		GenerateQuestionsUseCase: gen,
		AnswerQuestionUseCase:    ans,
	}
}
