package ollama

import (
	"fmt"
	"strings"

	"github.com/lbarbosa/questora/internal/core/domain"
)

var difficultyInstructions = map[domain.Difficulty]string{
	domain.DifficultyEasy:   "FÁCIL: cobre a literalidade da lei, sem pegadinhas.",
	domain.DifficultyMedium: "MÉDIO: exija interpretação do dispositivo e pequenas variações de redação.",
	domain.DifficultyHard:   "DIFÍCIL: combine dispositivos, use situações hipotéticas e exceções.",
}

func buildQuestionPrompt(spec domain.GenerationSpec) string {
	var b strings.Builder

	b.WriteString("Você é um elaborador de questões de concurso público no estilo FCC, especialista em Direito Administrativo brasileiro.\n\n")

	b.WriteString("Elabore EXATAMENTE 1 questão inédita de múltipla escolha sobre o tema: ")
	b.WriteString(spec.Topic)
	b.WriteString("\n\n")

	if instr, ok := difficultyInstructions[spec.Difficulty]; ok {
		b.WriteString("Nível de dificuldade ")
		b.WriteString(instr)
		b.WriteString("\n\n")
	}

	b.WriteString("Baseie-se SOMENTE nos trechos de legislação abaixo. Não invente dispositivos.\n\nLEGISLAÇÃO:\n")
	for idx, p := range spec.Passages {
		fmt.Fprintf(&b, "[%d] %s, %s (relevância %.3f)\n%s\n\n", idx+1, p.LawTitle, p.ArticleNumber, p.Score, p.Text)
	}

	if len(spec.AvoidStems) > 0 {
		b.WriteString("NÃO repita nem parafraseie os enunciados já utilizados:\n")
		for _, stem := range spec.AvoidStems {
			b.WriteString("- ")
			b.WriteString(stem)
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	b.WriteString(`Responda com um único objeto JSON, sem markdown e sem texto fora do JSON, no formato:
{
  "enunciado": "texto da questão",
  "alternativas": [
    {"letra": "A", "texto": "...", "correta": false},
    {"letra": "B", "texto": "...", "correta": false},
    {"letra": "C", "texto": "...", "correta": true},
    {"letra": "D", "texto": "...", "correta": false},
    {"letra": "E", "texto": "...", "correta": false}
  ],
  "justificativa": "por que a alternativa correta está certa e as demais erradas",
  "fonte_legal": "lei e artigo que fundamentam a questão"
}
São obrigatórias 5 alternativas (A a E) com exatamente uma correta.`)

	if spec.Strict {
		b.WriteString(`

ATENÇÃO: sua resposta anterior não era um JSON válido no formato pedido.
Responda novamente APENAS com o objeto JSON, começando com { e terminando com }.
Nenhum comentário, nenhuma explicação fora do JSON, nenhuma crase de código.`)
	}

	return b.String()
}

func buildAnswerPrompt(spec domain.AnswerSpec) string {
	var b strings.Builder

	b.WriteString("Você é um professor de Direito Administrativo preparando candidatos para concursos públicos.\n\n")
	b.WriteString("Responda à questão do aluno com base SOMENTE na legislação abaixo.\n\nLEGISLAÇÃO:\n")
	for idx, p := range spec.Passages {
		fmt.Fprintf(&b, "[%d] %s, %s\n%s\n\n", idx+1, p.LawTitle, p.ArticleNumber, p.Text)
	}

	b.WriteString("QUESTÃO DO ALUNO:\n")
	b.WriteString(spec.Question)
	b.WriteString("\n")
	if len(spec.Alternatives) > 0 {
		b.WriteString("\nALTERNATIVAS:\n")
		for _, alt := range spec.Alternatives {
			b.WriteString("- ")
			b.WriteString(alt)
			b.WriteString("\n")
		}
	}
	if strings.TrimSpace(spec.ExtraContext) != "" {
		b.WriteString("\nCONTEXTO ADICIONAL DO ALUNO:\n")
		b.WriteString(spec.ExtraContext)
		b.WriteString("\n")
	}

	b.WriteString(`
Responda com um único objeto JSON, sem texto fora dele, no formato:
{
  "resposta_correta": "resposta direta (ou a letra correta, se houver alternativas)",
  "explicacao_detalhada": "explicação didática passo a passo",
  "fundamento_legal": "lei e artigos que fundamentam a resposta",
  "dicas_estudo": ["dica 1", "dica 2"],
  "referencias": ["referência 1"]
}
Se a legislação fornecida não for suficiente, diga isso na explicação.`)

	return b.String()
}
