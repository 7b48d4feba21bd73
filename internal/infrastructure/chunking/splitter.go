package chunking

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/lbarbosa/questora/internal/core/domain"
)

// fingerprintNamespace keys the deterministic passage IDs. Re-indexing the
// same article text always produces the same point IDs, so upserts replace
// instead of duplicating.
var fingerprintNamespace = uuid.MustParse("7a1e8a40-43dc-4be1-9c43-5a1fbe0c2d11")

type Splitter struct {
	ChunkSize int
	Overlap   int
}

func NewSplitter(chunkSize, overlap int) *Splitter {
	if chunkSize <= 0 {
		chunkSize = 1000
	}
	if overlap < 0 {
		overlap = 0
	}
	if overlap >= chunkSize {
		overlap = chunkSize / 4
	}
	return &Splitter{
		ChunkSize: chunkSize,
		Overlap:   overlap,
	}
}

// Split turns one article into index-ready passages. Short articles become a
// single "<numero>: <conteudo>" passage; long ones are windowed over sentence
// boundaries and labeled "(parte N)".
func (s *Splitter) Split(article domain.Article) []domain.Passage {
	body := strings.TrimSpace(article.Body)
	if body == "" {
		return nil
	}

	prefix := strings.TrimSpace(article.Number)
	single := body
	if prefix != "" {
		single = prefix + ": " + body
	}

	var texts []string
	if len([]rune(single)) <= s.ChunkSize {
		texts = []string{single}
	} else {
		// The prefix and part label count against the passage budget; three
		// digits of part numbering cover any statute article.
		allowance := "(parte 000) "
		if prefix != "" {
			allowance = prefix + " (parte 000): "
		}
		budget := s.ChunkSize - len([]rune(allowance))
		if budget < 1 {
			budget = 1
		}
		parts := s.window(body, budget)
		texts = make([]string, 0, len(parts))
		for i, part := range parts {
			label := fmt.Sprintf("(parte %d)", i+1)
			if prefix != "" {
				texts = append(texts, fmt.Sprintf("%s %s: %s", prefix, label, part))
			} else {
				texts = append(texts, fmt.Sprintf("%s %s", label, part))
			}
		}
	}

	now := time.Now().UTC()
	passages := make([]domain.Passage, 0, len(texts))
	for i, text := range texts {
		passages = append(passages, domain.Passage{
			ID:            Fingerprint(article.LawTitle, article.Number, text),
			LawTitle:      article.LawTitle,
			ArticleNumber: article.Number,
			ChunkIndex:    i,
			Text:          text,
			InForce:       article.InForce,
			SourceFile:    article.SourceFile,
			ExtractedAt:   now,
		})
	}
	return passages
}

// window slices text into overlapping chunks of at most size runes,
// preferring to cut at a sentence end near the window boundary so passages
// stay readable.
func (s *Splitter) window(text string, size int) []string {
	runes := []rune(text)
	step := size - s.Overlap
	if step <= 0 {
		step = size
	}

	out := make([]string, 0, len(runes)/step+1)
	start := 0
	for start < len(runes) {
		end := start + size
		if end >= len(runes) {
			end = len(runes)
		} else {
			end = cutPoint(runes, start, end)
		}
		chunk := strings.TrimSpace(string(runes[start:end]))
		if chunk != "" {
			out = append(out, chunk)
		}
		if end == len(runes) {
			break
		}
		next := end - s.Overlap
		if next <= start {
			next = start + step
		}
		start = next
	}
	return out
}

// cutPoint walks back from the hard window end looking for sentence
// punctuation, giving up after a quarter of the chunk.
func cutPoint(runes []rune, start, end int) int {
	limit := end - (end-start)/4
	for i := end - 1; i > limit; i-- {
		switch runes[i] {
		case '.', ';', '!', '?':
			return i + 1
		}
	}
	for i := end - 1; i > limit; i-- {
		if runes[i] == ' ' || runes[i] == '\n' {
			return i
		}
	}
	return end
}

// Fingerprint derives a stable UUID from the normalized passage content.
func Fingerprint(lawTitle, articleNumber, text string) string {
	normalized := strings.Join(strings.Fields(strings.ToLower(text)), " ")
	seed := lawTitle + "|" + articleNumber + "|" + normalized
	return uuid.NewSHA1(fingerprintNamespace, []byte(seed)).String()
}
