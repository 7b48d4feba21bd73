package lawpdf

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	pdf "github.com/ledongthuc/pdf"

	"github.com/lbarbosa/questora/internal/core/domain"
	"github.com/lbarbosa/questora/internal/core/ports"
)

// Extractor reads a stored law document and segments it into articles.
// PDFs are parsed with ledongthuc/pdf; UTF-8 plain text is accepted as-is,
// which also keeps tests free of binary fixtures.
type Extractor struct {
	storage ports.ObjectStorage
}

func NewExtractor(storage ports.ObjectStorage) *Extractor {
	return &Extractor{storage: storage}
}

func (e *Extractor) Extract(ctx context.Context, doc *domain.SourceDocument) ([]domain.Article, error) {
	reader, err := e.storage.Open(ctx, doc.StoragePath)
	if err != nil {
		return nil, domain.WrapError(domain.ErrExtraction, "open "+doc.Filename, err)
	}
	defer reader.Close()

	raw, err := io.ReadAll(reader)
	if err != nil {
		return nil, domain.WrapError(domain.ErrExtraction, "read "+doc.Filename, err)
	}
	if len(raw) == 0 {
		return nil, domain.WrapError(domain.ErrExtraction, "read "+doc.Filename, fmt.Errorf("empty file"))
	}

	firstPage, fullText, err := extractText(raw)
	if err != nil {
		return nil, domain.WrapError(domain.ErrExtraction, "parse "+doc.Filename, err)
	}

	title := DetectLawTitle(firstPage)
	if title == "" {
		title = titleFromFilename(doc.Filename)
	}

	articles := ParseArticles(fullText, title, doc.Filename)
	if len(articles) == 0 {
		return nil, domain.WrapError(domain.ErrExtraction, "parse "+doc.Filename, fmt.Errorf("no articles found"))
	}
	return articles, nil
}

func extractText(raw []byte) (firstPage, full string, err error) {
	if isPDF(raw) {
		return extractPDF(raw)
	}
	if !utf8.Valid(raw) {
		return "", "", fmt.Errorf("unsupported binary format")
	}
	text := string(raw)
	return firstLines(text, 40), text, nil
}

func isPDF(b []byte) bool {
	return len(b) >= 5 && string(b[:5]) == "%PDF-"
}

func extractPDF(data []byte) (firstPage, full string, err error) {
	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", "", fmt.Errorf("pdf reader: %w", err)
	}

	var sb strings.Builder
	for i := 1; i <= r.NumPage(); i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			return "", "", fmt.Errorf("pdf page %d: %w", i, err)
		}
		if i == 1 {
			firstPage = text
		}
		sb.WriteString(text)
		sb.WriteString("\n")
	}
	full = sb.String()
	if strings.TrimSpace(full) == "" {
		return "", "", fmt.Errorf("pdf contains no extractable text")
	}
	return firstPage, full, nil
}

func firstLines(text string, n int) string {
	lines := strings.SplitN(text, "\n", n+1)
	if len(lines) > n {
		lines = lines[:n]
	}
	return strings.Join(lines, "\n")
}

func titleFromFilename(name string) string {
	base := name
	if i := strings.LastIndexByte(base, '/'); i >= 0 {
		base = base[i+1:]
	}
	if i := strings.LastIndexByte(base, '.'); i > 0 {
		base = base[:i]
	}
	base = strings.NewReplacer("_", " ", "-", " ").Replace(base)
	return strings.TrimSpace(base)
}
