package lawpdf

import (
	"regexp"
	"strings"

	"github.com/lbarbosa/questora/internal/core/domain"
)

var (
	articleRe = regexp.MustCompile(`Art\.\s*(\d+)[ºo]?`)

	// Headings like "LEI Nº 8.112, DE 11 DE DEZEMBRO DE 1990" or
	// "DECRETO-LEI Nº 4.657" on the first page.
	titleRe = regexp.MustCompile(`(?im)^\s*((?:LEI(?:\s+COMPLEMENTAR)?|DECRETO(?:-LEI)?|MEDIDA\s+PROVIS[ÓO]RIA|EMENDA\s+CONSTITUCIONAL|C[ÓO]DIGO|CONSTITUI[ÇC][ÃA]O)[^\n]{0,120})$`)

	repealedRe = regexp.MustCompile(`(?i)\((?:revogad[oa]|vetado)`)
)

// DetectLawTitle scans first-page text for a statute heading. Returns ""
// when nothing matches so callers can fall back to the filename.
func DetectLawTitle(firstPage string) string {
	m := titleRe.FindStringSubmatch(firstPage)
	if m == nil {
		return ""
	}
	return strings.Join(strings.Fields(m[1]), " ")
}

// ParseArticles segments full statute text on "Art. N" boundaries.
//
// When the same article number appears more than once, the last occurrence
// is the text in force and every earlier one is a vetoed or superseded
// version: those keep their text, gain a " (VETADO)" marker and are flagged
// out of force. Bodies carrying an explicit "(Revogado)" or "(VETADO)"
// marker are likewise flagged.
func ParseArticles(text, lawTitle, sourceFile string) []domain.Article {
	matches := articleRe.FindAllStringSubmatchIndex(text, -1)
	if len(matches) == 0 {
		return nil
	}

	lastIndex := make(map[string]int, len(matches))
	for i, m := range matches {
		lastIndex[text[m[2]:m[3]]] = i
	}

	articles := make([]domain.Article, 0, len(matches))
	for i, m := range matches {
		number := text[m[2]:m[3]]
		label := strings.Join(strings.Fields(text[m[0]:m[1]]), " ")

		bodyStart := m[1]
		bodyEnd := len(text)
		if i+1 < len(matches) {
			bodyEnd = matches[i+1][0]
		}
		body := cleanBody(text[bodyStart:bodyEnd])
		if body == "" {
			continue
		}

		inForce := !repealedRe.MatchString(body)
		if lastIndex[number] != i {
			if !strings.Contains(body, "(VETADO)") {
				body += " (VETADO)"
			}
			inForce = false
		}

		articles = append(articles, domain.Article{
			LawTitle:   lawTitle,
			Number:     label,
			Body:       body,
			InForce:    inForce,
			SourceFile: sourceFile,
			Position:   len(articles),
		})
	}
	return articles
}

func cleanBody(s string) string {
	s = strings.TrimLeft(s, " \t")
	s = strings.TrimLeft(s, ".:-")
	return strings.Join(strings.Fields(s), " ")
}
