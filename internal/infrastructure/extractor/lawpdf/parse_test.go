package lawpdf

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/lbarbosa/questora/internal/core/domain"
)

const sampleLaw = `LEI Nº 8.112, DE 11 DE DEZEMBRO DE 1990

Dispõe sobre o regime jurídico dos servidores públicos civis da União.

Art. 1º Esta Lei institui o Regime Jurídico dos Servidores Públicos Civis da União.

Art. 2º (VETADO)

Art. 3º Cargo público é o conjunto de atribuições e responsabilidades previstas na estrutura organizacional.

Art. 4º É proibida a prestação de serviços gratuitos, salvo os casos previstos em lei.
`

func TestParseArticlesSegmentsByNumber(t *testing.T) {
	arts := ParseArticles(sampleLaw, "Lei 8.112/1990", "lei8112.pdf")
	if len(arts) != 4 {
		t.Fatalf("expected 4 articles, got %d", len(arts))
	}
	if arts[0].Number != "Art. 1º" {
		t.Fatalf("expected first article 'Art. 1º', got %q", arts[0].Number)
	}
	if !strings.HasPrefix(arts[0].Body, "Esta Lei institui") {
		t.Fatalf("unexpected body for first article: %q", arts[0].Body)
	}
	for i, a := range arts {
		if a.Position != i {
			t.Fatalf("expected position %d, got %d", i, a.Position)
		}
		if a.LawTitle != "Lei 8.112/1990" {
			t.Fatalf("law title not carried: %q", a.LawTitle)
		}
	}
}

func TestParseArticlesFlagsExplicitVeto(t *testing.T) {
	arts := ParseArticles(sampleLaw, "Lei 8.112/1990", "lei8112.pdf")
	if arts[1].Number != "Art. 2º" {
		t.Fatalf("expected 'Art. 2º', got %q", arts[1].Number)
	}
	if arts[1].InForce {
		t.Fatalf("expected vetoed article out of force")
	}
	if !arts[0].InForce || !arts[2].InForce {
		t.Fatalf("expected surrounding articles in force")
	}
}

func TestParseArticlesDuplicateNumberVetoesEarlier(t *testing.T) {
	text := `Art. 10. O texto original da norma.

Art. 11. Outro dispositivo qualquer.

Art. 10. O texto dado pela redação mais recente.`

	arts := ParseArticles(text, "Lei X", "x.pdf")
	if len(arts) != 3 {
		t.Fatalf("expected 3 articles, got %d", len(arts))
	}

	first := arts[0]
	if first.InForce {
		t.Fatalf("expected earlier duplicate out of force")
	}
	if !strings.HasSuffix(first.Body, "(VETADO)") {
		t.Fatalf("expected vetoed marker on earlier duplicate, got %q", first.Body)
	}

	last := arts[2]
	if !last.InForce {
		t.Fatalf("expected latest duplicate in force")
	}
	if strings.Contains(last.Body, "(VETADO)") {
		t.Fatalf("latest duplicate must keep its text unchanged: %q", last.Body)
	}
}

func TestParseArticlesFlagsRepealed(t *testing.T) {
	text := `Art. 7º (Revogado pela Lei nº 9.527, de 1997)

Art. 8º Dispositivo vigente.`

	arts := ParseArticles(text, "Lei X", "x.pdf")
	if len(arts) != 2 {
		t.Fatalf("expected 2 articles, got %d", len(arts))
	}
	if arts[0].InForce {
		t.Fatalf("expected repealed article out of force")
	}
	if !arts[1].InForce {
		t.Fatalf("expected second article in force")
	}
}

func TestParseArticlesNoMatches(t *testing.T) {
	if got := ParseArticles("texto sem dispositivos", "Lei X", "x.pdf"); got != nil {
		t.Fatalf("expected nil, got %v", got)
	}
}

func TestDetectLawTitle(t *testing.T) {
	cases := []struct {
		name string
		page string
		want string
	}{
		{"lei", "República Federativa do Brasil\nLEI Nº 8.112, DE 11 DE DEZEMBRO DE 1990\ntexto", "LEI Nº 8.112, DE 11 DE DEZEMBRO DE 1990"},
		{"decreto-lei", "DECRETO-LEI Nº 4.657, DE 4 DE SETEMBRO DE 1942\n", "DECRETO-LEI Nº 4.657, DE 4 DE SETEMBRO DE 1942"},
		{"nothing", "apenas um preambulo qualquer\n", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := DetectLawTitle(tc.page); got != tc.want {
				t.Fatalf("got %q, want %q", got, tc.want)
			}
		})
	}
}

type fakeStorage struct {
	data map[string][]byte
	err  error
}

func (f *fakeStorage) Save(ctx context.Context, key string, data io.Reader) error { return nil }

func (f *fakeStorage) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	if f.err != nil {
		return nil, f.err
	}
	b, ok := f.data[key]
	if !ok {
		return nil, errors.New("not found")
	}
	return io.NopCloser(strings.NewReader(string(b))), nil
}

func TestExtractPlainTextDocument(t *testing.T) {
	storage := &fakeStorage{data: map[string][]byte{
		"docs/lei8112.txt": []byte(sampleLaw),
	}}
	ex := NewExtractor(storage)

	doc := &domain.SourceDocument{
		ID:          "doc-1",
		Filename:    "lei8112.txt",
		StoragePath: "docs/lei8112.txt",
	}
	arts, err := ex.Extract(context.Background(), doc)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(arts) != 4 {
		t.Fatalf("expected 4 articles, got %d", len(arts))
	}
	if arts[0].LawTitle != "LEI Nº 8.112, DE 11 DE DEZEMBRO DE 1990" {
		t.Fatalf("expected heading as law title, got %q", arts[0].LawTitle)
	}
	if arts[0].SourceFile != "lei8112.txt" {
		t.Fatalf("expected source file carried, got %q", arts[0].SourceFile)
	}
}

func TestExtractFallsBackToFilenameTitle(t *testing.T) {
	storage := &fakeStorage{data: map[string][]byte{
		"docs/lei_de_improbidade.txt": []byte("Art. 1º O sistema aplica-se a todos os agentes públicos."),
	}}
	ex := NewExtractor(storage)

	arts, err := ex.Extract(context.Background(), &domain.SourceDocument{
		Filename:    "lei_de_improbidade.txt",
		StoragePath: "docs/lei_de_improbidade.txt",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if arts[0].LawTitle != "lei de improbidade" {
		t.Fatalf("expected filename-derived title, got %q", arts[0].LawTitle)
	}
}

func TestExtractErrorsAreExtractionKind(t *testing.T) {
	t.Run("open failure", func(t *testing.T) {
		ex := NewExtractor(&fakeStorage{err: errors.New("disk gone")})
		_, err := ex.Extract(context.Background(), &domain.SourceDocument{Filename: "x.pdf", StoragePath: "x"})
		if !domain.IsKind(err, domain.ErrExtraction) {
			t.Fatalf("expected extraction kind, got %v", err)
		}
	})

	t.Run("binary garbage", func(t *testing.T) {
		ex := NewExtractor(&fakeStorage{data: map[string][]byte{"x": {0xff, 0xfe, 0x00, 0x01}}})
		_, err := ex.Extract(context.Background(), &domain.SourceDocument{Filename: "x.bin", StoragePath: "x"})
		if !domain.IsKind(err, domain.ErrExtraction) {
			t.Fatalf("expected extraction kind, got %v", err)
		}
	})

	t.Run("no articles", func(t *testing.T) {
		ex := NewExtractor(&fakeStorage{data: map[string][]byte{"x": []byte("texto sem artigos")}})
		_, err := ex.Extract(context.Background(), &domain.SourceDocument{Filename: "x.txt", StoragePath: "x"})
		if !domain.IsKind(err, domain.ErrExtraction) {
			t.Fatalf("expected extraction kind, got %v", err)
		}
	})
}
