package chunking

import (
	"strings"
	"testing"

	"github.com/lbarbosa/questora/internal/core/domain"
)

func TestSplitShortArticleSinglePassage(t *testing.T) {
	s := NewSplitter(1000, 150)
	art := domain.Article{
		LawTitle:   "Lei 8.112/1990",
		Number:     "Art. 5º",
		Body:       "São requisitos básicos para investidura em cargo público a nacionalidade brasileira.",
		InForce:    true,
		SourceFile: "lei8112.pdf",
	}

	got := s.Split(art)
	if len(got) != 1 {
		t.Fatalf("expected 1 passage, got %d", len(got))
	}
	p := got[0]
	if !strings.HasPrefix(p.Text, "Art. 5º: ") {
		t.Fatalf("expected article-number prefix, got %q", p.Text)
	}
	if p.ChunkIndex != 0 {
		t.Fatalf("expected chunk index 0, got %d", p.ChunkIndex)
	}
	if !p.InForce {
		t.Fatalf("expected in-force flag carried over")
	}
}

func TestSplitLongArticleLabelsParts(t *testing.T) {
	s := NewSplitter(200, 40)
	sentence := "O servidor público responde civil, penal e administrativamente pelo exercício irregular de suas atribuições. "
	art := domain.Article{
		LawTitle: "Lei 8.112/1990",
		Number:   "Art. 121",
		Body:     strings.Repeat(sentence, 8),
		InForce:  true,
	}

	got := s.Split(art)
	if len(got) < 2 {
		t.Fatalf("expected multiple passages, got %d", len(got))
	}
	for i, p := range got {
		if !strings.Contains(p.Text, "(parte") {
			t.Fatalf("passage %d missing part label: %q", i, p.Text)
		}
		if !strings.HasPrefix(p.Text, "Art. 121 ") {
			t.Fatalf("passage %d missing article prefix: %q", i, p.Text)
		}
		if p.ChunkIndex != i {
			t.Fatalf("expected chunk index %d, got %d", i, p.ChunkIndex)
		}
	}
}

func TestSplitKeepsPassagesWithinMaxLength(t *testing.T) {
	s := NewSplitter(200, 40)
	sentence := "O servidor público responde civil, penal e administrativamente pelo exercício irregular de suas atribuições. "
	art := domain.Article{
		LawTitle: "Lei 8.112/1990",
		Number:   "Art. 121",
		Body:     strings.Repeat(sentence, 12),
		InForce:  true,
	}

	got := s.Split(art)
	if len(got) < 2 {
		t.Fatalf("expected multiple passages, got %d", len(got))
	}
	for i, p := range got {
		if n := len([]rune(p.Text)); n > 200 {
			t.Fatalf("passage %d has %d runes, exceeds maximum 200: %q", i, n, p.Text)
		}
	}
}

func TestSplitPrefersSentenceBoundaries(t *testing.T) {
	s := NewSplitter(150, 20)
	art := domain.Article{
		Number: "Art. 1º",
		Body: "A administração pública obedecerá aos princípios da legalidade. " +
			"Também obedecerá à impessoalidade e à moralidade. " +
			"E ainda à publicidade e à eficiência, nos termos da Constituição.",
	}

	got := s.Split(art)
	if len(got) < 2 {
		t.Fatalf("expected split, got %d passages", len(got))
	}
	first := got[0].Text
	if !strings.HasSuffix(strings.TrimSpace(first), ".") {
		t.Fatalf("expected first chunk to end at a sentence, got %q", first)
	}
}

func TestSplitDeterministicIDs(t *testing.T) {
	s := NewSplitter(1000, 150)
	art := domain.Article{
		LawTitle: "LINDB",
		Number:   "Art. 2º",
		Body:     "Não se destinando à vigência temporária, a lei terá vigor até que outra a modifique ou revogue.",
	}

	a := s.Split(art)
	b := s.Split(art)
	if a[0].ID != b[0].ID {
		t.Fatalf("expected stable fingerprint, got %q vs %q", a[0].ID, b[0].ID)
	}

	other := art
	other.Body = other.Body + " Texto alterado."
	c := s.Split(other)
	if c[0].ID == a[0].ID {
		t.Fatalf("expected different fingerprint for different content")
	}
}

func TestFingerprintNormalizesWhitespaceAndCase(t *testing.T) {
	a := Fingerprint("Lei X", "Art. 1º", "A lei   entra em vigor")
	b := Fingerprint("Lei X", "Art. 1º", "a LEI entra\nem vigor")
	if a != b {
		t.Fatalf("expected normalized texts to share a fingerprint")
	}
}

func TestSplitEmptyBody(t *testing.T) {
	s := NewSplitter(1000, 150)
	if got := s.Split(domain.Article{Number: "Art. 9º", Body: "   "}); got != nil {
		t.Fatalf("expected nil for blank body, got %v", got)
	}
}
