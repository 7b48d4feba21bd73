package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/lbarbosa/questora/internal/core/domain"
)

func seedDoc(repo *docRepoFake) *domain.SourceDocument {
	doc := &domain.SourceDocument{
		ID:          "d1",
		Filename:    "lei8112.pdf",
		StoragePath: "d1_lei8112.pdf",
		Status:      domain.StatusUploaded,
	}
	repo.docs[doc.ID] = doc
	return doc
}

func sampleArticles() []domain.Article {
	return []domain.Article{
		{LawTitle: "Lei 8.112/1990", Number: "Art. 1º", Body: "vigente", InForce: true},
		{LawTitle: "Lei 8.112/1990", Number: "Art. 2º", Body: "(VETADO)", InForce: false},
		{LawTitle: "Lei 8.112/1990", Number: "Art. 3º", Body: "também vigente", InForce: true},
	}
}

func TestProcessIndexesInForceArticles(t *testing.T) {
	repo := newDocRepoFake()
	seedDoc(repo)
	index := &passageIndexFake{}
	uc := NewProcessDocumentUseCase(repo, &extractorFake{articles: sampleArticles()}, chunkerFake{}, &embedderFake{}, index, false)

	stats, err := uc.ProcessReturningStats(context.Background(), "d1")
	if err != nil {
		t.Fatalf("ProcessReturningStats() error = %v", err)
	}
	if stats.TotalArticles != 3 || stats.InForce != 2 || stats.Vetoed != 1 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
	if stats.PassagesStored != 2 {
		t.Fatalf("expected vetoed article excluded, got %d passages", stats.PassagesStored)
	}
	if len(index.upserted) != 2 {
		t.Fatalf("expected 2 upserted passages, got %d", len(index.upserted))
	}
	for _, p := range index.upserted {
		if p.DocumentID != "d1" {
			t.Fatalf("expected document id stamped on passage, got %q", p.DocumentID)
		}
	}

	last := repo.statusCalls[len(repo.statusCalls)-1]
	if last.status != domain.StatusIndexed {
		t.Fatalf("expected final status indexed, got %q", last.status)
	}
	if repo.savedStats["d1"].LawTitle != "Lei 8.112/1990" {
		t.Fatalf("expected stats persisted, got %+v", repo.savedStats["d1"])
	}
}

func TestProcessKeepsVetoedWhenConfigured(t *testing.T) {
	repo := newDocRepoFake()
	seedDoc(repo)
	index := &passageIndexFake{}
	uc := NewProcessDocumentUseCase(repo, &extractorFake{articles: sampleArticles()}, chunkerFake{}, &embedderFake{}, index, true)

	stats, err := uc.ProcessReturningStats(context.Background(), "d1")
	if err != nil {
		t.Fatalf("ProcessReturningStats() error = %v", err)
	}
	if stats.PassagesStored != 3 {
		t.Fatalf("expected all articles indexed, got %d", stats.PassagesStored)
	}

	vetoedSeen := false
	for _, p := range index.upserted {
		if !p.InForce {
			vetoedSeen = true
		}
	}
	if !vetoedSeen {
		t.Fatalf("expected vetoed passage flagged em_vigor=false in index")
	}
}

func TestProcessMarksFailedOnExtractionError(t *testing.T) {
	repo := newDocRepoFake()
	seedDoc(repo)
	extractErr := domain.WrapError(domain.ErrExtraction, "parse lei8112.pdf", errors.New("no articles found"))
	uc := NewProcessDocumentUseCase(repo, &extractorFake{err: extractErr}, chunkerFake{}, &embedderFake{}, &passageIndexFake{}, false)

	_, err := uc.ProcessReturningStats(context.Background(), "d1")
	if !domain.IsKind(err, domain.ErrExtraction) {
		t.Fatalf("expected extraction kind, got %v", err)
	}

	last := repo.statusCalls[len(repo.statusCalls)-1]
	if last.status != domain.StatusFailed {
		t.Fatalf("expected failed status, got %q", last.status)
	}
	if last.errMsg == "" {
		t.Fatalf("expected failure reason recorded")
	}
}

func TestProcessFailsWhenEmbeddingDown(t *testing.T) {
	repo := newDocRepoFake()
	seedDoc(repo)
	embedErr := domain.WrapError(domain.ErrEmbeddingUnavailable, "ollama.embed", errors.New("connection refused"))
	uc := NewProcessDocumentUseCase(repo, &extractorFake{articles: sampleArticles()}, chunkerFake{}, &embedderFake{err: embedErr}, &passageIndexFake{}, false)

	_, err := uc.ProcessReturningStats(context.Background(), "d1")
	if !domain.IsKind(err, domain.ErrEmbeddingUnavailable) {
		t.Fatalf("expected embedding-unavailable kind, got %v", err)
	}
	last := repo.statusCalls[len(repo.statusCalls)-1]
	if last.status != domain.StatusFailed {
		t.Fatalf("expected failed status, got %q", last.status)
	}
}
