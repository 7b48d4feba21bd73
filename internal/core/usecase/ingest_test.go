package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/lbarbosa/questora/internal/core/domain"
)

func TestUploadStoresAndPublishes(t *testing.T) {
	repo := newDocRepoFake()
	storage := newStorageFake()
	queue := &queueFake{}
	uc := NewIngestDocumentUseCase(repo, storage, queue)

	doc, err := uc.Upload(context.Background(), "Lei 8.112.pdf", "application/pdf", strings.NewReader("%PDF-conteudo"))
	if err != nil {
		t.Fatalf("Upload() error = %v", err)
	}
	if doc.ID == "" || doc.Status != domain.StatusUploaded {
		t.Fatalf("unexpected document: %+v", doc)
	}
	if !strings.HasSuffix(doc.StoragePath, "_Lei_8.112.pdf") {
		t.Fatalf("expected sanitized storage key, got %q", doc.StoragePath)
	}
	if _, ok := storage.saved[doc.StoragePath]; !ok {
		t.Fatalf("expected body stored under %q", doc.StoragePath)
	}
	if _, ok := repo.docs[doc.ID]; !ok {
		t.Fatalf("expected metadata row created")
	}
	if len(queue.published) != 1 || queue.published[0] != doc.ID {
		t.Fatalf("expected upload event published, got %v", queue.published)
	}
}

func TestUploadRejectsEmptyFilename(t *testing.T) {
	uc := NewIngestDocumentUseCase(newDocRepoFake(), newStorageFake(), &queueFake{})

	_, err := uc.Upload(context.Background(), "   ", "application/pdf", strings.NewReader("x"))
	if !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected invalid-input kind, got %v", err)
	}
}

func TestUploadPropagatesStorageError(t *testing.T) {
	storage := newStorageFake()
	storage.err = errors.New("disk full")
	uc := NewIngestDocumentUseCase(newDocRepoFake(), storage, &queueFake{})

	_, err := uc.Upload(context.Background(), "lei.txt", "text/plain", strings.NewReader("x"))
	if err == nil || !strings.Contains(err.Error(), "object storage") {
		t.Fatalf("expected storage error surfaced, got %v", err)
	}
}

func TestSanitizeFilename(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"Lei Nº 8.112.pdf", "Lei_N__8.112.pdf"},
		{"../../etc/passwd", "passwd"},
		{"decreto-lei_4657.txt", "decreto-lei_4657.txt"},
	}
	for _, tc := range cases {
		if got := sanitizeFilename(tc.in); got != tc.want {
			t.Fatalf("sanitizeFilename(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
