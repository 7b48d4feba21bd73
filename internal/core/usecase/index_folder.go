package usecase

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/lbarbosa/questora/internal/core/domain"
	"github.com/lbarbosa/questora/internal/core/ports"
)

// statsProcessor is the slice of the processing pipeline the batch indexer
// needs: process one stored document and report its counters.
type statsProcessor interface {
	ProcessReturningStats(ctx context.Context, documentID string) (domain.IndexStats, error)
}

// IndexFolderUseCase runs the offline pipeline over every statute file in a
// folder. Files are processed with bounded parallelism; an extraction failure
// in one file never aborts the batch, it is collected in the report instead.
// Infrastructure outages (embedding, index, database) do abort it.
type IndexFolderUseCase struct {
	repo        ports.DocumentRepository
	storage     ports.ObjectStorage
	processor   statsProcessor
	concurrency int
}

func NewIndexFolderUseCase(
	repo ports.DocumentRepository,
	storage ports.ObjectStorage,
	processor statsProcessor,
	concurrency int,
) *IndexFolderUseCase {
	if concurrency <= 0 {
		concurrency = 4
	}
	return &IndexFolderUseCase{
		repo:        repo,
		storage:     storage,
		processor:   processor,
		concurrency: concurrency,
	}
}

func (uc *IndexFolderUseCase) IndexFolder(ctx context.Context, dir string) (*domain.BatchReport, error) {
	files, err := listStatuteFiles(dir)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, domain.WrapError(domain.ErrInvalidInput, "index folder", fmt.Errorf("no statute files in %s", dir))
	}

	var mu sync.Mutex
	report := &domain.BatchReport{}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(uc.concurrency)

	for _, path := range files {
		path := path
		g.Go(func() error {
			stats, err := uc.indexFile(gctx, path)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				if domain.IsKind(err, domain.ErrExtraction) {
					report.Failures = append(report.Failures, domain.DocumentFailure{
						Filename: filepath.Base(path),
						Reason:   err.Error(),
					})
					return nil
				}
				return err
			}
			report.Documents++
			report.TotalArticles += stats.TotalArticles
			report.InForce += stats.InForce
			report.Vetoed += stats.Vetoed
			report.PassagesStored += stats.PassagesStored
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.Slice(report.Failures, func(i, j int) bool {
		return report.Failures[i].Filename < report.Failures[j].Filename
	})
	return report, nil
}

func (uc *IndexFolderUseCase) indexFile(ctx context.Context, path string) (domain.IndexStats, error) {
	f, err := os.Open(path)
	if err != nil {
		return domain.IndexStats{}, domain.WrapError(domain.ErrExtraction, "open "+filepath.Base(path), err)
	}
	defer f.Close()

	filename := filepath.Base(path)
	id := uuid.NewString()
	storageKey := fmt.Sprintf("%s_%s", id, sanitizeFilename(filename))
	now := time.Now().UTC()

	if err := uc.storage.Save(ctx, storageKey, f); err != nil {
		return domain.IndexStats{}, fmt.Errorf("save to object storage: %w", err)
	}

	doc := &domain.SourceDocument{
		ID:          id,
		Filename:    filename,
		MimeType:    mimeTypeFor(filename),
		StoragePath: storageKey,
		Status:      domain.StatusUploaded,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := uc.repo.Create(ctx, doc); err != nil {
		return domain.IndexStats{}, fmt.Errorf("create document metadata: %w", err)
	}

	return uc.processor.ProcessReturningStats(ctx, id)
}

func listStatuteFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read folder: %w", err)
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(entry.Name())) {
		case ".pdf", ".txt":
			files = append(files, filepath.Join(dir, entry.Name()))
		}
	}
	sort.Strings(files)
	return files, nil
}

func mimeTypeFor(filename string) string {
	if strings.EqualFold(filepath.Ext(filename), ".pdf") {
		return "application/pdf"
	}
	return "text/plain"
}
