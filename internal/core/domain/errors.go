package domain

import (
	"errors"
	"fmt"
)

var (
	ErrDocumentNotFound = errors.New("document not found")
	ErrInvalidInput     = errors.New("invalid input")
	ErrTemporary        = errors.New("temporary failure")

	// ErrExtraction marks a per-document extraction failure. Batch callers
	// collect these instead of aborting the whole run.
	ErrExtraction = errors.New("extraction failed")

	// ErrEmbeddingUnavailable is raised after retry exhaustion against the
	// embedding service; the calling operation cannot proceed without vectors.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// ErrMalformedGeneration means the model output could not be parsed into
	// the question schema, even after the stricter re-prompt.
	ErrMalformedGeneration = errors.New("malformed model output")

	// ErrInvalidQuestion and ErrDuplicateQuestion are distinct so callers can
	// retry differently: regenerate vs. vary the topic.
	ErrInvalidQuestion   = errors.New("invalid question")
	ErrDuplicateQuestion = errors.New("duplicate question")

	// ErrNoContext is the refuse outcome when retrieval finds nothing above
	// the relevance threshold and the zero-context policy forbids generating.
	ErrNoContext = errors.New("no context available")

	ErrPersistence = errors.New("persistence failure")
)

// WrapError preserves typed semantic errors with operation context.
func WrapError(kind error, operation string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", operation, kind, err)
}

func IsKind(err error, kind error) bool {
	return errors.Is(err, kind)
}
