package httpadapter

import (
	"net/http"

	"github.com/lbarbosa/questora/internal/core/domain"
)

// mapErrorToHTTPStatus translates domain error kinds into response codes.
// Rejected-but-well-formed requests land in the 4xx range; model and
// dependency failures in 5xx.
func mapErrorToHTTPStatus(err error) int {
	switch {
	case domain.IsKind(err, domain.ErrInvalidInput):
		return http.StatusBadRequest
	case domain.IsKind(err, domain.ErrDocumentNotFound):
		return http.StatusNotFound
	case domain.IsKind(err, domain.ErrDuplicateQuestion):
		return http.StatusConflict
	case domain.IsKind(err, domain.ErrInvalidQuestion),
		domain.IsKind(err, domain.ErrNoContext),
		domain.IsKind(err, domain.ErrExtraction):
		return http.StatusUnprocessableEntity
	case domain.IsKind(err, domain.ErrMalformedGeneration):
		return http.StatusBadGateway
	case domain.IsKind(err, domain.ErrTemporary),
		domain.IsKind(err, domain.ErrEmbeddingUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
