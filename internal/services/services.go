package services

import (
	"context"

	"github.com/desertthunder/lens/internal/models"
)

// Provider is an external metadata source.
type Provider interface {
	// Name returns the short provider name used in cache keys and result sources (e.g. "tmdb").
	Name() string

	// SearchByTitle returns candidates ordered by the provider's relevance.
	// year and kind narrow the search when set; an empty slice means no match.
	SearchByTitle(ctx context.Context, title string, year int, kind models.ContentType) ([]models.Candidate, error)

	// GetDetails fetches the full record for a candidate, or nil when the provider has none.
	GetDetails(ctx context.Context, cand models.Candidate) (*models.Details, error)
}
