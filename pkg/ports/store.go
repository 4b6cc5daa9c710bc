package ports

import (
	"context"

	"github.com/aretw0/teiinfo/pkg/domain"
)

// AnalysisStore defines the interface for caching schema analyses.
// Keys are usually the checksum of the analysed schema.
type AnalysisStore interface {
	// Save persists the analysis under key.
	Save(ctx context.Context, key string, analysis *domain.SchemaAnalysis) error

	// Load retrieves the analysis for key.
	// Returns domain.ErrAnalysisNotFound if there is none.
	Load(ctx context.Context, key string) (*domain.SchemaAnalysis, error)

	// Delete removes the analysis for key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// List returns the keys currently held.
	List(ctx context.Context) ([]string, error)
}
