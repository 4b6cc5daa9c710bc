package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/aretw0/teiinfo/pkg/domain"
)

// Store implements ports.AnalysisStore in memory.
// Safe for concurrent use.
type Store struct {
	data map[string]*domain.SchemaAnalysis
	mu   sync.RWMutex
}

// NewStore creates a new in-memory store.
func NewStore() *Store {
	return &Store{
		data: make(map[string]*domain.SchemaAnalysis),
	}
}

// Save persists the analysis in memory.
func (s *Store) Save(ctx context.Context, key string, analysis *domain.SchemaAnalysis) error {
	// Deep copy to ensure isolation, similar to serialization
	copied := clone(analysis)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = copied
	return nil
}

// Load retrieves the analysis from memory.
func (s *Store) Load(ctx context.Context, key string) (*domain.SchemaAnalysis, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	analysis, ok := s.data[key]
	if !ok {
		return nil, domain.ErrAnalysisNotFound
	}

	// Create a copy on read so caller can't mutate store state directly by pointer
	return clone(analysis), nil
}

// Delete removes the analysis.
func (s *Store) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, key)
	return nil
}

// List returns the stored keys, sorted.
func (s *Store) List(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	keys := make([]string, 0, len(s.data))
	for k := range s.data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}

func clone(a *domain.SchemaAnalysis) *domain.SchemaAnalysis {
	c := *a
	c.Elements = append([]domain.ElementDef(nil), a.Elements...)
	return &c
}
