package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/aretw0/teiinfo/pkg/domain"
)

// Loader implements ports.CorpusLoader using an in-memory map.
// Safe for concurrent use.
type Loader struct {
	mu   sync.RWMutex
	docs map[string][]byte
}

// NewLoader creates a new in-memory loader with the provided raw XML documents.
func NewLoader(data map[string]string) *Loader {
	docs := make(map[string][]byte, len(data))
	for k, v := range data {
		docs[k] = []byte(v)
	}
	return &Loader{docs: docs}
}

// Put adds or replaces a document.
func (l *Loader) Put(id string, content []byte) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.docs[id] = append([]byte(nil), content...)
}

// GetDocument retrieves the raw XML of a document by ID.
func (l *Loader) GetDocument(ctx context.Context, id string) ([]byte, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	content, ok := l.docs[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrDocumentNotFound, id)
	}
	return append([]byte(nil), content...), nil
}

// ListDocuments returns all available document IDs.
func (l *Loader) ListDocuments(ctx context.Context) ([]string, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	keys := make([]string, 0, len(l.docs))
	for k := range l.docs {
		keys = append(keys, k)
	}
	sort.Strings(keys) // Deterministic order
	return keys, nil
}
