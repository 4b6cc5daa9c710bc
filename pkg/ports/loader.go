package ports

import "context"

// CorpusLoader defines how the toolkit retrieves corpus documents.
// This allows the storage layer (filesystem, memory) to be decoupled.
type CorpusLoader interface {
	// GetDocument retrieves the raw XML of a document by ID.
	// It returns domain.ErrDocumentNotFound (wrapped) if the ID is unknown.
	GetDocument(ctx context.Context, id string) ([]byte, error)

	// ListDocuments returns the IDs of all documents in the corpus, sorted.
	ListDocuments(ctx context.Context) ([]string, error)
}

// Watchable defines an interface for loaders that can notify about backend changes.
type Watchable interface {
	// Watch returns a channel that receives the ID (or path) of changed documents.
	// The channel is closed when ctx is done.
	Watch(ctx context.Context) (<-chan string, error)
}
