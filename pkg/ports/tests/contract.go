package tests

import (
	"context"
	"errors"
	"testing"

	"github.com/aretw0/teiinfo/pkg/domain"
	"github.com/aretw0/teiinfo/pkg/ports"
)

// CorpusLoaderContractTest is a reusable test suite that verifies if an adapter complies with ports.CorpusLoader.
func CorpusLoaderContractTest(t *testing.T, loader ports.CorpusLoader, setupData map[string][]byte) {
	t.Helper()
	ctx := context.Background()

	// 1. Test GetDocument (Success)
	t.Run("GetDocument_Success", func(t *testing.T) {
		for id, expectedContent := range setupData {
			content, err := loader.GetDocument(ctx, id)
			if err != nil {
				t.Fatalf("unexpected error getting document %s: %v", id, err)
			}
			if string(content) != string(expectedContent) {
				t.Errorf("content mismatch for %s. got %q, want %q", id, content, expectedContent)
			}
		}
	})

	// 2. Test GetDocument (NotFound)
	t.Run("GetDocument_NotFound", func(t *testing.T) {
		_, err := loader.GetDocument(ctx, "non-existent-document")
		if !errors.Is(err, domain.ErrDocumentNotFound) {
			t.Errorf("expected ErrDocumentNotFound, got %v", err)
		}
	})

	// 3. Test ListDocuments
	t.Run("ListDocuments", func(t *testing.T) {
		ids, err := loader.ListDocuments(ctx)
		if err != nil {
			t.Fatalf("unexpected error listing documents: %v", err)
		}

		if len(ids) != len(setupData) {
			t.Errorf("expected %d documents, got %d", len(setupData), len(ids))
		}

		for i := 1; i < len(ids); i++ {
			if ids[i-1] > ids[i] {
				t.Errorf("ids not sorted: %v", ids)
				break
			}
		}

		lookup := make(map[string]bool)
		for _, id := range ids {
			lookup[id] = true
		}
		for id := range setupData {
			if !lookup[id] {
				t.Errorf("expected document %s to be listed", id)
			}
		}
	})
}
