package ports

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/teiinfo/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunAnalysisStoreContract runs a suite of tests to verify that an AnalysisStore
// implementation adheres to the defined interface contract.
func RunAnalysisStoreContract(t *testing.T, store AnalysisStore) {
	ctx := context.Background()
	key := "contract-" + time.Now().Format("20060102150405")

	sample := func() *domain.SchemaAnalysis {
		return &domain.SchemaAnalysis{
			Schema:   "tei_contract",
			Checksum: key,
			Elements: []domain.ElementDef{
				{Name: "div", Kind: domain.ContentElement},
				{Name: "p", Kind: domain.ContentMixed},
			},
			Created: time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
		}
	}

	t.Run("Save and Load", func(t *testing.T) {
		analysis := sample()
		require.NoError(t, store.Save(ctx, key, analysis), "Save should not return error")

		loaded, err := store.Load(ctx, key)
		require.NoError(t, err, "Load should not return error")
		assert.Equal(t, analysis.Schema, loaded.Schema)
		assert.Equal(t, analysis.Elements, loaded.Elements)
		assert.True(t, analysis.Created.Equal(loaded.Created))
	})

	t.Run("Isolation", func(t *testing.T) {
		analysis := sample()
		require.NoError(t, store.Save(ctx, key, analysis))

		// Mutating the caller's copy must not leak into the store.
		analysis.Elements[0].Kind = domain.ContentEmpty

		loaded, err := store.Load(ctx, key)
		require.NoError(t, err)
		assert.Equal(t, domain.ContentElement, loaded.Elements[0].Kind)
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "non-existent-"+key)
		assert.ErrorIs(t, err, domain.ErrAnalysisNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, key, sample()))
		require.NoError(t, store.Delete(ctx, key), "Delete should not return error")

		_, err := store.Load(ctx, key)
		assert.ErrorIs(t, err, domain.ErrAnalysisNotFound, "Load after Delete should return ErrAnalysisNotFound")

		assert.NoError(t, store.Delete(ctx, key), "Deleting twice should not fail")
	})

	t.Run("List", func(t *testing.T) {
		id1 := key + "-1"
		id2 := key + "-2"
		_ = store.Save(ctx, id1, sample())
		_ = store.Save(ctx, id2, sample())

		defer func() {
			_ = store.Delete(ctx, id1)
			_ = store.Delete(ctx, id2)
		}()

		keys, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, keys, id1)
		assert.Contains(t, keys, id2)
	})
}
