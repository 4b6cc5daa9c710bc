package file_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/aretw0/teiinfo/pkg/adapters/file"
	"github.com/aretw0/teiinfo/pkg/domain"
	"github.com/aretw0/teiinfo/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStore_Contract(t *testing.T) {
	store := file.NewStore(t.TempDir())
	ports.RunAnalysisStoreContract(t, store)
}

func TestFileStore_Layout(t *testing.T) {
	dir := t.TempDir()
	store := file.NewStore(dir)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "abc123", &domain.SchemaAnalysis{Schema: "tei_all"}))

	_, err := os.Stat(filepath.Join(dir, "abc123.json"))
	assert.NoError(t, err, "analysis should be stored as <key>.json")

	matches, _ := filepath.Glob(filepath.Join(dir, "tmp-*"))
	assert.Empty(t, matches, "temp files should not be left behind")
}

func TestFileStore_InvalidKey(t *testing.T) {
	store := file.NewStore(t.TempDir())
	ctx := context.Background()

	for _, key := range []string{"", "../escape", "a/b"} {
		assert.Error(t, store.Save(ctx, key, &domain.SchemaAnalysis{}), "key %q", key)
	}
}

func TestFileStore_ListMissingDir(t *testing.T) {
	store := file.NewStore(filepath.Join(t.TempDir(), "absent"))
	keys, err := store.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, keys)
}
