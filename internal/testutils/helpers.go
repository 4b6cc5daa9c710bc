package testutils

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/aretw0/loam"
	"github.com/aretw0/loam/pkg/core"
	"github.com/stretchr/testify/require"
)

// SetupReportRepo initializes an empty Loam repository for report archives in
// a temporary directory and returns its absolute path with the repository.
func SetupReportRepo(t *testing.T, opts ...loam.Option) (string, core.Repository) {
	t.Helper()

	dir, err := filepath.Abs(t.TempDir())
	require.NoError(t, err)

	repo, err := loam.Init(dir, opts...)
	require.NoError(t, err, "Failed to init report repository")

	return dir, repo
}

// WriteCorpus lays out TEI files below dir. Keys are document IDs, so
// "letters/b" becomes dir/letters/b.xml.
func WriteCorpus(t *testing.T, dir string, docs map[string]string) {
	t.Helper()
	for id, content := range docs {
		path := filepath.Join(dir, filepath.FromSlash(id)+".xml")
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	}
}
