package iiif_test

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/aretw0/teiinfo/pkg/domain"
	"github.com/aretw0/teiinfo/pkg/iiif"
	"github.com/aretw0/teiinfo/pkg/scans"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scanInfo() *scans.Info {
	return &scans.Info{
		Sizes: map[string]map[string]scans.Size{
			scans.KindPages: {
				"scan001": {Width: 100, Height: 200},
				"scan002": {Width: 300, Height: 400},
				"scan003": {Width: 1, Height: 2},
			},
			scans.KindCovers: {"front": {Width: 5, Height: 7}},
		},
		Rotations: map[string]int{"scan002": 90, "front": 180},
	}
}

func corpusPages() []domain.Page {
	return []domain.Page{
		{Document: "letters/001", N: "1", Facs: "scan001.jpg", Zone: "10,20,100,200"},
		{Document: "letters/001", N: "2", Facs: "scan002.jpg"},
		{Document: "letters/001", N: "2a", Facs: "scan002.jpg"},
		{Document: "letters/001", N: "3", Facs: "missing.jpg"},
		{Document: "letters/002", N: "1", Facs: "images/scan003.jpg"},
		{Document: "drafts/x", N: "1", Facs: "scan001.jpg"},
	}
}

func loadManifest(t *testing.T, path string) map[string]any {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var m map[string]any
	require.NoError(t, json.Unmarshal(data, &m))
	return m
}

func newGenerator(t *testing.T, level string, opts ...iiif.GeneratorOption) (*iiif.Generator, string) {
	t.Helper()
	cfg, err := iiif.LoadConfig("testdata/iiif.yaml")
	require.NoError(t, err)
	cfg.ManifestLevel = level

	out := t.TempDir()
	g, err := iiif.NewGenerator(cfg, scanInfo(), out, map[string]any{"label": "Letters"}, opts...)
	require.NoError(t, err)
	return g, out
}

func TestManifests_FolderLevel(t *testing.T) {
	g, out := newGenerator(t, iiif.LevelFolder)

	summary, err := g.Manifests(context.Background(), corpusPages())
	require.NoError(t, err)

	manifestDir := filepath.Join(out, "manifests")
	assert.Equal(t, []string{
		filepath.Join(manifestDir, "covers.json"),
		filepath.Join(manifestDir, "letters.json"),
	}, summary.Manifests)
	assert.Equal(t, []string{"drafts"}, summary.Excluded)
	assert.Equal(t, 6, summary.Pages, "five letter pages and one cover")
	assert.Equal(t, 5, summary.Items, "the repeated scan002 page is deduplicated")

	m := loadManifest(t, filepath.Join(manifestDir, "letters.json"))
	assert.Equal(t, "https://example.org/iiif/manifests/letters.json", m["id"])
	assert.Equal(t, "Letters", m["label"])

	items := m["items"].([]any)
	require.Len(t, items, 4)

	first := items[0].(map[string]any)
	assert.Equal(t, "https://example.org/iiif/letters/scan001", first["id"])
	assert.Equal(t, "10,20,100,200", first["region"])
	assert.EqualValues(t, 100, first["width"])

	second := items[1].(map[string]any)
	assert.EqualValues(t, 90, second["rotation"])
	assert.Equal(t, "full", second["region"])

	missing := items[2].(map[string]any)
	assert.Equal(t, "https://example.org/iiif/letters/filenotfound", missing["id"])
	assert.EqualValues(t, 480, missing["width"])
	assert.EqualValues(t, 640, missing["height"])

	covers := loadManifest(t, filepath.Join(manifestDir, "covers.json"))
	cover := covers["items"].([]any)[0].(map[string]any)
	assert.Equal(t, "https://example.org/iiif/covers/front", cover["id"])

	assert.Equal(t, []iiif.Missing{{Kind: scans.KindPages, Page: "missing", N: 1}}, summary.Missing)
	report, err := os.ReadFile(filepath.Join(out, iiif.MissingFile))
	require.NoError(t, err)
	assert.Equal(t, "kind\tfile\tpage\tn\npages\t\tmissing\t1\n", string(report))

	html, err := os.ReadFile(filepath.Join(out, "mirador.html"))
	require.NoError(t, err)
	assert.Contains(t, string(html), `manifests: ["https://example.org/iiif/manifests/letters.json"]`)
}

func TestManifests_FileLevel(t *testing.T) {
	g, out := newGenerator(t, iiif.LevelFile)

	summary, err := g.Manifests(context.Background(), corpusPages())
	require.NoError(t, err)

	manifestDir := filepath.Join(out, "manifests")
	assert.Contains(t, summary.Manifests, filepath.Join(manifestDir, "letters", "001.json"))
	assert.Contains(t, summary.Manifests, filepath.Join(manifestDir, "letters", "002.json"))
	assert.Equal(t, []iiif.Missing{{Kind: scans.KindPages, File: "001", Page: "missing", N: 1}}, summary.Missing)

	m := loadManifest(t, filepath.Join(manifestDir, "letters", "002.json"))
	items := m["items"].([]any)
	require.Len(t, items, 1)
	assert.Equal(t, "https://example.org/iiif/letters/scan003", items[0].(map[string]any)["id"])
}

func TestManifests_RecreatesOutput(t *testing.T) {
	g, out := newGenerator(t, iiif.LevelFolder)
	stale := filepath.Join(out, "manifests", "stale.json")
	require.NoError(t, os.MkdirAll(filepath.Dir(stale), 0755))
	require.NoError(t, os.WriteFile(stale, []byte("{}"), 0644))

	_, err := g.Manifests(context.Background(), corpusPages())
	require.NoError(t, err)
	assert.NoFileExists(t, stale)
}

func TestManifests_Placeholder(t *testing.T) {
	scanDir := t.TempDir()
	g, _ := newGenerator(t, iiif.LevelFolder, iiif.WithScanDir(scanDir))

	_, err := g.Manifests(context.Background(), corpusPages())
	require.NoError(t, err)

	size, err := scans.ImageSize(filepath.Join(scanDir, scans.KindPages, "filenotfound.jpg"))
	require.NoError(t, err)
	assert.Equal(t, iiif.FileNotFoundSize, size)
}

func TestNewGenerator_MissingTemplate(t *testing.T) {
	cfg, err := iiif.ParseConfig([]byte("templates:\n  pageItem:\n    id: x\n"))
	require.NoError(t, err)

	_, err = iiif.NewGenerator(cfg, nil, t.TempDir(), nil)
	assert.ErrorIs(t, err, iiif.ErrMissingTemplate)
}

func TestManifests_Cancelled(t *testing.T) {
	g, _ := newGenerator(t, iiif.LevelFolder)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := g.Manifests(ctx, corpusPages())
	assert.ErrorIs(t, err, context.Canceled)
}
