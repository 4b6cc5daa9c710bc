package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/aretw0/teiinfo/internal/testutils"
	"github.com/aretw0/teiinfo/pkg/domain"
	"github.com/aretw0/teiinfo/pkg/tei"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const letter = `<?xml version="1.0"?>
<TEI xmlns="http://www.tei-c.org/ns/1.0">
  <teiHeader><fileDesc><titleStmt><title>%s</title></titleStmt></fileDesc></teiHeader>
  <text><body><p>One <hi>two</hi></p><p>three</p></body></text>
</TEI>`

const schema = `<?xml version="1.0"?>
<xs:schema xmlns:xs="http://www.w3.org/2001/XMLSchema">
  <xs:element name="p">
    <xs:complexType mixed="true">
      <xs:sequence><xs:element ref="hi" minOccurs="0"/></xs:sequence>
    </xs:complexType>
  </xs:element>
  <xs:element name="hi" type="xs:string"/>
</xs:schema>`

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func setupProject(t *testing.T, config string) string {
	t.Helper()
	dir := t.TempDir()
	testutils.WriteCorpus(t, filepath.Join(dir, "corpus"), map[string]string{
		"a":         strings.Replace(letter, "%s", "Alpha", 1),
		"letters/b": strings.Replace(letter, "%s", "Beta", 1),
	})
	writeFile(t, filepath.Join(dir, "schema.xsd"), schema)
	writeFile(t, filepath.Join(dir, "teiinfo.yaml"), "corpus: corpus\n"+config)
	return dir
}

func newApp(t *testing.T, dir string, jsonOut bool) *App {
	t.Helper()
	app, err := NewApp(Options{ConfigPath: filepath.Join(dir, "teiinfo.yaml"), JSON: jsonOut})
	require.NoError(t, err)
	t.Cleanup(func() { _ = app.Close() })
	return app
}

func TestNewApp(t *testing.T) {
	t.Run("Defaults", func(t *testing.T) {
		dir := setupProject(t, "")
		app := newApp(t, dir, false)
		assert.Equal(t, "corpus", app.Toolkit.Name)
		assert.Nil(t, app.Archive)
	})

	t.Run("Dir flag overrides the corpus", func(t *testing.T) {
		dir := setupProject(t, "")
		app, err := NewApp(Options{Dir: filepath.Join(dir, "corpus", "letters")})
		require.NoError(t, err)
		defer app.Close()
		ids, err := app.Toolkit.Documents(context.Background())
		require.NoError(t, err)
		assert.Equal(t, []string{"b"}, ids)
	})

	t.Run("File store and archive", func(t *testing.T) {
		dir := setupProject(t, "archive: reports\nstore:\n  backend: file\n  path: cache\n")
		app := newApp(t, dir, true)
		require.NotNil(t, app.Archive)

		var out bytes.Buffer
		require.NoError(t, RunAnalyze(context.Background(), app, &out, filepath.Join(dir, "schema.xsd")))

		keys, err := app.Toolkit.Store().List(context.Background())
		require.NoError(t, err)
		assert.Len(t, keys, 1)

		archived, err := app.Archive.List(context.Background(), "")
		require.NoError(t, err)
		assert.Len(t, archived, 1)
	})

	t.Run("Redis store", func(t *testing.T) {
		mr := miniredis.RunT(t)
		dir := setupProject(t, "store:\n  backend: redis\n  redis:\n    addr: "+mr.Addr()+"\n")
		app := newApp(t, dir, true)

		var out bytes.Buffer
		require.NoError(t, RunAnalyze(context.Background(), app, &out, filepath.Join(dir, "schema.xsd")))
		keys, err := app.Toolkit.Store().List(context.Background())
		require.NoError(t, err)
		assert.Len(t, keys, 1)
	})

	t.Run("Invalid config", func(t *testing.T) {
		dir := setupProject(t, "store:\n  backend: bogus\n")
		_, err := NewApp(Options{ConfigPath: filepath.Join(dir, "teiinfo.yaml")})
		assert.Error(t, err)
	})
}

func TestReadCommands(t *testing.T) {
	dir := setupProject(t, "")
	ctx := context.Background()

	t.Run("Inventory", func(t *testing.T) {
		app := newApp(t, dir, true)
		var out bytes.Buffer
		require.NoError(t, RunInventory(ctx, app, &out))
		var inv domain.Inventory
		require.NoError(t, json.Unmarshal(out.Bytes(), &inv))
		assert.Equal(t, 2, inv.Documents)
		assert.Equal(t, 4, inv.Elements["p"].Count)
	})

	t.Run("Header markdown", func(t *testing.T) {
		app := newApp(t, dir, false)
		var out bytes.Buffer
		require.NoError(t, RunHeader(ctx, app, &out, []string{"letters/b"}))
		assert.Contains(t, out.String(), "# Beta")
	})

	t.Run("All headers", func(t *testing.T) {
		app := newApp(t, dir, true)
		var out bytes.Buffer
		require.NoError(t, RunHeader(ctx, app, &out, nil))
		var docs []domain.Document
		require.NoError(t, json.Unmarshal(out.Bytes(), &docs))
		require.Len(t, docs, 2)
		assert.Equal(t, "Alpha", docs[0].Header.Title)
	})

	t.Run("Unknown document", func(t *testing.T) {
		app := newApp(t, dir, false)
		err := RunHeader(ctx, app, &bytes.Buffer{}, []string{"zzz"})
		assert.ErrorIs(t, err, domain.ErrDocumentNotFound)
	})

	t.Run("Query with limit", func(t *testing.T) {
		app := newApp(t, dir, true)
		var out bytes.Buffer
		require.NoError(t, RunQuery(ctx, app, &out, "//tei:p", nil, 3))
		var matches []tei.CorpusMatch
		require.NoError(t, json.Unmarshal(out.Bytes(), &matches))
		assert.Len(t, matches, 3)
		assert.Equal(t, "a", matches[0].Document)
	})

	t.Run("Text", func(t *testing.T) {
		app := newApp(t, dir, false)
		var out bytes.Buffer
		require.NoError(t, RunText(ctx, app, &out, "a"))
		assert.Contains(t, out.String(), "One two")
	})
}

func TestSchemaCommands(t *testing.T) {
	dir := setupProject(t, "")
	ctx := context.Background()
	app := newApp(t, dir, false)

	var out bytes.Buffer
	require.NoError(t, RunAnalyze(ctx, app, &out, filepath.Join(dir, "schema.xsd")))
	assert.Contains(t, out.String(), "2 elements: **1 mixed**, **1 pure**.")

	out.Reset()
	require.NoError(t, RunCompare(ctx, app, &out, filepath.Join(dir, "schema.xsd"), filepath.Join(dir, "schema.xsd")))
	assert.Contains(t, out.String(), "No differences.")

	err := RunConvert(ctx, app, &out, filepath.Join(dir, "tei.rng"), filepath.Join(dir, "xsd"))
	assert.ErrorIs(t, err, domain.ErrToolNotConfigured)
}

func TestRunValidateWithoutJing(t *testing.T) {
	dir := setupProject(t, "")
	app := newApp(t, dir, false)
	err := RunValidate(context.Background(), app, &bytes.Buffer{}, "tei.rng", nil)
	assert.ErrorIs(t, err, domain.ErrToolNotConfigured)
}

func TestRunMergeIntro(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.xml")
	b := filepath.Join(dir, "b.xml")
	writeFile(t, a, strings.Replace(letter, "%s", "First", 1))
	writeFile(t, b, strings.Replace(letter, "%s", "Second", 1))

	out := filepath.Join(dir, "out", "intro.xml")
	require.NoError(t, RunMergeIntro(nil, out, []string{a, b}))
	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(data), "First")
	assert.NotContains(t, string(data), "Second")
	assert.Equal(t, 4, strings.Count(string(data), "<p>"))

	var buf bytes.Buffer
	err = RunMergeIntro(&buf, "", []string{a, filepath.Join(dir, "missing.xml")})
	assert.Error(t, err)
}

func TestRunScanInfo(t *testing.T) {
	dir := setupProject(t, "")
	app := newApp(t, dir, true)
	src := filepath.Join(dir, "scans")
	require.NoError(t, os.MkdirAll(filepath.Join(src, "pages"), 0755))

	var out bytes.Buffer
	require.NoError(t, RunScanInfo(context.Background(), app, &out, src, filepath.Join(dir, "report"), true))
	assert.Contains(t, out.String(), "sizes_pages.tsv")
}

func TestFirstOf(t *testing.T) {
	assert.Equal(t, "b", firstOf("", "b", "c"))
	assert.Equal(t, "", firstOf("", ""))
}
