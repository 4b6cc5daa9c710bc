package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aretw0/teiinfo"
	"github.com/aretw0/teiinfo/pkg/adapters/memory"
	"github.com/aretw0/teiinfo/pkg/domain"
	"github.com/aretw0/teiinfo/pkg/tei"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeToolkit struct {
	docs      map[string]domain.Header
	validated []string
	analyzed  []byte
}

func (f *fakeToolkit) Documents(ctx context.Context) ([]string, error) {
	return []string{"a", "letters/b"}, nil
}

func (f *fakeToolkit) Header(ctx context.Context, id string) (domain.Document, error) {
	h, ok := f.docs[id]
	if !ok {
		return domain.Document{}, domain.ErrDocumentNotFound
	}
	return domain.Document{ID: id, Path: "/secret/" + id + ".xml", Header: h}, nil
}

func (f *fakeToolkit) Query(ctx context.Context, expr string, ids ...string) ([]tei.CorpusMatch, error) {
	var out []tei.CorpusMatch
	for _, id := range ids {
		if _, ok := f.docs[id]; !ok {
			return nil, domain.ErrDocumentNotFound
		}
		for _, n := range []string{"one", "two", "three"} {
			out = append(out, tei.CorpusMatch{Document: id, Match: tei.Match{Name: "p", Text: n}})
		}
	}
	return out, nil
}

func (f *fakeToolkit) Inventory(ctx context.Context) (domain.Inventory, error) {
	inv := domain.NewInventory()
	inv.Documents = 2
	inv.Elements["p"] = &domain.ElementStat{Name: "p", Count: 3, Documents: 2}
	return inv, nil
}

func (f *fakeToolkit) AnalyzeBytes(ctx context.Context, label string, data []byte) (*domain.SchemaAnalysis, error) {
	if !strings.Contains(string(data), "schema") {
		return nil, domain.ErrUnsupportedSchema
	}
	f.analyzed = data
	return &domain.SchemaAnalysis{
		Schema:   label,
		Checksum: "abc",
		Elements: []domain.ElementDef{
			{Name: "hi", Kind: domain.ContentMixed},
			{Name: "list", Kind: domain.ContentElement},
		},
	}, nil
}

func (f *fakeToolkit) ValidateDocument(ctx context.Context, schema, id string) (*domain.ValidationReport, error) {
	if schema == "none" {
		return nil, domain.ErrToolNotConfigured
	}
	f.validated = append(f.validated, id)
	return &domain.ValidationReport{Schema: schema, Instance: id, Engine: domain.EngineJing, Valid: id == "a"}, nil
}

func newTestHandler(t *testing.T) (http.Handler, *fakeToolkit) {
	t.Helper()
	tk := &fakeToolkit{docs: map[string]domain.Header{
		"a":         {Title: "Alpha"},
		"letters/b": {Title: "Letter B"},
	}}
	h, err := NewHandler(tk, WithName("test"), WithGatherer(prometheus.NewRegistry()))
	require.NoError(t, err)
	return h, tk
}

func do(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestLoadSpec(t *testing.T) {
	doc, err := LoadSpec(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, doc.Paths.Find("/documents/{id}/query"))
}

func TestHealthAndInfo(t *testing.T) {
	h, _ := newTestHandler(t)

	w := do(t, h, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())

	w = do(t, h, http.MethodGet, "/info", "")
	require.Equal(t, http.StatusOK, w.Code)
	var info map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &info))
	assert.Equal(t, "test", info["name"])
	assert.EqualValues(t, 2, info["documents"])
}

func TestDocuments(t *testing.T) {
	h, _ := newTestHandler(t)

	w := do(t, h, http.MethodGet, "/documents", "")
	assert.JSONEq(t, `["a","letters/b"]`, w.Body.String())

	t.Run("Header with escaped slash", func(t *testing.T) {
		w := do(t, h, http.MethodGet, "/documents/letters%2Fb", "")
		require.Equal(t, http.StatusOK, w.Code)
		var doc domain.Document
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &doc))
		assert.Equal(t, "letters/b", doc.ID)
		assert.Equal(t, "Letter B", doc.Header.Title)
		assert.Empty(t, doc.Path, "server paths must not leak")
	})

	t.Run("Unknown document", func(t *testing.T) {
		w := do(t, h, http.MethodGet, "/documents/nope", "")
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Contains(t, w.Body.String(), "document not found")
	})
}

func TestQueryDocument(t *testing.T) {
	h, _ := newTestHandler(t)

	w := do(t, h, http.MethodGet, "/documents/a/query?xpath=//tei:p&limit=2", "")
	require.Equal(t, http.StatusOK, w.Code)
	var matches []tei.CorpusMatch
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &matches))
	require.Len(t, matches, 2)
	assert.Equal(t, "one", matches[0].Text)

	w = do(t, h, http.MethodGet, "/documents/a/query?xpath=//tei:p", "")
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &matches))
	assert.Len(t, matches, 3)

	for name, target := range map[string]string{
		"missing xpath":  "/documents/a/query",
		"invalid xpath":  "/documents/a/query?xpath=//[",
		"bad limit":      "/documents/a/query?xpath=//p&limit=many",
		"negative limit": "/documents/a/query?xpath=//p&limit=-1",
	} {
		t.Run(name, func(t *testing.T) {
			w := do(t, h, http.MethodGet, target, "")
			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
}

func TestInventory(t *testing.T) {
	h, _ := newTestHandler(t)
	w := do(t, h, http.MethodGet, "/inventory", "")
	require.Equal(t, http.StatusOK, w.Code)
	var inv domain.Inventory
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &inv))
	assert.Equal(t, 2, inv.Documents)
	assert.Equal(t, 3, inv.Elements["p"].Count)
}

func TestAnalyzeSchema(t *testing.T) {
	h, tk := newTestHandler(t)

	w := do(t, h, http.MethodPost, "/schemas/analyze?name=mine.xsd", `<xs:schema/>`)
	require.Equal(t, http.StatusOK, w.Code)
	var body struct {
		Schema string   `json:"schema"`
		Mixed  []string `json:"mixed"`
		Pure   []string `json:"pure"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "mine.xsd", body.Schema)
	assert.Equal(t, []string{"hi"}, body.Mixed)
	assert.Equal(t, []string{"list"}, body.Pure)
	assert.Equal(t, `<xs:schema/>`, string(tk.analyzed))

	w = do(t, h, http.MethodPost, "/schemas/analyze", `<TEI/>`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, h, http.MethodPost, "/schemas/analyze", ``)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	for _, name := range []string{"../etc/tei.xsd", "%2Fsrv%2Fschemas%2Ftei.xsd", `sub%5Ctei.xsd`, ".."} {
		t.Run("Rejects name "+name, func(t *testing.T) {
			tk.analyzed = nil
			w := do(t, h, http.MethodPost, "/schemas/analyze?name="+name, `<xs:schema/>`)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Nil(t, tk.analyzed, "the schema must not be analysed")
		})
	}
}

func TestAnalyzeSchema_UploadCannotReadServerFiles(t *testing.T) {
	secret := filepath.Join(t.TempDir(), "private.xsd")
	require.NoError(t, os.WriteFile(secret, []byte(`<xs:schema xmlns:xs="http://www.w3.org/2001/XMLSchema">
  <xs:element name="secret" type="xs:string"/>
</xs:schema>`), 0644))

	tk, err := teiinfo.New("", teiinfo.WithLoader(memory.NewLoader(map[string]string{})))
	require.NoError(t, err)
	h, err := NewHandler(tk, WithGatherer(prometheus.NewRegistry()))
	require.NoError(t, err)

	for _, tag := range []string{"include", "redefine", "override"} {
		t.Run(tag, func(t *testing.T) {
			upload := `<xs:schema xmlns:xs="http://www.w3.org/2001/XMLSchema">
  <xs:` + tag + ` schemaLocation="` + filepath.ToSlash(secret) + `"/>
</xs:schema>`
			w := do(t, h, http.MethodPost, "/schemas/analyze", upload)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.NotContains(t, w.Body.String(), "secret")
			assert.NotContains(t, w.Body.String(), "private.xsd")
		})
	}
}

func TestValidate(t *testing.T) {
	h, tk := newTestHandler(t)

	w := do(t, h, http.MethodPost, "/validate", `{"schema":"tei.rng","instance":"letters/b"}`)
	require.Equal(t, http.StatusOK, w.Code)
	var report domain.ValidationReport
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &report))
	assert.False(t, report.Valid)
	assert.Equal(t, []string{"letters/b"}, tk.validated)

	w = do(t, h, http.MethodPost, "/validate", `{"schema":"tei.rng"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, h, http.MethodPost, "/validate", `not json`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, h, http.MethodPost, "/validate", `{"schema":"none","instance":"a"}`)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestOpenAPIAndMetrics(t *testing.T) {
	h, _ := newTestHandler(t)

	w := do(t, h, http.MethodGet, "/openapi.yaml", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "openapi: 3.0.3")

	w = do(t, h, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, w.Code)

	w = do(t, h, http.MethodOptions, "/documents", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}
