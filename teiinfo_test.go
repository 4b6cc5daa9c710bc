package teiinfo_test

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/aretw0/teiinfo"
	"github.com/aretw0/teiinfo/pkg/adapters/memory"
	"github.com/aretw0/teiinfo/pkg/adapters/redis"
	"github.com/aretw0/teiinfo/pkg/domain"
	"github.com/aretw0/teiinfo/pkg/ports"
	backend "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const basicXSD = "pkg/xmlschema/testdata/basic.xsd"

const letter = `<TEI xmlns="http://www.tei-c.org/ns/1.0">
<teiHeader><fileDesc><titleStmt><title>Letter</title><author>Anna</author></titleStmt></fileDesc></teiHeader>
<text><body><pb n="1" facs="s1.jpg"/><p>Hello <persName>Constantijn</persName>.</p></body></text>
</TEI>`

func newToolkit(t *testing.T, opts ...teiinfo.Option) *teiinfo.Toolkit {
	t.Helper()
	loader := memory.NewLoader(map[string]string{
		"letters/001": letter,
		"letters/002": `<TEI xmlns="http://www.tei-c.org/ns/1.0"><text><body><p>Bye</p></body></text></TEI>`,
	})
	tk, err := teiinfo.New("", append([]teiinfo.Option{teiinfo.WithLoader(loader)}, opts...)...)
	require.NoError(t, err)
	return tk
}

func TestNew_RequiresCorpus(t *testing.T) {
	_, err := teiinfo.New("")
	assert.Error(t, err)
}

func TestToolkit_FileCorpus(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "letters"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "letters", "001.xml"), []byte(letter), 0644))

	tk, err := teiinfo.New(dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Base(dir), tk.Name)

	ctx := context.Background()
	ids, err := tk.Documents(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"letters/001"}, ids)

	doc, err := tk.Header(ctx, "letters/001")
	require.NoError(t, err)
	assert.Equal(t, "Letter", doc.Header.Title)
	assert.Equal(t, filepath.Join(dir, "letters", "001.xml"), doc.Path)
}

func TestToolkit_Reader(t *testing.T) {
	tk := newToolkit(t)
	ctx := context.Background()

	doc, err := tk.Header(ctx, "letters/001")
	require.NoError(t, err)
	assert.Equal(t, []string{"Anna"}, doc.Header.Authors)

	_, err = tk.Header(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrDocumentNotFound)

	text, err := tk.Text(ctx, "letters/001")
	require.NoError(t, err)
	assert.Contains(t, text, "Hello Constantijn.")

	matches, err := tk.Query(ctx, "//tei:p")
	require.NoError(t, err)
	require.Len(t, matches, 2)
	assert.Equal(t, "letters/001", matches[0].Document)

	only, err := tk.Query(ctx, "//tei:p", "letters/002")
	require.NoError(t, err)
	require.Len(t, only, 1)
	assert.Equal(t, "Bye", only[0].Text)

	_, err = tk.Query(ctx, "//tei:p[")
	assert.Error(t, err)

	inv, err := tk.Inventory(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, inv.Documents)
	assert.Equal(t, 2, inv.Elements["p"].Count)
	require.Len(t, inv.Pages, 1)
	assert.Equal(t, "s1.jpg", inv.Pages[0].Facs)

	headers, err := tk.Headers(ctx)
	require.NoError(t, err)
	assert.Len(t, headers, 2)
}

func TestToolkit_Watch_Unsupported(t *testing.T) {
	tk := newToolkit(t)
	_, err := tk.Watch(context.Background())
	assert.Error(t, err)
}

func TestToolkit_AnalyzeSchema_Cached(t *testing.T) {
	var events []domain.AnalysisEvent
	var mu sync.Mutex
	hooks := domain.Hooks{OnAnalysis: func(_ context.Context, e *domain.AnalysisEvent) {
		mu.Lock()
		defer mu.Unlock()
		events = append(events, *e)
	}}
	store := memory.NewStore()
	tk := newToolkit(t, teiinfo.WithStore(store), teiinfo.WithHooks(hooks))
	ctx := context.Background()

	first, err := tk.AnalyzeSchema(ctx, basicXSD)
	require.NoError(t, err)
	assert.Equal(t, "basic.xsd", first.Schema)
	assert.Contains(t, first.Mixed(), "p")

	second, err := tk.AnalyzeSchema(ctx, basicXSD)
	require.NoError(t, err)
	assert.Equal(t, first.Elements, second.Elements)

	keys, err := store.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{first.Checksum}, keys)

	require.Len(t, events, 2)
	assert.False(t, events[0].Cached)
	assert.True(t, events[1].Cached)
}

type fakeConverter struct{ calls atomic.Int32 }

func (f *fakeConverter) ToXSD(_ context.Context, rngPath, outDir string) (string, error) {
	f.calls.Add(1)
	data, err := os.ReadFile(basicXSD)
	if err != nil {
		return "", err
	}
	out := filepath.Join(outDir, "converted.xsd")
	return out, os.WriteFile(out, data, 0644)
}

func TestToolkit_AnalyzeSchema_RelaxNG(t *testing.T) {
	conv := &fakeConverter{}
	tk := newToolkit(t, teiinfo.WithConverter(conv), teiinfo.WithWorkDir(t.TempDir()))
	ctx := context.Background()

	rng := filepath.Join(t.TempDir(), "custom.rng")
	require.NoError(t, os.WriteFile(rng, []byte(`<grammar xmlns="http://relaxng.org/ns/structure/1.0"/>`), 0644))

	a, err := tk.AnalyzeSchema(ctx, rng)
	require.NoError(t, err)
	assert.Equal(t, "custom.rng", a.Schema)
	assert.Contains(t, a.Mixed(), "p")

	_, err = tk.AnalyzeSchema(ctx, rng)
	require.NoError(t, err)
	assert.EqualValues(t, 1, conv.calls.Load(), "second analysis is served from the cache")
}

func TestToolkit_AnalyzeBytes(t *testing.T) {
	tk := newToolkit(t)
	data, err := os.ReadFile(basicXSD)
	require.NoError(t, err)

	a, err := tk.AnalyzeBytes(context.Background(), "upload.xsd", data)
	require.NoError(t, err)
	assert.Len(t, a.Elements, 17)

	again, err := tk.AnalyzeBytes(context.Background(), "second.xsd", data)
	require.NoError(t, err)
	assert.Equal(t, "second.xsd", again.Schema, "a cache hit carries the caller's label")
	assert.Equal(t, a.Checksum, again.Checksum)
	assert.Equal(t, "upload.xsd", a.Schema)

	_, err = tk.AnalyzeBytes(context.Background(), "upload.xsd", []byte("<root/>"))
	assert.ErrorIs(t, err, domain.ErrUnsupportedSchema)
}

func TestToolkit_AnalyzeBytes_DoesNotReadFiles(t *testing.T) {
	tk := newToolkit(t)
	abs, err := filepath.Abs(basicXSD)
	require.NoError(t, err)

	upload := `<xs:schema xmlns:xs="http://www.w3.org/2001/XMLSchema">
  <xs:include schemaLocation="` + filepath.ToSlash(abs) + `"/>
  <xs:element name="local" type="xs:string"/>
</xs:schema>`
	_, err = tk.AnalyzeBytes(context.Background(), "upload.xsd", []byte(upload))
	assert.ErrorIs(t, err, domain.ErrUnsupportedSchema)
	assert.NotContains(t, err.Error(), abs)

	withImport := `<xs:schema xmlns:xs="http://www.w3.org/2001/XMLSchema">
  <xs:import namespace="urn:other" schemaLocation="` + filepath.ToSlash(abs) + `"/>
  <xs:element name="local" type="xs:string"/>
</xs:schema>`
	a, err := tk.AnalyzeBytes(context.Background(), "upload.xsd", []byte(withImport))
	require.NoError(t, err)
	require.Len(t, a.Elements, 1)
	assert.Equal(t, "local", a.Elements[0].Name)
}

func TestToolkit_CompareSchemas(t *testing.T) {
	tk := newToolkit(t)
	diff, err := tk.CompareSchemas(context.Background(),
		"pkg/xmlschema/testdata/base.xsd", "pkg/xmlschema/testdata/redefine.xsd")
	require.NoError(t, err)
	require.Len(t, diff.Changed, 1)
	assert.Equal(t, domain.KindChange{Name: "body", From: domain.ContentElement, To: domain.ContentMixed}, diff.Changed[0])
}

type countingLocker struct {
	ports.DistributedLocker
	locks atomic.Int32
}

func (c *countingLocker) Lock(ctx context.Context, key string, ttl time.Duration) (ports.UnlockFunc, error) {
	c.locks.Add(1)
	return c.DistributedLocker.Lock(ctx, key, ttl)
}

func TestToolkit_AnalyzeSchema_RedisLock(t *testing.T) {
	mr := miniredis.RunT(t)
	client := backend.NewClient(&backend.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	store := redis.NewFromClient(client)
	locker := &countingLocker{DistributedLocker: store.Locker()}
	tk := newToolkit(t, teiinfo.WithStore(store), teiinfo.WithLocker(locker))

	var wg sync.WaitGroup
	for range 4 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := tk.AnalyzeSchema(context.Background(), basicXSD)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.GreaterOrEqual(t, locker.locks.Load(), int32(1))
	keys, err := store.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, keys, 1)
}

type fakeValidator struct{ seen sync.Map }

func (f *fakeValidator) Validate(_ context.Context, schema, instance string) (*domain.ValidationReport, error) {
	data, err := os.ReadFile(instance)
	if err != nil {
		return nil, err
	}
	f.seen.Store(instance, true)
	valid := !bytes.Contains(data, []byte("Bye"))
	r := &domain.ValidationReport{Schema: schema, Instance: instance, Engine: domain.EngineJing, Valid: valid}
	if !valid {
		r.Diagnostics = []domain.Diagnostic{{Severity: domain.SeverityError, Message: "no bye allowed"}}
	}
	return r, nil
}

func TestToolkit_ValidateCorpus(t *testing.T) {
	v := &fakeValidator{}
	var validated atomic.Int32
	hooks := domain.Hooks{OnValidation: func(context.Context, *domain.ValidationEvent) { validated.Add(1) }}
	tk := newToolkit(t, teiinfo.WithValidator(v), teiinfo.WithHooks(hooks), teiinfo.WithWorkers(2),
		teiinfo.WithWorkDir(t.TempDir()), teiinfo.WithLogger(discard()))

	reports, err := tk.ValidateCorpus(context.Background(), "tei.rng")
	require.NoError(t, err)
	require.Len(t, reports, 2)
	assert.Equal(t, "letters/001", reports[0].Instance)
	assert.True(t, reports[0].Valid)
	assert.Equal(t, "letters/002", reports[1].Instance)
	assert.False(t, reports[1].Valid)
	assert.EqualValues(t, 2, validated.Load())
}

func TestToolkit_Validate_JavaNotConfigured(t *testing.T) {
	tk := newToolkit(t)
	instance := filepath.Join(t.TempDir(), "doc.xml")
	require.NoError(t, os.WriteFile(instance, []byte(letter), 0644))

	_, err := tk.Validate(context.Background(), "tei.rng", instance)
	assert.ErrorIs(t, err, domain.ErrToolNotConfigured)
}
