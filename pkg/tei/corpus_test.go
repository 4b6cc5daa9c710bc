package tei_test

import (
	"context"
	"os"
	"sync/atomic"
	"testing"

	"github.com/aretw0/teiinfo/pkg/adapters/memory"
	"github.com/aretw0/teiinfo/pkg/domain"
	"github.com/aretw0/teiinfo/pkg/tei"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCorpus(t *testing.T, opts ...tei.CorpusOption) *tei.Corpus {
	t.Helper()
	letter, err := os.ReadFile("testdata/letter.xml")
	require.NoError(t, err)

	loader := memory.NewLoader(map[string]string{
		"a":      string(letter),
		"b":      `<TEI xmlns="http://www.tei-c.org/ns/1.0"><text><body><p>Second</p></body></text></TEI>`,
		"broken": "plain text, not xml",
	})
	return tei.NewCorpus(loader, opts...)
}

func TestCorpus_Inventory(t *testing.T) {
	var parsed atomic.Int32
	hooks := domain.Hooks{
		OnDocumentParsed: func(ctx context.Context, e *domain.DocumentEvent) {
			parsed.Add(1)
		},
	}
	corpus := newCorpus(t, tei.WithWorkers(2), tei.WithHooks(hooks))

	inv, err := corpus.Inventory(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, inv.Documents)
	assert.Equal(t, 4, inv.Elements["p"].Count)
	assert.Equal(t, 2, inv.Elements["p"].Documents)
	assert.Contains(t, inv.Failures, "broken")
	assert.Len(t, inv.Pages, 2)
	assert.Equal(t, int32(3), parsed.Load())
}

func TestCorpus_Inventory_Deterministic(t *testing.T) {
	corpus := newCorpus(t, tei.WithWorkers(4))
	first, err := corpus.Inventory(context.Background())
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		again, err := corpus.Inventory(context.Background())
		require.NoError(t, err)
		assert.Equal(t, first.Pages, again.Pages)
		assert.Equal(t, first.SortedElements(), again.SortedElements())
	}
}

func TestCorpus_Query(t *testing.T) {
	corpus := newCorpus(t)

	matches, err := corpus.Query(context.Background(), "//tei:body/tei:p")
	require.NoError(t, err)
	require.Len(t, matches, 4)
	assert.Equal(t, "a", matches[0].Document)
	assert.Equal(t, "b", matches[3].Document)
	assert.Equal(t, "Second", matches[3].Text)

	_, err = corpus.Query(context.Background(), "//[")
	assert.Error(t, err)
}

func TestCorpus_Query_Values(t *testing.T) {
	corpus := newCorpus(t, tei.WithWorkers(4))

	matches, err := corpus.Query(context.Background(), "count(//tei:body/tei:p)")
	require.NoError(t, err)
	require.Len(t, matches, 2, "one value per parseable document")
	assert.Equal(t, tei.CorpusMatch{Document: "a", Match: tei.Match{Name: tei.ValueName, Text: "3"}}, matches[0])
	assert.Equal(t, tei.CorpusMatch{Document: "b", Match: tei.Match{Name: tei.ValueName, Text: "1"}}, matches[1])
}

func TestCorpus_Headers(t *testing.T) {
	corpus := newCorpus(t)

	docs, err := corpus.Headers(context.Background())
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "a", docs[0].ID)
	assert.Equal(t, "Letter to Huygens", docs[0].Header.Title)
	assert.Equal(t, "b", docs[1].ID)
}

func TestCorpus_Open_NotFound(t *testing.T) {
	corpus := newCorpus(t)
	_, err := corpus.Open(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrDocumentNotFound)
}

func TestCorpus_Cancelled(t *testing.T) {
	corpus := newCorpus(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := corpus.Inventory(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
