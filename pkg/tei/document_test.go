package tei_test

import (
	"os"
	"strings"
	"testing"

	"github.com/aretw0/teiinfo/pkg/domain"
	"github.com/aretw0/teiinfo/pkg/tei"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadLetter(t *testing.T) *tei.Document {
	t.Helper()
	data, err := os.ReadFile("testdata/letter.xml")
	require.NoError(t, err)
	doc, err := tei.ParseBytes("letters/001", data)
	require.NoError(t, err)
	return doc
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"Empty", ""},
		{"NoRoot", "plain text, not xml"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tei.Parse(strings.NewReader(tt.input))
			assert.Error(t, err)
		})
	}
}

func TestDocument_Header(t *testing.T) {
	doc := loadLetter(t)

	h := doc.Header()
	assert.Equal(t, "Letter to Huygens", h.Title, "main title should win over earlier titles")
	assert.Equal(t, []string{"Anna Maria van Schurman"}, h.Authors)
	assert.Equal(t, []string{"J. Editor", "K. Editor"}, h.Editors)
	assert.Equal(t, "Example Press", h.Publisher)
	assert.Equal(t, "1639-05-01", h.Date)
	assert.Equal(t, "letter-001", h.Idno)
	assert.Equal(t, "la", h.Language)
}

func TestDocument_Header_Fallbacks(t *testing.T) {
	src := `<TEI xmlns="http://www.tei-c.org/ns/1.0" xml:lang="nl">
  <teiHeader><fileDesc>
    <titleStmt><title>Only title</title></titleStmt>
    <publicationStmt><date>circa 1640</date></publicationStmt>
  </fileDesc></teiHeader>
</TEI>`
	doc, err := tei.Parse(strings.NewReader(src))
	require.NoError(t, err)

	h := doc.Header()
	assert.Equal(t, "Only title", h.Title)
	assert.Equal(t, "circa 1640", h.Date)
	assert.Equal(t, "nl", h.Language)
	assert.Empty(t, h.Authors)
}

func TestDocument_Header_Missing(t *testing.T) {
	doc, err := tei.Parse(strings.NewReader(`<TEI/>`))
	require.NoError(t, err)
	assert.Equal(t, domain.Header{}, doc.Header())
}

func TestDocument_Text(t *testing.T) {
	doc := loadLetter(t)
	assert.Equal(t, "Dear Constantijn, I write to you. Farewell.", doc.Text())

	bare, err := tei.Parse(strings.NewReader("<note>  loose\n text </note>"))
	require.NoError(t, err)
	assert.Equal(t, "loose text", bare.Text())
}

func TestDocument_Inventory(t *testing.T) {
	doc := loadLetter(t)
	inv := doc.Inventory()

	assert.Equal(t, 1, inv.Documents)

	p := inv.Elements["p"]
	require.NotNil(t, p)
	assert.Equal(t, 3, p.Count)
	assert.Equal(t, 1, p.Documents)
	assert.True(t, p.HasText)

	pb := inv.Elements["pb"]
	require.NotNil(t, pb)
	assert.Equal(t, 2, pb.Count)
	assert.Equal(t, 2, pb.Attributes["n"])
	assert.False(t, pb.HasText)

	root := inv.Elements["TEI"]
	require.NotNil(t, root)
	assert.Equal(t, 1, root.Attributes["xml:lang"])
	assert.NotContains(t, root.Attributes, "xmlns", "namespace declarations are not attributes")

	assert.Equal(t, []domain.Page{
		{Document: "letters/001", N: "1", Facs: "scan001.jpg", Zone: "10,20,100,200"},
		{Document: "letters/001", N: "2", Facs: "scan002.jpg"},
	}, inv.Pages)
}

func TestMerge(t *testing.T) {
	a := loadLetter(t).Inventory()
	b := loadLetter(t).Inventory()
	b.Failures["broken"] = "no root element"

	total := domain.NewInventory()
	tei.Merge(&total, a)
	tei.Merge(&total, b)

	assert.Equal(t, 2, total.Documents)
	assert.Equal(t, 6, total.Elements["p"].Count)
	assert.Equal(t, 2, total.Elements["p"].Documents)
	assert.Equal(t, 4, total.Elements["pb"].Attributes["facs"])
	assert.Len(t, total.Pages, 4)
	assert.Equal(t, "no root element", total.Failures["broken"])
}

func TestMerge_ZeroValue(t *testing.T) {
	var total domain.Inventory
	tei.Merge(&total, loadLetter(t).Inventory())
	assert.Equal(t, 1, total.Documents)
	assert.NotNil(t, total.Failures)
}
