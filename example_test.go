package teiinfo_test

import (
	"context"
	"fmt"
	"log"

	"github.com/aretw0/teiinfo"
	"github.com/aretw0/teiinfo/pkg/adapters/memory"
)

// ExampleNew_memory shows the reader over an in-memory corpus, which is useful
// for tests or when documents come from somewhere other than the file system.
func ExampleNew_memory() {
	loader := memory.NewLoader(map[string]string{
		"intro": `<TEI xmlns="http://www.tei-c.org/ns/1.0">
  <teiHeader><fileDesc><titleStmt><title>Introduction</title></titleStmt></fileDesc></teiHeader>
  <text><body><p>First <hi>words</hi>.</p></body></text>
</TEI>`,
	})

	tk, err := teiinfo.New("", teiinfo.WithLoader(loader))
	if err != nil {
		log.Fatal(err)
	}

	ctx := context.Background()
	doc, err := tk.Header(ctx, "intro")
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(doc.Header.Title)

	matches, err := tk.Query(ctx, "//tei:hi")
	if err != nil {
		log.Fatal(err)
	}
	for _, m := range matches {
		fmt.Println(m.Document, m.Name, m.Text)
	}

	// Output:
	// Introduction
	// intro hi words
}
