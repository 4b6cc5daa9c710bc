/*
Package teiinfo retrieves information from TEI (Text Encoding Initiative) XML corpora and ships the schema tooling that goes with them.

It combines three components behind one Toolkit:

  - a corpus reader (package tei) for headers, plain text, XPath queries and element inventories;
  - an XML Schema analyzer (package xmlschema) that classifies every element as mixed or pure content;
  - a validator that delegates grammar checks to Java tools (jing, trang) after an in-process well-formedness check.

The reader and the analyzer work without Java. Analyses are cached by checksum in an AnalysisStore (memory, file or redis), and a redis store also serialises concurrent analyses of the same schema across processes.

# Usage

	package main

	import (
		"context"
		"fmt"
		"log"

		"github.com/aretw0/teiinfo"
	)

	func main() {
		tk, err := teiinfo.New("./corpus")
		if err != nil {
			log.Fatal(err)
		}

		ctx := context.Background()
		inv, err := tk.Inventory(ctx)
		if err != nil {
			log.Fatal(err)
		}
		fmt.Println(inv.Documents, "documents")

		analysis, err := tk.AnalyzeSchema(ctx, "tei_all.xsd")
		if err != nil {
			log.Fatal(err)
		}
		fmt.Println(analysis.Mixed())
	}
*/
package teiinfo
