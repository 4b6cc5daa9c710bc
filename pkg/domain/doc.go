/*
Package domain contains the core data model shared by the teiinfo packages.

It defines what the corpus reader, the schema analyzer and the validator exchange,
and is kept free of I/O so that adapters (stores, HTTP, MCP) can depend on it
without pulling in parsers or external processes.

# Key Entities

  - Document and Header: a TEI file of the corpus and the metadata of its teiHeader.
  - Inventory: element, attribute and page statistics gathered over documents.
  - ElementDef and SchemaAnalysis: the mixed/pure classification of schema elements.
  - ValidationReport and Diagnostic: the outcome of checking an instance against a schema.
*/
package domain
