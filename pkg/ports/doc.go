/*
Package ports defines the driven ports (interfaces) of teiinfo.

These interfaces decouple the corpus reader, the schema analyzer and the validator
from the places documents come from, the external engines that check them and the
stores that cache results.

# Key Interfaces

  - CorpusLoader: lists and reads the TEI documents of a corpus (filesystem, memory).
  - Validator: checks an XML instance against a schema (Java jing, well-formedness).
  - Converter: turns a RELAX NG schema into XML Schema so it can be analysed (trang).
  - AnalysisStore: caches schema analyses by checksum (memory, file, Redis).
  - DistributedLocker: serialises expensive work across processes (Redis).
*/
package ports
