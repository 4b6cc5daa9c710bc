// Package tei reads documents encoded according to the TEI guidelines.
//
// A Document wraps the parsed XML tree and offers XPath queries (with the TEI
// namespace bound to the "tei" prefix), header metadata, plain text and an
// inventory of elements, attributes and page breaks. Corpus lifts these
// operations to a whole collection of documents served by a ports.CorpusLoader.
package tei
