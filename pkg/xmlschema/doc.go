// Package xmlschema classifies the element declarations of W3C XML Schema
// documents as mixed content or pure content.
//
// An element has mixed content when its type allows text interleaved with
// child elements. Every other element is pure: it holds child elements only,
// text only, or nothing at all.
//
// The analysis works on the schema documents alone; it does not validate
// instances. RELAX NG grammars (the usual form of TEI customisations) must be
// converted to XSD first, see the java adapter.
package xmlschema
