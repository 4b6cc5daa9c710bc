package tei

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/antchfx/xmlquery"
)

// Namespace is the TEI namespace URI.
const Namespace = "http://www.tei-c.org/ns/1.0"

// Document is a parsed TEI file.
type Document struct {
	ID   string
	root *xmlquery.Node
}

// Parse reads a TEI document from r.
// Any well-formed XML is accepted; TEI specific accessors return zero values
// when the expected elements are absent.
func Parse(r io.Reader) (*Document, error) {
	root, err := xmlquery.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse xml: %w", err)
	}
	if documentElement(root) == nil {
		return nil, fmt.Errorf("failed to parse xml: no root element")
	}
	return &Document{root: root}, nil
}

// ParseBytes is a convenience wrapper around Parse.
func ParseBytes(id string, data []byte) (*Document, error) {
	doc, err := Parse(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	doc.ID = id
	return doc, nil
}

// Root returns the document element.
func (d *Document) Root() *xmlquery.Node {
	return documentElement(d.root)
}

// Text returns the plain text of the text element (or of the whole document
// when there is none), with runs of whitespace collapsed to single spaces.
func (d *Document) Text() string {
	scope := findLocal(d.Root(), "text")
	if scope == nil {
		scope = d.Root()
	}
	return normalizeSpace(scope.InnerText())
}

func documentElement(n *xmlquery.Node) *xmlquery.Node {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == xmlquery.ElementNode {
			return c
		}
	}
	return nil
}

// findLocal returns the first descendant-or-self element with the given local name.
func findLocal(n *xmlquery.Node, local string) *xmlquery.Node {
	if n == nil {
		return nil
	}
	if n.Type == xmlquery.ElementNode && n.Data == local {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findLocal(c, local); found != nil {
			return found
		}
	}
	return nil
}

// childrenLocal returns the element children of n with the given local name.
func childrenLocal(n *xmlquery.Node, local string) []*xmlquery.Node {
	var out []*xmlquery.Node
	if n == nil {
		return out
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == xmlquery.ElementNode && c.Data == local {
			out = append(out, c)
		}
	}
	return out
}

func qualifiedName(prefix, local string) string {
	if prefix == "" {
		return local
	}
	return prefix + ":" + local
}

// attrValue matches a namespaced attribute either by prefix or by namespace URI.
func attrValue(n *xmlquery.Node, prefix, local string) string {
	if n == nil {
		return ""
	}
	uri := Namespaces[prefix]
	for _, a := range n.Attr {
		if a.Name.Local != local {
			continue
		}
		if a.Name.Space == prefix || (uri != "" && (a.NamespaceURI == uri || a.Name.Space == uri)) {
			return a.Value
		}
	}
	return ""
}

func normalizeSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
