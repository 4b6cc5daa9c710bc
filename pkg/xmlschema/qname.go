package xmlschema

import (
	"strings"

	"github.com/beevik/etree"
)

// XSDNamespace is the namespace of XML Schema documents.
const XSDNamespace = "http://www.w3.org/2001/XMLSchema"

const xmlNamespace = "http://www.w3.org/XML/1998/namespace"

// qname is an expanded name.
type qname struct {
	Space string
	Local string
}

func (q qname) String() string {
	if q.Space == "" {
		return q.Local
	}
	return "{" + q.Space + "}" + q.Local
}

// isXS reports whether el is the XML Schema element with the given local name.
func isXS(el *etree.Element, local string) bool {
	return el != nil && el.Tag == local && el.NamespaceURI() == XSDNamespace
}

// xsChildren returns the XML Schema children of el, skipping annotations.
func xsChildren(el *etree.Element) []*etree.Element {
	var out []*etree.Element
	for _, c := range el.ChildElements() {
		if c.NamespaceURI() == XSDNamespace && c.Tag != "annotation" {
			out = append(out, c)
		}
	}
	return out
}

func xsChild(el *etree.Element, local string) *etree.Element {
	for _, c := range el.ChildElements() {
		if isXS(c, local) {
			return c
		}
	}
	return nil
}

// attr returns an unqualified attribute value.
func attr(el *etree.Element, key string) string {
	for _, a := range el.Attr {
		if a.Space == "" && a.Key == key {
			return a.Value
		}
	}
	return ""
}

// resolveQName expands a QName-valued attribute using the namespace
// declarations in scope at el.
func resolveQName(el *etree.Element, value string) qname {
	value = strings.TrimSpace(value)
	prefix, local, ok := strings.Cut(value, ":")
	if !ok {
		local, prefix = value, ""
	}
	return qname{Space: lookupNamespace(el, prefix), Local: local}
}

func lookupNamespace(el *etree.Element, prefix string) string {
	if prefix == "xml" {
		return xmlNamespace
	}
	for cur := el; cur != nil; cur = cur.Parent() {
		for _, a := range cur.Attr {
			if prefix == "" && a.Space == "" && a.Key == "xmlns" {
				return a.Value
			}
			if prefix != "" && a.Space == "xmlns" && a.Key == prefix {
				return a.Value
			}
		}
	}
	return ""
}
