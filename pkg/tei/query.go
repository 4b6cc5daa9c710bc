package tei

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/antchfx/xmlquery"
	"github.com/antchfx/xpath"
)

// Namespaces are the prefixes available in query expressions.
var Namespaces = map[string]string{
	"tei": Namespace,
	"xml": "http://www.w3.org/XML/1998/namespace",
}

// Match is a node selected by a query.
type Match struct {
	Name       string            `json:"name"`
	Location   string            `json:"location"`
	Attributes map[string]string `json:"attributes,omitempty"`
	Text       string            `json:"text"`
}

// Compile compiles an XPath 1.0 expression with the TEI prefixes bound.
func Compile(expr string) (*xpath.Expr, error) {
	compiled, err := xpath.CompileWithNS(expr, Namespaces)
	if err != nil {
		return nil, fmt.Errorf("invalid xpath %q: %w", expr, err)
	}
	return compiled, nil
}

// ValueName is the Match name of a number, string or boolean result.
const ValueName = "#value"

// Query evaluates expr against the document.
// Invalid expressions are reported as errors; an expression that selects
// nothing yields an empty slice. Expressions such as count(...) or string(...)
// yield one match named ValueName whose Text is the value.
func (d *Document) Query(expr string) ([]Match, error) {
	compiled, err := Compile(expr)
	if err != nil {
		return nil, err
	}
	return d.QueryCompiled(compiled), nil
}

// QueryCompiled evaluates a pre-compiled expression, which is cheaper when the
// same query runs over several documents. A compiled expression must not be
// evaluated from several goroutines at once.
func (d *Document) QueryCompiled(expr *xpath.Expr) []Match {
	switch v := expr.Evaluate(xmlquery.CreateXPathNavigator(d.root)).(type) {
	case *xpath.NodeIterator:
		out := []Match{}
		for v.MoveNext() {
			if nav, ok := v.Current().(*xmlquery.NodeNavigator); ok {
				out = append(out, toMatch(nav.Current()))
			}
		}
		return out
	case float64:
		return []Match{{Name: ValueName, Text: strconv.FormatFloat(v, 'f', -1, 64)}}
	case string:
		return []Match{{Name: ValueName, Text: v}}
	case bool:
		return []Match{{Name: ValueName, Text: strconv.FormatBool(v)}}
	}
	return []Match{}
}

func toMatch(n *xmlquery.Node) Match {
	m := Match{
		Location: location(n),
		Text:     normalizeSpace(n.InnerText()),
	}
	switch n.Type {
	case xmlquery.ElementNode:
		m.Name = qualifiedName(n.Prefix, n.Data)
		if len(n.Attr) > 0 {
			m.Attributes = make(map[string]string, len(n.Attr))
			for _, a := range n.Attr {
				m.Attributes[qualifiedName(a.Name.Space, a.Name.Local)] = a.Value
			}
		}
	case xmlquery.AttributeNode:
		m.Name = "@" + qualifiedName(n.Prefix, n.Data)
	default:
		m.Name = "#text"
	}
	return m
}

// location renders a positional path such as /TEI[1]/text[1]/body[1]/p[2].
func location(n *xmlquery.Node) string {
	var parts []string
	for cur := n; cur != nil && cur.Type != xmlquery.DocumentNode; cur = cur.Parent {
		switch cur.Type {
		case xmlquery.ElementNode:
			parts = append(parts, cur.Data+"["+strconv.Itoa(position(cur))+"]")
		case xmlquery.AttributeNode:
			parts = append(parts, "@"+cur.Data)
		default:
			parts = append(parts, "text()")
		}
	}
	for i, j := 0, len(parts)-1; i < j; i, j = i+1, j-1 {
		parts[i], parts[j] = parts[j], parts[i]
	}
	return "/" + strings.Join(parts, "/")
}

func position(n *xmlquery.Node) int {
	pos := 1
	for s := n.PrevSibling; s != nil; s = s.PrevSibling {
		if s.Type == xmlquery.ElementNode && s.Data == n.Data {
			pos++
		}
	}
	return pos
}
