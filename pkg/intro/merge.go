// Package intro merges the introduction texts of an edition, each a TEI file,
// into one TEI document.
package intro

import (
	"errors"
	"fmt"
	"os"

	"github.com/beevik/etree"
)

// Source is one intro text.
type Source struct {
	Name string
	Data []byte
}

// Merge reads the TEI files at paths and merges them in the given order.
func Merge(paths ...string) (*etree.Document, error) {
	var errs []error
	sources := make([]Source, 0, len(paths))
	for _, p := range paths {
		data, err := os.ReadFile(p)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", p, err))
			continue
		}
		sources = append(sources, Source{Name: p, Data: data})
	}

	doc, err := MergeSources(sources...)
	if err != nil {
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return doc, nil
}

// MergeSources concatenates the children of text/body of every source into a
// copy of the first source, which also provides the teiHeader. Every source
// that cannot be parsed or has no body is reported; all problems are
// collected before returning.
func MergeSources(sources ...Source) (*etree.Document, error) {
	if len(sources) == 0 {
		return nil, errors.New("no intro texts to merge")
	}

	var (
		errs   []error
		bodies []*etree.Element
		first  *etree.Document
	)
	for _, src := range sources {
		doc := etree.NewDocument()
		if err := doc.ReadFromBytes(src.Data); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", src.Name, err))
			continue
		}
		body := findBody(doc)
		if body == nil {
			errs = append(errs, fmt.Errorf("%s: no text/body element", src.Name))
			continue
		}
		if first == nil {
			first = doc
		}
		bodies = append(bodies, body)
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	merged := first.Copy()
	target := findBody(merged)
	for _, child := range append([]etree.Token(nil), target.Child...) {
		target.RemoveChild(child)
	}
	for _, body := range bodies {
		for _, child := range body.Child {
			if tok := copyToken(child); tok != nil {
				target.AddChild(tok)
			}
		}
	}
	return merged, nil
}

// MergeString is Merge followed by serialisation.
func MergeString(paths ...string) (string, error) {
	doc, err := Merge(paths...)
	if err != nil {
		return "", err
	}
	return doc.WriteToString()
}

func findBody(doc *etree.Document) *etree.Element {
	root := doc.Root()
	if root == nil || root.Tag != "TEI" {
		return nil
	}
	text := child(root, "text")
	if text == nil {
		return nil
	}
	return child(text, "body")
}

func child(el *etree.Element, local string) *etree.Element {
	for _, c := range el.ChildElements() {
		if c.Tag == local {
			return c
		}
	}
	return nil
}

func copyToken(t etree.Token) etree.Token {
	switch v := t.(type) {
	case *etree.Element:
		return v.Copy()
	case *etree.CharData:
		if v.IsCData() {
			return etree.NewCData(v.Data)
		}
		return etree.NewCharData(v.Data)
	case *etree.Comment:
		return etree.NewComment(v.Data)
	case *etree.ProcInst:
		return etree.NewProcInst(v.Target, v.Inst)
	}
	return nil
}
