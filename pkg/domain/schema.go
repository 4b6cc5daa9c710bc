package domain

import (
	"sort"
	"time"
)

// ContentKind classifies what an element may contain.
type ContentKind string

const (
	// ContentMixed allows text and child elements interleaved.
	ContentMixed ContentKind = "mixed"
	// ContentElement allows child elements only.
	ContentElement ContentKind = "element"
	// ContentText allows text only.
	ContentText ContentKind = "text"
	// ContentEmpty allows neither text nor children.
	ContentEmpty ContentKind = "empty"
)

// IsMixed reports whether the kind is mixed content.
func (k ContentKind) IsMixed() bool { return k == ContentMixed }

// IsPure reports whether the kind is pure content: children only, text only, or nothing.
func (k ContentKind) IsPure() bool { return k != ContentMixed && k != "" }

// Rank orders kinds from weakest to strongest: empty < text < element < mixed.
func (k ContentKind) Rank() int {
	switch k {
	case ContentEmpty:
		return 1
	case ContentText:
		return 2
	case ContentElement:
		return 3
	case ContentMixed:
		return 4
	}
	return 0
}

// ElementDef is the classification of one element declared in a schema.
type ElementDef struct {
	Name              string      `json:"name" yaml:"name"`
	Namespace         string      `json:"namespace,omitempty" yaml:"namespace,omitempty"`
	Kind              ContentKind `json:"kind" yaml:"kind"`
	Abstract          bool        `json:"abstract,omitempty" yaml:"abstract,omitempty"`
	SubstitutionGroup string      `json:"substitution_group,omitempty" yaml:"substitution_group,omitempty"`
	Source            string      `json:"source,omitempty" yaml:"source,omitempty"`
}

// SchemaAnalysis is the mixed/pure classification of all elements of a schema.
type SchemaAnalysis struct {
	Schema   string       `json:"schema" yaml:"schema"`
	Checksum string       `json:"checksum" yaml:"checksum"`
	Elements []ElementDef `json:"elements" yaml:"elements"`
	Created  time.Time    `json:"created" yaml:"created"`
}

// Element looks up the definition of an element by name.
func (a *SchemaAnalysis) Element(name string) (ElementDef, bool) {
	i := sort.Search(len(a.Elements), func(i int) bool { return a.Elements[i].Name >= name })
	if i < len(a.Elements) && a.Elements[i].Name == name {
		return a.Elements[i], true
	}
	return ElementDef{}, false
}

// Mixed returns the names of the mixed content elements.
func (a *SchemaAnalysis) Mixed() []string {
	return a.names(ContentKind.IsMixed)
}

// Pure returns the names of the pure content elements.
func (a *SchemaAnalysis) Pure() []string {
	return a.names(ContentKind.IsPure)
}

func (a *SchemaAnalysis) names(keep func(ContentKind) bool) []string {
	var out []string
	for _, el := range a.Elements {
		if keep(el.Kind) {
			out = append(out, el.Name)
		}
	}
	return out
}

// KindChange records an element whose classification differs between two analyses.
type KindChange struct {
	Name string      `json:"name"`
	From ContentKind `json:"from"`
	To   ContentKind `json:"to"`
}

// AnalysisDiff compares a base schema with a customisation of it.
type AnalysisDiff struct {
	Added   []ElementDef `json:"added,omitempty"`
	Removed []ElementDef `json:"removed,omitempty"`
	Changed []KindChange `json:"changed,omitempty"`
}

// Empty reports whether both analyses agree.
func (d AnalysisDiff) Empty() bool {
	return len(d.Added) == 0 && len(d.Removed) == 0 && len(d.Changed) == 0
}
