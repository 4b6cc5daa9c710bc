package domain

import "sort"

// ElementStat aggregates the occurrences of one element name.
type ElementStat struct {
	Name       string         `json:"name"`
	Count      int            `json:"count"`
	Documents  int            `json:"documents"`
	Attributes map[string]int `json:"attributes,omitempty"`
	// HasText is set when at least one occurrence has direct, non-whitespace text.
	HasText bool `json:"has_text,omitempty"`
}

// Page is a page break (pb) found in a document, in document order.
type Page struct {
	Document string `json:"document"`
	N        string `json:"n,omitempty"`
	Facs     string `json:"facs,omitempty"`
	// Zone is the region of the scan ("x,y,w,h") when facs points at a zone.
	Zone string `json:"zone,omitempty"`
}

// Inventory is the result of surveying one or more documents.
type Inventory struct {
	Documents int                     `json:"documents"`
	Elements  map[string]*ElementStat `json:"elements"`
	Pages     []Page                  `json:"pages,omitempty"`
	// Failures maps document IDs to the reason they could not be surveyed.
	Failures map[string]string `json:"failures,omitempty"`
}

// NewInventory creates an empty inventory.
func NewInventory() Inventory {
	return Inventory{
		Elements: make(map[string]*ElementStat),
		Failures: make(map[string]string),
	}
}

// SortedElements returns the element statistics ordered by name.
func (inv Inventory) SortedElements() []*ElementStat {
	out := make([]*ElementStat, 0, len(inv.Elements))
	for _, st := range inv.Elements {
		out = append(out, st)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
