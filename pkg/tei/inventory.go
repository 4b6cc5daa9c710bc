package tei

import (
	"strconv"
	"strings"

	"github.com/antchfx/xmlquery"
	"github.com/aretw0/teiinfo/pkg/domain"
)

// Inventory surveys the document: every element and attribute is counted and
// every page break is listed in document order.
func (d *Document) Inventory() domain.Inventory {
	inv := domain.NewInventory()
	inv.Documents = 1

	zones := d.zones()
	var walk func(n *xmlquery.Node)
	walk = func(n *xmlquery.Node) {
		if n.Type == xmlquery.ElementNode {
			name := qualifiedName(n.Prefix, n.Data)
			st, ok := inv.Elements[name]
			if !ok {
				st = &domain.ElementStat{Name: name, Documents: 1, Attributes: map[string]int{}}
				inv.Elements[name] = st
			}
			st.Count++
			for _, a := range n.Attr {
				if a.Name.Space == "xmlns" || (a.Name.Space == "" && a.Name.Local == "xmlns") {
					continue
				}
				st.Attributes[qualifiedName(a.Name.Space, a.Name.Local)]++
			}
			if !st.HasText && hasDirectText(n) {
				st.HasText = true
			}
			if n.Data == "pb" {
				inv.Pages = append(inv.Pages, d.page(n, zones))
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(d.root)

	return inv
}

func hasDirectText(n *xmlquery.Node) bool {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if (c.Type == xmlquery.TextNode || c.Type == xmlquery.CharDataNode) && strings.TrimSpace(c.Data) != "" {
			return true
		}
	}
	return false
}

type zone struct {
	scan   string
	region string
}

// zones indexes facsimile/surface/zone by xml:id so that pb/@facs="#id" can be
// resolved to a scan and a region.
func (d *Document) zones() map[string]zone {
	out := make(map[string]zone)
	facsimile := findLocal(d.Root(), "facsimile")
	if facsimile == nil {
		return out
	}
	for _, surface := range childrenLocal(facsimile, "surface") {
		scan := surfaceScan(surface)
		if id := attrValue(surface, "xml", "id"); id != "" {
			out[id] = zone{scan: scan, region: "full"}
		}
		for _, z := range childrenLocal(surface, "zone") {
			id := attrValue(z, "xml", "id")
			if id == "" {
				continue
			}
			out[id] = zone{scan: scan, region: region(z)}
		}
	}
	return out
}

func surfaceScan(surface *xmlquery.Node) string {
	if graphics := childrenLocal(surface, "graphic"); len(graphics) > 0 {
		if url := graphics[0].SelectAttr("url"); url != "" {
			return url
		}
	}
	if facs := surface.SelectAttr("facs"); facs != "" {
		return facs
	}
	return attrValue(surface, "xml", "id")
}

// region converts ulx/uly/lrx/lry into an IIIF region "x,y,w,h".
func region(z *xmlquery.Node) string {
	coords := make([]int, 4)
	for i, name := range []string{"ulx", "uly", "lrx", "lry"} {
		v, err := strconv.Atoi(strings.TrimSpace(z.SelectAttr(name)))
		if err != nil {
			return "full"
		}
		coords[i] = v
	}
	w, h := coords[2]-coords[0], coords[3]-coords[1]
	if w <= 0 || h <= 0 {
		return "full"
	}
	return strconv.Itoa(coords[0]) + "," + strconv.Itoa(coords[1]) + "," + strconv.Itoa(w) + "," + strconv.Itoa(h)
}

func (d *Document) page(pb *xmlquery.Node, zones map[string]zone) domain.Page {
	p := domain.Page{
		Document: d.ID,
		N:        pb.SelectAttr("n"),
		Facs:     pb.SelectAttr("facs"),
	}
	if strings.HasPrefix(p.Facs, "#") {
		if z, ok := zones[p.Facs[1:]]; ok {
			p.Facs = z.scan
			if z.region != "full" {
				p.Zone = z.region
			}
		}
	}
	return p
}

// Merge folds src into dst. Element statistics are summed, pages appended and
// failures united.
func Merge(dst *domain.Inventory, src domain.Inventory) {
	if dst.Elements == nil {
		dst.Elements = make(map[string]*domain.ElementStat)
	}
	if dst.Failures == nil {
		dst.Failures = make(map[string]string)
	}

	dst.Documents += src.Documents
	for name, st := range src.Elements {
		cur, ok := dst.Elements[name]
		if !ok {
			cur = &domain.ElementStat{Name: name, Attributes: map[string]int{}}
			dst.Elements[name] = cur
		}
		cur.Count += st.Count
		cur.Documents += st.Documents
		cur.HasText = cur.HasText || st.HasText
		for a, c := range st.Attributes {
			cur.Attributes[a] += c
		}
	}
	dst.Pages = append(dst.Pages, src.Pages...)
	for id, reason := range src.Failures {
		dst.Failures[id] = reason
	}
}
