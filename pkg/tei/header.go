package tei

import (
	"github.com/antchfx/xmlquery"
	"github.com/aretw0/teiinfo/pkg/domain"
)

// Header extracts the bibliographic metadata of the teiHeader.
// Fields that are absent are left empty.
func (d *Document) Header() domain.Header {
	var h domain.Header

	header := findLocal(d.Root(), "teiHeader")
	if header == nil {
		return h
	}

	fileDesc := findLocal(header, "fileDesc")
	titleStmt := findLocal(fileDesc, "titleStmt")
	if titles := childrenLocal(titleStmt, "title"); len(titles) > 0 {
		h.Title = pickTitle(titles)
	}
	for _, a := range childrenLocal(titleStmt, "author") {
		if s := normalizeSpace(a.InnerText()); s != "" {
			h.Authors = append(h.Authors, s)
		}
	}
	for _, e := range childrenLocal(titleStmt, "editor") {
		if s := normalizeSpace(e.InnerText()); s != "" {
			h.Editors = append(h.Editors, s)
		}
	}

	if pub := findLocal(fileDesc, "publicationStmt"); pub != nil {
		if p := findLocal(pub, "publisher"); p != nil {
			h.Publisher = normalizeSpace(p.InnerText())
		}
		if dt := findLocal(pub, "date"); dt != nil {
			h.Date = dt.SelectAttr("when")
			if h.Date == "" {
				h.Date = normalizeSpace(dt.InnerText())
			}
		}
		if id := findLocal(pub, "idno"); id != nil {
			h.Idno = normalizeSpace(id.InnerText())
		}
	}

	if langUsage := findLocal(header, "langUsage"); langUsage != nil {
		if lang := findLocal(langUsage, "language"); lang != nil {
			h.Language = lang.SelectAttr("ident")
		}
	}
	if h.Language == "" {
		h.Language = attrValue(d.Root(), "xml", "lang")
	}

	return h
}

// pickTitle prefers a title with type="main", then the first one.
func pickTitle(titles []*xmlquery.Node) string {
	for _, t := range titles {
		if t.SelectAttr("type") == "main" {
			return normalizeSpace(t.InnerText())
		}
	}
	return normalizeSpace(titles[0].InnerText())
}
