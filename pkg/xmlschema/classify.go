package xmlschema

import (
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/aretw0/teiinfo/pkg/domain"
	"github.com/beevik/etree"
)

// classifier holds the per-run memo and cycle guards.
type classifier struct {
	a        *Analyzer
	memo     map[*etree.Element]domain.ContentKind
	visiting map[*etree.Element]bool
	errs     []error
}

// Analyze classifies every element declared in the loaded documents, global
// and local. References (ref=) are not declarations; the element they point
// to is classified where it is declared.
//
// A name declared more than once with different content kinds is reported
// once, with the strongest kind (mixed > element > text > empty).
func (a *Analyzer) Analyze(label string) (*domain.SchemaAnalysis, error) {
	if len(a.files) == 0 {
		return nil, fmt.Errorf("%w: no schema loaded", domain.ErrUnsupportedSchema)
	}

	c := &classifier{
		a:        a,
		memo:     make(map[*etree.Element]domain.ContentKind),
		visiting: make(map[*etree.Element]bool),
	}

	byName := make(map[string]domain.ElementDef)
	for _, f := range a.files {
		walkDeclarations(f.root, func(el *etree.Element, global bool) {
			def := domain.ElementDef{
				Name:      attr(el, "name"),
				Namespace: declaredNamespace(el, f, global),
				Kind:      c.elementKind(el, f),
				Abstract:  isTrue(attr(el, "abstract")),
				Source:    filepath.Base(f.path),
			}
			if sg := strings.Fields(attr(el, "substitutionGroup")); len(sg) > 0 {
				def.SubstitutionGroup = resolveQName(el, sg[0]).Local
			}

			prev, ok := byName[def.Name]
			if !ok {
				byName[def.Name] = def
				return
			}
			if prev.Kind != def.Kind {
				a.logger.Info("Element declared with different content kinds",
					"element", def.Name, "kinds", []domain.ContentKind{prev.Kind, def.Kind})
			}
			if def.Kind.Rank() > prev.Kind.Rank() {
				byName[def.Name] = def
			}
		})
	}
	if len(c.errs) > 0 {
		return nil, errors.Join(c.errs...)
	}

	elements := make([]domain.ElementDef, 0, len(byName))
	for _, def := range byName {
		elements = append(elements, def)
	}
	sort.Slice(elements, func(i, j int) bool { return elements[i].Name < elements[j].Name })

	return &domain.SchemaAnalysis{
		Schema:   label,
		Checksum: a.Checksum(),
		Elements: elements,
		Created:  a.now().UTC(),
	}, nil
}

// walkDeclarations visits every named xs:element below root. Declarations
// directly under the schema, xs:redefine or xs:override are global.
func walkDeclarations(root *etree.Element, fn func(el *etree.Element, global bool)) {
	var walk func(el *etree.Element, global bool)
	walk = func(el *etree.Element, global bool) {
		for _, c := range xsChildren(el) {
			if c.Tag == "element" && attr(c, "name") != "" {
				fn(c, global)
			}
			walk(c, c.Tag == "redefine" || c.Tag == "override")
		}
	}
	walk(root, true)
}

func declaredNamespace(el *etree.Element, f *schemaFile, global bool) string {
	if global {
		return f.targetNamespace
	}
	form := attr(el, "form")
	if form == "qualified" || (form == "" && f.qualified) {
		return f.targetNamespace
	}
	return ""
}

func isTrue(v string) bool {
	v = strings.TrimSpace(v)
	return v == "true" || v == "1"
}

func (c *classifier) fail(format string, args ...any) {
	c.errs = append(c.errs, fmt.Errorf(format, args...))
}

// elementKind classifies one element declaration.
func (c *classifier) elementKind(el *etree.Element, f *schemaFile) domain.ContentKind {
	if kind, ok := c.memo[el]; ok {
		return kind
	}
	if c.visiting[el] {
		// The cycle is broken at the head, which falls back to xs:anyType.
		c.a.logger.Warn("Circular substitution group", "schema", f.path, "element", attr(el, "name"))
		return domain.ContentMixed
	}
	c.visiting[el] = true
	defer delete(c.visiting, el)

	kind := c.declaredKind(el, f)
	c.memo[el] = kind
	return kind
}

func (c *classifier) declaredKind(el *etree.Element, f *schemaFile) domain.ContentKind {
	if t := attr(el, "type"); t != "" {
		return c.typeKind(resolveQName(el, t), el, f)
	}
	if ct := xsChild(el, "complexType"); ct != nil {
		return c.complexKind(ct, f)
	}
	if xsChild(el, "simpleType") != nil {
		return domain.ContentText
	}
	// Without a type the declaration takes the type of its substitution
	// group head, or xs:anyType.
	if sg := strings.Fields(attr(el, "substitutionGroup")); len(sg) > 0 {
		head := lookup(c.a.elements, resolveQName(el, sg[0]), f, el)
		if head == nil {
			c.fail("%s: element %s: unresolved substitution group %s", f.path, attr(el, "name"), sg[0])
			return domain.ContentMixed
		}
		return c.elementKind(head.el, head.file)
	}
	return domain.ContentMixed
}

// typeKind classifies a named type referenced from el.
func (c *classifier) typeKind(q qname, from *etree.Element, f *schemaFile) domain.ContentKind {
	if q.Space == XSDNamespace {
		if q.Local == "anyType" {
			return domain.ContentMixed
		}
		return domain.ContentText
	}

	d := lookup(c.a.types, q, f, from)
	if d == nil {
		c.fail("%s: unresolved type %s", f.path, q)
		return domain.ContentText
	}
	if d.el.Tag == "simpleType" {
		return domain.ContentText
	}
	return c.complexKind(d.el, d.file)
}

// complexKind classifies an xs:complexType.
func (c *classifier) complexKind(ct *etree.Element, f *schemaFile) domain.ContentKind {
	if kind, ok := c.memo[ct]; ok {
		return kind
	}
	if c.visiting[ct] {
		// The cycle is broken at the base, which contributes no content.
		c.a.logger.Warn("Circular type derivation", "schema", f.path, "type", attr(ct, "name"))
		return domain.ContentEmpty
	}
	c.visiting[ct] = true
	defer delete(c.visiting, ct)

	kind := c.contentKind(ct, f)
	c.memo[ct] = kind
	return kind
}

func (c *classifier) contentKind(ct *etree.Element, f *schemaFile) domain.ContentKind {
	mixed := isTrue(attr(ct, "mixed"))

	if xsChild(ct, "simpleContent") != nil {
		return domain.ContentText
	}

	cc := xsChild(ct, "complexContent")
	if cc == nil {
		return combine(mixed, c.hasParticles(ct, f))
	}
	if v := attr(cc, "mixed"); v != "" {
		mixed = isTrue(v)
	}

	if ext := xsChild(cc, "extension"); ext != nil {
		base := c.typeKind(resolveQName(ext, attr(ext, "base")), ext, f)
		switch base {
		case domain.ContentMixed:
			return domain.ContentMixed
		case domain.ContentElement:
			return combine(mixed, true)
		}
		return combine(mixed, c.hasParticles(ext, f))
	}
	if rst := xsChild(cc, "restriction"); rst != nil {
		return combine(mixed, c.hasParticles(rst, f))
	}
	return combine(mixed, false)
}

func combine(mixed, particles bool) domain.ContentKind {
	switch {
	case mixed:
		return domain.ContentMixed
	case particles:
		return domain.ContentElement
	}
	return domain.ContentEmpty
}

// hasParticles reports whether the content model below el can hold at least
// one child element. Empty compositors do not count.
func (c *classifier) hasParticles(el *etree.Element, f *schemaFile) bool {
	for _, p := range xsChildren(el) {
		switch p.Tag {
		case "element", "any":
			return true
		case "sequence", "choice", "all":
			if c.hasParticles(p, f) {
				return true
			}
		case "group":
			ref := attr(p, "ref")
			if ref == "" {
				if c.hasParticles(p, f) {
					return true
				}
				continue
			}
			d := lookup(c.a.groups, resolveQName(p, ref), f, p)
			if d == nil {
				c.fail("%s: unresolved group %s", f.path, ref)
				continue
			}
			if c.visiting[d.el] {
				// A group that contains itself has particles elsewhere or none at all.
				continue
			}
			c.visiting[d.el] = true
			found := c.hasParticles(d.el, d.file)
			delete(c.visiting, d.el)
			if found {
				return true
			}
		}
	}
	return false
}
