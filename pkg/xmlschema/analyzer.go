package xmlschema

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"hash"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/aretw0/teiinfo/pkg/domain"
	"github.com/beevik/etree"
)

// schemaFile is one loaded schema document.
type schemaFile struct {
	path            string
	root            *etree.Element
	targetNamespace string
	qualified       bool // elementFormDefault="qualified"
}

// definition is a named global component. prev links to the component it
// replaced through xs:redefine or xs:override.
type definition struct {
	el   *etree.Element
	file *schemaFile
	prev *definition
}

// Analyzer loads XML Schema documents and classifies their elements.
// It is not safe for concurrent use.
type Analyzer struct {
	logger   *slog.Logger
	now      func() time.Time
	noFollow bool

	files []*schemaFile
	seen  map[string]bool
	sum   hash.Hash

	elements map[qname]*definition
	types    map[qname]*definition
	groups   map[qname]*definition
}

// Option configures an Analyzer.
type Option func(*Analyzer)

// WithLogger sets the logger used to report conflicting declarations and
// skipped imports.
func WithLogger(l *slog.Logger) Option {
	return func(a *Analyzer) {
		a.logger = l
	}
}

// WithClock overrides the time source used for SchemaAnalysis.Created.
func WithClock(now func() time.Time) Option {
	return func(a *Analyzer) {
		a.now = now
	}
}

// WithoutFollow keeps the analyzer off the filesystem: imports are skipped
// and include, redefine or override are rejected. Use it for untrusted input.
func WithoutFollow() Option {
	return func(a *Analyzer) {
		a.noFollow = true
	}
}

// New creates an empty Analyzer.
func New(opts ...Option) *Analyzer {
	a := &Analyzer{
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		now:      time.Now,
		seen:     make(map[string]bool),
		sum:      sha256.New(),
		elements: make(map[qname]*definition),
		types:    make(map[qname]*definition),
		groups:   make(map[qname]*definition),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// AddFile loads the schema at path together with everything it includes,
// imports, redefines or overrides.
func (a *Analyzer) AddFile(path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("failed to resolve %s: %w", path, err)
	}
	data, err := os.ReadFile(abs)
	if err != nil {
		return fmt.Errorf("failed to read schema: %w", err)
	}
	return a.add(abs, data, "")
}

// AddBytes loads a schema held in memory. Relative schemaLocations are
// resolved against the directory of name.
func (a *Analyzer) AddBytes(name string, data []byte) error {
	abs, err := filepath.Abs(name)
	if err != nil {
		return fmt.Errorf("failed to resolve %s: %w", name, err)
	}
	return a.add(abs, data, "")
}

// Checksum is the hex sha256 of every loaded document, in load order.
func (a *Analyzer) Checksum() string {
	return hex.EncodeToString(a.sum.Sum(nil))
}

// Files returns the paths of the loaded documents in load order.
func (a *Analyzer) Files() []string {
	out := make([]string, len(a.files))
	for i, f := range a.files {
		out[i] = f.path
	}
	return out
}

// add parses one document. chameleon is the namespace adopted by an included
// document that declares none.
func (a *Analyzer) add(path string, data []byte, chameleon string) error {
	if a.seen[path] {
		return nil
	}
	a.seen[path] = true
	a.sum.Write(data)

	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(data); err != nil {
		return fmt.Errorf("%w: %s: %v", domain.ErrUnsupportedSchema, path, err)
	}
	root := doc.Root()
	if root == nil || !isXS(root, "schema") {
		return fmt.Errorf("%w: %s is not an XML Schema document", domain.ErrUnsupportedSchema, path)
	}

	f := &schemaFile{
		path:            path,
		root:            root,
		targetNamespace: attr(root, "targetNamespace"),
		qualified:       attr(root, "elementFormDefault") == "qualified",
	}
	if f.targetNamespace == "" {
		f.targetNamespace = chameleon
	}
	a.files = append(a.files, f)

	// 1. Referenced documents first, so that redefinitions in this one win.
	var errs []error
	for _, c := range xsChildren(root) {
		switch c.Tag {
		case "include", "import", "redefine", "override":
		default:
			continue
		}
		if err := a.follow(f, c); err != nil {
			errs = append(errs, err)
		}
	}

	// 2. Global components
	for _, c := range xsChildren(root) {
		switch c.Tag {
		case "element":
			a.define(a.elements, f, c, false)
		case "complexType", "simpleType":
			a.define(a.types, f, c, false)
		case "group":
			a.define(a.groups, f, c, false)
		case "redefine", "override":
			for _, rc := range xsChildren(c) {
				switch rc.Tag {
				case "element":
					a.define(a.elements, f, rc, true)
				case "complexType", "simpleType":
					a.define(a.types, f, rc, true)
				case "group":
					a.define(a.groups, f, rc, true)
				}
			}
		}
	}

	return errors.Join(errs...)
}

func (a *Analyzer) follow(f *schemaFile, ref *etree.Element) error {
	loc := attr(ref, "schemaLocation")
	if loc == "" {
		return nil
	}
	optional := ref.Tag == "import"

	if a.noFollow {
		if optional {
			a.logger.Warn("Skipping import", "schema", f.path, "location", loc)
			return nil
		}
		return fmt.Errorf("%w: %s of other documents is not allowed here", domain.ErrUnsupportedSchema, ref.Tag)
	}

	if strings.Contains(loc, "://") {
		if optional {
			a.logger.Warn("Skipping remote import", "schema", f.path, "location", loc)
			return nil
		}
		return fmt.Errorf("%s: remote %s not supported: %s", f.path, ref.Tag, loc)
	}

	target := filepath.FromSlash(loc)
	if !filepath.IsAbs(target) {
		target = filepath.Join(filepath.Dir(f.path), target)
	}
	target = filepath.Clean(target)

	data, err := os.ReadFile(target)
	if err != nil {
		if optional {
			a.logger.Warn("Skipping unavailable import", "schema", f.path, "location", loc, "err", err)
			return nil
		}
		return fmt.Errorf("%s: failed to read %s %s: %w", f.path, ref.Tag, loc, err)
	}

	chameleon := ""
	if ref.Tag != "import" {
		chameleon = f.targetNamespace
	}
	return a.add(target, data, chameleon)
}

func (a *Analyzer) define(table map[qname]*definition, f *schemaFile, el *etree.Element, replace bool) {
	name := attr(el, "name")
	if name == "" {
		return
	}
	q := qname{Space: f.targetNamespace, Local: name}
	d := &definition{el: el, file: f}
	if old, ok := table[q]; ok {
		if !replace {
			a.logger.Debug("Ignoring duplicate global component", "name", q.String(), "schema", f.path)
			return
		}
		d.prev = old
	}
	table[q] = d
}

// lookup finds a global component. Unqualified names also match the target
// namespace of the referring document, which covers chameleon includes.
// A component never resolves to a definition enclosing from, so a redefined
// type deriving from itself reaches the original.
func lookup(table map[qname]*definition, q qname, f *schemaFile, from *etree.Element) *definition {
	d, ok := table[q]
	if !ok && q.Space == "" && f != nil {
		d = table[qname{Space: f.targetNamespace, Local: q.Local}]
	}
	for d != nil && d.prev != nil && encloses(d.el, from) {
		d = d.prev
	}
	return d
}

func encloses(outer, inner *etree.Element) bool {
	for cur := inner; cur != nil; cur = cur.Parent() {
		if cur == outer {
			return true
		}
	}
	return false
}
