package iiif

import (
	"bufio"
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/jpeg"
	"image/png"
	"io"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/aretw0/teiinfo/pkg/domain"
	"github.com/aretw0/teiinfo/pkg/scans"
)

// FileNotFound is the page name used for scans that are referenced but absent.
const FileNotFound = "filenotfound"

// Size used for the FileNotFound placeholder.
var FileNotFoundSize = scans.Size{Width: 480, Height: 640}

// MissingFile is the name of the report of referenced but absent scans.
const MissingFile = "facsMissing.tsv"

//go:embed mirador.html
var miradorTemplate string

// Missing counts the references to one absent scan.
type Missing struct {
	Kind string `json:"kind"`
	File string `json:"file"`
	Page string `json:"page"`
	N    int    `json:"n"`
}

// Summary describes a Manifests run.
type Summary struct {
	Manifests []string  `json:"manifests"`
	Items     int       `json:"items"`
	Pages     int       `json:"pages"`
	Excluded  []string  `json:"excluded,omitempty"`
	Missing   []Missing `json:"missing,omitempty"`
}

// Generator writes IIIF manifests for the pages of a corpus.
type Generator struct {
	cfg       *Config
	templates map[string]any
	mirador   map[string]any
	excluded  map[string]any
	info      *scans.Info
	outDir    string
	reportDir string
	scanDir   string
	logger    *slog.Logger

	missing map[string]map[string]map[string]int
}

// GeneratorOption configures a Generator.
type GeneratorOption func(*Generator)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) GeneratorOption {
	return func(g *Generator) { g.logger = l }
}

// WithReportDir sets where facsMissing.tsv is written (default: the output dir).
func WithReportDir(dir string) GeneratorOption {
	return func(g *Generator) { g.reportDir = dir }
}

// WithScanDir enables writing a placeholder image for missing scans into
// <dir>/<kind>/filenotfound.<ext>.
func WithScanDir(dir string) GeneratorOption {
	return func(g *Generator) { g.scanDir = dir }
}

// NewGenerator parses the templates, mirador and excludedFolders sections of
// cfg with the given arguments. Scan sizes and rotations come from info.
func NewGenerator(cfg *Config, info *scans.Info, outDir string, args map[string]any, opts ...GeneratorOption) (*Generator, error) {
	sections, err := Parse(cfg, []string{"templates", "mirador", "excludedFolders"}, args)
	if err != nil {
		return nil, err
	}
	g := &Generator{
		cfg:       cfg,
		templates: sections["templates"],
		mirador:   sections["mirador"],
		excluded:  sections["excludedFolders"],
		info:      info,
		outDir:    outDir,
		reportDir: outDir,
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(g)
	}
	if g.info == nil {
		g.info = &scans.Info{}
	}
	for _, name := range []string{"pageItem", "pageSequence"} {
		if _, ok := g.templates[name].(map[string]any); !ok {
			return nil, fmt.Errorf("%w: templates.%s", ErrMissingTemplate, name)
		}
	}
	return g, nil
}

// ManifestDir is where the manifests are written.
func (g *Generator) ManifestDir() string {
	return filepath.Join(g.outDir, "manifests")
}

type docPages struct {
	folder, file string
	pages        []domain.Page
}

// Manifests writes one manifest per folder (or per folder and file, depending
// on the manifest level) for the given pages, a covers manifest when cover
// scans exist, the Mirador viewer page and the missing scans report.
// The manifest directory is recreated on every run.
func (g *Generator) Manifests(ctx context.Context, pages []domain.Page) (*Summary, error) {
	g.missing = make(map[string]map[string]map[string]int)
	summary := &Summary{}

	manifestDir := g.ManifestDir()
	if err := os.RemoveAll(manifestDir); err != nil {
		return nil, fmt.Errorf("failed to clear manifest dir: %w", err)
	}
	if err := os.MkdirAll(manifestDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create manifest dir: %w", err)
	}
	if err := g.writeMirador(); err != nil {
		return nil, err
	}

	if covers := g.info.Pages(scans.KindCovers); len(covers) > 0 {
		if _, ok := g.templates["coverItem"].(map[string]any); ok {
			cp := make([]domain.Page, len(covers))
			for i, c := range covers {
				cp[i] = domain.Page{Facs: c}
			}
			target := filepath.Join(manifestDir, "covers.json")
			if err := g.genPages(scans.KindCovers, "covers", "", cp, target, summary); err != nil {
				return nil, err
			}
		} else {
			g.logger.Warn("cover scans found but no coverItem template")
		}
	}

	folders, byFolder := group(pages)
	for _, folder := range folders {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if Truthy(g.excluded[folder]) {
			g.logger.Info("folder excluded in config", "folder", folder)
			summary.Excluded = append(summary.Excluded, folder)
			continue
		}

		docs := byFolder[folder]
		if g.cfg.ManifestLevel == LevelFolder {
			var all []domain.Page
			for _, d := range docs {
				all = append(all, d.pages...)
			}
			target := filepath.Join(manifestDir, filepath.FromSlash(folder)+".json")
			if err := g.genPages(scans.KindPages, folder, "", all, target, summary); err != nil {
				return nil, err
			}
			continue
		}
		for _, d := range docs {
			target := filepath.Join(manifestDir, filepath.FromSlash(folder), d.file+".json")
			if err := g.genPages(scans.KindPages, folder, d.file, d.pages, target, summary); err != nil {
				return nil, err
			}
		}
	}

	summary.Missing = g.missingList()
	if err := g.writeMissing(summary.Missing); err != nil {
		return nil, err
	}
	g.logger.Info("iiif manifests generated",
		"manifests", len(summary.Manifests), "items", summary.Items, "pages", summary.Pages, "dir", manifestDir)
	return summary, nil
}

// group splits pages by folder and document, keeping document order within
// a document. Folders come out in version order.
func group(pages []domain.Page) ([]string, map[string][]*docPages) {
	byFolder := make(map[string][]*docPages)
	index := make(map[string]*docPages)
	for _, p := range pages {
		d, ok := index[p.Document]
		if !ok {
			folder, file := path.Split(p.Document)
			folder = strings.TrimSuffix(folder, "/")
			if folder == "" {
				folder = file
			}
			d = &docPages{folder: folder, file: file}
			index[p.Document] = d
			byFolder[folder] = append(byFolder[folder], d)
		}
		d.pages = append(d.pages, p)
	}
	folders := make([]string, 0, len(byFolder))
	for f := range byFolder {
		folders = append(folders, f)
	}
	scans.SortVersions(folders)
	return folders, byFolder
}

func pageName(facs string) string {
	if facs == "" {
		return "NA"
	}
	base := path.Base(strings.TrimPrefix(facs, "#"))
	return strings.TrimSuffix(base, path.Ext(base))
}

type itemKey struct {
	page          string
	width, height int
	rot           int
}

func (g *Generator) genPages(kind, folder, file string, pages []domain.Page, target string, summary *Summary) error {
	itemTpl := g.templates["pageItem"].(map[string]any)
	seqTpl, _ := g.templates["pageSequence"].(map[string]any)
	if kind == scans.KindCovers {
		itemTpl = g.templates["coverItem"].(map[string]any)
		if cs, ok := g.templates["coverSequence"].(map[string]any); ok {
			seqTpl = cs
		}
	}
	sizes := g.info.Sizes[kind]

	seen := make(map[itemKey]bool)
	var items []any
	for _, pg := range pages {
		summary.Pages++

		p := pageName(pg.Facs)
		region := "full"
		if g.cfg.ZoneBased && pg.Zone != "" {
			region = pg.Zone
		}

		size, present := sizes[p]
		rot := 0
		if present {
			if kind != scans.KindCovers {
				rot = g.info.Rotations[p]
			}
		} else {
			g.recordMissing(kind, file, p)
			p = FileNotFound
			size = FileNotFoundSize
			if err := g.placeholder(kind); err != nil {
				return err
			}
		}

		key := itemKey{page: p, width: size.Width, height: size.Height, rot: rot}
		if seen[key] {
			continue
		}
		seen[key] = true

		vars := map[string]any{
			"folder": folder,
			"file":   file,
			"page":   p,
			"region": region,
			"width":  size.Width,
			"height": size.Height,
			"rot":    rot,
		}
		items = append(items, Fillin(itemTpl, vars))
	}

	if len(items) == 0 {
		return nil
	}

	data := Fillin(seqTpl, map[string]any{"folder": folder, "file": file}).(map[string]any)
	data["items"] = items

	if err := writeJSON(target, data); err != nil {
		return err
	}
	summary.Manifests = append(summary.Manifests, target)
	summary.Items += len(items)
	return nil
}

func (g *Generator) recordMissing(kind, file, page string) {
	byFile, ok := g.missing[kind]
	if !ok {
		byFile = make(map[string]map[string]int)
		g.missing[kind] = byFile
	}
	if byFile[file] == nil {
		byFile[file] = make(map[string]int)
	}
	byFile[file][page]++
}

func (g *Generator) missingList() []Missing {
	var out []Missing
	for kind, byFile := range g.missing {
		for file, pages := range byFile {
			for page, n := range pages {
				out = append(out, Missing{Kind: kind, File: file, Page: page, N: n})
			}
		}
	}
	sortMissing(out)
	return out
}

func sortMissing(ms []Missing) {
	sort.Slice(ms, func(i, j int) bool {
		a, b := ms[i], ms[j]
		if a.Kind != b.Kind {
			return a.Kind < b.Kind
		}
		if a.File != b.File {
			return scans.CompareVersions(a.File, b.File) < 0
		}
		return scans.CompareVersions(a.Page, b.Page) < 0
	})
}

func (g *Generator) writeMissing(ms []Missing) error {
	if err := os.MkdirAll(g.reportDir, 0755); err != nil {
		return err
	}
	f, err := os.Create(filepath.Join(g.reportDir, MissingFile))
	if err != nil {
		return fmt.Errorf("failed to write %s: %w", MissingFile, err)
	}
	w := bufio.NewWriter(f)
	fmt.Fprintln(w, "kind\tfile\tpage\tn")
	total := 0
	for _, m := range ms {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\n", m.Kind, m.File, m.Page, m.N)
		total += m.N
	}
	if total > 0 {
		g.logger.Warn("missing image files", "files", len(ms), "occurrences", total)
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func (g *Generator) writeMirador() error {
	manifests, ok := g.mirador["manifests"]
	if !ok {
		return nil
	}
	rep, ok := manifests.(string)
	if !ok {
		b, err := json.Marshal(manifests)
		if err != nil {
			return fmt.Errorf("invalid mirador manifests: %w", err)
		}
		rep = string(b)
	}
	html := strings.ReplaceAll(miradorTemplate, "«manifests»", rep)
	html = strings.ReplaceAll(html, "«example»", stringify(g.mirador["example"]))
	if err := os.WriteFile(filepath.Join(g.outDir, "mirador.html"), []byte(html), 0644); err != nil {
		return fmt.Errorf("failed to write mirador page: %w", err)
	}
	return nil
}

// placeholder writes a blank FileNotFound image into the scan dir, once.
func (g *Generator) placeholder(kind string) error {
	if g.scanDir == "" {
		return nil
	}
	ext := "jpg"
	if v, ok := g.cfg.Constant("ext"); ok {
		ext = stringify(v)
	}
	target := filepath.Join(g.scanDir, kind, FileNotFound+"."+ext)
	if _, err := os.Stat(target); err == nil {
		return nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
		return err
	}

	img := image.NewGray(image.Rect(0, 0, FileNotFoundSize.Width, FileNotFoundSize.Height))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: color.Gray{Y: 0xd0}}, image.Point{}, draw.Src)

	f, err := os.Create(target)
	if err != nil {
		return err
	}
	if ext == "png" {
		err = png.Encode(f, img)
	} else {
		err = jpeg.Encode(f, img, nil)
	}
	if err != nil {
		f.Close()
		return fmt.Errorf("failed to write placeholder: %w", err)
	}
	return f.Close()
}

func writeJSON(target string, data any) error {
	if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
		return err
	}
	f, err := os.Create(target)
	if err != nil {
		return fmt.Errorf("failed to write manifest: %w", err)
	}
	enc := json.NewEncoder(f)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", " ")
	if err := enc.Encode(data); err != nil {
		f.Close()
		return fmt.Errorf("failed to encode manifest: %w", err)
	}
	return f.Close()
}
